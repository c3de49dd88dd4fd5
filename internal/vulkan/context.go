// Package vulkan sets up the Vulkan objects the triangle needs and
// implements render.Device on top of them.
package vulkan

import (
	"strings"
	"unsafe"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/hello-triangle/internal/render"
)

// Surfacer is the window side of surface creation. *glfw.Window
// implements it.
type Surfacer interface {
	GetRequiredInstanceExtensions() []string
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

// Context owns the Vulkan instance, surface, device, queues, command pool,
// render pass and graphics pipeline. It implements render.Device.
type Context struct {
	cfg Config

	instance vks.InstanceFacade
	surface  vks.SurfaceKHR

	physicalDevice    vks.PhysicalDeviceFacade
	graphicQueueIndex uint32
	presentQueueIndex uint32
	graphicQueue      vks.QueueFacade
	presentQueue      vks.QueueFacade
	device            vks.DeviceFacade

	graphicCommandPool vks.CommandPoolFacade

	// Last surface query results, used to hand the exact driver values
	// back when the swapchain is created.
	formats      []vks.SurfaceFormatKHR
	presentModes []vks.PresentModeKHR

	surfaceFormat  render.SurfaceFormat
	renderPass     vks.RenderPass
	pipelineLayout vks.PipelineLayout
	pipelines      []vks.Pipeline
}

var _ render.Device = (*Context)(nil)

// NewContext creates everything the frame pipeline needs up to and
// including the graphics pipeline. vks.Init must have been called.
func NewContext(win Surfacer, cfg Config) (*Context, error) {
	c := &Context{cfg: cfg.withDefaults()}
	if err := c.setup(win); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

// Target returns the render pass and pipeline for render.NewLoop.
func (c *Context) Target() render.Target {
	return render.Target{RenderPass: c.renderPass, Pipeline: c.pipelines[0]}
}

// SurfaceFormat returns the format the render pass was created for.
func (c *Context) SurfaceFormat() render.SurfaceFormat { return c.surfaceFormat }

func (c *Context) setup(win Surfacer) error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()
	logger := c.cfg.Logger

	layers := c.cfg.layers()
	extensions := c.cfg.instanceExtensions(win.GetRequiredInstanceExtensions())

	// Check everything we are about to ask for before vkCreateInstance
	// turns it into an opaque VK_ERROR_*_NOT_PRESENT.
	validateInstance := func() error {
		var count uint32
		result := vks.EnumerateInstanceLayerProperties(&count, nil)
		if result.IsError() {
			return errors.Wrap(result.AsErr(), "vkEnumerateInstanceLayerProperties")
		}
		layerProperties := make([]vks.LayerProperties, count)
		result = vks.EnumerateInstanceLayerProperties(&count, layerProperties)
		if result.IsError() {
			return errors.Wrap(result.AsErr(), "vkEnumerateInstanceLayerProperties")
		}
		available := make([]string, 0, len(layerProperties))
		for _, layer := range layerProperties {
			available = append(available, vks.ToString(layer.LayerName()))
		}
		if m := missing(layers, available); len(m) > 0 {
			return errors.Errorf("layers requested but not available: %s", strings.Join(m, ", "))
		}

		available = available[:0]
		for _, layer := range append([]string{""}, layers...) {
			ln := vks.NewCStr(arp, layer)
			result = vks.EnumerateInstanceExtensionProperties(ln, &count, nil)
			if result.IsError() {
				return errors.Wrap(result.AsErr(), "vkEnumerateInstanceExtensionProperties")
			}
			extensionProperties := make([]vks.ExtensionProperties, count)
			result = vks.EnumerateInstanceExtensionProperties(ln, &count, extensionProperties)
			if result.IsError() {
				return errors.Wrap(result.AsErr(), "vkEnumerateInstanceExtensionProperties")
			}
			for h, ext := range extensionProperties {
				name := vks.ToString(ext.ExtensionName())
				if c.cfg.Verbose {
					logger.Printf("%s Ext%2d:%s / %v", layer, h, name, vks.ApiVersion(ext.SpecVersion()))
				}
				available = append(available, name)
			}
		}
		if m := missing(extensions, available); len(m) > 0 {
			return errors.Errorf("instance extensions required but not available: %s", strings.Join(m, ", "))
		}
		return nil
	}

	if err := validateInstance(); err != nil {
		return err
	}

	createInstance := func() error {
		appInfo := vks.CPtr(arp, &vks.ApplicationInfo{},
			vks.SetEngine(arp, "NoEngine", vks.MakeApiVersion(0, 1, 0, 0)),
			vks.SetApplication(arp, c.cfg.AppName, vks.MakeApiVersion(0, 0, 1, 0)),
			vks.SetDefaultSType,
			func(in *vks.ApplicationInfo) {
				in.SetApiVersion(uint32(vks.VK_API_VERSION_1_3))
			},
		)
		createInfo := vks.CPtr(arp, &vks.InstanceCreateInfo{},
			vks.SetInstanceLayers(arp, layers),
			vks.SetInstanceExtensions(arp, extensions),
			vks.SetDefaultSType,
			func(in *vks.InstanceCreateInfo) {
				in.SetPApplicationInfo(appInfo)
				if portability() {
					in.SetFlags(vks.InstanceCreateFlags(vks.VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR))
				}
			},
		)

		var vkInstance vks.Instance
		if result := vks.CreateInstance(createInfo, nil, &vkInstance); result.IsError() {
			return errors.Wrap(result.AsErr(), "vkCreateInstance")
		}
		c.instance = vks.MakeInstanceFacade(vkInstance)
		return nil
	}

	if err := createInstance(); err != nil {
		return err
	}

	createSurface := func() error {
		surface, err := win.CreateWindowSurface(c.instance.H, nil)
		if err != nil {
			return errors.Wrap(err, "create window surface")
		}
		// glfw hands back the address of the VkSurfaceKHR it wrote.
		c.surface = *(*vks.SurfaceKHR)(unsafe.Pointer(surface))
		return nil
	}

	if err := createSurface(); err != nil {
		return err
	}

	// Take the first device that can both draw and present to our surface.
	selectPhysicalDevice := func() error {
		var count uint32
		result := c.instance.EnumeratePhysicalDevices(&count, nil)
		if result.IsError() {
			return errors.Wrap(result.AsErr(), "vkEnumeratePhysicalDevices")
		}
		if count < 1 {
			return errors.New("no vulkan physical devices")
		}
		physicalDevices := make([]vks.PhysicalDevice, count)
		result = c.instance.EnumeratePhysicalDevices(&count, physicalDevices)
		if result.IsError() {
			return errors.Wrap(result.AsErr(), "vkEnumeratePhysicalDevices")
		}

		for k, phyDev := range physicalDevices {
			phyDev := c.instance.MakePhysicalDeviceFacade(phyDev)

			driverProps := vks.CPtr(arp, &vks.PhysicalDeviceDriverProperties{},
				vks.SetDefaultSType,
			)
			props := vks.CPtr(arp, &vks.PhysicalDeviceProperties2{},
				vks.SetDefaultSType,
				vks.SetPNext[*vks.PhysicalDeviceProperties2](driverProps),
			)
			phyDev.GetPhysicalDeviceProperties2(props)
			name := vks.ToString(props.Properties().DeviceName())
			if c.cfg.Verbose {
				logger.Printf("physical device %d %s %s - %s - %s %s", k, name,
					props.Properties().DeviceType(),
					vks.ApiVersion(props.Properties().ApiVersion()),
					vks.ToString(driverProps.DriverName()),
					vks.ToString(driverProps.DriverInfo()))
			}

			phyDev.GetPhysicalDeviceQueueFamilyProperties2(&count, nil)
			queueFamProps := make([]vks.QueueFamilyProperties2, count)
			for h, v := range queueFamProps {
				queueFamProps[h] = v.WithDefaultSType()
			}
			phyDev.GetPhysicalDeviceQueueFamilyProperties2(&count, queueFamProps)

			families := make([]queueFamily, len(queueFamProps))
			for h, v := range queueFamProps {
				qfp := v.QueueFamilyProperties()
				families[h].graphics = qfp.QueueFlags()&vks.QueueFlags(vks.VK_QUEUE_GRAPHICS_BIT) != 0

				var presentSupport vks.Bool32
				phyDev.GetPhysicalDeviceSurfaceSupportKHR(uint32(h), c.surface, &presentSupport)
				families[h].present = presentSupport.IsTrue()
			}

			grfxIndex, prntIndex := pickQueueFamilies(families)
			if !grfxIndex.IsSet() || !prntIndex.IsSet() {
				logger.Printf("skipping %s: no graphics or presentation queue", name)
				continue
			}

			logger.Printf("using %s with graphics index %d and presentation index %d",
				name, grfxIndex.Some(), prntIndex.Some())
			c.physicalDevice = phyDev
			c.graphicQueueIndex = grfxIndex.Some()
			c.presentQueueIndex = prntIndex.Some()
			return nil
		}
		return errors.New("no physical device can draw and present to the surface")
	}

	if err := selectPhysicalDevice(); err != nil {
		return err
	}

	createDevice := func() error {
		familyIndices := []uint32{c.graphicQueueIndex, c.presentQueueIndex}
		familyPriority := [][]float32{{1.0}, {1.0}}
		if familyIndices[0] == familyIndices[1] {
			familyIndices = familyIndices[:1]
			familyPriority = familyPriority[:1]
		}
		queueCreateInfos := make([]vks.DeviceQueueCreateInfo, len(familyIndices))
		for k, idx := range familyIndices {
			queueCreateInfos[k] = vks.DeviceQueueCreateInfo{}.
				WithDefaultSType().
				WithQueueFamilyIndex(idx).
				WithPQueuePriorities(familyPriority[k])
		}
		queueCreateInfos = vks.DeviceQueueCreateInfoCSlice(arp, queueCreateInfos...)

		deviceCreateInfo := vks.CPtr(arp, &vks.DeviceCreateInfo{},
			vks.SetDefaultSType,
			vks.SetDeviceExtensions(arp, c.cfg.deviceExtensions()),
			func(in *vks.DeviceCreateInfo) {
				in.SetPQueueCreateInfos(queueCreateInfos)
			},
		)
		var vkDevice vks.Device
		if result := c.physicalDevice.CreateDevice(deviceCreateInfo, nil, &vkDevice); result.IsError() {
			return errors.Wrap(result.AsErr(), "vkCreateDevice")
		}
		c.device = c.physicalDevice.MakeDeviceFacade(vkDevice)

		// The queues alias when both roles share a family.
		var queue vks.Queue
		c.device.GetDeviceQueue(c.graphicQueueIndex, 0, &queue)
		c.graphicQueue = c.device.MakeQueueFacade(queue)
		c.device.GetDeviceQueue(c.presentQueueIndex, 0, &queue)
		c.presentQueue = c.device.MakeQueueFacade(queue)
		return nil
	}

	if err := createDevice(); err != nil {
		return err
	}

	// Per-slot command buffers are reset individually every frame.
	createCommandPool := func() error {
		poolCreateInfo := vks.CPtr(arp, &vks.CommandPoolCreateInfo{},
			vks.SetDefaultSType,
			func(in *vks.CommandPoolCreateInfo) {
				in.SetFlags(vks.CommandPoolCreateFlags(vks.VK_COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT))
				in.SetQueueFamilyIndex(c.graphicQueueIndex)
			},
		)
		var commandPool vks.CommandPool
		if result := c.device.CreateCommandPool(poolCreateInfo, nil, &commandPool); result.IsError() {
			return errors.Wrap(result.AsErr(), "vkCreateCommandPool")
		}
		c.graphicCommandPool = c.device.MakeCommandPoolFacade(commandPool)
		return nil
	}

	if err := createCommandPool(); err != nil {
		return err
	}

	formats, err := c.SurfaceFormats()
	if err != nil {
		return err
	}
	if c.surfaceFormat, err = render.ChooseSurfaceFormat(formats, c.cfg.SurfaceFormat); err != nil {
		return err
	}
	if err := c.createRenderPass(c.formatFor(c.surfaceFormat).Format()); err != nil {
		return err
	}
	if err := c.createPipelineLayout(); err != nil {
		return err
	}
	return c.createPipeline()
}

// Destroy releases everything NewContext created, in reverse order. The
// swapchain and frame slots must already be gone.
func (c *Context) Destroy() {
	if c.instance.H == vks.NullInstance {
		return
	}
	if c.device.H != vks.NullDevice {
		c.device.DeviceWaitIdle()
		for _, pipeline := range c.pipelines {
			c.device.DestroyPipeline(pipeline, nil)
		}
		c.pipelines = nil
		if !isNull(c.pipelineLayout) {
			c.device.DestroyPipelineLayout(c.pipelineLayout, nil)
		}
		if !isNull(c.renderPass) {
			c.device.DestroyRenderPass(c.renderPass, nil)
		}
		if !isNull(c.graphicCommandPool.H) {
			c.device.DestroyCommandPool(c.graphicCommandPool.H, nil)
		}
		c.device.DestroyDevice(nil)
		c.device = vks.DeviceFacade{}
	}
	if c.surface != vks.NullSurfaceKHR {
		c.instance.DestroySurfaceKHR(c.surface, nil)
		c.surface = vks.NullSurfaceKHR
	}
	c.instance.DestroyInstance(nil)
	c.instance = vks.InstanceFacade{}
}

// WaitIdle blocks until the device has finished all submitted work.
func (c *Context) WaitIdle() error {
	return check(c.device.DeviceWaitIdle(), "vkDeviceWaitIdle")
}

func isNull[T comparable](h T) bool {
	var zero T
	return h == zero
}

func check(result vks.Result, op string) error {
	if !result.IsError() {
		return nil
	}
	return errors.Wrap(result.AsErr(), op)
}
