package vulkan

import (
	"math"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/hello-triangle/internal/render"
)

func toExtent(e vks.Extent2D) render.Extent {
	return render.Extent{Width: e.Width(), Height: e.Height()}
}

func fromExtent(e render.Extent) vks.Extent2D {
	return vks.Extent2D{}.
		WithWidth(e.Width).
		WithHeight(e.Height)
}

// SurfaceCapabilities implements render.SurfaceDevice.
func (c *Context) SurfaceCapabilities() (render.SurfaceCapabilities, error) {
	var capabilities vks.SurfaceCapabilitiesKHR
	result := c.physicalDevice.GetPhysicalDeviceSurfaceCapabilitiesKHR(c.surface, &capabilities)
	if err := check(result, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return render.SurfaceCapabilities{}, err
	}
	return render.SurfaceCapabilities{
		MinImageCount: capabilities.MinImageCount(),
		MaxImageCount: capabilities.MaxImageCount(),
		CurrentExtent: toExtent(capabilities.CurrentExtent()),
		MinExtent:     toExtent(capabilities.MinImageExtent()),
		MaxExtent:     toExtent(capabilities.MaxImageExtent()),
	}, nil
}

// SurfaceFormats implements render.SurfaceDevice.
func (c *Context) SurfaceFormats() ([]render.SurfaceFormat, error) {
	var count uint32
	result := c.physicalDevice.GetPhysicalDeviceSurfaceFormatsKHR(c.surface, &count, nil)
	if err := check(result, "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, err
	}
	formats := make([]vks.SurfaceFormatKHR, count)
	result = c.physicalDevice.GetPhysicalDeviceSurfaceFormatsKHR(c.surface, &count, formats)
	if err := check(result, "vkGetPhysicalDeviceSurfaceFormatsKHR"); err != nil {
		return nil, err
	}
	c.formats = formats[:count]

	out := make([]render.SurfaceFormat, len(c.formats))
	for k, v := range c.formats {
		out[k] = render.SurfaceFormat{
			Format:     render.Format(v.Format()),
			ColorSpace: render.ColorSpace(v.ColorSpace()),
		}
	}
	return out, nil
}

// SurfacePresentModes implements render.SurfaceDevice.
func (c *Context) SurfacePresentModes() ([]render.PresentMode, error) {
	var count uint32
	result := c.physicalDevice.GetPhysicalDeviceSurfacePresentModesKHR(c.surface, &count, nil)
	if err := check(result, "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, err
	}
	presentModes := make([]vks.PresentModeKHR, count)
	result = c.physicalDevice.GetPhysicalDeviceSurfacePresentModesKHR(c.surface, &count, presentModes)
	if err := check(result, "vkGetPhysicalDeviceSurfacePresentModesKHR"); err != nil {
		return nil, err
	}
	c.presentModes = presentModes[:count]

	out := make([]render.PresentMode, len(c.presentModes))
	for k, v := range c.presentModes {
		out[k] = render.PresentMode(v)
	}
	return out, nil
}

// formatFor maps a render.SurfaceFormat back to the driver's value from
// the last SurfaceFormats call.
func (c *Context) formatFor(f render.SurfaceFormat) vks.SurfaceFormatKHR {
	for _, v := range c.formats {
		if render.Format(v.Format()) == f.Format && render.ColorSpace(v.ColorSpace()) == f.ColorSpace {
			return v
		}
	}
	return c.formats[0]
}

func (c *Context) presentModeFor(m render.PresentMode) vks.PresentModeKHR {
	for _, v := range c.presentModes {
		if render.PresentMode(v) == m {
			return v
		}
	}
	return vks.VK_PRESENT_MODE_FIFO_KHR
}

// CreateSwapchain implements render.SwapchainDevice.
func (c *Context) CreateSwapchain(info render.SwapchainInfo) (render.Handle, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	var capabilities vks.SurfaceCapabilitiesKHR
	result := c.physicalDevice.GetPhysicalDeviceSurfaceCapabilitiesKHR(c.surface, &capabilities)
	if err := check(result, "vkGetPhysicalDeviceSurfaceCapabilitiesKHR"); err != nil {
		return nil, err
	}
	selectedFormat := c.formatFor(info.SurfaceFormat)

	queueFamilyIndices := []uint32{c.graphicQueueIndex, c.presentQueueIndex}
	shareMode := vks.VK_SHARING_MODE_CONCURRENT
	if c.graphicQueueIndex == c.presentQueueIndex {
		queueFamilyIndices = queueFamilyIndices[:1]
		shareMode = vks.VK_SHARING_MODE_EXCLUSIVE
	}

	swapchainCreateInfo := vks.CPtr(arp, &vks.SwapchainCreateInfoKHR{},
		vks.SetDefaultSType,
		func(in *vks.SwapchainCreateInfoKHR) {
			in.SetSurface(c.surface)
			in.SetMinImageCount(info.ImageCount)
			in.SetImageFormat(selectedFormat.Format())
			in.SetImageColorSpace(selectedFormat.ColorSpace())
			in.SetImageExtent(fromExtent(info.Extent))
			in.SetImageArrayLayers(1)
			in.SetImageUsage(vks.ImageUsageFlags(vks.VK_IMAGE_USAGE_COLOR_ATTACHMENT_BIT))
			in.SetImageSharingMode(shareMode)
			in.SetQueueFamilyIndexCount(uint32(len(queueFamilyIndices)))
			in.SetPQueueFamilyIndices(queueFamilyIndices)
			in.SetPreTransform(capabilities.CurrentTransform())
			in.SetCompositeAlpha(vks.VK_COMPOSITE_ALPHA_OPAQUE_BIT_KHR)
			in.SetPresentMode(c.presentModeFor(info.PresentMode))
			in.SetClipped(vks.VK_TRUE)
			in.SetOldSwapchain(vks.NullSwapchainKHR)
		},
	)

	var swapchain vks.SwapchainKHR
	if result := c.device.CreateSwapchainKHR(swapchainCreateInfo, nil, &swapchain); result.IsError() {
		return nil, errors.Wrap(result.AsErr(), "vkCreateSwapchainKHR")
	}
	return swapchain, nil
}

// SwapchainImages implements render.SwapchainDevice.
func (c *Context) SwapchainImages(swapchain render.Handle) ([]render.Handle, error) {
	sc := swapchain.(vks.SwapchainKHR)
	var count uint32
	if err := check(c.device.GetSwapchainImagesKHR(sc, &count, nil), "vkGetSwapchainImagesKHR"); err != nil {
		return nil, err
	}
	images := make([]vks.Image, count)
	if err := check(c.device.GetSwapchainImagesKHR(sc, &count, images), "vkGetSwapchainImagesKHR"); err != nil {
		return nil, err
	}
	out := make([]render.Handle, count)
	for k := range out {
		out[k] = images[k]
	}
	return out, nil
}

// CreateImageView implements render.SwapchainDevice.
func (c *Context) CreateImageView(image render.Handle, format render.Format) (render.Handle, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	imgViewCreateInfo := vks.CPtr(arp, &vks.ImageViewCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.ImageViewCreateInfo) {
			in.SetImage(image.(vks.Image))
			in.SetViewType(vks.VK_IMAGE_VIEW_TYPE_2D)
			in.SetFormat(vks.Format(format))
			in.SetSubresourceRange(vks.ImageSubresourceRange{}.
				WithAspectMask(vks.ImageAspectFlags(vks.VK_IMAGE_ASPECT_COLOR_BIT)).
				WithLevelCount(1).
				WithLayerCount(1))
		},
	)
	var view vks.ImageView
	if result := c.device.CreateImageView(imgViewCreateInfo, nil, &view); result.IsError() {
		return nil, errors.Wrap(result.AsErr(), "vkCreateImageView")
	}
	return view, nil
}

// CreateFramebuffer implements render.SwapchainDevice.
func (c *Context) CreateFramebuffer(renderPass, view render.Handle, extent render.Extent) (render.Handle, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	bufferCreateInfo := vks.CPtr(arp, &vks.FramebufferCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.FramebufferCreateInfo) {
			in.SetRenderPass(renderPass.(vks.RenderPass))
			in.SetPAttachments([]vks.ImageView{view.(vks.ImageView)})
			in.SetWidth(extent.Width)
			in.SetHeight(extent.Height)
			in.SetLayers(1)
		},
	)
	var framebuffer vks.Framebuffer
	if result := c.device.CreateFramebuffer(bufferCreateInfo, nil, &framebuffer); result.IsError() {
		return nil, errors.Wrap(result.AsErr(), "vkCreateFramebuffer")
	}
	return framebuffer, nil
}

func (c *Context) DestroyFramebuffer(framebuffer render.Handle) {
	c.device.DestroyFramebuffer(framebuffer.(vks.Framebuffer), nil)
}

func (c *Context) DestroyImageView(view render.Handle) {
	c.device.DestroyImageView(view.(vks.ImageView), nil)
}

func (c *Context) DestroySwapchain(swapchain render.Handle) {
	c.device.DestroySwapchainKHR(swapchain.(vks.SwapchainKHR), nil)
}

// CreateFence implements render.SyncDevice.
func (c *Context) CreateFence(signaled bool) (render.Handle, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	fenceCreateInfo := vks.CPtr(arp, &vks.FenceCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.FenceCreateInfo) {
			if signaled {
				in.SetFlags(vks.FenceCreateFlags(vks.VK_FENCE_CREATE_SIGNALED_BIT))
			}
		},
	)
	var fence vks.Fence
	if result := c.device.CreateFence(fenceCreateInfo, nil, &fence); result.IsError() {
		return nil, errors.Wrap(result.AsErr(), "vkCreateFence")
	}
	return fence, nil
}

// CreateSemaphore implements render.SyncDevice.
func (c *Context) CreateSemaphore() (render.Handle, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	semaphoreCreateInfo := vks.CPtr(arp, &vks.SemaphoreCreateInfo{},
		vks.SetDefaultSType,
	)
	var semaphore vks.Semaphore
	if result := c.device.CreateSemaphore(semaphoreCreateInfo, nil, &semaphore); result.IsError() {
		return nil, errors.Wrap(result.AsErr(), "vkCreateSemaphore")
	}
	return semaphore, nil
}

// WaitForFence blocks without a timeout.
func (c *Context) WaitForFence(fence render.Handle) error {
	result := c.device.WaitForFences(
		1,
		[]vks.Fence{fence.(vks.Fence)},
		vks.VK_TRUE,
		math.MaxUint64,
	)
	return check(result, "vkWaitForFences")
}

func (c *Context) ResetFence(fence render.Handle) error {
	return check(c.device.ResetFences(1, []vks.Fence{fence.(vks.Fence)}), "vkResetFences")
}

func (c *Context) DestroyFence(fence render.Handle) {
	c.device.DestroyFence(fence.(vks.Fence), nil)
}

func (c *Context) DestroySemaphore(semaphore render.Handle) {
	c.device.DestroySemaphore(semaphore.(vks.Semaphore), nil)
}

// AllocateCommandBuffers implements render.SyncDevice.
func (c *Context) AllocateCommandBuffers(count int) ([]render.Handle, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	bufferAllocInfo := vks.CPtr(arp, &vks.CommandBufferAllocateInfo{},
		vks.SetDefaultSType,
		func(in *vks.CommandBufferAllocateInfo) {
			in.SetCommandPool(c.graphicCommandPool.H)
			in.SetLevel(vks.VK_COMMAND_BUFFER_LEVEL_PRIMARY)
			in.SetCommandBufferCount(uint32(count))
		},
	)
	cmdBuffers := make([]vks.CommandBuffer, count)
	if result := c.device.AllocateCommandBuffers(bufferAllocInfo, cmdBuffers); result.IsError() {
		return nil, errors.Wrap(result.AsErr(), "vkAllocateCommandBuffers")
	}
	out := make([]render.Handle, count)
	for k, b := range cmdBuffers {
		out[k] = b
	}
	return out, nil
}

func (c *Context) FreeCommandBuffers(buffers []render.Handle) {
	cmdBuffers := make([]vks.CommandBuffer, len(buffers))
	for k, b := range buffers {
		cmdBuffers[k] = b.(vks.CommandBuffer)
	}
	c.device.FreeCommandBuffers(c.graphicCommandPool.H,
		uint32(len(cmdBuffers)),
		cmdBuffers)
}
