package vulkan

import (
	"log"
	"runtime"

	"github.com/ibd1279/vks"

	"github.com/ibd1279/vks-examples/hello-triangle/internal/render"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Config selects what the Context enables at startup.
type Config struct {
	AppName string

	// Validation enables the Khronos validation layer.
	Validation bool
	// Layers and InstanceExtensions are added to what the window and
	// the platform require.
	Layers             []string
	InstanceExtensions []string
	DeviceExtensions   []string

	// ShaderDir holds vert.spv and frag.spv.
	ShaderDir string

	// SurfaceFormat is the format the render pass is built for when the
	// surface supports it.
	SurfaceFormat render.SurfaceFormat

	// Verbose logs the available extensions and devices.
	Verbose bool
	Logger  *log.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.AppName == "" {
		cfg.AppName = "hello-triangle"
	}
	if cfg.ShaderDir == "" {
		cfg.ShaderDir = "."
	}
	if cfg.SurfaceFormat == (render.SurfaceFormat{}) {
		cfg.SurfaceFormat = render.DefaultSurfaceFormat
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return cfg
}

func (cfg Config) layers() []string {
	layers := append([]string(nil), cfg.Layers...)
	if cfg.Validation {
		layers = appendUnique(layers, validationLayer)
	}
	return layers
}

func (cfg Config) instanceExtensions(window []string) []string {
	exts := append([]string(nil), window...)
	for _, e := range cfg.InstanceExtensions {
		exts = appendUnique(exts, e)
	}
	if portability() {
		exts = appendUnique(exts,
			vks.VK_KHR_PORTABILITY_ENUMERATION_EXTENSION_NAME,
			vks.VK_KHR_GET_PHYSICAL_DEVICE_PROPERTIES_2_EXTENSION_NAME,
		)
	}
	return exts
}

func (cfg Config) deviceExtensions() []string {
	exts := appendUnique(nil, vks.VK_KHR_SWAPCHAIN_EXTENSION_NAME)
	for _, e := range cfg.DeviceExtensions {
		exts = appendUnique(exts, e)
	}
	if portability() {
		exts = appendUnique(exts, vks.VK_KHR_PORTABILITY_SUBSET_EXTENSION_NAME)
	}
	return exts
}

// portability reports whether the platform's driver is a portability
// implementation that must be enumerated explicitly.
func portability() bool { return runtime.GOOS == "darwin" }

func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		found := false
		for _, have := range list {
			if have == n {
				found = true
				break
			}
		}
		if !found {
			list = append(list, n)
		}
	}
	return list
}

// missing returns the entries of required that are not in available.
func missing(required, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[a] = true
	}
	var out []string
	for _, r := range required {
		if !have[r] {
			out = append(out, r)
		}
	}
	return out
}
