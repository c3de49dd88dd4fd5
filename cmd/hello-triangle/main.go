// Command hello-triangle draws a single triangle with Vulkan and keeps
// presenting it until the window is closed.
package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/hello-triangle/internal/render"
	"github.com/ibd1279/vks-examples/hello-triangle/internal/vulkan"
	"github.com/ibd1279/vks-examples/hello-triangle/internal/window"
)

//go:generate glslc shaders/shader.vert -o shaders/vert.spv
//go:generate glslc shaders/shader.frag -o shaders/frag.spv

func init() {
	runtime.LockOSThread()
}

var (
	width      = flag.Int("width", 800, "initial window width")
	height     = flag.Int("height", 600, "initial window height")
	frames     = flag.Int("frames", render.DefaultFramesInFlight, "frames in flight")
	shaders    = flag.String("shaders", "shaders", "directory holding vert.spv and frag.spv")
	validation = flag.Bool("validation", false, "enable the Khronos validation layer")
	verbose    = flag.Bool("verbose", false, "log extensions and physical devices")
	stats      = flag.Duration("stats", 5*time.Second, "frame rate report interval, 0 to disable")
)

// Main function.
func main() {
	flag.Parse()

	vks.Init().OrPanic()
	defer vks.Destroy()

	var version uint32
	if result := vks.EnumerateInstanceVersion(&version); result.IsSuccess() {
		log.Printf("%v - API version", vks.ApiVersion(version))
		log.Printf("%v - vk.xml version", vks.VK_HEADER_VERSION_COMPLETE)
	}

	if err := run(); err != nil {
		log.Fatalf("hello-triangle: %+v", err)
	}
}

func run() (err error) {
	win, err := window.Open(*width, *height, "vks hello-triangle")
	if err != nil {
		return err
	}
	defer win.Close()

	ctx, err := vulkan.NewContext(win, vulkan.Config{
		Validation: *validation,
		ShaderDir:  *shaders,
		Verbose:    *verbose,
	})
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	loop, err := render.NewLoop(ctx, win, ctx.Target(), render.Options{
		FramesInFlight: *frames,
		SurfaceFormat:  ctx.SurfaceFormat(),
		StatsInterval:  *stats,
	})
	if err != nil {
		return err
	}
	defer func() {
		if serr := loop.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}()

	win.OnResize(loop.NotifyResized)
	return mainLoop(win, loop)
}

func mainLoop(win *window.Window, loop *render.Loop) error {
	for !win.ShouldClose() {
		win.PollEvents()
		if res := loop.RunFrame(); res.Kind == render.Fatal {
			return errors.Wrapf(res.Err, "after %d frames", loop.Stats().Total())
		}
	}
	log.Printf("presented %d frames, %d swapchain rebuilds", loop.Stats().Total(), loop.Rebuilds())
	return nil
}
