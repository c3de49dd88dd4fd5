// Package window opens the glfw window the triangle is presented to.
package window

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
)

// Window is a glfw window without a client API. The embedded
// *glfw.Window supplies the instance extensions and surface creation.
type Window struct {
	*glfw.Window
}

// Open initializes glfw and creates a resizable window. glfw must be
// driven from the main thread.
func Open(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw init")
	}

	// Tell GLFW we aren't using OpenGL.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}
	return &Window{Window: w}, nil
}

// FramebufferSize is the drawable size in pixels. It is 0x0 while the
// window is minimized.
func (w *Window) FramebufferSize() (width, height int) {
	return w.GetFramebufferSize()
}

// WaitEvents blocks until glfw has an event to process.
func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

// PollEvents processes pending events without blocking.
func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// OnResize calls fn whenever the framebuffer size changes.
func (w *Window) OnResize(fn func()) {
	w.SetFramebufferSizeCallback(func(*glfw.Window, int, int) {
		fn()
	})
}

func (w *Window) Close() {
	w.Destroy()
	glfw.Terminate()
}
