package render

// Handle is an opaque driver object (swapchain, image, view, framebuffer,
// fence, semaphore, command buffer, render pass or pipeline). The render
// package never looks inside a Handle; it only hands it back to the Device
// that produced it.
type Handle interface{}

// Extent is a 2D size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// UndefinedExtent is the sentinel width/height a surface reports when the
// swapchain extent is left to the application.
const UndefinedExtent = ^uint32(0)

// IsZero reports whether either dimension is zero.
func (e Extent) IsZero() bool { return e.Width == 0 || e.Height == 0 }

// Format and ColorSpace carry the numeric values of the corresponding
// Vulkan enums.
type (
	Format     int32
	ColorSpace int32
)

const (
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8SRGB  Format = 50

	ColorSpaceSRGBNonlinear ColorSpace = 0
)

// SurfaceFormat is a (format, color-space) pair supported by a surface.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode carries the numeric value of a Vulkan present mode.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

// SurfaceCapabilities is the subset of the surface capabilities the
// swapchain needs. MaxImageCount 0 means unbounded.
type SurfaceCapabilities struct {
	MinImageCount uint32
	MaxImageCount uint32
	CurrentExtent Extent
	MinExtent     Extent
	MaxExtent     Extent
}

// SwapchainInfo describes a swapchain to create.
type SwapchainInfo struct {
	ImageCount    uint32
	SurfaceFormat SurfaceFormat
	PresentMode   PresentMode
	Extent        Extent
}

// SurfaceStatus is the outcome of an acquire or present request that did
// not fail outright.
type SurfaceStatus int

const (
	SurfaceOptimal SurfaceStatus = iota
	SurfaceSuboptimal
	SurfaceOutOfDate
)

func (s SurfaceStatus) String() string {
	switch s {
	case SurfaceOptimal:
		return "optimal"
	case SurfaceSuboptimal:
		return "suboptimal"
	case SurfaceOutOfDate:
		return "out-of-date"
	}
	return "unknown"
}

// ClearColor is an RGBA clear value.
type ClearColor [4]float32

// Black is opaque black.
var Black = ClearColor{0, 0, 0, 1}

// Submission is one command buffer submitted to the graphics queue.
// The queue waits on Wait at the color-attachment-output stage, signals
// Signal when the commands finish and signals Fence on full completion.
type Submission struct {
	Commands Handle
	Wait     Handle
	Signal   Handle
	Fence    Handle
}

// SurfaceDevice queries the presentation surface.
type SurfaceDevice interface {
	SurfaceCapabilities() (SurfaceCapabilities, error)
	SurfaceFormats() ([]SurfaceFormat, error)
	SurfacePresentModes() ([]PresentMode, error)
}

// SwapchainDevice creates and destroys the swapchain and the objects
// that depend on its images.
type SwapchainDevice interface {
	SurfaceDevice

	CreateSwapchain(info SwapchainInfo) (Handle, error)
	SwapchainImages(swapchain Handle) ([]Handle, error)
	CreateImageView(image Handle, format Format) (Handle, error)
	CreateFramebuffer(renderPass, view Handle, extent Extent) (Handle, error)

	DestroyFramebuffer(framebuffer Handle)
	DestroyImageView(view Handle)
	DestroySwapchain(swapchain Handle)
}

// SyncDevice manages fences, semaphores and the per-frame command buffers.
type SyncDevice interface {
	CreateFence(signaled bool) (Handle, error)
	CreateSemaphore() (Handle, error)
	WaitForFence(fence Handle) error
	ResetFence(fence Handle) error
	DestroyFence(fence Handle)
	DestroySemaphore(semaphore Handle)

	AllocateCommandBuffers(count int) ([]Handle, error)
	FreeCommandBuffers(buffers []Handle)
}

// CommandDevice records into a command buffer.
type CommandDevice interface {
	ResetCommandBuffer(cmd Handle) error
	BeginCommandBuffer(cmd Handle) error
	EndCommandBuffer(cmd Handle) error

	CmdBeginRenderPass(cmd, renderPass, framebuffer Handle, area Extent, clear ClearColor)
	CmdBindPipeline(cmd, pipeline Handle)
	CmdSetViewport(cmd Handle, extent Extent)
	CmdSetScissor(cmd Handle, extent Extent)
	CmdDraw(cmd Handle, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdEndRenderPass(cmd Handle)
}

// QueueDevice talks to the graphics and presentation queues.
type QueueDevice interface {
	AcquireNextImage(swapchain, signal Handle) (uint32, SurfaceStatus, error)
	QueueSubmit(s Submission) error
	QueuePresent(swapchain Handle, image uint32, wait Handle) (SurfaceStatus, error)
}

// Device is everything the frame pipeline needs from the GPU.
type Device interface {
	SwapchainDevice
	SyncDevice
	CommandDevice
	QueueDevice

	// WaitIdle blocks until the device has no outstanding work.
	WaitIdle() error
}

// Window is the part of the windowing layer the frame pipeline reads.
type Window interface {
	// FramebufferSize returns the current framebuffer size in pixels.
	FramebufferSize() (width, height int)
	// WaitEvents blocks until at least one window event was processed.
	WaitEvents()
}

// Target is the fixed render pass and graphics pipeline every frame uses.
// Both are owned by the caller.
type Target struct {
	RenderPass Handle
	Pipeline   Handle
}
