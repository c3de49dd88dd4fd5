package render

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// DefaultFramesInFlight is the number of frame slots when Options leaves
// it unset.
const DefaultFramesInFlight = 2

// DefaultSurfaceFormat is the preferred swapchain format.
var DefaultSurfaceFormat = SurfaceFormat{
	Format:     FormatB8G8R8A8SRGB,
	ColorSpace: ColorSpaceSRGBNonlinear,
}

// Options tunes a Loop. The zero value selects the defaults.
type Options struct {
	// FramesInFlight is the number of frame slots. Default 2.
	FramesInFlight int
	// SurfaceFormat is the preferred swapchain format.
	SurfaceFormat SurfaceFormat
	// ClearColor is the color the render pass clears to. Default opaque
	// black.
	ClearColor ClearColor
	// StatsInterval is how often the frame rate is logged. Zero disables
	// the report.
	StatsInterval time.Duration
	// Logger receives swapchain and frame rate messages. Default
	// log.Default().
	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.FramesInFlight == 0 {
		o.FramesInFlight = DefaultFramesInFlight
	}
	if o.SurfaceFormat == (SurfaceFormat{}) {
		o.SurfaceFormat = DefaultSurfaceFormat
	}
	if o.ClearColor == (ClearColor{}) {
		o.ClearColor = Black
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// State is the position of a Loop in its per-frame state machine.
type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateRecording
	StateSubmitting
	StatePresenting
	StateInvalidated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitting:
		return "submitting"
	case StatePresenting:
		return "presenting"
	case StateInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// ResultKind classifies the outcome of RunFrame.
type ResultKind int

const (
	// Presented means the frame was queued for presentation.
	Presented ResultKind = iota
	// Invalidated means the swapchain was rebuilt during the frame. If
	// the invalidation was noticed at acquire nothing was submitted;
	// if it was noticed at present the frame was still delivered.
	Invalidated
	// Fatal means the loop hit a non-recoverable driver error and must
	// not be run again.
	Fatal
)

func (k ResultKind) String() string {
	switch k {
	case Presented:
		return "presented"
	case Invalidated:
		return "invalidated"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Result is the outcome of one RunFrame call. Err is set only for Fatal
// and is a *StageError.
type Result struct {
	Kind ResultKind
	Err  error
}

// Loop drives acquire, record, submit and present for one window. All
// methods except NotifyResized must be called from the same goroutine.
type Loop struct {
	dev  Device
	win  Window
	opts Options

	swapchain *Swapchain
	frames    *Frames
	recorder  *Recorder
	stats     *Stats

	cursor   int
	state    State
	resized  atomic.Bool
	rebuilds int
	err      error
	closed   bool
}

// NewLoop builds the first swapchain and the frame slots. The device,
// render pass and pipeline stay owned by the caller.
func NewLoop(dev Device, win Window, target Target, opts Options) (*Loop, error) {
	opts = opts.withDefaults()
	l := &Loop{
		dev:       dev,
		win:       win,
		opts:      opts,
		swapchain: NewSwapchain(dev, target.RenderPass, opts.SurfaceFormat, opts.Logger),
		recorder:  NewRecorder(dev, target, opts.ClearColor),
		stats:     NewStats(opts.StatsInterval, opts.Logger),
	}

	l.waitForSurface()
	caps, err := dev.SurfaceCapabilities()
	if err != nil {
		return nil, stageErr(StageBuild, errors.Wrap(err, "query surface capabilities"))
	}
	if err := l.swapchain.Build(caps, win); err != nil {
		return nil, err
	}
	if l.frames, err = NewFrames(dev, opts.FramesInFlight); err != nil {
		l.swapchain.Teardown()
		return nil, err
	}
	return l, nil
}

// NotifyResized marks the swapchain stale. It is safe to call from any
// goroutine, typically a window framebuffer-size callback.
func (l *Loop) NotifyResized() { l.resized.Store(true) }

// Cursor returns the frame slot the next RunFrame uses.
func (l *Loop) Cursor() int { return l.cursor }

// State returns the current state machine position.
func (l *Loop) State() State { return l.state }

// Rebuilds returns how many times the swapchain was rebuilt.
func (l *Loop) Rebuilds() int { return l.rebuilds }

// Swapchain returns the managed swapchain.
func (l *Loop) Swapchain() *Swapchain { return l.swapchain }

// Stats returns the frame counters.
func (l *Loop) Stats() *Stats { return l.stats }

// RunFrame renders and presents one frame. Surface invalidation is
// handled internally by rebuilding the swapchain.
func (l *Loop) RunFrame() Result {
	if l.err != nil {
		return Result{Kind: Fatal, Err: l.err}
	}
	if l.closed {
		return l.fail(stageErr(StageAcquire, errors.New("loop is shut down")))
	}

	i := l.cursor
	slot := l.frames.Slot(i)

	l.state = StateIdle
	if err := l.frames.Wait(i); err != nil {
		return l.fail(err)
	}

	l.state = StateAcquiring
	image, status, err := l.dev.AcquireNextImage(l.swapchain.Handle(), slot.Acquired)
	if err != nil {
		return l.fail(stageErr(StageAcquire, errors.Wrap(err, "acquire next image")))
	}
	if status == SurfaceOutOfDate {
		// Nothing was submitted, so the slot's fence is still signaled
		// and the cursor stays put.
		return l.invalidate()
	}
	stale := status == SurfaceSuboptimal

	l.state = StateRecording
	if err := l.recorder.Record(slot.Commands, l.swapchain.Framebuffer(image), l.swapchain.Extent()); err != nil {
		return l.fail(err)
	}

	l.state = StateSubmitting
	if err := l.frames.Reset(i); err != nil {
		return l.fail(err)
	}
	err = l.dev.QueueSubmit(Submission{
		Commands: slot.Commands,
		Wait:     slot.Acquired,
		Signal:   slot.Finished,
		Fence:    slot.Fence,
	})
	if err != nil {
		return l.fail(stageErr(StageSubmit, errors.Wrap(err, "queue submit")))
	}

	l.state = StatePresenting
	status, err = l.dev.QueuePresent(l.swapchain.Handle(), image, slot.Finished)
	if err != nil {
		return l.fail(stageErr(StagePresent, errors.Wrap(err, "queue present")))
	}

	// The submission is in flight whatever the present status was.
	l.cursor = (l.cursor + 1) % l.frames.Len()
	l.stats.Frame()

	if stale || status != SurfaceOptimal || l.resized.Load() {
		return l.invalidate()
	}
	l.state = StateIdle
	return Result{Kind: Presented}
}

func (l *Loop) invalidate() Result {
	l.state = StateInvalidated
	l.waitForSurface()
	if err := l.dev.WaitIdle(); err != nil {
		return l.fail(stageErr(StageRebuild, errors.Wrap(err, "wait for device idle")))
	}
	l.resized.Store(false)
	if err := l.swapchain.Rebuild(l.win); err != nil {
		return l.fail(stageErr(StageRebuild, err))
	}
	l.rebuilds++
	l.state = StateIdle
	return Result{Kind: Invalidated}
}

// waitForSurface blocks while the window is minimized.
func (l *Loop) waitForSurface() {
	w, h := l.win.FramebufferSize()
	for w <= 0 || h <= 0 {
		l.win.WaitEvents()
		w, h = l.win.FramebufferSize()
	}
}

func (l *Loop) fail(err error) Result {
	l.err = err
	return Result{Kind: Fatal, Err: err}
}

// Shutdown waits for the device to go idle and destroys the swapchain
// and the frame slots. The render pass, pipeline and device are left to
// the caller. Calling Shutdown again does nothing.
func (l *Loop) Shutdown() error {
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.dev.WaitIdle()
	l.swapchain.Teardown()
	l.frames.Destroy()
	if err != nil {
		return stageErr(StageSync, errors.Wrap(err, "wait for device idle"))
	}
	return nil
}
