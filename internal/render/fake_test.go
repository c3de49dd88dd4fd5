package render

import (
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"
)

type fakeHandle struct {
	kind string
	id   int
}

func (h fakeHandle) String() string { return fmt.Sprintf("%s#%d", h.kind, h.id) }

// fakeDevice is a scripted Device. GPU work completes when its fence is
// waited on or the device is waited idle, which is enough to catch a
// command buffer rewritten while still in flight.
type fakeDevice struct {
	caps    SurfaceCapabilities
	formats []SurfaceFormat
	modes   []PresentMode

	// acquire and present are consumed one per call; once empty the
	// status is SurfaceOptimal.
	acquire []SurfaceStatus
	present []SurfaceStatus

	// failAt makes the n-th call (1-based) of an operation fail.
	failAt map[string]int
	counts map[string]int

	nextID     int
	live       map[fakeHandle]bool
	calls      []string
	violations []string

	lastInfo   SwapchainInfo
	images     map[fakeHandle][]Handle
	fences     map[fakeHandle]bool
	pending    map[fakeHandle]fakeHandle // fence -> command buffer
	inFlight   map[fakeHandle]bool
	recording  map[fakeHandle][]string
	submits    []Submission
	presents   []uint32
	nextImage  uint32
	waitIdles  int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps: SurfaceCapabilities{
			MinImageCount: 2,
			CurrentExtent: Extent{800, 600},
			MinExtent:     Extent{1, 1},
			MaxExtent:     Extent{4096, 4096},
		},
		formats:   []SurfaceFormat{{FormatB8G8R8A8Unorm, ColorSpaceSRGBNonlinear}, DefaultSurfaceFormat},
		modes:     []PresentMode{PresentModeFIFO},
		failAt:    map[string]int{},
		counts:    map[string]int{},
		live:      map[fakeHandle]bool{},
		images:    map[fakeHandle][]Handle{},
		fences:    map[fakeHandle]bool{},
		pending:   map[fakeHandle]fakeHandle{},
		inFlight:  map[fakeHandle]bool{},
		recording: map[fakeHandle][]string{},
	}
}

func (d *fakeDevice) call(op string) error {
	d.calls = append(d.calls, op)
	d.counts[op]++
	if n, ok := d.failAt[op]; ok && d.counts[op] == n {
		return errors.Errorf("%s rejected", op)
	}
	return nil
}

func (d *fakeDevice) violate(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) create(kind string) fakeHandle {
	d.nextID++
	h := fakeHandle{kind, d.nextID}
	d.live[h] = true
	return h
}

func (d *fakeDevice) destroy(kind string, h Handle) {
	d.calls = append(d.calls, "Destroy"+kind)
	fh, ok := h.(fakeHandle)
	if !ok || fh.kind != kind || !d.live[fh] {
		d.violate("destroy of unknown %s %v", kind, h)
		return
	}
	delete(d.live, fh)
}

func (d *fakeDevice) liveCount(kind string) int {
	n := 0
	for h := range d.live {
		if h.kind == kind {
			n++
		}
	}
	return n
}

func (d *fakeDevice) count(op string) int { return d.counts[op] }

func (d *fakeDevice) SurfaceCapabilities() (SurfaceCapabilities, error) {
	return d.caps, d.call("SurfaceCapabilities")
}

func (d *fakeDevice) SurfaceFormats() ([]SurfaceFormat, error) {
	return d.formats, d.call("SurfaceFormats")
}

func (d *fakeDevice) SurfacePresentModes() ([]PresentMode, error) {
	return d.modes, d.call("SurfacePresentModes")
}

func (d *fakeDevice) CreateSwapchain(info SwapchainInfo) (Handle, error) {
	if err := d.call("CreateSwapchain"); err != nil {
		return nil, err
	}
	d.lastInfo = info
	sc := d.create("swapchain")
	imgs := make([]Handle, info.ImageCount)
	for i := range imgs {
		d.nextID++
		imgs[i] = fakeHandle{"image", d.nextID}
	}
	d.images[sc] = imgs
	return sc, nil
}

func (d *fakeDevice) SwapchainImages(swapchain Handle) ([]Handle, error) {
	if err := d.call("SwapchainImages"); err != nil {
		return nil, err
	}
	return d.images[swapchain.(fakeHandle)], nil
}

func (d *fakeDevice) CreateImageView(image Handle, format Format) (Handle, error) {
	if err := d.call("CreateImageView"); err != nil {
		return nil, err
	}
	return d.create("view"), nil
}

func (d *fakeDevice) CreateFramebuffer(renderPass, view Handle, extent Extent) (Handle, error) {
	if err := d.call("CreateFramebuffer"); err != nil {
		return nil, err
	}
	if !d.live[view.(fakeHandle)] {
		d.violate("framebuffer over dead view %v", view)
	}
	return d.create("framebuffer"), nil
}

func (d *fakeDevice) DestroyFramebuffer(h Handle) { d.destroy("framebuffer", h) }
func (d *fakeDevice) DestroyImageView(h Handle)   { d.destroy("view", h) }

func (d *fakeDevice) DestroySwapchain(h Handle) {
	d.destroy("swapchain", h)
	if fh, ok := h.(fakeHandle); ok {
		delete(d.images, fh)
	}
}

func (d *fakeDevice) CreateFence(signaled bool) (Handle, error) {
	if err := d.call("CreateFence"); err != nil {
		return nil, err
	}
	f := d.create("fence")
	d.fences[f] = signaled
	return f, nil
}

func (d *fakeDevice) CreateSemaphore() (Handle, error) {
	if err := d.call("CreateSemaphore"); err != nil {
		return nil, err
	}
	return d.create("semaphore"), nil
}

func (d *fakeDevice) complete(fence fakeHandle) {
	if cmd, ok := d.pending[fence]; ok {
		delete(d.inFlight, cmd)
		delete(d.pending, fence)
		d.fences[fence] = true
	}
}

func (d *fakeDevice) WaitForFence(fence Handle) error {
	if err := d.call("WaitForFence"); err != nil {
		return err
	}
	f := fence.(fakeHandle)
	d.complete(f)
	if !d.fences[f] {
		d.violate("wait on %v would never return", f)
	}
	return nil
}

func (d *fakeDevice) ResetFence(fence Handle) error {
	if err := d.call("ResetFence"); err != nil {
		return err
	}
	d.fences[fence.(fakeHandle)] = false
	return nil
}

func (d *fakeDevice) DestroyFence(h Handle) {
	d.destroy("fence", h)
	if _, ok := d.pending[h.(fakeHandle)]; ok {
		d.violate("destroy of %v with work in flight", h)
	}
}

func (d *fakeDevice) DestroySemaphore(h Handle) { d.destroy("semaphore", h) }

func (d *fakeDevice) AllocateCommandBuffers(count int) ([]Handle, error) {
	if err := d.call("AllocateCommandBuffers"); err != nil {
		return nil, err
	}
	cmds := make([]Handle, count)
	for i := range cmds {
		cmds[i] = d.create("cmd")
	}
	return cmds, nil
}

func (d *fakeDevice) FreeCommandBuffers(buffers []Handle) {
	for _, b := range buffers {
		d.destroy("cmd", b)
	}
}

func (d *fakeDevice) touch(op string, cmd Handle) error {
	if err := d.call(op); err != nil {
		return err
	}
	c := cmd.(fakeHandle)
	if d.inFlight[c] {
		d.violate("%s on %v while in flight", op, c)
	}
	return nil
}

func (d *fakeDevice) ResetCommandBuffer(cmd Handle) error {
	if err := d.touch("ResetCommandBuffer", cmd); err != nil {
		return err
	}
	d.recording[cmd.(fakeHandle)] = nil
	return nil
}

func (d *fakeDevice) BeginCommandBuffer(cmd Handle) error {
	if err := d.touch("BeginCommandBuffer", cmd); err != nil {
		return err
	}
	d.rec(cmd, "begin")
	return nil
}

func (d *fakeDevice) EndCommandBuffer(cmd Handle) error {
	if err := d.touch("EndCommandBuffer", cmd); err != nil {
		return err
	}
	d.rec(cmd, "end")
	return nil
}

func (d *fakeDevice) rec(cmd Handle, s string) {
	c := cmd.(fakeHandle)
	d.recording[c] = append(d.recording[c], s)
}

func (d *fakeDevice) CmdBeginRenderPass(cmd, renderPass, framebuffer Handle, area Extent, clear ClearColor) {
	d.rec(cmd, fmt.Sprintf("beginpass %v %v %dx%d %v", renderPass, framebuffer, area.Width, area.Height, clear))
}

func (d *fakeDevice) CmdBindPipeline(cmd, pipeline Handle) {
	d.rec(cmd, fmt.Sprintf("bind %v", pipeline))
}

func (d *fakeDevice) CmdSetViewport(cmd Handle, e Extent) {
	d.rec(cmd, fmt.Sprintf("viewport %dx%d", e.Width, e.Height))
}

func (d *fakeDevice) CmdSetScissor(cmd Handle, e Extent) {
	d.rec(cmd, fmt.Sprintf("scissor %dx%d", e.Width, e.Height))
}

func (d *fakeDevice) CmdDraw(cmd Handle, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.rec(cmd, fmt.Sprintf("draw %d %d %d %d", vertexCount, instanceCount, firstVertex, firstInstance))
}

func (d *fakeDevice) CmdEndRenderPass(cmd Handle) { d.rec(cmd, "endpass") }

func (d *fakeDevice) AcquireNextImage(swapchain, signal Handle) (uint32, SurfaceStatus, error) {
	if err := d.call("AcquireNextImage"); err != nil {
		return 0, SurfaceOptimal, err
	}
	if !d.live[swapchain.(fakeHandle)] {
		d.violate("acquire from dead swapchain %v", swapchain)
	}
	status := SurfaceOptimal
	if len(d.acquire) > 0 {
		status, d.acquire = d.acquire[0], d.acquire[1:]
	}
	if status == SurfaceOutOfDate {
		return 0, status, nil
	}
	n := uint32(len(d.images[swapchain.(fakeHandle)]))
	img := d.nextImage % n
	d.nextImage++
	return img, status, nil
}

func (d *fakeDevice) QueueSubmit(s Submission) error {
	if err := d.call("QueueSubmit"); err != nil {
		return err
	}
	f := s.Fence.(fakeHandle)
	if d.fences[f] {
		d.violate("submit signals %v which is already signaled", f)
	}
	c := s.Commands.(fakeHandle)
	if d.inFlight[c] {
		d.violate("submit of %v already in flight", c)
	}
	d.inFlight[c] = true
	d.pending[f] = c
	d.submits = append(d.submits, s)
	return nil
}

func (d *fakeDevice) QueuePresent(swapchain Handle, image uint32, wait Handle) (SurfaceStatus, error) {
	if err := d.call("QueuePresent"); err != nil {
		return SurfaceOptimal, err
	}
	d.presents = append(d.presents, image)
	status := SurfaceOptimal
	if len(d.present) > 0 {
		status, d.present = d.present[0], d.present[1:]
	}
	return status, nil
}

func (d *fakeDevice) WaitIdle() error {
	if err := d.call("WaitIdle"); err != nil {
		return err
	}
	d.waitIdles++
	for f := range d.pending {
		d.complete(f)
	}
	return nil
}

// fakeWindow returns sizes in order, moving to the next one on every
// WaitEvents call and sticking to the last.
type fakeWindow struct {
	sizes [][2]int
	waits int
}

func newFakeWindow(sizes ...[2]int) *fakeWindow {
	if len(sizes) == 0 {
		sizes = [][2]int{{800, 600}}
	}
	return &fakeWindow{sizes: sizes}
}

func (w *fakeWindow) FramebufferSize() (int, int) {
	i := w.waits
	if i >= len(w.sizes) {
		i = len(w.sizes) - 1
	}
	return w.sizes[i][0], w.sizes[i][1]
}

func (w *fakeWindow) WaitEvents() { w.waits++ }

var (
	testRenderPass = fakeHandle{"renderpass", -1}
	testPipeline   = fakeHandle{"pipeline", -2}
	testTarget     = Target{RenderPass: testRenderPass, Pipeline: testPipeline}
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }
