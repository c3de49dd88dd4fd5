package render

import (
	"log"

	"github.com/pkg/errors"
)

// ChooseSurfaceFormat returns preferred if the surface lists it and the
// first listed format otherwise.
func ChooseSurfaceFormat(formats []SurfaceFormat, preferred SurfaceFormat) (SurfaceFormat, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, errors.New("surface reports no formats")
	}
	for _, f := range formats {
		if f == preferred {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode picks mailbox when available. FIFO is always supported.
func ChoosePresentMode(modes []PresentMode) PresentMode {
	for _, m := range modes {
		if m == PresentModeMailbox {
			return m
		}
	}
	return PresentModeFIFO
}

// ChooseExtent uses the surface's current extent when it is defined and
// otherwise clamps the framebuffer size into [MinExtent, MaxExtent].
func ChooseExtent(caps SurfaceCapabilities, width, height int) Extent {
	if caps.CurrentExtent.Width != UndefinedExtent {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(toUint32(width), caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(toUint32(height), caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, capped at the
// maximum when the surface has one.
func ChooseImageCount(caps SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}

// Swapchain owns the presentable images, their views and one framebuffer
// per image. All of them are created and destroyed together.
type Swapchain struct {
	dev        SwapchainDevice
	renderPass Handle
	preferred  SurfaceFormat
	logger     *log.Logger

	handle       Handle
	format       SurfaceFormat
	presentMode  PresentMode
	extent       Extent
	images       []Handle
	views        []Handle
	framebuffers []Handle
}

// NewSwapchain returns an empty manager. Call Build before use.
func NewSwapchain(dev SwapchainDevice, renderPass Handle, preferred SurfaceFormat, logger *log.Logger) *Swapchain {
	if logger == nil {
		logger = log.Default()
	}
	return &Swapchain{
		dev:        dev,
		renderPass: renderPass,
		preferred:  preferred,
		logger:     logger,
	}
}

// Handle returns the driver swapchain, nil before Build.
func (s *Swapchain) Handle() Handle { return s.handle }

// Format returns the surface format the images were created with.
func (s *Swapchain) Format() SurfaceFormat { return s.format }

// PresentMode returns the selected presentation mode.
func (s *Swapchain) PresentMode() PresentMode { return s.presentMode }

// Extent returns the size shared by every image and framebuffer.
func (s *Swapchain) Extent() Extent { return s.extent }

// Len returns the number of images in the chain.
func (s *Swapchain) Len() int { return len(s.images) }

// Framebuffer returns the framebuffer for swapchain image i.
func (s *Swapchain) Framebuffer(i uint32) Handle { return s.framebuffers[i] }

// Built reports whether the chain currently exists.
func (s *Swapchain) Built() bool { return s.handle != nil }

// Build creates the chain for the given capabilities. The window provides
// the framebuffer size when the surface leaves the extent undefined.
// On failure everything created so far is destroyed.
func (s *Swapchain) Build(caps SurfaceCapabilities, win Window) error {
	if s.Built() {
		return stageErr(StageBuild, errors.New("swapchain already built"))
	}
	if err := s.build(caps, win); err != nil {
		s.Teardown()
		return stageErr(StageBuild, err)
	}
	s.logger.Printf("swapchain built: %d images %dx%d %s",
		len(s.images), s.extent.Width, s.extent.Height, s.presentMode)
	return nil
}

func (s *Swapchain) build(caps SurfaceCapabilities, win Window) error {
	formats, err := s.dev.SurfaceFormats()
	if err != nil {
		return errors.Wrap(err, "query surface formats")
	}
	format, err := ChooseSurfaceFormat(formats, s.preferred)
	if err != nil {
		return err
	}
	modes, err := s.dev.SurfacePresentModes()
	if err != nil {
		return errors.Wrap(err, "query present modes")
	}

	width, height := win.FramebufferSize()
	info := SwapchainInfo{
		ImageCount:    ChooseImageCount(caps),
		SurfaceFormat: format,
		PresentMode:   ChoosePresentMode(modes),
		Extent:        ChooseExtent(caps, width, height),
	}

	handle, err := s.dev.CreateSwapchain(info)
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	s.handle = handle
	s.format = info.SurfaceFormat
	s.presentMode = info.PresentMode
	s.extent = info.Extent

	images, err := s.dev.SwapchainImages(handle)
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	if len(images) == 0 {
		return errors.New("swapchain has no images")
	}
	s.images = images

	s.views = make([]Handle, 0, len(images))
	for i, img := range images {
		view, err := s.dev.CreateImageView(img, format.Format)
		if err != nil {
			return errors.Wrapf(err, "create image view %d", i)
		}
		s.views = append(s.views, view)
	}

	s.framebuffers = make([]Handle, 0, len(s.views))
	for i, view := range s.views {
		fb, err := s.dev.CreateFramebuffer(s.renderPass, view, s.extent)
		if err != nil {
			return errors.Wrapf(err, "create framebuffer %d", i)
		}
		s.framebuffers = append(s.framebuffers, fb)
	}
	return nil
}

// Teardown destroys framebuffers, then image views, then the swapchain.
// The images belong to the swapchain. Calling Teardown on an empty
// manager does nothing.
func (s *Swapchain) Teardown() {
	for _, fb := range s.framebuffers {
		s.dev.DestroyFramebuffer(fb)
	}
	s.framebuffers = nil
	for _, view := range s.views {
		s.dev.DestroyImageView(view)
	}
	s.views = nil
	s.images = nil
	if s.handle != nil {
		s.dev.DestroySwapchain(s.handle)
		s.handle = nil
	}
	s.extent = Extent{}
}

// Rebuild tears the chain down and builds it again from freshly queried
// capabilities. The device must be idle.
func (s *Swapchain) Rebuild(win Window) error {
	caps, err := s.dev.SurfaceCapabilities()
	if err != nil {
		return stageErr(StageBuild, errors.Wrap(err, "query surface capabilities"))
	}
	s.Teardown()
	return s.Build(caps, win)
}
