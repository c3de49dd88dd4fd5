package vulkan

import (
	"math"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"

	"github.com/ibd1279/vks-examples/hello-triangle/internal/render"
)

func (c *Context) commandBuffer(cmd render.Handle) vks.CommandBufferFacade {
	return c.graphicCommandPool.MakeCommandBufferFacade(cmd.(vks.CommandBuffer))
}

func (c *Context) ResetCommandBuffer(cmd render.Handle) error {
	return check(c.commandBuffer(cmd).ResetCommandBuffer(0), "vkResetCommandBuffer")
}

func (c *Context) BeginCommandBuffer(cmd render.Handle) error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	beginInfo := vks.CPtr(arp, &vks.CommandBufferBeginInfo{},
		vks.SetDefaultSType,
	)
	return check(c.commandBuffer(cmd).BeginCommandBuffer(beginInfo), "vkBeginCommandBuffer")
}

func (c *Context) EndCommandBuffer(cmd render.Handle) error {
	return check(c.commandBuffer(cmd).EndCommandBuffer(), "vkEndCommandBuffer")
}

func (c *Context) CmdBeginRenderPass(cmd, renderPass, framebuffer render.Handle, area render.Extent, clear render.ClearColor) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	clearValues := []vks.ClearValue{
		vks.MakeClearColorValueFloat32(clear[0], clear[1], clear[2], clear[3]).AsClearValue(),
	}
	renderPassBeginInfo := vks.CPtr(arp, &vks.RenderPassBeginInfo{},
		vks.SetDefaultSType,
		func(in *vks.RenderPassBeginInfo) {
			in.SetRenderPass(renderPass.(vks.RenderPass))
			in.SetFramebuffer(framebuffer.(vks.Framebuffer))
			in.SetRenderArea(vks.Rect2D{}.WithExtent(fromExtent(area)))
			in.SetPClearValues(clearValues)
		},
	)
	c.commandBuffer(cmd).CmdBeginRenderPass(renderPassBeginInfo, vks.VK_SUBPASS_CONTENTS_INLINE)
}

func (c *Context) CmdBindPipeline(cmd, pipeline render.Handle) {
	c.commandBuffer(cmd).CmdBindPipeline(vks.VK_PIPELINE_BIND_POINT_GRAPHICS, pipeline.(vks.Pipeline))
}

func (c *Context) CmdSetViewport(cmd render.Handle, extent render.Extent) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	viewports := vks.ViewportCSlice(arp,
		vks.Viewport{}.
			WithWidth(float32(extent.Width)).
			WithHeight(float32(extent.Height)).
			WithMaxDepth(1.0),
	)
	c.commandBuffer(cmd).CmdSetViewport(0, 1, viewports)
}

func (c *Context) CmdSetScissor(cmd render.Handle, extent render.Extent) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	scissors := vks.Rect2DCSlice(arp,
		vks.Rect2D{}.WithExtent(fromExtent(extent)),
	)
	c.commandBuffer(cmd).CmdSetScissor(0, 1, scissors)
}

func (c *Context) CmdDraw(cmd render.Handle, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.commandBuffer(cmd).CmdDraw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (c *Context) CmdEndRenderPass(cmd render.Handle) {
	c.commandBuffer(cmd).CmdEndRenderPass()
}

// surfaceStatus sorts the results vkAcquireNextImageKHR and
// vkQueuePresentKHR can report about the surface. Any other error is
// returned as is.
func surfaceStatus(result vks.Result, op string) (render.SurfaceStatus, error) {
	switch result {
	case vks.VK_SUCCESS:
		return render.SurfaceOptimal, nil
	case vks.VK_SUBOPTIMAL_KHR:
		return render.SurfaceSuboptimal, nil
	case vks.VK_ERROR_OUT_OF_DATE_KHR:
		return render.SurfaceOutOfDate, nil
	}
	if result.IsError() {
		return render.SurfaceOptimal, errors.Wrap(result.AsErr(), op)
	}
	// VK_TIMEOUT and VK_NOT_READY cannot happen without a timeout, but they
	// are not a usable image either.
	return render.SurfaceOptimal, errors.Errorf("%s: unexpected result %d", op, result)
}

// AcquireNextImage waits without a timeout.
func (c *Context) AcquireNextImage(swapchain, signal render.Handle) (uint32, render.SurfaceStatus, error) {
	var imageIndex uint32
	result := c.device.AcquireNextImageKHR(
		swapchain.(vks.SwapchainKHR),
		math.MaxUint64,
		signal.(vks.Semaphore),
		vks.NullFence,
		&imageIndex,
	)
	status, err := surfaceStatus(result, "vkAcquireNextImageKHR")
	return imageIndex, status, err
}

func (c *Context) QueueSubmit(s render.Submission) error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	submitInfos := vks.SubmitInfoCSlice(arp,
		vks.SubmitInfo{}.
			WithDefaultSType().
			WithPWaitSemaphores([]vks.Semaphore{s.Wait.(vks.Semaphore)}).
			WithPWaitDstStageMask([]vks.PipelineStageFlags{
				vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT),
			}).
			WithPCommandBuffers([]vks.CommandBuffer{s.Commands.(vks.CommandBuffer)}).
			WithPSignalSemaphores([]vks.Semaphore{s.Signal.(vks.Semaphore)}),
	)
	result := c.graphicQueue.QueueSubmit(
		1,
		submitInfos,
		s.Fence.(vks.Fence),
	)
	return check(result, "vkQueueSubmit")
}

func (c *Context) QueuePresent(swapchain render.Handle, image uint32, wait render.Handle) (render.SurfaceStatus, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	presentInfo := vks.CPtr(arp, &vks.PresentInfoKHR{},
		vks.SetDefaultSType,
		func(in *vks.PresentInfoKHR) {
			in.SetPWaitSemaphores([]vks.Semaphore{wait.(vks.Semaphore)})
			in.SetPSwapchains([]vks.SwapchainKHR{swapchain.(vks.SwapchainKHR)})
			in.SetPImageIndices([]uint32{image})
		},
	)
	return surfaceStatus(c.presentQueue.QueuePresentKHR(presentInfo), "vkQueuePresentKHR")
}
