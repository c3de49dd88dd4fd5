package render

import (
	"github.com/pkg/errors"
)

// Recorder writes the fixed triangle pass into a command buffer.
type Recorder struct {
	dev    CommandDevice
	target Target
	clear  ClearColor
}

// NewRecorder returns a Recorder drawing with target and clearing to clear.
func NewRecorder(dev CommandDevice, target Target, clear ClearColor) *Recorder {
	return &Recorder{dev: dev, target: target, clear: clear}
}

// Record resets cmd and records one render pass over extent into
// framebuffer: bind the pipeline, set viewport and scissor, draw three
// vertices.
func (r *Recorder) Record(cmd, framebuffer Handle, extent Extent) error {
	if err := r.dev.ResetCommandBuffer(cmd); err != nil {
		return stageErr(StageRecord, errors.Wrap(err, "reset command buffer"))
	}
	if err := r.dev.BeginCommandBuffer(cmd); err != nil {
		return stageErr(StageRecord, errors.Wrap(err, "begin command buffer"))
	}

	r.dev.CmdBeginRenderPass(cmd, r.target.RenderPass, framebuffer, extent, r.clear)
	r.dev.CmdBindPipeline(cmd, r.target.Pipeline)
	r.dev.CmdSetViewport(cmd, extent)
	r.dev.CmdSetScissor(cmd, extent)
	r.dev.CmdDraw(cmd, 3, 1, 0, 0)
	r.dev.CmdEndRenderPass(cmd)

	if err := r.dev.EndCommandBuffer(cmd); err != nil {
		return stageErr(StageRecord, errors.Wrap(err, "end command buffer"))
	}
	return nil
}
