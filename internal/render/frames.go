package render

import (
	"fmt"

	"github.com/pkg/errors"
)

// Slot is one in-flight frame. Fence is signaled when the slot's last
// submission has completed and Commands may be rewritten.
type Slot struct {
	Fence    Handle
	Acquired Handle
	Finished Handle
	Commands Handle
}

// Frames is a fixed ring of frame slots. Slots are created once and only
// ever reset.
type Frames struct {
	dev   SyncDevice
	slots []Slot
}

// NewFrames allocates count slots. Fences start signaled so the first wait
// on each slot returns at once.
func NewFrames(dev SyncDevice, count int) (*Frames, error) {
	if count < 1 {
		return nil, stageErr(StageSync, errors.Errorf("invalid frames in flight: %d", count))
	}
	f := &Frames{dev: dev}
	if err := f.init(count); err != nil {
		f.Destroy()
		return nil, stageErr(StageSync, err)
	}
	return f, nil
}

func (f *Frames) init(count int) error {
	cmds, err := f.dev.AllocateCommandBuffers(count)
	if err != nil {
		return errors.Wrap(err, "allocate command buffers")
	}
	if len(cmds) != count {
		f.dev.FreeCommandBuffers(cmds)
		return errors.Errorf("allocated %d command buffers, want %d", len(cmds), count)
	}

	f.slots = make([]Slot, count)
	for i := range f.slots {
		f.slots[i].Commands = cmds[i]
	}
	for i := range f.slots {
		s := &f.slots[i]
		if s.Fence, err = f.dev.CreateFence(true); err != nil {
			return errors.Wrapf(err, "create fence %d", i)
		}
		if s.Acquired, err = f.dev.CreateSemaphore(); err != nil {
			return errors.Wrapf(err, "create image-acquired semaphore %d", i)
		}
		if s.Finished, err = f.dev.CreateSemaphore(); err != nil {
			return errors.Wrapf(err, "create render-finished semaphore %d", i)
		}
	}
	return nil
}

// Len returns the number of slots.
func (f *Frames) Len() int { return len(f.slots) }

// Slot returns slot i.
func (f *Frames) Slot(i int) Slot { return f.slots[f.check(i)] }

// Wait blocks until slot i's previous submission has completed.
func (f *Frames) Wait(i int) error {
	if err := f.dev.WaitForFence(f.slots[f.check(i)].Fence); err != nil {
		return stageErr(StageSync, errors.Wrapf(err, "wait for fence %d", i))
	}
	return nil
}

// Reset un-signals slot i's fence. It must only be called right before a
// submission that signals the fence again, or the next Wait never returns.
func (f *Frames) Reset(i int) error {
	if err := f.dev.ResetFence(f.slots[f.check(i)].Fence); err != nil {
		return stageErr(StageSync, errors.Wrapf(err, "reset fence %d", i))
	}
	return nil
}

func (f *Frames) check(i int) int {
	if i < 0 || i >= len(f.slots) {
		panic(fmt.Sprintf("render: frame slot %d out of range [0, %d)", i, len(f.slots)))
	}
	return i
}

// Destroy releases every slot. The device must be idle.
func (f *Frames) Destroy() {
	var cmds []Handle
	for i := range f.slots {
		s := &f.slots[i]
		if s.Fence != nil {
			f.dev.DestroyFence(s.Fence)
		}
		if s.Acquired != nil {
			f.dev.DestroySemaphore(s.Acquired)
		}
		if s.Finished != nil {
			f.dev.DestroySemaphore(s.Finished)
		}
		if s.Commands != nil {
			cmds = append(cmds, s.Commands)
		}
	}
	if len(cmds) > 0 {
		f.dev.FreeCommandBuffers(cmds)
	}
	f.slots = nil
}
