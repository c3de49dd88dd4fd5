package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrames(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFrames(dev, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, 2, dev.liveCount("fence"))
	assert.Equal(t, 4, dev.liveCount("semaphore"))
	assert.Equal(t, 2, dev.liveCount("cmd"))

	seen := map[Handle]bool{}
	for i := 0; i < f.Len(); i++ {
		s := f.Slot(i)
		for _, h := range []Handle{s.Fence, s.Acquired, s.Finished, s.Commands} {
			require.NotNil(t, h)
			assert.False(t, seen[h], "handle %v shared between slots", h)
			seen[h] = true
		}
		assert.True(t, dev.fences[s.Fence.(fakeHandle)], "fence starts signaled")
	}
}

func TestFramesFirstWaitDoesNotBlock(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFrames(dev, 3)
	require.NoError(t, err)
	for i := 0; i < f.Len(); i++ {
		require.NoError(t, f.Wait(i))
	}
	assert.Empty(t, dev.violations)
}

func TestFramesResetWithoutSubmitDeadlocks(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFrames(dev, 2)
	require.NoError(t, err)

	require.NoError(t, f.Reset(1))
	require.NoError(t, f.Wait(1))
	assert.Len(t, dev.violations, 1, "the fake flags a wait that could never finish")
}

func TestFramesInvalidCount(t *testing.T) {
	_, err := NewFrames(newFakeDevice(), 0)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageSync, se.Stage)
}

func TestFramesPartialFailure(t *testing.T) {
	for _, tc := range []struct {
		op string
		n  int
	}{
		{"AllocateCommandBuffers", 1},
		{"CreateFence", 2},
		{"CreateSemaphore", 3},
	} {
		t.Run(tc.op, func(t *testing.T) {
			dev := newFakeDevice()
			dev.failAt[tc.op] = tc.n
			_, err := NewFrames(dev, 2)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.op+" rejected")
			assert.Empty(t, dev.live, "leaked after partial failure")
			assert.Empty(t, dev.violations)
		})
	}
}

func TestFramesDestroy(t *testing.T) {
	dev := newFakeDevice()
	f, err := NewFrames(dev, 2)
	require.NoError(t, err)
	f.Destroy()
	assert.Empty(t, dev.live)
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, dev.violations)
}

func TestFramesSlotOutOfRange(t *testing.T) {
	f, err := NewFrames(newFakeDevice(), 2)
	require.NoError(t, err)
	assert.Panics(t, func() { f.Wait(2) })
	assert.Panics(t, func() { f.Reset(-1) })
}
