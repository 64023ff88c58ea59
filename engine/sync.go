package engine

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
)

// FrameSlot is the set of sync objects one in-flight frame uses.
type FrameSlot struct {
	Index int

	// ImageAvailable is signaled by the presentation engine once the
	// acquired image can be written.
	ImageAvailable Semaphore
	// RenderFinished is signaled by the graphics queue once the frame's
	// commands complete. Presentation waits on it.
	RenderFinished Semaphore
	// InFlight is signaled when the slot's GPU work is done.
	InFlight Fence
}

type slotState int

const (
	// slotPending: the fence may still be owned by the GPU.
	slotPending slotState = iota
	// slotObserved: the host has seen the fence signaled.
	slotObserved
	// slotCleared: the fence was reset and is waiting for a submission.
	slotCleared
)

const noOwner = -1

// FrameSynchronizer owns the ring of frame slots and bounds how many frames
// of GPU work are outstanding.
type FrameSynchronizer struct {
	device Device
	slots  []FrameSlot
	states []slotState

	// imagesInFlight maps a swapchain image to the slot whose submission
	// last targeted it.
	imagesInFlight []int

	lastWait time.Duration
}

// NewFrameSynchronizer creates n frame slots. Fences start signaled so the
// first n frames do not block. Every sync object is registered with teardown
// as soon as it is created.
func NewFrameSynchronizer(device Device, teardown *Teardown, n int) (*FrameSynchronizer, error) {
	if n < 1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "max frames in flight must be at least 1, got %d", n)
	}

	s := &FrameSynchronizer{
		device: device,
		slots:  make([]FrameSlot, n),
		states: make([]slotState, n),
	}

	for i := range s.slots {
		imageAvailable, res, err := device.CreateSemaphore()
		if err := checkCreate("create image available semaphore", res, err); err != nil {
			return nil, fatal(err, "create frame slots")
		}
		teardown.Register(StageSyncObjects, imageAvailable)

		renderFinished, res, err := device.CreateSemaphore()
		if err := checkCreate("create render finished semaphore", res, err); err != nil {
			return nil, fatal(err, "create frame slots")
		}
		teardown.Register(StageSyncObjects, renderFinished)

		inFlight, res, err := device.CreateFence(true)
		if err := checkCreate("create in flight fence", res, err); err != nil {
			return nil, fatal(err, "create frame slots")
		}
		teardown.Register(StageSyncObjects, inFlight)

		s.slots[i] = FrameSlot{
			Index:          i,
			ImageAvailable: imageAvailable,
			RenderFinished: renderFinished,
			InFlight:       inFlight,
		}
		s.states[i] = slotPending
	}

	return s, nil
}

// Len returns the number of frame slots.
func (s *FrameSynchronizer) Len() int {
	return len(s.slots)
}

// WaitForSlot blocks until the fence of frameIndex is signaled. It is the only
// backpressure the host sees and has no timeout.
func (s *FrameSynchronizer) WaitForSlot(frameIndex int) error {
	start := hrtime.Now()
	res, err := s.slots[frameIndex].InFlight.Wait()
	_, err = check("wait for frame fence", res, err)
	s.lastWait = hrtime.Since(start)
	if err != nil {
		return err
	}

	s.states[frameIndex] = slotObserved
	return nil
}

// LastWait returns how long the most recent WaitForSlot blocked.
func (s *FrameSynchronizer) LastWait() time.Duration {
	return s.lastWait
}

// BeginSlot resets the fence of frameIndex ahead of a submission. The fence
// must have been observed signaled since the slot's last submission.
func (s *FrameSynchronizer) BeginSlot(frameIndex int) (FrameSlot, error) {
	if s.states[frameIndex] != slotObserved {
		return FrameSlot{}, fatal(errors.Wrapf(ErrSlotNotObserved, "slot %d", frameIndex), "begin frame slot")
	}

	res, err := s.slots[frameIndex].InFlight.Reset()
	_, err = check("reset frame fence", res, err)
	if err != nil {
		return FrameSlot{}, err
	}

	s.states[frameIndex] = slotCleared
	return s.slots[frameIndex], nil
}

// MarkSubmitted records that the fence of frameIndex now belongs to a
// submission.
func (s *FrameSynchronizer) MarkSubmitted(frameIndex int) {
	s.states[frameIndex] = slotPending
}

func (s *FrameSynchronizer) Slot(frameIndex int) FrameSlot {
	return s.slots[frameIndex]
}

// Advance returns the slot that follows frameIndex.
func (s *FrameSynchronizer) Advance(frameIndex int) int {
	return (frameIndex + 1) % len(s.slots)
}

// ClaimImage records frameIndex as the slot rendering to imageIndex. If an
// earlier slot's submission still targets the image, its fence is waited on
// first, so no image is written by two overlapping submissions.
func (s *FrameSynchronizer) ClaimImage(imageIndex, frameIndex int) error {
	if imageIndex < 0 || imageIndex >= len(s.imagesInFlight) {
		return fatal(errors.Newf("image %d not tracked, %d images known", imageIndex, len(s.imagesInFlight)), "claim image")
	}

	owner := s.imagesInFlight[imageIndex]
	if owner != noOwner && owner != frameIndex && s.states[owner] == slotPending {
		Logger().Debug("image still in flight, waiting on owning slot",
			"image", imageIndex,
			"owner", owner,
			"slot", frameIndex)

		res, err := s.slots[owner].InFlight.Wait()
		_, err = check("wait for image fence", res, err)
		if err != nil {
			return err
		}
		s.states[owner] = slotObserved
	}

	s.imagesInFlight[imageIndex] = frameIndex
	return nil
}

// ResetImages forgets image ownership and starts tracking imageCount images.
// Called after every swapchain (re)creation.
func (s *FrameSynchronizer) ResetImages(imageCount int) {
	s.imagesInFlight = make([]int, imageCount)
	for i := range s.imagesInFlight {
		s.imagesInFlight[i] = noOwner
	}
}
