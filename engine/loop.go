package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// State is a step of one render tick.
type State int

const (
	StateWaitFence State = iota
	StateAcquireImage
	StateSubmit
	StatePresent
	StateRecreate
	StateAdvance
	StateAdvanced
)

var stateNames = [...]string{
	"WaitFence",
	"AcquireImage",
	"Submit",
	"Present",
	"Recreate",
	"Advance",
	"Advanced",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FrameResult reports what one tick did.
type FrameResult struct {
	// Presented is set when the presentation engine accepted the image.
	Presented bool
	// Recreated is set when the swapchain was rebuilt during the tick.
	Recreated bool
	// Skipped is set when the framebuffer had no area and nothing was
	// rendered.
	Skipped bool

	Slot       int
	ImageIndex int
}

// Loop drives acquire, submit and present once per tick and rebuilds the
// swapchain when the surface changes. It must be driven from one goroutine;
// only OnResize may be called from elsewhere.
type Loop struct {
	device     Device
	teardown   *Teardown
	swapchains *SwapchainManager
	frames     *FrameSynchronizer
	resizes    *ResizeQueue

	current           int
	framebufferExtent Extent2D
	resizePending     bool
	closed            bool

	stats Stats
}

// Initialize creates the frame slots and the first swapchain. On failure
// everything the engine created is released again; objects owned by the
// caller are left alone.
func Initialize(device Device, provider PipelineProvider, initialExtent Extent2D, cfg Config) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	teardown := NewTeardown(device)

	frames, err := NewFrameSynchronizer(device, teardown, cfg.MaxFramesInFlight)
	if err != nil {
		return nil, releaseAfter(teardown, err)
	}

	swapchains := NewSwapchainManager(device, provider, teardown, cfg)
	swapchain, err := swapchains.Create(initialExtent)
	if err != nil {
		return nil, releaseAfter(teardown, err)
	}
	frames.ResetImages(len(swapchain.Images))

	return &Loop{
		device:            device,
		teardown:          teardown,
		swapchains:        swapchains,
		frames:            frames,
		resizes:           NewResizeQueue(),
		framebufferExtent: initialExtent,
	}, nil
}

func releaseAfter(teardown *Teardown, err error) error {
	if releaseErr := teardown.Run(TeardownFull); releaseErr != nil {
		return errors.WithSecondaryError(err, releaseErr)
	}
	return err
}

// OnResize notifies the loop that the framebuffer is now newExtent. The
// swapchain is rebuilt at the end of the next tick that presents. Safe to
// call from any goroutine.
func (l *Loop) OnResize(newExtent Extent2D) {
	l.resizes.Post(newExtent)
}

// Adopt hands an object created outside the engine to the teardown sequence
// so Shutdown releases it in order with everything else.
func (l *Loop) Adopt(stage Stage, d Destroyer) {
	l.teardown.Register(stage, d)
}

func (l *Loop) Swapchain() *Swapchain {
	return l.swapchains.Current()
}

func (l *Loop) Stats() Stats {
	return l.stats
}

// RenderOneFrame runs one tick. Stale swapchain results are recovered by
// recreation and are not errors; every returned error is fatal.
func (l *Loop) RenderOneFrame() (FrameResult, error) {
	if l.closed {
		return FrameResult{}, ErrShutdown
	}

	timer := startFrame()
	defer timer.finish(&l.stats)

	result := FrameResult{Slot: l.current}
	var slot FrameSlot
	var imageIndex int
	var suboptimal bool

	state := StateWaitFence
	for state != StateAdvanced {
		switch state {
		case StateWaitFence:
			l.stats.Frames++
			if err := l.frames.WaitForSlot(l.current); err != nil {
				return result, err
			}
			l.stats.FenceWait += l.frames.LastWait()
			state = StateAcquireImage

		case StateAcquireImage:
			l.pollResize()
			if l.framebufferExtent.Empty() {
				l.stats.Skipped++
				result.Skipped = true
				return result, nil
			}

			slot = l.frames.Slot(l.current)
			index, res, err := l.swapchains.AcquireNextImage(slot.ImageAvailable)
			if err != nil {
				return result, err
			}
			if res == ResultErrorOutOfDate {
				Logger().Warn("swapchain out of date on acquire, dropping frame", "slot", l.current)
				l.stats.Dropped++
				state = StateRecreate
				continue
			}
			if res == ResultSuboptimal {
				Logger().Debug("swapchain suboptimal on acquire", "slot", l.current, "image", index)
				suboptimal = true
			}

			imageIndex = index
			result.ImageIndex = index
			state = StateSubmit

		case StateSubmit:
			if err := l.frames.ClaimImage(imageIndex, l.current); err != nil {
				return result, err
			}

			var err error
			slot, err = l.frames.BeginSlot(l.current)
			if err != nil {
				return result, err
			}

			res, err := l.device.Submit(Submission{
				CommandBuffer: l.swapchains.Current().CommandBuffers[imageIndex],
				Wait:          slot.ImageAvailable,
				WaitStage:     PipelineStageColorAttachmentOutput,
				Signal:        slot.RenderFinished,
				Fence:         slot.InFlight,
			})
			if _, err = check("submit frame", res, err); err != nil {
				return result, err
			}
			l.frames.MarkSubmitted(l.current)
			state = StatePresent

		case StatePresent:
			res, err := l.swapchains.Present(imageIndex, slot.RenderFinished)
			if err != nil {
				return result, err
			}

			result.Presented = res != ResultErrorOutOfDate
			if result.Presented {
				l.stats.Presented++
			}

			if res.Stale() || suboptimal || l.resizePending {
				Logger().Debug("recreating after present",
					"result", res,
					"suboptimalAcquire", suboptimal,
					"resizePending", l.resizePending)
				state = StateRecreate
			} else {
				state = StateAdvance
			}

		case StateRecreate:
			swapchain, err := l.swapchains.Recreate(l.framebufferExtent)
			if err != nil {
				l.current = l.frames.Advance(l.current)
				return result, err
			}

			l.resizePending = false
			l.frames.ResetImages(len(swapchain.Images))
			l.stats.Recreations++
			result.Recreated = true
			state = StateAdvance

		case StateAdvance:
			l.current = l.frames.Advance(l.current)
			state = StateAdvanced

		default:
			panic(fmt.Sprintf("render loop in unknown state %s", state))
		}
	}

	return result, nil
}

func (l *Loop) pollResize() {
	extent, ok := l.resizes.Poll()
	if !ok {
		return
	}

	if extent != l.framebufferExtent {
		Logger().Debug("framebuffer resized", "from", l.framebufferExtent, "to", extent)
	}
	l.framebufferExtent = extent
	l.resizePending = true
}

// Shutdown waits for the device to go idle and releases everything the
// engine created or adopted, in canonical order. Calling it again does
// nothing. If the device does not go idle nothing is released and the error
// is returned; Shutdown may then be retried.
func (l *Loop) Shutdown() error {
	if l.closed {
		return nil
	}

	if err := l.teardown.Run(TeardownFull); err != nil {
		return fatal(err, "shutdown")
	}
	l.closed = true

	Logger().Info("presentation shut down",
		"frames", l.stats.Frames,
		"presented", l.stats.Presented,
		"recreations", l.stats.Recreations,
		"dropped", l.stats.Dropped,
		"fenceWait", l.stats.FenceWait,
		"maxFrame", l.stats.MaxFrame)
	return nil
}
