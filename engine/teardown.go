package engine

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Stage is a step of the canonical destroy order. Stages are released in
// increasing order.
type Stage int

const (
	StageCommandBuffers Stage = iota
	StageFramebuffers
	StagePipeline
	StagePipelineLayout
	StageRenderPass
	StageImageViews
	StageSwapchain

	// Stages below survive a partial teardown.
	StageSyncObjects
	StageCommandPool
	StageDevice
	StageDebugMessenger
	StageSurface
	StageInstance

	stageCount
)

var stageNames = [stageCount]string{
	"command buffers",
	"framebuffers",
	"pipeline",
	"pipeline layout",
	"render pass",
	"image views",
	"swapchain",
	"sync objects",
	"command pool",
	"device",
	"debug messenger",
	"surface",
	"instance",
}

func (s Stage) String() string {
	if s >= 0 && s < stageCount {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

type TeardownMode int

const (
	// TeardownPartial releases everything derived from the swapchain, and the
	// swapchain itself. Used when recreating.
	TeardownPartial TeardownMode = iota
	// TeardownFull releases everything. Used at shutdown.
	TeardownFull
)

func (m TeardownMode) last() Stage {
	if m == TeardownFull {
		return StageInstance
	}
	return StageSwapchain
}

// Idler is the device-idle wait every teardown begins with.
type Idler interface {
	WaitIdle() (Result, error)
}

// Teardown releases registered objects in one canonical order. Objects are
// registered the moment they are created so that every exit path, including
// failed creation, can release them.
type Teardown struct {
	idler  Idler
	guards [stageCount][]Destroyer
}

func NewTeardown(idler Idler) *Teardown {
	return &Teardown{idler: idler}
}

// Register hands d to the sequencer at stage. Nil objects are ignored.
func (t *Teardown) Register(stage Stage, d Destroyer) {
	if d == nil {
		return
	}
	if stage < 0 || stage >= stageCount {
		panic(fmt.Sprintf("teardown: unknown stage %d", int(stage)))
	}
	t.guards[stage] = append(t.guards[stage], d)
}

// Pending returns how many objects are registered at stage.
func (t *Teardown) Pending(stage Stage) int {
	if stage < 0 || stage >= stageCount {
		return 0
	}
	return len(t.guards[stage])
}

// Run waits for the device to go idle and then releases every stage the mode
// covers. If the idle wait fails nothing is released.
func (t *Teardown) Run(mode TeardownMode) error {
	res, err := t.idler.WaitIdle()
	_, err = check("wait for device idle", res, err)
	if err != nil {
		Logger().Warn("teardown refused, device did not go idle", "error", err)
		return errors.Wrap(err, "teardown")
	}

	for stage := Stage(0); stage <= mode.last(); stage++ {
		guards := t.guards[stage]
		for i := len(guards) - 1; i >= 0; i-- {
			guards[i].Destroy()
		}
		t.guards[stage] = nil
	}
	return nil
}
