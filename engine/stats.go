package engine

import (
	"time"

	"github.com/loov/hrtime"
)

// Stats are running counters kept by the presentation loop.
type Stats struct {
	// Frames counts ticks that reached the fence wait.
	Frames uint64
	// Presented counts frames the presentation engine accepted.
	Presented uint64
	// Recreations counts swapchain rebuilds after the initial creation.
	Recreations uint64
	// Dropped counts frames that were acquired out of date and never
	// submitted.
	Dropped uint64
	// Skipped counts ticks spent with a zero-area framebuffer.
	Skipped uint64

	// FenceWait is the total time spent blocked on frame fences.
	FenceWait time.Duration
	LastFrame time.Duration
	MaxFrame  time.Duration
}

// frameTimer measures one tick.
type frameTimer struct {
	start time.Duration
}

func startFrame() frameTimer {
	return frameTimer{start: hrtime.Now()}
}

func (t frameTimer) finish(stats *Stats) {
	elapsed := hrtime.Since(t.start)
	stats.LastFrame = elapsed
	if elapsed > stats.MaxFrame {
		stats.MaxFrame = elapsed
	}
}
