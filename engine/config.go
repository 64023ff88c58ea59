package engine

import "github.com/cockroachdb/errors"

const DefaultMaxFramesInFlight = 2

type Config struct {
	// MaxFramesInFlight is the number of frame slots, fixed for the life of
	// the engine. It bounds how many frames of GPU work may be outstanding.
	MaxFramesInFlight int

	// PreferredFormat is picked when the surface reports it exactly.
	PreferredFormat SurfaceFormat

	// PresentModePriority lists the present modes to try, best first. FIFO is
	// always available and is used when none of these are reported, so it
	// does not need to be listed.
	PresentModePriority []PresentMode
}

func DefaultConfig() Config {
	return Config{
		MaxFramesInFlight: DefaultMaxFramesInFlight,
		PreferredFormat: SurfaceFormat{
			Format:     FormatB8G8R8A8UnsignedNormalized,
			ColorSpace: ColorSpaceSRGBNonlinear,
		},
		PresentModePriority: []PresentMode{PresentModeMailbox, PresentModeImmediate},
	}
}

func (c Config) Validate() error {
	if c.MaxFramesInFlight < 1 {
		return errors.Wrapf(ErrInvalidConfig, "max frames in flight must be at least 1, got %d", c.MaxFramesInFlight)
	}
	if c.PreferredFormat.Format == FormatUndefined {
		return errors.Wrap(ErrInvalidConfig, "preferred format cannot be undefined")
	}
	return nil
}
