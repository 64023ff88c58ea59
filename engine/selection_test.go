package engine

import (
	"testing"

	"github.com/cockroachdb/errors"
)

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		want     int
	}{
		{"unbounded", 2, 0, 3},
		{"clamped to max", 3, 3, 3},
		{"room below max", 2, 8, 3},
		{"single image surface", 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chooseImageCount(SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max})
			if got != tt.want {
				t.Errorf("chooseImageCount(min=%d, max=%d) = %d, want %d", tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestChoosePresentMode(t *testing.T) {
	priority := DefaultConfig().PresentModePriority

	tests := []struct {
		name      string
		available []PresentMode
		want      PresentMode
	}{
		{"mailbox preferred", []PresentMode{PresentModeFIFO, PresentModeMailbox}, PresentModeMailbox},
		{"immediate next", []PresentMode{PresentModeFIFO, PresentModeImmediate}, PresentModeImmediate},
		{"mailbox over immediate", []PresentMode{PresentModeImmediate, PresentModeFIFO, PresentModeMailbox}, PresentModeMailbox},
		{"fifo only", []PresentMode{PresentModeFIFO}, PresentModeFIFO},
		{"nothing reported", nil, PresentModeFIFO},
		{"relaxed is not picked", []PresentMode{PresentModeFIFORelaxed}, PresentModeFIFO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := choosePresentMode(tt.available, priority); got != tt.want {
				t.Errorf("choosePresentMode(%v) = %s, want %s", tt.available, got, tt.want)
			}
		})
	}

	t.Run("vsync priority", func(t *testing.T) {
		got := choosePresentMode([]PresentMode{PresentModeMailbox, PresentModeFIFO}, nil)
		if got != PresentModeFIFO {
			t.Errorf("empty priority chose %s, want FIFO", got)
		}
	})
}

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := DefaultConfig().PreferredFormat
	unorm := SurfaceFormat{Format: FormatB8G8R8A8UnsignedNormalized, ColorSpace: ColorSpaceSRGBNonlinear}
	srgb := SurfaceFormat{Format: FormatB8G8R8A8SRGB, ColorSpace: ColorSpaceSRGBNonlinear}
	rgba := SurfaceFormat{Format: FormatR8G8B8A8UnsignedNormalized, ColorSpace: ColorSpaceSRGBNonlinear}

	tests := []struct {
		name      string
		available []SurfaceFormat
		want      SurfaceFormat
	}{
		{"no preference", []SurfaceFormat{{Format: FormatUndefined}}, unorm},
		{"exact match", []SurfaceFormat{srgb, rgba, unorm}, unorm},
		{"first otherwise", []SurfaceFormat{rgba, srgb}, rgba},
		{"color space must match", []SurfaceFormat{srgb, {Format: FormatB8G8R8A8UnsignedNormalized, ColorSpace: 1000104002}}, srgb},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chooseSurfaceFormat(tt.available, preferred)
			if err != nil {
				t.Fatalf("chooseSurfaceFormat() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("chooseSurfaceFormat() = %+v, want %+v", got, tt.want)
			}
		})
	}

	t.Run("no formats", func(t *testing.T) {
		_, err := chooseSurfaceFormat(nil, preferred)
		if !errors.Is(err, ErrNoSurfaceFormat) {
			t.Errorf("error = %v, want ErrNoSurfaceFormat", err)
		}
		if !IsFatal(err) {
			t.Errorf("missing surface format should be fatal")
		}
	})
}

func TestChooseExtent(t *testing.T) {
	variable := SurfaceCapabilities{
		CurrentExtent:  Extent2D{Width: ExtentUndefined, Height: ExtentUndefined},
		MinImageExtent: Extent2D{Width: 16, Height: 16},
		MaxImageExtent: Extent2D{Width: 1920, Height: 1080},
	}
	fixed := variable
	fixed.CurrentExtent = Extent2D{Width: 1280, Height: 720}

	tests := []struct {
		name         string
		capabilities SurfaceCapabilities
		requested    Extent2D
		want         Extent2D
	}{
		{"inside bounds", variable, Extent2D{800, 600}, Extent2D{800, 600}},
		{"clamped up", variable, Extent2D{4, 600}, Extent2D{16, 600}},
		{"clamped down", variable, Extent2D{4000, 4000}, Extent2D{1920, 1080}},
		{"each axis independently", variable, Extent2D{3000, 8}, Extent2D{1920, 16}},
		{"fixed surface wins", fixed, Extent2D{800, 600}, Extent2D{1280, 720}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chooseExtent(tt.capabilities, tt.requested); got != tt.want {
				t.Errorf("chooseExtent(%s) = %s, want %s", tt.requested, got, tt.want)
			}
		})
	}
}

func TestChooseSettings(t *testing.T) {
	support := SurfaceSupport{
		Capabilities: SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  0,
			CurrentExtent:  Extent2D{Width: 1024, Height: 768},
			MinImageExtent: Extent2D{Width: 1, Height: 1},
			MaxImageExtent: Extent2D{Width: 4096, Height: 4096},
		},
		Formats:      []SurfaceFormat{{Format: FormatUndefined}},
		PresentModes: []PresentMode{PresentModeFIFO},
	}

	got, err := ChooseSettings(support, Extent2D{Width: 10, Height: 10}, DefaultConfig())
	if err != nil {
		t.Fatalf("ChooseSettings() error = %v", err)
	}

	want := Settings{
		Format:      SurfaceFormat{Format: FormatB8G8R8A8UnsignedNormalized, ColorSpace: ColorSpaceSRGBNonlinear},
		PresentMode: PresentModeFIFO,
		Extent:      Extent2D{Width: 1024, Height: 768},
		ImageCount:  3,
	}
	if got != want {
		t.Errorf("ChooseSettings() = %+v, want %+v", got, want)
	}

	support.Formats = nil
	if _, err := ChooseSettings(support, Extent2D{Width: 10, Height: 10}, DefaultConfig()); !IsFatal(err) {
		t.Errorf("ChooseSettings() with no formats error = %v, want fatal", err)
	}
}
