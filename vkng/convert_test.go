package vkng

import (
	"testing"

	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/presentation/engine"
)

func TestToResult(t *testing.T) {
	tests := []struct {
		in   common.VkResult
		want engine.Result
	}{
		{khr_swapchain.VKErrorOutOfDate, engine.ResultErrorOutOfDate},
		{khr_swapchain.VKSuboptimal, engine.ResultSuboptimal},
		{common.VkResult(0), engine.ResultSuccess},
	}
	for _, tt := range tests {
		if got := toResult(tt.in); got != tt.want {
			t.Errorf("toResult(%d) = %s, want %s", int(tt.in), got, tt.want)
		}
	}

	if !toResult(khr_swapchain.VKErrorOutOfDate).Stale() || !toResult(khr_swapchain.VKSuboptimal).Stale() {
		t.Error("swapchain results not classified as stale")
	}
}

func TestSurfaceEnumsMatch(t *testing.T) {
	format := toSurfaceFormat(khr_surface.SurfaceFormat{
		Format:     core1_0.FormatB8G8R8A8SRGB,
		ColorSpace: khr_surface.ColorSpaceSRGBNonlinear,
	})
	if format.Format != engine.FormatB8G8R8A8SRGB || format.ColorSpace != engine.ColorSpaceSRGBNonlinear {
		t.Errorf("toSurfaceFormat() = %+v", format)
	}
	if fromFormat(format.Format) != core1_0.FormatB8G8R8A8SRGB {
		t.Errorf("fromFormat(%s) did not round trip", format.Format)
	}

	modes := map[khr_surface.PresentMode]engine.PresentMode{
		khr_surface.PresentModeMailbox: engine.PresentModeMailbox,
		khr_surface.PresentModeFIFO:    engine.PresentModeFIFO,
	}
	for in, want := range modes {
		if got := toPresentMode(in); got != want {
			t.Errorf("toPresentMode(%d) = %s, want %s", int(in), got, want)
		}
		if back := fromPresentMode(want); back != in {
			t.Errorf("fromPresentMode(%s) = %d, want %d", want, int(back), int(in))
		}
	}
}

func TestToCapabilities(t *testing.T) {
	tests := []struct {
		name    string
		current core1_0.Extent2D
		want    engine.Extent2D
	}{
		{"fixed", core1_0.Extent2D{Width: 800, Height: 600}, engine.Extent2D{Width: 800, Height: 600}},
		{"undefined", core1_0.Extent2D{Width: -1, Height: -1}, engine.Extent2D{Width: engine.ExtentUndefined, Height: engine.ExtentUndefined}},
		{"zero while minimized", core1_0.Extent2D{Width: 0, Height: 0}, engine.Extent2D{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toCapabilities(&khr_surface.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  8,
				CurrentExtent:  tt.current,
				MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
			})
			if got.CurrentExtent != tt.want {
				t.Errorf("CurrentExtent = %s, want %s", got.CurrentExtent, tt.want)
			}
			if got.MinImageCount != 2 || got.MaxImageCount != 8 {
				t.Errorf("image counts = %d..%d, want 2..8", got.MinImageCount, got.MaxImageCount)
			}
			if got.MaxImageExtent != (engine.Extent2D{Width: 4096, Height: 4096}) {
				t.Errorf("MaxImageExtent = %s", got.MaxImageExtent)
			}
		})
	}
}

func TestToSurfaceSupport(t *testing.T) {
	support := toSurfaceSupport(
		&khr_surface.SurfaceCapabilities{CurrentExtent: core1_0.Extent2D{Width: -1, Height: -1}},
		[]khr_surface.SurfaceFormat{{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}},
		[]khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox},
	)

	settings, err := engine.ChooseSettings(support, engine.Extent2D{Width: 640, Height: 480}, engine.DefaultConfig())
	if err != nil {
		t.Fatalf("ChooseSettings() error = %v", err)
	}
	if settings.PresentMode != engine.PresentModeMailbox {
		t.Errorf("PresentMode = %s, want Mailbox", settings.PresentMode)
	}
	if settings.Format.Format != engine.FormatB8G8R8A8SRGB {
		t.Errorf("Format = %s, want the only reported format", settings.Format.Format)
	}
}
