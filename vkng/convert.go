package vkng

import (
	"math"

	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/presentation/engine"
)

// Engine enums carry Vulkan's own values, so conversions are plain casts.

func toResult(res common.VkResult) engine.Result {
	return engine.Result(res)
}

func toExtent(extent core1_0.Extent2D) engine.Extent2D {
	return engine.Extent2D{Width: extent.Width, Height: extent.Height}
}

func fromExtent(extent engine.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: extent.Width, Height: extent.Height}
}

func toFormat(format core1_0.Format) engine.Format {
	return engine.Format(format)
}

func fromFormat(format engine.Format) core1_0.Format {
	return core1_0.Format(format)
}

func toSurfaceFormat(format khr_surface.SurfaceFormat) engine.SurfaceFormat {
	return engine.SurfaceFormat{
		Format:     toFormat(format.Format),
		ColorSpace: engine.ColorSpace(format.ColorSpace),
	}
}

func toPresentMode(mode khr_surface.PresentMode) engine.PresentMode {
	return engine.PresentMode(mode)
}

func fromPresentMode(mode engine.PresentMode) khr_surface.PresentMode {
	return khr_surface.PresentMode(mode)
}

func toCapabilities(capabilities *khr_surface.SurfaceCapabilities) engine.SurfaceCapabilities {
	current := toExtent(capabilities.CurrentExtent)
	// Vulkan reports 0xFFFFFFFF for "application decides".
	if uint32(current.Width) == math.MaxUint32 || uint32(current.Height) == math.MaxUint32 {
		current = engine.Extent2D{Width: engine.ExtentUndefined, Height: engine.ExtentUndefined}
	}

	return engine.SurfaceCapabilities{
		MinImageCount:  capabilities.MinImageCount,
		MaxImageCount:  capabilities.MaxImageCount,
		CurrentExtent:  current,
		MinImageExtent: toExtent(capabilities.MinImageExtent),
		MaxImageExtent: toExtent(capabilities.MaxImageExtent),
	}
}

func toSurfaceSupport(capabilities *khr_surface.SurfaceCapabilities, formats []khr_surface.SurfaceFormat, presentModes []khr_surface.PresentMode) engine.SurfaceSupport {
	support := engine.SurfaceSupport{
		Capabilities: toCapabilities(capabilities),
	}
	for _, format := range formats {
		support.Formats = append(support.Formats, toSurfaceFormat(format))
	}
	for _, mode := range presentModes {
		support.PresentModes = append(support.PresentModes, toPresentMode(mode))
	}
	return support
}
