package engine

import "github.com/cockroachdb/errors"

// Settings are the swapchain parameters chosen for a surface.
type Settings struct {
	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent2D
	ImageCount  int
}

// ChooseSettings picks format, present mode, extent and image count for a
// swapchain on a surface reporting support, given the framebuffer extent the
// application would like.
func ChooseSettings(support SurfaceSupport, requested Extent2D, cfg Config) (Settings, error) {
	format, err := chooseSurfaceFormat(support.Formats, cfg.PreferredFormat)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Format:      format,
		PresentMode: choosePresentMode(support.PresentModes, cfg.PresentModePriority),
		Extent:      chooseExtent(support.Capabilities, requested),
		ImageCount:  chooseImageCount(support.Capabilities),
	}, nil
}

func chooseSurfaceFormat(availableFormats []SurfaceFormat, preferred SurfaceFormat) (SurfaceFormat, error) {
	if len(availableFormats) == 0 {
		return SurfaceFormat{}, errors.Mark(ErrNoSurfaceFormat, ErrFatal)
	}

	// The surface has no preference at all
	if len(availableFormats) == 1 && availableFormats[0].Format == FormatUndefined {
		return SurfaceFormat{
			Format:     FormatB8G8R8A8UnsignedNormalized,
			ColorSpace: ColorSpaceSRGBNonlinear,
		}, nil
	}

	for _, format := range availableFormats {
		if format == preferred {
			return format, nil
		}
	}

	return availableFormats[0], nil
}

func choosePresentMode(availablePresentModes []PresentMode, priority []PresentMode) PresentMode {
	for _, wanted := range priority {
		for _, presentMode := range availablePresentModes {
			if presentMode == wanted {
				return presentMode
			}
		}
	}

	return PresentModeFIFO
}

func chooseExtent(capabilities SurfaceCapabilities, requested Extent2D) Extent2D {
	if !capabilities.CurrentExtent.Undefined() {
		return capabilities.CurrentExtent
	}

	width := requested.Width
	height := requested.Height

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return Extent2D{Width: width, Height: height}
}

func chooseImageCount(capabilities SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}
