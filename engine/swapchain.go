package engine

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/loov/hrtime"
)

// SwapchainImage is one presentable image with the objects built on it.
type SwapchainImage struct {
	Image       Image
	View        ImageView
	Framebuffer Framebuffer
}

// Swapchain is one generation of the swapchain and everything derived from
// it. It is replaced wholesale on recreation.
type Swapchain struct {
	ID     uuid.UUID
	Handle SwapchainHandle

	Format      SurfaceFormat
	PresentMode PresentMode
	Extent      Extent2D
	// ImageCount is the image count requested from the surface. The
	// presentation engine may hand out more; see Images.
	ImageCount int

	Images         []SwapchainImage
	Pipeline       Pipeline
	CommandBuffers []CommandBuffer
}

// SwapchainManager owns the swapchain and its per-image resources. No other
// component writes to them.
type SwapchainManager struct {
	device   Device
	provider PipelineProvider
	teardown *Teardown
	config   Config

	current *Swapchain
}

func NewSwapchainManager(device Device, provider PipelineProvider, teardown *Teardown, cfg Config) *SwapchainManager {
	return &SwapchainManager{
		device:   device,
		provider: provider,
		teardown: teardown,
		config:   cfg,
	}
}

// Current returns the live swapchain, or nil before Create.
func (m *SwapchainManager) Current() *Swapchain {
	return m.current
}

// Create builds a swapchain for the requested framebuffer extent along with
// its image views, pipeline, framebuffers and command buffers. Every failure
// is fatal; whatever was built before the failure is released.
func (m *SwapchainManager) Create(requested Extent2D) (swapchain *Swapchain, err error) {
	defer func() {
		if err != nil {
			m.current = nil
			if releaseErr := m.teardown.Run(TeardownPartial); releaseErr != nil {
				err = errors.WithSecondaryError(err, releaseErr)
			}
			err = fatal(err, "create swapchain")
		}
	}()

	support, err := m.device.SurfaceSupport()
	if err != nil {
		return nil, errors.Wrap(err, "query surface support")
	}

	settings, err := ChooseSettings(support, requested, m.config)
	if err != nil {
		return nil, err
	}

	handle, res, err := m.device.CreateSwapchain(SwapchainCreateInfo{
		MinImageCount: settings.ImageCount,
		Format:        settings.Format,
		Extent:        settings.Extent,
		PresentMode:   settings.PresentMode,
	})
	if err := checkCreate("create swapchain handle", res, err); err != nil {
		return nil, err
	}
	m.teardown.Register(StageSwapchain, handle)

	swapchain = &Swapchain{
		ID:          uuid.New(),
		Handle:      handle,
		Format:      settings.Format,
		PresentMode: settings.PresentMode,
		Extent:      settings.Extent,
		ImageCount:  settings.ImageCount,
	}

	images, res, err := handle.Images()
	if err := checkCreate("get swapchain images", res, err); err != nil {
		return nil, err
	}

	for _, image := range images {
		view, res, err := m.device.CreateImageView(image, settings.Format.Format)
		if err := checkCreate("create image view", res, err); err != nil {
			return nil, err
		}
		m.teardown.Register(StageImageViews, view)

		swapchain.Images = append(swapchain.Images, SwapchainImage{
			Image: image,
			View:  view,
		})
	}

	pipeline, err := m.provider.CreatePipeline(settings.Format, settings.Extent)
	m.teardown.Register(StageRenderPass, pipeline.RenderPass)
	m.teardown.Register(StagePipelineLayout, pipeline.Layout)
	m.teardown.Register(StagePipeline, pipeline.Graphics)
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline")
	}
	if pipeline.RenderPass == nil {
		return nil, errors.New("pipeline provider returned no render pass")
	}
	swapchain.Pipeline = pipeline

	targets := make([]RenderTarget, 0, len(swapchain.Images))
	for imageIndex := range swapchain.Images {
		framebuffer, res, err := m.device.CreateFramebuffer(pipeline.RenderPass, swapchain.Images[imageIndex].View, settings.Extent)
		if err := checkCreate("create framebuffer", res, err); err != nil {
			return nil, err
		}
		m.teardown.Register(StageFramebuffers, framebuffer)

		swapchain.Images[imageIndex].Framebuffer = framebuffer
		targets = append(targets, RenderTarget{
			ImageIndex:  imageIndex,
			Framebuffer: framebuffer,
			RenderPass:  pipeline.RenderPass,
			Extent:      settings.Extent,
		})
	}

	commandBuffers, err := m.provider.RecordCommands(targets)
	for _, buffer := range commandBuffers {
		m.teardown.Register(StageCommandBuffers, buffer)
	}
	if err != nil {
		return nil, errors.Wrap(err, "record commands")
	}
	if len(commandBuffers) != len(targets) {
		return nil, errors.Newf("pipeline provider recorded %d command buffers for %d images", len(commandBuffers), len(targets))
	}
	swapchain.CommandBuffers = commandBuffers

	m.current = swapchain
	Logger().Info("swapchain created",
		"id", swapchain.ID,
		"format", swapchain.Format.Format,
		"colorSpace", swapchain.Format.ColorSpace,
		"presentMode", swapchain.PresentMode,
		"extent", swapchain.Extent,
		"requestedImages", swapchain.ImageCount,
		"images", len(swapchain.Images))
	return swapchain, nil
}

// Recreate waits for the device to go idle, releases the current swapchain
// and everything derived from it, and builds a replacement for newExtent.
func (m *SwapchainManager) Recreate(newExtent Extent2D) (*Swapchain, error) {
	start := hrtime.Now()

	var previous uuid.UUID
	if m.current != nil {
		previous = m.current.ID
	}

	if err := m.teardown.Run(TeardownPartial); err != nil {
		return nil, fatal(err, "recreate swapchain")
	}
	m.current = nil

	swapchain, err := m.Create(newExtent)
	if err != nil {
		return nil, err
	}

	Logger().Info("swapchain recreated",
		"previous", previous,
		"id", swapchain.ID,
		"extent", swapchain.Extent,
		"elapsed", hrtime.Since(start))
	return swapchain, nil
}

// AcquireNextImage asks the presentation engine for the next writable image
// of the current swapchain. Stale results come back with a nil error.
func (m *SwapchainManager) AcquireNextImage(signal Semaphore) (int, Result, error) {
	if m.current == nil {
		return 0, ResultErrorOutOfDate, nil
	}

	imageIndex, res, err := m.current.Handle.AcquireNextImage(signal)
	res, err = check("acquire next image", res, err)
	if err != nil {
		return 0, res, err
	}
	if res != ResultErrorOutOfDate && (imageIndex < 0 || imageIndex >= len(m.current.Images)) {
		return 0, res, fatal(errors.Newf("image index %d out of range for %d images", imageIndex, len(m.current.Images)), "acquire next image")
	}
	return imageIndex, res, nil
}

// Present queues imageIndex of the current swapchain for display once wait
// is signaled.
func (m *SwapchainManager) Present(imageIndex int, wait Semaphore) (Result, error) {
	if m.current == nil {
		return ResultErrorOutOfDate, nil
	}
	res, err := m.device.Present(m.current.Handle, imageIndex, wait)
	return check("present", res, err)
}

// checkCreate is check for creation calls, where even a stale result means
// the object was not built.
func checkCreate(op string, res Result, err error) error {
	if res.Stale() {
		if err == nil {
			err = errors.Newf("unexpected result %s", res)
		}
		return errors.Wrap(err, op)
	}
	_, err = check(op, res, err)
	return err
}
