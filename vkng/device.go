// Package vkng implements the presentation engine's device on top of the
// vkngwrapper drivers.
package vkng

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/presentation/engine"
)

var _ engine.Device = (*Device)(nil)

type DeviceOptions struct {
	Driver           core1_0.CoreDeviceDriver
	SurfaceExtension khr_surface.ExtensionDriver
	Surface          khr_surface.Surface
	PhysicalDevice   core1_0.PhysicalDevice

	GraphicsFamily int
	PresentFamily  int
}

// Device is a logical device together with the surface it presents to.
type Device struct {
	driver             core1_0.CoreDeviceDriver
	surfaceExtension   khr_surface.ExtensionDriver
	swapchainExtension khr_swapchain.ExtensionDriver
	surface            khr_surface.Surface
	physicalDevice     core1_0.PhysicalDevice

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	sharingMode        core1_0.SharingMode
	queueFamilyIndices []int
}

func NewDevice(options DeviceOptions) *Device {
	device := &Device{
		driver:             options.Driver,
		surfaceExtension:   options.SurfaceExtension,
		swapchainExtension: khr_swapchain.CreateExtensionDriverFromCoreDriver(options.Driver),
		surface:            options.Surface,
		physicalDevice:     options.PhysicalDevice,
		graphicsQueue:      options.Driver.GetQueue(options.GraphicsFamily, 0),
		presentQueue:       options.Driver.GetQueue(options.PresentFamily, 0),
		sharingMode:        core1_0.SharingModeExclusive,
	}

	if options.GraphicsFamily != options.PresentFamily {
		device.sharingMode = core1_0.SharingModeConcurrent
		device.queueFamilyIndices = []int{options.GraphicsFamily, options.PresentFamily}
	}

	return device
}

func (d *Device) Driver() core1_0.CoreDeviceDriver {
	return d.driver
}

func (d *Device) SurfaceSupport() (engine.SurfaceSupport, error) {
	capabilities, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.surface, d.physicalDevice)
	if err != nil {
		return engine.SurfaceSupport{}, errors.Wrap(err, "surface capabilities")
	}

	formats, _, err := d.surfaceExtension.GetPhysicalDeviceSurfaceFormats(d.surface, d.physicalDevice)
	if err != nil {
		return engine.SurfaceSupport{}, errors.Wrap(err, "surface formats")
	}

	presentModes, _, err := d.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(d.surface, d.physicalDevice)
	if err != nil {
		return engine.SurfaceSupport{}, errors.Wrap(err, "surface present modes")
	}

	return toSurfaceSupport(capabilities, formats, presentModes), nil
}

func (d *Device) CreateSwapchain(info engine.SwapchainCreateInfo) (engine.SwapchainHandle, engine.Result, error) {
	capabilities, res, err := d.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.surface, d.physicalDevice)
	if err != nil {
		return nil, toResult(res), errors.Wrap(err, "surface capabilities")
	}

	swapchain, res, err := d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      fromFormat(info.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      fromExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   d.sharingMode,
		QueueFamilyIndices: d.queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    fromPresentMode(info.PresentMode),
		Clipped:        true,
	})
	if err != nil {
		return nil, toResult(res), err
	}

	return &Swapchain{device: d, handle: swapchain}, toResult(res), nil
}

func (d *Device) CreateImageView(image engine.Image, format engine.Format) (engine.ImageView, engine.Result, error) {
	swapchainImage, ok := image.(core1_0.Image)
	if !ok {
		return nil, engine.ResultErrorUnknown, errors.Newf("image of type %T was not created by this device", image)
	}

	view, res, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    swapchainImage,
		ViewType: core1_0.ImageViewType2D,
		Format:   fromFormat(format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, toResult(res), err
	}

	return &ImageView{driver: d.driver, handle: view}, toResult(res), nil
}

func (d *Device) CreateFramebuffer(renderPass engine.RenderPass, view engine.ImageView, extent engine.Extent2D) (engine.Framebuffer, engine.Result, error) {
	pass, ok := renderPass.(*RenderPass)
	if !ok {
		return nil, engine.ResultErrorUnknown, errors.Newf("render pass of type %T was not wrapped by NewRenderPass", renderPass)
	}

	framebuffer, res, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass: pass.handle,
		Layers:     1,
		Attachments: []core1_0.ImageView{
			view.(*ImageView).handle,
		},
		Width:  extent.Width,
		Height: extent.Height,
	})
	if err != nil {
		return nil, toResult(res), err
	}

	return &Framebuffer{driver: d.driver, handle: framebuffer}, toResult(res), nil
}

func (d *Device) CreateSemaphore() (engine.Semaphore, engine.Result, error) {
	semaphore, res, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, toResult(res), err
	}

	return &Semaphore{driver: d.driver, handle: semaphore}, toResult(res), nil
}

func (d *Device) CreateFence(signaled bool) (engine.Fence, engine.Result, error) {
	info := core1_0.FenceCreateInfo{}
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}

	fence, res, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return nil, toResult(res), err
	}

	return &Fence{driver: d.driver, handle: fence}, toResult(res), nil
}

func (d *Device) Submit(work engine.Submission) (engine.Result, error) {
	fence := work.Fence.(*Fence).handle

	res, err := d.driver.QueueSubmit(d.graphicsQueue, &fence,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{work.Wait.(*Semaphore).handle},
			WaitDstStageMask: []core1_0.PipelineStageFlags{core1_0.PipelineStageFlags(work.WaitStage)},
			CommandBuffers:   []core1_0.CommandBuffer{work.CommandBuffer.(*CommandBuffer).handle},
			SignalSemaphores: []core1_0.Semaphore{work.Signal.(*Semaphore).handle},
		},
	)
	return toResult(res), err
}

func (d *Device) Present(swapchain engine.SwapchainHandle, imageIndex int, wait engine.Semaphore) (engine.Result, error) {
	res, err := d.swapchainExtension.QueuePresent(d.presentQueue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait.(*Semaphore).handle},
		Swapchains:     []khr_swapchain.Swapchain{swapchain.(*Swapchain).handle},
		ImageIndices:   []int{imageIndex},
	})
	return toResult(res), err
}

func (d *Device) WaitIdle() (engine.Result, error) {
	res, err := d.driver.DeviceWaitIdle()
	return toResult(res), err
}
