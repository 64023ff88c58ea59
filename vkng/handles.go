package vkng

import (
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/presentation/engine"
)

type Fence struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.Fence
}

func (f *Fence) Handle() core1_0.Fence { return f.handle }

func (f *Fence) Wait() (engine.Result, error) {
	res, err := f.driver.WaitForFences(true, common.NoTimeout, f.handle)
	return toResult(res), err
}

func (f *Fence) Reset() (engine.Result, error) {
	res, err := f.driver.ResetFences(f.handle)
	return toResult(res), err
}

func (f *Fence) Destroy() {
	f.driver.DestroyFence(f.handle, nil)
}

type Semaphore struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.Semaphore
}

func (s *Semaphore) Handle() core1_0.Semaphore { return s.handle }

func (s *Semaphore) Destroy() {
	s.driver.DestroySemaphore(s.handle, nil)
}

type ImageView struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.ImageView
}

func (v *ImageView) Handle() core1_0.ImageView { return v.handle }

func (v *ImageView) Destroy() {
	v.driver.DestroyImageView(v.handle, nil)
}

type Framebuffer struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.Framebuffer
}

func (f *Framebuffer) Handle() core1_0.Framebuffer { return f.handle }

func (f *Framebuffer) Destroy() {
	f.driver.DestroyFramebuffer(f.handle, nil)
}

// RenderPass, PipelineLayout, Pipeline and CommandBuffer are built by a
// PipelineProvider outside this package and wrapped here so the engine can
// release them.

type RenderPass struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.RenderPass
}

func NewRenderPass(driver core1_0.CoreDeviceDriver, handle core1_0.RenderPass) *RenderPass {
	return &RenderPass{driver: driver, handle: handle}
}

func (r *RenderPass) Handle() core1_0.RenderPass { return r.handle }

func (r *RenderPass) Destroy() {
	r.driver.DestroyRenderPass(r.handle, nil)
}

type PipelineLayout struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.PipelineLayout
}

func NewPipelineLayout(driver core1_0.CoreDeviceDriver, handle core1_0.PipelineLayout) *PipelineLayout {
	return &PipelineLayout{driver: driver, handle: handle}
}

func (l *PipelineLayout) Handle() core1_0.PipelineLayout { return l.handle }

func (l *PipelineLayout) Destroy() {
	l.driver.DestroyPipelineLayout(l.handle, nil)
}

type Pipeline struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.Pipeline
}

func NewPipeline(driver core1_0.CoreDeviceDriver, handle core1_0.Pipeline) *Pipeline {
	return &Pipeline{driver: driver, handle: handle}
}

func (p *Pipeline) Handle() core1_0.Pipeline { return p.handle }

func (p *Pipeline) Destroy() {
	p.driver.DestroyPipeline(p.handle, nil)
}

type CommandBuffer struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.CommandBuffer
}

func NewCommandBuffer(driver core1_0.CoreDeviceDriver, handle core1_0.CommandBuffer) *CommandBuffer {
	return &CommandBuffer{driver: driver, handle: handle}
}

func (b *CommandBuffer) Handle() core1_0.CommandBuffer { return b.handle }

// Destroy returns the buffer to its pool.
func (b *CommandBuffer) Destroy() {
	b.driver.FreeCommandBuffers(b.handle)
}

type CommandPool struct {
	driver core1_0.CoreDeviceDriver
	handle core1_0.CommandPool
}

func NewCommandPool(driver core1_0.CoreDeviceDriver, handle core1_0.CommandPool) *CommandPool {
	return &CommandPool{driver: driver, handle: handle}
}

func (p *CommandPool) Handle() core1_0.CommandPool { return p.handle }

func (p *CommandPool) Destroy() {
	p.driver.DestroyCommandPool(p.handle, nil)
}

type Swapchain struct {
	device *Device
	handle khr_swapchain.Swapchain
}

func (s *Swapchain) Handle() khr_swapchain.Swapchain { return s.handle }

func (s *Swapchain) Images() ([]engine.Image, engine.Result, error) {
	images, res, err := s.device.swapchainExtension.GetSwapchainImages(s.handle)
	if err != nil {
		return nil, toResult(res), err
	}

	out := make([]engine.Image, 0, len(images))
	for _, image := range images {
		out = append(out, image)
	}
	return out, toResult(res), nil
}

func (s *Swapchain) AcquireNextImage(signal engine.Semaphore) (int, engine.Result, error) {
	semaphore := signal.(*Semaphore).handle
	imageIndex, res, err := s.device.swapchainExtension.AcquireNextImage(s.handle, common.NoTimeout, &semaphore, nil)
	return imageIndex, toResult(res), err
}

func (s *Swapchain) Destroy() {
	s.device.swapchainExtension.DestroySwapchain(s.handle, nil)
}

// The objects below outlive every swapchain. They are adopted by the engine
// so that shutdown releases them after everything built on them.

// LogicalDevice releases the device behind a device driver.
type LogicalDevice struct {
	driver core1_0.CoreDeviceDriver
}

func NewLogicalDevice(driver core1_0.CoreDeviceDriver) *LogicalDevice {
	return &LogicalDevice{driver: driver}
}

func (d *LogicalDevice) Destroy() {
	d.driver.DestroyDevice(nil)
}

type Surface struct {
	extension khr_surface.ExtensionDriver
	handle    khr_surface.Surface
}

func NewSurface(extension khr_surface.ExtensionDriver, handle khr_surface.Surface) *Surface {
	return &Surface{extension: extension, handle: handle}
}

func (s *Surface) Handle() khr_surface.Surface { return s.handle }

func (s *Surface) Destroy() {
	s.extension.DestroySurface(s.handle, nil)
}

type DebugMessenger struct {
	driver ext_debug_utils.ExtensionDriver
	handle ext_debug_utils.DebugUtilsMessenger
}

func NewDebugMessenger(driver ext_debug_utils.ExtensionDriver, handle ext_debug_utils.DebugUtilsMessenger) *DebugMessenger {
	return &DebugMessenger{driver: driver, handle: handle}
}

func (m *DebugMessenger) Destroy() {
	m.driver.DestroyDebugUtilsMessenger(m.handle, nil)
}

type Instance struct {
	driver core1_0.CoreInstanceDriver
}

func NewInstance(driver core1_0.CoreInstanceDriver) *Instance {
	return &Instance{driver: driver}
}

func (i *Instance) Destroy() {
	i.driver.DestroyInstance(nil)
}
