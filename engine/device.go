package engine

import "fmt"

// ExtentUndefined is the width and height a surface reports when the
// swapchain extent is decided by the application rather than the surface.
const ExtentUndefined = -1

type Extent2D struct {
	Width  int
	Height int
}

// Undefined reports whether the extent is the surface's "application decides"
// sentinel.
func (e Extent2D) Undefined() bool {
	return e.Width == ExtentUndefined || e.Height == ExtentUndefined
}

// Empty reports whether the extent has no drawable area, as happens while a
// window is minimized.
func (e Extent2D) Empty() bool {
	return e.Width <= 0 || e.Height <= 0
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Format values match VkFormat.
type Format int32

const (
	FormatUndefined                  Format = 0
	FormatR8G8B8A8UnsignedNormalized Format = 37
	FormatR8G8B8A8SRGB               Format = 43
	FormatB8G8R8A8UnsignedNormalized Format = 44
	FormatB8G8R8A8SRGB               Format = 50
)

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "Undefined"
	case FormatR8G8B8A8UnsignedNormalized:
		return "R8G8B8A8UnsignedNormalized"
	case FormatR8G8B8A8SRGB:
		return "R8G8B8A8SRGB"
	case FormatB8G8R8A8UnsignedNormalized:
		return "B8G8R8A8UnsignedNormalized"
	case FormatB8G8R8A8SRGB:
		return "B8G8R8A8SRGB"
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

// ColorSpace values match VkColorSpaceKHR.
type ColorSpace int32

const (
	ColorSpaceSRGBNonlinear ColorSpace = 0
)

func (c ColorSpace) String() string {
	if c == ColorSpaceSRGBNonlinear {
		return "SRGBNonlinear"
	}
	return fmt.Sprintf("ColorSpace(%d)", int32(c))
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode values match VkPresentModeKHR.
type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFORelaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(m))
}

// PipelineStage values match VkPipelineStageFlagBits.
type PipelineStage uint32

const (
	PipelineStageColorAttachmentOutput PipelineStage = 0x00000400
)

type SurfaceCapabilities struct {
	MinImageCount int
	// MaxImageCount of 0 means the surface sets no upper bound.
	MaxImageCount int

	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

// SurfaceSupport is everything the surface reports about what swapchains it
// can accept.
type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// Destroyer is implemented by every object whose lifetime the engine ends.
type Destroyer interface {
	Destroy()
}

// DestroyFunc adapts a plain function to Destroyer.
type DestroyFunc func()

func (f DestroyFunc) Destroy() {
	f()
}

// Image is a swapchain image. It is borrowed from the presentation engine and
// never destroyed by the engine.
type Image interface{}

type ImageView interface {
	Destroyer
}

type Framebuffer interface {
	Destroyer
}

type RenderPass interface {
	Destroyer
}

type CommandBuffer interface {
	Destroyer
}

type Semaphore interface {
	Destroyer
}

// Fence is a host-observable completion flag signaled by the device.
type Fence interface {
	Destroyer

	// Wait blocks without timeout until the fence is signaled.
	Wait() (Result, error)
	// Reset returns the fence to the unsignaled state.
	Reset() (Result, error)
}

// SwapchainHandle is the backend's swapchain object.
type SwapchainHandle interface {
	Destroyer

	Images() ([]Image, Result, error)
	// AcquireNextImage blocks without timeout until the presentation engine
	// has an image, and arranges for signal to be signaled once the image can
	// be written.
	AcquireNextImage(signal Semaphore) (int, Result, error)
}

type SwapchainCreateInfo struct {
	MinImageCount int
	Format        SurfaceFormat
	Extent        Extent2D
	PresentMode   PresentMode
}

// Submission describes one batch of command work for the graphics queue.
type Submission struct {
	CommandBuffer CommandBuffer

	Wait      Semaphore
	WaitStage PipelineStage
	Signal    Semaphore

	// Fence is signaled when the batch completes.
	Fence Fence
}

// Device is the capability surface the engine needs from a logical device
// with its surface and queues.
type Device interface {
	SurfaceSupport() (SurfaceSupport, error)

	CreateSwapchain(info SwapchainCreateInfo) (SwapchainHandle, Result, error)
	CreateImageView(image Image, format Format) (ImageView, Result, error)
	CreateFramebuffer(renderPass RenderPass, view ImageView, extent Extent2D) (Framebuffer, Result, error)
	CreateSemaphore() (Semaphore, Result, error)
	CreateFence(signaled bool) (Fence, Result, error)

	// Submit queues work on the graphics queue.
	Submit(work Submission) (Result, error)
	// Present queues imageIndex for presentation on the present queue once
	// wait is signaled.
	Present(swapchain SwapchainHandle, imageIndex int, wait Semaphore) (Result, error)

	// WaitIdle blocks until the device has no outstanding work.
	WaitIdle() (Result, error)
}

// Pipeline holds the objects a PipelineProvider builds against a swapchain's
// format and extent. Layout and Graphics may be nil.
type Pipeline struct {
	RenderPass RenderPass
	Layout     Destroyer
	Graphics   Destroyer
}

// RenderTarget is one swapchain image ready for command recording.
type RenderTarget struct {
	ImageIndex  int
	Framebuffer Framebuffer
	RenderPass  RenderPass
	Extent      Extent2D
}

// PipelineProvider supplies the swapchain-dependent render pass and pipeline
// and records the per-image command work.
type PipelineProvider interface {
	CreatePipeline(format SurfaceFormat, extent Extent2D) (Pipeline, error)
	// RecordCommands returns exactly one command buffer per target, in order.
	RecordCommands(targets []RenderTarget) ([]CommandBuffer, error)
}
