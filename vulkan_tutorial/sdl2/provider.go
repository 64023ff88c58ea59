package main

import (
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	"github.com/vkngwrapper/presentation/engine"
	"github.com/vkngwrapper/presentation/vkng"
)

// trianglePipeline builds the render pass and, when shaders are given, the
// graphics pipeline for each swapchain, and records one command buffer per
// swapchain image.
type trianglePipeline struct {
	driver      core1_0.CoreDeviceDriver
	commandPool core1_0.CommandPool

	vertexCode   []uint32
	fragmentCode []uint32

	current engine.Pipeline
}

func newTrianglePipeline(driver core1_0.CoreDeviceDriver, commandPool core1_0.CommandPool, opts options) (*trianglePipeline, error) {
	p := &trianglePipeline{
		driver:      driver,
		commandPool: commandPool,
	}

	if opts.vertexShader == "" {
		return p, nil
	}

	var err error
	p.vertexCode, err = loadShader(opts.vertexShader)
	if err != nil {
		return nil, err
	}
	p.fragmentCode, err = loadShader(opts.fragmentShader)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func loadShader(path string) ([]uint32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, errors.Newf("shader %s is not SPIR-V: %d bytes", path, len(b))
	}
	return bytesToBytecode(b), nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}

func (p *trianglePipeline) CreatePipeline(format engine.SurfaceFormat, extent engine.Extent2D) (engine.Pipeline, error) {
	var pipeline engine.Pipeline

	renderPass, _, err := p.driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         core1_0.Format(format.Format),
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return pipeline, err
	}
	pipeline.RenderPass = vkng.NewRenderPass(p.driver, renderPass)
	p.current = pipeline

	if p.vertexCode == nil {
		return pipeline, nil
	}

	layout, _, err := p.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return pipeline, err
	}
	pipeline.Layout = vkng.NewPipelineLayout(p.driver, layout)
	p.current = pipeline

	graphics, err := p.createGraphicsPipeline(renderPass, layout, extent)
	if err != nil {
		return pipeline, err
	}
	pipeline.Graphics = vkng.NewPipeline(p.driver, graphics)
	p.current = pipeline

	return pipeline, nil
}

func (p *trianglePipeline) createGraphicsPipeline(renderPass core1_0.RenderPass, layout core1_0.PipelineLayout, extent engine.Extent2D) (core1_0.Pipeline, error) {
	vertShader, _, err := p.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: p.vertexCode,
	})
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	defer p.driver.DestroyShaderModule(vertShader, nil)

	fragShader, _, err := p.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: p.fragmentCode,
	})
	if err != nil {
		return core1_0.Pipeline{}, err
	}
	defer p.driver.DestroyShaderModule(fragShader, nil)

	// Vertices come from the vertex shader itself.
	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{}

	inputAssembly := &core1_0.PipelineInputAssemblyStateCreateInfo{
		Topology:               core1_0.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: false,
	}

	vertStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageVertex,
		Module: vertShader,
		Name:   "main",
	}

	fragStage := core1_0.PipelineShaderStageCreateInfo{
		Stage:  core1_0.StageFragment,
		Module: fragShader,
		Name:   "main",
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: core1_0.Extent2D{Width: extent.Width, Height: extent.Height},
			},
		},
	}

	rasterization := &core1_0.PipelineRasterizationStateCreateInfo{
		DepthClampEnable:        false,
		RasterizerDiscardEnable: false,

		PolygonMode: core1_0.PolygonModeFill,
		CullMode:    core1_0.CullModeBack,
		FrontFace:   core1_0.FrontFaceClockwise,

		DepthBiasEnable: false,

		LineWidth: 1.0,
	}

	multisample := &core1_0.PipelineMultisampleStateCreateInfo{
		SampleShadingEnable:  false,
		RasterizationSamples: core1_0.Samples1,
		MinSampleShading:     1.0,
	}

	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   false,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	pipelines, _, err := p.driver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				vertStage,
				fragStage,
			},
			VertexInputState:   vertexInput,
			InputAssemblyState: inputAssembly,
			ViewportState:      viewport,
			RasterizationState: rasterization,
			MultisampleState:   multisample,
			ColorBlendState:    colorBlend,
			Layout:             layout,
			RenderPass:         renderPass,
			Subpass:            0,
			BasePipelineIndex:  -1,
		},
	)
	if err != nil {
		return core1_0.Pipeline{}, err
	}

	return pipelines[0], nil
}

func (p *trianglePipeline) RecordCommands(targets []engine.RenderTarget) ([]engine.CommandBuffer, error) {
	buffers, _, err := p.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: len(targets),
	})
	if err != nil {
		return nil, err
	}

	commandBuffers := make([]engine.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		commandBuffers = append(commandBuffers, vkng.NewCommandBuffer(p.driver, buffer))
	}

	// A new swapchain gets a new clear color, so recreations are visible.
	color := clearColor(hrtime.Now().Seconds())

	for bufferIdx, buffer := range buffers {
		target := targets[bufferIdx]

		_, err = p.driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
		if err != nil {
			return commandBuffers, err
		}

		err = p.driver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
			core1_0.RenderPassBeginInfo{
				RenderPass:  target.RenderPass.(*vkng.RenderPass).Handle(),
				Framebuffer: target.Framebuffer.(*vkng.Framebuffer).Handle(),
				RenderArea: core1_0.Rect2D{
					Offset: core1_0.Offset2D{X: 0, Y: 0},
					Extent: core1_0.Extent2D{Width: target.Extent.Width, Height: target.Extent.Height},
				},
				ClearValues: []core1_0.ClearValue{
					core1_0.ClearValueFloat(color),
				},
			})
		if err != nil {
			return commandBuffers, err
		}

		if graphics, ok := p.current.Graphics.(*vkng.Pipeline); ok {
			p.driver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, graphics.Handle())
			p.driver.CmdDraw(buffer, 3, 1, 0, 0)
		}
		p.driver.CmdEndRenderPass(buffer)

		_, err = p.driver.EndCommandBuffer(buffer)
		if err != nil {
			return commandBuffers, err
		}
	}

	return commandBuffers, nil
}

// clearColor returns an opaque color whose hue turns once every six seconds.
func clearColor(seconds float64) mgl32.Vec4 {
	angle := float32(math.Mod(seconds, 6.0) / 6.0 * 2 * math.Pi)
	rotation := mgl32.HomogRotate3D(angle, mgl32.Vec3{1, 1, 1}.Normalize())
	rgb := rotation.Mul4x1(mgl32.Vec4{0.6, 0.2, 0.2, 1}).Vec3()

	return mgl32.Vec4{
		mgl32.Clamp(rgb.X(), 0, 1),
		mgl32.Clamp(rgb.Y(), 0, 1),
		mgl32.Clamp(rgb.Z(), 0, 1),
		1,
	}
}
