// Package pipeline builds the render pass and the fixed-function graphics
// pipeline every recorded command buffer draws with.
package pipeline

import (
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// Pipeline owns the render pass, the pipeline layout and the graphics
// pipeline built against them.
type Pipeline struct {
	drv        driver.Driver
	device     vk.Device
	renderPass vk.RenderPass
	layout     vk.PipelineLayout
	pipeline   vk.Pipeline

	releases gfx.Stack
}

// New creates the render pass for format, loads both shaders through
// loader and bakes a pipeline with viewport and scissor fixed to extent.
// Shader modules only live until the pipeline is created, whether or not
// that succeeds. On failure nothing created here is left behind.
func New(drv driver.Driver, device vk.Device, loader gfx.ByteLoader, format vk.Format, extent vk.Extent2D, shaders Shaders) (*Pipeline, error) {
	renderPass, err := CreateRenderPass(drv, device, format)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		drv:        drv,
		device:     device,
		renderPass: renderPass,
	}
	p.releases.Push("render pass", func() {
		drv.DestroyRenderPass(device, renderPass)
	})

	if err := p.build(loader, extent, shaders); err != nil {
		p.Release()
		return nil, err
	}

	log.WithFields(log.Fields{
		"vertex":   shaders.Vertex,
		"fragment": shaders.Fragment,
	}).Info("graphics pipeline created")
	return p, nil
}

func (p *Pipeline) build(loader gfx.ByteLoader, extent vk.Extent2D, shaders Shaders) error {
	vertex, err := CreateShaderModule(p.drv, p.device, loader, shaders.Vertex, VertexShaderType)
	if err != nil {
		return err
	}
	defer vertex.Release()

	fragment, err := CreateShaderModule(p.drv, p.device, loader, shaders.Fragment, FragmentShaderType)
	if err != nil {
		return err
	}
	defer fragment.Release()

	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         0,
		PushConstantRangeCount: 0,
	}
	layout, err := p.drv.CreatePipelineLayout(p.device, &plci)
	if err != nil {
		return gfx.E(gfx.PipelineLayoutCreation, "vk.CreatePipelineLayout()", err)
	}
	p.layout = layout
	p.releases.Push("pipeline layout", func() {
		p.drv.DestroyPipelineLayout(p.device, layout)
	})

	stages := []vk.PipelineShaderStageCreateInfo{
		vertex.StageInfo(),
		fragment.StageInfo(),
	}

	gpci := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports: []vk.Viewport{{
				X:        0,
				Y:        0,
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0.0,
				MaxDepth: 1.0,
			}},
			ScissorCount: 1,
			PScissors: []vk.Rect2D{{
				Offset: vk.Offset2D{X: 0, Y: 0},
				Extent: extent,
			}},
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
					vk.ColorComponentBBit | vk.ColorComponentABit),
				BlendEnable: vk.False,
			}},
		},
		Layout:     p.layout,
		RenderPass: p.renderPass,
		Subpass:    0,
	}

	pipeline, err := p.drv.CreateGraphicsPipeline(p.device, gpci)
	if err != nil {
		return gfx.E(gfx.PipelineCreation, "vk.CreateGraphicsPipelines()", err)
	}
	p.pipeline = pipeline
	p.releases.Push("pipeline", func() {
		p.drv.DestroyPipeline(p.device, pipeline)
	})
	return nil
}

// RenderPass returns the render pass the pipeline was built for.
func (p *Pipeline) RenderPass() vk.RenderPass {
	return p.renderPass
}

// Layout returns the empty pipeline layout.
func (p *Pipeline) Layout() vk.PipelineLayout {
	return p.layout
}

// Handle returns the graphics pipeline.
func (p *Pipeline) Handle() vk.Pipeline {
	return p.pipeline
}

// Release destroys the pipeline, its layout and the render pass.
func (p *Pipeline) Release() {
	p.releases.Release()
}
