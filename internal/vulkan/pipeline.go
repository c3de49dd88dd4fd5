package vulkan

import (
	"path/filepath"

	"github.com/ibd1279/vks"
	"github.com/pkg/errors"
)

// createRenderPass builds the single-subpass pass every framebuffer is
// bound to. It depends only on the image format, so it survives swapchain
// rebuilds.
func (c *Context) createRenderPass(format vks.Format) error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	attachments := vks.AttachmentDescriptionCSlice(arp,
		vks.AttachmentDescription{}.
			WithFormat(format).
			WithSamples(vks.VK_SAMPLE_COUNT_1_BIT).
			WithLoadOp(vks.VK_ATTACHMENT_LOAD_OP_CLEAR).
			WithStoreOp(vks.VK_ATTACHMENT_STORE_OP_STORE).
			WithStencilLoadOp(vks.VK_ATTACHMENT_LOAD_OP_DONT_CARE).
			WithStencilStoreOp(vks.VK_ATTACHMENT_STORE_OP_DONT_CARE).
			WithInitialLayout(vks.VK_IMAGE_LAYOUT_UNDEFINED).
			WithFinalLayout(vks.VK_IMAGE_LAYOUT_PRESENT_SRC_KHR),
	)
	colorAttachments := vks.AttachmentReferenceCSlice(arp,
		vks.AttachmentReference{}.
			WithAttachment(0).
			WithLayout(vks.VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL),
	)
	subpasses := vks.SubpassDescriptionCSlice(arp,
		vks.SubpassDescription{}.
			WithPipelineBindPoint(vks.VK_PIPELINE_BIND_POINT_GRAPHICS).
			WithPColorAttachments(colorAttachments),
	)
	// The image-acquired semaphore is waited on at color attachment
	// output, so the layout transition has to wait there too.
	dependencies := vks.SubpassDependencyCSlice(arp,
		vks.SubpassDependency{}.
			WithSrcSubpass(vks.VK_SUBPASS_EXTERNAL).
			WithSrcStageMask(vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT)).
			WithDstStageMask(vks.PipelineStageFlags(vks.VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT)).
			WithDstAccessMask(vks.AccessFlags(vks.VK_ACCESS_COLOR_ATTACHMENT_WRITE_BIT)),
	)

	renderPassCreateInfo := vks.CPtr(arp, &vks.RenderPassCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.RenderPassCreateInfo) {
			in.SetPAttachments(attachments)
			in.SetPSubpasses(subpasses)
			in.SetPDependencies(dependencies)
		},
	)

	var renderPass vks.RenderPass
	if result := c.device.CreateRenderPass(renderPassCreateInfo, nil, &renderPass); result.IsError() {
		return errors.Wrap(result.AsErr(), "vkCreateRenderPass")
	}
	c.renderPass = renderPass
	return nil
}

func (c *Context) createPipelineLayout() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	layoutInfo := vks.CPtr(arp, &vks.PipelineLayoutCreateInfo{},
		vks.SetDefaultSType,
	)
	var layout vks.PipelineLayout
	if result := c.device.CreatePipelineLayout(layoutInfo, nil, &layout); result.IsError() {
		return errors.Wrap(result.AsErr(), "vkCreatePipelineLayout")
	}
	c.pipelineLayout = layout
	return nil
}

func (c *Context) createShaderModule(name string) (vks.ShaderModule, error) {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	var module vks.ShaderModule
	words, err := LoadWords(filepath.Join(c.cfg.ShaderDir, name))
	if err != nil {
		return module, err
	}
	createInfo := vks.CPtr(arp, &vks.ShaderModuleCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.ShaderModuleCreateInfo) {
			in.SetCodeSize(words.Sizeof())
			in.SetPCode(words)
		},
	)
	if result := c.device.CreateShaderModule(createInfo, nil, &module); result.IsError() {
		return module, errors.Wrapf(result.AsErr(), "vkCreateShaderModule %s", name)
	}
	return module, nil
}

// createPipeline builds the triangle pipeline. Viewport and scissor are
// dynamic, so the pipeline does not depend on the swapchain extent.
func (c *Context) createPipeline() error {
	arp := vks.NewAutoReleaser()
	defer arp.Release()

	vertModule, err := c.createShaderModule("vert.spv")
	if err != nil {
		return err
	}
	defer c.device.DestroyShaderModule(vertModule, nil)

	fragModule, err := c.createShaderModule("frag.spv")
	if err != nil {
		return err
	}
	defer c.device.DestroyShaderModule(fragModule, nil)

	name := vks.NewCStr(arp, "main")
	stages := vks.PipelineShaderStageCreateInfoCSlice(arp,
		vks.PipelineShaderStageCreateInfo{}.
			WithDefaultSType().
			WithStage(vks.VK_SHADER_STAGE_VERTEX_BIT).
			WithModule(vertModule).
			WithPName(name),
		vks.PipelineShaderStageCreateInfo{}.
			WithDefaultSType().
			WithStage(vks.VK_SHADER_STAGE_FRAGMENT_BIT).
			WithModule(fragModule).
			WithPName(name),
	)

	// The vertices are generated in the vertex shader.
	vertexInputState := vks.CPtr(arp, &vks.PipelineVertexInputStateCreateInfo{},
		vks.SetDefaultSType,
	)

	inputAssemblyState := vks.CPtr(arp, &vks.PipelineInputAssemblyStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineInputAssemblyStateCreateInfo) {
			in.SetTopology(vks.VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST)
			in.SetPrimitiveRestartEnable(vks.VK_FALSE)
		},
	)

	viewportState := vks.CPtr(arp, &vks.PipelineViewportStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineViewportStateCreateInfo) {
			in.SetViewportCount(1)
			in.SetScissorCount(1)
		},
	)

	dynamicState := vks.CPtr(arp, &vks.PipelineDynamicStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineDynamicStateCreateInfo) {
			in.SetPDynamicStates([]vks.DynamicState{
				vks.VK_DYNAMIC_STATE_VIEWPORT,
				vks.VK_DYNAMIC_STATE_SCISSOR,
			})
		},
	)

	rasterizationState := vks.CPtr(arp, &vks.PipelineRasterizationStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineRasterizationStateCreateInfo) {
			in.SetDepthClampEnable(vks.VK_FALSE)
			in.SetRasterizerDiscardEnable(vks.VK_FALSE)
			in.SetPolygonMode(vks.VK_POLYGON_MODE_FILL)
			in.SetLineWidth(1.0)
			in.SetCullMode(vks.CullModeFlags(vks.VK_CULL_MODE_BACK_BIT))
			in.SetFrontFace(vks.VK_FRONT_FACE_CLOCKWISE)
			in.SetDepthBiasEnable(vks.VK_FALSE)
		},
	)

	multisampleState := vks.CPtr(arp, &vks.PipelineMultisampleStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineMultisampleStateCreateInfo) {
			in.SetSampleShadingEnable(vks.VK_FALSE)
			in.SetRasterizationSamples(vks.VK_SAMPLE_COUNT_1_BIT)
		},
	)

	colorBlendAttachmentState := vks.PipelineColorBlendAttachmentStateCSlice(arp,
		vks.PipelineColorBlendAttachmentState{}.
			WithColorWriteMask(vks.ColorComponentFlags(vks.VK_COLOR_COMPONENT_R_BIT|vks.VK_COLOR_COMPONENT_G_BIT|vks.VK_COLOR_COMPONENT_B_BIT|vks.VK_COLOR_COMPONENT_A_BIT)).
			WithBlendEnable(vks.VK_FALSE),
	)

	colorBlendState := vks.CPtr(arp, &vks.PipelineColorBlendStateCreateInfo{},
		vks.SetDefaultSType,
		func(in *vks.PipelineColorBlendStateCreateInfo) {
			in.SetLogicOpEnable(vks.VK_FALSE)
			in.SetLogicOp(vks.VK_LOGIC_OP_COPY)
			in.SetPAttachments(colorBlendAttachmentState)
		},
	)

	pipelineCreateInfos := vks.GraphicsPipelineCreateInfoCSlice(arp,
		vks.GraphicsPipelineCreateInfo{}.
			WithDefaultSType().
			WithPStages(stages).
			WithPVertexInputState(vertexInputState).
			WithPInputAssemblyState(inputAssemblyState).
			WithPViewportState(viewportState).
			WithPRasterizationState(rasterizationState).
			WithPMultisampleState(multisampleState).
			WithPColorBlendState(colorBlendState).
			WithPDynamicState(dynamicState).
			WithLayout(c.pipelineLayout).
			WithRenderPass(c.renderPass),
	)

	pipelines := make([]vks.Pipeline, len(pipelineCreateInfos))
	result := c.device.CreateGraphicsPipelines(
		vks.NullPipelineCache,
		uint32(len(pipelineCreateInfos)),
		pipelineCreateInfos,
		nil,
		pipelines)
	if result.IsError() {
		return errors.Wrap(result.AsErr(), "vkCreateGraphicsPipelines")
	}
	c.pipelines = pipelines
	return nil
}
