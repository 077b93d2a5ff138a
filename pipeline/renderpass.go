package pipeline

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// CreateRenderPass declares a single colour attachment in format, cleared
// on load and handed over for presentation, used by one graphics subpass.
func CreateRenderPass(drv driver.Driver, device vk.Device, format vk.Format) (vk.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	renderPass, err := drv.CreateRenderPass(device, &rpci)
	if err != nil {
		return vk.NullRenderPass, gfx.E(gfx.RenderPassCreation, "vk.CreateRenderPass()", err)
	}
	return renderPass, nil
}
