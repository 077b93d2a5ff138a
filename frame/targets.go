// Package frame creates the framebuffers bound to the swapchain views and
// the command buffers pre-recorded to draw into them.
package frame

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// Targets owns one framebuffer per swapchain image view.
type Targets struct {
	drv          driver.Driver
	device       vk.Device
	extent       vk.Extent2D
	framebuffers []vk.Framebuffer
}

// NewTargets binds every view to renderPass as the single attachment of
// its own framebuffer. Framebuffers created before a failure are
// destroyed before the error is returned.
func NewTargets(drv driver.Driver, device vk.Device, renderPass vk.RenderPass, views []vk.ImageView, extent vk.Extent2D) (*Targets, error) {
	t := &Targets{
		drv:    drv,
		device: device,
		extent: extent,
	}

	for idx, view := range views {
		attachments := []vk.ImageView{view}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           extent.Width,
			Height:          extent.Height,
			Layers:          1,
		}

		framebuffer, err := drv.CreateFramebuffer(device, &fci)
		if err != nil {
			t.Release()
			return nil, gfx.E(gfx.FramebufferCreation, "vk.CreateFramebuffer()", errors.Wrapf(err, "view %d", idx))
		}
		t.framebuffers = append(t.framebuffers, framebuffer)
	}

	log.WithField("framebuffers", len(t.framebuffers)).Debug("framebuffers created")
	return t, nil
}

// Framebuffers returns the framebuffers in view order.
func (t *Targets) Framebuffers() []vk.Framebuffer {
	return t.framebuffers
}

// Extent returns the dimensions shared by every framebuffer.
func (t *Targets) Extent() vk.Extent2D {
	return t.extent
}

// Len returns the number of framebuffers.
func (t *Targets) Len() int {
	return len(t.framebuffers)
}

// Release destroys the framebuffers, last created first.
func (t *Targets) Release() {
	for idx := len(t.framebuffers) - 1; idx >= 0; idx-- {
		t.drv.DestroyFramebuffer(t.device, t.framebuffers[idx])
	}
	t.framebuffers = nil
}
