package swapchain

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/gfx"
)

// PreferredImageCount is the image count asked for when the surface allows it.
const PreferredImageCount = 3

// Spec is the negotiated swapchain description. It is computed once and
// not changed afterwards.
type Spec struct {
	Format       vk.Format
	ColorSpace   vk.ColorSpace
	Extent       vk.Extent2D
	ImageCount   uint32
	Transform    vk.SurfaceTransformFlagBits
	SharingMode  vk.SharingMode
	QueueIndices []uint32
}

// ClampExtent clamps requested componentwise into the surface's
// supported extent range.
func ClampExtent(requested vk.Extent2D, caps vk.SurfaceCapabilities) vk.Extent2D {
	return vk.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ImageCount returns max(PreferredImageCount, caps.MinImageCount), lowered
// to caps.MaxImageCount when the surface sets a limit.
func ImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := uint32(PreferredImageCount)
	if caps.MinImageCount > count {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount != 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// Sharing returns CONCURRENT sharing across both families when graphics
// and presentation use different families, EXCLUSIVE otherwise.
func Sharing(indices device.QueueFamilyIndices) (vk.SharingMode, []uint32) {
	if indices.Shared() {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, indices.Unique()
}

// Negotiate picks the swapchain parameters. The first listed format wins,
// there is no preference ranking and no fallback.
func Negotiate(caps vk.SurfaceCapabilities, formats []vk.SurfaceFormat, requested vk.Extent2D, indices device.QueueFamilyIndices) (Spec, error) {
	if len(formats) == 0 {
		return Spec{}, gfx.Errorf(gfx.SwapchainCreation, "swapchain.Negotiate()", "surface reports no formats")
	}

	mode, queueIndices := Sharing(indices)
	return Spec{
		Format:       formats[0].Format,
		ColorSpace:   formats[0].ColorSpace,
		Extent:       ClampExtent(requested, caps),
		ImageCount:   ImageCount(caps),
		Transform:    caps.CurrentTransform,
		SharingMode:  mode,
		QueueIndices: queueIndices,
	}, nil
}
