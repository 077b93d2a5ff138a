package core

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/pipeline"
)

// Configuration defines a global configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Instance device.InstanceConfiguration
	Renderer RendererConfiguration
	Window   WindowConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	Shaders    pipeline.Shaders
	ClearColor mgl32.Vec4

	// ShaderArchive, when set, names a kar archive the shaders
	// are read from instead of the bundled ones. It is only set
	// in the configuration literal of the application, there is
	// no flag for it.
	ShaderArchive string
}

// Extent returns the requested screen size.
func (r RendererConfiguration) Extent() vk.Extent2D {
	return vk.Extent2D{
		Width:  r.ScreenWidth,
		Height: r.ScreenHeight,
	}
}

// WindowConfiguration is used to configure the native window
type WindowConfiguration struct {
	Title string

	// Backend picks the window library, "sdl" or "glfw".
	Backend string
}

// DefaultConfiguration returns the configuration the application starts with.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
		},
		Instance: device.InstanceConfiguration{
			ApplicationName:    "vkboot",
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
		},
		Renderer: RendererConfiguration{
			ScreenWidth:  800,
			ScreenHeight: 600,
			Shaders:      pipeline.DefaultShaders(),
			ClearColor:   mgl32.Vec4{0, 0, 0, 1},
		},
		Window: WindowConfiguration{
			Title:   "vkboot",
			Backend: "sdl",
		},
	}
}
