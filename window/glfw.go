package window

import (
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vulkan-go/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/gfx"
)

// GLFW is a window opened through GLFW without a client API.
type GLFW struct {
	window *glfw.Window
}

var _ gfx.Window = (*GLFW)(nil)

// NewGLFW initialises GLFW and opens the window. Escape closes it.
func NewGLFW(cfg Configuration) (*GLFW, error) {
	if err := glfw.Init(); err != nil {
		return nil, gfx.E(gfx.Initialization, "glfw.Init()", err)
	}

	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, gfx.Errorf(gfx.Initialization, "glfw.VulkanSupported()", "vulkan loader not found")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, gfx.E(gfx.Initialization, "glfw.CreateWindow()", err)
	}

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	log.WithFields(log.Fields{
		"backend": GLFWBackend,
		"width":   cfg.Width,
		"height":  cfg.Height,
	}).Info("window opened")

	return &GLFW{window: window}, nil
}

// RequiredInstanceExtensions implements interface
func (g *GLFW) RequiredInstanceExtensions() []string {
	return g.window.GetRequiredInstanceExtensions()
}

// CreateSurface implements interface
func (g *GLFW) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := g.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "glfw.CreateWindowSurface()")
	}
	return vk.SurfaceFromPointer(surface), nil
}

// ProcAddr implements interface
func (g *GLFW) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// ShouldClose implements interface
func (g *GLFW) ShouldClose() bool {
	return g.window.ShouldClose()
}

// PollEvents implements interface
func (g *GLFW) PollEvents() {
	glfw.PollEvents()
}

// Destroy implements interface
func (g *GLFW) Destroy() {
	g.window.Destroy()
	glfw.Terminate()
}
