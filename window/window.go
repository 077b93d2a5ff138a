// Package window provides the windowing collaborators the bootstrap
// presents through. Each backend owns its native library for the
// lifetime of the window.
package window

import (
	"strings"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/gfx"
)

// Supported backends.
const (
	SDLBackend      = "sdl"
	GLFWBackend     = "glfw"
	HeadlessBackend = "headless"
)

// Configuration describes the window to open.
type Configuration struct {
	Backend string
	Title   string
	Width   int
	Height  int
}

// New opens a window with the backend named in cfg.
func New(cfg Configuration) (gfx.Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, gfx.Errorf(gfx.Initialization, "window.New()", "invalid window size %dx%d", cfg.Width, cfg.Height)
	}

	switch strings.ToLower(cfg.Backend) {
	case SDLBackend, "":
		return NewSDL(cfg)
	case GLFWBackend:
		return NewGLFW(cfg)
	case HeadlessBackend:
		return &Headless{}, nil
	default:
		return nil, gfx.Errorf(gfx.Initialization, "window.New()", "unknown window backend %q", cfg.Backend)
	}
}

// Headless is a window that cannot present. It lets the runtime be
// queried without a display.
type Headless struct {
	polls int
}

var _ gfx.Window = (*Headless)(nil)

// RequiredInstanceExtensions implements interface
func (Headless) RequiredInstanceExtensions() []string {
	return nil
}

// CreateSurface implements interface
func (Headless) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	return vk.NullSurface, gfx.Errorf(gfx.SurfaceCreation, "window.CreateSurface()", "headless window has no surface")
}

// ProcAddr implements interface
func (Headless) ProcAddr() unsafe.Pointer {
	return nil
}

// ShouldClose implements interface
func (h *Headless) ShouldClose() bool {
	return h.polls > 0
}

// PollEvents implements interface
func (h *Headless) PollEvents() {
	h.polls++
}

// Destroy implements interface
func (Headless) Destroy() {}
