package window

import (
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/gfx"
)

// SDL is a window opened through SDL2 with Vulkan support.
type SDL struct {
	window      *sdl.Window
	shouldClose bool
}

var _ gfx.Window = (*SDL)(nil)

// NewSDL initialises SDL, loads its Vulkan library and opens the window.
func NewSDL(cfg Configuration) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, gfx.E(gfx.Initialization, "sdl.Init()", err)
	}

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, gfx.E(gfx.Initialization, "sdl.VulkanLoadLibrary()", err)
	}

	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, gfx.E(gfx.Initialization, "sdl.CreateWindow()", err)
	}

	log.WithFields(log.Fields{
		"backend": SDLBackend,
		"width":   cfg.Width,
		"height":  cfg.Height,
	}).Info("window opened")

	return &SDL{window: window}, nil
}

// RequiredInstanceExtensions implements interface
func (s *SDL) RequiredInstanceExtensions() []string {
	return s.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements interface
func (s *SDL) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := s.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return vk.SurfaceFromPointer(uintptr(surface)), nil
}

// ProcAddr implements interface
func (s *SDL) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// ShouldClose implements interface
func (s *SDL) ShouldClose() bool {
	return s.shouldClose
}

// PollEvents implements interface
func (s *SDL) PollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.KeyboardEvent:
			if et.Keysym.Sym == sdl.K_ESCAPE {
				s.shouldClose = true
			}
		case *sdl.QuitEvent:
			s.shouldClose = true
		}
	}
}

// Destroy implements interface
func (s *SDL) Destroy() {
	if err := s.window.Destroy(); err != nil {
		log.WithError(err).Warn("failed to destroy window")
	}
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
