//go:generate glslangValidator -V -o assets/shaders/vert.spv assets/shaders/shader.vert
//go:generate glslangValidator -V -o assets/shaders/frag.spv assets/shaders/shader.frag

package main

import (
	"os"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/core"
	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
	"github.com/devblok/vkboot/loader"
	"github.com/devblok/vkboot/pipeline"
	"github.com/devblok/vkboot/window"
)

func init() {
	runtime.LockOSThread()
}

var configuration = core.Configuration{
	Time: core.TimeConfiguration{
		FramesPerSecond: 60,
	},
	Instance: device.InstanceConfiguration{
		ApplicationName:    "vkboot",
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		DebugMode:          false,
	},
	Renderer: core.RendererConfiguration{
		ScreenWidth:  800,
		ScreenHeight: 600,
		Shaders:      pipeline.DefaultShaders(),
		ClearColor:   mgl32.Vec4{0, 0, 0, 1},

		// Set to a kar archive made with cmd/kar to read the shaders
		// from it instead of the bundled assets.
		ShaderArchive: "",
	},
	Window: core.WindowConfiguration{
		Title:   "vkboot",
		Backend: window.SDLBackend,
	},
}

func newLoader() (gfx.ByteLoader, func(), error) {
	if configuration.Renderer.ShaderArchive == "" {
		return loader.NewBox(packr.NewBox("./assets")), func() {}, nil
	}

	ar, err := loader.OpenArchive(configuration.Renderer.ShaderArchive)
	if err != nil {
		return nil, nil, err
	}
	return ar, func() {
		if err := ar.Close(); err != nil {
			log.WithError(err).Warn("failed to close shader archive")
		}
	}, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if configuration.Instance.DebugMode {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(); err != nil {
		log.WithField("kind", gfx.KindOf(err)).Error(err)
		os.Exit(1)
	}
}

func run() error {
	win, err := window.New(window.Configuration{
		Backend: configuration.Window.Backend,
		Title:   configuration.Window.Title,
		Width:   int(configuration.Renderer.ScreenWidth),
		Height:  int(configuration.Renderer.ScreenHeight),
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	drv, err := driver.NewVulkan(win.ProcAddr())
	if err != nil {
		return gfx.E(gfx.Initialization, "driver.NewVulkan()", err)
	}

	byteLoader, closeLoader, err := newLoader()
	if err != nil {
		return err
	}
	defer closeLoader()

	builder := core.Builder{
		Driver: drv,
		Window: win,
		Loader: byteLoader,
		Config: configuration,
	}

	ctx, err := builder.Build()
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	time := core.NewTime(configuration.Time)
	defer time.Stop()

	for range time.FpsTicker().C {
		win.PollEvents()
		if win.ShouldClose() {
			log.Info("event loop exited")
			return nil
		}
		if err := ctx.DrawFrame(); err != nil {
			return err
		}
	}
	return nil
}
