package window

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkboot/gfx"
)

func TestNewHeadless(t *testing.T) {
	c := qt.New(t)
	win, err := New(Configuration{Backend: "Headless", Width: 800, Height: 600})
	c.Assert(err, qt.IsNil)
	c.Assert(win.RequiredInstanceExtensions(), qt.HasLen, 0)
	c.Assert(win.ProcAddr(), qt.IsNil)

	c.Assert(win.ShouldClose(), qt.IsFalse)
	win.PollEvents()
	c.Assert(win.ShouldClose(), qt.IsTrue)

	_, err = win.CreateSurface(nil)
	c.Assert(gfx.KindOf(err), qt.Equals, gfx.SurfaceCreation)
	win.Destroy()
}

func TestNewRejected(t *testing.T) {
	tests := []struct {
		name string
		cfg  Configuration
		err  string
	}{
		{
			name: "unknown backend",
			cfg:  Configuration{Backend: "wayland", Width: 800, Height: 600},
			err:  `.*unknown window backend "wayland"`,
		},
		{
			name: "zero width",
			cfg:  Configuration{Backend: HeadlessBackend, Height: 600},
			err:  `.*invalid window size 0x600`,
		},
		{
			name: "negative height",
			cfg:  Configuration{Backend: SDLBackend, Width: 800, Height: -1},
			err:  `.*invalid window size 800x-1`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := qt.New(t)
			win, err := New(test.cfg)
			c.Assert(win, qt.IsNil)
			c.Assert(err, qt.ErrorMatches, test.err)
			c.Assert(gfx.KindOf(err), qt.Equals, gfx.Initialization)
		})
	}
}
