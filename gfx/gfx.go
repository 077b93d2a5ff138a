// Package gfx defines the contracts shared by the bootstrap components:
// the failure taxonomy, releasable resources and the collaborators that
// live outside of the driver (windowing and byte loading).
package gfx

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Releasable defines anything holding driver-owned handles that must be freed.
type Releasable interface {

	// Release frees the handles owned by the implementing structure.
	// Dependent resources must have been released beforehand.
	Release()
}

// ByteLoader loads a binary file fully into memory.
type ByteLoader interface {

	// Load returns the full contents found under path. Failure to
	// open path is reported with the FileNotFound kind.
	Load(path string) ([]byte, error)
}

// Window is the windowing collaborator. It owns the native window
// and knows how to bind a drawable surface to it.
type Window interface {

	// RequiredInstanceExtensions returns the platform surface
	// extensions an instance must enable to present to this window.
	RequiredInstanceExtensions() []string

	// CreateSurface binds a surface to the native window under instance.
	CreateSurface(instance vk.Instance) (vk.Surface, error)

	// ProcAddr returns the vkGetInstanceProcAddr the window library
	// loaded, nil if the default loader should be used.
	ProcAddr() unsafe.Pointer

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// PollEvents drains pending window and input events without blocking.
	PollEvents()

	// Destroy closes the window and shuts the window library down.
	Destroy()
}
