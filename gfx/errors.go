package gfx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure of the initialisation sequence.
type Kind int

// Failure kinds, one per stage that can be rejected.
const (
	Other Kind = iota
	FileNotFound
	Initialization
	NoDevice
	UnsupportedDevice
	SurfaceCreation
	SwapchainCreation
	ImageViewCreation
	RenderPassCreation
	ShaderCompilation
	PipelineLayoutCreation
	PipelineCreation
	FramebufferCreation
	CommandPoolCreation
	CommandBufferRecording
)

var kindNames = [...]string{
	Other:                  "other error",
	FileNotFound:           "file not found",
	Initialization:         "initialization failed",
	NoDevice:               "no physical device",
	UnsupportedDevice:      "unsupported device",
	SurfaceCreation:        "surface creation failed",
	SwapchainCreation:      "swapchain creation failed",
	ImageViewCreation:      "image view creation failed",
	RenderPassCreation:     "render pass creation failed",
	ShaderCompilation:      "shader compilation failed",
	PipelineLayoutCreation: "pipeline layout creation failed",
	PipelineCreation:       "pipeline creation failed",
	FramebufferCreation:    "framebuffer creation failed",
	CommandPoolCreation:    "command pool creation failed",
	CommandBufferRecording: "command buffer recording failed",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error is a classified failure. Op names the operation that failed,
// usually the driver entry point, e.g. "vk.CreateSwapchain()".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err.Error())
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *Error) Cause() error { return e.Err }

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error { return e.Err }

// E classifies err as kind. A nil err still yields an error, since
// some driver queries report failure without a result code.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf classifies a newly formatted error as kind.
func Errorf(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the
// chain of err, or Other when err carries no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
