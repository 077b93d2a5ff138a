package pipeline

import (
	"path"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkboot/driver"
	"github.com/devblok/vkboot/gfx"
)

// EntryPoint is the function every shader stage starts at.
const EntryPoint = "main"

// Default shader binaries, relative to the loader root.
const (
	DefaultVertexShader   = "shaders/vert.spv"
	DefaultFragmentShader = "shaders/frag.spv"
)

// Shaders names the compiled shader binaries of the pipeline.
type Shaders struct {
	Vertex   string
	Fragment string
}

// DefaultShaders returns the fixed shader paths.
func DefaultShaders() Shaders {
	return Shaders{
		Vertex:   DefaultVertexShader,
		Fragment: DefaultFragmentShader,
	}
}

// ShaderType defines the type of shader
type ShaderType int

const (
	// VertexShaderType runs once per vertex
	VertexShaderType ShaderType = iota
	// FragmentShaderType runs once per fragment
	FragmentShaderType
)

func (t ShaderType) stage() vk.ShaderStageFlagBits {
	if t == FragmentShaderType {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

// ShaderModule is a compiled shader stage. It is only needed while the
// pipeline is built.
type ShaderModule struct {
	drv        driver.Driver
	device     vk.Device
	module     vk.ShaderModule
	shaderType ShaderType
	name       string
}

// CreateShaderModule loads the bytecode at p through loader and hands it
// to the driver. Loader errors are returned as they are; bytecode that is
// empty or not made of whole 32 bit words is refused before reaching the
// driver.
func CreateShaderModule(drv driver.Driver, device vk.Device, loader gfx.ByteLoader, p string, shaderType ShaderType) (*ShaderModule, error) {
	contents, err := loader.Load(p)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 || len(contents)%4 != 0 {
		return nil, gfx.Errorf(gfx.ShaderCompilation, "pipeline.CreateShaderModule()", "%s: bytecode of %d bytes is not word aligned", p, len(contents))
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(contents)),
		PCode:    gfx.SliceUint32(contents),
	}

	module, err := drv.CreateShaderModule(device, &smci)
	if err != nil {
		return nil, gfx.E(gfx.ShaderCompilation, "vk.CreateShaderModule()", errors.Wrap(err, p))
	}

	name := strings.TrimSuffix(path.Base(p), path.Ext(p))
	log.WithField("shader", name).Debug("shader module created")

	return &ShaderModule{
		drv:        drv,
		device:     device,
		module:     module,
		shaderType: shaderType,
		name:       name,
	}, nil
}

// Name returns the file name of the shader without extension.
func (s *ShaderModule) Name() string {
	return s.name
}

// Type returns the stage the shader was loaded for.
func (s *ShaderModule) Type() ShaderType {
	return s.shaderType
}

// StageInfo describes the module as a pipeline stage.
func (s *ShaderModule) StageInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.shaderType.stage(),
		Module: s.module,
		PName:  gfx.SafeString(EntryPoint),
	}
}

// Release destroys the shader module.
func (s *ShaderModule) Release() {
	s.drv.DestroyShaderModule(s.device, s.module)
}
