package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// CreateProgram compiles and links the stages present in src.
func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Handle, error) {
	var stages []uint32
	defer func() {
		for _, s := range stages {
			gl.DeleteShader(s)
		}
	}()

	add := func(source string, kind uint32, name string) error {
		s, err := compileShader(source, kind, name)
		if err != nil {
			return fmt.Errorf("%s: %w", src.Name, err)
		}
		stages = append(stages, s)
		return nil
	}

	if src.IsCompute() {
		if !d.caps.Compute {
			return 0, fmt.Errorf("%s: compute shaders not supported by %s", src.Name, d.caps.Version)
		}
		if err := add(src.Compute, gl.COMPUTE_SHADER, "compute"); err != nil {
			return 0, err
		}
	} else {
		if err := add(src.Vertex, gl.VERTEX_SHADER, "vertex"); err != nil {
			return 0, err
		}
		if err := add(src.Fragment, gl.FRAGMENT_SHADER, "fragment"); err != nil {
			return 0, err
		}
	}

	program := gl.CreateProgram()
	for _, s := range stages {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("%s: link: %s", src.Name, gl.GoStr(&log[0]))
	}

	return gpu.Handle(program), nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, gl.GoStr(&log[0]))
	}

	return shader, nil
}

func (d *Device) DeleteProgram(p gpu.Handle) {
	gl.DeleteProgram(uint32(p))
}

func (d *Device) UseProgram(p gpu.Handle) {
	gl.UseProgram(uint32(p))
}

// UniformLocation returns -1 when the uniform is missing or inactive.
func (d *Device) UniformLocation(p gpu.Handle, name string) int32 {
	return gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
}

func (d *Device) UniformBlockBinding(p gpu.Handle, block string, binding uint32) {
	idx := gl.GetUniformBlockIndex(uint32(p), gl.Str(block+"\x00"))
	if idx == gl.INVALID_INDEX {
		return
	}
	gl.UniformBlockBinding(uint32(p), idx, binding)
}

func (d *Device) StorageBlockBinding(p gpu.Handle, block string, binding uint32) {
	idx := gl.GetProgramResourceIndex(uint32(p), gl.SHADER_STORAGE_BLOCK, gl.Str(block+"\x00"))
	if idx == gl.INVALID_INDEX {
		return
	}
	gl.ShaderStorageBlockBinding(uint32(p), idx, binding)
}
