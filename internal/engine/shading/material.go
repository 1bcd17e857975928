package shading

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/lighting"
)

// Scope decides who owns a uniform buffer and how often it is refreshed.
type Scope int

const (
	// ScopeMaterial buffers are shared by every object using the material and
	// refreshed when the material version changes.
	ScopeMaterial Scope = iota
	// ScopeModel buffers belong to one object and are refreshed per draw.
	ScopeModel
	// ScopeGlobal buffers belong to the shader and are refreshed once per
	// frame.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeModel:
		return "model"
	case ScopeGlobal:
		return "global"
	default:
		return "material"
	}
}

// AlphaMode controls how a material treats transparency.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// State is the fixed-function state a material asks for.
type State struct {
	Enabled      bool
	DepthTest    bool
	DepthWrite   bool
	ColorWrite   bool
	DoubleSided  bool
	Alpha        AlphaMode
	StencilWrite bool
	CastShadows  bool
}

// DefaultState is an enabled, opaque, shadow casting material.
func DefaultState() State {
	return State{
		Enabled:     true,
		DepthTest:   true,
		DepthWrite:  true,
		ColorWrite:  true,
		CastShadows: true,
	}
}

// Material is anything that can be drawn with a shader.
type Material interface {
	Shader() *Shader
	// Version increases whenever anything UpdateShader reports changes.
	Version() uint64
	// TypeTag identifies the material kind; it selects the shader-global
	// update registered for it.
	TypeTag() string
	State() State
	// UpdateShader describes the features and uniform data the material
	// needs into b.
	UpdateShader(b Builder)
}

// Builder collects a material's requirements.
type Builder interface {
	// AddFeature enables a feature toggle; value is empty for flags.
	AddFeature(name, value string)
	AddExtension(name string)
	// AddBuffer declares a uniform block filled by fill at the frequency of
	// scope.
	AddBuffer(block string, binding uint32, scope Scope, size int, fill func(ctx *UpdateContext, w *gpu.BlockWriter))
	// AddTexture binds the texture returned by fn to unit.
	AddTexture(name string, unit uint32, scope Scope, fn func(ctx *UpdateContext) gpu.Handle)
}

// ShadowMode selects the shadow map technique.
type ShadowMode int

const (
	ShadowHard ShadowMode = iota
	ShadowVSM
)

func (m ShadowMode) String() string {
	if m == ShadowVSM {
		return "vsm"
	}
	return "hard"
}

// ShadowInfo is published by the shadow pass for the passes after it.
type ShadowInfo struct {
	Mode          ShadowMode
	LightViewProj mgl32.Mat4
	// Texture is the depth map, or the moments map in VSM mode.
	Texture gpu.Handle
	Size    int32
}

// UpdateContext carries what fill callbacks may read.
type UpdateContext struct {
	Pass  string
	Frame uint64

	// Variant lists features the current pass adds to every program.
	Variant []string

	Camera *camera.Camera
	Lights *lighting.Set
	Shadow *ShadowInfo

	ReflectionTexture gpu.Handle
	ClipPlane         mgl32.Vec4

	// Per draw.
	Model  mgl32.Mat4
	DrawID int32
	PickID uint32
}

// Base implements the bookkeeping part of Material.
type Base struct {
	state   State
	version uint64
}

// NewBase returns a Base with the given state.
func NewBase(st State) Base {
	return Base{state: st, version: 1}
}

func (b *Base) State() State { return b.state }

func (b *Base) Version() uint64 { return b.version }

// SetState replaces the state and bumps the version.
func (b *Base) SetState(st State) {
	b.state = st
	b.version++
}

// Touch bumps the version after a parameter change.
func (b *Base) Touch() { b.version++ }
