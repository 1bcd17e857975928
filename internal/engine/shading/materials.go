package shading

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/lighting"
)

// Type tags of the built-in materials.
const (
	TypeColor   = "color"
	TypeDepth   = "depth"
	TypeHitTest = "hittest"
)

// ColorMaterial is a flat or lambert-lit colour.
type ColorMaterial struct {
	Base
	Color mgl32.Vec4
	// Unlit skips lighting and shadows.
	Unlit bool
	// Reflective samples the planar reflection of its host object.
	Reflective bool
	// Cutoff discards fragments below this alpha in AlphaMask mode.
	Cutoff float32
}

// NewColorMaterial returns an opaque lit material.
func NewColorMaterial(c mgl32.Vec4) *ColorMaterial {
	return &ColorMaterial{Base: NewBase(DefaultState()), Color: c, Cutoff: 0.5}
}

// NewUnlitMaterial returns an opaque material ignoring lights.
func NewUnlitMaterial(c mgl32.Vec4) *ColorMaterial {
	m := NewColorMaterial(c)
	m.Unlit = true
	return m
}

func (m *ColorMaterial) Shader() *Shader { return ColorShader }

func (m *ColorMaterial) TypeTag() string { return TypeColor }

func (m *ColorMaterial) UpdateShader(b Builder) {
	if !m.Unlit {
		b.AddFeature(FeatureLighting, "")
	}
	if m.Reflective {
		b.AddFeature(FeaturePlanarReflection, "")
		b.AddTexture("uReflection", gpu.TextureUnitReflection, ScopeGlobal, func(ctx *UpdateContext) gpu.Handle {
			return ctx.ReflectionTexture
		})
	}
	if m.State().Alpha == AlphaMask {
		b.AddFeature(FeatureAlphaCutoff, strconv.FormatFloat(float64(m.Cutoff), 'f', -1, 32))
	}
	b.AddBuffer("MaterialBlock", gpu.BindingMaterial, ScopeMaterial, 16, func(_ *UpdateContext, w *gpu.BlockWriter) {
		w.Vec4(m.Color)
	})
}

// ColorGlobals is the shader-global update of colour materials: lights and
// the shadow map published by the shadow pass.
func ColorGlobals(b Builder, ctx *UpdateContext) {
	b.AddBuffer("LightsBlock", gpu.BindingLights, ScopeGlobal, lighting.BlockSize, func(ctx *UpdateContext, w *gpu.BlockWriter) {
		lights := ctx.Lights
		if lights == nil {
			lights = lighting.NewSet()
		}
		lights.Pack(w)
	})
	if ctx.Shadow == nil || ctx.Shadow.Texture == 0 {
		return
	}
	b.AddFeature(FeatureShadowMap, "")
	if ctx.Shadow.Mode == ShadowVSM {
		b.AddFeature(FeatureShadowVSM, "")
	}
	b.AddBuffer("ShadowBlock", gpu.BindingShadow, ScopeGlobal, 80, func(ctx *UpdateContext, w *gpu.BlockWriter) {
		w.Mat4(ctx.Shadow.LightViewProj)
		w.Float(1 / float32(max(ctx.Shadow.Size, 1)))
	})
	b.AddTexture("uShadowMap", gpu.TextureUnitShadow, ScopeGlobal, func(ctx *UpdateContext) gpu.Handle {
		return ctx.Shadow.Texture
	})
}

// DepthMaterial writes depth only. In VSM mode it also writes depth moments.
type DepthMaterial struct {
	Base
	Moments bool
}

// NewDepthMaterial returns a depth-only material.
func NewDepthMaterial(moments bool) *DepthMaterial {
	st := DefaultState()
	st.ColorWrite = moments
	return &DepthMaterial{Base: NewBase(st), Moments: moments}
}

func (m *DepthMaterial) Shader() *Shader { return DepthShader }

func (m *DepthMaterial) TypeTag() string { return TypeDepth }

func (m *DepthMaterial) UpdateShader(b Builder) {
	if m.Moments {
		b.AddFeature(FeatureShadowVSM, "")
	}
}

// HitTestMaterial draws every object in a flat colour encoding its pick id.
type HitTestMaterial struct {
	Base
}

// NewHitTestMaterial returns the shared hit-test material.
func NewHitTestMaterial() *HitTestMaterial {
	return &HitTestMaterial{Base: NewBase(DefaultState())}
}

func (m *HitTestMaterial) Shader() *Shader { return HitTestShader }

func (m *HitTestMaterial) TypeTag() string { return TypeHitTest }

func (m *HitTestMaterial) UpdateShader(b Builder) {
	b.AddBuffer("MaterialBlock", gpu.BindingMaterial, ScopeModel, 16, func(ctx *UpdateContext, w *gpu.BlockWriter) {
		w.Vec4(EncodeID(ctx.PickID))
	})
}

// EncodeID packs a pick id into an RGBA8 colour. Id 0 means nothing.
func EncodeID(id uint32) mgl32.Vec4 {
	return mgl32.Vec4{
		float32(id&0xFF) / 255,
		float32((id>>8)&0xFF) / 255,
		float32((id>>16)&0xFF) / 255,
		1,
	}
}

// DecodeID is the inverse of EncodeID for a read-back pixel.
func DecodeID(px [4]byte) uint32 {
	return uint32(px[0]) | uint32(px[1])<<8 | uint32(px[2])<<16
}
