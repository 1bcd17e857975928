package gpu

import "github.com/go-gl/mathgl/mgl32"

// StateCache filters redundant fixed-function state changes before they
// reach the device.
type StateCache struct {
	dev Device

	valid      bool
	depthTest  bool
	depthWrite bool
	depthFunc  DepthFunc
	colorWrite bool
	cull       CullMode
	blend      bool
	stencil    StencilMode
	stencilRef int32
	program    Handle
	vertexArr  Handle
	fb         Handle
	viewport   [4]int32
	clearColor mgl32.Vec4
}

// NewStateCache wraps dev. The cache starts invalid so the first call of
// every setter reaches the device.
func NewStateCache(dev Device) *StateCache {
	return &StateCache{dev: dev}
}

// Device returns the wrapped device.
func (s *StateCache) Device() Device { return s.dev }

// Reset forgets every cached value and applies the default state.
func (s *StateCache) Reset() {
	s.valid = false
	s.SetDepthTest(true)
	s.SetDepthFunc(DepthLess)
	s.SetDepthWrite(true)
	s.SetColorWrite(true)
	s.SetCullFace(CullBack)
	s.SetBlend(false)
	s.SetStencil(StencilOff, 0)
	s.BindFramebuffer(0)
	s.UseProgram(0)
	s.BindVertexArray(0)
	s.viewport = [4]int32{-1, -1, -1, -1}
	s.clearColor = mgl32.Vec4{-1, -1, -1, -1}
	s.valid = true
}

func (s *StateCache) SetDepthTest(v bool) {
	if s.valid && s.depthTest == v {
		return
	}
	s.depthTest = v
	s.dev.SetDepthTest(v)
}

func (s *StateCache) SetDepthFunc(fn DepthFunc) {
	if s.valid && s.depthFunc == fn {
		return
	}
	s.depthFunc = fn
	s.dev.SetDepthFunc(fn)
}

func (s *StateCache) SetDepthWrite(v bool) {
	if s.valid && s.depthWrite == v {
		return
	}
	s.depthWrite = v
	s.dev.SetDepthWrite(v)
}

func (s *StateCache) SetColorWrite(v bool) {
	if s.valid && s.colorWrite == v {
		return
	}
	s.colorWrite = v
	s.dev.SetColorWrite(v)
}

func (s *StateCache) SetCullFace(m CullMode) {
	if s.valid && s.cull == m {
		return
	}
	s.cull = m
	s.dev.SetCullFace(m)
}

func (s *StateCache) SetBlend(v bool) {
	if s.valid && s.blend == v {
		return
	}
	s.blend = v
	s.dev.SetBlend(v)
}

func (s *StateCache) SetStencil(m StencilMode, ref int32) {
	if s.valid && s.stencil == m && s.stencilRef == ref {
		return
	}
	s.stencil = m
	s.stencilRef = ref
	s.dev.SetStencil(m, ref)
}

// UseProgram binds p and reports whether the active program changed.
func (s *StateCache) UseProgram(p Handle) bool {
	if s.valid && s.program == p {
		return false
	}
	s.program = p
	s.dev.UseProgram(p)
	return true
}

// ActiveProgram returns the last program bound through the cache.
func (s *StateCache) ActiveProgram() Handle { return s.program }

func (s *StateCache) BindVertexArray(va Handle) {
	if s.valid && s.vertexArr == va {
		return
	}
	s.vertexArr = va
	s.dev.BindVertexArray(va)
}

func (s *StateCache) BindFramebuffer(fb Handle) {
	if s.valid && s.fb == fb {
		return
	}
	s.fb = fb
	s.dev.BindFramebuffer(fb)
}

// Framebuffer returns the bound framebuffer.
func (s *StateCache) Framebuffer() Handle { return s.fb }

func (s *StateCache) Viewport(x, y, w, h int32) {
	v := [4]int32{x, y, w, h}
	if s.valid && s.viewport == v {
		return
	}
	s.viewport = v
	s.dev.Viewport(x, y, w, h)
}

func (s *StateCache) SetClearColor(c mgl32.Vec4) {
	if s.valid && s.clearColor == c {
		return
	}
	s.clearColor = c
	s.dev.SetClearColor(c)
}
