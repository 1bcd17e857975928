package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// nearW is the smallest clip-space w treated as in front of the eye.
const nearW = 1e-5

// ScreenBounds is the projection of a box into normalized window space:
// UV in [0,1] with origin bottom-left, depth in [0,1] with 0 at the near plane.
type ScreenBounds struct {
	MinUV    mgl32.Vec2
	MaxUV    mgl32.Vec2
	MinDepth float32
	MaxDepth float32
	// CrossesNear is set when a corner lies behind the eye; the UV and depth
	// values are then meaningless and the box must be treated as visible.
	CrossesNear bool
}

// Extent returns the projected size in UV units.
func (s ScreenBounds) Extent() mgl32.Vec2 {
	return s.MaxUV.Sub(s.MinUV)
}

// Area returns the projected UV area, clamped to the viewport.
func (s ScreenBounds) Area() float32 {
	minU, minV := clamp01(s.MinUV[0]), clamp01(s.MinUV[1])
	maxU, maxV := clamp01(s.MaxUV[0]), clamp01(s.MaxUV[1])
	return (maxU - minU) * (maxV - minV)
}

// ProjectAABB projects the eight corners of b through viewProj.
func ProjectAABB(b AABB, viewProj mgl32.Mat4) ScreenBounds {
	s := ScreenBounds{
		MinUV:    mgl32.Vec2{1e30, 1e30},
		MaxUV:    mgl32.Vec2{-1e30, -1e30},
		MinDepth: 1e30,
		MaxDepth: -1e30,
	}
	for _, c := range b.Corners() {
		clip := viewProj.Mul4x1(c.Vec4(1))
		if clip[3] <= nearW {
			s.CrossesNear = true
			continue
		}
		inv := 1 / clip[3]
		u := clip[0]*inv*0.5 + 0.5
		v := clip[1]*inv*0.5 + 0.5
		d := clip[2]*inv*0.5 + 0.5
		s.MinUV[0] = min(s.MinUV[0], u)
		s.MinUV[1] = min(s.MinUV[1], v)
		s.MaxUV[0] = max(s.MaxUV[0], u)
		s.MaxUV[1] = max(s.MaxUV[1], v)
		s.MinDepth = min(s.MinDepth, d)
		s.MaxDepth = max(s.MaxDepth, d)
	}
	return s
}

// WindowToWorld reconstructs a world position from a window-space pixel and
// depth value using the inverse view-projection.
func WindowToWorld(x, y, depth float32, width, height int, invViewProj mgl32.Mat4) mgl32.Vec3 {
	ndc := mgl32.Vec3{
		2*x/float32(width) - 1,
		1 - 2*y/float32(height),
		2*depth - 1,
	}
	return mgl32.TransformCoordinate(ndc, invViewProj)
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}
