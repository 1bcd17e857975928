package hiz

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/geom"
)

// View is the camera data the cull tests against.
type View struct {
	ViewProj   mgl32.Mat4
	Frustum    geom.Frustum
	ScreenSize mgl32.Vec2
}

// Cull tests o against the pyramid the same way depth_cull.comp does and
// stores the result in o.
func Cull(p *Pyramid, v *View, o *Object) {
	box := geom.AABB{Min: o.Min, Max: o.Max}
	if !v.Frustum.IntersectsAABB(box) {
		o.Visible, o.Culled = false, true
		return
	}

	uvMin := mgl32.Vec2{1, 1}
	uvMax := mgl32.Vec2{0, 0}
	nearest := float32(1)
	for _, c := range box.Corners() {
		clip := v.ViewProj.Mul4x1(c.Vec4(1))
		if clip[3] <= 1e-5 {
			o.Visible, o.Culled = true, false
			o.Extent = v.ScreenSize
			return
		}
		ndc := clip.Vec3().Mul(1 / clip[3])
		u := clamp01(ndc[0]*0.5 + 0.5)
		w := clamp01(ndc[1]*0.5 + 0.5)
		uvMin = mgl32.Vec2{min(uvMin[0], u), min(uvMin[1], w)}
		uvMax = mgl32.Vec2{max(uvMax[0], u), max(uvMax[1], w)}
		nearest = min(nearest, ndc[2]*0.5+0.5)
	}

	ext := uvMax.Sub(uvMin)
	o.Extent = mgl32.Vec2{ext[0] * v.ScreenSize[0], ext[1] * v.ScreenSize[1]}
	level := int32(math.Ceil(math.Log2(float64(max(o.Extent[0], o.Extent[1], 1)))))
	level = min(max(level, 0), p.Count()-1)

	x0, y0 := texel(p, level, uvMin)
	x1, y1 := texel(p, level, uvMax)
	occluder := max(p.At(level, x0, y0), p.At(level, x1, y0), p.At(level, x0, y1), p.At(level, x1, y1))

	occluded := nearest > occluder
	o.Visible, o.Culled = !occluded, occluded
}

// texel returns the level texel covering uv. A level-l texel spans 2^l
// depth pixels, and the last one also spans the pixels left over by odd
// sizes, so the lookup goes through level-0 pixel coordinates.
func texel(p *Pyramid, level int32, uv mgl32.Vec2) (int32, int32) {
	w, h := p.Size(level)
	px := min(max(int32(uv[0]*float32(p.Width)), 0), p.Width-1)
	py := min(max(int32(uv[1]*float32(p.Height)), 0), p.Height-1)
	return min(px>>level, w-1), min(py>>level, h-1)
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
