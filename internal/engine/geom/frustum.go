package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a plane in Hessian normal form: Normal·p + D = 0.
// Points with a positive signed distance are on the inner side.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// NewPlane builds a plane through point with the given normal.
func NewPlane(normal, point mgl32.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Vec4 packs the plane as (nx, ny, nz, d) for shader upload.
func (p Plane) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{p.Normal[0], p.Normal[1], p.Normal[2], p.D}
}

func planeFromVec4(v mgl32.Vec4) Plane {
	n := mgl32.Vec3{v[0], v[1], v[2]}
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// Frustum plane indices.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// Frustum holds the six inward-facing clip planes of a view-projection.
type Frustum [6]Plane

// FrustumFromMatrix extracts the clip planes from a view-projection matrix
// (Gribb/Hartmann, OpenGL clip space).
func FrustumFromMatrix(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)
	return Frustum{
		PlaneLeft:   planeFromVec4(r3.Add(r0)),
		PlaneRight:  planeFromVec4(r3.Sub(r0)),
		PlaneBottom: planeFromVec4(r3.Add(r1)),
		PlaneTop:    planeFromVec4(r3.Sub(r1)),
		PlaneNear:   planeFromVec4(r3.Add(r2)),
		PlaneFar:    planeFromVec4(r3.Sub(r2)),
	}
}

// IntersectsAABB reports whether any part of b lies inside the frustum.
// The test is conservative: boxes near frustum corners may pass.
func (f *Frustum) IntersectsAABB(b AABB) bool {
	for i := range f {
		pl := &f[i]
		// positive vertex: the corner furthest along the plane normal
		var p mgl32.Vec3
		for a := 0; a < 3; a++ {
			if pl.Normal[a] >= 0 {
				p[a] = b.Max[a]
			} else {
				p[a] = b.Min[a]
			}
		}
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p is inside all six planes.
func (f *Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for i := range f {
		if f[i].Distance(p) < 0 {
			return false
		}
	}
	return true
}

// Planes returns the planes packed for a uniform array upload.
func (f *Frustum) Planes() [6]mgl32.Vec4 {
	var out [6]mgl32.Vec4
	for i := range f {
		out[i] = f[i].Vec4()
	}
	return out
}

// FrustumCorners returns the eight world-space corners of the frustum
// described by the inverse view-projection.
func FrustumCorners(invViewProj mgl32.Mat4) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	i := 0
	for _, z := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, x := range []float32{-1, 1} {
				out[i] = mgl32.TransformCoordinate(mgl32.Vec3{x, y, z}, invViewProj)
				i++
			}
		}
	}
	return out
}
