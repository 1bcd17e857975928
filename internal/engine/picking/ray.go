// Package picking casts rays against object bounds. It is the CPU fallback
// for selection when the hit-test pass is not built.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/scene"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// ScreenToRay converts window pixel coordinates (origin top-left) to a
// world-space ray from the near to the far plane.
func ScreenToRay(x, y float32, size camera.Size, invViewProj mgl32.Mat4) Ray {
	ndcX := 2*x/float32(size.Width) - 1
	ndcY := 1 - 2*y/float32(size.Height) // Flip Y

	near := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := invViewProj.Mul4x1(mgl32.Vec4{ndcX, ndcY, 1, 1})
	if near[3] != 0 {
		near = near.Mul(1 / near[3])
	}
	if far[3] != 0 {
		far = far.Mul(1 / far[3])
	}

	origin := near.Vec3()
	dir := far.Vec3().Sub(origin)
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return Ray{Origin: origin, Direction: dir}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box geom.AABB) (t float32, hit bool) {
	tmin := float32(-math.MaxFloat32)
	tmax := float32(math.MaxFloat32)

	for axis := range 3 {
		o, d := r.Origin[axis], r.Direction[axis]
		if d == 0 {
			if o < box.Min[axis] || o > box.Max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (box.Min[axis] - o) / d
		t2 := (box.Max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// Hit is the nearest object whose bounds a ray crosses.
type Hit struct {
	Object   *scene.Object
	Distance float32
	Position mgl32.Vec3
}

// Pick returns the nearest visible object of the main and reflection layers
// whose world bounds the ray crosses.
func Pick(s *scene.Scene, r Ray) (Hit, bool) {
	best := Hit{Distance: float32(math.MaxFloat32)}
	found := false
	for _, l := range s.Layers() {
		if l.Kind == scene.LayerOutline {
			continue
		}
		for _, o := range l.Objects() {
			if !o.Visible() {
				continue
			}
			if t, ok := r.IntersectAABB(o.WorldBounds()); ok && t < best.Distance {
				best = Hit{Object: o, Distance: t}
				found = true
			}
		}
	}
	if found {
		best.Position = r.At(best.Distance)
	}
	return best, found
}
