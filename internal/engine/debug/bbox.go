// Package debug provides debug visualization utilities for the cull and
// hit-test passes.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/hiz"
	"github.com/Faultbox/xrgl/internal/engine/scene"
)

// BoxEdgeVertices is the number of line vertices per box (12 edges x 2).
const BoxEdgeVertices = 24

// DefaultBoxPadding keeps the wireframe off the object surface.
const DefaultBoxPadding = 0.01

// BoxLines appends the 12 edges of b, grown by padding, as line-list
// positions.
func BoxLines(dst []float32, b geom.AABB, padding float32) []float32 {
	lo := b.Min.Sub(mgl32.Vec3{padding, padding, padding})
	hi := b.Max.Add(mgl32.Vec3{padding, padding, padding})
	x0, y0, z0 := lo[0], lo[1], lo[2]
	x1, y1, z1 := hi[0], hi[1], hi[2]
	return append(dst,
		// Bottom face
		x0, y0, z0, x1, y0, z0,
		x1, y0, z0, x1, y0, z1,
		x1, y0, z1, x0, y0, z1,
		x0, y0, z1, x0, y0, z0,
		// Top face
		x0, y1, z0, x1, y1, z0,
		x1, y1, z0, x1, y1, z1,
		x1, y1, z1, x0, y1, z1,
		x0, y1, z1, x0, y1, z0,
		// Verticals
		x0, y0, z0, x0, y1, z0,
		x1, y0, z0, x1, y1, z0,
		x1, y0, z1, x1, y1, z1,
		x0, y0, z1, x0, y1, z1,
	)
}

// BoundsGeometry builds a line-list geometry outlining every box. Empty
// boxes are left out.
func BoundsGeometry(boxes []geom.AABB, padding float32) *scene.Geometry {
	verts := make([]float32, 0, len(boxes)*BoxEdgeVertices*3)
	for _, b := range boxes {
		if b.IsEmpty() {
			continue
		}
		verts = BoxLines(verts, b, padding)
	}
	g := scene.NewGeometry(scene.VertexLayout{scene.Position}, verts, nil)
	g.Mode = gpu.Lines
	return g
}

// CulledBounds returns the world bounds of the objects the last depth cull
// rejected.
func CulledBounds(e *hiz.Engine) []geom.AABB {
	var out []geom.AABB
	for _, o := range e.Objects() {
		if o.Culled {
			out = append(out, geom.AABB{Min: o.Min, Max: o.Max})
		}
	}
	return out
}
