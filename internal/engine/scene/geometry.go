package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// VertexComponent is one attribute of an interleaved vertex.
type VertexComponent uint32

const (
	Position VertexComponent = 1 << iota
	Normal
	UV
	Color
)

// Size returns the number of floats the component occupies.
func (c VertexComponent) Size() int32 {
	switch c {
	case UV:
		return 2
	case Color:
		return 4
	default:
		return 3
	}
}

// Location returns the shader attribute location of the component.
func (c VertexComponent) Location() uint32 {
	switch c {
	case Normal:
		return 1
	case UV:
		return 2
	case Color:
		return 3
	default:
		return 0
	}
}

// VertexLayout is the ordered list of components of an interleaved vertex.
type VertexLayout []VertexComponent

// Components returns the components as a bit set.
func (l VertexLayout) Components() VertexComponent {
	var m VertexComponent
	for _, c := range l {
		m |= c
	}
	return m
}

// Stride returns the vertex size in bytes.
func (l VertexLayout) Stride() int32 {
	var n int32
	for _, c := range l {
		n += c.Size()
	}
	return n * 4
}

// Attributes returns the attribute pointers for the layout.
func (l VertexLayout) Attributes() []gpu.VertexAttrib {
	attrs := make([]gpu.VertexAttrib, 0, len(l))
	var offset int32
	for _, c := range l {
		attrs = append(attrs, gpu.VertexAttrib{Location: c.Location(), Components: c.Size(), Offset: offset})
		offset += c.Size() * 4
	}
	return attrs
}

// Geometry is a mesh's vertex data.
type Geometry struct {
	Layout VertexLayout
	Mode   gpu.Primitive

	vertices []float32
	indices  []uint32
	bounds   geom.AABB
	version  uint64
}

// NewGeometry creates geometry from interleaved vertices. indices may be nil.
func NewGeometry(layout VertexLayout, vertices []float32, indices []uint32) *Geometry {
	g := &Geometry{Layout: layout, Mode: gpu.Triangles}
	g.Set(vertices, indices)
	return g
}

// Set replaces the vertex data.
func (g *Geometry) Set(vertices []float32, indices []uint32) {
	g.vertices = vertices
	g.indices = indices
	g.version++

	g.bounds = geom.EmptyAABB()
	stride := int(g.Layout.Stride() / 4)
	if stride == 0 {
		return
	}
	for i := 0; i+2 < len(vertices); i += stride {
		g.bounds = g.bounds.Extend(mgl32.Vec3{vertices[i], vertices[i+1], vertices[i+2]})
	}
}

func (g *Geometry) Vertices() []float32 { return g.vertices }

func (g *Geometry) Indices() []uint32 { return g.indices }

// Version increases on every Set.
func (g *Geometry) Version() uint64 { return g.version }

// Bounds returns the local-space bounds. Position must be the first
// component.
func (g *Geometry) Bounds() geom.AABB { return g.bounds }

// Indexed reports whether the geometry draws with an index buffer.
func (g *Geometry) Indexed() bool { return len(g.indices) > 0 }

// DrawCount returns the number of indices, or vertices when not indexed.
func (g *Geometry) DrawCount() int32 {
	if g.Indexed() {
		return int32(len(g.indices))
	}
	stride := g.Layout.Stride() / 4
	if stride == 0 {
		return 0
	}
	return int32(len(g.vertices)) / stride
}

// Desc returns the description used to create the vertex array.
func (g *Geometry) Desc() gpu.VertexArrayDesc {
	return gpu.VertexArrayDesc{
		Stride:     g.Layout.Stride(),
		Attributes: g.Layout.Attributes(),
		Vertices:   g.vertices,
		Indices:    g.indices,
	}
}

// Box returns an axis-aligned box centred on the origin with normals.
func Box(size mgl32.Vec3) *Geometry {
	h := size.Mul(0.5)
	type face struct {
		n      mgl32.Vec3
		corner [4]mgl32.Vec3
	}
	faces := []face{
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{-h[0], -h[1], h[2]}, {h[0], -h[1], h[2]}, {h[0], h[1], h[2]}, {-h[0], h[1], h[2]}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{h[0], -h[1], -h[2]}, {-h[0], -h[1], -h[2]}, {-h[0], h[1], -h[2]}, {h[0], h[1], -h[2]}}},
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{h[0], -h[1], h[2]}, {h[0], -h[1], -h[2]}, {h[0], h[1], -h[2]}, {h[0], h[1], h[2]}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-h[0], -h[1], -h[2]}, {-h[0], -h[1], h[2]}, {-h[0], h[1], h[2]}, {-h[0], h[1], -h[2]}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-h[0], h[1], h[2]}, {h[0], h[1], h[2]}, {h[0], h[1], -h[2]}, {-h[0], h[1], -h[2]}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-h[0], -h[1], -h[2]}, {h[0], -h[1], -h[2]}, {h[0], -h[1], h[2]}, {-h[0], -h[1], h[2]}}},
	}

	vertices := make([]float32, 0, 6*4*6)
	indices := make([]uint32, 0, 36)
	for i, f := range faces {
		for _, c := range f.corner {
			vertices = append(vertices, c[0], c[1], c[2], f.n[0], f.n[1], f.n[2])
		}
		base := uint32(i * 4)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewGeometry(VertexLayout{Position, Normal}, vertices, indices)
}

// Quad returns a w x h rectangle in the XY plane facing +Z.
func Quad(w, h float32) *Geometry {
	x, y := w/2, h/2
	vertices := []float32{
		-x, -y, 0, 0, 0, 1, 0, 0,
		x, -y, 0, 0, 0, 1, 1, 0,
		x, y, 0, 0, 0, 1, 1, 1,
		-x, y, 0, 0, 0, 1, 0, 1,
	}
	return NewGeometry(VertexLayout{Position, Normal, UV}, vertices, []uint32{0, 1, 2, 0, 2, 3})
}
