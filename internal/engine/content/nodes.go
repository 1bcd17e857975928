package content

import (
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// Draw is one object drawn with one material.
type Draw struct {
	Object   *scene.Object
	Material shading.Material
	Instance *program.Instance
	Vertex   *VertexContent

	// ID is the draw's position in traversal order, assigned on rebuild.
	ID int32

	// Hidden is set by Prepare: material disabled, object invisible or
	// outside the frustum.
	Hidden bool
	// Culled is set by the depth cull when the object is occluded.
	Culled bool
	// CullID indexes the cull object buffer, -1 when the draw has no entry.
	CullID int32
	// CullVersion changes whenever CullID moves.
	CullVersion uint64
	// Query is the occlusion query of the depth pass, 0 until first used.
	Query gpu.Handle
	// Occluded is the last available query result: no sample of the draw
	// passed the depth test. It lags the frame that issued the query.
	Occluded bool

	Distance float32
}

// Ready reports whether the draw should be issued: not hidden and not culled.
func (d *Draw) Ready() bool { return !d.Hidden && !d.Culled }

// VertexArray is the GPU copy of one geometry, shared by every group that
// draws it.
type VertexArray struct {
	Geometry *scene.Geometry
	Handle   gpu.Handle
	version  uint64
	refs     int
}

// VertexContent groups the draws of one material that share a geometry.
type VertexContent struct {
	Array      *VertexArray
	Components scene.VertexComponent
	Draws      []*Draw

	AvgDistance float32
	// Hidden is set when every draw of the group is hidden.
	Hidden bool
}

// Bind binds the group's vertex array.
func (v *VertexContent) Bind(sc *gpu.StateCache) {
	sc.BindVertexArray(v.Array.Handle)
}

// Issue draws the whole geometry with the bound program.
func (v *VertexContent) Issue(dev gpu.Device) {
	g := v.Array.Geometry
	dev.Draw(g.Mode, g.DrawCount(), g.Indexed())
}

// MaterialContent groups the draws of one material.
type MaterialContent struct {
	Material shading.Material
	Instance *program.Instance
	Vertices []*VertexContent
}

// ShaderContent groups the materials of one shader and owns its global
// state.
type ShaderContent struct {
	Shader    *shading.Shader
	Global    *program.Global
	Materials []*MaterialContent
}
