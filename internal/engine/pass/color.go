package pass

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/scene"
)

// Color is the main shaded pass over the opaque, then the blended content of
// the main and reflection layers.
type Color struct {
	base
	queries bool
}

func NewColor(opts *Options) *Color {
	return &Color{base: newBase("color"), queries: opts.UseOcclusionQuery}
}

func (p *Color) Render(f *Frame) { run(f, p) }

func (p *Color) BeginRender(f *Frame) bool {
	f.Bind(f.Target)
	f.UseCamera(f.Camera, mgl32.Vec4{})
	return true
}

func (p *Color) SelectLayers(f *Frame) []*content.Tree {
	trees := f.trees(content.Opaque, scene.LayerMain, scene.LayerReflection)
	return append(trees, f.trees(content.Blend, scene.LayerMain, scene.LayerReflection)...)
}

func (p *Color) RenderLayer(f *Frame, t *content.Tree) {
	depthFunc := gpu.DepthLess
	if f.DepthPrepass {
		depthFunc = gpu.DepthLequal
	}
	p.drawTree(f, t, drawOptions{
		ctx:          f.Context(p.name),
		depthFunc:    depthFunc,
		noDepthWrite: t.Kind == content.Blend,
		queries:      p.queries,
	})
}

func (p *Color) EndRender(f *Frame) {
	f.State.SetBlend(false)
	f.State.SetDepthWrite(true)
	f.State.SetDepthFunc(gpu.DepthLess)
}

func (p *Color) ReleaseObject(*scene.Object) {}

func (p *Color) Dispose() {}
