package pass

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
)

// Outline draws a coloured border around the objects of the outline layers.
// The objects are first drawn flat white into a mask, then a full-screen
// pass colours the pixels near the mask edge in the active target.
type Outline struct {
	base
	opts OutlineOptions

	flat *override
	mask *target.Texture
}

func NewOutline(opts OutlineOptions) *Outline {
	if opts.Size <= 0 {
		opts.Size = 2
	}
	return &Outline{base: newBase("outline"), opts: opts}
}

func (p *Outline) Render(f *Frame) { run(f, p) }

// Mask returns the mask target, nil before the first render.
func (p *Outline) Mask() *target.Texture { return p.mask }

func (p *Outline) BeginRender(f *Frame) bool {
	if len(f.trees(content.Custom, scene.LayerOutline)) == 0 {
		return false
	}
	size := f.Target.Size()
	t, err := ensureTexture(f.Device, p.mask, target.Options{
		Width:       int32(size.Width),
		Height:      int32(size.Height),
		Color:       []gpu.TextureFormat{gpu.FormatRGBA8},
		Depth:       true,
		DepthFormat: gpu.FormatDepth24Stencil8,
		Filter:      gpu.FilterNearest,
	})
	if err != nil {
		p.log.Error("outline mask unavailable", zap.Error(err))
		return false
	}
	p.mask = t
	if p.flat == nil {
		m := shading.NewUnlitMaterial(mgl32.Vec4{1, 1, 1, 1})
		st := m.State()
		st.DepthTest = false
		st.DepthWrite = false
		st.CastShadows = false
		st.StencilWrite = true
		m.SetState(st)
		p.flat = newOverride(f, m)
	}

	f.Bind(p.mask)
	f.Clear(mgl32.Vec4{}, gpu.ClearColor|gpu.ClearDepth|gpu.ClearStencil)
	f.UseCamera(f.Camera, mgl32.Vec4{})
	return true
}

func (p *Outline) SelectLayers(f *Frame) []*content.Tree {
	return f.trees(content.Custom, scene.LayerOutline)
}

func (p *Outline) RenderLayer(f *Frame, t *content.Tree) {
	ctx := f.Context(p.name)
	st := p.flat.use(f, ctx)
	st.DoubleSided = true
	applyState(f.State, st, false)
	p.drawOverride(f, t, p.flat, ctx)
}

func (p *Outline) EndRender(f *Frame) {
	f.Bind(f.Target)
	prog := f.Cache.Get(shading.OutlineShader, nil, nil, p.name)
	f.State.UseProgram(prog.Handle)
	f.Device.SetUniformVec4(prog.MustUniform("uOutlineColor"), p.opts.Color)
	f.Device.SetUniformFloat(prog.MustUniform("uOutlineSize"), p.opts.Size)
	f.Device.BindTexture(gpu.TextureUnitOutline, p.mask.ColorTexture(0), false)

	f.State.SetDepthTest(false)
	f.State.SetDepthWrite(false)
	f.State.SetStencil(gpu.StencilOff, 0)
	f.State.SetCullFace(gpu.CullNone)
	f.State.SetBlend(true)
	// DrawFullscreen binds its own vertex array behind the cache.
	f.State.BindVertexArray(0)
	f.Device.DrawFullscreen()
	p.stats.Draws++

	f.State.SetBlend(false)
	f.State.SetCullFace(gpu.CullBack)
	f.State.SetDepthWrite(true)
	f.State.SetDepthTest(true)
}

func (p *Outline) ReleaseObject(o *scene.Object) { p.flat.release(o) }

func (p *Outline) Dispose() {
	p.flat.dispose()
	if p.mask != nil {
		p.mask.Dispose()
		p.mask = nil
	}
}
