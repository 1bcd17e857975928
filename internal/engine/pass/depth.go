package pass

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/hiz"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// Depth is the depth pre-pass. It draws the large occluders of the opaque
// trees, optionally wraps every opaque draw in an occlusion query and runs
// the depth cull on the result.
type Depth struct {
	base
	queries bool
	cull    bool

	occluders *override
	probes    *override
	trees     []*content.Tree
	cullStats hiz.Stats
}

func NewDepth(opts *Options) *Depth {
	return &Depth{
		base:    newBase("depth"),
		queries: opts.UseOcclusionQuery,
		cull:    opts.UseDepthCull,
	}
}

func (p *Depth) Render(f *Frame) { run(f, p) }

// CullStats returns the result of the last depth cull.
func (p *Depth) CullStats() hiz.Stats { return p.cullStats }

func (p *Depth) BeginRender(f *Frame) bool {
	if p.occluders == nil {
		p.occluders = newOverride(f, shading.NewDepthMaterial(false))
		p.occluders.keep = func(d *content.Draw) bool { return d.Object.LargeOccluder() }
	}
	if p.queries && p.probes == nil {
		p.probes = newOverride(f, shading.NewDepthMaterial(false))
		p.probes.wrap = func(d *content.Draw, issue func()) {
			if d.Query == 0 {
				d.Query = f.Device.CreateQuery()
			} else {
				samples, ready := f.Device.QueryResult(d.Query)
				if !ready {
					// still in flight, keep the older result
					issue()
					return
				}
				d.Occluded = samples == 0
			}
			f.Device.BeginQuery(d.Query)
			issue()
			f.Device.EndQuery()
		}
	}
	p.trees = p.trees[:0]
	f.Bind(f.Target)
	f.UseCamera(f.Camera, mgl32.Vec4{})
	return true
}

func (p *Depth) SelectLayers(f *Frame) []*content.Tree {
	return f.trees(content.Opaque, scene.LayerMain)
}

func (p *Depth) RenderLayer(f *Frame, t *content.Tree) {
	p.trees = append(p.trees, t)
	ctx := f.Context(p.name)

	st := p.occluders.use(f, ctx)
	applyState(f.State, st, false)
	f.State.SetDepthFunc(gpu.DepthLess)
	p.drawOverride(f, t, p.occluders, ctx)

	if p.probes == nil {
		return
	}
	st = p.probes.use(f, ctx)
	st.DepthWrite = false
	applyState(f.State, st, false)
	f.State.SetDepthFunc(gpu.DepthLequal)
	p.drawOverride(f, t, p.probes, ctx)
}

func (p *Depth) EndRender(f *Frame) {
	f.State.SetColorWrite(true)
	f.State.SetDepthWrite(true)
	f.DepthPrepass = true
	if !p.cull || f.Cull == nil {
		return
	}
	p.cullStats = f.Cull.Run(f.Number, f.Camera, f.Target, p.trees)
	p.stats.Culled = p.cullStats.Culled
	p.log.Debug("depth cull",
		zap.Int("objects", p.cullStats.Objects),
		zap.Int("culled", p.cullStats.Culled),
		zap.Bool("gpu", p.cullStats.GPU),
		zap.Bool("reused", p.cullStats.Reused))
}

func (p *Depth) ReleaseObject(o *scene.Object) {
	p.occluders.release(o)
	p.probes.release(o)
}

func (p *Depth) Dispose() {
	p.occluders.dispose()
	p.probes.dispose()
}
