// Package pass implements the render passes of a frame. They run in a fixed
// order (shadow, depth, reflection, colour, outline, hit test) and hand their
// results to the passes after them through the Frame.
package pass

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/hiz"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
	"github.com/Faultbox/xrgl/internal/logger"
)

// ShadowOptions configures the shadow map.
type ShadowOptions struct {
	Enabled bool
	Mode    shading.ShadowMode
	// Size is the edge of the square shadow map in texels.
	Size int32
}

// OutlineOptions configures the selection outline.
type OutlineOptions struct {
	Enabled bool
	// Size is the outline width in pixels.
	Size  float32
	Color mgl32.Vec4
}

// Options selects the passes a pipeline is built with.
type Options struct {
	UseDepthPass         bool
	UseOcclusionQuery    bool
	UseDepthCull         bool
	SortByCameraDistance bool
	UsePlanarReflection  bool
	FrustumCulling       bool
	ShadowMap            ShadowOptions
	Outline              OutlineOptions
	HitTest              bool
}

// Stats counts what a pass did in the last frame.
type Stats struct {
	Draws int
	// Skipped draws were hidden or outside the frustum.
	Skipped int
	// Culled draws were occluded according to the depth cull or an
	// occlusion query.
	Culled int
	// Programs counts materials whose program differed from the one they
	// drew with last time, such as a new variant or a recompiled shader.
	Programs int
}

// Add returns the sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Draws:    s.Draws + o.Draws,
		Skipped:  s.Skipped + o.Skipped,
		Culled:   s.Culled + o.Culled,
		Programs: s.Programs + o.Programs,
	}
}

// Pass is one stage of the pipeline.
type Pass interface {
	Name() string
	// Configure runs once per frame before any pass renders.
	Configure(f *Frame)
	Render(f *Frame)
	Stats() Stats
	// ReleaseObject drops the per-object state the pass holds for o.
	ReleaseObject(o *scene.Object)
	Dispose()
}

// stage is the protocol shared by every pass and driven by run.
type stage interface {
	BeginRender(f *Frame) bool
	SelectLayers(f *Frame) []*content.Tree
	RenderLayer(f *Frame, t *content.Tree)
	EndRender(f *Frame)
}

// run drives s through one render. It reports false when BeginRender
// declined.
func run(f *Frame, s stage) bool {
	if !s.BeginRender(f) {
		return false
	}
	for _, t := range s.SelectLayers(f) {
		t.Prepare(f.View())
		s.RenderLayer(f, t)
	}
	s.EndRender(f)
	return true
}

// NewPipeline builds the enabled passes in render order. The colour pass is
// always present.
func NewPipeline(opts *Options) []Pass {
	var ps []Pass
	if opts.ShadowMap.Enabled {
		ps = append(ps, NewShadow(opts.ShadowMap))
	}
	if opts.UseDepthPass || opts.UseOcclusionQuery || opts.UseDepthCull {
		ps = append(ps, NewDepth(opts))
	}
	if opts.UsePlanarReflection {
		ps = append(ps, NewReflection())
	}
	ps = append(ps, NewColor(opts))
	if opts.Outline.Enabled {
		ps = append(ps, NewOutline(opts.Outline))
	}
	if opts.HitTest {
		ps = append(ps, NewHitTest())
	}
	return ps
}

// Content hands out the content tree of a layer for a tree kind.
type Content interface {
	Tree(layer *scene.Layer, kind content.Kind) *content.Tree
}

// Frame is the state shared by the passes of one frame.
type Frame struct {
	Number  uint64
	Scene   *scene.Scene
	Camera  *camera.Camera
	Target  target.Target
	Options *Options
	Content Content

	Device gpu.Device
	State  *gpu.StateCache
	Cache  *program.Cache
	// Cull is nil unless the depth cull is enabled.
	Cull *hiz.Engine

	// Published by earlier passes.
	Shadow            *shading.ShadowInfo
	ReflectionTexture gpu.Handle
	DepthPrepass      bool

	ctx    shading.UpdateContext
	camera *program.Buffer
	view   *camera.Camera
	bound  target.Target
}

// NewFrame allocates the camera block shared by every pass.
func NewFrame(dev gpu.Device, sc *gpu.StateCache, cache *program.Cache, opts *Options, c Content) *Frame {
	return &Frame{
		Options: opts,
		Content: c,
		Device:  dev,
		State:   sc,
		Cache:   cache,
		camera:  program.NewBuffer(dev, gpu.UniformBuffer, gpu.BindingCamera),
	}
}

// Reset starts frame n and drops what passes published for the previous one.
func (f *Frame) Reset(n uint64, s *scene.Scene, tgt target.Target) {
	f.Number, f.Scene, f.Target = n, s, tgt
	f.Shadow = nil
	f.ReflectionTexture = 0
	f.DepthPrepass = false
	f.view, f.bound = nil, nil
}

// Bind makes t the target of the following draws.
func (f *Frame) Bind(t target.Target) {
	t.Bind(f.State)
	f.bound = t
}

// UseCamera uploads the camera block for cam. clip is the user clip plane,
// zero when unused.
func (f *Frame) UseCamera(cam *camera.Camera, clip mgl32.Vec4) {
	f.view = cam
	f.ctx.Camera = cam
	f.ctx.ClipPlane = clip
	f.camera.Fill(&f.ctx, gpu.CameraBlockSize, func(_ *shading.UpdateContext, w *gpu.BlockWriter) {
		w.Mat4(cam.View).
			Mat4(cam.Projection).
			Mat4(cam.ViewProjection()).
			Vec4(cam.Position().Vec4(1)).
			Vec4(clip)
	})
	f.camera.Bind()
}

// ViewCamera returns the camera of the last UseCamera.
func (f *Frame) ViewCamera() *camera.Camera { return f.view }

// View describes the current camera for content.Tree.Prepare.
func (f *Frame) View() content.View {
	return content.View{
		Frame:          f.Number,
		Camera:         f.view,
		FrustumCulling: f.Options.FrustumCulling,
		SortByDistance: f.Options.SortByCameraDistance,
	}
}

// Context returns the update context for pass with the given variant
// features. Layered targets add the multi-view feature.
func (f *Frame) Context(pass string, variant ...string) *shading.UpdateContext {
	if f.bound != nil && f.bound.Layers() > 1 {
		variant = append(variant, shading.FeatureMultiView)
	}
	f.ctx.Pass = pass
	f.ctx.Frame = f.Number
	f.ctx.Variant = variant
	f.ctx.Lights = f.Scene.Lights
	f.ctx.Shadow = f.Shadow
	f.ctx.ReflectionTexture = f.ReflectionTexture
	f.ctx.Model = mgl32.Ident4()
	f.ctx.DrawID = 0
	f.ctx.PickID = 0
	return &f.ctx
}

// trees returns the non-empty trees of kind for every layer of the given
// layer kinds.
func (f *Frame) trees(kind content.Kind, layers ...scene.LayerKind) []*content.Tree {
	var out []*content.Tree
	for _, lk := range layers {
		for _, l := range f.Scene.LayersOf(lk) {
			if t := f.Content.Tree(l, kind); t != nil && !t.Empty() {
				out = append(out, t)
			}
		}
	}
	return out
}

// Dispose deletes the camera block.
func (f *Frame) Dispose() {
	f.camera.Dispose()
}

// base implements the bookkeeping part of Pass.
type base struct {
	name  string
	stats Stats
	log   *zap.Logger
}

func newBase(name string) base {
	return base{name: name, log: logger.Named("pass." + name)}
}

func (b *base) Name() string { return b.name }

func (b *base) Stats() Stats { return b.stats }

func (b *base) Configure(*Frame) { b.stats = Stats{} }

// applyState sets the fixed-function state a material asks for. flip swaps
// back and front face culling, for shadow casters and mirrored views.
func applyState(sc *gpu.StateCache, st shading.State, flip bool) {
	sc.SetDepthTest(st.DepthTest)
	sc.SetDepthWrite(st.DepthWrite)
	sc.SetColorWrite(st.ColorWrite)
	switch {
	case st.DoubleSided:
		sc.SetCullFace(gpu.CullNone)
	case flip:
		sc.SetCullFace(gpu.CullFront)
	default:
		sc.SetCullFace(gpu.CullBack)
	}
	sc.SetBlend(st.Alpha == shading.AlphaBlend)
	if st.StencilWrite {
		sc.SetStencil(gpu.StencilWrite, 1)
	} else {
		sc.SetStencil(gpu.StencilOff, 0)
	}
}

// Clear clears the bound target. Write masks are enabled first since they
// gate clears too.
func (f *Frame) Clear(color mgl32.Vec4, mask gpu.ClearMask) {
	f.State.SetColorWrite(true)
	f.State.SetDepthWrite(true)
	f.State.SetClearColor(color)
	f.Device.SetClearDepth(1)
	f.Device.Clear(mask)
}

// drawOptions controls drawTree.
type drawOptions struct {
	ctx       *shading.UpdateContext
	depthFunc gpu.DepthFunc
	flip      bool
	// noDepthWrite forces depth writes off, for blended draws.
	noDepthWrite bool
	// ignoreCull draws occluded objects too; the cull results only hold for
	// the main view.
	ignoreCull bool
	queries    bool
	exclude    *scene.Object
}

// drawTree draws t with each draw's own material.
func (b *base) drawTree(f *Frame, t *content.Tree, o drawOptions) {
	for _, s := range t.Shaders() {
		globalDone := false
		for _, m := range s.Materials {
			if !anyVisible(m) {
				for _, vc := range m.Vertices {
					b.stats.Skipped += len(vc.Draws)
				}
				continue
			}
			if !globalDone {
				s.Global.Update(o.ctx)
				globalDone = true
			}
			in := m.Instance
			if in.UpdateProgram(o.ctx) {
				b.stats.Programs++
			}
			in.Use(f.State, o.ctx)
			in.UpdateMaterial(o.ctx)
			st := m.Material.State()
			if o.noDepthWrite {
				st.DepthWrite = false
			}
			applyState(f.State, st, o.flip)
			f.State.SetDepthFunc(o.depthFunc)

			for _, vc := range m.Vertices {
				if vc.Hidden {
					b.stats.Skipped += len(vc.Draws)
					continue
				}
				bound := false
				for _, d := range vc.Draws {
					if b.skip(d, &o) {
						continue
					}
					if !bound {
						vc.Bind(f.State)
						bound = true
					}
					o.ctx.Model = d.Object.World()
					o.ctx.DrawID = d.ID
					in.UpdateModel(o.ctx, d.Object)
					vc.Issue(f.Device)
					b.stats.Draws++
				}
			}
		}
	}
}

func (b *base) skip(d *content.Draw, o *drawOptions) bool {
	if d.Hidden {
		b.stats.Skipped++
		return true
	}
	if d.Object == o.exclude {
		return true
	}
	if o.ignoreCull {
		return false
	}
	if d.Culled {
		b.stats.Culled++
		return true
	}
	if o.queries && d.Occluded {
		b.stats.Culled++
		return true
	}
	return false
}

func anyVisible(m *content.MaterialContent) bool {
	for _, vc := range m.Vertices {
		if !vc.Hidden {
			return true
		}
	}
	return false
}

// override draws the draws of a tree with one shared material.
type override struct {
	instance *program.Instance
	keep     func(d *content.Draw) bool
	// setup runs before the model buffers of d are filled.
	setup func(d *content.Draw)
	// wrap issues the draw; nil issues it directly.
	wrap func(d *content.Draw, issue func())
	// switched is set by use when the program changed.
	switched bool
}

func newOverride(f *Frame, m shading.Material) *override {
	return &override{instance: program.NewInstance(f.Device, m, f.Cache, nil)}
}

// use makes the override program current and returns the material state.
func (ov *override) use(f *Frame, ctx *shading.UpdateContext) shading.State {
	ov.switched = ov.instance.UpdateProgram(ctx)
	ov.instance.Use(f.State, ctx)
	ov.instance.UpdateMaterial(ctx)
	return ov.instance.Material().State()
}

func (b *base) drawOverride(f *Frame, t *content.Tree, ov *override, ctx *shading.UpdateContext) {
	if ov.switched {
		b.stats.Programs++
		ov.switched = false
	}
	for _, s := range t.Shaders() {
		for _, m := range s.Materials {
			for _, vc := range m.Vertices {
				bound := false
				for _, d := range vc.Draws {
					if d.Hidden {
						b.stats.Skipped++
						continue
					}
					if ov.keep != nil && !ov.keep(d) {
						continue
					}
					if !bound {
						vc.Bind(f.State)
						bound = true
					}
					ctx.Model = d.Object.World()
					ctx.DrawID = d.ID
					if ov.setup != nil {
						ov.setup(d)
					}
					ov.instance.UpdateModel(ctx, d.Object)
					issue := func() { vc.Issue(f.Device) }
					if ov.wrap != nil {
						ov.wrap(d, issue)
					} else {
						issue()
					}
					b.stats.Draws++
				}
			}
		}
	}
}

func (ov *override) release(o *scene.Object) {
	if ov != nil {
		ov.instance.Release(o)
	}
}

func (ov *override) dispose() {
	if ov != nil {
		ov.instance.Dispose()
	}
}

// ensureTexture creates t with opts, or resizes it to opts' size.
func ensureTexture(dev gpu.Device, t *target.Texture, opts target.Options) (*target.Texture, error) {
	if t == nil {
		return target.NewTexture(dev, opts)
	}
	t.Resize(opts.Width, opts.Height)
	return t, nil
}
