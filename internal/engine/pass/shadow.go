package pass

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
)

// DefaultShadowMapSize is used when ShadowOptions.Size is not set.
const DefaultShadowMapSize = 2048

// Shadow renders the shadow casters of the main layers from the first
// shadow-casting directional light, once per frame.
type Shadow struct {
	base
	opts ShadowOptions

	caster *override
	target *target.Texture
	camera *camera.Camera

	frame    uint64
	rendered bool
}

func NewShadow(opts ShadowOptions) *Shadow {
	if opts.Size <= 0 {
		opts.Size = DefaultShadowMapSize
	}
	return &Shadow{base: newBase("shadow"), opts: opts}
}

func (p *Shadow) Render(f *Frame) { run(f, p) }

// LightCamera returns the light camera of the last shadow render.
func (p *Shadow) LightCamera() *camera.Camera { return p.camera }

// Target returns the shadow map target, nil before the first render.
func (p *Shadow) Target() *target.Texture { return p.target }

func (p *Shadow) BeginRender(f *Frame) bool {
	if p.rendered && p.frame == f.Number {
		return false
	}
	light := f.Scene.Lights.ShadowCaster()
	if light == nil {
		return false
	}
	if len(f.trees(content.CastShadow, scene.LayerMain)) == 0 {
		return false
	}
	if err := p.ensureTarget(f); err != nil {
		p.log.Error("shadow map unavailable", zap.Error(err))
		return false
	}
	p.frame, p.rendered = f.Number, true
	if p.caster == nil {
		p.caster = newOverride(f, shading.NewDepthMaterial(p.opts.Mode == shading.ShadowVSM))
	}

	p.camera = FitLightCamera(light.Direction, f.Camera, receiverBounds(f.Scene))
	f.Bind(p.target)
	if p.opts.Mode == shading.ShadowVSM {
		f.Clear(mgl32.Vec4{1, 1, 0, 0}, gpu.ClearColor|gpu.ClearDepth)
	} else {
		f.Clear(mgl32.Vec4{}, gpu.ClearDepth)
	}
	f.UseCamera(p.camera, mgl32.Vec4{})
	return true
}

func (p *Shadow) ensureTarget(f *Frame) error {
	opts := target.Options{
		Width:         p.opts.Size,
		Height:        p.opts.Size,
		Depth:         true,
		DepthFormat:   gpu.FormatDepth24,
		Filter:        gpu.FilterLinear,
		ClampToBorder: true,
		CompareRef:    p.opts.Mode == shading.ShadowHard,
	}
	if p.opts.Mode == shading.ShadowVSM {
		opts.Color = []gpu.TextureFormat{gpu.FormatRG16F}
	}
	t, err := ensureTexture(f.Device, p.target, opts)
	if err != nil {
		return err
	}
	p.target = t
	return nil
}

func (p *Shadow) SelectLayers(f *Frame) []*content.Tree {
	return f.trees(content.CastShadow, scene.LayerMain)
}

func (p *Shadow) RenderLayer(f *Frame, t *content.Tree) {
	ctx := f.Context(p.name)
	st := p.caster.use(f, ctx)
	applyState(f.State, st, true)
	f.State.SetDepthFunc(gpu.DepthLess)
	p.drawOverride(f, t, p.caster, ctx)
}

func (p *Shadow) EndRender(f *Frame) {
	f.State.SetCullFace(gpu.CullBack)
	f.State.SetColorWrite(true)

	tex := p.target.DepthTexture()
	if p.opts.Mode == shading.ShadowVSM {
		tex = p.target.ColorTexture(0)
	}
	f.Shadow = &shading.ShadowInfo{
		Mode:          p.opts.Mode,
		LightViewProj: p.camera.ViewProjection(),
		Texture:       tex,
		Size:          p.opts.Size,
	}
}

func (p *Shadow) ReleaseObject(o *scene.Object) { p.caster.release(o) }

func (p *Shadow) Dispose() {
	p.caster.dispose()
	if p.target != nil {
		p.target.Dispose()
		p.target = nil
	}
}

// receiverBounds is the union of the visible main-layer objects.
func receiverBounds(s *scene.Scene) geom.AABB {
	b := geom.EmptyAABB()
	for _, l := range s.LayersOf(scene.LayerMain) {
		for _, o := range l.Objects() {
			if o.Visible() {
				b = b.Union(o.WorldBounds())
			}
		}
	}
	return b
}

// FitLightCamera returns an orthographic camera looking along -dir that
// covers the part of receivers inside the view frustum, or all of receivers
// when view is nil or they do not overlap.
func FitLightCamera(dir mgl32.Vec3, view *camera.Camera, receivers geom.AABB) *camera.Camera {
	bounds := receivers
	if view != nil && !receivers.IsEmpty() {
		corners := view.FrustumCorners()
		if in, ok := receivers.Intersection(geom.BoundsOf(corners[:], mgl32.Ident4())); ok {
			bounds = in
		}
	}
	if bounds.IsEmpty() {
		bounds = geom.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	}

	center := bounds.Center()
	radius := max(bounds.Radius(), 0.01)
	dir = dir.Normalize()
	dist := radius * 2
	pos := center.Add(dir.Mul(dist))

	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(dir.Y())) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	half := radius * 1.1
	return camera.NewOrtho(mgl32.LookAtV(pos, center, up), -half, half, -half, half, 0.1, dist+half)
}
