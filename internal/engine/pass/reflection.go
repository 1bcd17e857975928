package pass

import (
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
)

// Reflection renders the main opaque content mirrored about the plane of the
// first visible mirror of the reflection layers.
type Reflection struct {
	base
	target *target.Texture
	host   *scene.Object
	camera *camera.Camera
}

func NewReflection() *Reflection {
	return &Reflection{base: newBase("reflection")}
}

func (p *Reflection) Render(f *Frame) { run(f, p) }

// Host returns the mirror of the last render, or nil.
func (p *Reflection) Host() *scene.Object { return p.host }

func (p *Reflection) BeginRender(f *Frame) bool {
	p.host = findMirror(f.Camera, f.Scene)
	if p.host == nil {
		return false
	}
	size := f.Target.Size()
	w, h := int32(size.Width), int32(size.Height)
	if r := p.host.Reflection(); r.Size > 0 {
		w, h = r.Size, r.Size
	}
	t, err := ensureTexture(f.Device, p.target, target.Options{
		Width:  w,
		Height: h,
		Color:  []gpu.TextureFormat{gpu.FormatRGBA8},
		Depth:  true,
		Filter: gpu.FilterLinear,
	})
	if err != nil {
		p.log.Error("reflection target unavailable", zap.Error(err))
		return false
	}
	p.target = t

	plane, _ := p.host.ReflectionPlane()
	p.camera = f.Camera.Reflect(plane)
	f.Bind(p.target)
	f.Clear(f.Camera.Background, gpu.ClearColor|gpu.ClearDepth)
	f.UseCamera(p.camera, plane.Vec4())
	f.Device.SetClipDistance(0, true)
	return true
}

// findMirror returns the first visible mirror in front of the camera whose
// bounds are in the frustum and cover at least its MinScreenArea.
func findMirror(cam *camera.Camera, s *scene.Scene) *scene.Object {
	frustum := cam.Frustum()
	vp := cam.ViewProjection()
	eye := cam.Position()
	for _, l := range s.LayersOf(scene.LayerReflection) {
		for _, o := range l.Objects() {
			r := o.Reflection()
			if r == nil || !o.Visible() {
				continue
			}
			plane, _ := o.ReflectionPlane()
			if plane.Distance(eye) <= 0 {
				continue
			}
			b := o.WorldBounds()
			if !frustum.IntersectsAABB(b) {
				continue
			}
			if sb := geom.ProjectAABB(b, vp); !sb.CrossesNear && sb.Area() < r.MinScreenArea {
				continue
			}
			return o
		}
	}
	return nil
}

func (p *Reflection) SelectLayers(f *Frame) []*content.Tree {
	return f.trees(content.Opaque, scene.LayerMain)
}

func (p *Reflection) RenderLayer(f *Frame, t *content.Tree) {
	p.drawTree(f, t, drawOptions{
		ctx:        f.Context(p.name, shading.FeatureClipPlane),
		depthFunc:  gpu.DepthLess,
		flip:       true,
		ignoreCull: true,
		exclude:    p.host,
	})
}

func (p *Reflection) EndRender(f *Frame) {
	f.Device.SetClipDistance(0, false)
	f.State.SetCullFace(gpu.CullBack)
	f.ReflectionTexture = p.target.ColorTexture(0)
}

func (p *Reflection) ReleaseObject(o *scene.Object) {
	if p.host == o {
		p.host = nil
	}
}

func (p *Reflection) Dispose() {
	if p.target != nil {
		p.target.Dispose()
		p.target = nil
	}
}
