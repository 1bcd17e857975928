package pass

import (
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

// HitResult is what lies under a window pixel.
type HitResult struct {
	Hit    bool
	Object *scene.Object
	// Depth is the window depth in [0,1].
	Depth    float32
	Position mgl32.Vec3
}

// HitTest renders every visible object in a colour encoding its pick id, so
// that a later Resolve can read back what lies under a pixel.
type HitTest struct {
	base
	dev    gpu.Device
	ids    *override
	target *target.Texture
	camera *camera.Camera

	objects []*scene.Object
	index   map[*scene.Object]uint32
	ready   bool
}

func NewHitTest() *HitTest {
	return &HitTest{base: newBase("hittest"), index: make(map[*scene.Object]uint32)}
}

func (p *HitTest) Render(f *Frame) { run(f, p) }

// BeginRender only accepts the window target and the primary eye.
func (p *HitTest) BeginRender(f *Frame) bool {
	if !f.Target.IsDefault() || !f.Camera.IsPrimaryEye() {
		return false
	}
	size := f.Target.Size()
	t, err := ensureTexture(f.Device, p.target, target.Options{
		Width:       int32(size.Width),
		Height:      int32(size.Height),
		Color:       []gpu.TextureFormat{gpu.FormatRGBA8},
		Depth:       true,
		DepthFormat: gpu.FormatDepth32F,
		Filter:      gpu.FilterNearest,
	})
	if err != nil {
		p.log.Error("hit-test target unavailable", zap.Error(err))
		return false
	}
	p.target = t
	p.dev = f.Device
	if p.ids == nil {
		p.ids = newOverride(f, shading.NewHitTestMaterial())
		p.ids.keep = func(d *content.Draw) bool { return !d.Culled }
		p.ids.setup = func(d *content.Draw) { f.ctx.PickID = p.pickID(d.Object) }
	}

	clear(p.index)
	p.objects = p.objects[:0]
	p.camera = f.Camera
	f.Bind(p.target)
	f.Clear(mgl32.Vec4{}, gpu.ClearColor|gpu.ClearDepth)
	f.UseCamera(f.Camera, mgl32.Vec4{})
	return true
}

// pickID returns the id of o, assigning the next one on first sight. Id 0
// means nothing was hit.
func (p *HitTest) pickID(o *scene.Object) uint32 {
	if id, ok := p.index[o]; ok {
		return id
	}
	p.objects = append(p.objects, o)
	id := uint32(len(p.objects))
	p.index[o] = id
	return id
}

func (p *HitTest) SelectLayers(f *Frame) []*content.Tree {
	trees := f.trees(content.Opaque, scene.LayerMain, scene.LayerReflection)
	return append(trees, f.trees(content.Blend, scene.LayerMain, scene.LayerReflection)...)
}

func (p *HitTest) RenderLayer(f *Frame, t *content.Tree) {
	ctx := f.Context(p.name)
	st := p.ids.use(f, ctx)
	applyState(f.State, st, false)
	f.State.SetDepthFunc(gpu.DepthLess)
	p.drawOverride(f, t, p.ids, ctx)
}

func (p *HitTest) EndRender(*Frame) { p.ready = true }

// Resolve reads back the pixel at x, y (origin top-left) of the last hit-test
// render.
func (p *HitTest) Resolve(x, y int) HitResult {
	if !p.ready || p.target == nil {
		return HitResult{}
	}
	size := p.target.Size()
	if x < 0 || y < 0 || x >= size.Width || y >= size.Height {
		return HitResult{}
	}
	fb := p.target.Framebuffer()
	px, py := int32(x), int32(size.Height-1-y)

	var rgba [4]byte
	p.dev.ReadPixels(fb, 0, px, py, 1, 1, rgba[:])
	id := shading.DecodeID(rgba)
	if id == 0 || int(id) > len(p.objects) || p.objects[id-1] == nil {
		return HitResult{}
	}
	var depth [1]float32
	p.dev.ReadDepth(fb, px, py, 1, 1, depth[:])
	pos := geom.WindowToWorld(float32(x)+0.5, float32(y)+0.5, depth[0], size.Width, size.Height, p.camera.InverseViewProjection())
	return HitResult{Hit: true, Object: p.objects[id-1], Depth: depth[0], Position: pos}
}

func (p *HitTest) ReleaseObject(o *scene.Object) {
	p.ids.release(o)
	if id, ok := p.index[o]; ok {
		p.objects[id-1] = nil
		delete(p.index, o)
	}
}

func (p *HitTest) Dispose() {
	p.ids.dispose()
	if p.target != nil {
		p.target.Dispose()
		p.target = nil
	}
	p.ready = false
}
