package hiz

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/gpu/gputest"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shader"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
	"github.com/Faultbox/xrgl/internal/logger"
)

func init() {
	logger.InitNop()
}

func TestLevelCount(t *testing.T) {
	tests := []struct {
		w, h int32
		want int32
	}{
		{1, 1, 1},
		{2, 2, 2},
		{3, 1, 2},
		{5, 3, 3},
		{64, 64, 7},
		{64, 32, 7},
		{1920, 1080, 11},
	}
	for _, tt := range tests {
		got := LevelCount(tt.w, tt.h)
		if got != tt.want {
			t.Errorf("LevelCount(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
		if w, h := LevelSize(tt.w, tt.h, got-1); w != 1 || h != 1 {
			t.Errorf("last level of %dx%d is %dx%d, want 1x1", tt.w, tt.h, w, h)
		}
	}
}

func TestPyramidFarthestDepth(t *testing.T) {
	var p Pyramid
	depth := []float32{
		0.1, 0.2, 0.3, 0.4,
		0.5, 0.6, 0.7, 0.8,
		0.1, 0.1, 0.1, 0.1,
		0.1, 0.1, 0.1, 0.9,
	}
	p.Build(depth, 4, 4)
	if p.Count() != 3 {
		t.Fatalf("levels = %d, want 3", p.Count())
	}
	want := []float32{0.6, 0.8, 0.1, 0.9}
	for i, w := range want {
		if p.Levels[1][i] != w {
			t.Errorf("level 1 texel %d = %v, want %v", i, p.Levels[1][i], w)
		}
	}
	if p.Levels[2][0] != 0.9 {
		t.Errorf("1x1 level = %v, want 0.9", p.Levels[2][0])
	}
}

func TestPyramidOddEdges(t *testing.T) {
	var p Pyramid
	// The farthest texel sits in the extra row and column of a 3x3 image.
	depth := []float32{
		0.1, 0.1, 0.1,
		0.1, 0.1, 0.1,
		0.1, 0.1, 0.7,
	}
	p.Build(depth, 3, 3)
	if p.Count() != 2 {
		t.Fatalf("levels = %d, want 2", p.Count())
	}
	if p.Levels[1][0] != 0.7 {
		t.Errorf("odd edge texel lost: %v", p.Levels[1][0])
	}
}

func testCamera() *camera.Camera {
	cam := camera.NewPerspective(mgl32.DegToRad(60), 1, 0.1, 100, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	cam.ViewSize = camera.Size{Width: 64, Height: 64}
	return cam
}

func uniformPyramid(w, h int32, d float32) *Pyramid {
	depth := make([]float32, w*h)
	for i := range depth {
		depth[i] = d
	}
	var p Pyramid
	p.Build(depth, w, h)
	return &p
}

func TestCull(t *testing.T) {
	cam := testCamera()
	view := View{ViewProj: cam.ViewProjection(), Frustum: cam.Frustum(), ScreenSize: mgl32.Vec2{64, 64}}

	tests := []struct {
		name     string
		min, max mgl32.Vec3
		occluder float32
		culled   bool
	}{
		{"outside frustum", mgl32.Vec3{50, 50, 0}, mgl32.Vec3{51, 51, 1}, 1, true},
		{"behind the camera", mgl32.Vec3{-1, -1, 10}, mgl32.Vec3{1, 1, 12}, 1, true},
		{"inside, nothing in front", mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}, 1, false},
		{"inside, behind an occluder", mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}, 0.01, true},
		{"crossing the near plane", mgl32.Vec3{-1, -1, 4}, mgl32.Vec3{1, 1, 6}, 0, false},
	}
	for _, tt := range tests {
		o := Object{Min: tt.min, Max: tt.max}
		Cull(uniformPyramid(64, 64, tt.occluder), &view, &o)
		if o.Culled != tt.culled || o.Visible == tt.culled {
			t.Errorf("%s: culled = %v visible = %v, want culled %v", tt.name, o.Culled, o.Visible, tt.culled)
		}
	}
}

func TestCullNonPowerOfTwoEdge(t *testing.T) {
	// 87x8 depth image with a near strip over pixels 64..71. At level 3 the
	// last texel covers pixels 72..86 and must not borrow the strip's depth.
	const w, h = 87, 8
	depth := make([]float32, w*h)
	for y := range h {
		for x := range w {
			depth[y*w+x] = 1
			if x >= 64 && x < 72 {
				depth[y*w+x] = 0.1
			}
		}
	}
	var p Pyramid
	p.Build(depth, w, h)

	// With an identity view-projection world space is NDC.
	view := View{ViewProj: mgl32.Ident4(), Frustum: geom.FrustumFromMatrix(mgl32.Ident4()), ScreenSize: mgl32.Vec2{w, h}}
	ndcX := func(px float32) float32 { return 2*px/w - 1 }
	ndcY := func(py float32) float32 { return 2*py/h - 1 }

	tests := []struct {
		name   string
		x0, x1 float32
		culled bool
	}{
		{"right of the strip", 72.5, 77.5, false},
		{"over the strip", 64.5, 69.5, true},
	}
	for _, tt := range tests {
		o := Object{
			Min: mgl32.Vec3{ndcX(tt.x0), ndcY(0.5), 0},
			Max: mgl32.Vec3{ndcX(tt.x1), ndcY(7.5), 0},
		}
		Cull(&p, &view, &o)
		if o.Culled != tt.culled {
			t.Errorf("%s: culled = %v, want %v (extent %v)", tt.name, o.Culled, tt.culled, o.Extent)
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	objs := []Object{
		{Min: mgl32.Vec3{1, 2, 3}, Max: mgl32.Vec3{4, 5, 6}, Visible: true},
		{Culled: true, Extent: mgl32.Vec2{7, 8}},
	}
	buf := make([]byte, 2*ObjectSize)
	Encode(buf, objs)

	if buf[12] != 1 || buf[28] != 0 {
		t.Errorf("first object flags = %d, %d", buf[12], buf[28])
	}
	if buf[ObjectSize+12] != 0 || buf[ObjectSize+28] != 1 {
		t.Errorf("second object flags = %d, %d", buf[ObjectSize+12], buf[ObjectSize+28])
	}

	back := make([]Object, 2)
	Decode(buf, back)
	if !back[0].Visible || !back[1].Culled || back[1].Extent != (mgl32.Vec2{7, 8}) {
		t.Errorf("decoded %+v", back)
	}
}

type fixture struct {
	dev    *gputest.Device
	layer  *scene.Layer
	tree   *content.Tree
	engine *Engine
}

func newFixture() *fixture {
	dev := gputest.NewDevice(64, 64)
	cache := program.NewCache(dev, shader.NewLibrary(""))
	layer := scene.NewLayer("main", scene.LayerMain)
	return &fixture{
		dev:    dev,
		layer:  layer,
		tree:   content.NewTree(dev, cache, program.NewRegistry(), layer, content.Opaque),
		engine: New(dev, gpu.NewStateCache(dev), cache),
	}
}

func (f *fixture) add(name string, occluder bool, world mgl32.Mat4) *scene.Object {
	o := scene.NewObject(name, scene.Box(mgl32.Vec3{1, 1, 1}), shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1}))
	o.SetLargeOccluder(occluder)
	o.SetWorld(world)
	f.layer.Add(o)
	return o
}

func (f *fixture) run(frame uint64, cam *camera.Camera) Stats {
	f.tree.Rebuild()
	return f.engine.Run(frame, cam, target.NewDefault(64, 64), []*content.Tree{f.tree})
}

func drawOf(tree *content.Tree, o *scene.Object) *content.Draw {
	for _, d := range tree.Draws() {
		if d.Object == o {
			return d
		}
	}
	return nil
}

func TestEngineOnlyLargeOccluders(t *testing.T) {
	f := newFixture()
	small := f.add("small", false, mgl32.Ident4())
	big := f.add("big", true, mgl32.Ident4())
	f.dev.FillDepth(0, 0, 0, 64, 64, 0.01)

	st := f.run(1, testCamera())
	if st.Objects != 1 {
		t.Errorf("cull objects = %d, want 1", st.Objects)
	}
	if st.GPU {
		t.Error("the fake has no compute support")
	}
	if d := drawOf(f.tree, small); d.CullID != -1 || d.Culled {
		t.Errorf("non-occluder got id %d culled %v", d.CullID, d.Culled)
	}
	if d := drawOf(f.tree, big); d.CullID != 0 || !d.Culled {
		t.Errorf("occluder behind depth 0.01: id %d culled %v", d.CullID, d.Culled)
	}
	if n := len(f.dev.Buffers[f.engine.Buffer()].Data); n != ObjectSize {
		t.Errorf("buffer size = %d, want %d", n, ObjectSize)
	}
}

func TestEngineVisibleWithClearDepth(t *testing.T) {
	f := newFixture()
	cube := f.add("cube", true, mgl32.Ident4())
	f.run(1, testCamera())
	if d := drawOf(f.tree, cube); d.Culled {
		t.Error("cube with nothing in front should stay visible")
	}
	if o := f.engine.Objects()[0]; !o.Visible {
		t.Error("cull record should be visible")
	}
}

func TestEngineReassignBumpsCullVersion(t *testing.T) {
	f := newFixture()
	a := f.add("a", true, mgl32.Ident4())
	b := f.add("b", true, mgl32.Translate3D(2, 0, 0))
	f.run(1, testCamera())

	db := drawOf(f.tree, b)
	if db.CullID != 1 {
		t.Fatalf("b cull id = %d, want 1", db.CullID)
	}
	v := db.CullVersion
	alloc := f.dev.Buffers[f.engine.Buffer()].Allocs

	f.layer.Remove(a)
	f.run(2, testCamera())
	if db.CullID != 0 || db.CullVersion == v {
		t.Errorf("moved id = %d version %d (was %d)", db.CullID, db.CullVersion, v)
	}
	if got := f.dev.Buffers[f.engine.Buffer()].Allocs; got != alloc+1 {
		t.Errorf("count change should reallocate: allocs %d -> %d", alloc, got)
	}

	v = db.CullVersion
	f.run(3, testCamera())
	if db.CullVersion != v {
		t.Error("unchanged trees should keep cull ids")
	}
	if got := f.dev.Buffers[f.engine.Buffer()].Allocs; got != alloc+1 {
		t.Error("unchanged count should update in place")
	}
}

func TestEngineSecondEyeReuses(t *testing.T) {
	f := newFixture()
	f.add("cube", true, mgl32.Ident4())
	cam := testCamera()
	cam.Eyes = []camera.Eye{{View: cam.View, Projection: cam.Projection}, {View: cam.View, Projection: cam.Projection}}

	f.run(1, cam.ForEye(0))
	reads := f.dev.ReadBacks
	st := f.run(1, cam.ForEye(1))
	if !st.Reused || f.dev.ReadBacks != reads {
		t.Error("second eye should reuse the primary eye's results")
	}
	if st := f.run(2, cam.ForEye(1)); st.Reused {
		t.Error("a new frame must not reuse old results")
	}
}

func TestEngineComputePath(t *testing.T) {
	f := newFixture()
	f.dev.Caps.Compute = true
	f.engine = New(f.dev, gpu.NewStateCache(f.dev), program.NewCache(f.dev, shader.NewLibrary("")))
	f.add("cube", true, mgl32.Ident4())
	f.tree.Rebuild()

	tgt, err := target.NewTexture(f.dev, target.Options{Width: 64, Height: 64, Color: []gpu.TextureFormat{gpu.FormatRGBA8}, Depth: true})
	if err != nil {
		t.Fatal(err)
	}
	st := f.engine.Run(1, testCamera(), tgt, []*content.Tree{f.tree})
	if !st.GPU {
		t.Fatal("compute path not taken")
	}
	// copy + 6 downsample levels + cull
	if n := len(f.dev.Dispatches); n != 8 {
		t.Errorf("dispatches = %d, want 8", n)
	}
	last := f.dev.Dispatches[len(f.dev.Dispatches)-1]
	if last.X != 1 || last.Y != 1 {
		t.Errorf("cull dispatch = %dx%d, want 1x1", last.X, last.Y)
	}
	if f.dev.BoundBuffer(gpu.StorageBuffer, gpu.BindingCullObjects) == nil {
		t.Error("cull objects not bound")
	}
	if f.dev.ReadBacks == 0 {
		t.Error("results not read back")
	}
}
