package content

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/gpu/gputest"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shader"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/logger"
)

func init() {
	logger.InitNop()
}

type fixture struct {
	dev   *gputest.Device
	layer *scene.Layer
	tree  *Tree
}

func newFixture(kind Kind) *fixture {
	dev := gputest.NewDevice(64, 64)
	layer := scene.NewLayer("main", scene.LayerMain)
	cache := program.NewCache(dev, shader.NewLibrary(""))
	return &fixture{dev: dev, layer: layer, tree: NewTree(dev, cache, program.NewRegistry(), layer, kind)}
}

func blendMaterial() *shading.ColorMaterial {
	m := shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 0.5})
	st := m.State()
	st.Alpha = shading.AlphaBlend
	m.SetState(st)
	return m
}

func TestRebuildIdempotent(t *testing.T) {
	f := newFixture(Opaque)
	red := shading.NewColorMaterial(mgl32.Vec4{1, 0, 0, 1})
	box := scene.Box(mgl32.Vec3{1, 1, 1})
	f.layer.Add(scene.NewObject("a", box, red))
	f.layer.Add(scene.NewObject("b", box, red))

	if !f.tree.Rebuild() {
		t.Fatal("first Rebuild should build")
	}
	v := f.tree.Version()
	if f.tree.Rebuild() {
		t.Error("second Rebuild with an unchanged layer should be a no-op")
	}
	if f.tree.Version() != v {
		t.Error("tree version moved without a layer change")
	}

	draws := f.tree.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(draws))
	}
	if len(f.tree.Shaders()) != 1 || len(f.tree.Shaders()[0].Materials) != 1 {
		t.Error("both objects should share one shader and one material group")
	}
	if len(f.tree.Shaders()[0].Materials[0].Vertices) != 1 {
		t.Error("a shared geometry should give one vertex group")
	}
	for i, d := range draws {
		if d.ID != int32(i) {
			t.Errorf("draw %d has id %d", i, d.ID)
		}
	}
	// Only one vertex array for the shared box.
	if n := len(f.dev.VertexArrs); n != 1 {
		t.Errorf("vertex arrays = %d, want 1", n)
	}
}

func TestTransformDoesNotRebuild(t *testing.T) {
	f := newFixture(Opaque)
	o := scene.NewObject("a", scene.Box(mgl32.Vec3{1, 1, 1}), shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1}))
	f.layer.Add(o)
	f.tree.Rebuild()
	v := f.tree.Version()

	o.SetWorld(mgl32.Translate3D(3, 0, 0))
	o.SetVisible(false)
	if f.tree.Rebuild() || f.tree.Version() != v {
		t.Error("transform and visibility edits should not rebuild")
	}

	o.SetMaterials(shading.NewUnlitMaterial(mgl32.Vec4{1, 1, 1, 1}), shading.NewColorMaterial(mgl32.Vec4{}))
	if !f.tree.Rebuild() {
		t.Error("a material change should rebuild")
	}
	if n := len(f.tree.Draws()); n != 2 {
		t.Errorf("draws = %d, want 2", n)
	}
}

func TestIncrementalAddRemove(t *testing.T) {
	f := newFixture(Opaque)
	red := shading.NewColorMaterial(mgl32.Vec4{1, 0, 0, 1})
	a := scene.NewObject("a", scene.Box(mgl32.Vec3{1, 1, 1}), red)
	f.layer.Add(a)
	f.tree.Rebuild()

	b := scene.NewObject("b", scene.Quad(1, 1), shading.NewDepthMaterial(false))
	f.layer.Add(b)
	if !f.tree.Rebuild() {
		t.Fatal("pending add should report a change")
	}
	draws := f.tree.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(draws))
	}
	// The depth shader sorts first.
	if draws[0].Object != b {
		t.Error("lower shader priority should come first")
	}
	if draws[0].ID != 1 || draws[1].ID != 0 {
		t.Errorf("incremental add should not renumber: ids %d, %d", draws[0].ID, draws[1].ID)
	}

	f.layer.Remove(b)
	f.tree.Rebuild()
	if n := len(f.tree.Shaders()); n != 1 {
		t.Errorf("empty shader group not dropped: %d groups", n)
	}
	if n := len(f.dev.VertexArrs); n != 1 {
		t.Errorf("vertex arrays = %d after removal, want 1", n)
	}
	if f.tree.Rebuild() {
		t.Error("tree should be in sync after incremental updates")
	}
}

func TestKindFilters(t *testing.T) {
	tests := []struct {
		kind Kind
		want []string
	}{
		{Opaque, []string{"solid", "noshadow"}},
		{Blend, []string{"glass"}},
		{CastShadow, []string{"solid"}},
		{Custom, []string{"solid", "glass", "noshadow"}},
	}
	for _, tt := range tests {
		f := newFixture(tt.kind)
		noShadow := shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1})
		st := noShadow.State()
		st.CastShadows = false
		noShadow.SetState(st)

		box := scene.Box(mgl32.Vec3{1, 1, 1})
		f.layer.Add(scene.NewObject("solid", box, shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1})))
		f.layer.Add(scene.NewObject("glass", box, blendMaterial()))
		f.layer.Add(scene.NewObject("noshadow", box, noShadow))
		f.tree.Rebuild()

		var got []string
		for _, d := range f.tree.Draws() {
			got = append(got, d.Object.Name)
		}
		if len(got) != len(tt.want) {
			t.Errorf("%s: draws %v, want %v", tt.kind, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: draws %v, want %v", tt.kind, got, tt.want)
				break
			}
		}
	}
}

func TestMaterialStateRegroups(t *testing.T) {
	f := newFixture(Opaque)
	cache := program.NewCache(f.dev, shader.NewLibrary(""))
	blend := NewTree(f.dev, cache, program.NewRegistry(), f.layer, Blend)
	shadow := NewTree(f.dev, cache, program.NewRegistry(), f.layer, CastShadow)
	trees := []*Tree{f.tree, blend, shadow}

	m := shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1})
	f.layer.Add(scene.NewObject("a", scene.Box(mgl32.Vec3{1, 1, 1}), m))
	for _, tr := range trees {
		tr.Rebuild()
	}

	steps := []struct {
		name                  string
		edit                  func(*shading.State)
		opaque, blended, cast int
		rebuilt               bool
	}{
		{"colour only", func(*shading.State) {}, 1, 0, 1, false},
		{"alpha blend", func(st *shading.State) { st.Alpha = shading.AlphaBlend }, 0, 1, 0, true},
		{"back to opaque without shadows", func(st *shading.State) {
			st.Alpha = shading.AlphaOpaque
			st.CastShadows = false
		}, 1, 0, 0, true},
	}
	for _, step := range steps {
		st := m.State()
		step.edit(&st)
		m.SetState(st)

		rebuilt := false
		for _, tr := range trees {
			if tr.Rebuild() {
				rebuilt = true
			}
		}
		if rebuilt != step.rebuilt {
			t.Errorf("%s: Rebuild changed = %v, want %v", step.name, rebuilt, step.rebuilt)
		}
		got := []int{len(f.tree.Draws()), len(blend.Draws()), len(shadow.Draws())}
		want := []int{step.opaque, step.blended, step.cast}
		for i, kind := range []Kind{Opaque, Blend, CastShadow} {
			if got[i] != want[i] {
				t.Errorf("%s: %s draws = %d, want %d", step.name, kind, got[i], want[i])
			}
		}
	}
}

func TestPrepareVisibility(t *testing.T) {
	f := newFixture(Opaque)
	box := scene.Box(mgl32.Vec3{1, 1, 1})
	front := scene.NewObject("front", box, shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1}))
	behind := scene.NewObject("behind", box, shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1}))
	behind.SetWorld(mgl32.Translate3D(0, 0, 20))
	hidden := scene.NewObject("hidden", box, shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1}))
	hidden.SetVisible(false)
	disabled := shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1})
	st := disabled.State()
	st.Enabled = false
	disabled.SetState(st)
	off := scene.NewObject("off", box, disabled)
	for _, o := range []*scene.Object{front, behind, hidden, off} {
		f.layer.Add(o)
	}
	f.tree.Rebuild()

	cam := camera.NewPerspective(mgl32.DegToRad(60), 1, 0.1, 100, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	view := View{Frame: 1, Camera: cam, FrustumCulling: true}
	if !f.tree.Prepare(view) {
		t.Fatal("first Prepare should run")
	}
	if f.tree.Prepare(view) {
		t.Error("Prepare should run once per frame and camera")
	}

	want := map[string]bool{"front": false, "behind": true, "hidden": true, "off": true}
	for _, d := range f.tree.Draws() {
		if d.Hidden != want[d.Object.Name] {
			t.Errorf("%s: Hidden = %v, want %v", d.Object.Name, d.Hidden, want[d.Object.Name])
		}
	}

	view.Frame = 2
	view.FrustumCulling = false
	f.tree.Prepare(view)
	for _, d := range f.tree.Draws() {
		if d.Object == behind && d.Hidden {
			t.Error("without frustum culling only visibility flags hide draws")
		}
	}
}

func TestBlendBackToFront(t *testing.T) {
	f := newFixture(Blend)
	m := blendMaterial()
	near := scene.NewObject("near", scene.Box(mgl32.Vec3{1, 1, 1}), m)
	far := scene.NewObject("far", scene.Quad(1, 1), m)
	far.SetWorld(mgl32.Translate3D(0, 0, -10))
	f.layer.Add(near)
	f.layer.Add(far)
	f.tree.Rebuild()

	cam := camera.NewPerspective(mgl32.DegToRad(60), 1, 0.1, 100, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	f.tree.Prepare(View{Frame: 1, Camera: cam})

	draws := f.tree.Draws()
	if draws[0].Object != far || draws[1].Object != near {
		t.Errorf("blend order = %s, %s; want far first", draws[0].Object.Name, draws[1].Object.Name)
	}
}

func TestPrepareUploadsChangedGeometry(t *testing.T) {
	f := newFixture(Opaque)
	g := scene.Quad(1, 1)
	f.layer.Add(scene.NewObject("q", g, shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1})))
	f.tree.Rebuild()

	quad := scene.Quad(2, 2)
	g.Set(quad.Vertices(), quad.Indices())
	f.tree.Prepare(View{Frame: 1})

	va := f.tree.Draws()[0].Vertex.Array
	if got := f.dev.VertexArrs[va.Handle].Vertices[0]; got != -1 {
		t.Errorf("uploaded x = %v, want -1", got)
	}
}

func TestDispose(t *testing.T) {
	f := newFixture(Opaque)
	f.layer.Add(scene.NewObject("a", scene.Box(mgl32.Vec3{1, 1, 1}), shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1})))
	f.tree.Rebuild()
	f.tree.Dispose()
	if n := f.dev.Live(); n != 0 {
		t.Errorf("live objects after Dispose = %d", n)
	}
	f.layer.Add(scene.NewObject("b", nil))
	if len(f.tree.pending) != 0 {
		t.Error("disposed tree still follows the layer")
	}
}
