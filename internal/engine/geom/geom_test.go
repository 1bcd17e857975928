package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func testViewProj() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

func box(cx, cy, cz, half float32) AABB {
	return AABB{
		Min: mgl32.Vec3{cx - half, cy - half, cz - half},
		Max: mgl32.Vec3{cx + half, cy + half, cz + half},
	}
}

func TestFrustumIntersectsAABB(t *testing.T) {
	f := FrustumFromMatrix(testViewProj())

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"at origin", box(0, 0, 0, 1), true},
		{"behind camera", box(0, 0, 20, 1), false},
		{"beyond far plane", box(0, 0, -200, 1), false},
		{"far left", box(-100, 0, 0, 1), false},
		{"far above", box(0, 100, 0, 1), false},
		{"straddling near plane", box(0, 0, 5, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IntersectsAABB(tt.box); got != tt.want {
				t.Errorf("IntersectsAABB(%v) = %v, want %v", tt.box, got, tt.want)
			}
		})
	}
}

func TestFrustumPlanesNormalized(t *testing.T) {
	f := FrustumFromMatrix(testViewProj())
	for i, p := range f {
		if l := p.Normal.Len(); l < 0.999 || l > 1.001 {
			t.Errorf("plane %d normal length = %f, want 1", i, l)
		}
	}
	if !f.ContainsPoint(mgl32.Vec3{}) {
		t.Error("origin should be inside the frustum")
	}
}

func TestAABBTransform(t *testing.T) {
	b := box(0, 0, 0, 1).Transform(mgl32.Translate3D(10, 0, 0))
	if b.Min[0] != 9 || b.Max[0] != 11 {
		t.Errorf("Transform: got x range [%f, %f], want [9, 11]", b.Min[0], b.Max[0])
	}
}

func TestAABBIntersection(t *testing.T) {
	a := box(0, 0, 0, 1)
	b := box(1, 0, 0, 1)
	r, ok := a.Intersection(b)
	if !ok {
		t.Fatal("expected overlap")
	}
	if r.Min[0] != 0 || r.Max[0] != 1 {
		t.Errorf("Intersection x range = [%f, %f], want [0, 1]", r.Min[0], r.Max[0])
	}
	if _, ok := a.Intersection(box(5, 0, 0, 1)); ok {
		t.Error("expected no overlap")
	}
}

func TestEmptyAABB(t *testing.T) {
	e := EmptyAABB()
	if !e.IsEmpty() {
		t.Fatal("EmptyAABB should be empty")
	}
	u := e.Union(box(0, 0, 0, 1))
	if u.IsEmpty() || u.Max[0] != 1 {
		t.Errorf("Union with empty box = %v", u)
	}
}

func TestProjectAABB(t *testing.T) {
	vp := testViewProj()

	s := ProjectAABB(box(0, 0, 0, 1), vp)
	if s.CrossesNear {
		t.Fatal("box in front of camera should not cross near plane")
	}
	if s.MinUV[0] >= 0.5 || s.MaxUV[0] <= 0.5 {
		t.Errorf("centered box should straddle u=0.5, got [%f, %f]", s.MinUV[0], s.MaxUV[0])
	}
	if s.MinDepth <= 0 || s.MinDepth >= s.MaxDepth || s.MaxDepth >= 1 {
		t.Errorf("unexpected depth range [%f, %f]", s.MinDepth, s.MaxDepth)
	}

	near := ProjectAABB(box(0, 0, 0, 1), vp)
	far := ProjectAABB(box(0, 0, -20, 1), vp)
	if far.MinDepth <= near.MinDepth {
		t.Errorf("farther box should have larger depth: near=%f far=%f", near.MinDepth, far.MinDepth)
	}

	behind := ProjectAABB(box(0, 0, 5, 1), vp)
	if !behind.CrossesNear {
		t.Error("box around the eye should cross the near plane")
	}
}

func TestWindowToWorld(t *testing.T) {
	vp := testViewProj()
	inv := vp.Inv()

	p := mgl32.Vec3{0, 0, 0}
	clip := vp.Mul4x1(p.Vec4(1))
	depth := clip[2]/clip[3]*0.5 + 0.5

	got := WindowToWorld(50, 50, depth, 100, 100, inv)
	if got.Sub(p).Len() > 1e-3 {
		t.Errorf("WindowToWorld = %v, want %v", got, p)
	}
}
