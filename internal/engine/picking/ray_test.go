package picking

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

func TestIntersectAABB(t *testing.T) {
	box := geom.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"front", Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}, true, 4},
		{"inside", Ray{Origin: mgl32.Vec3{0, 0, 0}, Direction: mgl32.Vec3{1, 0, 0}}, true, 1},
		{"behind", Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, 1}}, false, 0},
		{"parallel outside", Ray{Origin: mgl32.Vec3{0, 2, 5}, Direction: mgl32.Vec3{0, 0, -1}}, false, 0},
		{"miss", Ray{Origin: mgl32.Vec3{3, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}, false, 0},
	}
	for _, tt := range tests {
		got, hit := tt.ray.IntersectAABB(box)
		if hit != tt.hit {
			t.Errorf("%s: hit = %v, want %v", tt.name, hit, tt.hit)
			continue
		}
		if hit && mgl32.Abs(got-tt.wantT) > 1e-5 {
			t.Errorf("%s: t = %v, want %v", tt.name, got, tt.wantT)
		}
	}
}

func TestScreenToRayThroughCentre(t *testing.T) {
	cam := camera.NewPerspective(mgl32.DegToRad(60), 1, 0.1, 100, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	size := camera.Size{Width: 64, Height: 64}

	r := ScreenToRay(32, 32, size, cam.InverseViewProjection())
	if d := r.Direction.Sub(mgl32.Vec3{0, 0, -1}).Len(); d > 1e-3 {
		t.Errorf("centre direction = %v, want -Z", r.Direction)
	}
	if r.Origin.Z() > 5 || r.Origin.Z() < 4.8 {
		t.Errorf("origin = %v, want on the near plane", r.Origin)
	}

	// Top of the window points up.
	if up := ScreenToRay(32, 0, size, cam.InverseViewProjection()); up.Direction.Y() <= 0 {
		t.Errorf("top row direction = %v, want +Y", up.Direction)
	}
}

func TestPickNearest(t *testing.T) {
	s := scene.New("pick")
	m := shading.NewColorMaterial(mgl32.Vec4{1, 1, 1, 1})
	far := scene.NewObject("far", scene.Box(mgl32.Vec3{1, 1, 1}), m)
	near := scene.NewObject("near", scene.Box(mgl32.Vec3{1, 1, 1}), m)
	near.SetWorld(mgl32.Translate3D(0, 0, 2))
	hidden := scene.NewObject("hidden", scene.Box(mgl32.Vec3{1, 1, 1}), m)
	hidden.SetWorld(mgl32.Translate3D(0, 0, 3))
	hidden.SetVisible(false)
	s.Main.Add(far)
	s.Main.Add(near)
	s.Main.Add(hidden)

	r := Ray{Origin: mgl32.Vec3{0, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}
	hit, ok := Pick(s, r)
	if !ok || hit.Object != near {
		t.Fatalf("Pick = %+v, want the near box", hit)
	}
	if d := hit.Position.Sub(mgl32.Vec3{0, 0, 2.5}).Len(); d > 1e-4 {
		t.Errorf("position = %v, want the near face", hit.Position)
	}

	if _, ok := Pick(s, Ray{Origin: mgl32.Vec3{5, 0, 10}, Direction: mgl32.Vec3{0, 0, -1}}); ok {
		t.Error("hit with a ray beside every box")
	}
}
