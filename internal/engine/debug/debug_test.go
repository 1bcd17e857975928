package debug

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/gpu/gputest"
	"github.com/Faultbox/xrgl/internal/engine/hiz"
	"github.com/Faultbox/xrgl/internal/engine/target"
)

func TestBoxLines(t *testing.T) {
	b := geom.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 2, 3}}
	v := BoxLines(nil, b, 0.5)
	if len(v) != BoxEdgeVertices*3 {
		t.Fatalf("len = %d, want %d", len(v), BoxEdgeVertices*3)
	}
	lo := mgl32.Vec3{v[0], v[1], v[2]}
	if lo != (mgl32.Vec3{-1.5, -1.5, -1.5}) {
		t.Errorf("first vertex = %v, want padded min", lo)
	}
	for i := 0; i < len(v); i += 3 {
		p := mgl32.Vec3{v[i], v[i+1], v[i+2]}
		if p[0] < -1.5 || p[0] > 1.5 || p[1] < -1.5 || p[1] > 2.5 || p[2] < -1.5 || p[2] > 3.5 {
			t.Errorf("vertex %d = %v outside the padded box", i/3, p)
		}
	}
}

func TestBoundsGeometry(t *testing.T) {
	boxes := []geom.AABB{
		{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}},
		geom.EmptyAABB(),
		{Min: mgl32.Vec3{2, 0, 0}, Max: mgl32.Vec3{3, 1, 1}},
	}
	g := BoundsGeometry(boxes, 0)
	if g.Mode != gpu.Lines {
		t.Errorf("mode = %v, want lines", g.Mode)
	}
	if n := g.DrawCount(); n != 2*BoxEdgeVertices {
		t.Errorf("draw count = %d, want %d", n, 2*BoxEdgeVertices)
	}
	if b := g.Bounds(); b.Min != (mgl32.Vec3{0, 0, 0}) || b.Max != (mgl32.Vec3{3, 1, 1}) {
		t.Errorf("bounds = %+v", b)
	}
}

func TestDepthImageFlipsRows(t *testing.T) {
	// Bottom row near, top row far.
	img := DepthImage([]float32{0, 0, 1, 1}, 2, 2)
	if got := img.GrayAt(0, 1); got != (color.Gray{Y: 0}) {
		t.Errorf("bottom-left = %v, want black", got)
	}
	if got := img.GrayAt(1, 0); got != (color.Gray{Y: 255}) {
		t.Errorf("top-right = %v, want white", got)
	}
}

func TestPyramidLevel(t *testing.T) {
	var p hiz.Pyramid
	p.Build([]float32{0, 0.5, 0.25, 1}, 2, 2)
	img := PyramidLevel(&p, p.Count()-1)
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Fatalf("last level = %v, want 1x1", b)
	}
	if got := img.GrayAt(0, 0); got != (color.Gray{Y: 255}) {
		t.Errorf("1x1 level = %v, want the farthest depth", got)
	}
}

func TestUpscale(t *testing.T) {
	src := DepthImage([]float32{0, 1, 1, 0}, 2, 2)
	img, ok := Upscale(src, 3).(*image.Gray)
	if !ok {
		t.Fatal("Upscale did not return a grey image")
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 6 {
		t.Fatalf("bounds = %v, want 6x6", b)
	}
	for _, c := range []struct{ x, y, sx, sy int }{{0, 0, 0, 0}, {5, 0, 1, 0}, {2, 5, 0, 1}, {4, 4, 1, 1}} {
		if got, want := img.GrayAt(c.x, c.y), src.GrayAt(c.sx, c.sy); got != want {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, want)
		}
	}
	if Upscale(src, 1) != image.Image(src) {
		t.Error("factor 1 should return the source")
	}
}

func TestReadColor(t *testing.T) {
	dev := gputest.NewDevice(4, 2)
	tex := dev.Textures[dev.Framebufs[0].Desc.Color[0]]
	// Pixel (0, 0) is the bottom-left of the framebuffer.
	copy(tex.Levels[0][0:4], []float32{1, 0, 0, 1})

	img := ReadColor(dev, target.NewDefault(4, 2))
	if got := img.RGBAAt(0, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom-left = %v, want red", got)
	}
	if got := img.RGBAAt(0, 0); got.R != 0 {
		t.Errorf("top-left = %v, want unset", got)
	}
}

func TestCaptureSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	c := NewCapture(dir, "xrgl")
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC) }

	path, err := c.Save("depth", DepthImage([]float32{0.5}, 1, 1))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := filepath.Join(dir, "xrgl_depth_2026-03-01_12-30-00.png")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved file missing: %v", err)
	}
}
