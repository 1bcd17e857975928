// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/geom"
)

// Size is a viewport size in pixels.
type Size struct {
	Width  int
	Height int
}

// Eye is one stereo eye's view and projection.
type Eye struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// Camera holds the matrices the renderer needs for one view.
type Camera struct {
	Name       string
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Near       float32
	Far        float32
	ViewSize   Size
	Background mgl32.Vec4

	// Eyes is empty for a mono camera and holds two entries for stereo.
	Eyes []Eye
	// ActiveEye selects which entry of Eyes drives View/Projection when
	// rendering one eye at a time.
	ActiveEye int

	// Orthographic marks a parallel projection (light cameras).
	Orthographic bool
}

// NewPerspective creates a camera with a perspective projection looking
// from eye towards target.
func NewPerspective(fovY, aspect, near, far float32, eye, target, up mgl32.Vec3) *Camera {
	return &Camera{
		View:       mgl32.LookAtV(eye, target, up),
		Projection: mgl32.Perspective(fovY, aspect, near, far),
		Near:       near,
		Far:        far,
		Background: mgl32.Vec4{0.15, 0.15, 0.2, 1},
	}
}

// NewOrtho creates a camera with an orthographic projection.
func NewOrtho(view mgl32.Mat4, left, right, bottom, top, near, far float32) *Camera {
	return &Camera{
		View:         view,
		Projection:   mgl32.Ortho(left, right, bottom, top, near, far),
		Near:         near,
		Far:          far,
		Orthographic: true,
	}
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// InverseViewProjection returns the inverse of ViewProjection.
func (c *Camera) InverseViewProjection() mgl32.Mat4 {
	return c.ViewProjection().Inv()
}

// Position returns the camera position in world space.
func (c *Camera) Position() mgl32.Vec3 {
	return c.View.Inv().Col(3).Vec3()
}

// Forward returns the world-space viewing direction.
func (c *Camera) Forward() mgl32.Vec3 {
	return c.View.Inv().Col(2).Vec3().Mul(-1).Normalize()
}

// Frustum returns the six clip planes of the current view.
func (c *Camera) Frustum() geom.Frustum {
	return geom.FrustumFromMatrix(c.ViewProjection())
}

// FrustumCorners returns the eight world-space frustum corners.
func (c *Camera) FrustumCorners() [8]mgl32.Vec3 {
	return geom.FrustumCorners(c.InverseViewProjection())
}

// IsStereo reports whether the camera carries two eye transforms.
func (c *Camera) IsStereo() bool {
	return len(c.Eyes) >= 2
}

// IsPrimaryEye reports whether the camera currently renders the first eye.
// Mono cameras are always primary.
func (c *Camera) IsPrimaryEye() bool {
	return !c.IsStereo() || c.ActiveEye == 0
}

// ForEye returns a copy of the camera with View/Projection taken from the
// given eye. Mono cameras are returned unchanged.
func (c *Camera) ForEye(i int) *Camera {
	if i < 0 || i >= len(c.Eyes) {
		return c
	}
	cp := *c
	cp.View = c.Eyes[i].View
	cp.Projection = c.Eyes[i].Projection
	cp.ActiveEye = i
	return &cp
}

// Aspect returns the viewport aspect ratio.
func (c *Camera) Aspect() float32 {
	if c.ViewSize.Height == 0 {
		return 1
	}
	return float32(c.ViewSize.Width) / float32(c.ViewSize.Height)
}

// Reflect returns a camera mirrored about the plane. The mirrored view flips
// triangle winding, so callers must swap face culling.
func (c *Camera) Reflect(p geom.Plane) *Camera {
	n := p.Normal
	d := p.D
	r := mgl32.Mat4{
		1 - 2*n[0]*n[0], -2 * n[1] * n[0], -2 * n[2] * n[0], 0,
		-2 * n[0] * n[1], 1 - 2*n[1]*n[1], -2 * n[2] * n[1], 0,
		-2 * n[0] * n[2], -2 * n[1] * n[2], 1 - 2*n[2]*n[2], 0,
		-2 * d * n[0], -2 * d * n[1], -2 * d * n[2], 1,
	}
	cp := *c
	cp.Name = c.Name + "/reflection"
	cp.View = c.View.Mul4(r)
	cp.Eyes = nil
	for _, e := range c.Eyes {
		cp.Eyes = append(cp.Eyes, Eye{View: e.View.Mul4(r), Projection: e.Projection})
	}
	return &cp
}
