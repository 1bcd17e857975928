package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// PlanarReflection marks an object as a mirror. The plane passes through the
// object's origin along its local Normal.
type PlanarReflection struct {
	Normal mgl32.Vec3
	// MinScreenArea is the projected UV area below which the reflection is
	// not rendered.
	MinScreenArea float32
	// Size is the edge of the square reflection texture; 0 uses the view size.
	Size int32
}

// Object is one mesh placed in the world with one draw per material.
type Object struct {
	ID   uuid.UUID
	Name string

	geometry  *Geometry
	materials []shading.Material
	world     mgl32.Mat4
	reflect   *PlanarReflection

	visible       bool
	largeOccluder bool

	// version counts every change, content only those that regroup draws.
	version uint64
	content uint64
}

// NewObject creates a visible object at the origin.
func NewObject(name string, g *Geometry, materials ...shading.Material) *Object {
	return &Object{
		ID:        uuid.New(),
		Name:      name,
		geometry:  g,
		materials: materials,
		world:     mgl32.Ident4(),
		visible:   true,
		version:   1,
		content:   1,
	}
}

func (o *Object) Geometry() *Geometry { return o.geometry }

func (o *Object) Materials() []shading.Material { return o.materials }

func (o *Object) World() mgl32.Mat4 { return o.world }

func (o *Object) Visible() bool { return o.visible }

// LargeOccluder marks objects drawn into the depth pre-pass and tracked by
// the occlusion cull.
func (o *Object) LargeOccluder() bool { return o.largeOccluder }

func (o *Object) Reflection() *PlanarReflection { return o.reflect }

// Version increases on any mutation.
func (o *Object) Version() uint64 { return o.version }

// ContentVersion increases when the object's draws must be regrouped.
func (o *Object) ContentVersion() uint64 { return o.content }

func (o *Object) touchContent() {
	o.version++
	o.content++
}

// SetWorld moves the object.
func (o *Object) SetWorld(m mgl32.Mat4) {
	o.world = m
	o.version++
}

func (o *Object) SetVisible(v bool) {
	if o.visible == v {
		return
	}
	o.visible = v
	o.version++
}

func (o *Object) SetLargeOccluder(v bool) {
	if o.largeOccluder == v {
		return
	}
	o.largeOccluder = v
	o.touchContent()
}

func (o *Object) SetGeometry(g *Geometry) {
	o.geometry = g
	o.touchContent()
}

func (o *Object) SetMaterials(m ...shading.Material) {
	o.materials = m
	o.touchContent()
}

func (o *Object) SetReflection(r *PlanarReflection) {
	o.reflect = r
	o.touchContent()
}

// WorldBounds returns the world-space bounds of the geometry.
func (o *Object) WorldBounds() geom.AABB {
	if o.geometry == nil {
		return geom.EmptyAABB()
	}
	return o.geometry.Bounds().Transform(o.world)
}

// ReflectionPlane returns the world-space mirror plane. ok is false when the
// object is not a mirror.
func (o *Object) ReflectionPlane() (geom.Plane, bool) {
	if o.reflect == nil {
		return geom.Plane{}, false
	}
	origin := o.world.Col(3).Vec3()
	n := o.world.Mat3().Mul3x1(o.reflect.Normal).Normalize()
	return geom.NewPlane(n, origin), true
}
