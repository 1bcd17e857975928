// Package lighting provides the light set consumed by the render passes.
package lighting

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// MaxPointLights is the number of point lights the lights block holds.
const MaxPointLights = 8

// DirectionalLight is an infinitely distant light such as the sun.
type DirectionalLight struct {
	Name string
	// Direction points from the scene towards the light.
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Intensity   float32
	CastShadows bool
}

// PointLight radiates from a position with a finite range.
type PointLight struct {
	Name      string
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Range     float32
}

// Set is the collection of lights a scene is lit by.
type Set struct {
	Ambient     mgl32.Vec3
	Directional []*DirectionalLight
	Points      []*PointLight

	version uint64
}

// NewSet returns a set with a dim grey ambient term.
func NewSet() *Set {
	return &Set{Ambient: mgl32.Vec3{0.2, 0.2, 0.2}}
}

// AddDirectional appends a directional light.
func (s *Set) AddDirectional(l *DirectionalLight) {
	s.Directional = append(s.Directional, l)
	s.version++
}

// AddPoint appends a point light. Lights past MaxPointLights are kept but
// not uploaded.
func (s *Set) AddPoint(l *PointLight) {
	s.Points = append(s.Points, l)
	s.version++
}

// Touch marks the set changed after a light was edited in place.
func (s *Set) Touch() { s.version++ }

// Version increases on every change.
func (s *Set) Version() uint64 { return s.version }

// ShadowCaster returns the first directional light casting shadows, or nil.
func (s *Set) ShadowCaster() *DirectionalLight {
	for _, l := range s.Directional {
		if l.CastShadows && l.Intensity > 0 {
			return l
		}
	}
	return nil
}

// Pack writes the lights block:
//
//	vec3 ambient; int pointCount;
//	vec3 sunDir;  float sunIntensity;
//	vec3 sunColor;
//	{ vec3 position; float range; vec3 color; float intensity; } points[8];
func (s *Set) Pack(w *gpu.BlockWriter) {
	w.Vec3(s.Ambient)
	w.Int(int32(min(len(s.Points), MaxPointLights)))

	var sun DirectionalLight
	if len(s.Directional) > 0 {
		sun = *s.Directional[0]
	}
	if sun.Direction.Len() > 0 {
		sun.Direction = sun.Direction.Normalize()
	}
	w.Vec3(sun.Direction)
	w.Float(sun.Intensity)
	w.Vec3(sun.Color)

	for i := 0; i < MaxPointLights; i++ {
		var p PointLight
		if i < len(s.Points) {
			p = *s.Points[i]
		}
		w.Vec3(p.Position)
		w.Float(p.Range)
		w.Vec3(p.Color)
		w.Float(p.Intensity)
	}
}

// BlockSize is the packed size of the lights block.
const BlockSize = 16*3 + MaxPointLights*32
