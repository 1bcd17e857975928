// Package scene holds the objects the renderer draws: versioned objects
// grouped in layers, and the scene that owns the layers and lights.
package scene

import (
	"slices"

	"github.com/Faultbox/xrgl/internal/engine/lighting"
)

// LayerKind tells the renderer which passes consume a layer.
type LayerKind int

const (
	LayerMain LayerKind = iota
	LayerReflection
	LayerOutline
)

func (k LayerKind) String() string {
	switch k {
	case LayerReflection:
		return "reflection"
	case LayerOutline:
		return "outline"
	default:
		return "main"
	}
}

// ChangeKind is the kind of a layer change notification.
type ChangeKind int

const (
	ObjectAdded ChangeKind = iota
	ObjectRemoved
)

// Change describes one structural layer change.
type Change struct {
	Kind   ChangeKind
	Object *Object
}

// Layer is an ordered list of objects.
type Layer struct {
	Name string
	Kind LayerKind

	objects   []*Object
	version   uint64
	listeners map[int]func(Change)
	nextID    int
}

// NewLayer creates an empty layer.
func NewLayer(name string, kind LayerKind) *Layer {
	return &Layer{Name: name, Kind: kind, listeners: make(map[int]func(Change))}
}

// Objects returns the layer's objects in insertion order.
func (l *Layer) Objects() []*Object { return l.objects }

// Version changes when objects are added or removed, or when an object's
// draws need regrouping. Transform and visibility edits leave it unchanged.
func (l *Layer) Version() uint64 {
	v := l.version
	for _, o := range l.objects {
		v += o.ContentVersion()
	}
	return v
}

// Add appends o. Adding an object twice is a no-op.
func (l *Layer) Add(o *Object) {
	if slices.Contains(l.objects, o) {
		return
	}
	l.objects = append(l.objects, o)
	l.version++
	l.notify(Change{Kind: ObjectAdded, Object: o})
}

// Remove deletes o from the layer.
func (l *Layer) Remove(o *Object) {
	i := slices.Index(l.objects, o)
	if i < 0 {
		return
	}
	l.objects = slices.Delete(l.objects, i, i+1)
	// Keep the sum monotonic although o's content version leaves it.
	l.version += o.ContentVersion() + 1
	l.notify(Change{Kind: ObjectRemoved, Object: o})
}

// Subscribe registers fn for structural changes and returns a function
// removing it.
func (l *Layer) Subscribe(fn func(Change)) func() {
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() { delete(l.listeners, id) }
}

func (l *Layer) notify(c Change) {
	for _, fn := range l.listeners {
		fn(c)
	}
}

// Scene is a main layer, optional extra layers and the lights.
type Scene struct {
	Name   string
	Main   *Layer
	Lights *lighting.Set

	layers []*Layer
}

// New creates a scene with an empty main layer and light set.
func New(name string) *Scene {
	main := NewLayer("main", LayerMain)
	return &Scene{
		Name:   name,
		Main:   main,
		Lights: lighting.NewSet(),
		layers: []*Layer{main},
	}
}

// AddLayer appends a layer.
func (s *Scene) AddLayer(l *Layer) {
	if !slices.Contains(s.layers, l) {
		s.layers = append(s.layers, l)
	}
}

// Layers returns all layers, main first.
func (s *Scene) Layers() []*Layer { return s.layers }

// LayersOf returns the layers of the given kind.
func (s *Scene) LayersOf(kind LayerKind) []*Layer {
	var out []*Layer
	for _, l := range s.layers {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// Version aggregates the layer and light versions.
func (s *Scene) Version() uint64 {
	v := s.Lights.Version()
	for _, l := range s.layers {
		v += l.Version()
	}
	return v
}
