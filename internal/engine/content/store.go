package content

import (
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

type storeKey struct {
	layer *scene.Layer
	kind  Kind
}

// Store owns the trees of every layer a renderer has seen, one per layer and
// kind, created on first use.
type Store struct {
	dev      gpu.Device
	cache    *program.Cache
	registry *program.Registry
	trees    map[storeKey]*Tree
}

func NewStore(dev gpu.Device, cache *program.Cache, registry *program.Registry) *Store {
	return &Store{
		dev:      dev,
		cache:    cache,
		registry: registry,
		trees:    make(map[storeKey]*Tree),
	}
}

// Tree returns the tree of layer for kind, rebuilt if the layer changed.
func (s *Store) Tree(layer *scene.Layer, kind Kind) *Tree {
	k := storeKey{layer, kind}
	t := s.trees[k]
	if t == nil {
		t = NewTree(s.dev, s.cache, s.registry, layer, kind)
		s.trees[k] = t
	}
	t.Rebuild()
	return t
}

// Len returns the number of trees.
func (s *Store) Len() int { return len(s.trees) }

// Forget disposes the trees of a layer that is no longer rendered.
func (s *Store) Forget(layer *scene.Layer) {
	for k, t := range s.trees {
		if k.layer == layer {
			t.Dispose()
			delete(s.trees, k)
		}
	}
}

func (s *Store) ReleaseMaterial(m shading.Material) {
	for _, t := range s.trees {
		t.ReleaseMaterial(m)
	}
}

func (s *Store) ReleaseObject(o *scene.Object) {
	for _, t := range s.trees {
		t.ReleaseObject(o)
	}
}

func (s *Store) Dispose() {
	for k, t := range s.trees {
		t.Dispose()
		delete(s.trees, k)
	}
}
