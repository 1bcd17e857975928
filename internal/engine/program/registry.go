package program

import "github.com/Faultbox/xrgl/internal/engine/shading"

// GlobalUpdate describes the shader-global requirements of one material
// type for the current frame.
type GlobalUpdate func(b shading.Builder, ctx *shading.UpdateContext)

// Registry maps material type tags to their shader-global update. It is
// filled once at startup.
type Registry struct {
	updates map[string]GlobalUpdate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{updates: make(map[string]GlobalUpdate)}
}

// Register sets the update of a type tag, replacing any previous one.
func (r *Registry) Register(typeTag string, fn GlobalUpdate) {
	r.updates[typeTag] = fn
}

// Lookup returns the update registered for typeTag.
func (r *Registry) Lookup(typeTag string) (GlobalUpdate, bool) {
	if r == nil {
		return nil, false
	}
	fn, ok := r.updates[typeTag]
	return fn, ok
}
