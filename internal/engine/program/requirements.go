package program

import (
	"slices"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

type bufferDecl struct {
	block   string
	binding uint32
	scope   shading.Scope
	size    int
	fill    func(*shading.UpdateContext, *gpu.BlockWriter)
}

type textureDecl struct {
	name  string
	unit  uint32
	scope shading.Scope
	fn    func(*shading.UpdateContext) gpu.Handle
}

// requirements implements shading.Builder.
type requirements struct {
	shader     *shading.Shader
	features   map[string]string
	extensions map[string]bool
	buffers    []bufferDecl
	textures   []textureDecl
}

func newRequirements(s *shading.Shader) *requirements {
	return &requirements{
		shader:     s,
		features:   make(map[string]string),
		extensions: make(map[string]bool),
	}
}

func (r *requirements) AddFeature(name, value string) {
	if !r.shader.Supports(name) {
		configPanic(r.shader.ID, nil, "feature %s is not supported", name)
	}
	if prev, ok := r.features[name]; ok && prev != value {
		configPanic(r.shader.ID, nil, "feature %s set to both %q and %q", name, prev, value)
	}
	r.features[name] = value
}

func (r *requirements) AddExtension(name string) {
	r.extensions[name] = true
}

func (r *requirements) AddBuffer(block string, binding uint32, scope shading.Scope, size int, fill func(*shading.UpdateContext, *gpu.BlockWriter)) {
	for _, b := range r.buffers {
		if b.binding == binding && b.block != block {
			configPanic(r.shader.ID, nil, "blocks %s and %s share binding %d", b.block, block, binding)
		}
	}
	r.buffers = append(r.buffers, bufferDecl{block: block, binding: binding, scope: scope, size: size, fill: fill})
}

func (r *requirements) AddTexture(name string, unit uint32, scope shading.Scope, fn func(*shading.UpdateContext) gpu.Handle) {
	r.textures = append(r.textures, textureDecl{name: name, unit: unit, scope: scope, fn: fn})
}

// merge copies the features and extensions of o into r.
func (r *requirements) merge(o *requirements) {
	if o == nil {
		return
	}
	for n, v := range o.features {
		r.AddFeature(n, v)
	}
	for e := range o.extensions {
		r.extensions[e] = true
	}
}

func (r *requirements) sortedFeatures() []shading.Feature {
	out := make([]shading.Feature, 0, len(r.features))
	for n, v := range r.features {
		out = append(out, shading.Feature{Name: n, Value: v})
	}
	SortFeatures(out)
	return out
}

func (r *requirements) sortedExtensions() []string {
	out := make([]string, 0, len(r.extensions))
	for e := range r.extensions {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}
