package program

import (
	"strings"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// binding is the program an instance resolved for one pass variant.
type binding struct {
	program         *Program
	req             *requirements
	materialVersion uint64
	globalVersion   uint64
	generation      uint64
}

// Instance binds one material to its compiled program and owns the buffers
// scoped to the material and to each object drawn with it.
type Instance struct {
	dev      gpu.Device
	material shading.Material
	cache    *Cache
	global   *Global

	bound   map[string]*binding
	current *binding
	last    *Program

	materialBuffers *BufferMap
	uploaded        uint64
	models          map[any]*BufferMap
}

// NewInstance binds m. global may be nil for materials without shader-scope
// state.
func NewInstance(dev gpu.Device, m shading.Material, cache *Cache, global *Global) *Instance {
	return &Instance{
		dev:             dev,
		material:        m,
		cache:           cache,
		global:          global,
		bound:           make(map[string]*binding),
		materialBuffers: NewBufferMap(dev),
		models:          make(map[any]*BufferMap),
	}
}

func (in *Instance) Material() shading.Material { return in.material }

func (in *Instance) Global() *Global { return in.global }

// Program returns the program bound by the last UpdateProgram.
func (in *Instance) Program() *Program {
	if in.current == nil {
		return nil
	}
	return in.current.program
}

// UpdateProgram resolves the program for ctx.Variant. It reports whether the
// program differs from the one used last time. Features of the variant that
// the shader does not know are ignored.
func (in *Instance) UpdateProgram(ctx *shading.UpdateContext) bool {
	key := strings.Join(ctx.Variant, ",")
	b := in.bound[key]
	if b == nil || b.materialVersion != in.material.Version() ||
		b.globalVersion != in.global.Version() || b.generation != in.cache.Generation() {
		b = in.resolve(ctx)
		in.bound[key] = b
	}
	in.current = b
	changed := b.program != in.last
	in.last = b.program
	return changed
}

func (in *Instance) resolve(ctx *shading.UpdateContext) *binding {
	s := in.material.Shader()
	req := newRequirements(s)
	in.material.UpdateShader(req)
	req.merge(in.global.requirements())
	for _, v := range ctx.Variant {
		if s.Supports(v) {
			req.AddFeature(v, "")
		}
	}
	return &binding{
		program:         in.cache.Get(s, req.sortedFeatures(), req.sortedExtensions(), in.material.TypeTag()),
		req:             req,
		materialVersion: in.material.Version(),
		globalVersion:   in.global.Version(),
		generation:      in.cache.Generation(),
	}
}

// Use makes the program current. When it was not current already the global
// buffers and textures are bound again and true is returned.
func (in *Instance) Use(sc *gpu.StateCache, ctx *shading.UpdateContext) bool {
	b := in.mustCurrent()
	if !sc.UseProgram(b.program.Handle) {
		return false
	}
	in.global.Apply()
	for _, t := range b.req.textures {
		if t.scope == shading.ScopeGlobal {
			in.dev.BindTexture(t.unit, t.fn(ctx), false)
		}
	}
	return true
}

// UpdateMaterial uploads the material buffers when the material changed since
// the last upload, then binds them.
func (in *Instance) UpdateMaterial(ctx *shading.UpdateContext) {
	b := in.mustCurrent()
	dirty := in.uploaded != in.material.Version()
	for _, d := range b.req.buffers {
		if d.scope != shading.ScopeMaterial {
			continue
		}
		buf := in.materialBuffers.Get(d.block, gpu.UniformBuffer, d.binding)
		if dirty || buf.Size() == 0 {
			buf.Fill(ctx, d.size, d.fill)
		}
		buf.Bind()
	}
	in.uploaded = in.material.Version()
	for _, t := range b.req.textures {
		if t.scope == shading.ScopeMaterial {
			in.dev.BindTexture(t.unit, t.fn(ctx), false)
		}
	}
}

// UpdateModel fills and binds the per-object buffers of owner: the model
// block plus any model-scope block of the material.
func (in *Instance) UpdateModel(ctx *shading.UpdateContext, owner any) {
	b := in.mustCurrent()
	m := in.models[owner]
	if m == nil {
		m = NewBufferMap(in.dev)
		in.models[owner] = m
	}
	model := m.Get("ModelBlock", gpu.UniformBuffer, gpu.BindingModel)
	model.Fill(ctx, gpu.ModelBlockSize, WriteModel)
	model.Bind()
	for _, d := range b.req.buffers {
		if d.scope != shading.ScopeModel {
			continue
		}
		buf := m.Get(d.block, gpu.UniformBuffer, d.binding)
		buf.Fill(ctx, d.size, d.fill)
		buf.Bind()
	}
	for _, t := range b.req.textures {
		if t.scope == shading.ScopeModel {
			in.dev.BindTexture(t.unit, t.fn(ctx), false)
		}
	}
}

// WriteModel packs the model block: model matrix, normal matrix and draw id.
func WriteModel(ctx *shading.UpdateContext, w *gpu.BlockWriter) {
	normal := ctx.Model.Mat3().Inv().Transpose().Mat4()
	w.Mat4(ctx.Model).Mat4(normal).Int(ctx.DrawID)
}

// Buffer returns the buffer named name in scope, or nil when it was never
// filled. owner selects the object for model scope.
func (in *Instance) Buffer(name string, scope shading.Scope, owner any) *Buffer {
	switch scope {
	case shading.ScopeGlobal:
		return in.global.Buffer(name)
	case shading.ScopeModel:
		if m := in.models[owner]; m != nil {
			return m.buffers[name]
		}
		return nil
	default:
		return in.materialBuffers.buffers[name]
	}
}

// Release drops the buffers of one object.
func (in *Instance) Release(owner any) {
	if m := in.models[owner]; m != nil {
		m.Dispose()
		delete(in.models, owner)
	}
}

// Dispose deletes every buffer the instance owns. Programs stay in the cache.
func (in *Instance) Dispose() {
	in.materialBuffers.Dispose()
	for owner, m := range in.models {
		m.Dispose()
		delete(in.models, owner)
	}
	clear(in.bound)
	in.current, in.last = nil, nil
}

func (in *Instance) mustCurrent() *binding {
	if in.current == nil {
		gpu.Usagef("program.Instance", "material %s used before UpdateProgram", in.material.TypeTag())
	}
	return in.current
}
