package program

import (
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// Global holds the shader-scope state shared by every material of one shader
// inside a content tree: lights, shadow data and anything else the
// registered GlobalUpdate asks for.
type Global struct {
	dev     gpu.Device
	shader  *shading.Shader
	update  GlobalUpdate
	buffers *BufferMap

	req     *requirements
	ctx     *shading.UpdateContext
	frame   uint64
	pass    string
	hash    uint64
	version uint64
}

// NewGlobal returns the global state of s. The update registered for
// typeTag is used; a type without one has no globals.
func NewGlobal(dev gpu.Device, s *shading.Shader, registry *Registry, typeTag string) *Global {
	update, _ := registry.Lookup(typeTag)
	return &Global{
		dev:     dev,
		shader:  s,
		update:  update,
		buffers: NewBufferMap(dev),
		req:     newRequirements(s),
	}
}

// Update refreshes the global buffers. Repeated calls for the same frame and
// pass do nothing.
func (g *Global) Update(ctx *shading.UpdateContext) {
	if g.ctx != nil && g.frame == ctx.Frame && g.pass == ctx.Pass {
		return
	}
	g.frame, g.pass, g.ctx = ctx.Frame, ctx.Pass, ctx

	req := newRequirements(g.shader)
	if g.update != nil {
		g.update(req, ctx)
	}
	for _, d := range req.buffers {
		g.buffers.Get(d.block, gpu.UniformBuffer, d.binding).Fill(ctx, d.size, d.fill)
	}
	if h := FeaturesHash(g.shader.ID, req.sortedFeatures(), req.sortedExtensions(), ""); h != g.hash || g.version == 0 {
		g.hash = h
		g.version++
	}
	g.req = req
}

// Version changes whenever the global feature set changes.
func (g *Global) Version() uint64 {
	if g == nil {
		return 0
	}
	return g.version
}

// Apply binds the global buffers and textures.
func (g *Global) Apply() {
	if g == nil || g.ctx == nil {
		return
	}
	for _, d := range g.req.buffers {
		g.buffers.Get(d.block, gpu.UniformBuffer, d.binding).Bind()
	}
	for _, t := range g.req.textures {
		g.dev.BindTexture(t.unit, t.fn(g.ctx), false)
	}
}

// Buffer returns a global buffer created by an earlier Update, or nil.
func (g *Global) Buffer(name string) *Buffer {
	if g == nil {
		return nil
	}
	return g.buffers.buffers[name]
}

func (g *Global) requirements() *requirements {
	if g == nil {
		return nil
	}
	return g.req
}

// Dispose deletes the global buffers.
func (g *Global) Dispose() {
	if g != nil {
		g.buffers.Dispose()
	}
}
