// Package glgpu implements gpu.Device on desktop OpenGL 4.3 core.
package glgpu

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// Device issues commands to the OpenGL context current on the calling thread.
type Device struct {
	caps     gpu.Capabilities
	emptyVAO uint32
	debug    func(gpu.Diagnostic)
}

// New loads the GL function pointers for the current context.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init OpenGL: %w", err)
	}

	d := &Device{}
	d.caps.Version = gl.GoStr(gl.GetString(gl.VERSION))
	d.caps.Renderer = gl.GoStr(gl.GetString(gl.RENDERER))

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	es := strings.Contains(d.caps.Version, "OpenGL ES")
	d.caps.Compute = !es && (major > 4 || (major == 4 && minor >= 3))
	d.caps.MultiView = !es && major >= 4
	gl.GetIntegerv(gl.MAX_SAMPLES, &d.caps.MaxSamples)

	gl.GenVertexArrays(1, &d.emptyVAO)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	return d, nil
}

// Capabilities implements gpu.Device.
func (d *Device) Capabilities() gpu.Capabilities { return d.caps }

func ptr[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return gl.Ptr(s)
}

func bufferTarget(k gpu.BufferKind) uint32 {
	switch k {
	case gpu.StorageBuffer:
		return gl.SHADER_STORAGE_BUFFER
	case gpu.ArrayBuffer:
		return gl.ARRAY_BUFFER
	case gpu.ElementBuffer:
		return gl.ELEMENT_ARRAY_BUFFER
	default:
		return gl.UNIFORM_BUFFER
	}
}

func (d *Device) SetUniformInt(loc int32, v int32) { gl.Uniform1i(loc, v) }

func (d *Device) SetUniformFloat(loc int32, v float32) { gl.Uniform1f(loc, v) }

func (d *Device) SetUniformVec2(loc int32, v mgl32.Vec2) { gl.Uniform2f(loc, v[0], v[1]) }

func (d *Device) SetUniformVec4(loc int32, v mgl32.Vec4) { gl.Uniform4f(loc, v[0], v[1], v[2], v[3]) }

func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) { gl.UniformMatrix4fv(loc, 1, false, &m[0]) }

func (d *Device) CreateBuffer() gpu.Handle {
	var b uint32
	gl.GenBuffers(1, &b)
	return gpu.Handle(b)
}

func (d *Device) BufferData(kind gpu.BufferKind, b gpu.Handle, data []byte, size int) {
	target := bufferTarget(kind)
	if data != nil {
		size = len(data)
	}
	usage := uint32(gl.DYNAMIC_DRAW)
	if kind == gpu.StorageBuffer {
		usage = gl.DYNAMIC_COPY
	}
	gl.BindBuffer(target, uint32(b))
	gl.BufferData(target, size, ptr(data), usage)
}

func (d *Device) BufferSubData(kind gpu.BufferKind, b gpu.Handle, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	target := bufferTarget(kind)
	gl.BindBuffer(target, uint32(b))
	gl.BufferSubData(target, offset, len(data), gl.Ptr(data))
}

func (d *Device) ReadBufferData(kind gpu.BufferKind, b gpu.Handle, offset int, dst []byte) {
	if len(dst) == 0 {
		return
	}
	target := bufferTarget(kind)
	gl.BindBuffer(target, uint32(b))
	gl.GetBufferSubData(target, offset, len(dst), gl.Ptr(dst))
}

func (d *Device) BindBufferBase(kind gpu.BufferKind, binding uint32, b gpu.Handle) {
	gl.BindBufferBase(bufferTarget(kind), binding, uint32(b))
}

func (d *Device) DeleteBuffer(b gpu.Handle) {
	h := uint32(b)
	gl.DeleteBuffers(1, &h)
}

func (d *Device) CreateVertexArray(desc gpu.VertexArrayDesc) gpu.Handle {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	d.upload(vao, desc)
	return gpu.Handle(vao)
}

// UpdateVertexArray replaces the vertex and index storage of va.
func (d *Device) UpdateVertexArray(va gpu.Handle, desc gpu.VertexArrayDesc) {
	d.upload(uint32(va), desc)
}

// upload creates fresh buffers for the vertex array. They are flagged for
// deletion right away and live as long as the VAO references them.
func (d *Device) upload(vao uint32, desc gpu.VertexArrayDesc) {
	gl.BindVertexArray(vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(desc.Vertices)*4, ptr(desc.Vertices), gl.STATIC_DRAW)

	for _, a := range desc.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, desc.Stride, uintptr(a.Offset))
	}

	if len(desc.Indices) > 0 {
		var ebo uint32
		gl.GenBuffers(1, &ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(desc.Indices)*4, ptr(desc.Indices), gl.STATIC_DRAW)
		defer gl.DeleteBuffers(1, &ebo)
	}

	gl.BindVertexArray(0)
	gl.DeleteBuffers(1, &vbo)
}

func (d *Device) BindVertexArray(va gpu.Handle) { gl.BindVertexArray(uint32(va)) }

func (d *Device) DeleteVertexArray(va gpu.Handle) {
	h := uint32(va)
	gl.DeleteVertexArrays(1, &h)
}

func primitive(p gpu.Primitive) uint32 {
	switch p {
	case gpu.Lines:
		return gl.LINES
	case gpu.Points:
		return gl.POINTS
	case gpu.TriangleStrip:
		return gl.TRIANGLE_STRIP
	default:
		return gl.TRIANGLES
	}
}

func (d *Device) Draw(mode gpu.Primitive, count int32, indexed bool) {
	if indexed {
		gl.DrawElements(primitive(mode), count, gl.UNSIGNED_INT, nil)
		return
	}
	gl.DrawArrays(primitive(mode), 0, count)
}

// DrawFullscreen draws one triangle covering the viewport; the vertex shader
// derives positions from gl_VertexID.
func (d *Device) DrawFullscreen() {
	gl.BindVertexArray(d.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

type texFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

func textureFormat(f gpu.TextureFormat) texFormat {
	switch f {
	case gpu.FormatRG16F:
		return texFormat{gl.RG16F, gl.RG, gl.FLOAT}
	case gpu.FormatR32F:
		return texFormat{gl.R32F, gl.RED, gl.FLOAT}
	case gpu.FormatRGBA32F:
		return texFormat{gl.RGBA32F, gl.RGBA, gl.FLOAT}
	case gpu.FormatDepth24:
		return texFormat{gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.FLOAT}
	case gpu.FormatDepth32F:
		return texFormat{gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT}
	case gpu.FormatDepth24Stencil8:
		return texFormat{gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8}
	default:
		return texFormat{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE}
	}
}

func textureTarget(desc gpu.TextureDesc) uint32 {
	if desc.Layers > 1 {
		return gl.TEXTURE_2D_ARRAY
	}
	return gl.TEXTURE_2D
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) gpu.Handle {
	var t uint32
	gl.GenTextures(1, &t)
	d.allocate(t, desc)
	return gpu.Handle(t)
}

func (d *Device) ResizeTexture(t gpu.Handle, desc gpu.TextureDesc) {
	d.allocate(uint32(t), desc)
}

// allocate (re)specifies mutable storage for every level of t.
func (d *Device) allocate(t uint32, desc gpu.TextureDesc) {
	target := textureTarget(desc)
	tf := textureFormat(desc.Format)
	levels := max(desc.Levels, 1)

	gl.BindTexture(target, t)
	for l := int32(0); l < levels; l++ {
		w, h := max(desc.Width>>l, 1), max(desc.Height>>l, 1)
		if target == gl.TEXTURE_2D_ARRAY {
			gl.TexImage3D(target, l, tf.internal, w, h, desc.Layers, 0, tf.format, tf.xtype, nil)
		} else {
			gl.TexImage2D(target, l, tf.internal, w, h, 0, tf.format, tf.xtype, nil)
		}
	}
	gl.TexParameteri(target, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(target, gl.TEXTURE_MAX_LEVEL, levels-1)

	filter := int32(gl.NEAREST)
	minFilter := int32(gl.NEAREST)
	if desc.Filter == gpu.FilterLinear {
		filter, minFilter = gl.LINEAR, gl.LINEAR
	}
	if levels > 1 {
		minFilter = gl.NEAREST_MIPMAP_NEAREST
	}
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, filter)

	if desc.ClampToBorder {
		// White border so lookups outside a shadow map are lit.
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_BORDER)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_BORDER)
		border := []float32{1, 1, 1, 1}
		gl.TexParameterfv(target, gl.TEXTURE_BORDER_COLOR, &border[0])
	} else {
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	if desc.CompareRef {
		gl.TexParameteri(target, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
		gl.TexParameteri(target, gl.TEXTURE_COMPARE_FUNC, gl.LEQUAL)
	}
	gl.BindTexture(target, 0)
}

func (d *Device) BindTexture(unit uint32, t gpu.Handle, layered bool) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	if layered {
		gl.BindTexture(gl.TEXTURE_2D_ARRAY, uint32(t))
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *Device) BindImageTexture(unit uint32, t gpu.Handle, level int32, access gpu.Access, format gpu.TextureFormat) {
	a := uint32(gl.READ_ONLY)
	switch access {
	case gpu.WriteOnly:
		a = gl.WRITE_ONLY
	case gpu.ReadWrite:
		a = gl.READ_WRITE
	}
	gl.BindImageTexture(unit, uint32(t), level, false, 0, a, uint32(textureFormat(format).internal))
}

func (d *Device) DeleteTexture(t gpu.Handle) {
	h := uint32(t)
	gl.DeleteTextures(1, &h)
}

func (d *Device) CreateFramebuffer(desc gpu.FramebufferDesc) (gpu.Handle, error) {
	var fbo uint32
	gl.GenFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)

	attach := func(point uint32, tex gpu.Handle) {
		if desc.Layered {
			gl.FramebufferTexture(gl.FRAMEBUFFER, point, uint32(tex), 0)
			return
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, point, gl.TEXTURE_2D, uint32(tex), 0)
	}

	buffers := make([]uint32, len(desc.Color))
	for i, c := range desc.Color {
		buffers[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		attach(buffers[i], c)
	}
	if len(buffers) > 0 {
		gl.DrawBuffers(int32(len(buffers)), &buffers[0])
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}

	if desc.Depth != 0 {
		point := uint32(gl.DEPTH_ATTACHMENT)
		if desc.DepthFormat.HasStencil() {
			point = gl.DEPTH_STENCIL_ATTACHMENT
		}
		attach(point, desc.Depth)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &fbo)
		return 0, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return gpu.Handle(fbo), nil
}

func (d *Device) DeleteFramebuffer(f gpu.Handle) {
	if f == 0 {
		return
	}
	h := uint32(f)
	gl.DeleteFramebuffers(1, &h)
}

func (d *Device) BindFramebuffer(f gpu.Handle) { gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f)) }

// ReadPixels reads RGBA8 pixels, origin bottom-left.
func (d *Device) ReadPixels(f gpu.Handle, attachment int, x, y, w, h int32, dst []byte) {
	var prev int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(f))
	if f == 0 {
		gl.ReadBuffer(gl.BACK)
	} else {
		gl.ReadBuffer(gl.COLOR_ATTACHMENT0 + uint32(attachment))
	}
	gl.ReadPixels(x, y, w, h, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prev))
}

func (d *Device) ReadDepth(f gpu.Handle, x, y, w, h int32, dst []float32) {
	var prev int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prev)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(f))
	gl.ReadPixels(x, y, w, h, gl.DEPTH_COMPONENT, gl.FLOAT, gl.Ptr(dst))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prev))
}

func (d *Device) DispatchCompute(x, y, z uint32) { gl.DispatchCompute(x, y, z) }

func (d *Device) MemoryBarrier(b gpu.Barrier) {
	var bits uint32
	if b&gpu.BarrierImageAccess != 0 {
		bits |= gl.SHADER_IMAGE_ACCESS_BARRIER_BIT
	}
	if b&gpu.BarrierStorage != 0 {
		bits |= gl.SHADER_STORAGE_BARRIER_BIT
	}
	if b&gpu.BarrierTextureFetch != 0 {
		bits |= gl.TEXTURE_FETCH_BARRIER_BIT
	}
	if b&gpu.BarrierBufferUpdate != 0 {
		bits |= gl.BUFFER_UPDATE_BARRIER_BIT
	}
	gl.MemoryBarrier(bits)
}

func (d *Device) Viewport(x, y, w, h int32) { gl.Viewport(x, y, w, h) }

func (d *Device) SetClearColor(c mgl32.Vec4) { gl.ClearColor(c[0], c[1], c[2], c[3]) }

func (d *Device) SetClearDepth(v float32) { gl.ClearDepthf(v) }

func (d *Device) Clear(mask gpu.ClearMask) {
	var bits uint32
	if mask&gpu.ClearColor != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&gpu.ClearDepth != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&gpu.ClearStencil != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
}

func enable(cap uint32, on bool) {
	if on {
		gl.Enable(cap)
	} else {
		gl.Disable(cap)
	}
}

func (d *Device) SetDepthTest(v bool) { enable(gl.DEPTH_TEST, v) }

func (d *Device) SetDepthFunc(fn gpu.DepthFunc) {
	switch fn {
	case gpu.DepthLequal:
		gl.DepthFunc(gl.LEQUAL)
	case gpu.DepthAlways:
		gl.DepthFunc(gl.ALWAYS)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

func (d *Device) SetDepthWrite(v bool) { gl.DepthMask(v) }

func (d *Device) SetColorWrite(v bool) { gl.ColorMask(v, v, v, v) }

func (d *Device) SetCullFace(m gpu.CullMode) {
	switch m {
	case gpu.CullNone:
		gl.Disable(gl.CULL_FACE)
	case gpu.CullFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

func (d *Device) SetBlend(v bool) { enable(gl.BLEND, v) }

func (d *Device) SetStencil(m gpu.StencilMode, ref int32) {
	switch m {
	case gpu.StencilWrite:
		gl.Enable(gl.STENCIL_TEST)
		gl.StencilFunc(gl.ALWAYS, ref, 0xFF)
		gl.StencilOp(gl.KEEP, gl.KEEP, gl.REPLACE)
		gl.StencilMask(0xFF)
	case gpu.StencilNotEqual:
		gl.Enable(gl.STENCIL_TEST)
		gl.StencilFunc(gl.NOTEQUAL, ref, 0xFF)
		gl.StencilOp(gl.KEEP, gl.KEEP, gl.KEEP)
		gl.StencilMask(0x00)
	default:
		gl.StencilMask(0xFF)
		gl.Disable(gl.STENCIL_TEST)
	}
}

func (d *Device) SetClipDistance(index uint32, enabled bool) {
	enable(gl.CLIP_DISTANCE0+index, enabled)
}

func (d *Device) CreateQuery() gpu.Handle {
	var q uint32
	gl.GenQueries(1, &q)
	return gpu.Handle(q)
}

func (d *Device) BeginQuery(q gpu.Handle) { gl.BeginQuery(gl.SAMPLES_PASSED, uint32(q)) }

func (d *Device) EndQuery() { gl.EndQuery(gl.SAMPLES_PASSED) }

func (d *Device) QueryResult(q gpu.Handle) (uint32, bool) {
	var avail uint32
	gl.GetQueryObjectuiv(uint32(q), gl.QUERY_RESULT_AVAILABLE, &avail)
	if avail == 0 {
		return 0, false
	}
	var samples uint32
	gl.GetQueryObjectuiv(uint32(q), gl.QUERY_RESULT, &samples)
	return samples, true
}

func (d *Device) DeleteQuery(q gpu.Handle) {
	h := uint32(q)
	gl.DeleteQueries(1, &h)
}

// FenceWait blocks until previously issued commands complete.
func (d *Device) FenceWait() {
	sync := gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	gl.ClientWaitSync(sync, gl.SYNC_FLUSH_COMMANDS_BIT, gl.TIMEOUT_IGNORED)
	gl.DeleteSync(sync)
}

func (d *Device) Flush() { gl.Flush() }

func (d *Device) Finish() { gl.Finish() }

var _ gpu.Device = (*Device)(nil)
