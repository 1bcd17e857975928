// Package gputest provides a software gpu.Device for tests.
//
// The fake records every draw and dispatch and rasterizes each draw as the
// screen rectangle covering its projected vertices at their nearest depth.
// That is coarse, but enough to exercise depth testing, occlusion queries,
// depth read-back and colour-id picking without a GPU.
package gputest

import (
	"fmt"
	"math"
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// DrawCall is one recorded draw.
type DrawCall struct {
	Program     gpu.Handle
	VertexArray gpu.Handle
	Framebuffer gpu.Handle
	Mode        gpu.Primitive
	Count       int32
	Indexed     bool
	Fullscreen  bool
	DepthTest   bool
	DepthWrite  bool
	ColorWrite  bool
	Cull        gpu.CullMode
	Blend       bool
	Stencil     gpu.StencilMode
	// Samples is the number of pixels that passed the depth test.
	Samples uint32
}

// Dispatch is one recorded compute dispatch.
type Dispatch struct {
	Program gpu.Handle
	X, Y, Z uint32
}

// Program is a created program.
type Program struct {
	Source   gpu.ProgramSource
	Blocks   map[string]uint32
	Storage  map[string]uint32
	uniforms map[string]int32
	values   map[int32]any
}

// Uniform returns the last value set for name, or nil.
func (p *Program) Uniform(name string) any {
	loc, ok := p.uniforms[name]
	if !ok {
		return nil
	}
	return p.values[loc]
}

// Buffer is a created buffer.
type Buffer struct {
	Data []byte
	// Allocs counts BufferData calls, Updates counts BufferSubData calls.
	Allocs  int
	Updates int
}

// Texture is a created texture. Every level stores Channels floats per
// texel, layers packed one after another.
type Texture struct {
	Desc     gpu.TextureDesc
	Channels int
	Levels   [][]float32
}

// LevelSize returns the dimensions of mip level l.
func (t *Texture) LevelSize(l int) (int32, int32) {
	w, h := t.Desc.Width>>l, t.Desc.Height>>l
	return max(w, 1), max(h, 1)
}

// Framebuffer is a created framebuffer.
type Framebuffer struct {
	Desc gpu.FramebufferDesc
}

// query results become available at the first Flush, Finish or FenceWait
// after EndQuery, so a result is never ready in the frame that issued it.
type query struct {
	samples   uint32
	ended     bool
	submitted bool
}

type bindKey struct {
	kind    gpu.BufferKind
	binding uint32
}

// State is the fixed-function state of the fake.
type State struct {
	DepthTest   bool
	DepthFunc   gpu.DepthFunc
	DepthWrite  bool
	ColorWrite  bool
	Cull        gpu.CullMode
	Blend       bool
	Stencil     gpu.StencilMode
	StencilRef  int32
	Program     gpu.Handle
	VertexArray gpu.Handle
	Framebuffer gpu.Handle
	Viewport    [4]int32
	ClearColor  mgl32.Vec4
	ClearDepth  float32
	ClipPlanes  map[uint32]bool
}

// Device is the fake. The zero value is not usable; call NewDevice.
type Device struct {
	Caps gpu.Capabilities
	// CompileError, when set, is consulted for every CreateProgram.
	CompileError func(src gpu.ProgramSource) error

	State      State
	Draws      []DrawCall
	Dispatches []Dispatch
	Barriers   []gpu.Barrier

	Compiles   int
	Fences     int
	Flushes    int
	Finishes   int
	Clears     int
	ReadBacks  int
	Programs   map[gpu.Handle]*Program
	Buffers    map[gpu.Handle]*Buffer
	Textures   map[gpu.Handle]*Texture
	Framebufs  map[gpu.Handle]*Framebuffer
	VertexArrs map[gpu.Handle]gpu.VertexArrayDesc

	next    gpu.Handle
	bound   map[bindKey]gpu.Handle
	queries map[gpu.Handle]*query
	active  *query
	debug   func(gpu.Diagnostic)
}

// NewDevice creates a fake whose default framebuffer is width x height with
// an RGBA8 colour and 32-bit float depth attachment.
func NewDevice(width, height int32) *Device {
	d := &Device{
		Caps: gpu.Capabilities{
			Version:    "fake",
			Renderer:   "gputest",
			MaxSamples: 4,
		},
		Programs:   make(map[gpu.Handle]*Program),
		Buffers:    make(map[gpu.Handle]*Buffer),
		Textures:   make(map[gpu.Handle]*Texture),
		Framebufs:  make(map[gpu.Handle]*Framebuffer),
		VertexArrs: make(map[gpu.Handle]gpu.VertexArrayDesc),
		bound:      make(map[bindKey]gpu.Handle),
		queries:    make(map[gpu.Handle]*query),
	}
	d.State.ClipPlanes = make(map[uint32]bool)
	d.State.DepthTest = true
	d.State.DepthWrite = true
	d.State.ColorWrite = true
	d.State.ClearDepth = 1
	d.State.Viewport = [4]int32{0, 0, width, height}

	color := d.CreateTexture(gpu.TextureDesc{Width: width, Height: height, Format: gpu.FormatRGBA8})
	depth := d.CreateTexture(gpu.TextureDesc{Width: width, Height: height, Format: gpu.FormatDepth32F})
	d.Framebufs[0] = &Framebuffer{Desc: gpu.FramebufferDesc{Color: []gpu.Handle{color}, Depth: depth, DepthFormat: gpu.FormatDepth32F}}
	d.ResetDraws()
	return d
}

// LockThread pins the test goroutine to its OS thread for the duration of
// the test, the way a window owner would.
func LockThread(t testing.TB) {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)
}

// ResetDraws clears the recorded draws and dispatches.
func (d *Device) ResetDraws() {
	d.Draws = d.Draws[:0]
	d.Dispatches = d.Dispatches[:0]
	d.Barriers = d.Barriers[:0]
}

// DrawsTo returns the recorded draws that targeted framebuffer fb.
func (d *Device) DrawsTo(fb gpu.Handle) []DrawCall {
	var out []DrawCall
	for _, c := range d.Draws {
		if c.Framebuffer == fb {
			out = append(out, c)
		}
	}
	return out
}

// Live returns the number of live GPU objects, the default framebuffer
// attachments excluded.
func (d *Device) Live() int {
	return len(d.Programs) + len(d.Buffers) + len(d.Textures) - 2 +
		len(d.Framebufs) - 1 + len(d.VertexArrs) + len(d.queries)
}

// Emit delivers a diagnostic to the installed debug callback.
func (d *Device) Emit(diag gpu.Diagnostic) {
	if d.debug != nil {
		d.debug(diag)
	}
}

// FillDepth writes depth over a rectangle of the framebuffer's depth
// attachment, origin bottom-left.
func (d *Device) FillDepth(fb gpu.Handle, x, y, w, h int32, depth float32) {
	t := d.depthTexture(fb)
	if t == nil {
		return
	}
	tw, th := t.LevelSize(0)
	for py := max(y, 0); py < min(y+h, th); py++ {
		for px := max(x, 0); px < min(x+w, tw); px++ {
			t.Levels[0][py*tw+px] = depth
		}
	}
}

// DepthAt returns the depth stored at one pixel.
func (d *Device) DepthAt(fb gpu.Handle, x, y int32) float32 {
	t := d.depthTexture(fb)
	if t == nil {
		return 1
	}
	w, _ := t.LevelSize(0)
	return t.Levels[0][y*w+x]
}

// SetPixel writes an RGBA8 colour into the first colour attachment.
func (d *Device) SetPixel(fb gpu.Handle, x, y int32, c [4]byte) {
	t := d.colorTexture(fb, 0)
	if t == nil {
		return
	}
	w, _ := t.LevelSize(0)
	for i := 0; i < 4; i++ {
		t.Levels[0][int(y*w+x)*4+i] = float32(c[i]) / 255
	}
}

func (d *Device) alloc() gpu.Handle {
	d.next++
	return d.next
}

func (d *Device) depthTexture(fb gpu.Handle) *Texture {
	f, ok := d.Framebufs[fb]
	if !ok || f.Desc.Depth == 0 {
		return nil
	}
	return d.Textures[f.Desc.Depth]
}

func (d *Device) colorTexture(fb gpu.Handle, attachment int) *Texture {
	f, ok := d.Framebufs[fb]
	if !ok || attachment >= len(f.Desc.Color) {
		return nil
	}
	return d.Textures[f.Desc.Color[attachment]]
}

func (d *Device) current() *Program {
	return d.Programs[d.State.Program]
}

// Capabilities implements gpu.Device.
func (d *Device) Capabilities() gpu.Capabilities { return d.Caps }

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Handle, error) {
	if d.CompileError != nil {
		if err := d.CompileError(src); err != nil {
			return 0, fmt.Errorf("%s: %w", src.Name, err)
		}
	}
	d.Compiles++
	h := d.alloc()
	d.Programs[h] = &Program{
		Source:   src,
		Blocks:   make(map[string]uint32),
		Storage:  make(map[string]uint32),
		uniforms: make(map[string]int32),
		values:   make(map[int32]any),
	}
	return h, nil
}

func (d *Device) DeleteProgram(p gpu.Handle) { delete(d.Programs, p) }

func (d *Device) UseProgram(p gpu.Handle) { d.State.Program = p }

func (d *Device) UniformLocation(p gpu.Handle, name string) int32 {
	prog, ok := d.Programs[p]
	if !ok {
		return -1
	}
	if loc, ok := prog.uniforms[name]; ok {
		return loc
	}
	loc := int32(len(prog.uniforms))
	prog.uniforms[name] = loc
	return loc
}

func (d *Device) UniformBlockBinding(p gpu.Handle, block string, binding uint32) {
	if prog, ok := d.Programs[p]; ok {
		prog.Blocks[block] = binding
	}
}

func (d *Device) StorageBlockBinding(p gpu.Handle, block string, binding uint32) {
	if prog, ok := d.Programs[p]; ok {
		prog.Storage[block] = binding
	}
}

func (d *Device) setUniform(loc int32, v any) {
	if p := d.current(); p != nil && loc >= 0 {
		p.values[loc] = v
	}
}

func (d *Device) SetUniformInt(loc int32, v int32) { d.setUniform(loc, v) }
func (d *Device) SetUniformFloat(loc int32, v float32) { d.setUniform(loc, v) }
func (d *Device) SetUniformVec2(loc int32, v mgl32.Vec2) { d.setUniform(loc, v) }
func (d *Device) SetUniformVec4(loc int32, v mgl32.Vec4) { d.setUniform(loc, v) }
func (d *Device) SetUniformMat4(loc int32, m mgl32.Mat4) { d.setUniform(loc, m) }

func (d *Device) CreateBuffer() gpu.Handle {
	h := d.alloc()
	d.Buffers[h] = &Buffer{}
	return h
}

func (d *Device) BufferData(_ gpu.BufferKind, b gpu.Handle, data []byte, size int) {
	buf, ok := d.Buffers[b]
	if !ok {
		return
	}
	if data != nil {
		size = len(data)
	}
	buf.Data = make([]byte, size)
	copy(buf.Data, data)
	buf.Allocs++
}

func (d *Device) BufferSubData(_ gpu.BufferKind, b gpu.Handle, offset int, data []byte) {
	buf, ok := d.Buffers[b]
	if !ok {
		return
	}
	if offset+len(data) > len(buf.Data) {
		gpu.Usagef("BufferSubData", "write of %d bytes at %d overflows buffer of %d", len(data), offset, len(buf.Data))
	}
	copy(buf.Data[offset:], data)
	buf.Updates++
}

func (d *Device) ReadBufferData(_ gpu.BufferKind, b gpu.Handle, offset int, dst []byte) {
	d.ReadBacks++
	if buf, ok := d.Buffers[b]; ok && offset < len(buf.Data) {
		copy(dst, buf.Data[offset:])
	}
}

func (d *Device) BindBufferBase(kind gpu.BufferKind, binding uint32, b gpu.Handle) {
	d.bound[bindKey{kind, binding}] = b
}

// BoundBuffer returns the buffer bound at an indexed binding point.
func (d *Device) BoundBuffer(kind gpu.BufferKind, binding uint32) *Buffer {
	return d.Buffers[d.bound[bindKey{kind, binding}]]
}

func (d *Device) DeleteBuffer(b gpu.Handle) { delete(d.Buffers, b) }

func (d *Device) CreateVertexArray(desc gpu.VertexArrayDesc) gpu.Handle {
	h := d.alloc()
	d.VertexArrs[h] = desc
	return h
}

func (d *Device) UpdateVertexArray(va gpu.Handle, desc gpu.VertexArrayDesc) {
	if _, ok := d.VertexArrs[va]; ok {
		d.VertexArrs[va] = desc
	}
}

func (d *Device) BindVertexArray(va gpu.Handle) { d.State.VertexArray = va }

func (d *Device) DeleteVertexArray(va gpu.Handle) { delete(d.VertexArrs, va) }

func (d *Device) record(mode gpu.Primitive, count int32, indexed, fullscreen bool) *DrawCall {
	d.Draws = append(d.Draws, DrawCall{
		Program:     d.State.Program,
		VertexArray: d.State.VertexArray,
		Framebuffer: d.State.Framebuffer,
		Mode:        mode,
		Count:       count,
		Indexed:     indexed,
		Fullscreen:  fullscreen,
		DepthTest:   d.State.DepthTest,
		DepthWrite:  d.State.DepthWrite,
		ColorWrite:  d.State.ColorWrite,
		Cull:        d.State.Cull,
		Blend:       d.State.Blend,
		Stencil:     d.State.Stencil,
	})
	return &d.Draws[len(d.Draws)-1]
}

func (d *Device) Draw(mode gpu.Primitive, count int32, indexed bool) {
	call := d.record(mode, count, indexed, false)
	call.Samples = d.rasterize()
	if d.active != nil {
		d.active.samples += call.Samples
	}
}

func (d *Device) DrawFullscreen() {
	d.record(gpu.Triangles, 3, false, true)
}

// rasterize fills the screen rectangle covered by the bound vertex array's
// positions, transformed by the model and camera blocks, at the nearest
// projected depth.
func (d *Device) rasterize() uint32 {
	desc, ok := d.VertexArrs[d.State.VertexArray]
	if !ok || desc.Stride == 0 {
		return 0
	}
	posOffset := int32(-1)
	for _, a := range desc.Attributes {
		if a.Location == 0 && a.Components >= 3 {
			posOffset = a.Offset
		}
	}
	if posOffset < 0 {
		return 0
	}

	model := mgl32.Ident4()
	if b := d.BoundBuffer(gpu.UniformBuffer, gpu.BindingModel); b != nil && len(b.Data) >= gpu.ModelBlockSize {
		model = gpu.ReadMat4(b.Data, gpu.ModelMatrixOffset)
	}
	viewProj := mgl32.Ident4()
	if b := d.BoundBuffer(gpu.UniformBuffer, gpu.BindingCamera); b != nil && len(b.Data) >= gpu.CameraBlockSize {
		viewProj = gpu.ReadMat4(b.Data, gpu.CameraViewProjOffset)
	}
	mvp := viewProj.Mul4(model)

	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	depth := float32(1)
	stride := int(desc.Stride / 4)
	visible := false
	for i := int(posOffset / 4); i+2 < len(desc.Vertices); i += stride {
		p := mgl32.Vec4{desc.Vertices[i], desc.Vertices[i+1], desc.Vertices[i+2], 1}
		c := mvp.Mul4x1(p)
		if c[3] <= 1e-5 {
			continue
		}
		visible = true
		nx, ny, nz := c[0]/c[3], c[1]/c[3], c[2]/c[3]
		minX, maxX = min(minX, nx), max(maxX, nx)
		minY, maxY = min(minY, ny), max(maxY, ny)
		depth = min(depth, nz*0.5+0.5)
	}
	if !visible || depth < 0 {
		return 0
	}

	vp := d.State.Viewport
	toPx := func(n float32, origin, size int32) int32 {
		return origin + int32(math.Floor(float64((n*0.5+0.5)*float32(size))))
	}
	x0, x1 := toPx(minX, vp[0], vp[2]), toPx(maxX, vp[0], vp[2])
	y0, y1 := toPx(minY, vp[1], vp[3]), toPx(maxY, vp[1], vp[3])
	x0, y0 = max(x0, vp[0]), max(y0, vp[1])
	x1, y1 = min(x1, vp[0]+vp[2]-1), min(y1, vp[1]+vp[3]-1)

	dt := d.depthTexture(d.State.Framebuffer)
	ct := d.colorTexture(d.State.Framebuffer, 0)
	color := mgl32.Vec4{1, 1, 1, 1}
	if b := d.BoundBuffer(gpu.UniformBuffer, gpu.BindingMaterial); b != nil && len(b.Data) >= 16 {
		color = gpu.ReadVec4(b.Data, gpu.MaterialColorOffset)
	}

	var samples uint32
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if dt != nil {
				w, h := dt.LevelSize(0)
				if x >= w || y >= h {
					continue
				}
				cur := dt.Levels[0][y*w+x]
				if d.State.DepthTest && !depthPasses(d.State.DepthFunc, depth, cur) {
					continue
				}
				if d.State.DepthWrite && d.State.DepthTest {
					dt.Levels[0][y*w+x] = depth
				}
			}
			samples++
			if ct != nil && d.State.ColorWrite && ct.Channels == 4 {
				w, h := ct.LevelSize(0)
				if x < w && y < h {
					copy(ct.Levels[0][int(y*w+x)*4:], color[:])
				}
			}
		}
	}
	return samples
}

func depthPasses(fn gpu.DepthFunc, d, cur float32) bool {
	switch fn {
	case gpu.DepthLequal:
		return d <= cur
	case gpu.DepthAlways:
		return true
	default:
		return d < cur
	}
}

func channels(f gpu.TextureFormat) int {
	switch f {
	case gpu.FormatRGBA8, gpu.FormatRGBA32F:
		return 4
	case gpu.FormatRG16F:
		return 2
	default:
		return 1
	}
}

func (d *Device) allocLevels(t *Texture) {
	levels := max(t.Desc.Levels, 1)
	layers := max(t.Desc.Layers, 1)
	t.Channels = channels(t.Desc.Format)
	t.Levels = make([][]float32, levels)
	for l := range t.Levels {
		w, h := t.LevelSize(l)
		t.Levels[l] = make([]float32, int(w*h*layers)*t.Channels)
		if t.Desc.Format.IsDepth() {
			for i := range t.Levels[l] {
				t.Levels[l][i] = 1
			}
		}
	}
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) gpu.Handle {
	h := d.alloc()
	t := &Texture{Desc: desc}
	d.allocLevels(t)
	d.Textures[h] = t
	return h
}

func (d *Device) ResizeTexture(h gpu.Handle, desc gpu.TextureDesc) {
	if t, ok := d.Textures[h]; ok {
		t.Desc = desc
		d.allocLevels(t)
	}
}

func (d *Device) BindTexture(uint32, gpu.Handle, bool) {}

func (d *Device) BindImageTexture(uint32, gpu.Handle, int32, gpu.Access, gpu.TextureFormat) {}

func (d *Device) DeleteTexture(t gpu.Handle) { delete(d.Textures, t) }

func (d *Device) CreateFramebuffer(desc gpu.FramebufferDesc) (gpu.Handle, error) {
	for _, c := range desc.Color {
		if _, ok := d.Textures[c]; !ok {
			return 0, fmt.Errorf("framebuffer incomplete: missing colour texture %d", c)
		}
	}
	if desc.Depth != 0 {
		if _, ok := d.Textures[desc.Depth]; !ok {
			return 0, fmt.Errorf("framebuffer incomplete: missing depth texture %d", desc.Depth)
		}
	}
	h := d.alloc()
	d.Framebufs[h] = &Framebuffer{Desc: desc}
	return h, nil
}

func (d *Device) DeleteFramebuffer(f gpu.Handle) {
	if f != 0 {
		delete(d.Framebufs, f)
	}
}

func (d *Device) BindFramebuffer(f gpu.Handle) { d.State.Framebuffer = f }

func (d *Device) ReadPixels(f gpu.Handle, attachment int, x, y, w, h int32, dst []byte) {
	d.ReadBacks++
	t := d.colorTexture(f, attachment)
	if t == nil || t.Channels != 4 {
		return
	}
	tw, th := t.LevelSize(0)
	i := 0
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			if px < 0 || py < 0 || px >= tw || py >= th {
				i += 4
				continue
			}
			for c := 0; c < 4 && i < len(dst); c++ {
				dst[i] = byte(mgl32.Clamp(t.Levels[0][int(py*tw+px)*4+c], 0, 1)*255 + 0.5)
				i++
			}
		}
	}
}

func (d *Device) ReadDepth(f gpu.Handle, x, y, w, h int32, dst []float32) {
	d.ReadBacks++
	t := d.depthTexture(f)
	if t == nil {
		return
	}
	tw, th := t.LevelSize(0)
	i := 0
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			if i >= len(dst) {
				return
			}
			if px >= 0 && py >= 0 && px < tw && py < th {
				dst[i] = t.Levels[0][py*tw+px]
			} else {
				dst[i] = 1
			}
			i++
		}
	}
}

func (d *Device) DispatchCompute(x, y, z uint32) {
	d.Dispatches = append(d.Dispatches, Dispatch{Program: d.State.Program, X: x, Y: y, Z: z})
}

func (d *Device) MemoryBarrier(b gpu.Barrier) { d.Barriers = append(d.Barriers, b) }

func (d *Device) Viewport(x, y, w, h int32) { d.State.Viewport = [4]int32{x, y, w, h} }

func (d *Device) SetClearColor(c mgl32.Vec4) { d.State.ClearColor = c }

func (d *Device) SetClearDepth(v float32) { d.State.ClearDepth = v }

func (d *Device) Clear(mask gpu.ClearMask) {
	d.Clears++
	if mask&gpu.ClearDepth != 0 {
		if t := d.depthTexture(d.State.Framebuffer); t != nil {
			for i := range t.Levels[0] {
				t.Levels[0][i] = d.State.ClearDepth
			}
		}
	}
	if mask&gpu.ClearColor != 0 && d.State.ColorWrite {
		if f, ok := d.Framebufs[d.State.Framebuffer]; ok {
			for _, c := range f.Desc.Color {
				t := d.Textures[c]
				if t == nil {
					continue
				}
				for i := range t.Levels[0] {
					t.Levels[0][i] = d.State.ClearColor[i%t.Channels]
				}
			}
		}
	}
}

func (d *Device) SetDepthTest(v bool) { d.State.DepthTest = v }
func (d *Device) SetDepthFunc(fn gpu.DepthFunc) { d.State.DepthFunc = fn }
func (d *Device) SetDepthWrite(v bool) { d.State.DepthWrite = v }
func (d *Device) SetColorWrite(v bool) { d.State.ColorWrite = v }
func (d *Device) SetCullFace(m gpu.CullMode) { d.State.Cull = m }
func (d *Device) SetBlend(v bool) { d.State.Blend = v }

func (d *Device) SetStencil(m gpu.StencilMode, ref int32) {
	d.State.Stencil = m
	d.State.StencilRef = ref
}

func (d *Device) SetClipDistance(index uint32, enabled bool) {
	d.State.ClipPlanes[index] = enabled
}

func (d *Device) CreateQuery() gpu.Handle {
	h := d.alloc()
	d.queries[h] = &query{}
	return h
}

func (d *Device) BeginQuery(q gpu.Handle) {
	if qq, ok := d.queries[q]; ok {
		qq.samples = 0
		qq.ended = false
		qq.submitted = false
		d.active = qq
	}
}

func (d *Device) EndQuery() {
	if d.active != nil {
		d.active.ended = true
		d.active = nil
	}
}

func (d *Device) QueryResult(q gpu.Handle) (uint32, bool) {
	qq, ok := d.queries[q]
	if !ok || !qq.ended || !qq.submitted {
		return 0, false
	}
	return qq.samples, true
}

func (d *Device) DeleteQuery(q gpu.Handle) { delete(d.queries, q) }

func (d *Device) FenceWait() {
	d.Fences++
	d.submit()
}

func (d *Device) Flush() {
	d.Flushes++
	d.submit()
}

func (d *Device) Finish() {
	d.Finishes++
	d.submit()
}

func (d *Device) submit() {
	for _, q := range d.queries {
		if q.ended {
			q.submitted = true
		}
	}
}

func (d *Device) SetDebugCallback(fn func(gpu.Diagnostic)) { d.debug = fn }

var _ gpu.Device = (*Device)(nil)
