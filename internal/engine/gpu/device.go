package gpu

import "github.com/go-gl/mathgl/mgl32"

// Device is the command surface of one GPU context. Every method must be
// called on the thread that owns the context; implementations do not lock.
type Device interface {
	Capabilities() Capabilities

	// Programs
	CreateProgram(src ProgramSource) (Handle, error)
	DeleteProgram(p Handle)
	UseProgram(p Handle)
	UniformLocation(p Handle, name string) int32
	UniformBlockBinding(p Handle, block string, binding uint32)
	StorageBlockBinding(p Handle, block string, binding uint32)
	SetUniformInt(loc int32, v int32)
	SetUniformFloat(loc int32, v float32)
	SetUniformVec2(loc int32, v mgl32.Vec2)
	SetUniformVec4(loc int32, v mgl32.Vec4)
	SetUniformMat4(loc int32, m mgl32.Mat4)

	// Buffers. BufferData (re)allocates storage; data may be nil to allocate
	// size zeroed bytes. BufferSubData writes inside existing storage.
	CreateBuffer() Handle
	BufferData(kind BufferKind, b Handle, data []byte, size int)
	BufferSubData(kind BufferKind, b Handle, offset int, data []byte)
	ReadBufferData(kind BufferKind, b Handle, offset int, dst []byte)
	BindBufferBase(kind BufferKind, binding uint32, b Handle)
	DeleteBuffer(b Handle)

	// Vertex arrays and draws
	CreateVertexArray(desc VertexArrayDesc) Handle
	UpdateVertexArray(va Handle, desc VertexArrayDesc)
	BindVertexArray(va Handle)
	DeleteVertexArray(va Handle)
	Draw(mode Primitive, count int32, indexed bool)
	DrawFullscreen()

	// Textures
	CreateTexture(desc TextureDesc) Handle
	ResizeTexture(t Handle, desc TextureDesc)
	BindTexture(unit uint32, t Handle, layered bool)
	BindImageTexture(unit uint32, t Handle, level int32, access Access, format TextureFormat)
	DeleteTexture(t Handle)

	// Framebuffers. Handle 0 is the default (window) framebuffer.
	CreateFramebuffer(desc FramebufferDesc) (Handle, error)
	DeleteFramebuffer(f Handle)
	BindFramebuffer(f Handle)
	ReadPixels(f Handle, attachment int, x, y, w, h int32, dst []byte)
	ReadDepth(f Handle, x, y, w, h int32, dst []float32)

	// Compute
	DispatchCompute(x, y, z uint32)
	MemoryBarrier(b Barrier)

	// Fixed-function state
	Viewport(x, y, w, h int32)
	SetClearColor(c mgl32.Vec4)
	SetClearDepth(d float32)
	Clear(mask ClearMask)
	SetDepthTest(enabled bool)
	SetDepthFunc(fn DepthFunc)
	SetDepthWrite(enabled bool)
	SetColorWrite(enabled bool)
	SetCullFace(mode CullMode)
	SetBlend(enabled bool)
	SetStencil(mode StencilMode, ref int32)
	SetClipDistance(index uint32, enabled bool)

	// Occlusion queries
	CreateQuery() Handle
	BeginQuery(q Handle)
	EndQuery()
	// QueryResult returns the number of samples that passed and whether the
	// result is available without stalling.
	QueryResult(q Handle) (samples uint32, ready bool)
	DeleteQuery(q Handle)

	// Synchronisation
	FenceWait()
	Flush()
	Finish()

	// SetDebugCallback installs the driver diagnostic sink; nil removes it.
	SetDebugCallback(fn func(Diagnostic))
}
