// Package gpu defines the device contract the render pipeline issues its
// commands through, together with the thread and state discipline around it.
package gpu

// Handle is a GPU object name. Zero is never a valid object, except for the
// default framebuffer.
type Handle uint32

// BufferKind selects the binding target of a buffer.
type BufferKind int

const (
	UniformBuffer BufferKind = iota
	StorageBuffer
	ArrayBuffer
	ElementBuffer
)

func (k BufferKind) String() string {
	switch k {
	case UniformBuffer:
		return "uniform"
	case StorageBuffer:
		return "storage"
	case ArrayBuffer:
		return "array"
	case ElementBuffer:
		return "element"
	default:
		return "unknown"
	}
}

// Primitive is the topology of a draw call.
type Primitive int

const (
	Triangles Primitive = iota
	Lines
	Points
	TriangleStrip
)

// TextureFormat is the internal storage format of a texture.
type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRG16F
	FormatR32F
	FormatRGBA32F
	FormatDepth24
	FormatDepth32F
	FormatDepth24Stencil8
)

// IsDepth reports whether the format is a depth (or depth-stencil) format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth24 || f == FormatDepth32F || f == FormatDepth24Stencil8
}

// HasStencil reports whether the format carries a stencil component.
func (f TextureFormat) HasStencil() bool {
	return f == FormatDepth24Stencil8
}

// Filter is a texture sampling filter.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

// TextureDesc describes texture storage.
type TextureDesc struct {
	Width  int32
	Height int32
	// Layers > 1 creates a 2D array texture (multi-view targets).
	Layers int32
	// Levels is the mip level count; 0 and 1 both mean a single level.
	Levels int32
	Format TextureFormat
	Filter Filter
	// ClampToBorder uses a white border instead of edge clamping.
	ClampToBorder bool
	// CompareRef enables depth comparison sampling (sampler2DShadow).
	CompareRef bool
}

// Access is the image access mode for compute image bindings.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

// Barrier is a bit set of memory barrier kinds.
type Barrier uint32

const (
	BarrierImageAccess Barrier = 1 << iota
	BarrierStorage
	BarrierTextureFetch
	BarrierBufferUpdate
)

// ClearMask selects the buffers cleared by Clear.
type ClearMask uint32

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil
)

// CullMode selects which faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// DepthFunc is the depth comparison used by the depth test.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLequal
	DepthAlways
)

// StencilMode configures the stencil stage.
type StencilMode int

const (
	StencilOff StencilMode = iota
	// StencilWrite replaces the stencil value with the reference on every
	// fragment that passes the depth test.
	StencilWrite
	// StencilNotEqual only passes fragments whose stencil differs from the
	// reference.
	StencilNotEqual
)

// ProgramSource is the fully preprocessed source of one program. Either
// Compute is set, or Vertex and Fragment are.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
	Compute  string
}

// IsCompute reports whether the source describes a compute program.
func (s ProgramSource) IsCompute() bool {
	return s.Compute != ""
}

// VertexAttrib is one float attribute of an interleaved vertex.
type VertexAttrib struct {
	Location   uint32
	Components int32
	Offset     int32
}

// VertexArrayDesc describes interleaved float vertex data and optional indices.
type VertexArrayDesc struct {
	Stride     int32
	Attributes []VertexAttrib
	Vertices   []float32
	Indices    []uint32
}

// VertexCount returns the number of vertices described.
func (d VertexArrayDesc) VertexCount() int32 {
	if d.Stride == 0 {
		return 0
	}
	return int32(len(d.Vertices)*4) / d.Stride
}

// FramebufferDesc lists the textures attached to a framebuffer.
type FramebufferDesc struct {
	Color []Handle
	Depth Handle
	// DepthFormat tells whether Depth also carries stencil.
	DepthFormat TextureFormat
	// Layered attaches every layer of array textures (multi-view).
	Layered bool
}

// Capabilities describes what the device supports.
type Capabilities struct {
	Version  string
	Renderer string
	// Compute is set when compute shaders and storage buffers are available.
	Compute bool
	// MultiView is set when layered multi-view rendering is available.
	MultiView  bool
	MaxSamples int32
}

// Severity grades a driver diagnostic.
type Severity int

const (
	SeverityNotification Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "notification"
	}
}

// Diagnostic is one message delivered by the driver debug output.
type Diagnostic struct {
	Source   string
	Type     string
	ID       uint32
	Severity Severity
	Message  string
}
