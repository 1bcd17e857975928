package program

import (
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// Buffer is a uniform or storage buffer bound at a fixed slot. Storage is
// reallocated only when the data size changes.
type Buffer struct {
	dev     gpu.Device
	kind    gpu.BufferKind
	binding uint32
	handle  gpu.Handle
	size    int
	w       *gpu.BlockWriter
}

// NewBuffer creates an empty buffer.
func NewBuffer(dev gpu.Device, kind gpu.BufferKind, binding uint32) *Buffer {
	return &Buffer{dev: dev, kind: kind, binding: binding, handle: dev.CreateBuffer()}
}

func (b *Buffer) Handle() gpu.Handle { return b.handle }

func (b *Buffer) Size() int { return b.size }

// Update uploads data, reallocating when its length differs from the
// current size.
func (b *Buffer) Update(data []byte) {
	if len(data) != b.size {
		b.dev.BufferData(b.kind, b.handle, data, len(data))
		b.size = len(data)
		return
	}
	b.dev.BufferSubData(b.kind, b.handle, 0, data)
}

// Fill runs fill into a reusable writer and uploads the result.
func (b *Buffer) Fill(ctx *shading.UpdateContext, sizeHint int, fill func(*shading.UpdateContext, *gpu.BlockWriter)) {
	if b.w == nil {
		b.w = gpu.NewBlockWriter(sizeHint)
	}
	b.w.Reset()
	fill(ctx, b.w)
	b.Update(b.w.Bytes())
}

// Bind attaches the buffer to its slot.
func (b *Buffer) Bind() {
	b.dev.BindBufferBase(b.kind, b.binding, b.handle)
}

// Dispose deletes the GPU buffer.
func (b *Buffer) Dispose() {
	if b.handle != 0 {
		b.dev.DeleteBuffer(b.handle)
		b.handle = 0
	}
}

// BufferMap lazily creates named buffers for one owner.
type BufferMap struct {
	dev     gpu.Device
	buffers map[string]*Buffer
	// version is the owner version the contents were last filled for.
	version uint64
}

// NewBufferMap returns an empty map.
func NewBufferMap(dev gpu.Device) *BufferMap {
	return &BufferMap{dev: dev, buffers: make(map[string]*Buffer)}
}

// Get returns the buffer called name, creating it on first use.
func (m *BufferMap) Get(name string, kind gpu.BufferKind, binding uint32) *Buffer {
	b, ok := m.buffers[name]
	if !ok {
		b = NewBuffer(m.dev, kind, binding)
		m.buffers[name] = b
	}
	return b
}

// Len returns the number of buffers created.
func (m *BufferMap) Len() int { return len(m.buffers) }

// Dispose deletes every buffer.
func (m *BufferMap) Dispose() {
	for name, b := range m.buffers {
		b.Dispose()
		delete(m.buffers, name)
	}
}
