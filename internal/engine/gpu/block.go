package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockWriter packs values into a byte slice following std140 alignment.
type BlockWriter struct {
	buf []byte
}

// NewBlockWriter returns a writer with room for size bytes.
func NewBlockWriter(size int) *BlockWriter {
	return &BlockWriter{buf: make([]byte, 0, size)}
}

func (w *BlockWriter) align(n int) {
	for len(w.buf)%n != 0 {
		w.buf = append(w.buf, 0)
	}
}

func (w *BlockWriter) f32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// Float writes a 4-byte aligned float.
func (w *BlockWriter) Float(v float32) *BlockWriter {
	w.align(4)
	w.f32(v)
	return w
}

// Int writes a 4-byte aligned signed integer.
func (w *BlockWriter) Int(v int32) *BlockWriter {
	w.align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	return w
}

// Uint writes a 4-byte aligned unsigned integer.
func (w *BlockWriter) Uint(v uint32) *BlockWriter {
	w.align(4)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

// Vec2 writes an 8-byte aligned vec2.
func (w *BlockWriter) Vec2(v mgl32.Vec2) *BlockWriter {
	w.align(8)
	w.f32(v[0])
	w.f32(v[1])
	return w
}

// Vec3 writes a 16-byte aligned vec3. The following scalar may share its
// last slot.
func (w *BlockWriter) Vec3(v mgl32.Vec3) *BlockWriter {
	w.align(16)
	w.f32(v[0])
	w.f32(v[1])
	w.f32(v[2])
	return w
}

// Vec4 writes a 16-byte aligned vec4.
func (w *BlockWriter) Vec4(v mgl32.Vec4) *BlockWriter {
	w.align(16)
	for _, c := range v {
		w.f32(c)
	}
	return w
}

// Mat4 writes a column-major mat4.
func (w *BlockWriter) Mat4(m mgl32.Mat4) *BlockWriter {
	w.align(16)
	for _, c := range m {
		w.f32(c)
	}
	return w
}

// Pad advances to the given byte offset.
func (w *BlockWriter) Pad(offset int) *BlockWriter {
	for len(w.buf) < offset {
		w.buf = append(w.buf, 0)
	}
	return w
}

// Len returns the number of bytes written so far.
func (w *BlockWriter) Len() int { return len(w.buf) }

// Bytes returns the block rounded up to a 16-byte multiple.
func (w *BlockWriter) Bytes() []byte {
	w.align(16)
	return w.buf
}

// Reset empties the writer keeping its storage.
func (w *BlockWriter) Reset() {
	w.buf = w.buf[:0]
}

// ReadVec4 decodes a vec4 at offset.
func ReadVec4(b []byte, offset int) mgl32.Vec4 {
	var v mgl32.Vec4
	if offset+16 > len(b) {
		return v
	}
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[offset+i*4:]))
	}
	return v
}

// ReadMat4 decodes a column-major mat4 at offset.
func ReadMat4(b []byte, offset int) mgl32.Mat4 {
	var m mgl32.Mat4
	if offset+64 > len(b) {
		return m
	}
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[offset+i*4:]))
	}
	return m
}
