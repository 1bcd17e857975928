package hiz

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ObjectSize is the std430 size of one cull object:
// vec3 min; uint visible; vec3 max; uint culled; vec2 extent; vec2 pad.
const ObjectSize = 48

// Object is the cull record of one drawable.
type Object struct {
	Min     mgl32.Vec3
	Max     mgl32.Vec3
	Visible bool
	Culled  bool
	// Extent is the projected size in pixels.
	Extent mgl32.Vec2
}

// Encode writes objs in the GPU layout into dst, which must hold
// len(objs)*ObjectSize bytes.
func Encode(dst []byte, objs []Object) {
	le := binary.LittleEndian
	f := func(b []byte, v float32) { le.PutUint32(b, math.Float32bits(v)) }
	for i, o := range objs {
		b := dst[i*ObjectSize : (i+1)*ObjectSize]
		f(b[0:], o.Min[0])
		f(b[4:], o.Min[1])
		f(b[8:], o.Min[2])
		le.PutUint32(b[12:], flag(o.Visible))
		f(b[16:], o.Max[0])
		f(b[20:], o.Max[1])
		f(b[24:], o.Max[2])
		le.PutUint32(b[28:], flag(o.Culled))
		f(b[32:], o.Extent[0])
		f(b[36:], o.Extent[1])
		le.PutUint64(b[40:], 0)
	}
}

// Decode reads back the results written by the cull program.
func Decode(src []byte, objs []Object) {
	le := binary.LittleEndian
	for i := range objs {
		b := src[i*ObjectSize : (i+1)*ObjectSize]
		objs[i].Visible = le.Uint32(b[12:]) != 0
		objs[i].Culled = le.Uint32(b[28:]) != 0
		objs[i].Extent = mgl32.Vec2{
			math.Float32frombits(le.Uint32(b[32:])),
			math.Float32frombits(le.Uint32(b[36:])),
		}
	}
}

func flag(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
