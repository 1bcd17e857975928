// Package hiz builds the hierarchical depth pyramid and culls occluded
// objects against it, on the GPU with compute programs or on the CPU when
// the device has no compute support.
package hiz

import "math/bits"

// LevelCount returns the number of pyramid levels for a w x h depth image:
// floor(log2(max(w, h))) + 1, the last level being 1x1.
func LevelCount(w, h int32) int32 {
	m := max(w, h, 1)
	return int32(bits.Len32(uint32(m)))
}

// LevelSize returns the dimensions of level l.
func LevelSize(w, h int32, l int32) (int32, int32) {
	return max(w>>l, 1), max(h>>l, 1)
}

// Pyramid is a CPU depth pyramid. Level 0 is the depth image; every other
// texel holds the farthest depth of the texels it covers one level down.
type Pyramid struct {
	Width  int32
	Height int32
	Levels [][]float32
}

// Build fills the pyramid from a w x h depth image, rows bottom-up.
func (p *Pyramid) Build(depth []float32, w, h int32) {
	n := LevelCount(w, h)
	if p.Width != w || p.Height != h || len(p.Levels) != int(n) {
		p.Width, p.Height = w, h
		p.Levels = make([][]float32, n)
		for l := range n {
			lw, lh := LevelSize(w, h, l)
			p.Levels[l] = make([]float32, lw*lh)
		}
	}
	copy(p.Levels[0], depth)
	for l := int32(1); l < n; l++ {
		p.downsample(l)
	}
}

// downsample computes level l from level l-1. When the source has an odd
// size the last row and column fold in the extra texels.
func (p *Pyramid) downsample(l int32) {
	sw, sh := LevelSize(p.Width, p.Height, l-1)
	dw, dh := LevelSize(p.Width, p.Height, l)
	src, dst := p.Levels[l-1], p.Levels[l]
	at := func(x, y int32) float32 {
		return src[min(y, sh-1)*sw+min(x, sw-1)]
	}
	for y := range dh {
		for x := range dw {
			sx, sy := x*2, y*2
			d := max(at(sx, sy), at(sx+1, sy), at(sx, sy+1), at(sx+1, sy+1))
			oddX := sw&1 == 1 && x == dw-1
			oddY := sh&1 == 1 && y == dh-1
			if oddX {
				d = max(d, at(sx+2, sy), at(sx+2, sy+1))
			}
			if oddY {
				d = max(d, at(sx, sy+2), at(sx+1, sy+2))
			}
			if oddX && oddY {
				d = max(d, at(sx+2, sy+2))
			}
			dst[y*dw+x] = d
		}
	}
}

// Count returns the number of levels.
func (p *Pyramid) Count() int32 { return int32(len(p.Levels)) }

// Size returns the dimensions of level l.
func (p *Pyramid) Size(l int32) (int32, int32) {
	return LevelSize(p.Width, p.Height, l)
}

// At returns the depth of texel (x, y) of level l, clamped to the level.
func (p *Pyramid) At(l, x, y int32) float32 {
	w, h := p.Size(l)
	x = min(max(x, 0), w-1)
	y = min(max(y, 0), h-1)
	return p.Levels[l][y*w+x]
}
