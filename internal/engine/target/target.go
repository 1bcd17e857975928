// Package target provides the render targets passes draw into: the window's
// default framebuffer and texture-backed offscreen framebuffers.
package target

import (
	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// Target is a set of attachments passes render into.
type Target interface {
	Framebuffer() gpu.Handle
	Size() camera.Size
	// IsDefault reports whether the target is the window framebuffer.
	IsDefault() bool
	// Layers is 2 for multi-view (stereo) targets and 1 otherwise.
	Layers() int
	// DepthTexture returns the sampleable depth attachment, or 0.
	DepthTexture() gpu.Handle
	// Bind makes the target current and sets the viewport to cover it.
	Bind(sc *gpu.StateCache)
	Resize(width, height int32)
	Dispose()
}

// Default is the window framebuffer.
type Default struct {
	size camera.Size
}

// NewDefault wraps the window framebuffer of the given size.
func NewDefault(width, height int32) *Default {
	return &Default{size: camera.Size{Width: int(width), Height: int(height)}}
}

func (d *Default) Framebuffer() gpu.Handle { return 0 }

func (d *Default) Size() camera.Size { return d.size }

func (d *Default) IsDefault() bool { return true }

func (d *Default) Layers() int { return 1 }

func (d *Default) DepthTexture() gpu.Handle { return 0 }

func (d *Default) Bind(sc *gpu.StateCache) {
	sc.BindFramebuffer(0)
	sc.Viewport(0, 0, int32(d.size.Width), int32(d.size.Height))
}

// Resize records the new window size; the window system owns the storage.
func (d *Default) Resize(width, height int32) {
	d.size = camera.Size{Width: int(max(width, 1)), Height: int(max(height, 1))}
}

func (d *Default) Dispose() {}
