package target

import (
	"fmt"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
)

// Options describes the attachments of an offscreen target.
type Options struct {
	Width  int32
	Height int32
	// Layers > 1 makes every attachment a texture array rendered with
	// multi-view.
	Layers int32
	Color  []gpu.TextureFormat

	Depth       bool
	DepthFormat gpu.TextureFormat

	Filter        gpu.Filter
	ClampToBorder bool
	// CompareRef enables shadow comparison sampling on the depth texture.
	CompareRef bool
}

// Texture is an offscreen target whose attachments are sampleable textures.
type Texture struct {
	dev   gpu.Device
	opts  Options
	fbo   gpu.Handle
	color []gpu.Handle
	depth gpu.Handle
}

// NewTexture creates the attachments and the framebuffer.
func NewTexture(dev gpu.Device, opts Options) (*Texture, error) {
	opts.Width = max(opts.Width, 1)
	opts.Height = max(opts.Height, 1)
	opts.Layers = max(opts.Layers, 1)
	if opts.Depth && !opts.DepthFormat.IsDepth() {
		opts.DepthFormat = gpu.FormatDepth32F
	}

	t := &Texture{dev: dev, opts: opts}
	if err := t.create(); err != nil {
		return nil, fmt.Errorf("creating render target: %w", err)
	}
	return t, nil
}

// NewMultiView creates a two-layer colour and depth target for stereo
// rendering.
func NewMultiView(dev gpu.Device, width, height int32) (*Texture, error) {
	if !dev.Capabilities().MultiView {
		gpu.Usagef("NewMultiView", "device %s has no multi-view support", dev.Capabilities().Renderer)
	}
	return NewTexture(dev, Options{
		Width:  width,
		Height: height,
		Layers: 2,
		Color:  []gpu.TextureFormat{gpu.FormatRGBA8},
		Depth:  true,
		Filter: gpu.FilterLinear,
	})
}

func (t *Texture) desc(f gpu.TextureFormat) gpu.TextureDesc {
	return gpu.TextureDesc{
		Width:         t.opts.Width,
		Height:        t.opts.Height,
		Layers:        t.opts.Layers,
		Format:        f,
		Filter:        t.opts.Filter,
		ClampToBorder: t.opts.ClampToBorder,
		CompareRef:    t.opts.CompareRef && f.IsDepth(),
	}
}

func (t *Texture) create() error {
	for _, f := range t.opts.Color {
		t.color = append(t.color, t.dev.CreateTexture(t.desc(f)))
	}
	if t.opts.Depth {
		t.depth = t.dev.CreateTexture(t.desc(t.opts.DepthFormat))
	}

	fbo, err := t.dev.CreateFramebuffer(gpu.FramebufferDesc{
		Color:       t.color,
		Depth:       t.depth,
		DepthFormat: t.opts.DepthFormat,
		Layered:     t.opts.Layers > 1,
	})
	if err != nil {
		t.Dispose()
		return err
	}
	t.fbo = fbo
	return nil
}

func (t *Texture) Framebuffer() gpu.Handle { return t.fbo }

func (t *Texture) Size() camera.Size {
	return camera.Size{Width: int(t.opts.Width), Height: int(t.opts.Height)}
}

func (t *Texture) IsDefault() bool { return false }

func (t *Texture) Layers() int { return int(t.opts.Layers) }

func (t *Texture) DepthTexture() gpu.Handle { return t.depth }

// ColorTexture returns colour attachment i, or 0.
func (t *Texture) ColorTexture(i int) gpu.Handle {
	if i < 0 || i >= len(t.color) {
		return 0
	}
	return t.color[i]
}

func (t *Texture) Bind(sc *gpu.StateCache) {
	sc.BindFramebuffer(t.fbo)
	sc.Viewport(0, 0, t.opts.Width, t.opts.Height)
}

// Resize reallocates the attachments if the size changed.
func (t *Texture) Resize(width, height int32) {
	width, height = max(width, 1), max(height, 1)
	if width == t.opts.Width && height == t.opts.Height {
		return
	}
	t.opts.Width, t.opts.Height = width, height
	for i, f := range t.opts.Color {
		t.dev.ResizeTexture(t.color[i], t.desc(f))
	}
	if t.depth != 0 {
		t.dev.ResizeTexture(t.depth, t.desc(t.opts.DepthFormat))
	}
}

// Dispose releases all GPU resources.
func (t *Texture) Dispose() {
	if t.fbo != 0 {
		t.dev.DeleteFramebuffer(t.fbo)
		t.fbo = 0
	}
	for _, c := range t.color {
		t.dev.DeleteTexture(c)
	}
	t.color = nil
	if t.depth != 0 {
		t.dev.DeleteTexture(t.depth)
		t.depth = 0
	}
}
