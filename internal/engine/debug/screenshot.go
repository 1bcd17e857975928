package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/hiz"
	"github.com/Faultbox/xrgl/internal/engine/target"
)

// Capture writes debug images as timestamped PNG files.
type Capture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewCapture creates a capture writing <prefix>_<name>_<timestamp>.png files
// into outputDir.
func NewCapture(outputDir, prefix string) *Capture {
	return &Capture{outputDir: outputDir, prefix: prefix, now: time.Now}
}

// Filename returns the path the next image called name would be saved to.
func (c *Capture) Filename(name string) string {
	timestamp := c.now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_%s.png", c.prefix, name, timestamp)
	if c.outputDir != "" {
		filename = filepath.Join(c.outputDir, filename)
	}
	return filename
}

// Save encodes img as PNG and returns the written path.
func (c *Capture) Save(name string, img image.Image) (string, error) {
	if c.outputDir != "" {
		if err := os.MkdirAll(c.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	filename := c.Filename(name)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}

// ReadColor reads colour attachment 0 of t. Rows are flipped since the
// framebuffer origin is bottom-left.
func ReadColor(dev gpu.Device, t target.Target) *image.RGBA {
	size := t.Size()
	w, h := size.Width, size.Height
	pixels := make([]byte, w*h*4)
	dev.ReadPixels(t.Framebuffer(), 0, 0, 0, int32(w), int32(h), pixels)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	row := w * 4
	for y := range h {
		src := (h - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img
}

// ReadDepth reads the depth attachment of t as a grey image, near black.
func ReadDepth(dev gpu.Device, t target.Target) *image.Gray {
	size := t.Size()
	w, h := int32(size.Width), int32(size.Height)
	depth := make([]float32, w*h)
	dev.ReadDepth(t.Framebuffer(), 0, 0, w, h, depth)
	return DepthImage(depth, w, h)
}

// DepthImage converts a bottom-up depth image to grey.
func DepthImage(depth []float32, w, h int32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, int(w), int(h)))
	for y := range h {
		for x := range w {
			img.SetGray(int(x), int(h-1-y), gray(depth[y*w+x]))
		}
	}
	return img
}

// PyramidLevel renders level l of a depth pyramid.
func PyramidLevel(p *hiz.Pyramid, l int32) *image.Gray {
	w, h := p.Size(l)
	return DepthImage(p.Levels[l], w, h)
}

// Upscale scales src by an integer factor with nearest-neighbour sampling so
// that coarse pyramid levels stay readable.
func Upscale(src image.Image, factor int) image.Image {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func gray(d float32) color.Gray {
	d = min(max(d, 0), 1)
	return color.Gray{Y: uint8(d*255 + 0.5)}
}
