package hiz

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
	"github.com/Faultbox/xrgl/internal/logger"
)

// Compute local sizes of the pyramid and cull programs.
const (
	pyramidGroup = 8
	cullGroup    = 64
)

// Stats describes the last cull run.
type Stats struct {
	Objects int
	Culled  int
	// GPU is set when the compute path ran.
	GPU bool
	// Reused is set when a secondary eye took the primary eye's results.
	Reused bool
}

type treeKey struct {
	tree    *content.Tree
	version uint64
}

// Engine runs the depth cull for the large occluders of a set of content
// trees. It owns the pyramid texture and the cull object buffer.
type Engine struct {
	dev     gpu.Device
	sc      *gpu.StateCache
	cache   *program.Cache
	compute bool

	pyramid gpu.Handle
	width   int32
	height  int32
	levels  int32

	cpu   Pyramid
	depth []float32

	buffer  gpu.Handle
	bufSize int
	data    []byte
	objects []Object
	draws   []*content.Draw
	keys    []treeKey

	lastFrame uint64
	ran       bool
	stats     Stats

	log *zap.Logger
}

// New creates an engine. The compute path is used when the device supports
// it.
func New(dev gpu.Device, sc *gpu.StateCache, cache *program.Cache) *Engine {
	return &Engine{
		dev:     dev,
		sc:      sc,
		cache:   cache,
		compute: dev.Capabilities().Compute,
		log:     logger.Named("hiz"),
	}
}

// Run culls the large occluders of trees against the depth attachment of
// tgt as seen by cam, and stores the result in each draw's Culled flag.
// Secondary stereo eyes reuse the results of the primary eye of the same
// frame.
func (e *Engine) Run(frame uint64, cam *camera.Camera, tgt target.Target, trees []*content.Tree) Stats {
	if !cam.IsPrimaryEye() && e.ran && frame == e.lastFrame {
		st := e.stats
		st.Reused = true
		return st
	}
	e.lastFrame, e.ran = frame, true

	e.sync(trees)
	e.stats = Stats{Objects: len(e.draws)}
	if len(e.draws) == 0 {
		return e.stats
	}

	for i, d := range e.draws {
		b := d.Object.WorldBounds()
		e.objects[i].Min, e.objects[i].Max = b.Min, b.Max
	}

	size := tgt.Size()
	w, h := int32(size.Width), int32(size.Height)
	view := View{
		ViewProj:   cam.ViewProjection(),
		Frustum:    cam.Frustum(),
		ScreenSize: mgl32.Vec2{float32(w), float32(h)},
	}

	if e.compute && tgt.DepthTexture() != 0 && tgt.Layers() == 1 {
		e.runGPU(&view, tgt.DepthTexture(), w, h)
		e.stats.GPU = true
	} else {
		e.runCPU(&view, tgt.Framebuffer(), w, h)
	}

	for i, d := range e.draws {
		d.Culled = e.objects[i].Culled
		if d.Culled {
			e.stats.Culled++
		}
	}
	return e.stats
}

// sync reassigns cull ids when the trees changed shape.
func (e *Engine) sync(trees []*content.Tree) {
	keys := make([]treeKey, len(trees))
	for i, t := range trees {
		keys[i] = treeKey{t, t.Version()}
	}
	if slices.Equal(keys, e.keys) {
		return
	}
	e.keys = keys

	var draws []*content.Draw
	for _, t := range trees {
		t.Walk(func(d *content.Draw) {
			if d.Object.LargeOccluder() {
				draws = append(draws, d)
			} else {
				d.Culled = false
			}
		})
	}

	for _, d := range e.draws {
		if !slices.Contains(draws, d) {
			d.CullID = -1
			d.Culled = false
			d.CullVersion++
		}
	}
	for i, d := range draws {
		if d.CullID != int32(i) {
			d.CullID = int32(i)
			d.CullVersion++
		}
	}
	e.draws = draws
	e.objects = make([]Object, len(draws))
	for i := range e.objects {
		e.objects[i].Visible = true
	}
	e.log.Debug("cull objects reassigned", zap.Int("count", len(draws)))
}

// upload writes the cull objects, reallocating the buffer when the count
// changed.
func (e *Engine) upload() {
	n := len(e.objects) * ObjectSize
	if cap(e.data) < n {
		e.data = make([]byte, n)
	}
	e.data = e.data[:n]
	Encode(e.data, e.objects)

	if e.buffer == 0 {
		e.buffer = e.dev.CreateBuffer()
	}
	if n != e.bufSize {
		e.dev.BufferData(gpu.StorageBuffer, e.buffer, e.data, n)
		e.bufSize = n
		return
	}
	e.dev.BufferSubData(gpu.StorageBuffer, e.buffer, 0, e.data)
}

func (e *Engine) runCPU(view *View, fb gpu.Handle, w, h int32) {
	if len(e.depth) != int(w*h) {
		e.depth = make([]float32, w*h)
	}
	e.dev.ReadDepth(fb, 0, 0, w, h, e.depth)
	e.cpu.Build(e.depth, w, h)
	for i := range e.objects {
		Cull(&e.cpu, view, &e.objects[i])
	}
	e.upload()
}

func (e *Engine) runGPU(view *View, depth gpu.Handle, w, h int32) {
	e.ensurePyramid(w, h)

	cp := e.cache.Get(shading.HiZCopyShader, nil, nil, "")
	e.sc.UseProgram(cp.Handle)
	e.dev.BindTexture(gpu.TextureUnitDepth, depth, false)
	e.dev.BindImageTexture(gpu.ImageUnitDest, e.pyramid, 0, gpu.WriteOnly, gpu.FormatR32F)
	e.dev.DispatchCompute(groups(w, pyramidGroup), groups(h, pyramidGroup), 1)
	e.dev.MemoryBarrier(gpu.BarrierImageAccess)

	down := e.cache.Get(shading.HiZDownsampleShader, nil, nil, "")
	e.sc.UseProgram(down.Handle)
	for l := int32(1); l < e.levels; l++ {
		lw, lh := LevelSize(w, h, l)
		e.dev.BindImageTexture(gpu.ImageUnitSource, e.pyramid, l-1, gpu.ReadOnly, gpu.FormatR32F)
		e.dev.BindImageTexture(gpu.ImageUnitDest, e.pyramid, l, gpu.WriteOnly, gpu.FormatR32F)
		e.dev.DispatchCompute(groups(lw, pyramidGroup), groups(lh, pyramidGroup), 1)
		e.dev.MemoryBarrier(gpu.BarrierImageAccess)
	}
	e.dev.MemoryBarrier(gpu.BarrierTextureFetch)

	e.upload()

	cull := e.cache.Get(shading.DepthCullShader, nil, nil, "")
	e.sc.UseProgram(cull.Handle)
	e.dev.SetUniformMat4(cull.Uniform("uViewProj"), view.ViewProj)
	for i, p := range view.Frustum.Planes() {
		e.dev.SetUniformVec4(cull.Uniform(fmt.Sprintf("uPlanes[%d]", i)), p)
	}
	e.dev.SetUniformVec2(cull.Uniform("uScreenSize"), view.ScreenSize)
	e.dev.SetUniformInt(cull.Uniform("uLevels"), e.levels)
	e.dev.SetUniformInt(cull.Uniform("uCount"), int32(len(e.objects)))
	e.dev.BindTexture(gpu.TextureUnitDepth, e.pyramid, false)
	e.dev.BindBufferBase(gpu.StorageBuffer, gpu.BindingCullObjects, e.buffer)
	e.dev.DispatchCompute(groups(int32(len(e.objects)), cullGroup), 1, 1)
	e.dev.MemoryBarrier(gpu.BarrierStorage | gpu.BarrierBufferUpdate)

	e.dev.ReadBufferData(gpu.StorageBuffer, e.buffer, 0, e.data)
	Decode(e.data, e.objects)
}

func (e *Engine) ensurePyramid(w, h int32) {
	if e.pyramid != 0 && e.width == w && e.height == h {
		return
	}
	e.width, e.height, e.levels = w, h, LevelCount(w, h)
	desc := gpu.TextureDesc{Width: w, Height: h, Levels: e.levels, Format: gpu.FormatR32F, Filter: gpu.FilterNearest}
	if e.pyramid == 0 {
		e.pyramid = e.dev.CreateTexture(desc)
	} else {
		e.dev.ResizeTexture(e.pyramid, desc)
	}
	e.log.Debug("pyramid allocated", zap.Int32("width", w), zap.Int32("height", h), zap.Int32("levels", e.levels))
}

func groups(n, size int32) uint32 {
	return uint32((n + size - 1) / size)
}

// Pyramid returns the CPU pyramid of the last CPU run.
func (e *Engine) Pyramid() *Pyramid { return &e.cpu }

// Objects returns the cull records of the last run, indexed by cull id.
func (e *Engine) Objects() []Object { return e.objects }

// Buffer returns the cull object buffer.
func (e *Engine) Buffer() gpu.Handle { return e.buffer }

// Dispose deletes the pyramid texture and the object buffer.
func (e *Engine) Dispose() {
	if e.pyramid != 0 {
		e.dev.DeleteTexture(e.pyramid)
		e.pyramid = 0
	}
	if e.buffer != 0 {
		e.dev.DeleteBuffer(e.buffer)
		e.buffer, e.bufSize = 0, 0
	}
	for _, d := range e.draws {
		d.CullID = -1
		d.Culled = false
	}
	e.draws, e.objects, e.keys = nil, nil, nil
	e.ran = false
}
