// Package renderer drives the render passes of a frame over a GPU device.
package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/config"
	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/content"
	"github.com/Faultbox/xrgl/internal/engine/dispatch"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/hiz"
	"github.com/Faultbox/xrgl/internal/engine/pass"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shader"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
	"github.com/Faultbox/xrgl/internal/logger"
)

// Options holds renderer configuration.
type Options struct {
	Passes pass.Options

	// ShaderDir overrides the built-in shader sources when set.
	ShaderDir string
	// HotReload watches ShaderDir and recompiles edited programs.
	HotReload bool

	DebugOutput bool
	FinishFrame bool
}

// OptionsFromConfig converts the render section of a loaded config.
func OptionsFromConfig(cfg *config.Config) Options {
	r := cfg.Render
	opts := Options{
		Passes: pass.Options{
			UseDepthPass:         r.UseDepthPass,
			UseOcclusionQuery:    r.UseOcclusionQuery,
			UseDepthCull:         r.UseDepthCull,
			SortByCameraDistance: r.SortByCameraDistance,
			UsePlanarReflection:  r.UsePlanarReflection,
			FrustumCulling:       r.FrustumCulling,
			HitTest:              r.HitTest,
			Outline: pass.OutlineOptions{
				Enabled: r.Outline.Enabled,
				Size:    r.Outline.Size,
				Color:   mgl32.Vec4(r.Outline.Color),
			},
		},
		ShaderDir:   cfg.Shaders.Dir,
		HotReload:   cfg.Shaders.HotReload,
		DebugOutput: r.DebugOutput,
		FinishFrame: r.FinishFrame,
	}
	switch r.ShadowMap.Mode {
	case "hard":
		opts.Passes.ShadowMap = pass.ShadowOptions{Enabled: true, Mode: shading.ShadowHard, Size: r.ShadowMap.Size}
	case "vsm":
		opts.Passes.ShadowMap = pass.ShadowOptions{Enabled: true, Mode: shading.ShadowVSM, Size: r.ShadowMap.Size}
	}
	return opts
}

// PassStats is the work one pass did in the last frame.
type PassStats struct {
	Name string
	pass.Stats
}

// Renderer owns the GPU-side state of a scene viewer: the program cache,
// the content trees, the pass pipeline and their render targets.
//
// Every method except Enqueue must be called on the thread that created the
// renderer.
type Renderer struct {
	dev   gpu.Device
	guard gpu.ThreadGuard
	state *gpu.StateCache
	opts  Options
	log   *zap.Logger

	cache    *program.Cache
	registry *program.Registry
	store    *content.Store
	cull     *hiz.Engine
	frame    *pass.Frame
	passes   []pass.Pass
	hitTest  *pass.HitTest
	queue    *dispatch.Queue
	watcher  *shader.Watcher

	number uint64
	closed bool
}

// New creates a renderer over dev.
// IMPORTANT: Must be called on the thread that owns the GPU context, after
// the context is current.
func New(dev gpu.Device, opts Options) (*Renderer, error) {
	r := &Renderer{
		dev:      dev,
		guard:    gpu.NewThreadGuard(),
		state:    gpu.NewStateCache(dev),
		opts:     opts,
		log:      logger.Named("renderer"),
		registry: program.NewRegistry(),
		queue:    dispatch.New(),
	}
	r.state.Reset()

	caps := dev.Capabilities()
	r.log.Info("renderer initialized",
		zap.String("version", caps.Version),
		zap.String("renderer", caps.Renderer),
		zap.Bool("compute", caps.Compute),
		zap.Bool("multiview", caps.MultiView),
	)

	lib := shader.NewLibrary(opts.ShaderDir)
	r.cache = program.NewCache(dev, lib)
	r.registry.Register(shading.TypeColor, shading.ColorGlobals)
	r.store = content.NewStore(dev, r.cache, r.registry)
	r.frame = pass.NewFrame(dev, r.state, r.cache, &r.opts.Passes, r.store)
	if opts.Passes.UseDepthCull {
		r.cull = hiz.New(dev, r.state, r.cache)
		r.frame.Cull = r.cull
	}

	r.passes = pass.NewPipeline(&r.opts.Passes)
	for _, p := range r.passes {
		if h, ok := p.(*pass.HitTest); ok {
			r.hitTest = h
		}
	}

	if opts.HotReload && opts.ShaderDir != "" {
		w, err := shader.NewWatcher(opts.ShaderDir, r.shaderChanged)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("watching shaders: %w", err)
		}
		r.watcher = w
	}
	if opts.DebugOutput {
		r.EnableDebug(true)
	}
	return r, nil
}

// shaderChanged runs on the watcher goroutine and hands the invalidation to
// the render thread.
func (r *Renderer) shaderChanged(name string) {
	r.queue.Enqueue(func() {
		n := r.cache.Invalidate(name)
		r.log.Info("shader source changed", zap.String("source", name), zap.Int("programs", n))
	})
}

// Passes returns the pipeline in execution order.
func (r *Renderer) Passes() []pass.Pass { return r.passes }

// Cache returns the program cache.
func (r *Renderer) Cache() *program.Cache { return r.cache }

// Cull returns the depth cull engine, nil when depth culling is off.
func (r *Renderer) Cull() *hiz.Engine { return r.cull }

// Registry returns the material-type registry. Custom material types
// register their global updates here before their first frame.
func (r *Renderer) Registry() *program.Registry { return r.registry }

// Frame returns the number of the last rendered frame.
func (r *Renderer) Frame() uint64 { return r.number }

// Render draws scene s from cam into viewport.
//
// A stereo camera is rendered one eye per call: the primary eye starts a new
// frame, the other eye reuses its shadow map, depth cull and hit-test
// results. flush submits the command stream without waiting.
func (r *Renderer) Render(cam *camera.Camera, s *scene.Scene, viewport target.Target, flush bool) {
	r.guard.Check("Renderer.Render")
	if r.closed {
		gpu.Usagef("Renderer.Render", "renderer is closed")
	}

	f := r.frame
	primary := cam.IsPrimaryEye()
	if primary {
		r.number++
		f.Reset(r.number, s, viewport)
		for _, p := range r.passes {
			p.Configure(f)
		}
	} else {
		f.Scene, f.Target = s, viewport
	}
	f.Camera = cam

	f.Bind(viewport)
	f.Clear(cam.Background, gpu.ClearColor|gpu.ClearDepth)
	for _, p := range r.passes {
		p.Render(f)
	}

	if n := r.queue.Drain(); n > 0 {
		r.log.Debug("drained deferred actions", zap.Int("count", n))
	}
	if flush {
		r.dev.Flush()
	}
	if r.opts.FinishFrame {
		r.dev.Finish()
	}

	if ce := r.log.Check(zap.DebugLevel, "frame rendered"); ce != nil {
		fields := []zap.Field{zap.Uint64("frame", r.number), zap.Int("eye", cam.ActiveEye)}
		for _, p := range r.passes {
			st := p.Stats()
			fields = append(fields, zap.Ints(p.Name(), []int{st.Draws, st.Skipped, st.Culled, st.Programs}))
		}
		ce.Write(fields...)
	}
}

// Stats returns the per-pass counters of the last frame.
func (r *Renderer) Stats() []PassStats {
	out := make([]PassStats, 0, len(r.passes))
	for _, p := range r.passes {
		out = append(out, PassStats{Name: p.Name(), Stats: p.Stats()})
	}
	return out
}

// HitTest reports what was drawn at window pixel x, y (origin top-left) in
// the last frame.
func (r *Renderer) HitTest(x, y int) pass.HitResult {
	r.guard.Check("Renderer.HitTest")
	if r.hitTest == nil {
		gpu.Usagef("Renderer.HitTest", "hit testing is disabled")
	}
	return r.hitTest.Resolve(x, y)
}

// Enqueue schedules fn to run on the render thread after the passes of the
// next frame. Safe to call from any goroutine.
func (r *Renderer) Enqueue(fn func()) { r.queue.Enqueue(fn) }

// BeginDrawSurface waits for the GPU and forgets the cached state so that
// foreign code can draw into the surface.
func (r *Renderer) BeginDrawSurface() {
	r.guard.Check("Renderer.BeginDrawSurface")
	r.dev.FenceWait()
	r.state.Reset()
}

// EndDrawSurface resynchronizes after foreign drawing.
func (r *Renderer) EndDrawSurface() {
	r.guard.Check("Renderer.EndDrawSurface")
	r.dev.FenceWait()
	r.state.Reset()
}

// EnableDebug routes driver diagnostics to the log.
func (r *Renderer) EnableDebug(on bool) {
	r.guard.Check("Renderer.EnableDebug")
	if !on {
		r.dev.SetDebugCallback(nil)
		return
	}
	log := r.log.Named("gl")
	r.dev.SetDebugCallback(func(d gpu.Diagnostic) {
		fields := []zap.Field{
			zap.String("source", d.Source),
			zap.String("type", d.Type),
			zap.Uint32("id", d.ID),
			zap.Stringer("severity", d.Severity),
		}
		switch d.Severity {
		case gpu.SeverityHigh:
			log.Error(d.Message, fields...)
		case gpu.SeverityMedium:
			log.Warn(d.Message, fields...)
		default:
			log.Debug(d.Message, fields...)
		}
	})
}

// ReleaseMaterial frees the programs and buffers held for m.
func (r *Renderer) ReleaseMaterial(m shading.Material) {
	r.guard.Check("Renderer.ReleaseMaterial")
	r.store.ReleaseMaterial(m)
}

// ReleaseObject frees the per-object buffers held for o by the content trees
// and every pass.
func (r *Renderer) ReleaseObject(o *scene.Object) {
	r.guard.Check("Renderer.ReleaseObject")
	r.store.ReleaseObject(o)
	for _, p := range r.passes {
		p.ReleaseObject(o)
	}
}

// ForgetLayer drops the content trees built for l.
func (r *Renderer) ForgetLayer(l *scene.Layer) {
	r.guard.Check("Renderer.ForgetLayer")
	r.store.Forget(l)
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	r.guard.Check("Renderer.Close")
	r.log.Info("closing renderer", zap.Uint64("frames", r.number))
	r.closed = true

	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
	for _, p := range r.passes {
		p.Dispose()
	}
	if r.cull != nil {
		r.cull.Dispose()
	}
	r.frame.Dispose()
	r.store.Dispose()
	r.cache.Dispose()
	r.dev.SetDebugCallback(nil)

	st := r.cache.Stats()
	r.log.Debug("program cache",
		zap.Int("hits", st.Hits),
		zap.Int("misses", st.Misses),
		zap.Int("compiles", st.Compiles),
		zap.Int("evictions", st.Evictions),
	)
}
