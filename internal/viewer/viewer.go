// Package viewer implements the interactive scene viewer loop.
package viewer

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Faultbox/xrgl/internal/config"
	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/debug"
	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu/glgpu"
	"github.com/Faultbox/xrgl/internal/engine/input"
	"github.com/Faultbox/xrgl/internal/engine/picking"
	"github.com/Faultbox/xrgl/internal/engine/renderer"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
	"github.com/Faultbox/xrgl/internal/engine/window"
	"github.com/Faultbox/xrgl/internal/logger"
)

// Viewer is the interactive viewer instance.
type Viewer struct {
	cfg      *config.Config
	running  bool
	log      *zap.Logger
	window   *window.Window
	device   *glgpu.Device
	renderer *renderer.Renderer
	input    *input.Input
	capture  *debug.Capture

	scene    *scene.Scene
	orbit    *camera.OrbitCamera
	viewport *target.Default

	selection  *scene.Layer
	selected   *scene.Object
	bounds     *scene.Object
	showBounds bool
	wantShot   bool
}

// New creates the window, the GL device and the renderer, and loads the
// demo scene.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:     cfg,
		log:     logger.Named("viewer"),
		input:   input.New(),
		capture: debug.NewCapture("screenshots", "xrgl"),
		orbit:   camera.NewOrbitCamera(),
	}
	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      "xrgl",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		FPSLimit:   cfg.Graphics.FPSLimit,
		Samples:    cfg.Render.Samples(),
		Debug:      cfg.Render.DebugOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// GL device and renderer come AFTER the window, since the context must exist
	v.device, err = glgpu.New()
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	v.renderer, err = renderer.New(v.device, renderer.OptionsFromConfig(cfg))
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	w, h := v.window.DrawableSize()
	v.viewport = target.NewDefault(w, h)

	v.scene = demoScene()
	v.selection = scene.NewLayer("selection", scene.LayerOutline)
	v.scene.AddLayer(v.selection)
	v.orbit.FitToBounds(sceneBounds(v.scene))

	v.log.Info("viewer initialized successfully")
	return v, nil
}

func sceneBounds(s *scene.Scene) geom.AABB {
	b := geom.EmptyAABB()
	for _, o := range s.Main.Objects() {
		b = b.Union(o.WorldBounds())
	}
	return b
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleInput()

		// 2. Render
		cam := v.orbit.Camera(v.viewport.Size())
		v.renderer.Render(cam, v.scene, v.viewport, true)
		if x, y, ok := v.input.Clicked(sdl.BUTTON_LEFT); ok {
			v.pick(x, y)
		}
		if v.wantShot {
			v.screenshot()
			v.wantShot = false
		}

		// 3. Present
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			fields := []zap.Field{zap.Int("fps", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000))}
			for _, st := range v.renderer.Stats() {
				fields = append(fields, zap.Int(st.Name+".draws", st.Draws), zap.Int(st.Name+".culled", st.Culled))
			}
			v.log.Debug("fps", fields...)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleInput() {
	if _, _, ok := v.input.Resized(); ok {
		w, h := v.window.DrawableSize()
		v.viewport.Resize(w, h)
		v.log.Debug("viewport resized", zap.Int32("width", w), zap.Int32("height", h))
	}
	for _, event := range v.input.Events() {
		if event.Type != input.EventKeyDown {
			continue
		}
		switch event.Key {
		case sdl.SCANCODE_ESCAPE:
			v.running = false
		case sdl.SCANCODE_F12:
			v.wantShot = true
		case sdl.SCANCODE_B:
			v.toggleBounds()
		case sdl.SCANCODE_F3:
			v.toggleDebugLog()
		case sdl.SCANCODE_F11:
			if err := v.window.SetFullscreen(!v.window.Fullscreen()); err != nil {
				v.log.Warn("fullscreen toggle failed", zap.Error(err))
			}
		}
	}

	if dx, dy := v.input.Dragged(sdl.BUTTON_RIGHT); dx != 0 || dy != 0 {
		v.orbit.HandleDrag(dx, dy)
	}
	if d := v.input.Scrolled(); d != 0 {
		v.orbit.HandleZoom(d)
	}
	if v.showBounds {
		v.updateBounds()
	}
}

// toggleDebugLog switches the process log between debug and the configured
// level.
func (v *Viewer) toggleDebugLog() {
	name := "debug"
	if logger.Level() == zapcore.DebugLevel {
		name = v.cfg.Logging.Level
	}
	if err := logger.SetLevel(name); err != nil {
		v.log.Warn("log level not changed", zap.Error(err))
		return
	}
	v.log.Info("log level changed", zap.String("level", logger.Level().String()))
}

// pick selects the object under a window position, or clears the selection.
func (v *Viewer) pick(x, y int) {
	// Mouse positions are in screen coordinates.
	sw, _ := v.window.GetSize()
	scale := float32(v.viewport.Size().Width) / float32(max(sw, 1))
	px, py := float32(x)*scale, float32(y)*scale

	var (
		obj *scene.Object
		pos mgl32.Vec3
	)
	if v.cfg.Render.HitTest {
		if res := v.renderer.HitTest(int(px), int(py)); res.Hit {
			obj, pos = res.Object, res.Position
		}
	} else {
		cam := v.orbit.Camera(v.viewport.Size())
		ray := picking.ScreenToRay(px+0.5, py+0.5, v.viewport.Size(), cam.InverseViewProjection())
		if hit, ok := picking.Pick(v.scene, ray); ok {
			obj, pos = hit.Object, hit.Position
		}
	}

	if v.selected != nil {
		v.selection.Remove(v.selected)
		v.selected = nil
	}
	if obj == nil || obj == v.bounds {
		return
	}
	v.selected = obj
	v.selection.Add(obj)
	v.log.Info("picked", zap.String("object", obj.Name), zap.Float32s("position", pos[:]))
}

// toggleBounds shows the bounds of the objects the depth cull rejected.
func (v *Viewer) toggleBounds() {
	if v.renderer.Cull() == nil {
		return
	}
	v.showBounds = !v.showBounds
	if !v.showBounds && v.bounds != nil {
		v.scene.Main.Remove(v.bounds)
		v.renderer.ReleaseObject(v.bounds)
		v.bounds = nil
	}
}

func (v *Viewer) updateBounds() {
	g := debug.BoundsGeometry(debug.CulledBounds(v.renderer.Cull()), debug.DefaultBoxPadding)
	if v.bounds == nil {
		m := shading.NewUnlitMaterial(mgl32.Vec4{1, 0.2, 0.2, 1})
		st := m.State()
		st.CastShadows = false
		m.SetState(st)
		v.bounds = scene.NewObject("culled-bounds", g, m)
		v.scene.Main.Add(v.bounds)
		return
	}
	v.bounds.SetGeometry(g)
}

// screenshot saves the window colour and depth, and the coarsest useful
// level of the depth pyramid.
func (v *Viewer) screenshot() {
	v.renderer.BeginDrawSurface()
	defer v.renderer.EndDrawSurface()

	if path, err := v.capture.Save("color", debug.ReadColor(v.device, v.viewport)); err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
	} else {
		v.log.Info("screenshot saved", zap.String("path", path))
	}
	if _, err := v.capture.Save("depth", debug.ReadDepth(v.device, v.viewport)); err != nil {
		v.log.Warn("depth capture failed", zap.Error(err))
	}
	if cull := v.renderer.Cull(); cull != nil && cull.Pyramid().Count() > 4 {
		if _, err := v.capture.Save("hiz", debug.Upscale(debug.PyramidLevel(cull.Pyramid(), 4), 16)); err != nil {
			v.log.Warn("pyramid capture failed", zap.Error(err))
		}
	}
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}
