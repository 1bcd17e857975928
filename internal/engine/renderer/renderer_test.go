package renderer

import (
	"errors"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/xrgl/internal/config"
	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/gpu/gputest"
	"github.com/Faultbox/xrgl/internal/engine/lighting"
	"github.com/Faultbox/xrgl/internal/engine/pass"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/engine/target"
	"github.com/Faultbox/xrgl/internal/logger"
)

func init() {
	logger.InitNop()
}

func testCamera() *camera.Camera {
	cam := camera.NewPerspective(mgl32.DegToRad(60), 1, 0.1, 100, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	cam.ViewSize = camera.Size{Width: 64, Height: 64}
	return cam
}

func newRenderer(t *testing.T, opts Options) (*Renderer, *gputest.Device) {
	t.Helper()
	gputest.LockThread(t)
	dev := gputest.NewDevice(64, 64)
	r, err := New(dev, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(r.Close)
	return r, dev
}

func addBox(s *scene.Scene, name string, size, pos mgl32.Vec3, color mgl32.Vec4) *scene.Object {
	o := scene.NewObject(name, scene.Box(size), shading.NewColorMaterial(color))
	o.SetWorld(mgl32.Translate3D(pos[0], pos[1], pos[2]))
	s.Main.Add(o)
	return o
}

func colorDraws(dev *gputest.Device) int {
	n := 0
	for _, c := range dev.DrawsTo(0) {
		if c.ColorWrite && !c.Fullscreen {
			n++
		}
	}
	return n
}

func statsOf(r *Renderer, name string) (pass.Stats, bool) {
	for _, st := range r.Stats() {
		if st.Name == name {
			return st.Stats, true
		}
	}
	return pass.Stats{}, false
}

func TestRenderSingleCube(t *testing.T) {
	r, dev := newRenderer(t, Options{Passes: pass.Options{FrustumCulling: true}})
	s := scene.New("cube")
	addBox(s, "cube", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.Vec4{1, 0, 0, 1})

	r.Render(testCamera(), s, target.NewDefault(64, 64), true)

	if n := colorDraws(dev); n != 1 {
		t.Errorf("colour draws = %d, want 1", n)
	}
	if d := dev.DepthAt(0, 32, 32); d >= 1 {
		t.Errorf("depth at centre = %v, want the cube", d)
	}
	if dev.Flushes != 1 {
		t.Errorf("flushes = %d, want 1", dev.Flushes)
	}
	if dev.Finishes != 0 {
		t.Errorf("finishes = %d without FinishFrame", dev.Finishes)
	}
	if r.Frame() != 1 {
		t.Errorf("frame = %d, want 1", r.Frame())
	}
}

func TestRenderCullsCubeBehindWall(t *testing.T) {
	r, dev := newRenderer(t, Options{Passes: pass.Options{UseDepthPass: true, UseDepthCull: true}})
	s := scene.New("wall")
	cube := addBox(s, "cube", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.Vec4{1, 0, 0, 1})
	wall := addBox(s, "wall", mgl32.Vec3{2, 2, 0.2}, mgl32.Vec3{0, 0, 2}, mgl32.Vec4{0, 0, 1, 1})
	cube.SetLargeOccluder(true)
	wall.SetLargeOccluder(true)

	r.Render(testCamera(), s, target.NewDefault(64, 64), false)

	if r.Cull() == nil {
		t.Fatal("depth cull not built")
	}
	st, ok := statsOf(r, "color")
	if !ok {
		t.Fatal("no color pass")
	}
	if st.Draws != 1 || st.Culled != 1 {
		t.Errorf("color stats = %+v, want the wall drawn and the cube culled", st)
	}
	if n := colorDraws(dev); n != 1 {
		t.Errorf("colour draws = %d, want only the wall", n)
	}
}

func TestRenderWithoutShadowLight(t *testing.T) {
	r, dev := newRenderer(t, Options{Passes: pass.Options{
		ShadowMap: pass.ShadowOptions{Enabled: true, Size: 32},
	}})
	s := scene.New("unlit")
	addBox(s, "cube", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.Vec4{1, 0, 0, 1})

	r.Render(testCamera(), s, target.NewDefault(64, 64), false)

	st, ok := statsOf(r, "shadow")
	if !ok {
		t.Fatal("no shadow pass")
	}
	if st.Draws != 0 {
		t.Errorf("shadow draws = %d, want 0", st.Draws)
	}
	if len(dev.Draws) != 1 {
		t.Errorf("draws = %d, want only the colour draw", len(dev.Draws))
	}
}

func TestRenderStereoReusesShadow(t *testing.T) {
	r, dev := newRenderer(t, Options{Passes: pass.Options{
		ShadowMap: pass.ShadowOptions{Enabled: true, Size: 32},
	}})
	s := scene.New("stereo")
	addBox(s, "cube", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.Vec4{1, 0, 0, 1})
	s.Lights.AddDirectional(&lighting.DirectionalLight{Direction: mgl32.Vec3{0.3, 1, 0.2}, Intensity: 1, CastShadows: true})

	cam := testCamera()
	cam.Eyes = []camera.Eye{
		{View: mgl32.Translate3D(0.03, 0, 0).Mul4(cam.View), Projection: cam.Projection},
		{View: mgl32.Translate3D(-0.03, 0, 0).Mul4(cam.View), Projection: cam.Projection},
	}
	win := target.NewDefault(64, 64)
	r.Render(cam.ForEye(0), s, win, false)
	r.Render(cam.ForEye(1), s, win, false)

	if r.Frame() != 1 {
		t.Errorf("frame = %d after both eyes, want 1", r.Frame())
	}
	var shadow *pass.Shadow
	for _, p := range r.Passes() {
		if sp, ok := p.(*pass.Shadow); ok {
			shadow = sp
		}
	}
	if shadow == nil || shadow.Target() == nil {
		t.Fatal("shadow pass did not render")
	}
	if n := len(dev.DrawsTo(shadow.Target().Framebuffer())); n != 1 {
		t.Errorf("shadow draws = %d over two eyes, want 1", n)
	}
	draws := dev.DrawsTo(0)
	if len(draws) != 2 {
		t.Fatalf("window draws = %d, want one per eye", len(draws))
	}
	for _, c := range draws {
		p := dev.Programs[c.Program]
		if p == nil || !strings.Contains(p.Source.Fragment, "#define "+shading.FeatureShadowMap+"\n") {
			t.Error("eye drawn without the shadow map")
		}
	}
}

func TestRendererHitTest(t *testing.T) {
	r, _ := newRenderer(t, Options{Passes: pass.Options{HitTest: true}})
	s := scene.New("pick")
	cube := addBox(s, "cube", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.Vec4{1, 0, 0, 1})

	r.Render(testCamera(), s, target.NewDefault(64, 64), false)

	if res := r.HitTest(32, 32); !res.Hit || res.Object != cube {
		t.Errorf("HitTest(32, 32) = %+v, want the cube", res)
	}
	if res := r.HitTest(0, 0); res.Hit {
		t.Errorf("HitTest(0, 0) hit %v", res.Object)
	}

	r.ReleaseObject(cube)
	if res := r.HitTest(32, 32); res.Hit {
		t.Error("released object still resolves")
	}
}

func TestHitTestDisabledPanics(t *testing.T) {
	r, _ := newRenderer(t, Options{})
	defer func() {
		var ue *gpu.UsageError
		err, _ := recover().(error)
		if !errors.As(err, &ue) {
			t.Errorf("expected *gpu.UsageError, got %v", err)
		}
	}()
	r.HitTest(0, 0)
}

func TestRenderOffThreadPanics(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("thread ids are only tracked on linux")
	}
	r, _ := newRenderer(t, Options{})
	s := scene.New("empty")

	done := make(chan any)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer func() { done <- recover() }()
		r.Render(testCamera(), s, target.NewDefault(64, 64), false)
	}()

	err, _ := (<-done).(error)
	var ue *gpu.UsageError
	if !errors.As(err, &ue) || ue.Op != "Renderer.Render" {
		t.Errorf("expected *UsageError for Renderer.Render, got %v", err)
	}
	if r.Frame() != 0 {
		t.Errorf("frame = %d after a rejected call", r.Frame())
	}
}

func TestIdenticalMaterialsShareProgram(t *testing.T) {
	r, dev := newRenderer(t, Options{})
	s := scene.New("pair")
	addBox(s, "a", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec4{1, 0, 0, 1})
	addBox(s, "b", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec4{0, 1, 0, 1})

	r.Render(testCamera(), s, target.NewDefault(64, 64), false)
	r.Render(testCamera(), s, target.NewDefault(64, 64), false)

	if n := r.Cache().Len(); n != 1 {
		t.Errorf("cached programs = %d, want 1", n)
	}
	if dev.Compiles != 1 {
		t.Errorf("compiles = %d, want 1", dev.Compiles)
	}
}

func TestEnqueueRunsAfterPasses(t *testing.T) {
	r, dev := newRenderer(t, Options{})
	s := scene.New("queue")
	addBox(s, "cube", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.Vec4{1, 0, 0, 1})

	var (
		mu  sync.Mutex
		got []int
	)
	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Enqueue(func() {
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	drawsAtAction := -1
	r.Enqueue(func() {
		drawsAtAction = len(dev.Draws)
		r.Enqueue(func() { got = append(got, 99) })
	})

	r.Render(testCamera(), s, target.NewDefault(64, 64), false)
	if len(got) != 4 {
		t.Errorf("ran %d actions, want 4", len(got))
	}
	if drawsAtAction != 1 {
		t.Errorf("action saw %d draws, want it to run after the colour pass", drawsAtAction)
	}

	r.Render(testCamera(), s, target.NewDefault(64, 64), false)
	if len(got) != 5 || got[4] != 99 {
		t.Errorf("action enqueued during a drain did not run next frame: %v", got)
	}
}

func TestFinishFrame(t *testing.T) {
	r, dev := newRenderer(t, Options{FinishFrame: true})
	r.Render(testCamera(), scene.New("empty"), target.NewDefault(64, 64), false)
	if dev.Finishes != 1 {
		t.Errorf("finishes = %d, want 1", dev.Finishes)
	}
}

func TestDrawSurfaceResetsState(t *testing.T) {
	r, dev := newRenderer(t, Options{})
	r.BeginDrawSurface()
	r.EndDrawSurface()
	if dev.Fences != 2 {
		t.Errorf("fences = %d, want 2", dev.Fences)
	}
}

func TestDebugOutputLogsBySeverity(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Log = zap.New(core)
	defer logger.InitNop()

	_, dev := newRenderer(t, Options{DebugOutput: true})
	dev.Emit(gpu.Diagnostic{Source: "api", Type: "error", Severity: gpu.SeverityHigh, Message: "bad enum"})
	dev.Emit(gpu.Diagnostic{Source: "api", Type: "performance", Severity: gpu.SeverityMedium, Message: "slow path"})
	dev.Emit(gpu.Diagnostic{Source: "api", Type: "other", Severity: gpu.SeverityNotification, Message: "buffer info"})

	tests := []struct {
		msg   string
		level zapcore.Level
	}{
		{"bad enum", zapcore.ErrorLevel},
		{"slow path", zapcore.WarnLevel},
		{"buffer info", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		entries := logs.FilterMessage(tt.msg).All()
		if len(entries) != 1 {
			t.Errorf("%q logged %d times, want 1", tt.msg, len(entries))
			continue
		}
		if entries[0].Level != tt.level {
			t.Errorf("%q logged at %v, want %v", tt.msg, entries[0].Level, tt.level)
		}
		if entries[0].LoggerName != "renderer.gl" {
			t.Errorf("%q logged by %q", tt.msg, entries[0].LoggerName)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Render.ShadowMap.Mode = "vsm"
	cfg.Render.ShadowMap.Size = 512
	cfg.Render.Outline.Color = [4]float32{0, 1, 0, 1}
	cfg.Shaders.Dir = "shaders"

	opts := OptionsFromConfig(cfg)
	if !opts.Passes.ShadowMap.Enabled || opts.Passes.ShadowMap.Mode != shading.ShadowVSM || opts.Passes.ShadowMap.Size != 512 {
		t.Errorf("shadow options = %+v", opts.Passes.ShadowMap)
	}
	if opts.Passes.Outline.Color != (mgl32.Vec4{0, 1, 0, 1}) {
		t.Errorf("outline colour = %v", opts.Passes.Outline.Color)
	}
	if !opts.Passes.UseDepthCull || !opts.Passes.HitTest {
		t.Errorf("pass options = %+v", opts.Passes)
	}
	if opts.ShaderDir != "shaders" {
		t.Errorf("shader dir = %q", opts.ShaderDir)
	}

	cfg.Render.ShadowMap.Mode = "off"
	if OptionsFromConfig(cfg).Passes.ShadowMap.Enabled {
		t.Error("shadow pass enabled with mode off")
	}
}

func TestCloseReleasesPrograms(t *testing.T) {
	gputest.LockThread(t)
	dev := gputest.NewDevice(64, 64)
	r, err := New(dev, Options{Passes: pass.Options{UseDepthCull: true, HitTest: true}})
	if err != nil {
		t.Fatal(err)
	}
	s := scene.New("close")
	addBox(s, "cube", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mgl32.Vec4{1, 0, 0, 1}).SetLargeOccluder(true)
	r.Render(testCamera(), s, target.NewDefault(64, 64), false)

	r.Close()
	r.Close()
	if n := r.Cache().Len(); n != 0 {
		t.Errorf("cached programs after Close = %d", n)
	}
	if len(dev.Programs) != 0 {
		t.Errorf("programs left on the device = %d", len(dev.Programs))
	}
}
