// Package window owns the SDL2 window and its OpenGL context.
package window

import (
	"fmt"
	"runtime"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/logger"
)

func init() {
	// The GL context is bound to the main thread.
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	// FPSLimit caps the frame rate when VSync is off; 0 means uncapped.
	FPSLimit int
	// Samples requests a multisampled default framebuffer; 0 disables it.
	Samples int
	// Debug requests a debug context so that driver diagnostics are
	// delivered.
	Debug bool
}

type attribute struct {
	attr  sdl.GLattr
	value int
}

// attributes lists the context attributes for cfg. Compute shaders and
// storage buffers need 4.3 core.
func attributes(cfg Config) []attribute {
	attrs := []attribute{
		{sdl.GL_CONTEXT_MAJOR_VERSION, 4},
		{sdl.GL_CONTEXT_MINOR_VERSION, 3},
		{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
		{sdl.GL_DOUBLEBUFFER, 1},
		{sdl.GL_DEPTH_SIZE, 24},
		{sdl.GL_STENCIL_SIZE, 8},
	}
	if cfg.Debug {
		attrs = append(attrs, attribute{sdl.GL_CONTEXT_FLAGS, sdl.GL_CONTEXT_DEBUG_FLAG})
	}
	samples := 0
	if cfg.Samples > 0 {
		samples = 1
	}
	return append(attrs,
		attribute{sdl.GL_MULTISAMPLEBUFFERS, samples},
		attribute{sdl.GL_MULTISAMPLESAMPLES, cfg.Samples},
	)
}

func (c Config) flags() uint32 {
	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if c.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	return flags
}

// frameBudget is the minimum frame time for cfg, 0 when uncapped.
func (c Config) frameBudget() time.Duration {
	if c.VSync || c.FPSLimit <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPSLimit)
}

// Window wraps the SDL2 window and its GL context.
type Window struct {
	config    Config
	sdlWindow *sdl.Window
	glContext sdl.GLContext
	log       *zap.Logger
	lastSwap  time.Time
}

// New creates the window with an OpenGL 4.3 core context current on the
// calling thread. If the driver refuses a multisampled framebuffer the
// window is created without one.
func New(cfg Config) (*Window, error) {
	w := &Window{config: cfg, log: logger.Named("window")}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	err := w.create(cfg)
	if err != nil && cfg.Samples > 0 {
		w.log.Warn("multisampled context unavailable, retrying without", zap.Int("samples", cfg.Samples), zap.Error(err))
		cfg.Samples = 0
		w.config.Samples = 0
		err = w.create(cfg)
	}
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		w.log.Warn("swap interval not applied", zap.Int("interval", interval), zap.Error(err))
	}

	dw, dh := w.DrawableSize()
	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Int32("drawable_width", dw),
		zap.Int32("drawable_height", dh),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
		zap.Int("samples", cfg.Samples),
	)
	return w, nil
}

func (w *Window) create(cfg Config) error {
	sdl.GLResetAttributes()
	for _, a := range attributes(cfg) {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			return fmt.Errorf("SDL_GL_SetAttribute(%d): %w", a.attr, err)
		}
	}

	win, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), cfg.flags())
	if err != nil {
		return fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}
	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		return fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}
	w.sdlWindow, w.glContext = win, ctx
	return nil
}

// Close destroys the context and the window, and shuts SDL down.
func (w *Window) Close() {
	w.log.Info("closing window")
	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
		w.glContext = nil
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
		w.sdlWindow = nil
	}
	sdl.Quit()
}

// SwapBuffers presents the back buffer, sleeping first when a frame limit
// applies.
func (w *Window) SwapBuffers() {
	if budget := w.config.frameBudget(); budget > 0 && !w.lastSwap.IsZero() {
		if rest := budget - time.Since(w.lastSwap); rest > 0 {
			time.Sleep(rest)
		}
	}
	w.sdlWindow.GLSwap()
	w.lastSwap = time.Now()
}

// GetSize returns the window size in screen coordinates.
func (w *Window) GetSize() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}

// DrawableSize returns the size of the default framebuffer in pixels, which
// differs from GetSize on high-DPI displays.
func (w *Window) DrawableSize() (int32, int32) {
	return w.sdlWindow.GLGetDrawableSize()
}

// SetFullscreen switches between desktop fullscreen and windowed mode.
func (w *Window) SetFullscreen(on bool) error {
	var flags uint32
	if on {
		flags = sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	if err := w.sdlWindow.SetFullscreen(flags); err != nil {
		return fmt.Errorf("SDL_SetWindowFullscreen failed: %w", err)
	}
	w.config.Fullscreen = on
	return nil
}

// Fullscreen reports the current mode.
func (w *Window) Fullscreen() bool { return w.config.Fullscreen }

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}
