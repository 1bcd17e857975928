package config

import "flag"

// Flags are the command-line overrides. Zero values leave the loaded
// config untouched.
type Flags struct {
	Path       string
	Debug      bool
	Windowed   bool
	Fullscreen bool
	Width      int
	Height     int
	Shaders    string
	NoCull     bool
	Shadow     string
	AA         string
}

// Register binds the overrides to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Path, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging and GL debug output")
	fs.BoolVar(&f.Windowed, "windowed", false, "Run in windowed mode")
	fs.BoolVar(&f.Fullscreen, "fullscreen", false, "Run in fullscreen mode")
	fs.IntVar(&f.Width, "width", 0, "Window width")
	fs.IntVar(&f.Height, "height", 0, "Window height")
	fs.StringVar(&f.Shaders, "shaders", "", "Directory of shader overrides, watched for edits")
	fs.BoolVar(&f.NoCull, "no-cull", false, "Disable the depth pre-pass cull")
	fs.StringVar(&f.Shadow, "shadow", "", "Shadow map mode: off, hard or vsm")
	fs.StringVar(&f.AA, "aa", "", "Anti-aliasing: none, msaa2 or msaa4")
}

// ParseFlags registers the overrides on the process flag set and parses
// os.Args.
func ParseFlags() *Flags {
	f := &Flags{}
	f.Register(flag.CommandLine)
	flag.Parse()
	return f
}

// Apply writes the overrides into cfg.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
		cfg.Render.DebugOutput = true
	}
	switch {
	case f.Fullscreen:
		cfg.Graphics.Fullscreen = true
	case f.Windowed:
		cfg.Graphics.Fullscreen = false
	}
	if f.Width > 0 {
		cfg.Graphics.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Graphics.Height = f.Height
	}
	if f.Shaders != "" {
		cfg.Shaders.Dir = f.Shaders
		cfg.Shaders.HotReload = true
	}
	if f.NoCull {
		cfg.Render.UseDepthCull = false
	}
	if f.Shadow != "" {
		cfg.Render.ShadowMap.Mode = f.Shadow
	}
	if f.AA != "" {
		cfg.Render.AntiAliasing = f.AA
	}
}
