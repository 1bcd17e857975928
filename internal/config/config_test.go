package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// isolate points the user config directory at an empty temp dir and runs the
// test from another one.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Graphics.Fullscreen || !cfg.Graphics.VSync {
		t.Errorf("expected windowed with vsync, got %+v", cfg.Graphics)
	}
	r := cfg.Render
	if !r.UseDepthPass || !r.UseDepthCull || !r.FrustumCulling || !r.HitTest {
		t.Errorf("expected depth pass, depth cull, frustum culling and hit test on: %+v", r)
	}
	if r.UseOcclusionQuery || r.UsePlanarReflection {
		t.Error("expected occlusion queries and reflections off by default")
	}
	if r.ShadowMap != (ShadowMapConfig{Mode: "hard", Size: 2048}) {
		t.Errorf("shadow map = %+v", r.ShadowMap)
	}
	if r.Samples() != 0 {
		t.Errorf("Samples() = %d, want 0", r.Samples())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.LogFile != "" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
	}{
		{"config.yaml", `
graphics:
  width: 1920
  fullscreen: true
render:
  use_occlusion_query: true
  anti_aliasing: msaa4
  shadow_map:
    mode: vsm
  outline:
    color: [0, 1, 0, 1]
shaders:
  dir: /tmp/shaders
  hot_reload: true
logging:
  level: debug
`},
		{"config.toml", `
[graphics]
width = 1920
fullscreen = true

[render]
use_occlusion_query = true
anti_aliasing = "msaa4"

[render.shadow_map]
mode = "vsm"

[render.outline]
color = [0.0, 1.0, 0.0, 1.0]

[shaders]
dir = "/tmp/shaders"
hot_reload = true

[logging]
level = "debug"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := loadFromFile(cfg, writeFile(t, dir, tt.name, tt.body)); err != nil {
				t.Fatalf("loadFromFile: %v", err)
			}
			if cfg.Graphics.Width != 1920 || !cfg.Graphics.Fullscreen {
				t.Errorf("graphics = %+v", cfg.Graphics)
			}
			// Keys absent from the file keep their defaults.
			if cfg.Graphics.Height != 720 || cfg.Render.ShadowMap.Size != 2048 {
				t.Errorf("defaults lost: height %d, shadow size %d", cfg.Graphics.Height, cfg.Render.ShadowMap.Size)
			}
			if !cfg.Render.UseOcclusionQuery || cfg.Render.Samples() != 4 {
				t.Errorf("render = %+v", cfg.Render)
			}
			if cfg.Render.ShadowMap.Mode != "vsm" {
				t.Errorf("shadow mode = %q, want vsm", cfg.Render.ShadowMap.Mode)
			}
			if cfg.Render.Outline.Color != [4]float32{0, 1, 0, 1} {
				t.Errorf("outline colour = %v", cfg.Render.Outline.Color)
			}
			if cfg.Shaders != (ShaderConfig{Dir: "/tmp/shaders", HotReload: true}) {
				t.Errorf("shaders = %+v", cfg.Shaders)
			}
			if cfg.Logging.Level != "debug" {
				t.Errorf("level = %q", cfg.Logging.Level)
			}
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "absent.yaml")},
		{"empty", writeFile(t, dir, "empty.yaml", "  \n")},
		{"bad yaml", writeFile(t, dir, "bad.yaml", "graphics: [unclosed\n")},
		{"bad toml", writeFile(t, dir, "bad.toml", "[graphics\n")},
		{"unknown extension", writeFile(t, dir, "config.ini", "width=1\n")},
	}
	for _, tt := range tests {
		if err := loadFromFile(Default(), tt.path); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			cfg := Default()
			cfg.Graphics.Width = 640
			cfg.Render.UseOcclusionQuery = true
			cfg.Render.ShadowMap.Mode = "vsm"
			cfg.Render.Outline.Color = [4]float32{0, 0, 1, 1}
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}

			got := Default()
			got.Graphics.Width = 1
			if err := loadFromFile(got, path); err != nil {
				t.Fatalf("loading saved config: %v", err)
			}
			if *got != *cfg {
				t.Errorf("round trip changed the config:\n got %+v\nwant %+v", *got, *cfg)
			}

			entries, _ := os.ReadDir(filepath.Dir(path))
			if len(entries) != 1 {
				t.Errorf("expected only the config file to remain, got %d entries", len(entries))
			}
		})
	}
}

func TestSaveUnknownFormat(t *testing.T) {
	if err := Default().SaveTo(filepath.Join(t.TempDir(), "config.json")); err == nil {
		t.Error("expected an error for .json")
	}
}

func TestSamples(t *testing.T) {
	tests := []struct {
		aa   string
		want int
	}{
		{"none", 0},
		{"", 0},
		{"msaa2", 2},
		{"msaa4", 4},
		{"fxaa", 0},
	}
	for _, tt := range tests {
		if got := (RenderConfig{AntiAliasing: tt.aa}).Samples(); got != tt.want {
			t.Errorf("Samples(%q) = %d, want %d", tt.aa, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errHas string
	}{
		{"defaults", func(*Config) {}, ""},
		{"shadows off ignore size", func(c *Config) { c.Render.ShadowMap = ShadowMapConfig{Mode: "off"} }, ""},
		{"zero width", func(c *Config) { c.Graphics.Width = 0 }, "invalid size"},
		{"negative fps", func(c *Config) { c.Graphics.FPSLimit = -1 }, "fps_limit"},
		{"unknown aa", func(c *Config) { c.Render.AntiAliasing = "fxaa" }, "anti_aliasing"},
		{"unknown shadow", func(c *Config) { c.Render.ShadowMap.Mode = "pcf" }, "shadow_map mode"},
		{"odd shadow size", func(c *Config) { c.Render.ShadowMap.Size = 1000 }, "power of two"},
		{"outline size", func(c *Config) { c.Render.Outline.Size = 0 }, "outline"},
		{"hot reload without dir", func(c *Config) { c.Shaders.HotReload = true }, "hot_reload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			switch {
			case tt.errHas == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case tt.errHas != "" && (err == nil || !strings.Contains(err.Error(), tt.errHas)):
				t.Errorf("error = %v, want one mentioning %q", err, tt.errHas)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := ConfigDir()
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should be absolute, got %s", dir)
	}
	if filepath.Base(dir) != "xrgl" && filepath.Base(dir) != "XRGL" {
		t.Errorf("ConfigDir = %s, want an xrgl directory", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)

	if path := findConfigFile(); path != "" {
		t.Fatalf("expected no config, found %s", path)
	}

	writeFile(t, dir, "config.toml", "[graphics]\nwidth = 800\n")
	if path := findConfigFile(); path != "config.toml" {
		t.Errorf("found %q, want config.toml", path)
	}

	// YAML wins over TOML in the same directory.
	writeFile(t, dir, "config.yaml", "graphics:\n  width: 900\n")
	if path := findConfigFile(); path != "config.yaml" {
		t.Errorf("found %q, want config.yaml", path)
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{"none", nil, func(t *testing.T, c *Config) {
			if *c != *Default() {
				t.Error("empty flags changed the config")
			}
		}},
		{"debug", []string{"-debug"}, func(t *testing.T, c *Config) {
			if c.Logging.Level != "debug" || !c.Render.DebugOutput {
				t.Errorf("level %q, debug output %v", c.Logging.Level, c.Render.DebugOutput)
			}
		}},
		{"fullscreen wins over windowed", []string{"-windowed", "-fullscreen"}, func(t *testing.T, c *Config) {
			if !c.Graphics.Fullscreen {
				t.Error("expected fullscreen")
			}
		}},
		{"size", []string{"-width", "2560", "-height", "1440"}, func(t *testing.T, c *Config) {
			if c.Graphics.Width != 2560 || c.Graphics.Height != 1440 {
				t.Errorf("size = %dx%d", c.Graphics.Width, c.Graphics.Height)
			}
		}},
		{"shaders", []string{"-shaders", "/tmp/shaders"}, func(t *testing.T, c *Config) {
			if c.Shaders != (ShaderConfig{Dir: "/tmp/shaders", HotReload: true}) {
				t.Errorf("shaders = %+v", c.Shaders)
			}
		}},
		{"render", []string{"-no-cull", "-shadow", "off", "-aa", "msaa2"}, func(t *testing.T, c *Config) {
			if c.Render.UseDepthCull || c.Render.ShadowMap.Mode != "off" || c.Render.Samples() != 2 {
				t.Errorf("render = %+v", c.Render)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flags
			fs := flag.NewFlagSet("xrview", flag.ContinueOnError)
			f.Register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			cfg := Default()
			f.Apply(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "custom.yaml", "graphics:\n  width: 1600\n  height: 900\n")

	cfg, err := Load(&Flags{Path: path, Width: 1920})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Graphics.Width != 1920 {
		t.Errorf("width = %d, want 1920 from the flag", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("height = %d, want 900 from the file", cfg.Graphics.Height)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg != *Default() {
		t.Error("expected defaults when no file or flags are given")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "config.yaml", "render:\n  shadow_map:\n    mode: pcf\n")
	if _, err := Load(nil); err == nil {
		t.Error("expected Load to reject an unknown shadow mode")
	}
}
