// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"slices"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics" toml:"graphics"`
	Render   RenderConfig   `yaml:"render" toml:"render"`
	Shaders  ShaderConfig   `yaml:"shaders" toml:"shaders"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// GraphicsConfig holds display settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width" toml:"width"`
	Height     int  `yaml:"height" toml:"height"`
	Fullscreen bool `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool `yaml:"vsync" toml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit" toml:"fps_limit"`
}

// RenderConfig selects which passes and subsystems the renderer builds.
type RenderConfig struct {
	UseDepthPass         bool   `yaml:"use_depth_pass" toml:"use_depth_pass"`
	UseOcclusionQuery    bool   `yaml:"use_occlusion_query" toml:"use_occlusion_query"`
	UseDepthCull         bool   `yaml:"use_depth_cull" toml:"use_depth_cull"`
	SortByCameraDistance bool   `yaml:"sort_by_camera_distance" toml:"sort_by_camera_distance"`
	UsePlanarReflection  bool   `yaml:"use_planar_reflection" toml:"use_planar_reflection"`
	FrustumCulling       bool   `yaml:"frustum_culling" toml:"frustum_culling"`
	AntiAliasing         string `yaml:"anti_aliasing" toml:"anti_aliasing"` // none, msaa2, msaa4
	HitTest              bool   `yaml:"hit_test" toml:"hit_test"`
	DebugOutput          bool   `yaml:"debug_output" toml:"debug_output"`
	FinishFrame          bool   `yaml:"finish_frame" toml:"finish_frame"`

	ShadowMap ShadowMapConfig `yaml:"shadow_map" toml:"shadow_map"`
	Outline   OutlineConfig   `yaml:"outline" toml:"outline"`
}

// ShadowMapConfig configures the shadow pass. Mode is "off", "hard" or "vsm".
type ShadowMapConfig struct {
	Mode string `yaml:"mode" toml:"mode"`
	Size int32  `yaml:"size" toml:"size"`
}

// OutlineConfig configures the selection outline.
type OutlineConfig struct {
	Enabled bool       `yaml:"enabled" toml:"enabled"`
	Size    float32    `yaml:"size" toml:"size"`
	Color   [4]float32 `yaml:"color,flow" toml:"color"`
}

// ShaderConfig points at shader sources that override the built-in ones.
type ShaderConfig struct {
	Dir       string `yaml:"dir" toml:"dir"`
	HotReload bool   `yaml:"hot_reload" toml:"hot_reload"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Samples returns the multisample count requested by AntiAliasing.
func (r RenderConfig) Samples() int {
	switch r.AntiAliasing {
	case "msaa2":
		return 2
	case "msaa4":
		return 4
	default:
		return 0
	}
}

// Validate reports the first setting the renderer cannot honour.
func (c *Config) Validate() error {
	g, r := c.Graphics, c.Render
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("graphics: invalid size %dx%d", g.Width, g.Height)
	}
	if g.FPSLimit < 0 {
		return errors.New("graphics: fps_limit must not be negative")
	}
	if !slices.Contains([]string{"", "none", "msaa2", "msaa4"}, r.AntiAliasing) {
		return fmt.Errorf("render: unknown anti_aliasing %q", r.AntiAliasing)
	}
	switch r.ShadowMap.Mode {
	case "", "off":
	case "hard", "vsm":
		if s := r.ShadowMap.Size; s <= 0 || s&(s-1) != 0 {
			return fmt.Errorf("render: shadow_map size %d is not a power of two", s)
		}
	default:
		return fmt.Errorf("render: unknown shadow_map mode %q", r.ShadowMap.Mode)
	}
	if r.Outline.Enabled && r.Outline.Size <= 0 {
		return errors.New("render: outline size must be positive")
	}
	if c.Shaders.HotReload && c.Shaders.Dir == "" {
		return errors.New("shaders: hot_reload needs a dir")
	}
	return nil
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Render: RenderConfig{
			UseDepthPass:   true,
			UseDepthCull:   true,
			FrustumCulling: true,
			AntiAliasing:   "none",
			HitTest:        true,
			ShadowMap: ShadowMapConfig{
				Mode: "hard",
				Size: 2048,
			},
			Outline: OutlineConfig{
				Enabled: true,
				Size:    2,
				Color:   [4]float32{1, 0.6, 0, 1},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
