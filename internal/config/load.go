package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const fileName = "config"

type codec struct {
	unmarshal func([]byte, any) error
	marshal   func(any) ([]byte, error)
}

// codecs maps a file extension to its format, in search order.
var codecs = []struct {
	ext string
	codec
}{
	{".yaml", codec{yaml.Unmarshal, yaml.Marshal}},
	{".yml", codec{yaml.Unmarshal, yaml.Marshal}},
	{".toml", codec{toml.Unmarshal, toml.Marshal}},
}

func codecFor(path string) (codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range codecs {
		if c.ext == ext {
			return c.codec, nil
		}
	}
	return codec{}, fmt.Errorf("unsupported config format %q", ext)
}

// Load builds the config from defaults, then the first config file found,
// then f. f may be nil.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	path := ""
	if f != nil {
		path = f.Path
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if f != nil {
		f.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first config file in the working directory or
// ConfigDir, or "" when there is none.
func findConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		for _, c := range codecs {
			path := filepath.Join(dir, fileName+c.ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "XRGL")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "XRGL")
		}
		return filepath.Join(home, "AppData", "Roaming", "XRGL")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "xrgl")
	}
	return filepath.Join(home, ".config", "xrgl")
}

// loadFromFile merges path into cfg. Keys missing from the file keep their
// current values.
func loadFromFile(cfg *Config, path string) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return errors.New("file is empty")
	}
	return c.unmarshal(data, cfg)
}
