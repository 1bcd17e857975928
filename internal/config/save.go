package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Save writes the config to ConfigDir as YAML.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), fileName+".yaml"))
}

// SaveTo writes the config in the format named by the extension of path.
// The file is replaced atomically.
func (c *Config) SaveTo(path string) error {
	enc, err := codecFor(path)
	if err != nil {
		return err
	}
	data, err := enc.marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
