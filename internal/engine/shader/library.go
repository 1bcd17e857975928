package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed glsl/*
var embedded embed.FS

// Library resolves shader sources from an optional directory on disk,
// falling back to the embedded copies.
type Library struct {
	dir string
	fs  fs.FS
}

// NewLibrary creates a library. dir may be empty to use only the embedded
// sources.
func NewLibrary(dir string) *Library {
	sub, err := fs.Sub(embedded, "glsl")
	if err != nil {
		panic(fmt.Sprintf("shader: embedded sources: %v", err))
	}
	return &Library{dir: dir, fs: sub}
}

// Dir returns the override directory, or "".
func (l *Library) Dir() string { return l.dir }

// Source implements shading.Resolver.
func (l *Library) Source(name string) (string, error) {
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("reading shader %s: %w", name, err)
		}
	}
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return "", fmt.Errorf("shader %s: %w", name, err)
	}
	return string(data), nil
}

// Names lists the embedded source names.
func (l *Library) Names() []string {
	entries, err := fs.ReadDir(l.fs, ".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// Export writes the embedded sources into dir so they can be edited and
// picked up by a Watcher.
func (l *Library) Export(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating shader dir: %w", err)
	}
	for _, name := range l.Names() {
		data, err := fs.ReadFile(l.fs, name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
