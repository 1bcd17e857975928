// Package program compiles shader permutations and binds them to materials.
//
// A Cache owns every compiled program keyed by feature hash. An Instance
// binds one material to its program and owns the material and per-object
// uniform buffers. A Global holds the uniform data shared by every material
// of one shader.
package program

import "fmt"

// ConfigError reports a material/feature combination that cannot be built,
// or a program that fails to compile. It is raised with panic: retrying
// cannot fix it.
type ConfigError struct {
	Shader string
	Msg    string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("program %s: %s: %v", e.Shader, e.Msg, e.Err)
	}
	return fmt.Sprintf("program %s: %s", e.Shader, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configPanic(shader string, err error, format string, args ...any) {
	panic(&ConfigError{Shader: shader, Msg: fmt.Sprintf(format, args...), Err: err})
}
