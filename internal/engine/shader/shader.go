// Package shader provides the GLSL source library and the preprocessor that
// turns a shader plus its active features into compilable program source.
package shader

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// Version is the GLSL version line every stage starts with.
const Version = "#version 430 core"

// Program assembles the stages of s into program source with the given
// defines and extensions. It also returns every source name read, includes
// among them.
func Program(r shading.Resolver, s *shading.Shader, features []shading.Feature, extensions []string) (gpu.ProgramSource, []string, error) {
	src := gpu.ProgramSource{Name: s.ID}
	deps := make(map[string]bool)

	stage := func(name string) (string, error) {
		if name == "" {
			return "", nil
		}
		return Assemble(r, name, features, extensions, deps)
	}

	var err error
	if src.Vertex, err = stage(s.Vertex); err != nil {
		return src, nil, err
	}
	if src.Fragment, err = stage(s.Fragment); err != nil {
		return src, nil, err
	}
	if src.Compute, err = stage(s.Compute); err != nil {
		return src, nil, err
	}

	names := make([]string, 0, len(deps))
	for n := range deps {
		names = append(names, n)
	}
	return src, names, nil
}

// Assemble resolves one stage. deps, when not nil, collects the names read.
func Assemble(r shading.Resolver, name string, features []shading.Feature, extensions []string, deps map[string]bool) (string, error) {
	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('\n')
	for _, ext := range extensions {
		fmt.Fprintf(&b, "#extension %s : require\n", ext)
	}
	for _, f := range features {
		if f.Value == "" {
			fmt.Fprintf(&b, "#define %s\n", f.Name)
		} else {
			fmt.Fprintf(&b, "#define %s %s\n", f.Name, f.Value)
		}
	}

	if deps == nil {
		deps = make(map[string]bool)
	}
	st := &stageState{stack: make(map[string]bool), seen: make(map[string]bool), deps: deps}
	if err := st.include(r, name, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

type stageState struct {
	stack map[string]bool
	seen  map[string]bool
	deps  map[string]bool
}

// include expands name into b. Each file is included at most once per stage;
// stack catches include cycles.
func (st *stageState) include(r shading.Resolver, name string, b *strings.Builder) error {
	if st.stack[name] {
		return fmt.Errorf("include cycle at %q", name)
	}
	if st.seen[name] {
		return nil
	}
	text, err := r.Source(name)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", name, err)
	}
	st.seen[name] = true
	st.deps[name] = true
	st.stack[name] = true
	defer delete(st.stack, name)

	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		t := sc.Text()
		trimmed := strings.TrimSpace(t)
		if rest, ok := strings.CutPrefix(trimmed, "#include"); ok {
			target := strings.Trim(strings.TrimSpace(rest), `"<>`)
			if target == "" {
				return fmt.Errorf("%s:%d: empty #include", name, line)
			}
			if err := st.include(r, target, b); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#version") {
			continue
		}
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return sc.Err()
}
