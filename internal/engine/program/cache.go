package program

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/shader"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/logger"
)

// Program is one compiled permutation of a shader.
type Program struct {
	Handle     gpu.Handle
	Hash       uint64
	Shader     *shading.Shader
	Features   []shading.Feature
	Extensions []string
	TypeTag    string

	// Sources lists every source file the program was assembled from.
	Sources []string

	dev      gpu.Device
	uniforms map[string]int32
}

// Uniform returns the location of a plain uniform, -1 when the program does
// not use it.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := p.dev.UniformLocation(p.Handle, name)
	p.uniforms[name] = loc
	return loc
}

// MustUniform is Uniform for uniforms the program cannot work without.
func (p *Program) MustUniform(name string) int32 {
	loc := p.Uniform(name)
	if loc < 0 {
		configPanic(p.Shader.ID, nil, "uniform %q not found", name)
	}
	return loc
}

// DependsOn reports whether source was read to build the program.
func (p *Program) DependsOn(source string) bool {
	return slices.Contains(p.Sources, source)
}

// Stats counts cache traffic since creation.
type Stats struct {
	Hits      int
	Misses    int
	Compiles  int
	Evictions int
}

// standard blocks every program may declare.
var (
	uniformBlocks = map[string]uint32{
		"CameraBlock":   gpu.BindingCamera,
		"LightsBlock":   gpu.BindingLights,
		"MaterialBlock": gpu.BindingMaterial,
		"ModelBlock":    gpu.BindingModel,
		"ShadowBlock":   gpu.BindingShadow,
	}
	storageBlocks = map[string]uint32{
		"CullObjects": gpu.BindingCullObjects,
	}
)

// Cache owns every program compiled for one device. It lives as long as the
// renderer and is only used from the render thread.
type Cache struct {
	dev      gpu.Device
	resolver shading.Resolver
	programs map[uint64]*Program
	stats    Stats
	// generation changes whenever programs are evicted, so bound instances
	// know to look their program up again.
	generation uint64
	log        *zap.Logger
}

// NewCache returns an empty cache compiling sources read from resolver.
func NewCache(dev gpu.Device, resolver shading.Resolver) *Cache {
	return &Cache{
		dev:      dev,
		resolver: resolver,
		programs: make(map[uint64]*Program),
		log:      logger.Named("program"),
	}
}

// Get returns the program for the permutation, compiling it on a miss.
// A permutation that does not compile panics with a ConfigError.
func (c *Cache) Get(s *shading.Shader, features []shading.Feature, extensions []string, typeTag string) *Program {
	hash := FeaturesHash(s.ID, features, extensions, typeTag)
	if p, ok := c.programs[hash]; ok {
		c.stats.Hits++
		return p
	}
	c.stats.Misses++

	fs := slices.Clone(features)
	SortFeatures(fs)
	ext := slices.Clone(extensions)
	slices.Sort(ext)

	src, deps, err := shader.Program(c.resolver, s, fs, ext)
	if err != nil {
		configPanic(s.ID, err, "assemble")
	}
	handle, err := c.dev.CreateProgram(src)
	if err != nil {
		configPanic(s.ID, err, "compile %v", fs)
	}
	c.stats.Compiles++

	if src.IsCompute() {
		for name, binding := range storageBlocks {
			c.dev.StorageBlockBinding(handle, name, binding)
		}
	} else {
		for name, binding := range uniformBlocks {
			c.dev.UniformBlockBinding(handle, name, binding)
		}
	}

	slices.Sort(deps)
	p := &Program{
		Handle:     handle,
		Hash:       hash,
		Shader:     s,
		Features:   fs,
		Extensions: ext,
		TypeTag:    typeTag,
		Sources:    deps,
		dev:        c.dev,
		uniforms:   make(map[string]int32),
	}
	c.programs[hash] = p
	c.log.Debug("compiled program",
		zap.String("shader", s.ID),
		zap.Stringers("features", fs),
		zap.Uint64("hash", hash))
	return p
}

// Invalidate evicts every program built from source and returns how many
// were evicted.
func (c *Cache) Invalidate(source string) int {
	n := 0
	for hash, p := range c.programs {
		if !p.DependsOn(source) {
			continue
		}
		c.dev.DeleteProgram(p.Handle)
		delete(c.programs, hash)
		n++
	}
	if n > 0 {
		c.stats.Evictions += n
		c.generation++
		c.log.Info("shader source changed", zap.String("source", source), zap.Int("evicted", n))
	}
	return n
}

// Generation changes after every eviction.
func (c *Cache) Generation() uint64 { return c.generation }

func (c *Cache) Stats() Stats { return c.stats }

// Len returns the number of live programs.
func (c *Cache) Len() int { return len(c.programs) }

// Dispose deletes every program.
func (c *Cache) Dispose() {
	for hash, p := range c.programs {
		c.dev.DeleteProgram(p.Handle)
		delete(c.programs, hash)
	}
	c.generation++
}
