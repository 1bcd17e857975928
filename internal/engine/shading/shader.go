// Package shading defines what a material tells the renderer about itself:
// the shader it runs, the features it toggles and the uniform data it needs.
package shading

import "slices"

// Resolver turns a logical shader source name into GLSL text.
type Resolver interface {
	Source(name string) (string, error)
}

// Shader names a set of GLSL sources and the feature toggles they accept.
type Shader struct {
	ID string
	// Priority orders shaders inside a content tree, lowest first.
	Priority int

	Vertex   string
	Fragment string
	Compute  string

	// Features lists every feature the sources understand.
	Features []string
}

// Supports reports whether feature is one of the shader's toggles.
func (s *Shader) Supports(feature string) bool {
	return slices.Contains(s.Features, feature)
}

// Sources returns the non-empty source names of the shader.
func (s *Shader) Sources() []string {
	var out []string
	for _, n := range []string{s.Vertex, s.Fragment, s.Compute} {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Feature names understood by the built-in shaders.
const (
	FeatureLighting         = "LIGHTING"
	FeatureShadowMap        = "SHADOW_MAP"
	FeatureShadowVSM        = "SHADOW_VSM"
	FeatureClipPlane        = "CLIP_PLANE"
	FeaturePlanarReflection = "PLANAR_REFLECTION"
	FeatureAlphaCutoff      = "ALPHA_CUTOFF"
	FeatureMultiView        = "MULTI_VIEW"
)

// Built-in shaders.
var (
	ColorShader = &Shader{
		ID:       "color",
		Vertex:   "color.vert",
		Fragment: "color.frag",
		Features: []string{
			FeatureLighting, FeatureShadowMap, FeatureShadowVSM, FeatureClipPlane,
			FeaturePlanarReflection, FeatureAlphaCutoff, FeatureMultiView,
		},
	}
	DepthShader = &Shader{
		ID:       "depth",
		Priority: -10,
		Vertex:   "depth.vert",
		Fragment: "depth.frag",
		Features: []string{FeatureShadowVSM, FeatureAlphaCutoff, FeatureMultiView},
	}
	HitTestShader = &Shader{
		ID:       "hittest",
		Vertex:   "depth.vert",
		Fragment: "hittest.frag",
	}
	OutlineShader = &Shader{
		ID:       "outline",
		Vertex:   "fullscreen.vert",
		Fragment: "outline.frag",
	}
	HiZCopyShader = &Shader{
		ID:      "hiz_copy",
		Compute: "hiz_copy.comp",
	}
	HiZDownsampleShader = &Shader{
		ID:      "hiz_downsample",
		Compute: "hiz_downsample.comp",
	}
	DepthCullShader = &Shader{
		ID:      "depth_cull",
		Compute: "depth_cull.comp",
	}
)

// Feature is one preprocessor define injected into a program.
type Feature struct {
	Name  string
	Value string
}

func (f Feature) String() string {
	if f.Value == "" {
		return f.Name
	}
	return f.Name + "=" + f.Value
}
