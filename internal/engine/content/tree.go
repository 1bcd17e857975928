// Package content classifies the objects of a scene layer into the
// shader, material, geometry, draw hierarchy the render passes walk.
package content

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/xrgl/internal/engine/camera"
	"github.com/Faultbox/xrgl/internal/engine/geom"
	"github.com/Faultbox/xrgl/internal/engine/gpu"
	"github.com/Faultbox/xrgl/internal/engine/program"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
	"github.com/Faultbox/xrgl/internal/logger"
)

// Kind selects which draws a tree accepts.
type Kind int

const (
	Opaque Kind = iota
	Blend
	CastShadow
	Custom
)

func (k Kind) String() string {
	switch k {
	case Opaque:
		return "opaque"
	case Blend:
		return "blend"
	case CastShadow:
		return "cast-shadow"
	default:
		return "custom"
	}
}

// Filter decides whether obj is drawn with m in a tree.
type Filter func(obj *scene.Object, m shading.Material) bool

// DefaultFilter returns the filter of a tree kind.
func DefaultFilter(k Kind) Filter {
	switch k {
	case Opaque:
		return func(_ *scene.Object, m shading.Material) bool {
			return m.State().Alpha != shading.AlphaBlend
		}
	case Blend:
		return func(_ *scene.Object, m shading.Material) bool {
			return m.State().Alpha == shading.AlphaBlend
		}
	case CastShadow:
		return func(_ *scene.Object, m shading.Material) bool {
			st := m.State()
			return st.CastShadows && st.Alpha != shading.AlphaBlend
		}
	default:
		return func(*scene.Object, shading.Material) bool { return true }
	}
}

// View is what Prepare computes visibility and ordering for.
type View struct {
	Frame          uint64
	Camera         *camera.Camera
	FrustumCulling bool
	SortByDistance bool
}

// Tree is the render content of one scene layer. It is rebuilt only when the
// layer version moves and kept in sync incrementally for single adds and
// removes.
type Tree struct {
	Kind  Kind
	Layer *scene.Layer

	dev      gpu.Device
	cache    *program.Cache
	registry *program.Registry
	filter   Filter

	shaders []*ShaderContent
	arrays  map[*scene.Geometry]*VertexArray
	objects map[*scene.Object]member

	built       bool
	version     uint64
	structure   uint64
	nextID      int32
	pending     []scene.Change
	unsubscribe func()

	lastFrame  uint64
	lastCamera *camera.Camera

	log *zap.Logger
}

// NewTree creates the tree of layer. Nothing is built until Rebuild.
func NewTree(dev gpu.Device, cache *program.Cache, registry *program.Registry, layer *scene.Layer, kind Kind) *Tree {
	t := &Tree{
		Kind:     kind,
		Layer:    layer,
		dev:      dev,
		cache:    cache,
		registry: registry,
		filter:   DefaultFilter(kind),
		arrays:   make(map[*scene.Geometry]*VertexArray),
		objects:  make(map[*scene.Object]member),
		log:      logger.Named("content"),
	}
	t.unsubscribe = layer.Subscribe(func(c scene.Change) {
		t.pending = append(t.pending, c)
	})
	return t
}

// SetFilter replaces the draw filter. The next Rebuild starts over.
func (t *Tree) SetFilter(f Filter) {
	t.filter = f
	t.built = false
}

// Version changes on every structural change of the tree.
func (t *Tree) Version() uint64 { return t.structure }

// Shaders returns the shader groups in draw order.
func (t *Tree) Shaders() []*ShaderContent { return t.shaders }

// Empty reports whether the tree has no draws.
func (t *Tree) Empty() bool { return len(t.shaders) == 0 }

// Draws returns every draw in traversal order.
func (t *Tree) Draws() []*Draw {
	var out []*Draw
	t.Walk(func(d *Draw) { out = append(out, d) })
	return out
}

// Walk calls fn for every draw in traversal order.
func (t *Tree) Walk(fn func(*Draw)) {
	for _, s := range t.shaders {
		for _, m := range s.Materials {
			for _, v := range m.Vertices {
				for _, d := range v.Draws {
					fn(d)
				}
			}
		}
	}
}

// Rebuild brings the tree up to date with the layer and reports whether
// anything changed. Pending adds and removes are applied incrementally, as
// are objects whose materials flipped the filter's answer; any other change
// rebuilds from scratch.
func (t *Tree) Rebuild() bool {
	if !t.built {
		t.ForceRebuild()
		return true
	}
	changed := false
	if len(t.pending) > 0 {
		for _, c := range t.pending {
			switch c.Kind {
			case scene.ObjectAdded:
				t.Add(c.Object)
			case scene.ObjectRemoved:
				t.Remove(c.Object)
			}
		}
		t.pending = t.pending[:0]
		changed = true
	}
	if v := t.Layer.Version(); v != t.version {
		if !t.inSync() {
			t.ForceRebuild()
			return true
		}
		t.version = v
	}
	if t.regroup() {
		changed = true
	}
	return changed
}

// member is what the tree recorded about an object when it added its draws.
type member struct {
	content uint64
	// accepted[i] is whether material i passed the filter.
	accepted []bool
}

func (t *Tree) accepts(o *scene.Object, m shading.Material) bool {
	return m != nil && m.Shader() != nil && t.filter(o, m)
}

// filtered reports whether the filter still gives e's answers for o.
func (t *Tree) filtered(o *scene.Object, e member) bool {
	mats := o.Materials()
	if len(mats) != len(e.accepted) {
		return false
	}
	for i, m := range mats {
		if t.accepts(o, m) != e.accepted[i] {
			return false
		}
	}
	return true
}

// regroup re-adds the objects whose material state changed which of their
// draws the filter accepts, such as a material switched to alpha blending.
func (t *Tree) regroup() bool {
	changed := false
	for _, o := range t.Layer.Objects() {
		e, ok := t.objects[o]
		if !ok || t.filtered(o, e) {
			continue
		}
		t.Remove(o)
		t.Add(o)
		changed = true
	}
	return changed
}

// inSync reports whether the tree holds exactly the layer's objects at their
// current content versions.
func (t *Tree) inSync() bool {
	objs := t.Layer.Objects()
	if len(objs) != len(t.objects) {
		return false
	}
	for _, o := range objs {
		if e, ok := t.objects[o]; !ok || e.content != o.ContentVersion() {
			return false
		}
	}
	return true
}

// ForceRebuild rebuilds the tree from the layer unconditionally.
func (t *Tree) ForceRebuild() {
	t.clear()
	t.pending = t.pending[:0]
	for _, o := range t.Layer.Objects() {
		t.add(o)
	}
	t.nextID = 0
	t.Walk(func(d *Draw) {
		d.ID = t.nextID
		t.nextID++
	})
	t.version = t.Layer.Version()
	t.built = true
	t.structure++
	t.log.Debug("content rebuilt",
		zap.String("layer", t.Layer.Name),
		zap.Stringer("kind", t.Kind),
		zap.Int("shaders", len(t.shaders)),
		zap.Int32("draws", t.nextID))
}

// Add inserts the draws of o. Objects already present are left alone.
func (t *Tree) Add(o *scene.Object) {
	if _, ok := t.objects[o]; ok {
		return
	}
	for _, d := range t.add(o) {
		d.ID = t.nextID
		t.nextID++
	}
	t.structure++
	t.lastCamera = nil
}

// Remove deletes the draws of o and drops groups left empty.
func (t *Tree) Remove(o *scene.Object) {
	if _, ok := t.objects[o]; !ok {
		return
	}
	delete(t.objects, o)

	t.shaders = slices.DeleteFunc(t.shaders, func(s *ShaderContent) bool {
		s.Materials = slices.DeleteFunc(s.Materials, func(m *MaterialContent) bool {
			m.Vertices = slices.DeleteFunc(m.Vertices, func(v *VertexContent) bool {
				v.Draws = slices.DeleteFunc(v.Draws, func(d *Draw) bool {
					if d.Object != o {
						return false
					}
					t.releaseDraw(d)
					return true
				})
				if len(v.Draws) > 0 {
					return false
				}
				t.releaseArray(v.Array)
				return true
			})
			if len(m.Vertices) > 0 {
				return false
			}
			m.Instance.Dispose()
			return true
		})
		if len(s.Materials) > 0 {
			return false
		}
		s.Global.Dispose()
		return true
	})
	t.structure++
	t.lastCamera = nil
}

func (t *Tree) add(o *scene.Object) []*Draw {
	mats := o.Materials()
	e := member{content: o.ContentVersion(), accepted: make([]bool, len(mats))}
	for i, m := range mats {
		e.accepted[i] = t.accepts(o, m)
	}
	t.objects[o] = e
	g := o.Geometry()
	if g == nil {
		return nil
	}
	var added []*Draw
	for i, m := range mats {
		if !e.accepted[i] {
			continue
		}
		sc := t.shaderContent(m)
		mc := t.materialContent(sc, m)
		vc := t.vertexContent(mc, g)
		d := &Draw{Object: o, Material: m, Instance: mc.Instance, Vertex: vc, CullID: -1}
		vc.Draws = append(vc.Draws, d)
		added = append(added, d)
	}
	return added
}

func (t *Tree) shaderContent(m shading.Material) *ShaderContent {
	s := m.Shader()
	for _, sc := range t.shaders {
		if sc.Shader == s {
			return sc
		}
	}
	sc := &ShaderContent{
		Shader: s,
		Global: program.NewGlobal(t.dev, s, t.registry, m.TypeTag()),
	}
	// Keep priority order; equal priorities stay in insertion order.
	i := len(t.shaders)
	for i > 0 && t.shaders[i-1].Shader.Priority > s.Priority {
		i--
	}
	t.shaders = slices.Insert(t.shaders, i, sc)
	return sc
}

func (t *Tree) materialContent(sc *ShaderContent, m shading.Material) *MaterialContent {
	for _, mc := range sc.Materials {
		if mc.Material == m {
			return mc
		}
	}
	mc := &MaterialContent{
		Material: m,
		Instance: program.NewInstance(t.dev, m, t.cache, sc.Global),
	}
	sc.Materials = append(sc.Materials, mc)
	return mc
}

func (t *Tree) vertexContent(mc *MaterialContent, g *scene.Geometry) *VertexContent {
	for _, vc := range mc.Vertices {
		if vc.Array.Geometry == g {
			return vc
		}
	}
	va, ok := t.arrays[g]
	if !ok {
		va = &VertexArray{Geometry: g, Handle: t.dev.CreateVertexArray(g.Desc()), version: g.Version()}
		t.arrays[g] = va
	}
	va.refs++
	vc := &VertexContent{Array: va, Components: g.Layout.Components()}
	mc.Vertices = append(mc.Vertices, vc)
	return vc
}

func (t *Tree) releaseDraw(d *Draw) {
	if d.Query != 0 {
		t.dev.DeleteQuery(d.Query)
		d.Query = 0
	}
	d.Instance.Release(d.Object)
}

func (t *Tree) releaseArray(va *VertexArray) {
	va.refs--
	if va.refs > 0 {
		return
	}
	t.dev.DeleteVertexArray(va.Handle)
	delete(t.arrays, va.Geometry)
}

func (t *Tree) clear() {
	t.Walk(t.releaseDraw)
	for _, s := range t.shaders {
		for _, m := range s.Materials {
			m.Instance.Dispose()
		}
		s.Global.Dispose()
	}
	for g, va := range t.arrays {
		t.dev.DeleteVertexArray(va.Handle)
		delete(t.arrays, g)
	}
	clear(t.objects)
	t.shaders = nil
	t.built = false
	t.lastCamera = nil
}

// Prepare computes visibility, distances and ordering for v and uploads
// changed vertex data. It runs once per frame and camera; it reports false
// when the tree was already prepared.
func (t *Tree) Prepare(v View) bool {
	if t.lastCamera != nil && t.lastFrame == v.Frame && t.lastCamera == v.Camera {
		return false
	}
	t.lastFrame, t.lastCamera = v.Frame, v.Camera

	var frustum *geom.Frustum
	if v.FrustumCulling && v.Camera != nil {
		f := v.Camera.Frustum()
		frustum = &f
	}
	var eye mgl32.Vec3
	if v.Camera != nil {
		eye = v.Camera.Position()
	}
	sortGroups := t.Kind == Blend || v.SortByDistance

	for _, s := range t.shaders {
		for _, m := range s.Materials {
			enabled := m.Material.State().Enabled
			for _, vc := range m.Vertices {
				vc.Hidden = true
				var sum float32
				n := 0
				for _, d := range vc.Draws {
					d.Hidden = !enabled || !d.Object.Visible()
					if !d.Hidden && frustum != nil {
						d.Hidden = !frustum.IntersectsAABB(d.Object.WorldBounds())
					}
					if d.Hidden {
						continue
					}
					vc.Hidden = false
					if sortGroups {
						d.Distance = d.Object.WorldBounds().DistanceTo(eye)
						sum += d.Distance
						n++
					}
				}
				if n > 0 {
					vc.AvgDistance = sum / float32(n)
				}
				if !vc.Hidden {
					t.upload(vc.Array)
				}
			}
			if sortGroups {
				t.order(m)
			}
		}
	}
	return true
}

// order sorts groups and their draws back-to-front for blend trees and
// front-to-back otherwise.
func (t *Tree) order(m *MaterialContent) {
	backToFront := t.Kind == Blend
	cmp := func(a, b float32) int {
		if backToFront {
			a, b = b, a
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	slices.SortStableFunc(m.Vertices, func(a, b *VertexContent) int {
		return cmp(a.AvgDistance, b.AvgDistance)
	})
	for _, vc := range m.Vertices {
		slices.SortStableFunc(vc.Draws, func(a, b *Draw) int {
			return cmp(a.Distance, b.Distance)
		})
	}
}

func (t *Tree) upload(va *VertexArray) {
	if va.version == va.Geometry.Version() {
		return
	}
	t.dev.UpdateVertexArray(va.Handle, va.Geometry.Desc())
	va.version = va.Geometry.Version()
}

// ReleaseMaterial drops the buffers held for m.
func (t *Tree) ReleaseMaterial(m shading.Material) {
	for _, s := range t.shaders {
		for _, mc := range s.Materials {
			if mc.Material == m {
				mc.Instance.Dispose()
			}
		}
	}
}

// ReleaseObject drops the per-object buffers and queries of o.
func (t *Tree) ReleaseObject(o *scene.Object) {
	t.Walk(func(d *Draw) {
		if d.Object == o {
			t.releaseDraw(d)
		}
	})
}

// Dispose releases every GPU object of the tree and stops following the
// layer.
func (t *Tree) Dispose() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
	t.clear()
}
