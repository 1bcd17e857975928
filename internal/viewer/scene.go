package viewer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrgl/internal/engine/lighting"
	"github.com/Faultbox/xrgl/internal/engine/scene"
	"github.com/Faultbox/xrgl/internal/engine/shading"
)

// demoScene builds a wall of large occluders in front of a grid of crates,
// on a ground plane with a mirror at the back.
func demoScene() *scene.Scene {
	s := scene.New("demo")
	s.Lights.AddDirectional(lighting.Sun(35, 50, mgl32.Vec3{1, 0.95, 0.85}))
	s.Lights.AddPoint(&lighting.PointLight{
		Name:      "lamp",
		Position:  mgl32.Vec3{0, 3, 4},
		Color:     mgl32.Vec3{1, 0.6, 0.3},
		Intensity: 2,
		Range:     10,
	})

	ground := scene.NewObject("ground", scene.Box(mgl32.Vec3{40, 0.2, 40}), shading.NewColorMaterial(mgl32.Vec4{0.35, 0.4, 0.35, 1}))
	ground.SetWorld(mgl32.Translate3D(0, -0.1, 0))
	s.Main.Add(ground)

	for i := range 5 {
		x := float32(i-2) * 2.2
		wall := scene.NewObject(fmt.Sprintf("wall-%d", i), scene.Box(mgl32.Vec3{2, 3, 0.3}), shading.NewColorMaterial(mgl32.Vec4{0.6, 0.55, 0.5, 1}))
		wall.SetWorld(mgl32.Translate3D(x, 1.5, 3))
		wall.SetLargeOccluder(true)
		s.Main.Add(wall)
	}

	palette := []mgl32.Vec4{
		{0.8, 0.2, 0.2, 1},
		{0.2, 0.7, 0.3, 1},
		{0.2, 0.4, 0.8, 1},
	}
	for z := range 6 {
		for x := range 8 {
			crate := scene.NewObject(fmt.Sprintf("crate-%d-%d", x, z), scene.Box(mgl32.Vec3{0.8, 0.8, 0.8}), shading.NewColorMaterial(palette[(x+z)%len(palette)]))
			crate.SetWorld(mgl32.Translate3D(float32(x)*1.5-5.25, 0.4, -float32(z)*1.5))
			crate.SetLargeOccluder(true)
			s.Main.Add(crate)
		}
	}

	glass := shading.NewColorMaterial(mgl32.Vec4{0.6, 0.8, 1, 0.35})
	st := glass.State()
	st.Alpha = shading.AlphaBlend
	st.CastShadows = false
	glass.SetState(st)
	pane := scene.NewObject("glass", scene.Box(mgl32.Vec3{3, 2, 0.05}), glass)
	pane.SetWorld(mgl32.Translate3D(6, 1, 5))
	s.Main.Add(pane)

	mirrors := scene.NewLayer("mirrors", scene.LayerReflection)
	mirrorMat := shading.NewColorMaterial(mgl32.Vec4{0.9, 0.9, 0.95, 1})
	mirrorMat.Reflective = true
	mirror := scene.NewObject("mirror", scene.Quad(10, 4), mirrorMat)
	mirror.SetWorld(mgl32.Translate3D(0, 2, -10))
	mirror.SetReflection(&scene.PlanarReflection{Normal: mgl32.Vec3{0, 0, 1}, MinScreenArea: 0.01, Size: 1024})
	mirrors.Add(mirror)
	s.AddLayer(mirrors)

	return s
}
