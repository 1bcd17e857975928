package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection returns the unit vector towards a sun at azimuth degrees
// around +Y (0 faces +Z, 90 faces +X) and elevation degrees above the
// horizon.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(mgl32.DegToRad(azimuth))
	el := float64(mgl32.DegToRad(elevation))
	flat := math.Cos(el)
	return mgl32.Vec3{float32(flat * math.Sin(az)), float32(math.Sin(el)), float32(flat * math.Cos(az))}
}

// Sun returns a shadow-casting directional light placed with SunDirection.
func Sun(azimuth, elevation float32, color mgl32.Vec3) *DirectionalLight {
	return &DirectionalLight{
		Name:        "sun",
		Direction:   SunDirection(azimuth, elevation),
		Color:       color,
		Intensity:   1,
		CastShadows: true,
	}
}
