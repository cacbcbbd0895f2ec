package renderer

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/sigmap"
	"github.com/thijshberg/sig-raytracer/types"
)

// Preview palette, channels in [0,1].
var (
	skyHorizon = types.XYZ(1, 1, 1)
	skyZenith  = types.XYZ(0.5, 0.7, 1)

	gridDark  = types.XYZ(0.8, 0.35, 0.1)
	gridLight = types.XYZ(1, 0.65, 0.25)
)

// Render a shaded preview of the scene geometry and receiver placement
// from the camera. Primitives take a headlight lambert shade of their
// material diffuse color and the receiver renders as a checkerboard, so
// misplaced geometry shows up before committing to a long run.
func RenderView(sc *scene.Scene, grid *sigmap.Grid, camera *scene.Camera, width, height int) *image.RGBA {
	camera.SetupProjection(float32(width) / float32(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ray := camera.PrimaryRay(x, y, width, height)
			img.SetRGBA(x, y, toRGBA(shadePreview(sc, grid, ray)))
		}
	}
	return img
}

// The receiver obeys the same visibility rule as the tracer: it only
// shows where it would actually record.
func shadePreview(sc *scene.Scene, grid *sigmap.Grid, ray scene.Ray) types.Vec3 {
	hit, sceneHit := sc.NearestHit(ray, scene.HitEpsilon, math32.MaxFloat32)
	gridT, cell, gridHit := grid.Intersect(ray, scene.HitEpsilon)

	if gridHit && (!sceneHit || gridT < hit.T) {
		col := cell % grid.Nx
		row := cell / grid.Nx
		if (col+row)%2 == 0 {
			return gridDark
		}
		return gridLight
	}

	if !sceneHit {
		t := 0.5 * (ray.Dir[1] + 1)
		return skyHorizon.Lerp(skyZenith, t)
	}

	lambert := math32.Abs(hit.Normal.Dot(ray.Dir))
	return hit.Material.Diffuse.Mul(0.2 + 0.8*lambert)
}

func toRGBA(c types.Vec3) color.RGBA {
	return color.RGBA{
		R: channelByte(c[0]),
		G: channelByte(c[1]),
		B: channelByte(c[2]),
		A: 255,
	}
}

func channelByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}
