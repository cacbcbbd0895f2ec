package sigmap

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/types"
)

// Heatmap ramp anchors, dark to hot.
var (
	rampLow  = types.Vec3{10, 20, 60}
	rampMid  = types.Vec3{0, 180, 255}
	rampHigh = types.Vec3{255, 255, 255}

	footprintColor = color.RGBA{R: 200, G: 30, B: 30, A: 255}
)

// Render the strength channel as a heatmap, one pixel per cell, with box
// primitive footprints overdrawn. Rows with higher V land higher up in
// the image.
func (m *Map) RenderImage(primitives []*scene.Primitive) *image.RGBA {
	grid := m.Grid
	img := image.NewRGBA(image.Rect(0, 0, grid.Nx, grid.Ny))

	min, max := m.strengthRange()
	span := max - min
	for row := 0; row < grid.Ny; row++ {
		y := grid.Ny - 1 - row
		for col := 0; col < grid.Nx; col++ {
			cell := row*grid.Nx + col

			t := float32(0)
			if span > 0 {
				t = (m.Cells[cell].Strength - min) / span
			}
			img.SetRGBA(col, y, rampColor(t))
		}
	}

	for _, prim := range primitives {
		if prim.Type != scene.BoxPrimitive {
			continue
		}
		m.drawFootprint(img, prim)
	}
	return img
}

func (m *Map) strengthRange() (float32, float32) {
	min := float32(math32.MaxFloat32)
	max := float32(-math32.MaxFloat32)
	for i := range m.Cells {
		s := m.Cells[i].Strength
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return min, max
}

func rampColor(t float32) color.RGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	var c types.Vec3
	if t < 0.5 {
		c = rampLow.Lerp(rampMid, t*2)
	} else {
		c = rampMid.Lerp(rampHigh, (t-0.5)*2)
	}
	return color.RGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 255}
}

// Paint the cells whose centers sit under the box when projected along
// the receiver normal.
func (m *Map) drawFootprint(img *image.RGBA, box *scene.Primitive) {
	grid := m.Grid
	for row := 0; row < grid.Ny; row++ {
		y := grid.Ny - 1 - row
		for col := 0; col < grid.Nx; col++ {
			center := grid.CellCenter(row*grid.Nx + col)
			if boxCoversPoint(box, center, grid.Normal) {
				img.SetRGBA(col, y, footprintColor)
			}
		}
	}
}

// Slab test over the full line through point along axis.
func boxCoversPoint(box *scene.Primitive, point, axis types.Vec3) bool {
	tNear := float32(-math32.MaxFloat32)
	tFar := float32(math32.MaxFloat32)

	for i := 0; i < 3; i++ {
		if math32.Abs(axis[i]) < types.Epsilon {
			if point[i] < box.Origin[i] || point[i] > box.Corner[i] {
				return false
			}
			continue
		}

		inv := 1.0 / axis[i]
		t0 := (box.Origin[i] - point[i]) * inv
		t1 := (box.Corner[i] - point[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear = t0
		}
		if t1 < tFar {
			tFar = t1
		}
		if tNear > tFar {
			return false
		}
	}
	return true
}
