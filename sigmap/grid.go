package sigmap

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/types"
)

// Grid describes the planar receiver surface. Received signal is binned
// into Nx x Ny square cells spanned by the U and V axes starting at Origin.
type Grid struct {
	// World position of the corner of cell (0, 0).
	Origin types.Vec3

	// Unit in-plane axes forming a right-handed frame with the normal.
	U, V types.Vec3

	// Unit plane normal (U x V).
	Normal types.Vec3

	// Cell side length.
	CellSize float32

	// Cell counts along U and V.
	Nx, Ny int
}

// Create a receiver grid. The V axis is re-orthogonalized against U so the
// frame stays orthonormal even for sloppy config axes.
func NewGrid(origin, uAxis, vAxis types.Vec3, cellSize float32, nx, ny int) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("sigmap: cell size must be > 0; got %g", cellSize)
	}
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("sigmap: grid must have at least one cell per axis; got %dx%d", nx, ny)
	}

	u := uAxis.Normalize()
	if u.Len() < types.Epsilon {
		return nil, fmt.Errorf("sigmap: grid u axis must be non-zero")
	}
	v := vAxis.Sub(u.Mul(vAxis.Dot(u))).Normalize()
	if v.Len() < types.Epsilon {
		return nil, fmt.Errorf("sigmap: grid axes are parallel")
	}

	return &Grid{
		Origin:   origin,
		U:        u,
		V:        v,
		Normal:   u.Cross(v),
		CellSize: cellSize,
		Nx:       nx,
		Ny:       ny,
	}, nil
}

// Total cell count.
func (g *Grid) Cells() int {
	return g.Nx * g.Ny
}

// Map a world point onto a cell index. Points off the receiver extent
// report false.
func (g *Grid) Locate(point types.Vec3) (int, bool) {
	rel := point.Sub(g.Origin)
	col := int(math32.Floor(rel.Dot(g.U) / g.CellSize))
	row := int(math32.Floor(rel.Dot(g.V) / g.CellSize))
	if col < 0 || col >= g.Nx || row < 0 || row >= g.Ny {
		return 0, false
	}
	return row*g.Nx + col, true
}

// Find where the ray crosses the receiver surface. Crossings outside the
// cell extent report false so rays pass through unrecorded.
func (g *Grid) Intersect(ray scene.Ray, tMin float32) (float32, int, bool) {
	denom := ray.Dir.Dot(g.Normal)
	if math32.Abs(denom) < types.Epsilon {
		return 0, 0, false
	}

	t := g.Origin.Sub(ray.Origin).Dot(g.Normal) / denom
	if t <= tMin {
		return 0, 0, false
	}

	cell, ok := g.Locate(ray.At(t))
	if !ok {
		return 0, 0, false
	}
	return t, cell, true
}

// World position of the center of a cell.
func (g *Grid) CellCenter(cell int) types.Vec3 {
	col := cell % g.Nx
	row := cell / g.Nx
	du := (float32(col) + 0.5) * g.CellSize
	dv := (float32(row) + 0.5) * g.CellSize
	return g.Origin.Add(g.U.Mul(du)).Add(g.V.Mul(dv))
}
