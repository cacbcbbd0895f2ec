package sigmap

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Output scaling applied once when a map is finalized.
type Scale uint8

const (
	ScaleLinear Scale = iota
	ScaleDecibel
)

// Strength floor for decibel maps; cells that received nothing land here.
const decibelFloor float32 = -120

func (s Scale) String() string {
	if s == ScaleDecibel {
		return "decibel"
	}
	return "linear"
}

// Parse a scale name from the config.
func ParseScale(name string) (Scale, error) {
	switch name {
	case "", "linear":
		return ScaleLinear, nil
	case "db", "decibel":
		return ScaleDecibel, nil
	}
	return ScaleLinear, fmt.Errorf("sigmap: unknown output scale %q", name)
}

// A single recorded arrival at a cell.
type Contribution struct {
	// Amplitude at the receiver surface.
	Amplitude float32

	// Incidence angle against the receiver normal, radians.
	Angle float32

	// Arrival time in seconds.
	Time float32

	// Global index of the depositing ray; -1 marks an empty slot.
	Ray int64
}

// Dominates reports whether c beats other for the dominant slot. The order
// is total (amplitude desc, then arrival time asc, then ray index asc) so
// the winner never depends on deposit or merge order.
func (c Contribution) Dominates(other Contribution) bool {
	if c.Amplitude != other.Amplitude {
		return c.Amplitude > other.Amplitude
	}
	if c.Time != other.Time {
		return c.Time < other.Time
	}
	return c.Ray < other.Ray
}

type Cell struct {
	// Sum of all deposited amplitudes.
	Strength float32

	// Strongest single arrival.
	Dominant Contribution
}

// An accumulation map over a receiver grid. Maps are not safe for
// concurrent writes; workers each own one and merge when done.
type Map struct {
	Grid  *Grid
	Cells []Cell
}

func NewMap(grid *Grid) *Map {
	cells := make([]Cell, grid.Cells())
	for i := range cells {
		cells[i].Dominant.Ray = -1
	}
	return &Map{Grid: grid, Cells: cells}
}

// Record an arrival: the amplitude joins the cell sum and the dominant
// slot keeps the strongest arrival seen so far.
func (m *Map) Deposit(cell int, c Contribution) {
	target := &m.Cells[cell]
	target.Strength += c.Amplitude
	if target.Dominant.Ray < 0 || c.Dominates(target.Dominant) {
		target.Dominant = c
	}
}

// Fold another map into this one cell by cell. The result is the same as
// if all deposits had been made to a single map.
func (m *Map) Merge(other *Map) error {
	if len(other.Cells) != len(m.Cells) {
		return fmt.Errorf("sigmap: cannot merge maps with %d and %d cells", len(m.Cells), len(other.Cells))
	}

	for i := range m.Cells {
		src := &other.Cells[i]
		dst := &m.Cells[i]
		dst.Strength += src.Strength
		if src.Dominant.Ray < 0 {
			continue
		}
		if dst.Dominant.Ray < 0 || src.Dominant.Dominates(dst.Dominant) {
			dst.Dominant = src.Dominant
		}
	}
	return nil
}

// Apply the output scale to the strength channel. Call once, after all
// merges; dominant contributions stay in linear units.
func (m *Map) Finalize(scale Scale) {
	if scale != ScaleDecibel {
		return
	}
	for i := range m.Cells {
		strength := m.Cells[i].Strength
		if strength <= 0 {
			m.Cells[i].Strength = decibelFloor
			continue
		}
		db := 20 * math32.Log10(strength)
		if db < decibelFloor {
			db = decibelFloor
		}
		m.Cells[i].Strength = db
	}
}

// The highest cell strength; used to normalize image output.
func (m *Map) MaxStrength() float32 {
	max := float32(-math32.MaxFloat32)
	for i := range m.Cells {
		if m.Cells[i].Strength > max {
			max = m.Cells[i].Strength
		}
	}
	return max
}
