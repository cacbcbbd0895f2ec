package sigmap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/thijshberg/sig-raytracer/types"
)

// Per-cell channel stored in a binary map artifact.
type Channel uint8

const (
	// Accumulated (or finalized) cell strength.
	ChannelStrength Channel = iota

	// Incidence angle of the dominant arrival. Cells without an arrival
	// hold -1.
	ChannelAngle

	// Arrival time of the dominant arrival. Cells without an arrival
	// hold -1.
	ChannelTime
)

const (
	encodeMagic   = "SGMP"
	encodeVersion = uint16(1)
)

// Fixed-size artifact header following the magic bytes. All fields are
// little-endian.
type fileHeader struct {
	Version  uint16
	Channel  uint8
	_        uint8
	Nx       uint32
	Ny       uint32
	Origin   [3]float32
	U        [3]float32
	V        [3]float32
	CellSize float32
}

// Write one channel of the map as a binary artifact: header followed by
// Nx*Ny float32 values in row-major order (rows advance along V).
func (m *Map) EncodeChannel(w io.Writer, channel Channel) error {
	grid := m.Grid

	payload := make([]float32, len(m.Cells))
	for i := range m.Cells {
		cell := &m.Cells[i]
		switch channel {
		case ChannelStrength:
			payload[i] = cell.Strength
		case ChannelAngle:
			payload[i] = -1
			if cell.Dominant.Ray >= 0 {
				payload[i] = cell.Dominant.Angle
			}
		case ChannelTime:
			payload[i] = -1
			if cell.Dominant.Ray >= 0 {
				payload[i] = cell.Dominant.Time
			}
		default:
			return fmt.Errorf("sigmap: unknown channel %d", channel)
		}
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(encodeMagic); err != nil {
		return err
	}
	header := fileHeader{
		Version:  encodeVersion,
		Channel:  uint8(channel),
		Nx:       uint32(grid.Nx),
		Ny:       uint32(grid.Ny),
		Origin:   [3]float32{grid.Origin[0], grid.Origin[1], grid.Origin[2]},
		U:        [3]float32{grid.U[0], grid.U[1], grid.U[2]},
		V:        [3]float32{grid.V[0], grid.V[1], grid.V[2]},
		CellSize: grid.CellSize,
	}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, payload); err != nil {
		return err
	}
	return bw.Flush()
}

// Read a binary map artifact back, reconstructing the grid frame from the
// header.
func DecodeChannel(r io.Reader) (*Grid, Channel, []float32, error) {
	magic := make([]byte, len(encodeMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, 0, nil, err
	}
	if string(magic) != encodeMagic {
		return nil, 0, nil, fmt.Errorf("sigmap: bad artifact magic %q", magic)
	}

	var header fileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, 0, nil, err
	}
	if header.Version != encodeVersion {
		return nil, 0, nil, fmt.Errorf("sigmap: unsupported artifact version %d", header.Version)
	}

	grid, err := NewGrid(
		types.Vec3(header.Origin),
		types.Vec3(header.U),
		types.Vec3(header.V),
		header.CellSize,
		int(header.Nx),
		int(header.Ny),
	)
	if err != nil {
		return nil, 0, nil, err
	}

	payload := make([]float32, grid.Cells())
	if err := binary.Read(r, binary.LittleEndian, payload); err != nil {
		return nil, 0, nil, err
	}
	return grid, Channel(header.Channel), payload, nil
}
