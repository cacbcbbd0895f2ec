package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thijshberg/sig-raytracer/log"
	"github.com/thijshberg/sig-raytracer/types"
)

// Max nesting depth for included object files. Keeps a self-referencing
// "call" chain from recursing forever.
const maxIncludeDepth = 32

// wavefrontMeshReader extracts triangle geometry from wavefront object
// files. Only vertex and face statements contribute; shading statements
// (normals, tex coords, material libs) are skipped since surface behavior
// is assigned by the run config instead.
type wavefrontMeshReader struct {
	logger log.Logger

	// List of parsed vertex coords.
	vertexList []types.Vec3

	// Parsed triangular faces.
	faces [][3]types.Vec3

	// An error stack that provides additional error information when
	// object files include other files.
	errStack []string
}

// Create a new wavefront mesh reader.
func newWavefrontReader() *wavefrontMeshReader {
	return &wavefrontMeshReader{
		logger:     log.New("wavefront"),
		vertexList: make([]types.Vec3, 0),
		faces:      make([][3]types.Vec3, 0),
		errStack:   make([]string, 0),
	}
}

// Read triangle geometry from a wavefront object resource.
func (r *wavefrontMeshReader) Read(res *resource) ([][3]types.Vec3, error) {
	r.logger.Debugf("parsing mesh from %s", res.Path())
	start := time.Now()

	err := r.parse(res)
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("parsed %d triangles from %s in %d ms", len(r.faces), res.Path(), time.Since(start).Nanoseconds()/1000000)
	return r.faces, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontMeshReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return fmt.Errorf("%s", errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontMeshReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontMeshReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object format.
func (r *wavefrontMeshReader) parse(res *resource) error {
	var lineNum int = 0

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 {
			continue
		}

		switch lineTokens[0] {
		case "#":
			continue
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, "unsupported syntax for 'call'; expected 1 argument; got %d", len(lineTokens)-1)
			}
			if len(r.errStack) >= maxIncludeDepth {
				return r.emitError(res.Path(), lineNum, "object include depth exceeds %d; check for an include cycle", maxIncludeDepth)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))

			incRes, err := newResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			defer incRes.Close()

			err = r.parse(incRes)
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "f":
			face, err := r.parseFace(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, err.Error())
			}
			r.faces = append(r.faces, face)
		case "vn", "vt", "g", "o", "s", "mtllib", "usemtl":
			// Shading and grouping statements do not affect geometry
			continue
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "read failed: %s", err.Error())
	}

	return nil
}

// Parse face definition. Each face definition consists of 3 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 indices separated by a slash character. The following formats
// are supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Only the vertex index is used; uv and normal references are ignored.
// Indices start from 1 and may be negative to indicate an offset off the
// end of the vertex list.
//
// This method only works with triangular faces and will return an error if
// a face with more than 3 vertices is encountered.
func (r *wavefrontMeshReader) parseFace(lineTokens []string) ([3]types.Vec3, error) {
	var face [3]types.Vec3

	if len(lineTokens) != 4 {
		return face, fmt.Errorf("unsupported syntax for 'f'; expected 3 arguments for triangular face; got %d. Select the triangulation option in your exporter.", len(lineTokens)-1)
	}

	for arg := 0; arg < 3; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return face, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList))
		if err != nil {
			return face, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		face[arg] = r.vertexList[vOffset]
	}

	return face, nil
}

// Given an index token for a face vertex calculate the proper offset into
// the vertex list. Wavefront format can also use negative indices to
// reference elements from the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = int(index - 1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf("unsupported syntax for '%s'; expected 3 arguments; got %d", lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
