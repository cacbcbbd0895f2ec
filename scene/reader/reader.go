package reader

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/log"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/sigmap"
	"github.com/thijshberg/sig-raytracer/tracer"
	"github.com/thijshberg/sig-raytracer/types"
)

// Returned for structurally or semantically invalid run configs. The
// wrapped message names the offending block or object.
var ErrInvalidConfig = errors.New("reader: invalid run config")

// Emitter parameter defaults applied when the config omits them.
const (
	defaultAmplitude = 1.0
	defaultSpeed     = 343.0
)

// RunConfig is the fully validated product of reading a config artifact.
// It resolves everything a propagation run or debug view needs; all
// referenced mesh resources have been loaded and all parameters checked.
type RunConfig struct {
	Scene     *scene.Scene
	Emitter   *scene.Emitter
	Grid      *sigmap.Grid
	Camera    *scene.Camera
	Scale     sigmap.Scale
	Spreading tracer.Spreading

	// Materials referenced by the scene, sorted by name.
	Materials []*scene.Material
}

// Wire representation of the config artifact.
type runConfigFile struct {
	Emitter   *emitterBlock            `json:"emitter"`
	Grid      *gridBlock               `json:"grid"`
	Materials map[string]materialBlock `json:"materials"`
	Objects   []objectBlock            `json:"objects"`
	Camera    *cameraBlock             `json:"camera"`
	Output    outputBlock              `json:"output"`
}

type emitterBlock struct {
	Position         []float32 `json:"position"`
	Direction        []float32 `json:"direction"`
	SpreadDeg        float32   `json:"spreadDeg"`
	Rays             int       `json:"rays"`
	Beams            int       `json:"beams"`
	Amplitude        float32   `json:"amplitude"`
	MinAmplitude     float32   `json:"minAmplitude"`
	MaxBounces       int       `json:"maxBounces"`
	PropagationSpeed float32   `json:"propagationSpeed"`
	Spreading        string    `json:"spreading"`
}

type gridBlock struct {
	Origin   []float32 `json:"origin"`
	UAxis    []float32 `json:"uAxis"`
	VAxis    []float32 `json:"vAxis"`
	CellSize float32   `json:"cellSize"`
	Nx       int       `json:"nx"`
	Ny       int       `json:"ny"`
}

type materialBlock struct {
	Reflectivity float32   `json:"reflectivity"`
	Absorption   float32   `json:"absorption"`
	Diffuse      []float32 `json:"diffuse"`
}

// One objects[] entry. The set of meaningful fields depends on Type.
type objectBlock struct {
	Type     string `json:"type"`
	Material string `json:"material"`

	// sphere
	Center []float32 `json:"center"`
	Radius float32   `json:"radius"`

	// plane
	Point  []float32 `json:"point"`
	Normal []float32 `json:"normal"`

	// triangle
	V0 []float32 `json:"v0"`
	V1 []float32 `json:"v1"`
	V2 []float32 `json:"v2"`

	// mesh
	File      string    `json:"file"`
	Scale     float32   `json:"scale"`
	Translate []float32 `json:"translate"`

	// box
	Min []float32 `json:"min"`
	Max []float32 `json:"max"`
}

type cameraBlock struct {
	Position []float32 `json:"position"`
	LookAt   []float32 `json:"lookAt"`
	Up       []float32 `json:"up"`
	FOV      float32   `json:"fov"`
}

type outputBlock struct {
	Scale string `json:"scale"`
}

// ReadConfig parses and validates a run config from a local path or an
// http(s) URL. Mesh files referenced by the config are resolved relative
// to the config location.
func ReadConfig(pathToConfig string) (*RunConfig, error) {
	res, err := newResource(pathToConfig, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return readConfig(res)
}

func readConfig(res *resource) (*RunConfig, error) {
	logger := log.New("reader")
	logger.Debugf("parsing run config from %s", res.Path())
	start := time.Now()

	dec := json.NewDecoder(res)
	dec.DisallowUnknownFields()

	var cfg runConfigFile
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	if cfg.Emitter == nil {
		return nil, fmt.Errorf("%w: missing emitter block", ErrInvalidConfig)
	}
	if cfg.Grid == nil {
		return nil, fmt.Errorf("%w: missing grid block", ErrInvalidConfig)
	}

	materials, err := buildMaterials(cfg.Materials)
	if err != nil {
		return nil, err
	}

	primitives, err := buildObjects(logger, cfg.Objects, materials, res)
	if err != nil {
		return nil, err
	}

	emitter, err := buildEmitter(cfg.Emitter)
	if err != nil {
		return nil, err
	}

	spreading, err := tracer.ParseSpreading(cfg.Emitter.Spreading)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	grid, err := buildGrid(cfg.Grid)
	if err != nil {
		return nil, err
	}

	scale, err := sigmap.ParseScale(cfg.Output.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}

	camera, err := buildCamera(cfg.Camera, emitter, grid)
	if err != nil {
		return nil, err
	}

	matList := make([]*scene.Material, 0, len(materials))
	for _, mat := range materials {
		matList = append(matList, mat)
	}
	sort.Slice(matList, func(i, j int) bool { return matList[i].Name < matList[j].Name })

	logger.Debugf("parsed run config with %d primitives in %d ms", len(primitives), time.Since(start).Nanoseconds()/1000000)

	return &RunConfig{
		Scene:     scene.New(primitives),
		Emitter:   emitter,
		Grid:      grid,
		Camera:    camera,
		Scale:     scale,
		Spreading: spreading,
		Materials: matList,
	}, nil
}

func buildMaterials(blocks map[string]materialBlock) (map[string]*scene.Material, error) {
	materials := make(map[string]*scene.Material, len(blocks))
	for name, block := range blocks {
		diffuse := types.Vec3{0.7, 0.7, 0.7}
		if block.Diffuse != nil {
			var err error
			diffuse, err = vec3Field(fmt.Sprintf("materials.%s.diffuse", name), block.Diffuse)
			if err != nil {
				return nil, err
			}
		}

		mat := &scene.Material{
			Name:         name,
			Reflectivity: block.Reflectivity,
			Absorption:   block.Absorption,
			Diffuse:      diffuse,
		}
		if err := mat.Validate(); err != nil {
			return nil, fmt.Errorf("%w: material '%s': %s", ErrInvalidConfig, name, err.Error())
		}
		materials[name] = mat
	}
	return materials, nil
}

func buildObjects(logger log.Logger, blocks []objectBlock, materials map[string]*scene.Material, configRes *resource) ([]*scene.Primitive, error) {
	primitives := make([]*scene.Primitive, 0, len(blocks))
	for index, block := range blocks {
		objField := func(field string) string {
			return fmt.Sprintf("objects[%d].%s", index, field)
		}

		if block.Material == "" {
			return nil, fmt.Errorf("%w: %s is missing a material reference", ErrInvalidConfig, objField("material"))
		}
		mat, exists := materials[block.Material]
		if !exists {
			return nil, fmt.Errorf("%w: %s references undefined material '%s'", ErrInvalidConfig, objField("material"), block.Material)
		}

		var prim *scene.Primitive
		var err error
		switch block.Type {
		case "sphere":
			var center types.Vec3
			center, err = vec3Field(objField("center"), block.Center)
			if err != nil {
				return nil, err
			}
			prim, err = scene.NewSphere(center, block.Radius, mat)
		case "plane":
			var point, normal types.Vec3
			if point, err = vec3Field(objField("point"), block.Point); err != nil {
				return nil, err
			}
			if normal, err = vec3Field(objField("normal"), block.Normal); err != nil {
				return nil, err
			}
			prim, err = scene.NewPlane(point, normal, mat)
		case "triangle":
			var v0, v1, v2 types.Vec3
			if v0, err = vec3Field(objField("v0"), block.V0); err != nil {
				return nil, err
			}
			if v1, err = vec3Field(objField("v1"), block.V1); err != nil {
				return nil, err
			}
			if v2, err = vec3Field(objField("v2"), block.V2); err != nil {
				return nil, err
			}
			prim, err = scene.NewTriangle(v0, v1, v2, mat)
		case "box":
			var min, max types.Vec3
			if min, err = vec3Field(objField("min"), block.Min); err != nil {
				return nil, err
			}
			if max, err = vec3Field(objField("max"), block.Max); err != nil {
				return nil, err
			}
			prim, err = scene.NewBox(min, max, mat)
		case "mesh":
			var tris []*scene.Primitive
			tris, err = buildMesh(logger, index, block, mat, configRes)
			if err != nil {
				return nil, err
			}
			primitives = append(primitives, tris...)
			continue
		default:
			return nil, fmt.Errorf("%w: %s is '%s'; expected sphere, plane, triangle, box or mesh", ErrInvalidConfig, objField("type"), block.Type)
		}

		if err != nil {
			return nil, fmt.Errorf("%w: objects[%d] (%s): %s", ErrInvalidConfig, index, block.Type, err.Error())
		}
		primitives = append(primitives, prim)
	}
	return primitives, nil
}

// Load a wavefront mesh object and instantiate its triangles with the
// requested uniform scale and translation. Degenerate triangles are
// dropped with a warning instead of failing the whole config.
func buildMesh(logger log.Logger, index int, block objectBlock, mat *scene.Material, configRes *resource) ([]*scene.Primitive, error) {
	if block.File == "" {
		return nil, fmt.Errorf("%w: objects[%d].file is missing", ErrInvalidConfig, index)
	}

	meshScale := block.Scale
	if meshScale == 0 {
		meshScale = 1
	}
	translate := types.Vec3{}
	if block.Translate != nil {
		var err error
		translate, err = vec3Field(fmt.Sprintf("objects[%d].translate", index), block.Translate)
		if err != nil {
			return nil, err
		}
	}

	meshRes, err := newResource(block.File, configRes)
	if err != nil {
		return nil, fmt.Errorf("%w: objects[%d].file: %s", ErrInvalidConfig, index, err.Error())
	}
	defer meshRes.Close()

	faces, err := newWavefrontReader().Read(meshRes)
	if err != nil {
		return nil, fmt.Errorf("%w: objects[%d].file: %s", ErrInvalidConfig, index, err.Error())
	}

	place := func(v types.Vec3) types.Vec3 {
		return v.Mul(meshScale).Add(translate)
	}

	tris := make([]*scene.Primitive, 0, len(faces))
	dropped := 0
	for _, face := range faces {
		tri, err := scene.NewTriangle(place(face[0]), place(face[1]), place(face[2]), mat)
		if err != nil {
			if errors.Is(err, scene.ErrDegenerateGeometry) {
				dropped++
				continue
			}
			return nil, fmt.Errorf("%w: objects[%d] (mesh): %s", ErrInvalidConfig, index, err.Error())
		}
		tris = append(tris, tri)
	}
	if dropped > 0 {
		logger.Warningf("dropped %d degenerate triangles from %s", dropped, meshRes.Path())
	}

	return tris, nil
}

func buildEmitter(block *emitterBlock) (*scene.Emitter, error) {
	position, err := vec3Field("emitter.position", block.Position)
	if err != nil {
		return nil, err
	}
	direction, err := vec3Field("emitter.direction", block.Direction)
	if err != nil {
		return nil, err
	}

	amplitude := block.Amplitude
	if amplitude == 0 {
		amplitude = defaultAmplitude
	}
	speed := block.PropagationSpeed
	if speed == 0 {
		speed = defaultSpeed
	}

	emitter := &scene.Emitter{
		Position:     position,
		Direction:    direction,
		Spread:       block.SpreadDeg * math32.Pi / 180,
		Rays:         block.Rays,
		Beams:        block.Beams,
		Amplitude:    amplitude,
		MinAmplitude: block.MinAmplitude,
		MaxBounces:   block.MaxBounces,
		Speed:        speed,
	}
	if err := emitter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return emitter, nil
}

func buildGrid(block *gridBlock) (*sigmap.Grid, error) {
	origin, err := vec3Field("grid.origin", block.Origin)
	if err != nil {
		return nil, err
	}
	uAxis, err := vec3Field("grid.uAxis", block.UAxis)
	if err != nil {
		return nil, err
	}
	vAxis, err := vec3Field("grid.vAxis", block.VAxis)
	if err != nil {
		return nil, err
	}

	grid, err := sigmap.NewGrid(origin, uAxis, vAxis, block.CellSize, block.Nx, block.Ny)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return grid, nil
}

// Build the debug view camera. When the config omits the camera block a
// default is derived that looks from the emitter towards the grid center.
func buildCamera(block *cameraBlock, emitter *scene.Emitter, grid *sigmap.Grid) (*scene.Camera, error) {
	if block == nil {
		camera := scene.NewCamera(60)
		camera.Position = emitter.Position
		camera.LookAt = gridCenter(grid)
		return camera, nil
	}

	fov := block.FOV
	if fov == 0 {
		fov = 60
	}
	if fov < 0 || fov >= 180 {
		return nil, fmt.Errorf("%w: camera.fov must be in (0, 180); got %g", ErrInvalidConfig, fov)
	}

	camera := scene.NewCamera(fov)
	var err error
	if camera.Position, err = vec3Field("camera.position", block.Position); err != nil {
		return nil, err
	}
	if camera.LookAt, err = vec3Field("camera.lookAt", block.LookAt); err != nil {
		return nil, err
	}
	if block.Up != nil {
		if camera.Up, err = vec3Field("camera.up", block.Up); err != nil {
			return nil, err
		}
	}
	return camera, nil
}

func gridCenter(grid *sigmap.Grid) types.Vec3 {
	halfU := float32(grid.Nx) * grid.CellSize * 0.5
	halfV := float32(grid.Ny) * grid.CellSize * 0.5
	return grid.Origin.Add(grid.U.Mul(halfU)).Add(grid.V.Mul(halfV))
}

// Convert a decoded JSON vector into a Vec3, rejecting missing fields and
// wrong component counts with the offending field in the message.
func vec3Field(field string, values []float32) (types.Vec3, error) {
	if values == nil {
		return types.Vec3{}, fmt.Errorf("%w: missing %s", ErrInvalidConfig, field)
	}
	if len(values) != 3 {
		return types.Vec3{}, fmt.Errorf("%w: %s expects 3 components; got %d", ErrInvalidConfig, field, len(values))
	}
	return types.Vec3{values[0], values[1], values[2]}, nil
}
