package reader

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/thijshberg/sig-raytracer/scene"
	"github.com/thijshberg/sig-raytracer/sigmap"
	"github.com/thijshberg/sig-raytracer/tracer"
	"github.com/thijshberg/sig-raytracer/types"
)

func TestReadConfigComplete(t *testing.T) {
	payload := `{
  "emitter": {"position":[8,12,8], "direction":[0,-2,0], "spreadDeg":90,
              "rays":5000, "beams":4, "amplitude":2.5,
              "minAmplitude":0.001, "maxBounces":6, "propagationSpeed":1500,
              "spreading":"inverseSquare"},
  "grid": {"origin":[0,0,0], "uAxis":[1,0,0], "vAxis":[0,0,1],
           "cellSize":0.5, "nx":32, "ny":16},
  "materials": {
    "concrete": {"reflectivity":0.45, "absorption":0.02, "diffuse":[0.6,0.6,0.6]},
    "glass": {"reflectivity":0.9, "absorption":0.4}
  },
  "objects": [
    {"type":"sphere", "center":[0,4,0], "radius":2, "material":"concrete"},
    {"type":"plane", "point":[0,0,0], "normal":[0,1,0], "material":"concrete"},
    {"type":"triangle", "v0":[0,0,6], "v1":[4,0,6], "v2":[0,4,6], "material":"glass"},
    {"type":"box", "min":[1,1,1], "max":[3,3,3], "material":"glass"}
  ],
  "camera": {"position":[10,10,10], "lookAt":[0,0,0], "up":[0,1,0], "fov":45},
  "output": {"scale":"db"}
}`

	cfg, err := ReadConfig(writeConfigFile(t, payload))
	if err != nil {
		t.Fatal(err)
	}

	expTypes := []scene.PrimitiveType{
		scene.SpherePrimitive,
		scene.PlanePrimitive,
		scene.TrianglePrimitive,
		scene.BoxPrimitive,
	}
	if len(cfg.Scene.Primitives) != len(expTypes) {
		t.Fatalf("expected scene to contain %d primitives; got %d", len(expTypes), len(cfg.Scene.Primitives))
	}
	for idx, expType := range expTypes {
		if cfg.Scene.Primitives[idx].Type != expType {
			t.Fatalf("expected primitive %d to be a %s; got %s", idx, expType, cfg.Scene.Primitives[idx].Type)
		}
	}
	if cfg.Scene.Primitives[0].Material.Name != "concrete" {
		t.Fatalf("expected primitive 0 to use material 'concrete'; got %q", cfg.Scene.Primitives[0].Material.Name)
	}

	em := cfg.Emitter
	if em.Rays != 5000 || em.Beams != 4 || em.MaxBounces != 6 {
		t.Fatalf("unexpected emitter counts: %+v", em)
	}
	if em.Amplitude != 2.5 || em.MinAmplitude != 0.001 || em.Speed != 1500 {
		t.Fatalf("unexpected emitter levels: %+v", em)
	}
	expDir := types.Vec3{0, -1, 0}
	if !reflect.DeepEqual(em.Direction, expDir) {
		t.Fatalf("expected emitter direction to be normalized to %v; got %v", expDir, em.Direction)
	}
	if math32.Abs(em.Spread-math32.Pi/2) > 1e-4 {
		t.Fatalf("expected 90 degree spread to map to pi/2 radians; got %g", em.Spread)
	}
	if cfg.Spreading != tracer.SpreadInverseSquare {
		t.Fatalf("expected inverse-square spreading; got %d", cfg.Spreading)
	}

	if cfg.Grid.Nx != 32 || cfg.Grid.Ny != 16 || cfg.Grid.CellSize != 0.5 {
		t.Fatalf("unexpected grid geometry: %+v", cfg.Grid)
	}
	if cfg.Scale != sigmap.ScaleDecibel {
		t.Fatalf("expected decibel output scale; got %d", cfg.Scale)
	}

	if cfg.Camera == nil || cfg.Camera.FOV != 45 {
		t.Fatalf("unexpected camera: %+v", cfg.Camera)
	}
	expPos := types.Vec3{10, 10, 10}
	if !reflect.DeepEqual(cfg.Camera.Position, expPos) {
		t.Fatalf("expected camera position %v; got %v", expPos, cfg.Camera.Position)
	}

	if len(cfg.Materials) != 2 || cfg.Materials[0].Name != "concrete" || cfg.Materials[1].Name != "glass" {
		t.Fatalf("expected materials sorted by name; got %+v", cfg.Materials)
	}
	expDiffuse := types.Vec3{0.7, 0.7, 0.7}
	if !reflect.DeepEqual(cfg.Materials[1].Diffuse, expDiffuse) {
		t.Fatalf("expected glass diffuse to default to %v; got %v", expDiffuse, cfg.Materials[1].Diffuse)
	}
}

func TestReadConfigDefaults(t *testing.T) {
	payload := `{
  "emitter": {"position":[0,1,0], "direction":[1,0,0], "spreadDeg":180, "rays":100},
  "grid": {"origin":[2,0,2], "uAxis":[1,0,0], "vAxis":[0,0,1], "cellSize":1, "nx":10, "ny":10}
}`

	cfg, err := ReadConfig(writeConfigFile(t, payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.Scene.Primitives) != 0 {
		t.Fatalf("expected an empty scene; got %d primitives", len(cfg.Scene.Primitives))
	}
	if cfg.Emitter.Amplitude != 1 {
		t.Fatalf("expected amplitude to default to 1; got %g", cfg.Emitter.Amplitude)
	}
	if cfg.Emitter.Speed != 343 {
		t.Fatalf("expected propagation speed to default to 343; got %g", cfg.Emitter.Speed)
	}
	if cfg.Emitter.MinAmplitude != 0 || cfg.Emitter.MaxBounces != 0 || cfg.Emitter.Beams != 0 {
		t.Fatalf("expected omitted emitter fields to stay zero; got %+v", cfg.Emitter)
	}
	if cfg.Scale != sigmap.ScaleLinear {
		t.Fatalf("expected linear output scale by default; got %d", cfg.Scale)
	}
	if cfg.Spreading != tracer.SpreadInverse {
		t.Fatalf("expected inverse spreading by default; got %d", cfg.Spreading)
	}

	// Default camera looks from the emitter towards the grid center.
	expPos := types.Vec3{0, 1, 0}
	expLook := types.Vec3{7, 0, 7}
	if !reflect.DeepEqual(cfg.Camera.Position, expPos) {
		t.Fatalf("expected default camera at emitter position %v; got %v", expPos, cfg.Camera.Position)
	}
	if !reflect.DeepEqual(cfg.Camera.LookAt, expLook) {
		t.Fatalf("expected default camera to target grid center %v; got %v", expLook, cfg.Camera.LookAt)
	}
}

func TestReadConfigMeshObject(t *testing.T) {
	dir := t.TempDir()
	meshPayload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3
f 1 3 4
f 1 1 2
`
	if err := os.WriteFile(filepath.Join(dir, "panel.obj"), []byte(meshPayload), 0644); err != nil {
		t.Fatal(err)
	}

	payload := `{
  "emitter": {"position":[0,0,10], "direction":[0,0,-1], "spreadDeg":45, "rays":100},
  "grid": {"origin":[-5,-5,-1], "uAxis":[1,0,0], "vAxis":[0,1,0], "cellSize":1, "nx":10, "ny":10},
  "materials": {"steel": {"reflectivity":0.8, "absorption":0.1}},
  "objects": [
    {"type":"mesh", "file":"panel.obj", "material":"steel", "scale":2, "translate":[1,0,3]}
  ]
}`
	configPath := filepath.Join(dir, "run.json")
	if err := os.WriteFile(configPath, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}

	// The third face repeats a vertex and must be dropped as degenerate.
	if len(cfg.Scene.Primitives) != 2 {
		t.Fatalf("expected 2 mesh triangles; got %d", len(cfg.Scene.Primitives))
	}
	for idx, prim := range cfg.Scene.Primitives {
		if prim.Type != scene.TrianglePrimitive {
			t.Fatalf("expected primitive %d to be a triangle; got %s", idx, prim.Type)
		}
		if prim.Material.Name != "steel" {
			t.Fatalf("expected primitive %d to use material 'steel'; got %q", idx, prim.Material.Name)
		}
	}

	expVerts := [3]types.Vec3{{1, 0, 3}, {3, 0, 3}, {3, 2, 3}}
	if !reflect.DeepEqual(cfg.Scene.Primitives[0].V, expVerts) {
		t.Fatalf("expected scaled and translated vertices %v; got %v", expVerts, cfg.Scene.Primitives[0].V)
	}
}

func TestReadConfigFromHttp(t *testing.T) {
	files := map[string]string{
		"/sim/run.json": `{
  "emitter": {"position":[0,0,10], "direction":[0,0,-1], "spreadDeg":45, "rays":100},
  "grid": {"origin":[-5,-5,-1], "uAxis":[1,0,0], "vAxis":[0,1,0], "cellSize":1, "nx":10, "ny":10},
  "materials": {"steel": {"reflectivity":0.8}},
  "objects": [{"type":"mesh", "file":"tower.obj", "material":"steel"}]
}`,
		"/sim/tower.obj": "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, exists := files[r.URL.Path]
		if !exists {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	cfg, err := ReadConfig(server.URL + "/sim/run.json")
	if err != nil {
		t.Fatal(err)
	}

	if len(cfg.Scene.Primitives) != 1 || cfg.Scene.Primitives[0].Type != scene.TrianglePrimitive {
		t.Fatalf("expected the remote mesh triangle to be loaded; got %+v", cfg.Scene.Primitives)
	}
}

func TestReadConfigErrors(t *testing.T) {
	validEmitter := `"emitter":{"position":[0,0,0],"direction":[1,0,0],"spreadDeg":180,"rays":10}`
	validGrid := `"grid":{"origin":[0,0,0],"uAxis":[1,0,0],"vAxis":[0,0,1],"cellSize":1,"nx":4,"ny":4}`

	type spec struct {
		descr    string
		payload  string
		expError string
	}
	specs := []spec{
		{
			"malformed json",
			`{`,
			"unexpected EOF",
		},
		{
			"unknown top-level field",
			`{` + validEmitter + `,` + validGrid + `,"bananas":1}`,
			"unknown field",
		},
		{
			"missing emitter block",
			`{` + validGrid + `}`,
			"missing emitter block",
		},
		{
			"missing grid block",
			`{` + validEmitter + `}`,
			"missing grid block",
		},
		{
			"short vector",
			`{"emitter":{"position":[0,0],"direction":[1,0,0],"spreadDeg":180,"rays":10},` + validGrid + `}`,
			"emitter.position expects 3 components; got 2",
		},
		{
			"zero rays",
			`{"emitter":{"position":[0,0,0],"direction":[1,0,0],"spreadDeg":180},` + validGrid + `}`,
			"ray count must be > 0",
		},
		{
			"unknown spreading model",
			`{"emitter":{"position":[0,0,0],"direction":[1,0,0],"spreadDeg":180,"rays":10,"spreading":"cubic"},` + validGrid + `}`,
			"unknown spreading model",
		},
		{
			"parallel grid axes",
			`{` + validEmitter + `,"grid":{"origin":[0,0,0],"uAxis":[1,0,0],"vAxis":[2,0,0],"cellSize":1,"nx":4,"ny":4}}`,
			"grid axes are parallel",
		},
		{
			"unknown output scale",
			`{` + validEmitter + `,` + validGrid + `,"output":{"scale":"loudness"}}`,
			"unknown output scale",
		},
		{
			"object without material",
			`{` + validEmitter + `,` + validGrid + `,"objects":[{"type":"sphere","center":[0,0,0],"radius":1}]}`,
			"objects[0].material is missing a material reference",
		},
		{
			"undefined material reference",
			`{` + validEmitter + `,` + validGrid + `,"objects":[{"type":"sphere","center":[0,0,0],"radius":1,"material":"stone"}]}`,
			"references undefined material 'stone'",
		},
		{
			"unknown object type",
			`{` + validEmitter + `,` + validGrid + `,"materials":{"m":{"reflectivity":0.5}},"objects":[{"type":"cone","material":"m"}]}`,
			"objects[0].type is 'cone'",
		},
		{
			"degenerate sphere",
			`{` + validEmitter + `,` + validGrid + `,"materials":{"m":{"reflectivity":0.5}},"objects":[{"type":"sphere","center":[0,0,0],"radius":0,"material":"m"}]}`,
			"sphere radius must be > 0",
		},
		{
			"material out of range",
			`{` + validEmitter + `,` + validGrid + `,"materials":{"m":{"reflectivity":1.5}}}`,
			"reflectivity must be in [0, 1]",
		},
		{
			"missing mesh file",
			`{` + validEmitter + `,` + validGrid + `,"materials":{"m":{"reflectivity":0.5}},"objects":[{"type":"mesh","material":"m"}]}`,
			"objects[0].file is missing",
		},
	}

	for idx, s := range specs {
		_, err := ReadConfig(writeConfigFile(t, s.payload))
		if err == nil {
			t.Fatalf("[spec %d] %s: expected config to be rejected", idx, s.descr)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("[spec %d] %s: expected ErrInvalidConfig; got %v", idx, s.descr, err)
		}
		if !strings.Contains(err.Error(), s.expError) {
			t.Fatalf("[spec %d] %s: expected error to contain %q; got %v", idx, s.descr, s.expError, err)
		}
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err == nil {
		t.Fatal("expected a missing config file to fail")
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected an io error rather than a config error; got %v", err)
	}
}

func writeConfigFile(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
