package reader

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/thijshberg/sig-raytracer/types"
)

func TestVec3Parser(t *testing.T) {
	expError := "unsupported syntax for 'v'; expected 3 arguments; got 0"
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in       string
		listLen  int
		out      int
		expError string
	}
	specs := []spec{
		{"2", 1, -1, expError},
		{"-2", 1, -1, expError},
		{"1", 10, 0, ""}, // indices are 1-based
		{"-1", 10, 9, ""},
		{"0", 10, -1, expError},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseTriangleMesh(t *testing.T) {
	payload := `
o panel
mtllib panel.mtl
usemtl ignored
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vn 0 0 1
vt 0 0
s off
# Comment
f 1/1/1 2/1/1 3/1/1
f 2 4 -2
`

	faces, err := newWavefrontReader().Read(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	expFaces := [][3]types.Vec3{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	}
	if len(faces) != len(expFaces) {
		t.Fatalf("expected %d faces to be parsed; got %d", len(expFaces), len(faces))
	}
	for idx, exp := range expFaces {
		if !reflect.DeepEqual(faces[idx], exp) {
			t.Fatalf("expected face %d to be %v; got %v", idx, exp, faces[idx])
		}
	}
}

func TestParseErrors(t *testing.T) {
	type spec struct {
		payload  string
		expError string
	}
	specs := []spec{
		{
			"v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 3 4",
			"[embedded: 5] error: unsupported syntax for 'f'; expected 3 arguments for triangular face; got 4. Select the triangulation option in your exporter.",
		},
		{
			"v 0 0 0\nv 1 0 0\nv 0 1 0\nf //1 2 3",
			"[embedded: 4] error: face argument 0 does not include a vertex index",
		},
		{
			"v 0 0 0\nv 1 0 0\nf 1 2 3",
			"[embedded: 3] error: could not parse vertex coord for face argument 2: index out of bounds",
		},
		{
			"v 1 2",
			"[embedded: 1] error: unsupported syntax for 'v'; expected 3 arguments; got 2",
		},
		{
			"call",
			"[embedded: 1] error: unsupported syntax for 'call'; expected 1 argument; got 0",
		},
	}

	for idx, s := range specs {
		err := newWavefrontReader().parse(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected to get error: %s; got %v", idx, s.expError, err)
		}
	}
}

func TestParseIncludedObjects(t *testing.T) {
	files := map[string]string{
		"/models/panel.obj":  "v 0 0 0\nv 1 0 0\nv 0 1 0\ncall detail.obj\nf 1 2 3",
		"/models/detail.obj": "v 0 0 1\nv 1 0 1\nv 0 1 1\nf -3 -2 -1",
	}
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, exists := files[r.URL.Path]
		if !exists {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(payload))
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res, err := newResource(server.URL+"/models/panel.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	faces, err := newWavefrontReader().Read(res)
	if err != nil {
		t.Fatal(err)
	}

	// The included file is parsed in place so its face lands first and
	// its negative indices resolve against the combined vertex list.
	expFaces := [][3]types.Vec3{
		{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}},
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
	}
	if len(faces) != len(expFaces) {
		t.Fatalf("expected %d faces to be parsed; got %d", len(expFaces), len(faces))
	}
	for idx, exp := range expFaces {
		if !reflect.DeepEqual(faces[idx], exp) {
			t.Fatalf("expected face %d to be %v; got %v", idx, exp, faces[idx])
		}
	}
}

func TestIncludeFailureReportsReferenceChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models/panel.obj" {
			w.Write([]byte("call missing.obj"))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	res, err := newResource(server.URL+"/models/panel.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	_, err = newWavefrontReader().Read(res)
	if err == nil {
		t.Fatal("expected include of a missing file to fail")
	}
	if !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected error to surface the fetch failure; got %v", err)
	}
	if !strings.Contains(err.Error(), "referenced from "+server.URL+"/models/panel.obj:1 [call]") {
		t.Fatalf("expected error to carry the reference chain; got %v", err)
	}
}

func TestIncludeDepthLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("call loop.obj"))
	}))
	defer server.Close()

	res, err := newResource(server.URL+"/loop.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	_, err = newWavefrontReader().Read(res)
	if err == nil || !strings.Contains(err.Error(), "object include depth exceeds") {
		t.Fatalf("expected include cycle to be cut off; got %v", err)
	}
}
