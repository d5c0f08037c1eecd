package mesh

import (
	"encoding/json"
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

type jsonVertex struct {
	ID LandmarkID `json:"id"`
	U  float64    `json:"u"`
	V  float64    `json:"v"`
}

type jsonMesh struct {
	Vertices  []jsonVertex    `json:"vertices"`
	Triangles [][3]LandmarkID `json:"triangles"`
}

// NewMesh2DFromJSON reads a 2D mesh from its JSON interchange form: a vertex
// list of {id, u, v} pixels and a triangle list of landmark id triples.
func NewMesh2DFromJSON(in io.Reader) (*Mesh2D, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, errors.Wrap(err, "error reading mesh JSON data")
	}
	var jm jsonMesh
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, errors.Wrap(err, "error parsing mesh JSON")
	}
	byID := make(map[LandmarkID]Vertex2D, len(jm.Vertices))
	for _, v := range jm.Vertices {
		byID[v.ID] = Vertex2D{ID: v.ID, Position: r2.Point{X: v.U, Y: v.V}}
	}
	m := NewMesh2D()
	for i, tri := range jm.Triangles {
		var vtx [PolygonDimension]Vertex2D
		for k, id := range tri {
			v, ok := byID[id]
			if !ok {
				return nil, errors.Errorf("triangle %d references unknown landmark %v", i, id)
			}
			vtx[k] = v
		}
		if err := m.AddPolygon(vtx[0], vtx[1], vtx[2]); err != nil {
			return nil, errors.Wrapf(err, "triangle %d", i)
		}
	}
	return m, nil
}

// NewMesh2DFromJSONFile reads a 2D mesh from a JSON file.
func NewMesh2DFromJSONFile(path string) (*Mesh2D, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening mesh JSON file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return NewMesh2DFromJSON(f)
}
