// Package mesh implements the triangulated 2D and 3D meshes exchanged with
// the mesh-depth optimizer, keyed by stable landmark identifiers.
package mesh

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LandmarkID is the stable external identifier of a tracked feature.
type LandmarkID int64

// VertexID is the dense internal index of a vertex within a mesh. It is
// bijective with LandmarkID for a given mesh.
type VertexID int

// PolygonDimension is the number of vertices per mesh polygon. All meshes
// here are triangulations.
const PolygonDimension = 3

// Vertex2D is a mesh vertex given as a pixel position tagged with its landmark.
type Vertex2D struct {
	ID       LandmarkID
	Position r2.Point
}

// Mesh2D is a triangulated set of 2D vertices. Vertices are registered by
// landmark id as polygons are added; the first registration of a landmark
// fixes its pixel position.
type Mesh2D struct {
	vertices  []Vertex2D
	vtxForLmk map[LandmarkID]VertexID
	polygons  [][PolygonDimension]VertexID
	edges     map[[2]VertexID]bool
}

// NewMesh2D returns an empty 2D mesh.
func NewMesh2D() *Mesh2D {
	return &Mesh2D{
		vtxForLmk: map[LandmarkID]VertexID{},
		edges:     map[[2]VertexID]bool{},
	}
}

func (m *Mesh2D) registerVertex(v Vertex2D) VertexID {
	if id, ok := m.vtxForLmk[v.ID]; ok {
		return id
	}
	id := VertexID(len(m.vertices))
	m.vertices = append(m.vertices, v)
	m.vtxForLmk[v.ID] = id
	return id
}

func edgeKey(a, b VertexID) [2]VertexID {
	if a < b {
		return [2]VertexID{a, b}
	}
	return [2]VertexID{b, a}
}

// AddPolygon appends a triangle to the mesh, registering any vertices not
// seen before and recording the three edges in the adjacency relation.
func (m *Mesh2D) AddPolygon(v0, v1, v2 Vertex2D) error {
	if v0.ID == v1.ID || v1.ID == v2.ID || v0.ID == v2.ID {
		return errors.Errorf("polygon references landmark more than once: %v %v %v", v0.ID, v1.ID, v2.ID)
	}
	ids := [PolygonDimension]VertexID{
		m.registerVertex(v0),
		m.registerVertex(v1),
		m.registerVertex(v2),
	}
	m.polygons = append(m.polygons, ids)
	m.edges[edgeKey(ids[0], ids[1])] = true
	m.edges[edgeKey(ids[1], ids[2])] = true
	m.edges[edgeKey(ids[2], ids[0])] = true
	return nil
}

// NumPolygons returns the number of triangles in the mesh.
func (m *Mesh2D) NumPolygons() int {
	return len(m.polygons)
}

// NumVertices returns the number of unique vertices in the mesh.
func (m *Mesh2D) NumVertices() int {
	return len(m.vertices)
}

// Polygon returns the three vertices of triangle i in storage order.
func (m *Mesh2D) Polygon(i int) ([PolygonDimension]Vertex2D, bool) {
	if i < 0 || i >= len(m.polygons) {
		return [PolygonDimension]Vertex2D{}, false
	}
	ids := m.polygons[i]
	return [PolygonDimension]Vertex2D{
		m.vertices[ids[0]],
		m.vertices[ids[1]],
		m.vertices[ids[2]],
	}, true
}

// PolygonVertexIDs returns the vertex ids of triangle i.
func (m *Mesh2D) PolygonVertexIDs(i int) ([PolygonDimension]VertexID, bool) {
	if i < 0 || i >= len(m.polygons) {
		return [PolygonDimension]VertexID{}, false
	}
	return m.polygons[i], true
}

// Vertex returns the vertex stored under the given vertex id.
func (m *Mesh2D) Vertex(id VertexID) (Vertex2D, bool) {
	if int(id) < 0 || int(id) >= len(m.vertices) {
		return Vertex2D{}, false
	}
	return m.vertices[id], true
}

// VertexIDForLandmark returns the vertex id registered for a landmark.
func (m *Mesh2D) VertexIDForLandmark(lmk LandmarkID) (VertexID, bool) {
	id, ok := m.vtxForLmk[lmk]
	return id, ok
}

// LandmarkForVertexID returns the landmark registered at a vertex id.
func (m *Mesh2D) LandmarkForVertexID(id VertexID) (LandmarkID, bool) {
	v, ok := m.Vertex(id)
	if !ok {
		return 0, false
	}
	return v.ID, true
}

// AdjacencyMatrix returns the symmetric vertex adjacency matrix of the mesh:
// entry (i, j) is 1 iff an edge connects vertices i and j.
func (m *Mesh2D) AdjacencyMatrix() *mat.SymDense {
	adj := mat.NewSymDense(len(m.vertices), nil)
	for e := range m.edges {
		adj.SetSym(int(e[0]), int(e[1]), 1)
	}
	return adj
}
