package mesh

import (
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Vertex3D is a reconstructed mesh vertex: a 3D position tagged with its
// landmark and an optional color.
type Vertex3D struct {
	ID       LandmarkID
	Position r3.Vector
	Color    *color.NRGBA
}

// Mesh3D is the reconstructed counterpart of a Mesh2D. It shares the same
// connectivity contract but each vertex carries a 3D position. Polygons are
// added one at a time; vertices are deduplicated by landmark id, so triangles
// sharing a landmark share the stored vertex.
type Mesh3D struct {
	vertices  []Vertex3D
	vtxForLmk map[LandmarkID]VertexID
	polygons  [][PolygonDimension]VertexID
}

// NewMesh3D returns an empty 3D mesh.
func NewMesh3D() *Mesh3D {
	return &Mesh3D{vtxForLmk: map[LandmarkID]VertexID{}}
}

func (m *Mesh3D) registerVertex(v Vertex3D) VertexID {
	if id, ok := m.vtxForLmk[v.ID]; ok {
		return id
	}
	id := VertexID(len(m.vertices))
	m.vertices = append(m.vertices, v)
	m.vtxForLmk[v.ID] = id
	return id
}

// AddPolygon appends a triangle to the mesh. The first registration of a
// landmark fixes its position and color.
func (m *Mesh3D) AddPolygon(v0, v1, v2 Vertex3D) error {
	if v0.ID == v1.ID || v1.ID == v2.ID || v0.ID == v2.ID {
		return errors.Errorf("polygon references landmark more than once: %v %v %v", v0.ID, v1.ID, v2.ID)
	}
	ids := [PolygonDimension]VertexID{
		m.registerVertex(v0),
		m.registerVertex(v1),
		m.registerVertex(v2),
	}
	m.polygons = append(m.polygons, ids)
	return nil
}

// NumPolygons returns the number of triangles in the mesh.
func (m *Mesh3D) NumPolygons() int {
	return len(m.polygons)
}

// NumVertices returns the number of unique vertices in the mesh.
func (m *Mesh3D) NumVertices() int {
	return len(m.vertices)
}

// Polygon returns the three vertices of triangle i in storage order.
func (m *Mesh3D) Polygon(i int) ([PolygonDimension]Vertex3D, bool) {
	if i < 0 || i >= len(m.polygons) {
		return [PolygonDimension]Vertex3D{}, false
	}
	ids := m.polygons[i]
	return [PolygonDimension]Vertex3D{
		m.vertices[ids[0]],
		m.vertices[ids[1]],
		m.vertices[ids[2]],
	}, true
}

// PolygonVertexIDs returns the vertex ids of triangle i.
func (m *Mesh3D) PolygonVertexIDs(i int) ([PolygonDimension]VertexID, bool) {
	if i < 0 || i >= len(m.polygons) {
		return [PolygonDimension]VertexID{}, false
	}
	return m.polygons[i], true
}

// Vertex returns the vertex stored under the given vertex id.
func (m *Mesh3D) Vertex(id VertexID) (Vertex3D, bool) {
	if int(id) < 0 || int(id) >= len(m.vertices) {
		return Vertex3D{}, false
	}
	return m.vertices[id], true
}

// VertexForLandmark returns the vertex registered for a landmark.
func (m *Mesh3D) VertexForLandmark(lmk LandmarkID) (Vertex3D, bool) {
	id, ok := m.vtxForLmk[lmk]
	if !ok {
		return Vertex3D{}, false
	}
	return m.vertices[id], true
}

// HasColor reports whether any vertex in the mesh carries a color.
func (m *Mesh3D) HasColor() bool {
	for _, v := range m.vertices {
		if v.Color != nil {
			return true
		}
	}
	return false
}
