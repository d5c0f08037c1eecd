package meshopt

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/fieldrobotics/meshdepth/mesh"
)

// SolverType selects one of the mesh solving strategies. The strategy is
// fixed when the Optimizer is constructed.
type SolverType int

const (
	// DisconnectedMesh solves each triangle independently; vertices shared
	// between triangles get independent, generally inconsistent positions.
	DisconnectedMesh SolverType = iota
	// ConnectedMesh solves one global least-squares system, yielding a
	// single inverse depth per unique vertex.
	ConnectedMesh
	// FactorGraphMesh solves a sparse linear factor graph with smoothness
	// springs between adjacent vertices and reports per-vertex uncertainty.
	FactorGraphMesh
)

func (t SolverType) String() string {
	switch t {
	case DisconnectedMesh:
		return "disconnected"
	case ConnectedMesh:
		return "connected"
	case FactorGraphMesh:
		return "factorgraph"
	}
	return "unknown"
}

// ParseSolverType parses the string form used by configuration and flags.
func ParseSolverType(s string) (SolverType, error) {
	switch s {
	case "disconnected":
		return DisconnectedMesh, nil
	case "connected":
		return ConnectedMesh, nil
	case "factorgraph":
		return FactorGraphMesh, nil
	}
	return 0, errors.Errorf("unknown mesh solver type %q", s)
}

// triangleData is everything one triangle contributes to the optimization:
// its vertex ids and pixels, the cached unit bearings of its vertices, and
// the associated (sample, pixel) pairs.
type triangleData struct {
	index     int
	vtxIDs    [mesh.PolygonDimension]mesh.VertexID
	vtxPixels [mesh.PolygonDimension]r2.Point
	bearings  [mesh.PolygonDimension]r3.Vector
	points    []r3.Vector
	pixels    []r2.Point
}

// solution is the result of a terminal solve. Global strategies fill
// perVertex (and, for the factor graph, hessianDiag); the disconnected
// strategy fills perTriangle with one inverse-depth triple per triangle.
type solution struct {
	perVertex   map[mesh.VertexID]float64
	hessianDiag map[mesh.VertexID]float64
	perTriangle map[int][mesh.PolygonDimension]float64
}

// meshSolver turns per-triangle constraint sets into vertex inverse depths.
// processTriangle accumulates constraints for one non-degenerate triangle;
// problems local to a sample or triangle are logged and skipped there.
// solve runs once, after every contributing triangle has reported in.
type meshSolver interface {
	processTriangle(tri *triangleData)
	solve() (*solution, error)
}
