package meshopt

import (
	"sort"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fieldrobotics/meshdepth/mesh"
)

// solveSampleDepths solves the local 3x3 system [b0 b1 b2]·y = p for the
// depths of one sample along each of the triangle's three vertex rays.
func solveSampleDepths(bearings [mesh.PolygonDimension]r3.Vector, p r3.Vector) ([mesh.PolygonDimension]float64, error) {
	a := mat.NewDense(3, 3, []float64{
		bearings[0].X, bearings[1].X, bearings[2].X,
		bearings[0].Y, bearings[1].Y, bearings[2].Y,
		bearings[0].Z, bearings[1].Z, bearings[2].Z,
	})
	b := mat.NewVecDense(3, []float64{p.X, p.Y, p.Z})
	var y mat.VecDense
	if err := y.SolveVec(a, b); err != nil {
		return [mesh.PolygonDimension]float64{}, err
	}
	return [mesh.PolygonDimension]float64{y.AtVec(0), y.AtVec(1), y.AtVec(2)}, nil
}

// solvePsi solves rows·psi = 1 by QR least squares for the per-vertex inverse
// depths of one triangle.
func solvePsi(rows [][mesh.PolygonDimension]float64) ([mesh.PolygonDimension]float64, error) {
	a := mat.NewDense(len(rows), mesh.PolygonDimension, nil)
	ones := mat.NewVecDense(len(rows), nil)
	for i, row := range rows {
		for j, v := range row {
			a.Set(i, j, v)
		}
		ones.SetVec(i, 1)
	}
	var psi mat.VecDense
	if err := psi.SolveVec(a, ones); err != nil {
		return [mesh.PolygonDimension]float64{}, err
	}
	return [mesh.PolygonDimension]float64{psi.AtVec(0), psi.AtVec(1), psi.AtVec(2)}, nil
}

// disconnectedSolver solves each triangle on its own, with no consistency
// enforced across triangles sharing a vertex.
type disconnectedSolver struct {
	logger golog.Logger
	rows   map[int][][mesh.PolygonDimension]float64
}

func newDisconnectedSolver(logger golog.Logger) meshSolver {
	return &disconnectedSolver{logger: logger, rows: map[int][][mesh.PolygonDimension]float64{}}
}

func (s *disconnectedSolver) processTriangle(tri *triangleData) {
	var rows [][mesh.PolygonDimension]float64
	for i, p := range tri.points {
		y, err := solveSampleDepths(tri.bearings, p)
		if err != nil {
			s.logger.Debugw("skipping sample with singular local system",
				"triangle", tri.index, "sample", i, "error", err)
			continue
		}
		rows = append(rows, y)
	}
	if len(rows) < mesh.PolygonDimension {
		s.logger.Debugw("not enough solvable samples for triangle",
			"triangle", tri.index, "solvable", len(rows))
		return
	}
	s.rows[tri.index] = rows
}

func (s *disconnectedSolver) solve() (*solution, error) {
	indices := make([]int, 0, len(s.rows))
	for idx := range s.rows {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	perTriangle := map[int][mesh.PolygonDimension]float64{}
	for _, idx := range indices {
		psi, err := solvePsi(s.rows[idx])
		if err != nil {
			s.logger.Debugw("skipping triangle with singular system", "triangle", idx, "error", err)
			continue
		}
		perTriangle[idx] = psi
	}
	if len(perTriangle) == 0 {
		return nil, errors.Wrap(ErrInsufficientData, "no triangle could be solved")
	}
	return &solution{perTriangle: perTriangle}, nil
}

// connectedRow is one sample's contribution to the global system: depths
// along the three vertex rays of its triangle, placed in those vertices'
// columns.
type connectedRow struct {
	vtxIDs [mesh.PolygonDimension]mesh.VertexID
	y      [mesh.PolygonDimension]float64
}

// connectedSolver accumulates every sample into a single global sparse
// least-squares system so that triangles sharing a vertex agree on its depth.
type connectedSolver struct {
	logger golog.Logger
	rows   []connectedRow
}

func newConnectedSolver(logger golog.Logger) meshSolver {
	return &connectedSolver{logger: logger}
}

func (s *connectedSolver) processTriangle(tri *triangleData) {
	for i, p := range tri.points {
		y, err := solveSampleDepths(tri.bearings, p)
		if err != nil {
			s.logger.Debugw("skipping sample with singular local system",
				"triangle", tri.index, "sample", i, "error", err)
			continue
		}
		s.rows = append(s.rows, connectedRow{vtxIDs: tri.vtxIDs, y: y})
	}
}

func (s *connectedSolver) solve() (*solution, error) {
	if len(s.rows) == 0 {
		return nil, errors.Wrap(ErrInsufficientData, "no sample produced a usable constraint")
	}

	// Only vertices that actually received constraints become columns;
	// unconstrained vertices would make the QR factorization rank-deficient.
	seen := map[mesh.VertexID]bool{}
	for _, row := range s.rows {
		for _, id := range row.vtxIDs {
			seen[id] = true
		}
	}
	active := make([]mesh.VertexID, 0, len(seen))
	for id := range seen {
		active = append(active, id)
	}
	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })
	cols := make(map[mesh.VertexID]int, len(active))
	for i, id := range active {
		cols[id] = i
	}

	a := mat.NewDense(len(s.rows), len(active), nil)
	ones := mat.NewVecDense(len(s.rows), nil)
	for i, row := range s.rows {
		for j, id := range row.vtxIDs {
			a.Set(i, cols[id], row.y[j])
		}
		ones.SetVec(i, 1)
	}

	var psi mat.VecDense
	if err := psi.SolveVec(a, ones); err != nil {
		return nil, errors.Wrapf(ErrSingularSystem, "global least-squares solve failed: %v", err)
	}
	perVertex := make(map[mesh.VertexID]float64, len(active))
	for i, id := range active {
		perVertex[id] = psi.AtVec(i)
	}
	return &solution{perVertex: perVertex}, nil
}
