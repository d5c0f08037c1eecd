package meshopt

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/fieldrobotics/meshdepth/factorgraph"
	"github.com/fieldrobotics/meshdepth/mesh"
)

// factorGraphSolver builds a sparse linear factor graph over per-vertex
// inverse depths: one ternary barycentric data factor per sample, plus one
// binary spring factor per mesh edge pulling adjacent vertices toward equal
// inverse depth.
type factorGraphSolver struct {
	logger      golog.Logger
	mesh2d      *mesh.Mesh2D
	graph       *factorgraph.Graph
	dataSigma   float64
	springSigma float64
}

func newFactorGraphSolver(m *mesh.Mesh2D, dataSigma, springSigma float64, logger golog.Logger) meshSolver {
	return &factorGraphSolver{
		logger:      logger,
		mesh2d:      m,
		graph:       factorgraph.NewGraph(),
		dataSigma:   dataSigma,
		springSigma: springSigma,
	}
}

func (s *factorGraphSolver) processTriangle(tri *triangleData) {
	keys := []factorgraph.Key{
		factorgraph.Key(tri.vtxIDs[0]),
		factorgraph.Key(tri.vtxIDs[1]),
		factorgraph.Key(tri.vtxIDs[2]),
	}
	for i, p := range tri.points {
		norm := p.Norm()
		if norm == 0 {
			s.logger.Debugw("skipping zero-range sample", "triangle", tri.index, "sample", i)
			continue
		}
		invDepthMeas := 1.0 / norm

		b0, b1, b2, inside := mesh.BarycentricCoordinates(
			tri.pixels[i], tri.vtxPixels[0], tri.vtxPixels[1], tri.vtxPixels[2])
		if b0 == 0 && b1 == 0 && b2 == 0 {
			// Zero-area triangle; the weights carry no information.
			s.logger.Debugw("skipping sample of degenerate triangle", "triangle", tri.index, "sample", i)
			continue
		}
		if !inside {
			// Near-edge numerical disagreement with the classifier; the
			// slightly negative weights are still usable.
			s.logger.Debugw("pixel numerically outside its triangle",
				"triangle", tri.index, "pixel", tri.pixels[i])
		}

		f, err := factorgraph.NewJacobianFactor(keys, []float64{b0, b1, b2}, invDepthMeas, s.dataSigma)
		if err != nil {
			s.logger.Debugw("dropping malformed data factor", "triangle", tri.index, "error", err)
			continue
		}
		s.graph.Add(f)
	}
}

func (s *factorGraphSolver) solve() (*solution, error) {
	if s.graph.NumFactors() == 0 {
		return nil, errors.Wrap(ErrInsufficientData, "no sample produced a usable constraint")
	}

	// Spring energies between adjacent vertices. The adjacency matrix is
	// symmetric, so only its lower-triangular half is walked to avoid
	// duplicate springs.
	adjacency := s.mesh2d.AdjacencyMatrix()
	n, _ := adjacency.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if adjacency.At(i, j) != 1 {
				continue
			}
			spring, err := factorgraph.NewJacobianFactor(
				[]factorgraph.Key{factorgraph.Key(i), factorgraph.Key(j)},
				[]float64{1, -1},
				0,
				s.springSigma,
			)
			if err != nil {
				return nil, err
			}
			s.graph.Add(spring)
		}
	}

	values, err := s.graph.Optimize()
	if err != nil {
		return nil, errors.Wrapf(ErrSingularSystem, "factor graph elimination failed: %v", err)
	}
	hessian := s.graph.HessianDiagonal()

	perVertex := map[mesh.VertexID]float64{}
	hessianDiag := map[mesh.VertexID]float64{}
	for _, k := range s.graph.Keys() {
		if v, ok := values.At(k); ok {
			perVertex[mesh.VertexID(k)] = v
			hessianDiag[mesh.VertexID(k)] = hessian[k]
		}
	}
	return &solution{perVertex: perVertex, hessianDiag: hessianDiag}, nil
}
