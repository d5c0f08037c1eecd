// Package meshopt reconstructs a 3D triangulated surface from a sparse 2D
// pixel mesh and a noisy 3D point cloud observed by a calibrated camera. It
// associates point cloud samples to mesh triangles, constrains one latent
// inverse depth per mesh vertex, and solves with one of three interchangeable
// strategies.
package meshopt

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/fieldrobotics/meshdepth/camera"
	"github.com/fieldrobotics/meshdepth/mesh"
	"github.com/fieldrobotics/meshdepth/pointcloud"
)

const (
	defaultDataSigma   = 1.0
	defaultSpringSigma = 0.1
)

// Config fixes the behavior of an Optimizer at construction.
type Config struct {
	// Solver selects the solving strategy.
	Solver SolverType
	// Debug annotates reconstructed vertices with an uncertainty-derived
	// color (factor-graph strategy only).
	Debug bool
	// DataSigma is the noise sigma of the barycentric data factors.
	// Defaults to 1.
	DataSigma float64
	// SpringSigma is the noise sigma of the smoothness springs between
	// adjacent vertices; smaller values give a smoother mesh. Defaults to 0.1.
	SpringSigma float64
}

// Optimizer solves one mesh snapshot per call. It owns no cross-call state;
// all working structures live and die within a single Optimize call.
type Optimizer struct {
	cfg       Config
	logger    golog.Logger
	newSolver func(m *mesh.Mesh2D) meshSolver
}

// New returns an Optimizer with the strategy fixed by cfg.
func New(cfg Config, logger golog.Logger) (*Optimizer, error) {
	if logger == nil {
		logger = golog.Global()
	}
	if cfg.DataSigma == 0 {
		cfg.DataSigma = defaultDataSigma
	}
	if cfg.SpringSigma == 0 {
		cfg.SpringSigma = defaultSpringSigma
	}
	o := &Optimizer{cfg: cfg, logger: logger}
	switch cfg.Solver {
	case DisconnectedMesh:
		o.newSolver = func(*mesh.Mesh2D) meshSolver { return newDisconnectedSolver(logger) }
	case ConnectedMesh:
		o.newSolver = func(*mesh.Mesh2D) meshSolver { return newConnectedSolver(logger) }
	case FactorGraphMesh:
		o.newSolver = func(m *mesh.Mesh2D) meshSolver {
			return newFactorGraphSolver(m, cfg.DataSigma, cfg.SpringSigma, logger)
		}
	default:
		return nil, errors.Errorf("unknown mesh solver type %d", cfg.Solver)
	}
	return o, nil
}

// VertexStat is the per-vertex uncertainty diagnostic of the factor-graph
// strategy. DepthVariance is derived from the information-matrix diagonal and
// is an approximation, not an exact marginal variance.
type VertexStat struct {
	InverseDepth  float64
	Depth         float64
	DepthVariance float64
	DepthStdDev   float64
	// RayLow and RayHigh bound the one-sigma confidence interval along the
	// vertex bearing ray.
	RayLow  r3.Vector
	RayHigh r3.Vector
}

// Output is the result of one optimization call. Ownership transfers to the
// caller.
type Output struct {
	// Mesh is the reconstructed 3D mesh.
	Mesh *mesh.Mesh3D
	// MatchedSamples is how many point cloud samples landed on a triangle.
	MatchedSamples int
	// SkippedTriangles lists triangles dropped before solving (fewer than
	// three associated samples, or no valid vertex bearings).
	SkippedTriangles []int
	// DroppedPolygons lists polygons whose three vertices were not all
	// solved and which are therefore absent from Mesh.
	DroppedPolygons []int
	// VertexStats holds per-landmark uncertainty diagnostics, factor-graph
	// strategy only.
	VertexStats map[mesh.LandmarkID]VertexStat
}

func validateInputs(cloud pointcloud.PointCloud, mesh2d *mesh.Mesh2D, params *camera.Parameters) error {
	var err error
	if cloud == nil || cloud.Size() == 0 {
		err = multierr.Append(err, errors.New("point cloud is empty"))
	}
	if mesh2d == nil || mesh2d.NumPolygons() == 0 || mesh2d.NumVertices() == 0 {
		err = multierr.Append(err, errors.New("2D mesh has no polygons or vertices"))
	}
	if e := params.CheckValid(); e != nil {
		err = multierr.Append(err, e)
	}
	if err != nil {
		return errors.Wrap(ErrInvalidInput, err.Error())
	}
	return nil
}

// Optimize reconstructs a 3D mesh from one mesh snapshot: a point cloud in
// the camera's reference frame, a 2D triangulated mesh keyed by landmark ids,
// and the camera parameters. The call is a synchronous batch computation; it
// runs to completion or fails.
func (o *Optimizer) Optimize(
	cloud pointcloud.PointCloud,
	mesh2d *mesh.Mesh2D,
	params *camera.Parameters,
) (*Output, error) {
	if err := validateInputs(cloud, mesh2d, params); err != nil {
		return nil, err
	}

	assoc, err := associateCloud(cloud, mesh2d, params, o.logger)
	if err != nil {
		return nil, err
	}

	// Fresh solver per call keeps calls isolated from one another.
	solver := o.newSolver(mesh2d)
	out := &Output{MatchedSamples: assoc.matched}

	// Unit bearings are derived once per vertex and reused for every
	// observation and during reconstruction.
	bearings := map[mesh.VertexID]r3.Vector{}

	for k := 0; k < mesh2d.NumPolygons(); k++ {
		poly, _ := mesh2d.Polygon(k)
		ids, _ := mesh2d.PolygonVertexIDs(k)

		tri := &triangleData{index: k, vtxIDs: ids}
		usable := true
		for i := 0; i < mesh.PolygonDimension; i++ {
			tri.vtxPixels[i] = poly[i].Position
			bearing, cached := bearings[ids[i]]
			if !cached {
				var err error
				bearing, err = params.Intrinsics.BackProject(poly[i].Position)
				if err != nil {
					o.logger.Debugw("cannot back-project vertex pixel",
						"triangle", k, "vertex", ids[i], "error", err)
					usable = false
					break
				}
				bearings[ids[i]] = bearing
			}
			tri.bearings[i] = bearing
		}
		if !usable {
			out.SkippedTriangles = append(out.SkippedTriangles, k)
			continue
		}

		tri.points = assoc.points[k]
		tri.pixels = assoc.pixels[k]
		if len(tri.points) < mesh.PolygonDimension {
			o.logger.Debugw("skipping under-constrained triangle",
				"triangle", k, "samples", len(tri.points))
			out.SkippedTriangles = append(out.SkippedTriangles, k)
			continue
		}
		solver.processTriangle(tri)
	}

	// Terminal solve; the global strategies need every triangle reported in
	// before this point.
	sol, err := solver.solve()
	if err != nil {
		return nil, err
	}

	if sol.perTriangle != nil {
		o.reconstructDisconnected(sol, mesh2d, bearings, out)
	} else {
		o.reconstructGlobal(sol, mesh2d, bearings, out)
	}
	return out, nil
}
