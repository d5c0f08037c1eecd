package meshopt

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/fieldrobotics/meshdepth/mesh"
)

// invDepthEpsilon is the threshold below which a solved inverse depth is
// treated as degenerate.
const invDepthEpsilon = 1e-9

// stdDevColorScale is the depth standard deviation, in meters, mapped to the
// hot end of the uncertainty color scale.
const stdDevColorScale = 0.1

// sigmaToColor maps a depth standard deviation onto a blue (certain) to red
// (uncertain) rainbow.
func sigmaToColor(stdDev float64) color.NRGBA {
	ratio := stdDev / stdDevColorScale
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	r, g, b := colorful.Hsv(240*(1-ratio), 1, 1).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func containsIndex(indices []int, i int) bool {
	for _, v := range indices {
		if v == i {
			return true
		}
	}
	return false
}

// reconstructDisconnected assembles the output mesh from per-triangle
// inverse-depth triples. Each reconstructed triangle owns its three vertices
// under fresh landmark ids, so shared 2D vertices come out as independent 3D
// vertices. The id counter is local to the call.
func (o *Optimizer) reconstructDisconnected(
	sol *solution,
	mesh2d *mesh.Mesh2D,
	bearings map[mesh.VertexID]r3.Vector,
	out *Output,
) {
	out.Mesh = mesh.NewMesh3D()
	var nextID mesh.LandmarkID
	for k := 0; k < mesh2d.NumPolygons(); k++ {
		psi, ok := sol.perTriangle[k]
		if !ok {
			if !containsIndex(out.SkippedTriangles, k) {
				out.DroppedPolygons = append(out.DroppedPolygons, k)
			}
			continue
		}
		ids, _ := mesh2d.PolygonVertexIDs(k)
		var vtx [mesh.PolygonDimension]mesh.Vertex3D
		solved := true
		for i := 0; i < mesh.PolygonDimension; i++ {
			if math.Abs(psi[i]) < invDepthEpsilon {
				o.logger.Debugw("dropping vertex", "triangle", k, "vertex", ids[i], "error", ErrDegenerateDepth)
				solved = false
				break
			}
			depth := 1.0 / psi[i]
			vtx[i] = mesh.Vertex3D{ID: nextID, Position: bearings[ids[i]].Mul(depth)}
			nextID++
		}
		if !solved {
			out.DroppedPolygons = append(out.DroppedPolygons, k)
			continue
		}
		if err := out.Mesh.AddPolygon(vtx[0], vtx[1], vtx[2]); err != nil {
			o.logger.Errorw("failed to add polygon to mesh", "polygon", k, "error", err)
		}
	}
}

// reconstructGlobal assembles the output mesh from one inverse depth per
// unique vertex, preserving the 2D mesh connectivity by landmark id. A
// polygon is added only when all three of its vertices were solved.
func (o *Optimizer) reconstructGlobal(
	sol *solution,
	mesh2d *mesh.Mesh2D,
	bearings map[mesh.VertexID]r3.Vector,
	out *Output,
) {
	out.Mesh = mesh.NewMesh3D()
	if sol.hessianDiag != nil {
		out.VertexStats = map[mesh.LandmarkID]VertexStat{}
	}
	for k := 0; k < mesh2d.NumPolygons(); k++ {
		ids, _ := mesh2d.PolygonVertexIDs(k)
		var vtx [mesh.PolygonDimension]mesh.Vertex3D
		solved := true
		for i, id := range ids {
			psi, ok := sol.perVertex[id]
			if !ok {
				solved = false
				break
			}
			if math.Abs(psi) < invDepthEpsilon {
				o.logger.Debugw("dropping vertex", "polygon", k, "vertex", id, "error", ErrDegenerateDepth)
				solved = false
				break
			}
			bearing, ok := bearings[id]
			if !ok {
				solved = false
				break
			}
			depth := 1.0 / psi
			lmk, _ := mesh2d.LandmarkForVertexID(id)
			v := mesh.Vertex3D{ID: lmk, Position: bearing.Mul(depth)}

			if sol.hessianDiag != nil {
				if hd := sol.hessianDiag[id]; hd > 0 {
					varInvDepth := 1.0 / hd
					varDepth := varInvDepth / (psi * psi)
					stdDev := math.Sqrt(varDepth)
					out.VertexStats[lmk] = VertexStat{
						InverseDepth:  psi,
						Depth:         depth,
						DepthVariance: varDepth,
						DepthStdDev:   stdDev,
						RayLow:        bearing.Mul(depth - stdDev),
						RayHigh:       bearing.Mul(depth + stdDev),
					}
					if o.cfg.Debug {
						c := sigmaToColor(stdDev)
						v.Color = &c
					}
				}
			}
			vtx[i] = v
		}
		if !solved {
			o.logger.Warnw("non-reconstructed polygon", "polygon", k)
			out.DroppedPolygons = append(out.DroppedPolygons, k)
			continue
		}
		if err := out.Mesh.AddPolygon(vtx[0], vtx[1], vtx[2]); err != nil {
			o.logger.Errorw("failed to add polygon to mesh", "polygon", k, "error", err)
		}
	}
}
