package meshopt

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/fieldrobotics/meshdepth/camera"
	"github.com/fieldrobotics/meshdepth/mesh"
	"github.com/fieldrobotics/meshdepth/pointcloud"
)

// minMatchedSamples is the fewest on-mesh samples for which solving is
// attempted at all.
const minMatchedSamples = 4

// associations are the per-triangle collections of 3D samples and the pixels
// they project to, built once per optimization call and read-only afterward.
type associations struct {
	points  map[int][]r3.Vector
	pixels  map[int][]r2.Point
	matched int
}

// associateCloud projects every point cloud sample into the image and assigns
// it to the first triangle containing its pixel, scanning triangles in mesh
// storage order. Samples that project onto no triangle, or that cannot be
// projected at all, are dropped.
func associateCloud(
	cloud pointcloud.PointCloud,
	m *mesh.Mesh2D,
	params *camera.Parameters,
	logger golog.Logger,
) (*associations, error) {
	assoc := &associations{
		points: map[int][]r3.Vector{},
		pixels: map[int][]r2.Point{},
	}
	cloud.Iterate(0, 0, func(p r3.Vector, _ pointcloud.Data) bool {
		px, err := params.Project(p)
		if err != nil {
			logger.Debugw("dropping unprojectable sample", "point", p, "error", err)
			return true
		}
		for k := 0; k < m.NumPolygons(); k++ {
			poly, _ := m.Polygon(k)
			if mesh.PointInTriangle(px, poly[0].Position, poly[1].Position, poly[2].Position) {
				// A sample belongs to at most one triangle; the first
				// containing triangle wins.
				assoc.points[k] = append(assoc.points[k], p)
				assoc.pixels[k] = append(assoc.pixels[k], px)
				assoc.matched++
				break
			}
		}
		return true
	})
	if assoc.matched < minMatchedSamples {
		return nil, errors.Wrapf(ErrInsufficientData,
			"only %d of %d samples fall on the mesh", assoc.matched, cloud.Size())
	}
	if len(assoc.points) == 0 {
		return nil, errors.Wrap(ErrInsufficientData, "no triangle received any sample")
	}
	logger.Debugw("collected triangle data points",
		"matched", assoc.matched,
		"triangles_with_data", len(assoc.points),
		"triangles", m.NumPolygons())
	return assoc, nil
}
