package mesh

import (
	"github.com/golang/geo/r2"
)

// barycentricEpsilon tolerates slightly negative weights for pixels that sit
// numerically on a triangle edge.
const barycentricEpsilon = 1e-10

// TriangleSign returns twice the signed area of the triangle (p, a, b). Its
// sign encodes which side of the directed line a-b the point p lies on.
func TriangleSign(p, a, b r2.Point) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

// PointInTriangle reports whether p lies inside the triangle (v0, v1, v2).
// Points exactly on an edge or vertex count as inside, so a pixel on a shared
// edge belongs to whichever triangle is tested first.
func PointInTriangle(p, v0, v1, v2 r2.Point) bool {
	d0 := TriangleSign(p, v0, v1)
	d1 := TriangleSign(p, v1, v2)
	d2 := TriangleSign(p, v2, v0)

	hasNeg := d0 < 0 || d1 < 0 || d2 < 0
	hasPos := d0 > 0 || d1 > 0 || d2 > 0

	return !(hasNeg && hasPos)
}

// BarycentricCoordinates expresses p as a weighted combination of the
// triangle vertices (v0, v1, v2). The weights always sum to one and are
// returned even when p falls outside the triangle; inside is false in that
// case, and also when the triangle is degenerate (zero area).
func BarycentricCoordinates(p, v0, v1, v2 r2.Point) (b0, b1, b2 float64, inside bool) {
	denom := (v1.Y-v2.Y)*(v0.X-v2.X) + (v2.X-v1.X)*(v0.Y-v2.Y)
	if denom == 0 {
		return 0, 0, 0, false
	}
	b0 = ((v1.Y-v2.Y)*(p.X-v2.X) + (v2.X-v1.X)*(p.Y-v2.Y)) / denom
	b1 = ((v2.Y-v0.Y)*(p.X-v2.X) + (v0.X-v2.X)*(p.Y-v2.Y)) / denom
	b2 = 1 - b0 - b1
	inside = b0 >= -barycentricEpsilon && b1 >= -barycentricEpsilon && b2 >= -barycentricEpsilon
	return b0, b1, b2, inside
}
