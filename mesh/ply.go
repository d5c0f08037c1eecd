package mesh

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
)

// defaultVertexColor is used for uncolored vertices when writing a partially
// colored mesh.
var defaultVertexColor = color.NRGBA{R: 255, G: 255, B: 0, A: 255}

// WritePLY writes the mesh as an ASCII PLY file. Vertex colors are included
// only when at least one vertex carries a color; uncolored vertices then get
// a default color.
func WritePLY(m *Mesh3D, out io.Writer) error {
	w := bufio.NewWriter(out)
	hasColor := m.HasColor()

	fmt.Fprintln(w, "ply")
	fmt.Fprintln(w, "format ascii 1.0")
	fmt.Fprintf(w, "element vertex %d\n", m.NumVertices())
	fmt.Fprintln(w, "property float x")
	fmt.Fprintln(w, "property float y")
	fmt.Fprintln(w, "property float z")
	if hasColor {
		fmt.Fprintln(w, "property uchar red")
		fmt.Fprintln(w, "property uchar green")
		fmt.Fprintln(w, "property uchar blue")
	}
	fmt.Fprintf(w, "element face %d\n", m.NumPolygons())
	fmt.Fprintln(w, "property list uchar int vertex_indices")
	fmt.Fprintln(w, "end_header")

	for i := 0; i < m.NumVertices(); i++ {
		v, _ := m.Vertex(VertexID(i))
		if hasColor {
			c := v.Color
			if c == nil {
				c = &defaultVertexColor
			}
			fmt.Fprintf(w, "%f %f %f %d %d %d\n", v.Position.X, v.Position.Y, v.Position.Z, c.R, c.G, c.B)
		} else {
			fmt.Fprintf(w, "%f %f %f\n", v.Position.X, v.Position.Y, v.Position.Z)
		}
	}
	for i := 0; i < m.NumPolygons(); i++ {
		ids, _ := m.PolygonVertexIDs(i)
		fmt.Fprintf(w, "3 %d %d %d\n", ids[0], ids[1], ids[2])
	}
	return w.Flush()
}
