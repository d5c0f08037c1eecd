package pointcloud

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// All positions are in meters. Only the ASCII flavor of the PCD format is
// supported; the clouds handled here are sparse range samples, not full
// sensor sweeps, so compactness is not a concern.

func _colorToPCDInt(pt Data) int {
	if pt == nil || !pt.HasColor() {
		return 255 << 16
	}

	r, g, b := pt.RGB255()
	x := 0

	x |= (int(r) << 16)
	x |= (int(g) << 8)
	x |= (int(b) << 0)
	return x
}

func _pcdIntToColor(c int) color.NRGBA {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & (c >> 0))
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// ToPCD writes a cloud as an ASCII PCD file.
func ToPCD(cloud PointCloud, out io.Writer) error {
	hasColor := cloud.MetaData().HasColor

	if _, err := fmt.Fprintf(out, "VERSION .7\n"); err != nil {
		return err
	}
	var err error
	if hasColor {
		_, err = fmt.Fprintf(out, "FIELDS x y z rgb\n"+
			"SIZE 4 4 4 4\n"+
			"TYPE F F F I\n"+
			"COUNT 1 1 1 1\n")
	} else {
		_, err = fmt.Fprintf(out, "FIELDS x y z\n"+
			"SIZE 4 4 4\n"+
			"TYPE F F F\n"+
			"COUNT 1 1 1\n")
	}
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA ascii\n",
		cloud.Size(), cloud.Size()); err != nil {
		return err
	}

	cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
		if hasColor {
			_, err = fmt.Fprintf(out, "%f %f %f %d\n", pos.X, pos.Y, pos.Z, _colorToPCDInt(d))
		} else {
			_, err = fmt.Fprintf(out, "%f %f %f\n", pos.X, pos.Y, pos.Z)
		}
		return err == nil
	})
	return err
}

// ReadPCD reads an ASCII PCD file into a PointCloud.
func ReadPCD(in io.Reader) (PointCloud, error) {
	scanner := bufio.NewScanner(in)
	hasColor := false
	points := 0
	inHeader := true
	cloud := New()
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if inHeader {
			fields := strings.Fields(line)
			switch fields[0] {
			case "FIELDS":
				hasColor = len(fields) > 4 && fields[4] == "rgb"
			case "POINTS":
				n, err := strconv.Atoi(fields[1])
				if err != nil {
					return nil, errors.Wrapf(err, "invalid POINTS line %q", line)
				}
				points = n
			case "DATA":
				if fields[1] != "ascii" {
					return nil, errors.Errorf("unsupported PCD data format %q, only ascii is supported", fields[1])
				}
				inHeader = false
			}
			continue
		}
		fields := strings.Fields(line)
		want := 3
		if hasColor {
			want = 4
		}
		if len(fields) != want {
			return nil, errors.Errorf("malformed PCD data line %q, expected %d fields", line, want)
		}
		var xyz [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "malformed PCD data line %q", line)
			}
			xyz[i] = v
		}
		var d Data
		if hasColor {
			c, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, errors.Wrapf(err, "malformed PCD color in line %q", line)
			}
			d = NewColoredData(_pcdIntToColor(c))
		} else {
			d = NewBasicData()
		}
		if err := cloud.Set(r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, d); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inHeader {
		return nil, errors.New("PCD header has no DATA line")
	}
	if cloud.Size() != points {
		return nil, errors.Errorf("PCD header declares %d points but %d were read", points, cloud.Size())
	}
	return cloud, nil
}

// NewFromPCDFile returns a pointcloud read in from the given PCD file.
func NewFromPCDFile(path string) (PointCloud, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening PCD file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadPCD(f)
}
