// Package camera implements the pinhole projection model used to relate
// 3D landmarks, image pixels, and bearing rays for a calibrated camera.
package camera

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// ErrDegenerateProjection is when a point cannot be projected through the
// pinhole model, either because it sits behind the camera or at zero range.
var ErrDegenerateProjection = errors.New("degenerate projection")

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection
// of a 3D scene to the 2D image plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return errors.Wrap(ErrNoIntrinsics, "intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid size (%#v, %#v)", params.Width, params.Height)
	}
	if params.Fx <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid focal length Fx = %#v", params.Fx)
	}
	if params.Fy <= 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid focal length Fy = %#v", params.Fy)
	}
	if params.Ppx < 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid principal X point Ppx = %#v", params.Ppx)
	}
	if params.Ppy < 0 {
		return errors.Wrapf(ErrNoIntrinsics, "invalid principal Y point Ppy = %#v", params.Ppy)
	}
	return nil
}

// PixelToPoint transforms a pixel with depth to a 3D point in the camera frame.
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) r3.Vector {
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return r3.Vector{X: xOverZ * z, Y: yOverZ * z, Z: z}
}

// PointToPixel projects a 3D point in the camera frame to a (sub-)pixel in the image plane.
// The point must have positive depth.
func (params *PinholeCameraIntrinsics) PointToPixel(pt r3.Vector) (r2.Point, error) {
	if pt.Z <= 0 {
		return r2.Point{}, errors.Wrapf(ErrDegenerateProjection,
			"point (%v, %v, %v) is at or behind the image plane", pt.X, pt.Y, pt.Z)
	}
	return r2.Point{
		X: (pt.X/pt.Z)*params.Fx + params.Ppx,
		Y: (pt.Y/pt.Z)*params.Fy + params.Ppy,
	}, nil
}

// BackProject un-projects a pixel to the unit bearing vector of its viewing
// ray in the camera frame.
func (params *PinholeCameraIntrinsics) BackProject(px r2.Point) (r3.Vector, error) {
	ray := r3.Vector{
		X: (px.X - params.Ppx) / params.Fx,
		Y: (px.Y - params.Ppy) / params.Fy,
		Z: 1.0,
	}
	norm := ray.Norm()
	// Cannot happen for valid intrinsics since the Z component is 1, but a
	// zero-length ray must never be normalized.
	if norm == 0 {
		return r3.Vector{}, errors.Wrapf(ErrDegenerateProjection, "zero-length ray for pixel (%v, %v)", px.X, px.Y)
	}
	return ray.Mul(1.0 / norm), nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it
// into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.Unmarshal(byteValue, intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	return intrinsics, nil
}

func (params *PinholeCameraIntrinsics) String() string {
	return fmt.Sprintf("%dx%d fx: %v, fy: %v, ppx: %v, ppy: %v",
		params.Width, params.Height, params.Fx, params.Fy, params.Ppx, params.Ppy)
}
