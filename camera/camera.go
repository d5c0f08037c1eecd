package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Parameters bundles the intrinsics of a pinhole camera with its pose
// relative to the body frame.
type Parameters struct {
	Intrinsics     *PinholeCameraIntrinsics
	BodyPoseCamera *Pose
}

// CheckValid checks that both the intrinsics and the extrinsics are usable.
func (params *Parameters) CheckValid() error {
	if params == nil {
		return errors.New("camera parameters are nil")
	}
	var err error
	if e := params.Intrinsics.CheckValid(); e != nil {
		err = multierr.Append(err, e)
	}
	if params.BodyPoseCamera == nil {
		err = multierr.Append(err, errors.New("camera extrinsics are nil"))
	}
	return err
}

// Project transforms a 3D landmark in the body frame into the camera frame
// and projects it onto the image plane. It fails with ErrDegenerateProjection
// when the landmark is at or behind the optical center.
func (params *Parameters) Project(lmk r3.Vector) (r2.Point, error) {
	cam := params.BodyPoseCamera.TransformTo(lmk)
	return params.Intrinsics.PointToPixel(cam)
}

// ToBearing transforms a 3D landmark in the body frame into the camera frame
// and returns its unit bearing vector along with the reciprocal of its range.
func (params *Parameters) ToBearing(lmk r3.Vector) (r3.Vector, float64, error) {
	ray := params.BodyPoseCamera.TransformTo(lmk)
	norm := ray.Norm()
	if norm == 0 {
		return r3.Vector{}, 0, errors.Wrap(ErrDegenerateProjection, "landmark at zero range")
	}
	invDepth := 1.0 / norm
	return ray.Mul(invDepth), invDepth, nil
}
