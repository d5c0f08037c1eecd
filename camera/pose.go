package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Pose is a rigid transform describing the camera frame relative to the body
// frame: rotation is the camera-to-body rotation matrix and translation is
// the camera origin expressed in the body frame.
type Pose struct {
	rotation    *mat.Dense
	translation r3.Vector
}

// NewPose returns a Pose from a 3x3 camera-to-body rotation matrix and a
// translation of the camera origin in the body frame.
func NewPose(rotation *mat.Dense, translation r3.Vector) (*Pose, error) {
	r, c := rotation.Dims()
	if r != 3 || c != 3 {
		return nil, errors.Errorf("rotation must be a 3x3 matrix, got %dx%d", r, c)
	}
	rot := mat.NewDense(3, 3, nil)
	rot.Copy(rotation)
	return &Pose{rotation: rot, translation: translation}, nil
}

// NewZeroPose returns an identity pose: the camera frame coincides with the
// body frame.
func NewZeroPose() *Pose {
	return &Pose{
		rotation: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}),
	}
}

// TransformTo takes a point in the body frame and expresses it in the camera
// frame.
func (p *Pose) TransformTo(pt r3.Vector) r3.Vector {
	d := pt.Sub(p.translation)
	// Camera frame coordinates are R^T * (pt - t).
	return r3.Vector{
		X: p.rotation.At(0, 0)*d.X + p.rotation.At(1, 0)*d.Y + p.rotation.At(2, 0)*d.Z,
		Y: p.rotation.At(0, 1)*d.X + p.rotation.At(1, 1)*d.Y + p.rotation.At(2, 1)*d.Z,
		Z: p.rotation.At(0, 2)*d.X + p.rotation.At(1, 2)*d.Y + p.rotation.At(2, 2)*d.Z,
	}
}

// TransformFrom takes a point in the camera frame and expresses it in the
// body frame.
func (p *Pose) TransformFrom(pt r3.Vector) r3.Vector {
	rotated := r3.Vector{
		X: p.rotation.At(0, 0)*pt.X + p.rotation.At(0, 1)*pt.Y + p.rotation.At(0, 2)*pt.Z,
		Y: p.rotation.At(1, 0)*pt.X + p.rotation.At(1, 1)*pt.Y + p.rotation.At(1, 2)*pt.Z,
		Z: p.rotation.At(2, 0)*pt.X + p.rotation.At(2, 1)*pt.Y + p.rotation.At(2, 2)*pt.Z,
	}
	return rotated.Add(p.translation)
}

// Translation returns the camera origin in the body frame.
func (p *Pose) Translation() r3.Vector {
	return p.translation
}
