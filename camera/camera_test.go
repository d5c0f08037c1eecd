package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func testIntrinsics() *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{
		Width:  640,
		Height: 480,
		Fx:     500,
		Fy:     500,
		Ppx:    320,
		Ppy:    240,
	}
}

func TestIntrinsicsCheckValid(t *testing.T) {
	test.That(t, testIntrinsics().CheckValid(), test.ShouldBeNil)

	var nilParams *PinholeCameraIntrinsics
	test.That(t, errors.Is(nilParams.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)

	bad := testIntrinsics()
	bad.Fx = 0
	test.That(t, errors.Is(bad.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)

	bad = testIntrinsics()
	bad.Width = 0
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
}

func TestProjectBackProjectRoundTrip(t *testing.T) {
	params := &Parameters{Intrinsics: testIntrinsics(), BodyPoseCamera: NewZeroPose()}

	// Back-projecting a projected point must recover the direction of the
	// original point, not its magnitude.
	for _, pt := range []r3.Vector{
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 2, Z: 5},
		{X: -0.5, Y: 0.25, Z: 2},
		{X: 0.1, Y: -0.4, Z: 10},
	} {
		px, err := params.Project(pt)
		test.That(t, err, test.ShouldBeNil)
		bearing, err := params.Intrinsics.BackProject(px)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, bearing.Norm(), test.ShouldAlmostEqual, 1, 1e-12)

		cross := bearing.Cross(pt.Mul(1 / pt.Norm()))
		test.That(t, cross.Norm(), test.ShouldAlmostEqual, 0, 1e-9)
	}
}

func TestProjectDegenerate(t *testing.T) {
	params := &Parameters{Intrinsics: testIntrinsics(), BodyPoseCamera: NewZeroPose()}

	_, err := params.Project(r3.Vector{X: 1, Y: 1, Z: 0})
	test.That(t, errors.Is(err, ErrDegenerateProjection), test.ShouldBeTrue)

	_, err = params.Project(r3.Vector{X: 1, Y: 1, Z: -3})
	test.That(t, errors.Is(err, ErrDegenerateProjection), test.ShouldBeTrue)
}

func TestToBearing(t *testing.T) {
	params := &Parameters{Intrinsics: testIntrinsics(), BodyPoseCamera: NewZeroPose()}

	bearing, invDepth, err := params.ToBearing(r3.Vector{X: 0, Y: 0, Z: 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, invDepth, test.ShouldAlmostEqual, 0.25)
	test.That(t, bearing, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})

	bearing, invDepth, err = params.ToBearing(r3.Vector{X: 3, Y: 0, Z: 4})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, invDepth, test.ShouldAlmostEqual, 0.2)
	test.That(t, bearing.Norm(), test.ShouldAlmostEqual, 1, 1e-12)

	_, _, err = params.ToBearing(r3.Vector{})
	test.That(t, errors.Is(err, ErrDegenerateProjection), test.ShouldBeTrue)
}

func TestPose(t *testing.T) {
	// 90 degree rotation about Z plus a translation.
	rot := mat.NewDense(3, 3, []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	})
	pose, err := NewPose(rot, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, err, test.ShouldBeNil)

	t.Run("round trip", func(t *testing.T) {
		pt := r3.Vector{X: 4, Y: -1, Z: 0.5}
		back := pose.TransformFrom(pose.TransformTo(pt))
		test.That(t, back.X, test.ShouldAlmostEqual, pt.X, 1e-12)
		test.That(t, back.Y, test.ShouldAlmostEqual, pt.Y, 1e-12)
		test.That(t, back.Z, test.ShouldAlmostEqual, pt.Z, 1e-12)
	})

	t.Run("transform from rotates", func(t *testing.T) {
		// Camera X axis maps onto body Y axis.
		out := pose.TransformFrom(r3.Vector{X: 1, Y: 0, Z: 0})
		test.That(t, out.X, test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, out.Y, test.ShouldAlmostEqual, 3, 1e-12)
		test.That(t, out.Z, test.ShouldAlmostEqual, 3, 1e-12)
	})

	t.Run("translation accessor", func(t *testing.T) {
		test.That(t, pose.Translation(), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
		test.That(t, NewZeroPose().Translation(), test.ShouldResemble, r3.Vector{})
	})

	t.Run("bad rotation dims", func(t *testing.T) {
		_, err := NewPose(mat.NewDense(2, 3, nil), r3.Vector{})
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestPixelPointHelpers(t *testing.T) {
	params := testIntrinsics()

	pt := params.PixelToPoint(320, 240, 2)
	test.That(t, pt, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 2})

	px, err := params.PointToPixel(r3.Vector{X: 0, Y: 0, Z: 5})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, px, test.ShouldResemble, r2.Point{X: 320, Y: 240})

	// Off-axis point checked against the closed form.
	px, err = params.PointToPixel(r3.Vector{X: 1, Y: -1, Z: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, px.X, test.ShouldAlmostEqual, 320+500*0.5)
	test.That(t, px.Y, test.ShouldAlmostEqual, 240-500*0.5)

	roundTrip := params.PixelToPoint(px.X, px.Y, 2)
	test.That(t, roundTrip.X, test.ShouldAlmostEqual, 1)
	test.That(t, roundTrip.Y, test.ShouldAlmostEqual, -1)

	test.That(t, math.IsNaN(px.X), test.ShouldBeFalse)
}
