package factorgraph

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func mustFactor(t *testing.T, keys []Key, coeffs []float64, rhs, sigma float64) JacobianFactor {
	t.Helper()
	f, err := NewJacobianFactor(keys, coeffs, rhs, sigma)
	test.That(t, err, test.ShouldBeNil)
	return f
}

func TestNewJacobianFactor(t *testing.T) {
	_, err := NewJacobianFactor(nil, nil, 0, 1)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewJacobianFactor([]Key{0, 1}, []float64{1}, 0, 1)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewJacobianFactor([]Key{0}, []float64{1}, 0, 0)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewJacobianFactor([]Key{0}, []float64{1}, 0, -0.5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOptimizeSingleFactor(t *testing.T) {
	g := NewGraph()
	g.Add(mustFactor(t, []Key{7}, []float64{1}, 2, 1))
	test.That(t, g.NumFactors(), test.ShouldEqual, 1)

	vals, err := g.Optimize()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, vals.Len(), test.ShouldEqual, 1)
	x, ok := vals.At(7)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, x, test.ShouldAlmostEqual, 2)
	test.That(t, vals.Exists(8), test.ShouldBeFalse)
}

func TestOptimizeSprings(t *testing.T) {
	// Two measurements pulled together by a stiff spring. The analytic
	// minimum of 2(1-d)^2 + 400 d^2 with x0 = 2-d, x1 = 2+d is d = 1/201.
	g := NewGraph()
	g.Add(mustFactor(t, []Key{0}, []float64{1}, 1, 1))
	g.Add(mustFactor(t, []Key{1}, []float64{1}, 3, 1))
	g.Add(mustFactor(t, []Key{0, 1}, []float64{1, -1}, 0, 0.1))

	vals, err := g.Optimize()
	test.That(t, err, test.ShouldBeNil)
	x0, _ := vals.At(0)
	x1, _ := vals.At(1)
	test.That(t, x0+x1, test.ShouldAlmostEqual, 4, 1e-9)
	test.That(t, x1-x0, test.ShouldAlmostEqual, 2.0/201.0, 1e-9)

	t.Run("weak spring leaves measurements alone", func(t *testing.T) {
		g := NewGraph()
		g.Add(mustFactor(t, []Key{0}, []float64{1}, 1, 1))
		g.Add(mustFactor(t, []Key{1}, []float64{1}, 3, 1))
		g.Add(mustFactor(t, []Key{0, 1}, []float64{1, -1}, 0, 1e6))

		vals, err := g.Optimize()
		test.That(t, err, test.ShouldBeNil)
		x0, _ := vals.At(0)
		x1, _ := vals.At(1)
		test.That(t, x0, test.ShouldAlmostEqual, 1, 1e-6)
		test.That(t, x1, test.ShouldAlmostEqual, 3, 1e-6)
	})
}

func TestOptimizeEmpty(t *testing.T) {
	_, err := NewGraph().Optimize()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestOptimizeSingular(t *testing.T) {
	// Two linearly dependent equations over two variables.
	g := NewGraph()
	g.Add(mustFactor(t, []Key{0, 1}, []float64{1, 1}, 2, 1))
	g.Add(mustFactor(t, []Key{0, 1}, []float64{2, 2}, 4, 1))
	_, err := g.Optimize()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrSingular), test.ShouldBeTrue)
}

func TestKeysSorted(t *testing.T) {
	g := NewGraph()
	g.Add(mustFactor(t, []Key{5}, []float64{1}, 0, 1))
	g.Add(mustFactor(t, []Key{2, 9}, []float64{1, -1}, 0, 1))
	g.Add(mustFactor(t, []Key{2}, []float64{1}, 0, 1))
	test.That(t, g.Keys(), test.ShouldResemble, []Key{2, 5, 9})
}

func TestHessianDiagonal(t *testing.T) {
	g := NewGraph()
	g.Add(mustFactor(t, []Key{0}, []float64{1}, 1, 1))
	g.Add(mustFactor(t, []Key{1}, []float64{1}, 3, 1))
	g.Add(mustFactor(t, []Key{0, 1}, []float64{1, -1}, 0, 0.1))

	diag := g.HessianDiagonal()
	// Data factor contributes 1^2, spring contributes (1/0.1)^2.
	test.That(t, diag[0], test.ShouldAlmostEqual, 101)
	test.That(t, diag[1], test.ShouldAlmostEqual, 101)

	t.Run("repeated key in one factor", func(t *testing.T) {
		g := NewGraph()
		g.Add(mustFactor(t, []Key{0, 0}, []float64{1, 1}, 0, 1))
		// The row sums to 2 before squaring.
		test.That(t, g.HessianDiagonal()[0], test.ShouldAlmostEqual, 4)
	})
}
