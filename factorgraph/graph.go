// Package factorgraph implements a sparse linear factor graph over scalar
// variables, solved as a weighted least-squares problem by QR factorization.
// Factors are Jacobian rows a·x = b with a diagonal (sigma) noise model.
package factorgraph

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrSingular is when the stacked factor system cannot be solved because it
// is singular or otherwise ill-conditioned beyond use.
var ErrSingular = errors.New("factor graph system is singular")

// Key identifies a scalar variable in the graph.
type Key int

// JacobianFactor is a single linear constraint sum_i coeffs[i]*x[keys[i]] = rhs
// weighted by a noise sigma.
type JacobianFactor struct {
	keys   []Key
	coeffs []float64
	rhs    float64
	sigma  float64
}

// NewJacobianFactor returns a factor over the given keys. Keys and
// coefficients must pair up and sigma must be positive.
func NewJacobianFactor(keys []Key, coeffs []float64, rhs, sigma float64) (JacobianFactor, error) {
	if len(keys) == 0 || len(keys) != len(coeffs) {
		return JacobianFactor{}, errors.Errorf("factor needs matching keys and coefficients, got %d and %d", len(keys), len(coeffs))
	}
	if sigma <= 0 {
		return JacobianFactor{}, errors.Errorf("factor sigma must be positive, got %v", sigma)
	}
	return JacobianFactor{
		keys:   append([]Key{}, keys...),
		coeffs: append([]float64{}, coeffs...),
		rhs:    rhs,
		sigma:  sigma,
	}, nil
}

// Graph is an ordered collection of Jacobian factors.
type Graph struct {
	factors []JacobianFactor
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends a factor to the graph.
func (g *Graph) Add(f JacobianFactor) {
	g.factors = append(g.factors, f)
}

// NumFactors returns the number of factors in the graph.
func (g *Graph) NumFactors() int {
	return len(g.factors)
}

// Keys returns the sorted set of keys referenced by at least one factor.
func (g *Graph) Keys() []Key {
	seen := map[Key]bool{}
	for _, f := range g.factors {
		for _, k := range f.keys {
			seen[k] = true
		}
	}
	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Values holds the solved estimate for each variable that appears in the graph.
type Values struct {
	vals map[Key]float64
}

// At returns the estimate for a key and whether the key was solved for.
func (v *Values) At(k Key) (float64, bool) {
	x, ok := v.vals[k]
	return x, ok
}

// Exists reports whether the graph solved for the given key.
func (v *Values) Exists(k Key) bool {
	_, ok := v.vals[k]
	return ok
}

// Len returns the number of solved variables.
func (v *Values) Len() int {
	return len(v.vals)
}

// Optimize solves the stacked weighted least-squares system of all factors by
// QR factorization and returns one value per referenced key. Columns are
// assigned in sorted key order, so the result is deterministic.
func (g *Graph) Optimize() (*Values, error) {
	keys := g.Keys()
	if len(g.factors) == 0 || len(keys) == 0 {
		return nil, errors.New("cannot optimize an empty factor graph")
	}
	cols := map[Key]int{}
	for i, k := range keys {
		cols[k] = i
	}

	a := mat.NewDense(len(g.factors), len(keys), nil)
	b := mat.NewVecDense(len(g.factors), nil)
	for row, f := range g.factors {
		w := 1.0 / f.sigma
		for i, k := range f.keys {
			a.Set(row, cols[k], a.At(row, cols[k])+f.coeffs[i]*w)
		}
		b.SetVec(row, f.rhs*w)
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, errors.Wrapf(ErrSingular, "QR elimination failed: %v", err)
	}
	vals := make(map[Key]float64, len(keys))
	for i, k := range keys {
		vals[k] = x.AtVec(i)
	}
	return &Values{vals: vals}, nil
}

// HessianDiagonal returns the diagonal of the information matrix A^T A of the
// weighted system, keyed by variable. The reciprocal of an entry is a cheap
// proxy for that variable's variance; it ignores cross-covariances and is not
// an exact marginal.
func (g *Graph) HessianDiagonal() map[Key]float64 {
	diag := map[Key]float64{}
	row := map[Key]float64{}
	for _, f := range g.factors {
		w := 1.0 / f.sigma
		for i, k := range f.keys {
			row[k] += f.coeffs[i] * w
		}
		for k, c := range row {
			diag[k] += c * c
			delete(row, k)
		}
	}
	return diag
}
