package integrators

import (
	"math"

	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
)

// rosGamma gives the two-stage Rosenbrock scheme L-stability, which is what
// lets it hold a 1 ms outer step through stiff pneumatic force gradients.
const rosGamma = 1.0 + 0.70710678118654752440 // 1 + 1/sqrt(2)

// jacobianEps scales the forward-difference perturbation for the numerical
// Jacobian.
var jacobianEps = math.Sqrt(2.2e-16)

// Rosenbrock is a two-stage linearly-implicit (Rosenbrock-Wanner) method.
// Each stage solves one linear system against (I - γ·h·J) with a numerical
// Jacobian; no Newton iteration is needed. The right-hand side is treated as
// autonomous, which matches the worker's contract of freezing road input and
// pressures across one tick.
type Rosenbrock struct {
	jac    [][]float64
	mat    [][]float64
	k1, k2 []float64
	stage  dynamo.State
	rhs    []float64
	pivot  []int
	evals  uint64
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{}
}

func (r *Rosenbrock) ensureScratch(n int) {
	if len(r.k1) == n {
		return
	}
	r.jac = newMatrix(n)
	r.mat = newMatrix(n)
	r.k1 = make([]float64, n)
	r.k2 = make([]float64, n)
	r.stage = make(dynamo.State, n)
	r.rhs = make([]float64, n)
	r.pivot = make([]int, n)
}

func newMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Evaluations returns the cumulative number of RHS evaluations.
func (r *Rosenbrock) Evaluations() uint64 { return r.evals }

func (r *Rosenbrock) derive(sys dynamo.System, x dynamo.State, t float64) dynamo.State {
	r.evals++
	return sys.Derive(x, t)
}

// numericalJacobian fills r.jac with forward differences of f around x.
func (r *Rosenbrock) numericalJacobian(sys dynamo.System, x dynamo.State, t float64, f0 dynamo.State) {
	n := len(x)
	for j := 0; j < n; j++ {
		h := jacobianEps * math.Max(math.Abs(x[j]), 1.0)
		orig := x[j]
		x[j] = orig + h
		f1 := r.derive(sys, x, t)
		x[j] = orig
		for i := 0; i < n; i++ {
			r.jac[i][j] = (f1[i] - f0[i]) / h
		}
	}
}

// StepEmbedded advances one substep of size h and returns the new state
// together with a first-order embedded solution for error control.
func (r *Rosenbrock) StepEmbedded(sys dynamo.System, x dynamo.State, t, h float64) (yNew, yLow dynamo.State, err error) {
	n := len(x)
	r.ensureScratch(n)

	f0 := r.derive(sys, x, t)
	r.numericalJacobian(sys, x, t, f0)

	// Factor (I - γ h J) once for both stages.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r.mat[i][j] = -rosGamma * h * r.jac[i][j]
		}
		r.mat[i][i] += 1.0
	}
	if !luFactor(r.mat, r.pivot) {
		return nil, nil, dynamo.ErrNotConverged
	}

	// Stage 1: (I - γhJ) k1 = f(x).
	copy(r.rhs, f0)
	luSolve(r.mat, r.pivot, r.rhs)
	copy(r.k1, r.rhs)

	// Stage 2: (I - γhJ) k2 = f(x + h k1) - 2 k1.
	for i := 0; i < n; i++ {
		r.stage[i] = x[i] + h*r.k1[i]
	}
	f1 := r.derive(sys, r.stage, t+h)
	for i := 0; i < n; i++ {
		r.rhs[i] = f1[i] - 2*r.k1[i]
	}
	luSolve(r.mat, r.pivot, r.rhs)
	copy(r.k2, r.rhs)

	yNew = make(dynamo.State, n)
	yLow = make(dynamo.State, n)
	for i := 0; i < n; i++ {
		yNew[i] = x[i] + 0.5*h*(3*r.k1[i]+r.k2[i])
		yLow[i] = x[i] + h*r.k1[i]
	}
	if !yNew.IsValid() {
		return nil, nil, dynamo.ErrInvalidState
	}
	return yNew, yLow, nil
}

// luFactor performs in-place LU decomposition with partial pivoting.
// It returns false for a singular matrix.
func luFactor(m [][]float64, pivot []int) bool {
	n := len(m)
	for col := 0; col < n; col++ {
		best := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[best][col]) {
				best = row
			}
		}
		if m[best][col] == 0 {
			return false
		}
		m[col], m[best] = m[best], m[col]
		pivot[col] = best

		inv := 1.0 / m[col][col]
		for row := col + 1; row < n; row++ {
			factor := m[row][col] * inv
			m[row][col] = factor
			for k := col + 1; k < n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}
	return true
}

// luSolve solves the factored system in place, overwriting b with x.
func luSolve(m [][]float64, pivot []int, b []float64) {
	n := len(m)
	for col := 0; col < n; col++ {
		b[col], b[pivot[col]] = b[pivot[col]], b[col]
		for row := col + 1; row < n; row++ {
			b[row] -= m[row][col] * b[col]
		}
	}
	for row := n - 1; row >= 0; row-- {
		for k := row + 1; k < n; k++ {
			b[row] -= m[row][k] * b[k]
		}
		b[row] /= m[row][row]
	}
}
