package ik

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Solver computes joint deltas from a Jacobian and a task-space error vector using a
// regularized generalized inverse: qDelta = J^+ * error. It holds only immutable policy
// configuration and is safe for concurrent use.
type Solver struct {
	policy Policy
	opts   InverseOptions
}

// NewSolver returns a velocity IK solver using the given inversion policy and parameters.
func NewSolver(policy Policy, opts InverseOptions) *Solver {
	return &Solver{policy: policy, opts: opts}
}

// NewDefaultSolver returns a velocity IK solver with the standard parameter set.
func NewDefaultSolver(policy Policy) *Solver {
	return NewSolver(policy, DefaultInverseOptions())
}

// Policy returns the configured inversion policy.
func (s *Solver) Policy() Policy {
	return s.policy
}

// Solve computes qDelta = J^+ * errVec. The error vector length must match the Jacobian
// row count; the result length is the Jacobian column count, one entry per joint.
// The result magnitude is unbounded if the Jacobian is near singular and damping is
// insufficient; bounding it is a caller-level safety policy, not done here.
func (s *Solver) Solve(j mat.Matrix, errVec []float64) ([]float64, error) {
	rows, cols := j.Dims()
	if len(errVec) != rows {
		return nil, errors.Errorf("error vector has %d elements, jacobian has %d rows", len(errVec), rows)
	}
	pinv, err := PseudoInverse(j, s.policy, s.opts)
	if err != nil {
		return nil, err
	}
	var qDelta mat.VecDense
	qDelta.MulVec(pinv, mat.NewVecDense(rows, errVec))
	out := make([]float64, cols)
	copy(out, qDelta.RawVector().Data)
	return out, nil
}

// SolvePosition computes a joint delta controlling translation only: the Jacobian is
// restricted to its first three rows and the error is the world-frame position error.
// Orientation drifts freely, the task being under-constrained by design.
func (s *Solver) SolvePosition(j mat.Matrix, errVec r3.Vector) ([]float64, error) {
	rows, cols := j.Dims()
	if rows < 3 {
		return nil, errors.Errorf("jacobian has %d rows, need at least 3 translational rows", rows)
	}
	jPos := mat.NewDense(3, cols, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < cols; c++ {
			jPos.Set(r, c, j.At(r, c))
		}
	}
	return s.Solve(jPos, []float64{errVec.X, errVec.Y, errVec.Z})
}
