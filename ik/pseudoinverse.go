// Package ik computes joint-space velocity commands from task-space errors using the
// manipulator Jacobian and an SVD-based generalized inverse.
package ik

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var errSVDFailed = errors.New("failed to factorize jacobian")

// Policy selects how singular values are inverted when building the generalized inverse.
// The choice trades accuracy against stability near kinematic singularities.
type Policy int

const (
	// PolicyPlain is the exact Moore-Penrose inverse: 1/sigma wherever sigma > 0.
	// Unstable near rank deficiency.
	PolicyPlain Policy = iota
	// PolicyClipped zeroes out any singular value below epsilon, ignoring near-null
	// directions entirely.
	PolicyClipped
	// PolicyDamped applies Tikhonov regularization sigma/(sigma^2 + lambda^2) to every
	// singular value. Always well defined, less exact everywhere.
	PolicyDamped
	// PolicySmooth is Moore-Penrose away from singularities and damped near them,
	// blending continuously at epsilon to avoid a hard accuracy cliff.
	PolicySmooth
)

var policyNames = map[string]Policy{
	"plain":   PolicyPlain,
	"clipped": PolicyClipped,
	"damped":  PolicyDamped,
	"smooth":  PolicySmooth,
}

// ParsePolicy maps a policy name to its Policy value. An unknown name is a configuration
// error and is reported immediately, before any solving happens.
func ParsePolicy(name string) (Policy, error) {
	p, ok := policyNames[name]
	if !ok {
		return 0, errors.Errorf("unknown pseudo-inverse policy %q", name)
	}
	return p, nil
}

// validate rejects policy values outside the known set.
func (p Policy) validate() error {
	switch p {
	case PolicyPlain, PolicyClipped, PolicyDamped, PolicySmooth:
		return nil
	default:
		return errors.Errorf("unknown pseudo-inverse policy %d", p)
	}
}

// String returns the configuration name of the policy.
func (p Policy) String() string {
	for name, policy := range policyNames {
		if policy == p {
			return name
		}
	}
	return "unknown"
}

// InverseOptions hold the numeric parameters consumed by the inversion policies.
type InverseOptions struct {
	// Epsilon is the singular value cutoff used by PolicyClipped and the blend point
	// used by PolicySmooth.
	Epsilon float64
	// Lambda is the damping constant for PolicyDamped.
	Lambda float64
	// LambdaMin is the damping constant applied near singularities by PolicySmooth.
	LambdaMin float64
}

// DefaultInverseOptions returns the standard parameter set.
func DefaultInverseOptions() InverseOptions {
	return InverseOptions{Epsilon: 1e-4, Lambda: 0.03, LambdaMin: 0.01}
}

// PseudoInverse computes the generalized inverse of an m x n real matrix via its thin
// singular value decomposition, J = U * Sigma * V^T, inverting each singular value
// according to the given policy and rebuilding J^+ = V * SigmaInv * U^T. The result is
// n x m. SVD is defined for any real matrix, so the only failure modes are an unknown
// policy or a factorization that does not converge.
func PseudoInverse(j mat.Matrix, policy Policy, opts InverseOptions) (*mat.Dense, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}

	var svd mat.SVD
	ok := svd.Factorize(j, mat.SVDThin)
	if !ok {
		return nil, errSVDFailed
	}

	sigma := svd.Values(nil)
	sigmaInv := make([]float64, len(sigma))
	for i, s := range sigma {
		si, err := invertSingularValue(s, policy, opts)
		if err != nil {
			return nil, err
		}
		sigmaInv[i] = si
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// V * diag(sigmaInv) * U^T, with the diagonal zero-padded to the thin dimensions.
	k := len(sigmaInv)
	d := mat.NewDense(k, k, nil)
	for i, si := range sigmaInv {
		d.Set(i, i, si)
	}
	var vd, pinv mat.Dense
	vd.Mul(&v, d)
	pinv.Mul(&vd, u.T())
	return &pinv, nil
}

// invertSingularValue applies the active policy's inversion rule to one singular value.
// Singular values are non-negative by definition.
func invertSingularValue(s float64, policy Policy, opts InverseOptions) (float64, error) {
	switch policy {
	case PolicyPlain:
		if s > 0 {
			return 1 / s, nil
		}
		return 0, nil
	case PolicyClipped:
		if s < opts.Epsilon {
			return 0, nil
		}
		return 1 / s, nil
	case PolicyDamped:
		return s / (s*s + opts.Lambda*opts.Lambda), nil
	case PolicySmooth:
		if s > opts.Epsilon {
			return 1 / s, nil
		}
		return s / (s*s + opts.LambdaMin*opts.LambdaMin), nil
	default:
		return 0, errors.Errorf("unknown pseudo-inverse policy %d", policy)
	}
}
