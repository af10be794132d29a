package ik

import (
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func TestParsePolicy(t *testing.T) {
	for name, want := range map[string]Policy{
		"plain":   PolicyPlain,
		"clipped": PolicyClipped,
		"damped":  PolicyDamped,
		"smooth":  PolicySmooth,
	} {
		got, err := ParsePolicy(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
		test.That(t, got.String(), test.ShouldEqual, name)
	}

	_, err := ParsePolicy("levenberg")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUnknownPolicyFailsFast(t *testing.T) {
	j := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	_, err := PseudoInverse(j, Policy(42), DefaultInverseOptions())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown pseudo-inverse policy")

	// the policy is rejected before factorization: a matrix the decomposition cannot
	// handle still surfaces the policy error, not a factorization one
	bad := mat.NewDense(2, 2, []float64{math.NaN(), 0, 0, 1})
	_, err = PseudoInverse(bad, Policy(42), DefaultInverseOptions())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown pseudo-inverse policy")
}

func TestPlainMoorePenrose(t *testing.T) {
	// full rank, non-square: J * J^+ * J must reproduce J
	j := mat.NewDense(3, 2, []float64{
		1, 2,
		0, 1,
		-1, 0.5,
	})
	pinv, err := PseudoInverse(j, PolicyPlain, DefaultInverseOptions())
	test.That(t, err, test.ShouldBeNil)
	rows, cols := pinv.Dims()
	test.That(t, rows, test.ShouldEqual, 2)
	test.That(t, cols, test.ShouldEqual, 3)

	var jp, jpj mat.Dense
	jp.Mul(j, pinv)
	jpj.Mul(&jp, j)
	for r := 0; r < 3; r++ {
		for c := 0; c < 2; c++ {
			test.That(t, jpj.At(r, c), test.ShouldAlmostEqual, j.At(r, c), 1e-10)
		}
	}
}

func TestPlainZeroSingularValue(t *testing.T) {
	// rank 1: the null direction inverts to zero, not infinity
	j := mat.NewDense(2, 2, []float64{1, 0, 0, 0})
	pinv, err := PseudoInverse(j, PolicyPlain, DefaultInverseOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pinv.At(0, 0), test.ShouldAlmostEqual, 1, 1e-10)
	test.That(t, pinv.At(1, 1), test.ShouldAlmostEqual, 0, 1e-10)
	test.That(t, pinv.At(0, 1), test.ShouldAlmostEqual, 0, 1e-10)
	test.That(t, pinv.At(1, 0), test.ShouldAlmostEqual, 0, 1e-10)
}

func TestClippedIgnoresSmallSingularValues(t *testing.T) {
	opts := DefaultInverseOptions()
	// one singular value well above epsilon, one well below
	j := mat.NewDense(2, 2, []float64{1, 0, 0, opts.Epsilon / 10})
	pinv, err := PseudoInverse(j, PolicyClipped, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pinv.At(0, 0), test.ShouldAlmostEqual, 1, 1e-10)
	test.That(t, pinv.At(1, 1), test.ShouldAlmostEqual, 0, 1e-10)

	// plain would invert it to a huge value instead
	pinv, err = PseudoInverse(j, PolicyPlain, opts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pinv.At(1, 1), test.ShouldAlmostEqual, 10/opts.Epsilon, 1e-4)
}

func TestDampedIsBounded(t *testing.T) {
	opts := DefaultInverseOptions()
	j := mat.NewDense(2, 2, []float64{1, 0, 0, 0})
	pinv, err := PseudoInverse(j, PolicyDamped, opts)
	test.That(t, err, test.ShouldBeNil)
	// sigma/(sigma^2 + lambda^2) peaks at 1/(2*lambda), so no entry can reach 1/lambda
	bound := 1 / opts.Lambda
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			test.That(t, math.Abs(pinv.At(r, c)), test.ShouldBeLessThan, bound)
		}
	}
}

func TestDampedLimits(t *testing.T) {
	j := mat.NewDense(2, 2, []float64{2, 0, 1, 1})

	// lambda -> 0 recovers the plain inverse for a well-conditioned matrix
	plain, err := PseudoInverse(j, PolicyPlain, DefaultInverseOptions())
	test.That(t, err, test.ShouldBeNil)
	damped, err := PseudoInverse(j, PolicyDamped, InverseOptions{Lambda: 1e-9})
	test.That(t, err, test.ShouldBeNil)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			test.That(t, damped.At(r, c), test.ShouldAlmostEqual, plain.At(r, c), 1e-6)
		}
	}

	// lambda -> infinity damps everything to zero
	damped, err = PseudoInverse(j, PolicyDamped, InverseOptions{Lambda: 1e9})
	test.That(t, err, test.ShouldBeNil)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			test.That(t, math.Abs(damped.At(r, c)), test.ShouldBeLessThan, 1e-8)
		}
	}
}

func TestSmoothMatchesPlainAwayFromSingularity(t *testing.T) {
	opts := DefaultInverseOptions()
	j := mat.NewDense(2, 2, []float64{2, 0, 1, 1}) // all sigma well above epsilon

	smooth, err := PseudoInverse(j, PolicySmooth, opts)
	test.That(t, err, test.ShouldBeNil)
	plain, err := PseudoInverse(j, PolicyPlain, opts)
	test.That(t, err, test.ShouldBeNil)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			test.That(t, smooth.At(r, c), test.ShouldAlmostEqual, plain.At(r, c), 1e-12)
		}
	}
}

func TestSmoothMatchesDampedNearSingularity(t *testing.T) {
	opts := DefaultInverseOptions()
	// scale the matrix so every singular value is below epsilon
	scale := opts.Epsilon / 10
	j := mat.NewDense(2, 2, []float64{2 * scale, 0, scale, scale})

	smooth, err := PseudoInverse(j, PolicySmooth, opts)
	test.That(t, err, test.ShouldBeNil)
	damped, err := PseudoInverse(j, PolicyDamped, InverseOptions{Lambda: opts.LambdaMin})
	test.That(t, err, test.ShouldBeNil)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			test.That(t, smooth.At(r, c), test.ShouldAlmostEqual, damped.At(r, c), 1e-12)
		}
	}
}
