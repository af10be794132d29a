package controller

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/mechlab/velik/ik"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{Policy: "damped"}
	solver, period, err := cfg.Validate()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, period, test.ShouldEqual, defaultPeriod)
	test.That(t, solver.Policy(), test.ShouldEqual, ik.PolicyDamped)
}

func TestConfigValidateExplicit(t *testing.T) {
	cfg := Config{
		Policy:    "smooth",
		Epsilon:   1e-3,
		LambdaMin: 0.02,
		Period:    5 * time.Millisecond,
		FullPose:  true,
	}
	solver, period, err := cfg.Validate()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, period, test.ShouldEqual, 5*time.Millisecond)
	test.That(t, solver.Policy(), test.ShouldEqual, ik.PolicySmooth)
}

func TestConfigValidateRejects(t *testing.T) {
	_, _, err := (&Config{Policy: "transposed"}).Validate()
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = (&Config{Policy: "plain", Period: -time.Second}).Validate()
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = (&Config{Policy: "damped", Lambda: -0.1}).Validate()
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = (&Config{Policy: "clipped", Epsilon: -1}).Validate()
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = (&Config{Policy: "smooth", LambdaMin: -1}).Validate()
	test.That(t, err, test.ShouldNotBeNil)
}
