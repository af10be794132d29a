package controller

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/mechlab/velik/ik"
)

// defaultPeriod matches a 50 Hz control rate.
const defaultPeriod = 20 * time.Millisecond

// Config selects the inversion policy and pacing of a control loop. Zero-valued numeric
// parameters are filled with defaults by Validate.
type Config struct {
	// Policy names the singular value inversion rule: "plain", "clipped", "damped" or "smooth".
	Policy string `json:"policy"`
	// Epsilon is the cutoff/blend threshold for the clipped and smooth policies.
	Epsilon float64 `json:"epsilon,omitempty"`
	// Lambda is the damping constant for the damped policy.
	Lambda float64 `json:"lambda,omitempty"`
	// LambdaMin is the near-singularity damping constant for the smooth policy.
	LambdaMin float64 `json:"lambda_min,omitempty"`
	// Period is the fixed cycle period of the loop.
	Period time.Duration `json:"period,omitempty"`
	// FullPose selects 6-D pose control; when false only translation is controlled and
	// orientation drifts freely.
	FullPose bool `json:"full_pose,omitempty"`
	// Clock is the loop's time source. If nil the wall clock is used; tests inject a
	// mock to drive cycles without real sleeping.
	Clock clock.Clock `json:"-"`
}

// Validate checks the config and resolves it into a solver and period. Problems are
// combined and reported together; any problem here is a configuration error and
// surfaces before the first cycle runs.
func (c *Config) Validate() (*ik.Solver, time.Duration, error) {
	policy, err := ik.ParsePolicy(c.Policy)
	if c.Period < 0 {
		err = multierr.Combine(err, errors.Errorf("period must be positive, got %v", c.Period))
	}
	if c.Epsilon < 0 {
		err = multierr.Combine(err, errors.Errorf("epsilon must be positive, got %g", c.Epsilon))
	}
	if c.Lambda < 0 {
		err = multierr.Combine(err, errors.Errorf("lambda must be positive, got %g", c.Lambda))
	}
	if c.LambdaMin < 0 {
		err = multierr.Combine(err, errors.Errorf("lambda_min must be positive, got %g", c.LambdaMin))
	}
	if err != nil {
		return nil, 0, err
	}

	period := c.Period
	if period == 0 {
		period = defaultPeriod
	}
	opts := ik.DefaultInverseOptions()
	if c.Epsilon != 0 {
		opts.Epsilon = c.Epsilon
	}
	if c.Lambda != 0 {
		opts.Lambda = c.Lambda
	}
	if c.LambdaMin != 0 {
		opts.LambdaMin = c.LambdaMin
	}
	return ik.NewSolver(policy, opts), period, nil
}
