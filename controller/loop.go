package controller

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/mechlab/velik/ik"
	"github.com/mechlab/velik/spatialmath"
)

// ControlLoop runs fixed-period control cycles until cancelled. Each cycle reads the
// current target, computes the task-space error against the manipulator's cached pose,
// solves for a joint delta through the Jacobian pseudo-inverse, and actuates it. A cycle
// that fails is logged and dropped; the next cycle's fresh computation supersedes it,
// since joint deltas accumulate rather than snapping to absolute positions. Shutdown is
// checked only at cycle boundaries, so no cycle is interrupted mid-computation.
type ControlLoop struct {
	solver   *ik.Solver
	period   time.Duration
	fullPose bool

	state  *ManipulatorState
	target *Target
	logger golog.Logger
	clock  clock.Clock

	mu                      sync.Mutex
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
}

// NewControlLoop validates the config and assembles a loop. Configuration errors (such
// as an unknown policy name) surface here, before any cycle runs.
func NewControlLoop(
	cfg Config,
	state *ManipulatorState,
	target *Target,
	logger golog.Logger,
) (*ControlLoop, error) {
	solver, period, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &ControlLoop{
		solver:   solver,
		period:   period,
		fullPose: cfg.FullPose,
		state:    state,
		target:   target,
		logger:   logger,
		clock:    clk,
	}, nil
}

// Run executes control cycles at the configured period until the context is cancelled,
// then returns nil. Cycle errors are logged, never returned.
func (cl *ControlLoop) Run(ctx context.Context) error {
	ticker := cl.clock.Ticker(cl.period)
	defer ticker.Stop()
	for {
		if !utils.SelectContextOrWaitChan(ctx, ticker.C) {
			return nil
		}
		if err := cl.step(); err != nil {
			cl.logger.Errorw("control cycle failed, waiting for next cycle", "error", err)
		}
	}
}

// Start runs the loop on a background goroutine. Stop cancels it and waits for the
// in-flight cycle to finish.
func (cl *ControlLoop) Start(ctx context.Context) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.cancel != nil {
		return
	}
	cancelCtx, cancel := context.WithCancel(ctx)
	cl.cancel = cancel
	cl.activeBackgroundWorkers.Add(1)
	utils.PanicCapturingGo(func() {
		defer cl.activeBackgroundWorkers.Done()
		if err := cl.Run(cancelCtx); err != nil {
			cl.logger.Errorw("control loop exited", "error", err)
		}
	})
}

// Stop cancels a loop begun with Start and blocks until it exits. Safe to call more
// than once.
func (cl *ControlLoop) Stop() {
	cl.mu.Lock()
	if cl.cancel != nil {
		cl.cancel()
		cl.cancel = nil
	}
	cl.mu.Unlock()
	cl.activeBackgroundWorkers.Wait()
}

// step performs one control cycle against the latest target.
func (cl *ControlLoop) step() error {
	tgt := cl.target.Get()
	cur := cl.state.Pose()
	jacobian := cl.state.Jacobian()

	var delta []float64
	var err error
	if cl.fullPose {
		delta, err = cl.solver.Solve(jacobian, spatialmath.PoseError6(tgt, cur))
	} else {
		delta, err = cl.solver.SolvePosition(jacobian, spatialmath.PositionError(tgt, cur))
	}
	if err != nil {
		return err
	}
	return cl.state.Actuate(delta)
}
