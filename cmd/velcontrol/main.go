// Package main runs the velocity IK controller against a fake planar arm, steering the
// end effector toward a target offset from its starting pose.
package main

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/mechlab/velik/controller"
	"github.com/mechlab/velik/controller/fake"
	"github.com/mechlab/velik/spatialmath"
)

var logger = golog.NewDevelopmentLogger("velcontrol")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command. Offsets are strings because the flag parser only handles
// bool, string, int and duration fields.
type Arguments struct {
	Policy   string `flag:"policy,default=damped,usage=pseudo-inverse policy (plain|clipped|damped|smooth)"`
	PeriodMS int    `flag:"period-ms,default=20,usage=control cycle period in milliseconds"`
	FullPose bool   `flag:"full-pose,usage=control orientation as well as translation"`
	OffsetX  string `flag:"offset-x,default=0.1,usage=target X offset in meters from the starting pose"`
	OffsetY  string `flag:"offset-y,default=0,usage=target Y offset in meters from the starting pose"`
}

// parseOffset converts an offset flag value to meters.
func parseOffset(name, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return f, nil
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	offsetX, err := parseOffset("offset-x", argsParsed.OffsetX)
	if err != nil {
		return err
	}
	offsetY, err := parseOffset("offset-y", argsParsed.OffsetY)
	if err != nil {
		return err
	}

	arm, err := fake.NewArm(0.5, 0.4)
	if err != nil {
		return err
	}

	//nolint:gosec // demo start configuration, not cryptographic
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	state, err := controller.NewManipulatorState(arm, arm, fake.EndEffectorLink, fake.RandomJoints(r))
	if err != nil {
		return err
	}

	// Start with the target on the current end-effector pose so the first cycle commands
	// zero motion, then nudge it by the requested offset.
	start := state.Pose()
	target := controller.NewTarget(start)
	target.Set(spatialmath.NewPose(
		start.Orientation(),
		start.Point().Add(r3.Vector{X: offsetX, Y: offsetY}),
	))

	loop, err := controller.NewControlLoop(controller.Config{
		Policy:   argsParsed.Policy,
		Period:   time.Duration(argsParsed.PeriodMS) * time.Millisecond,
		FullPose: argsParsed.FullPose,
	}, state, target, logger)
	if err != nil {
		return err
	}

	logger.Infow("starting control loop",
		"policy", argsParsed.Policy,
		"period_ms", argsParsed.PeriodMS,
		"full_pose", argsParsed.FullPose,
		"start_joints", state.Joints(),
	)
	return loop.Run(ctx)
}
