package controller

import (
	"sync/atomic"

	"github.com/mechlab/velik/spatialmath"
)

// Target is the shared cell holding the pose the control loop steers toward. It is
// written by an external input source (e.g. interactive marker feedback) and read by
// the loop once per cycle. Updates are last-writer-wins: the whole pose is swapped as
// one pointer, so a reader can never observe the translation of one update paired with
// the rotation of another. Readers never block waiting for a fresher value.
type Target struct {
	pose atomic.Pointer[spatialmath.Pose]
}

// NewTarget creates a target initialized to the given pose. Initializing to the
// manipulator's starting end-effector pose makes the first cycle command zero motion.
func NewTarget(initial *spatialmath.Pose) *Target {
	t := &Target{}
	t.pose.Store(initial)
	return t
}

// Set replaces the target pose.
func (t *Target) Set(p *spatialmath.Pose) {
	t.pose.Store(p)
}

// Get returns the most recently set target pose.
func (t *Target) Get() *spatialmath.Pose {
	return t.pose.Load()
}
