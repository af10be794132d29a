// Package controller drives an articulated manipulator toward a live end-effector pose
// target by resolved-rate inverse kinematics: each cycle computes a task-space pose error
// and converts it into a joint-delta command through a regularized Jacobian pseudo-inverse.
package controller

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mechlab/velik/spatialmath"
)

// FrameSolver is the external forward-kinematics collaborator. Given a target link and a
// joint configuration it returns the link's pose and the 6xN manipulator Jacobian
// (rows 0-2 translational, rows 3-5 rotational, one column per joint). Implementations
// must be deterministic in their inputs and free of side effects visible to the controller.
type FrameSolver interface {
	FK(link string, joints []float64) (*spatialmath.Pose, *mat.Dense, error)
}

// JointPublisher receives a snapshot of the joint configuration after every actuation,
// for external publication. Fire and forget; the controller consumes no acknowledgment.
type JointPublisher interface {
	PublishJointState(joints []float64) error
}

// ManipulatorState holds the current joint configuration of the arm together with the
// most recently computed pose and Jacobian of the designated target link. The joint
// vector is fixed in length after construction and is mutated only through Actuate.
type ManipulatorState struct {
	fk        FrameSolver
	publisher JointPublisher
	link      string

	joints   []float64
	pose     *spatialmath.Pose
	jacobian *mat.Dense
}

// NewManipulatorState seeds the state with an initial joint configuration and runs one
// forward-kinematics pass so the cached pose and Jacobian are valid before the first
// control cycle. The publisher may be nil.
func NewManipulatorState(
	fk FrameSolver,
	publisher JointPublisher,
	link string,
	initialJoints []float64,
) (*ManipulatorState, error) {
	if fk == nil {
		return nil, errors.New("frame solver cannot be nil")
	}
	if len(initialJoints) == 0 {
		return nil, errors.New("need at least one joint")
	}
	joints := make([]float64, len(initialJoints))
	copy(joints, initialJoints)

	ms := &ManipulatorState{fk: fk, publisher: publisher, link: link, joints: joints}
	if err := ms.refresh(); err != nil {
		return nil, errors.Wrap(err, "initial forward kinematics failed")
	}
	return ms, nil
}

// Actuate adds the given delta elementwise to the joint configuration, publishes the new
// configuration, and synchronously recomputes the cached pose and Jacobian. Joint limits
// are not enforced here. The cached pose and Jacobian are valid once Actuate returns.
func (ms *ManipulatorState) Actuate(delta []float64) error {
	if len(delta) != len(ms.joints) {
		return errors.Errorf("delta has %d elements, manipulator has %d joints", len(delta), len(ms.joints))
	}
	for i, d := range delta {
		ms.joints[i] += d
	}
	if ms.publisher != nil {
		if err := ms.publisher.PublishJointState(ms.Joints()); err != nil {
			return errors.Wrap(err, "failed to publish joint state")
		}
	}
	return ms.refresh()
}

func (ms *ManipulatorState) refresh() error {
	pose, jacobian, err := ms.fk.FK(ms.link, ms.joints)
	if err != nil {
		return err
	}
	if jacobian != nil {
		if _, cols := jacobian.Dims(); cols != len(ms.joints) {
			return errors.Errorf("jacobian has %d columns, manipulator has %d joints", cols, len(ms.joints))
		}
	}
	ms.pose = pose
	ms.jacobian = jacobian
	return nil
}

// Joints returns a copy of the current joint configuration.
func (ms *ManipulatorState) Joints() []float64 {
	out := make([]float64, len(ms.joints))
	copy(out, ms.joints)
	return out
}

// Pose returns the cached pose of the target link.
func (ms *ManipulatorState) Pose() *spatialmath.Pose {
	return ms.pose
}

// Jacobian returns the cached Jacobian of the target link.
func (ms *ManipulatorState) Jacobian() *mat.Dense {
	return ms.jacobian
}

// Link returns the name of the controlled link.
func (ms *ManipulatorState) Link() string {
	return ms.link
}
