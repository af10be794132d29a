package controller

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/mechlab/velik/controller/fake"
	"github.com/mechlab/velik/spatialmath"
)

func newTestState(t *testing.T, joints []float64) (*fake.Arm, *ManipulatorState) {
	t.Helper()
	arm, err := fake.NewArm(0.5, 0.4)
	test.That(t, err, test.ShouldBeNil)
	state, err := NewManipulatorState(arm, arm, fake.EndEffectorLink, joints)
	test.That(t, err, test.ShouldBeNil)
	return arm, state
}

func TestNewManipulatorState(t *testing.T) {
	_, state := newTestState(t, []float64{0.1, 0.2})
	test.That(t, state.Joints(), test.ShouldResemble, []float64{0.1, 0.2})
	test.That(t, state.Pose(), test.ShouldNotBeNil)
	test.That(t, state.Jacobian(), test.ShouldNotBeNil)
	test.That(t, state.Link(), test.ShouldEqual, fake.EndEffectorLink)

	arm, err := fake.NewArm(1, 1)
	test.That(t, err, test.ShouldBeNil)
	_, err = NewManipulatorState(nil, nil, fake.EndEffectorLink, []float64{0, 0})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewManipulatorState(arm, nil, fake.EndEffectorLink, nil)
	test.That(t, err, test.ShouldNotBeNil)
	// the seeding FK failure surfaces at construction
	_, err = NewManipulatorState(arm, nil, "elbow", []float64{0, 0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestActuateAdvancesAndRecomputes(t *testing.T) {
	arm, state := newTestState(t, []float64{0, 0})
	before := state.Pose()

	test.That(t, state.Actuate([]float64{0.1, -0.2}), test.ShouldBeNil)
	test.That(t, state.Joints()[0], test.ShouldAlmostEqual, 0.1)
	test.That(t, state.Joints()[1], test.ShouldAlmostEqual, -0.2)
	// the cached pose was recomputed synchronously
	test.That(t, spatialmath.PoseAlmostEqual(state.Pose(), before, 1e-9), test.ShouldBeFalse)
	// and the new configuration was published
	test.That(t, arm.Published(), test.ShouldResemble, [][]float64{{0.1, -0.2}})
}

func TestActuateZeroDeltaIdempotent(t *testing.T) {
	_, state := newTestState(t, []float64{0.3, 0.7})
	pose := state.Pose()
	jacobian := mat.DenseCopyOf(state.Jacobian())

	for i := 0; i < 5; i++ {
		test.That(t, state.Actuate([]float64{0, 0}), test.ShouldBeNil)
	}
	test.That(t, state.Joints(), test.ShouldResemble, []float64{0.3, 0.7})
	test.That(t, spatialmath.PoseAlmostEqual(state.Pose(), pose, 1e-12), test.ShouldBeTrue)
	test.That(t, mat.EqualApprox(state.Jacobian(), jacobian, 1e-12), test.ShouldBeTrue)
}

func TestActuateDimensionMismatch(t *testing.T) {
	_, state := newTestState(t, []float64{0, 0})
	test.That(t, state.Actuate([]float64{0.1}), test.ShouldNotBeNil)
	test.That(t, state.Joints(), test.ShouldResemble, []float64{0, 0})
}

type failingPublisher struct{}

func (failingPublisher) PublishJointState([]float64) error {
	return errors.New("transport down")
}

func TestActuatePublishFailure(t *testing.T) {
	arm, err := fake.NewArm(1, 1)
	test.That(t, err, test.ShouldBeNil)
	state, err := NewManipulatorState(arm, failingPublisher{}, fake.EndEffectorLink, []float64{0, 0})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, state.Actuate([]float64{0.1, 0}), test.ShouldNotBeNil)
}
