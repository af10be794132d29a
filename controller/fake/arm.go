// Package fake provides an analytic stand-in for the external forward-kinematics and
// command-transport collaborators: a two-link planar arm with a closed-form pose and
// Jacobian, for tests and demos.
package fake

import (
	"math"
	"math/rand"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mechlab/velik/spatialmath"
)

// EndEffectorLink is the one link the fake arm can solve for.
const EndEffectorLink = "ee"

// Arm is a two-revolute-joint planar manipulator in the XY plane. Joint angles are
// radians; the end effector sits at the tip of the second link, oriented by the sum of
// the joint angles about Z.
type Arm struct {
	l1, l2 float64

	mu        sync.Mutex
	published [][]float64
}

// NewArm creates a planar arm with the given link lengths.
func NewArm(l1, l2 float64) (*Arm, error) {
	if l1 <= 0 || l2 <= 0 {
		return nil, errors.Errorf("link lengths must be positive, got %g and %g", l1, l2)
	}
	return &Arm{l1: l1, l2: l2}, nil
}

// FK returns the end-effector pose and the 6x2 Jacobian for the given joint angles.
// Rows 0-2 of the Jacobian are translational, rows 3-5 rotational; for a planar arm only
// the X, Y and Z-rotation rows are nonzero.
func (a *Arm) FK(link string, joints []float64) (*spatialmath.Pose, *mat.Dense, error) {
	if link != EndEffectorLink {
		return nil, nil, errors.Errorf("unknown link %q", link)
	}
	if len(joints) != 2 {
		return nil, nil, errors.Errorf("planar arm has 2 joints, got %d values", len(joints))
	}
	q1, q2 := joints[0], joints[1]
	s1, c1 := math.Sincos(q1)
	s12, c12 := math.Sincos(q1 + q2)

	point := r3.Vector{
		X: a.l1*c1 + a.l2*c12,
		Y: a.l1*s1 + a.l2*s12,
	}
	rot, err := spatialmath.NewRotationMatrix([]float64{
		c12, -s12, 0,
		s12, c12, 0,
		0, 0, 1,
	})
	if err != nil {
		return nil, nil, err
	}

	jacobian := mat.NewDense(6, 2, nil)
	jacobian.Set(0, 0, -a.l1*s1-a.l2*s12)
	jacobian.Set(0, 1, -a.l2*s12)
	jacobian.Set(1, 0, a.l1*c1+a.l2*c12)
	jacobian.Set(1, 1, a.l2*c12)
	jacobian.Set(5, 0, 1)
	jacobian.Set(5, 1, 1)

	return spatialmath.NewPose(rot, point), jacobian, nil
}

// PublishJointState records the configuration, standing in for the command transport.
func (a *Arm) PublishJointState(joints []float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	snapshot := make([]float64, len(joints))
	copy(snapshot, joints)
	a.published = append(a.published, snapshot)
	return nil
}

// Published returns all joint configurations published so far.
func (a *Arm) Published() [][]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]float64, len(a.published))
	copy(out, a.published)
	return out
}

// RandomJoints returns a starting configuration drawn uniformly from the middle of the
// joint range, mirroring how a controller is typically seeded away from the limits.
func RandomJoints(r *rand.Rand) []float64 {
	const limit = math.Pi
	mid := 0.0
	span := 0.1 * 2 * limit
	return []float64{
		mid + span*r.Float64(),
		mid + span*r.Float64(),
	}
}
