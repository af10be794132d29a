// Package spatialmath defines spatial mathematical operations: rigid transforms,
// rotation representations, and task-space pose errors.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// defaultOrthonormalityEpsilon is the largest deviation from orthonormality tolerated
// before a rotation is rejected as invalid.
const defaultOrthonormalityEpsilon = 1e-6

// Pose is a rigid transform: an orientation expressed as a rotation matrix together with
// a translation. A Pose is treated as an immutable value once constructed; mutators
// return new poses.
type Pose struct {
	rotation    *RotationMatrix
	translation r3.Vector
}

// NewZeroPose returns a pose with no rotation and no translation.
func NewZeroPose() *Pose {
	return &Pose{rotation: NewZeroRotationMatrix()}
}

// NewPose creates a pose from an orientation and a point.
func NewPose(rotation *RotationMatrix, translation r3.Vector) *Pose {
	return &Pose{rotation: rotation, translation: translation}
}

// NewPoseFromPoint creates a pose with the given translation and no rotation.
func NewPoseFromPoint(translation r3.Vector) *Pose {
	return &Pose{rotation: NewZeroRotationMatrix(), translation: translation}
}

// NewPoseFromQuaternion creates a pose from a quaternion and a point. The quaternion is
// normalized first, so externally supplied orientations (e.g. from interactive marker
// feedback) always yield a valid rotation.
func NewPoseFromQuaternion(q quat.Number, translation r3.Vector) (*Pose, error) {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		return nil, errors.New("cannot create pose from zero quaternion")
	}
	q = quat.Number{Real: q.Real / n, Imag: q.Imag / n, Jmag: q.Jmag / n, Kmag: q.Kmag / n}
	return &Pose{rotation: QuatToRotationMatrix(q), translation: translation}, nil
}

// Orientation returns the rotation part of the pose.
func (p *Pose) Orientation() *RotationMatrix {
	return p.rotation
}

// Point returns the translation part of the pose.
func (p *Pose) Point() r3.Vector {
	return p.translation
}

// Compose returns the pose equivalent to applying p first, then the receiver.
func (p *Pose) Compose(other *Pose) *Pose {
	return &Pose{
		rotation:    p.rotation.MatMul(other.rotation),
		translation: p.rotation.Mul(other.translation).Add(p.translation),
	}
}

// Invert returns the inverse transform, such that p.Compose(p.Invert()) is the zero pose.
func (p *Pose) Invert() *Pose {
	rt := p.rotation.Transpose()
	return &Pose{rotation: rt, translation: rt.Mul(p.translation).Mul(-1)}
}

// PoseIsValid checks that the rotation part of a pose is orthonormal with determinant +1.
// Producers of externally supplied poses are expected to call this before handing the pose
// to the controller; an invalid rotation here is a configuration error, not a numerical one.
func PoseIsValid(p *Pose) error {
	if p == nil || p.rotation == nil {
		return errors.New("nil pose")
	}
	if dev := p.rotation.OrthonormalityError(); dev > defaultOrthonormalityEpsilon {
		return errors.Errorf("pose rotation is not orthonormal, deviation %g", dev)
	}
	return nil
}

// PoseAlmostEqual returns whether two poses are within epsilon of each other in both
// translation and rotation.
func PoseAlmostEqual(a, b *Pose, epsilon float64) bool {
	if a.translation.Sub(b.translation).Norm() > epsilon {
		return false
	}
	diff := a.rotation.Transpose().MatMul(b.rotation)
	return diff.AxisAngles().Theta <= epsilon
}

func newRotationMatrixInputError(got int) error {
	return errors.Errorf("input slice has %d elements, need exactly 9", got)
}
