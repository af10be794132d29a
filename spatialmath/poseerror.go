package spatialmath

import (
	"github.com/golang/geo/r3"
)

// defaultAngleEpsilon is the angle below which a rotation is treated as the identity.
// Axis extraction from a near-identity rotation is numerically unstable, so errors
// smaller than this collapse to the zero vector instead.
const defaultAngleEpsilon = 1e-8

// PositionError returns the world-frame translational error between the target and
// current poses.
func PositionError(tgt, cur *Pose) r3.Vector {
	return tgt.Point().Sub(cur.Point())
}

// OrientationError returns the rotational error between the target and current poses as
// an R3 axis angle, theta * w, expressed in the current end-effector frame. Its magnitude
// is the angle between the two orientations, in [0, pi], and its direction is the
// instantaneous rotation axis that takes the current orientation to the target.
func OrientationError(tgt, cur *Pose) r3.Vector {
	// R_err = R_cur^T * R_tgt, the rotation from current to target in the current frame.
	rErr := cur.Orientation().Transpose().MatMul(tgt.Orientation())
	aa := rErr.AxisAngles()
	if aa.Theta < defaultAngleEpsilon {
		return r3.Vector{}
	}
	return aa.ToR3()
}

// PoseError6 returns the full 6-dimensional task-space error between two poses, ordered
// translation first and rotation second to match the Jacobian row layout (rows 0-2
// translational, rows 3-5 rotational).
func PoseError6(tgt, cur *Pose) []float64 {
	v := PositionError(tgt, cur)
	w := OrientationError(tgt, cur)
	return []float64{v.X, v.Y, v.Z, w.X, w.Y, w.Z}
}
