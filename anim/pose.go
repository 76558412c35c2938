// Package anim drives a bvh skeleton from its motion clip.
package anim

import (
	"github.com/binzume/bvhplayer/bvh"
	"github.com/binzume/bvhplayer/geom"
	"github.com/binzume/bvhplayer/scene"
	"github.com/pkg/errors"
)

var ErrFrameDataMismatch = errors.New("anim: frame has fewer values than channels")

// Pose is the local position and rotation of a joint.
type Pose struct {
	Position geom.Vector3
	Rotation geom.Quaternion
}

var unitAxes = [3]geom.Vector3{{X: 1}, {Y: 1}, {Z: 1}}

// JointPose computes the local pose of j from its channel values.
// Position starts from the rest offset and only declared components are
// replaced. Rotations are post-multiplied in channel order.
func JointPose(j *bvh.Joint, values []float32) (*Pose, error) {
	if len(values) < len(j.Channels) {
		return nil, errors.Wrapf(ErrFrameDataMismatch, "%q needs %d values, got %d", j.Name, len(j.Channels), len(values))
	}
	pose := &Pose{Position: j.Offset}
	var rot [3]float32
	for i, c := range j.Channels {
		if c.IsRotation() {
			rot[c.Axis()] = values[i]
		} else {
			pose.Position.Set(int(c.Axis()), values[i])
		}
	}

	q := geom.IdentityQuaternion()
	for _, a := range j.Order {
		q = q.Mul(geom.NewQuaternionFromAxisAngle(&unitAxes[a], geom.DegToRad(rot[a])))
	}
	pose.Rotation = *q
	return pose, nil
}

// PoseApplier writes frames into the scene graph.
type PoseApplier struct {
	Graph  *scene.Graph
	Joints []*bvh.Joint
}

func NewPoseApplier(sk *bvh.Skeleton) *PoseApplier {
	return &PoseApplier{Graph: sk.Graph, Joints: sk.Animated}
}

// Apply sets the local transform of every joint from frame and returns the
// number of values consumed. If frame is too short, the joint that runs out
// and the joints after it keep their current transform.
func (a *PoseApplier) Apply(frame bvh.Frame) (int, error) {
	cursor := 0
	for _, j := range a.Joints {
		n := len(j.Channels)
		if cursor+n > len(frame) {
			return cursor, errors.Wrapf(ErrFrameDataMismatch, "joint %q at value %d, frame has %d", j.Name, cursor, len(frame))
		}
		pose, err := JointPose(j, frame[cursor:cursor+n])
		if err != nil {
			return cursor, err
		}
		a.Graph.SetPosition(j.Node, &pose.Position)
		a.Graph.SetRotation(j.Node, &pose.Rotation)
		cursor += n
	}
	return cursor, nil
}

// RestPose resets all joints to their offset with no rotation.
func (a *PoseApplier) RestPose() {
	for _, j := range a.Joints {
		a.Graph.SetPosition(j.Node, &j.Offset)
		a.Graph.SetRotation(j.Node, geom.IdentityQuaternion())
	}
}
