package anim

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/binzume/bvhplayer/bvh"
	"github.com/binzume/bvhplayer/geom"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

const eps = 0.00001

const hipsSpine = `HIERARCHY
ROOT Hips
{
	OFFSET 0 0 0
	CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
	JOINT Spine
	{
		OFFSET 0 10 0
		CHANNELS 3 Zrotation Xrotation Yrotation
		End Site
		{
			OFFSET 0 5 0
		}
	}
}
`

func loadSkeleton(t *testing.T, frames ...string) *bvh.Document {
	t.Helper()
	src := hipsSpine + fmt.Sprintf("MOTION\nFrames: %d\nFrame Time: 0.033\n", len(frames)) + strings.Join(frames, "\n") + "\n"
	doc, err := bvh.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

// axisRotation returns a unit quaternion using gonum as an independent reference.
func axisRotation(axis byte, deg float64) quat.Number {
	s, c := math.Sincos(deg * math.Pi / 360)
	switch axis {
	case 'X':
		return quat.Number{Real: c, Imag: s}
	case 'Y':
		return quat.Number{Real: c, Jmag: s}
	default:
		return quat.Number{Real: c, Kmag: s}
	}
}

func sameRotation(q geom.Quaternion, r quat.Number) bool {
	d := math.Abs(float64(q.W)*r.Real + float64(q.X)*r.Imag + float64(q.Y)*r.Jmag + float64(q.Z)*r.Kmag)
	return math.Abs(d-1) < eps
}

func TestApplyFrame(t *testing.T) {
	doc := loadSkeleton(t, "1 2 3 10 20 30 5 15 25")
	sk := doc.Skeleton
	g := sk.Graph
	a := NewPoseApplier(sk)

	n, err := a.Apply(doc.Motion.Frames[0])
	if err != nil {
		t.Fatal(err)
	}
	if n != 9 {
		t.Error("cursor must end at 9", n)
	}

	hips := g.Transform(sk.Joint("Hips").Node)
	if p := hips.Position(); p != (geom.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Error("Hips position", p)
	}
	expected := quat.Mul(quat.Mul(axisRotation('Z', 10), axisRotation('X', 20)), axisRotation('Y', 30))
	if !sameRotation(hips.Rotation(), expected) {
		t.Error("Hips rotation != Rz*Rx*Ry", hips.Rotation(), expected)
	}

	spine := g.Transform(sk.Joint("Spine").Node)
	if p := spine.Position(); p != (geom.Vector3{Y: 10}) {
		t.Error("Spine must keep the rest offset", p)
	}
	expected = quat.Mul(quat.Mul(axisRotation('Z', 5), axisRotation('X', 15)), axisRotation('Y', 25))
	if !sameRotation(spine.Rotation(), expected) {
		t.Error("Spine rotation", spine.Rotation(), expected)
	}
}

func TestCompositionOrder(t *testing.T) {
	j := &bvh.Joint{
		Name:     "j",
		Channels: []bvh.ChannelType{bvh.Zrotation, bvh.Xrotation, bvh.Yrotation},
		Order:    bvh.AxisOrder{bvh.AxisZ, bvh.AxisX, bvh.AxisY},
	}
	pose, err := JointPose(j, []float32{10, 20, 30})
	if err != nil {
		t.Fatal(err)
	}

	z, x, y := axisRotation('Z', 10), axisRotation('X', 20), axisRotation('Y', 30)
	if !sameRotation(pose.Rotation, quat.Mul(quat.Mul(z, x), y)) {
		t.Error("ZXY must be Rz*Rx*Ry")
	}
	for _, other := range []quat.Number{
		quat.Mul(quat.Mul(y, x), z),
		quat.Mul(quat.Mul(x, y), z),
		quat.Mul(quat.Mul(z, y), x),
		quat.Mul(quat.Mul(x, z), y),
		quat.Mul(quat.Mul(y, z), x),
	} {
		if sameRotation(pose.Rotation, other) {
			t.Error("matches another permutation", other)
		}
	}
	if p := pose.Position; p != (geom.Vector3{}) {
		t.Error("position", p)
	}
}

func TestPartialPositionChannels(t *testing.T) {
	j := &bvh.Joint{
		Name:     "j",
		Offset:   geom.Vector3{X: 1, Y: 2, Z: 3},
		Channels: []bvh.ChannelType{bvh.Yposition, bvh.Xrotation},
		Order:    bvh.AxisOrder{bvh.AxisX},
	}
	pose, err := JointPose(j, []float32{7, 90})
	if err != nil {
		t.Fatal(err)
	}
	if pose.Position != (geom.Vector3{X: 1, Y: 7, Z: 3}) {
		t.Error("only Y must be replaced", pose.Position)
	}
	if j.Offset.Y != 2 {
		t.Error("rest offset must not change")
	}
	if !sameRotation(pose.Rotation, axisRotation('X', 90)) {
		t.Error("rotation", pose.Rotation)
	}
}

func TestForwardKinematics(t *testing.T) {
	doc := loadSkeleton(t, "0 0 0 90 0 0 0 0 0")
	sk := doc.Skeleton
	if _, err := NewPoseApplier(sk).Apply(doc.Motion.Frames[0]); err != nil {
		t.Fatal(err)
	}
	p := sk.Graph.WorldPosition(sk.Joint("Spine_EndSite").Node)
	if p.Sub(&geom.Vector3{X: -15}).Len() > 0.0001 {
		t.Error("end site world position", p)
	}
}

func TestFrameDataMismatch(t *testing.T) {
	doc := loadSkeleton(t, "1 2 3 10 20 30 5 15 25", "4 5 6 0 0 0 1")
	sk := doc.Skeleton
	g := sk.Graph
	a := NewPoseApplier(sk)
	a.Apply(doc.Motion.Frames[0])
	spineBefore := g.Transform(sk.Joint("Spine").Node).Rotation()

	n, err := a.Apply(doc.Motion.Frames[1])
	if !errors.Is(err, ErrFrameDataMismatch) {
		t.Fatal("ErrFrameDataMismatch expected", err)
	}
	if n != 6 {
		t.Error("cursor", n)
	}
	if p := g.Transform(sk.Joint("Hips").Node).Position(); p.X != 4 {
		t.Error("Hips must be applied", p)
	}
	if r := g.Transform(sk.Joint("Spine").Node).Rotation(); r != spineBefore {
		t.Error("Spine must be untouched", r)
	}
}

func TestPlayerFrameIndex(t *testing.T) {
	var frames []string
	for i := 0; i < 10; i++ {
		frames = append(frames, fmt.Sprintf("%d 0 0 0 0 0 0 0 0", i))
	}
	doc := loadSkeleton(t, frames...)
	root := doc.Skeleton.Root.Node
	g := doc.Skeleton.Graph

	p := NewPlayer(doc.Skeleton, doc.Motion)
	p.Play()
	if err := p.Tick(0.35); err != nil {
		t.Fatal(err)
	}
	if p.CurrentFrame() != 0 {
		t.Error("floor(0.35/0.033) mod 10 must be 0", p.CurrentFrame())
	}

	p.Reset()
	p.Tick(0.1)
	if p.CurrentFrame() != 3 || g.Transform(root).Position().X != 3 {
		t.Error("frame 3", p.CurrentFrame())
	}

	// reverse playback wraps into [0, n)
	p.Reset()
	p.SetSpeed(-1)
	p.Tick(0.05)
	if p.CurrentFrame() != 8 {
		t.Error("reverse", p.CurrentFrame())
	}

	p.SetLoop(false)
	p.Tick(1)
	if p.CurrentFrame() != 0 {
		t.Error("clamp to first frame", p.CurrentFrame())
	}
	p.SetSpeed(1)
	p.Seek(100)
	p.Tick(0)
	if p.CurrentFrame() != 9 {
		t.Error("clamp to last frame", p.CurrentFrame())
	}

	p.Pause()
	time := p.Time()
	g.SetPosition(root, &geom.Vector3{})
	p.Tick(1)
	if p.Time() != time || g.Transform(root).Position().X != 9 {
		t.Error("paused player must keep time and apply the pose")
	}

	p.Reset()
	if p.Time() != 0 || p.CurrentFrame() != 0 || p.IsPlaying() || p.Loop() {
		t.Error("Reset must keep flags")
	}
}

func TestPlayerRecovers(t *testing.T) {
	doc := loadSkeleton(t, "1 0 0 0 0 0 0 0 0", "2 0 0", "3 0 0 0 0 0 0 0 0")
	p := NewPlayer(doc.Skeleton, doc.Motion)
	p.Play()

	g := doc.Skeleton.Graph
	root := doc.Skeleton.Root.Node
	g.AddComponent(root, "player", p)
	// frame 1 is short, frame 2 is valid again
	g.Update(root, 0.04)
	g.Update(root, 0.04)
	if !errors.Is(p.LastError(), ErrFrameDataMismatch) {
		t.Error("LastError", p.LastError())
	}
	if p.CurrentFrame() != 2 || g.Transform(root).Position().X != 3 {
		t.Error("playback must continue", p.CurrentFrame())
	}
}

func TestPlayerEmptyClip(t *testing.T) {
	src := hipsSpine
	doc, err := bvh.Parse(strings.NewReader(src))
	if !errors.Is(err, bvh.ErrMotionSectionMissing) {
		t.Fatal(err)
	}
	p := NewPlayer(doc.Skeleton, doc.Motion)
	p.Play()
	if err := p.Tick(1); err != nil || p.CurrentFrame() != 0 || p.FrameCount() != 0 {
		t.Error("empty clip must be a no-op", err)
	}
}
