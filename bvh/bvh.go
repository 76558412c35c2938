package bvh

import (
	"strings"

	"github.com/binzume/bvhplayer/geom"
	"github.com/binzume/bvhplayer/scene"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	return string("XYZ"[a])
}

type ChannelType int

const (
	Xposition ChannelType = iota
	Yposition
	Zposition
	Xrotation
	Yrotation
	Zrotation
)

var channelNames = []string{"Xposition", "Yposition", "Zposition", "Xrotation", "Yrotation", "Zrotation"}

func ParseChannelType(s string) (ChannelType, bool) {
	for i, n := range channelNames {
		if n == s {
			return ChannelType(i), true
		}
	}
	return 0, false
}

func (c ChannelType) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return "Unknown"
	}
	return channelNames[c]
}

func (c ChannelType) IsRotation() bool {
	return c >= Xrotation
}

func (c ChannelType) Axis() Axis {
	return Axis(c % 3)
}

// AxisOrder is the declared sequence of rotation axes of a joint.
type AxisOrder []Axis

// DefaultOrder is used for joints without rotation channels.
var DefaultOrder = AxisOrder{AxisZ, AxisX, AxisY}

func (o AxisOrder) String() string {
	var sb strings.Builder
	for _, a := range o {
		sb.WriteString(a.String())
	}
	return sb.String()
}

// Joint is a skeleton joint. Parent and Children are indices into
// Skeleton.Joints; the root has Parent -1.
type Joint struct {
	Name     string
	Index    int
	Node     scene.NodeID
	Parent   int
	Children []int
	Offset   geom.Vector3
	Channels []ChannelType
	Order    AxisOrder
	EndSite  bool
}

func (j *Joint) HasPosition() bool {
	for _, c := range j.Channels {
		if !c.IsRotation() {
			return true
		}
	}
	return false
}

func (j *Joint) HasRotation() bool {
	for _, c := range j.Channels {
		if c.IsRotation() {
			return true
		}
	}
	return false
}

type Skeleton struct {
	Graph *scene.Graph
	Root  *Joint
	// Joints in declaration order, End Sites included.
	Joints []*Joint
	// Animated lists the joints with channels in the order their values
	// appear in a frame.
	Animated []*Joint
}

// ChannelCount returns the number of values in a well-formed frame.
func (s *Skeleton) ChannelCount() int {
	n := 0
	for _, j := range s.Animated {
		n += len(j.Channels)
	}
	return n
}

func (s *Skeleton) Joint(name string) *Joint {
	for _, j := range s.Joints {
		if j.Name == name {
			return j
		}
	}
	return nil
}

func (s *Skeleton) ParentOf(j *Joint) *Joint {
	if j.Parent < 0 {
		return nil
	}
	return s.Joints[j.Parent]
}

// Depth returns the number of ancestors of j.
func (s *Skeleton) Depth(j *Joint) int {
	d := 0
	for p := s.ParentOf(j); p != nil; p = s.ParentOf(p) {
		d++
	}
	return d
}

type Frame []float32

type MotionClip struct {
	FrameTime float64
	Frames    []Frame
	// DeclaredFrames is the value of the "Frames:" line, or -1.
	DeclaredFrames int
}

// Duration returns len(Frames) * FrameTime in seconds.
func (m *MotionClip) Duration() float64 {
	return float64(len(m.Frames)) * m.FrameTime
}

// Slice returns a clip sharing frames [start, end). Out of range bounds are clamped.
func (m *MotionClip) Slice(start, end int) *MotionClip {
	if end < 0 || end > len(m.Frames) {
		end = len(m.Frames)
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}
	return &MotionClip{FrameTime: m.FrameTime, Frames: m.Frames[start:end], DeclaredFrames: end - start}
}

type Document struct {
	Skeleton *Skeleton
	Motion   *MotionClip
	// Warnings holds non-fatal problems found while parsing.
	Warnings []error
}

// Scale multiplies offsets and position channel values by s.
func (doc *Document) Scale(s float32) {
	for _, j := range doc.Skeleton.Joints {
		j.Offset = *j.Offset.Scale(s)
		if doc.Skeleton.Graph != nil && j.Node != scene.Nil {
			doc.Skeleton.Graph.SetPosition(j.Node, &j.Offset)
		}
	}
	if doc.Motion == nil {
		return
	}
	for _, f := range doc.Motion.Frames {
		i := 0
		for _, j := range doc.Skeleton.Animated {
			for _, c := range j.Channels {
				if i >= len(f) {
					break
				}
				if !c.IsRotation() {
					f[i] *= s
				}
				i++
			}
		}
	}
}
