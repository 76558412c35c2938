package converter

import (
	"fmt"
	"log"

	"github.com/binzume/bvhplayer/anim"
	"github.com/binzume/bvhplayer/bvh"
	"github.com/binzume/bvhplayer/geom"
	"github.com/binzume/bvhplayer/gltfutil"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type BVHToGLTFOption struct {
	// Scale for offsets and position channels. default: 0.01 (cm to m)
	Scale         float32
	AnimationName string
	NoSkin        bool
}

type bvhToGltf struct {
	*BVHToGLTFOption
	*gltf.Document
}

func NewBVHToGLTFConverter(options *BVHToGLTFOption) *bvhToGltf {
	if options == nil {
		options = &BVHToGLTFOption{}
	}
	if options.Scale == 0 {
		options.Scale = 0.01
	}
	if options.AnimationName == "" {
		options.AnimationName = "motion"
	}
	return &bvhToGltf{
		BVHToGLTFOption: options,
		Document:        gltf.NewDocument(),
	}
}

func (c *bvhToGltf) addMatrices(mat []*geom.Matrix4) uint32 {
	a := make([][4]float32, len(mat)*4)
	for i, m := range mat {
		a[i*4+0] = [4]float32{m[0], m[1], m[2], m[3]}
		a[i*4+1] = [4]float32{m[4], m[5], m[6], m[7]}
		a[i*4+2] = [4]float32{m[8], m[9], m[10], m[11]}
		a[i*4+3] = [4]float32{m[12], m[13], m[14], m[15]}
	}
	acc := modeler.WriteTangent(c.Document, a)
	c.Accessors[acc].Type = gltf.AccessorMat4
	c.Accessors[acc].Count /= 4
	c.BufferViews[*c.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

// addJointNodes adds a node per joint. Node index is Joint.Index.
func (c *bvhToGltf) addJointNodes(sk *bvh.Skeleton) {
	for _, j := range sk.Joints {
		c.Nodes = append(c.Nodes, &gltf.Node{Name: j.Name, Translation: j.Offset.Array(), Rotation: [4]float32{0, 0, 0, 1}})
	}
	for _, j := range sk.Joints {
		for _, ch := range j.Children {
			c.Nodes[j.Index].Children = append(c.Nodes[j.Index].Children, uint32(ch))
		}
	}
	c.Scenes[0].Nodes = append(c.Scenes[0].Nodes, uint32(sk.Root.Index))
}

func (c *bvhToGltf) addSkin(sk *bvh.Skeleton) {
	rest := make([]*geom.Matrix4, len(sk.Joints))
	var joints []uint32
	var inverseBind []*geom.Matrix4
	for _, j := range sk.Joints {
		m := geom.NewTranslateMatrix4(j.Offset.X, j.Offset.Y, j.Offset.Z)
		if j.Parent >= 0 {
			m = rest[j.Parent].Mul(m)
		}
		rest[j.Index] = m
		joints = append(joints, uint32(j.Index))
		inverseBind = append(inverseBind, m.Inverse())
	}
	c.Skins = append(c.Skins, &gltf.Skin{
		Name:                "skeleton",
		Skeleton:            gltf.Index(uint32(sk.Root.Index)),
		Joints:              joints,
		InverseBindMatrices: gltf.Index(c.addMatrices(inverseBind)),
	})
}

func (c *bvhToGltf) addAnimation(sk *bvh.Skeleton, clip *bvh.MotionClip) {
	if clip == nil || len(clip.Frames) == 0 || len(sk.Animated) == 0 {
		return
	}

	keys := make([]float32, len(clip.Frames))
	for i := range keys {
		keys[i] = float32(float64(i) * clip.FrameTime)
	}
	keysAcc := modeler.WriteAccessor(c.Document, gltf.TargetArrayBuffer, keys)

	translations := make([][][3]float32, len(sk.Animated))
	rotations := make([][][4]float32, len(sk.Animated))
	poses := make([]*anim.Pose, len(sk.Animated))
	for i, j := range sk.Animated {
		poses[i] = &anim.Pose{Position: j.Offset, Rotation: *geom.IdentityQuaternion()}
	}

	for fi, frame := range clip.Frames {
		cursor := 0
		for i, j := range sk.Animated {
			n := len(j.Channels)
			if cursor+n <= len(frame) {
				pose, err := anim.JointPose(j, frame[cursor:cursor+n])
				if err == nil {
					poses[i] = pose
				}
			} else if cursor <= len(frame) {
				log.Printf("frame %d: %d values, %d expected. hold previous pose\n", fi, len(frame), sk.ChannelCount())
			}
			cursor += n
			translations[i] = append(translations[i], poses[i].Position.Array())
			rotations[i] = append(rotations[i], poses[i].Rotation.Array())
		}
	}

	a := &gltf.Animation{Name: c.AnimationName}
	for i, j := range sk.Animated {
		if j.HasRotation() {
			samplesAcc := modeler.WriteTangent(c.Document, rotations[i])
			a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
				Input:         gltf.Index(keysAcc),
				Output:        gltf.Index(samplesAcc),
				Interpolation: gltf.InterpolationLinear,
			})
			a.Channels = append(a.Channels, &gltf.Channel{
				Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
				Target: gltf.ChannelTarget{
					Node: gltf.Index(uint32(j.Index)),
					Path: gltf.TRSRotation,
				},
			})
		}
		if j.HasPosition() {
			samplesAcc := modeler.WritePosition(c.Document, translations[i])
			a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
				Input:         gltf.Index(keysAcc),
				Output:        gltf.Index(samplesAcc),
				Interpolation: gltf.InterpolationLinear,
			})
			a.Channels = append(a.Channels, &gltf.Channel{
				Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
				Target: gltf.ChannelTarget{
					Node: gltf.Index(uint32(j.Index)),
					Path: gltf.TRSTranslation,
				},
			})
		}
	}
	c.Animations = append(c.Animations, a)
}

// Convert returns a glTF document with one node per joint and one animation.
// The skeleton is built in file units and scaled at the end.
func (c *bvhToGltf) Convert(doc *bvh.Document) (*gltf.Document, error) {
	sk := doc.Skeleton
	if sk == nil || sk.Root == nil {
		return nil, fmt.Errorf("no skeleton")
	}
	c.addJointNodes(sk)
	if !c.NoSkin {
		c.addSkin(sk)
	}
	c.addAnimation(sk, doc.Motion)
	if err := gltfutil.ScaleSkeleton(c.Document, c.Scale); err != nil {
		return nil, err
	}
	return c.Document, nil
}
