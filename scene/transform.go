package scene

import (
	"github.com/binzume/bvhplayer/geom"
)

// Transform is a local TRS transform with a lazily rebuilt matrix.
// The cached matrix is valid only while dirty is false.
type Transform struct {
	position geom.Vector3
	rotation geom.Quaternion
	scale    geom.Vector3

	local   geom.Matrix4
	dirty   bool
	rebuilt int
}

func NewTransform() *Transform {
	tr := &Transform{}
	tr.Reset()
	return tr
}

// Reset sets position 0, rotation identity and scale 1.
func (tr *Transform) Reset() {
	tr.position = geom.Vector3{}
	tr.rotation = geom.Quaternion{W: 1}
	tr.scale = geom.Vector3{X: 1, Y: 1, Z: 1}
	tr.dirty = true
}

func (tr Transform) Position() geom.Vector3 {
	return tr.position
}

func (tr Transform) Rotation() geom.Quaternion {
	return tr.rotation
}

func (tr Transform) Scale() geom.Vector3 {
	return tr.scale
}

func (tr Transform) Dirty() bool {
	return tr.dirty
}

func (tr *Transform) SetPosition(v *geom.Vector3) {
	tr.position = *v
	tr.dirty = true
}

// SetRotation stores q as is. Callers pass unit quaternions.
func (tr *Transform) SetRotation(q *geom.Quaternion) {
	tr.rotation = *q
	tr.dirty = true
}

// SetRotationEuler sets the rotation from angles in degrees using the
// intrinsic XYZ convention, i.e. Rx(x) * Ry(y) * Rz(z).
func (tr *Transform) SetRotationEuler(x, y, z float32) {
	e := geom.NewEuler(geom.DegToRad(x), geom.DegToRad(y), geom.DegToRad(z), geom.RotationOrderXYZ)
	tr.SetRotation(e.ToQuaternion())
}

func (tr *Transform) SetScale(v *geom.Vector3) {
	tr.scale = *v
	tr.dirty = true
}

// Translate moves the position by d in parent space.
func (tr *Transform) Translate(d *geom.Vector3) {
	tr.position = *tr.position.Add(d)
	tr.dirty = true
}

// Rotate post-multiplies q, i.e. rotates in local space.
func (tr *Transform) Rotate(q *geom.Quaternion) {
	tr.rotation = *tr.rotation.Mul(q).Normalize()
	tr.dirty = true
}

// LocalMatrix returns Translate * Rotate * Scale, rebuilding it if dirty.
func (tr *Transform) LocalMatrix() *geom.Matrix4 {
	if tr.dirty {
		tr.local = *geom.NewTRSMatrix4(&tr.position, &tr.rotation, &tr.scale)
		tr.dirty = false
		tr.rebuilt++
	}
	m := tr.local
	return &m
}
