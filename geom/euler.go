package geom

import "github.com/chewxy/math32"

type RotationOrder int

// Orders name the intrinsic axis sequence: RotationOrderXYZ is Rx * Ry * Rz.
const (
	RotationOrderXYZ RotationOrder = iota
	RotationOrderYXZ
	RotationOrderZXY
	RotationOrderZYX
)

func (o RotationOrder) String() string {
	switch o {
	case RotationOrderXYZ:
		return "XYZ"
	case RotationOrderYXZ:
		return "YXZ"
	case RotationOrderZXY:
		return "ZXY"
	case RotationOrderZYX:
		return "ZYX"
	}
	return "?"
}

type EulerAngles struct {
	Vector3
	Order RotationOrder
}

func DegToRad(deg Element) Element {
	return deg * math32.Pi / 180
}

func RadToDeg(rad Element) Element {
	return rad * 180 / math32.Pi
}

func NewEuler(x, y, z float32, order RotationOrder) *EulerAngles {
	return &EulerAngles{Vector3: Vector3{x, y, z}, Order: order}
}

func NewEulerFromQuaternion(q *Quaternion, order RotationOrder) *EulerAngles {
	return NewEulerFromMatrix4(NewRotationMatrix4FromQuaternion(q), order)
}

func NewEulerFromMatrix4(mat *Matrix4, order RotationOrder) *EulerAngles {
	const eps = 0.0000001
	m11, m21, m31 := mat[0], mat[1], mat[2]
	m12, m22, m32 := mat[4], mat[5], mat[6]
	m13, m23, m33 := mat[8], mat[9], mat[10]
	clamp := func(v Element) Element { return math32.Max(-1, math32.Min(v, 1)) }

	ret := &EulerAngles{Order: order}
	switch order {
	case RotationOrderXYZ:
		ret.Y = math32.Asin(clamp(m13))
		if math32.Abs(m13) < 1-eps {
			ret.X = math32.Atan2(-m23, m33)
			ret.Z = math32.Atan2(-m12, m11)
		} else {
			ret.X = math32.Atan2(m32, m22)
		}
	case RotationOrderYXZ:
		ret.X = math32.Asin(-clamp(m23))
		if math32.Abs(m23) < 1-eps {
			ret.Y = math32.Atan2(m13, m33)
			ret.Z = math32.Atan2(m21, m22)
		} else {
			ret.Y = math32.Atan2(-m31, m11)
		}
	case RotationOrderZXY:
		ret.X = math32.Asin(clamp(m32))
		if math32.Abs(m32) < 1-eps {
			ret.Y = math32.Atan2(-m31, m33)
			ret.Z = math32.Atan2(-m12, m22)
		} else {
			ret.Z = math32.Atan2(m21, m11)
		}
	case RotationOrderZYX:
		ret.Y = math32.Asin(-clamp(m31))
		if math32.Abs(m31) < 1-eps {
			ret.X = math32.Atan2(m32, m33)
			ret.Z = math32.Atan2(m21, m11)
		} else {
			ret.Z = math32.Atan2(-m12, m22)
		}
	}
	return ret
}

// ToQuaternion converts angles in radians.
func (v *EulerAngles) ToQuaternion() *Quaternion {
	sx, cx := math32.Sincos(v.X / 2)
	sy, cy := math32.Sincos(v.Y / 2)
	sz, cz := math32.Sincos(v.Z / 2)

	switch v.Order {
	case RotationOrderXYZ:
		return &Vector4{
			X: sx*cy*cz + cx*sy*sz,
			Y: cx*sy*cz - sx*cy*sz,
			Z: cx*cy*sz + sx*sy*cz,
			W: cx*cy*cz - sx*sy*sz}
	case RotationOrderYXZ:
		return &Vector4{
			X: sx*cy*cz + cx*sy*sz,
			Y: cx*sy*cz - sx*cy*sz,
			Z: cx*cy*sz - sx*sy*cz,
			W: cx*cy*cz + sx*sy*sz}
	case RotationOrderZXY:
		return &Vector4{
			X: sx*cy*cz - cx*sy*sz,
			Y: cx*sy*cz + sx*cy*sz,
			Z: cx*cy*sz + sx*sy*cz,
			W: cx*cy*cz - sx*sy*sz}
	case RotationOrderZYX:
		return &Vector4{
			X: sx*cy*cz - cx*sy*sz,
			Y: cx*sy*cz + sx*cy*sz,
			Z: cx*cy*sz - sx*sy*cz,
			W: cx*cy*cz + sx*sy*sz}
	default:
		return &Quaternion{0, 0, 0, 1}
	}
}
