package geom

import "github.com/chewxy/math32"

func Abs(v Element) Element {
	return math32.Abs(v)
}

func Clamp(v, min, max Element) Element {
	return math32.Max(min, math32.Min(v, max))
}
