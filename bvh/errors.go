package bvh

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrFileNotFound           = errors.New("bvh: file not found")
	ErrMotionSectionMissing   = errors.New("bvh: MOTION section not found")
	ErrDegenerateChannelOrder = errors.New("bvh: joint has no rotation channels")
	ErrFrameCountMismatch     = errors.New("bvh: frame count mismatch")
)

// ParseError is a fatal syntax error in the hierarchy or motion header.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("bvh: line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("bvh: %s:%d: %s", e.Path, e.Line, e.Msg)
}
