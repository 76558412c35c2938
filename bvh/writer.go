package bvh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// Write writes doc in bvh text format.
func Write(doc *Document, ww io.Writer) error {
	w := bufio.NewWriter(ww)
	sk := doc.Skeleton
	w.WriteString("HIERARCHY\n")
	if sk.Root != nil {
		writeJoint(w, sk, sk.Root, 0)
	}

	w.WriteString("MOTION\n")
	var frames []Frame
	frameTime := 0.033333
	if doc.Motion != nil {
		frames = doc.Motion.Frames
		if doc.Motion.FrameTime > 0 {
			frameTime = doc.Motion.FrameTime
		}
	}
	fmt.Fprintf(w, "Frames: %d\n", len(frames))
	fmt.Fprintf(w, "Frame Time: %s\n", strconv.FormatFloat(frameTime, 'f', -1, 64))
	cols := writtenColumns(sk)
	for _, f := range frames {
		if cols != nil {
			f = f.reorder(cols)
		}
		for i, v := range f {
			if i > 0 {
				w.WriteByte(' ')
			}
			w.WriteString(ftoa(v))
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

// writtenColumns maps output columns to source frame columns. The hierarchy
// is written with CHANNELS before child joints, so a joint that declared its
// channels after a nested joint moves ahead of it. Returns nil when the
// layout is unchanged.
func writtenColumns(sk *Skeleton) []int {
	offsets := map[*Joint]int{}
	n := 0
	for _, j := range sk.Animated {
		offsets[j] = n
		n += len(j.Channels)
	}
	var cols []int
	var walk func(j *Joint)
	walk = func(j *Joint) {
		if o, ok := offsets[j]; ok {
			for i := range j.Channels {
				cols = append(cols, o+i)
			}
		}
		for _, c := range j.Children {
			walk(sk.Joints[c])
		}
	}
	if sk.Root != nil {
		walk(sk.Root)
	}
	for i, c := range cols {
		if i != c {
			return cols
		}
	}
	return nil
}

// reorder picks the columns of f in cols order. Columns past the end of a
// short frame are dropped and extra trailing values are kept.
func (f Frame) reorder(cols []int) Frame {
	out := make(Frame, 0, len(f))
	for _, c := range cols {
		if c < len(f) {
			out = append(out, f[c])
		}
	}
	if len(f) > len(cols) {
		out = append(out, f[len(cols):]...)
	}
	return out
}

func writeJoint(w *bufio.Writer, sk *Skeleton, j *Joint, depth int) {
	indent := strings.Repeat("\t", depth)
	switch {
	case j.EndSite:
		fmt.Fprintf(w, "%sEnd Site\n", indent)
	case j.Parent < 0:
		fmt.Fprintf(w, "%sROOT %s\n", indent, j.Name)
	default:
		fmt.Fprintf(w, "%sJOINT %s\n", indent, j.Name)
	}
	fmt.Fprintf(w, "%s{\n", indent)
	fmt.Fprintf(w, "%s\tOFFSET %s %s %s\n", indent, ftoa(j.Offset.X), ftoa(j.Offset.Y), ftoa(j.Offset.Z))
	if !j.EndSite {
		fmt.Fprintf(w, "%s\tCHANNELS %d", indent, len(j.Channels))
		for _, c := range j.Channels {
			fmt.Fprintf(w, " %v", c)
		}
		w.WriteString("\n")
	}
	for _, c := range j.Children {
		writeJoint(w, sk, sk.Joints[c], depth+1)
	}
	fmt.Fprintf(w, "%s}\n", indent)
}

// Save writes doc to path.
func Save(doc *Document, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return Write(doc, w)
}
