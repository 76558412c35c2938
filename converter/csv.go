package converter

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/binzume/bvhplayer/anim"
	"github.com/binzume/bvhplayer/bvh"
)

type CSVMode int

const (
	CSVHierarchy CSVMode = iota
	CSVPositions
	CSVRotations
)

func ParseCSVMode(s string) (CSVMode, error) {
	switch strings.ToLower(s) {
	case "hierarchy", "":
		return CSVHierarchy, nil
	case "pos", "positions":
		return CSVPositions, nil
	case "rot", "rotations":
		return CSVRotations, nil
	}
	return 0, fmt.Errorf("unknown csv mode: %s", s)
}

func WriteCSV(doc *bvh.Document, w io.Writer, mode CSVMode, scale float32) error {
	switch mode {
	case CSVPositions:
		return WriteJointPositions(doc, w, scale)
	case CSVRotations:
		return WriteJointRotations(doc, w)
	}
	return WriteJointHierarchy(doc.Skeleton, w, scale)
}

// WriteJointHierarchy writes one row per joint: name, parent and offset.
func WriteJointHierarchy(sk *bvh.Skeleton, ww io.Writer, scale float32) error {
	w := bufio.NewWriter(ww)
	w.WriteString("joint,parent,offset.x,offset.y,offset.z,channels\n")
	for _, j := range sk.Joints {
		parent := ""
		if p := sk.ParentOf(j); p != nil {
			parent = p.Name
		}
		var channels []string
		for _, c := range j.Channels {
			channels = append(channels, c.String())
		}
		fmt.Fprintf(w, "%s,%s,%f,%f,%f,%s\n", j.Name, parent,
			j.Offset.X*scale, j.Offset.Y*scale, j.Offset.Z*scale, strings.Join(channels, " "))
	}
	return w.Flush()
}

// WriteJointPositions writes world positions of every joint for each frame.
// The skeleton graph is left at the last frame.
func WriteJointPositions(doc *bvh.Document, ww io.Writer, scale float32) error {
	sk := doc.Skeleton
	w := bufio.NewWriter(ww)

	header := []string{"time"}
	for _, j := range sk.Joints {
		for _, axis := range []string{"x", "y", "z"} {
			header = append(header, fmt.Sprintf("%s.%s", j.Name, axis))
		}
	}
	fmt.Fprintf(w, "%s\n", strings.Join(header, ","))

	applier := anim.NewPoseApplier(sk)
	for i, frame := range doc.Motion.Frames {
		if _, err := applier.Apply(frame); err != nil {
			log.Printf("frame %d: %v\n", i, err)
		}
		fmt.Fprintf(w, "%10.5f", float64(i)*doc.Motion.FrameTime)
		for _, j := range sk.Joints {
			p := sk.Graph.WorldPosition(j.Node).Scale(scale)
			fmt.Fprintf(w, ",%10.5f,%10.5f,%10.5f", p.X, p.Y, p.Z)
		}
		fmt.Fprintf(w, "\n")
	}
	return w.Flush()
}

// WriteJointRotations writes the rotation channel values of each frame.
// Missing values are left empty.
func WriteJointRotations(doc *bvh.Document, ww io.Writer) error {
	sk := doc.Skeleton
	w := bufio.NewWriter(ww)

	header := []string{"time"}
	var columns []int
	offset := 0
	for _, j := range sk.Animated {
		for ci, c := range j.Channels {
			if c.IsRotation() {
				header = append(header, fmt.Sprintf("%s.%s", j.Name, strings.ToLower(c.String())))
				columns = append(columns, offset+ci)
			}
		}
		offset += len(j.Channels)
	}
	fmt.Fprintf(w, "%s\n", strings.Join(header, ","))

	for i, frame := range doc.Motion.Frames {
		fmt.Fprintf(w, "%10.5f", float64(i)*doc.Motion.FrameTime)
		for _, col := range columns {
			if col < len(frame) {
				fmt.Fprintf(w, ",%10.5f", frame[col])
			} else {
				fmt.Fprintf(w, ",")
			}
		}
		fmt.Fprintf(w, "\n")
	}
	return w.Flush()
}
