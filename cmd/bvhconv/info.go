package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/binzume/bvhplayer/bvh"
)

func printInfo(w io.Writer, doc *bvh.Document) {
	sk := doc.Skeleton
	for _, j := range sk.Joints {
		indent := strings.Repeat("  ", sk.Depth(j))
		if j.EndSite {
			fmt.Fprintf(w, "%s%s (%v, %v, %v)\n", indent, j.Name, j.Offset.X, j.Offset.Y, j.Offset.Z)
			continue
		}
		fmt.Fprintf(w, "%s%s (%v, %v, %v) %v order:%v\n", indent, j.Name, j.Offset.X, j.Offset.Y, j.Offset.Z, j.Channels, j.Order)
	}
	fmt.Fprintf(w, "joints: %d animated: %d channels: %d\n", len(sk.Joints), len(sk.Animated), sk.ChannelCount())
	if m := doc.Motion; m != nil {
		fmt.Fprintf(w, "frames: %d frameTime: %v duration: %.3fs\n", len(m.Frames), m.FrameTime, m.Duration())
	}
	for _, err := range doc.Warnings {
		fmt.Fprintln(w, "warning:", err)
	}
}
