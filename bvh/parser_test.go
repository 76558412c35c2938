package bvh

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

const testBVH = `HIERARCHY
ROOT Hips
{
	OFFSET 0.0 0.0 0.0
	CHANNELS 6 Xposition Yposition Zposition Zrotation Xrotation Yrotation
	JOINT Spine
	{
		OFFSET 0.0 10.0 0.0
		CHANNELS 3 Zrotation Xrotation Yrotation
		End Site
		{
			OFFSET 0.0 5.0 0.0
		}
	}
	JOINT LeftLeg
	{
		OFFSET 3.0 -2.0 0.0
		CHANNELS 3 Xrotation Yrotation Zrotation
		End Site
		{
			OFFSET 0.0 -8.0 0.0
		}
	}
}
MOTION
Frames: 2
Frame Time: 0.033333
1 2 3 10 20 30 5 15 25 0 0 0
4 5 6 0 0 0 0 0 0 1 2 3
`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(testBVH))
	if err != nil {
		t.Fatal(err)
	}
	sk := doc.Skeleton

	var names []string
	for _, j := range sk.Joints {
		names = append(names, j.Name)
	}
	expected := []string{"Hips", "Spine", "Spine_EndSite", "LeftLeg", "LeftLeg_EndSite"}
	if diff := pretty.Diff(names, expected); len(diff) > 0 {
		t.Error("joints", diff)
	}

	var animated []string
	for _, j := range sk.Animated {
		animated = append(animated, j.Name)
	}
	if diff := pretty.Diff(animated, []string{"Hips", "Spine", "LeftLeg"}); len(diff) > 0 {
		t.Error("animated", diff)
	}

	if sk.ChannelCount() != 12 {
		t.Error("ChannelCount", sk.ChannelCount())
	}
	for i, f := range doc.Motion.Frames {
		if len(f) != sk.ChannelCount() {
			t.Error("frame length", i, len(f))
		}
	}
	if len(doc.Motion.Frames) != 2 || doc.Motion.DeclaredFrames != 2 || doc.Motion.FrameTime != 0.033333 {
		t.Error("motion", doc.Motion)
	}
	if len(doc.Warnings) != 0 {
		t.Error("warnings", doc.Warnings)
	}

	hips := sk.Joint("Hips")
	if sk.Root != hips || hips.Parent != -1 || hips.Order.String() != "ZXY" || !hips.HasPosition() {
		t.Error("root", hips)
	}
	if leg := sk.Joint("LeftLeg"); leg.Order.String() != "XYZ" || leg.HasPosition() || !leg.HasRotation() {
		t.Error("LeftLeg order", leg.Order)
	}
	end := sk.Joint("Spine_EndSite")
	if !end.EndSite || len(end.Channels) != 0 || end.Order.String() != "ZXY" || sk.Depth(end) != 2 {
		t.Error("end site", end)
	}

	g := sk.Graph
	spine := sk.Joint("Spine")
	if g.Parent(spine.Node) != hips.Node || g.Name(spine.Node) != "Spine" {
		t.Error("graph parent")
	}
	if pos := g.Transform(spine.Node).Position(); pos != spine.Offset || pos.Y != 10 {
		t.Error("initial position", pos)
	}
	if p := g.WorldPosition(end.Node); p.Y != 15 {
		t.Error("rest world position", p)
	}
}

func TestParseBraceOnHeader(t *testing.T) {
	src := "HIERARCHY\nROOT Hips {\nOFFSET 1 2 3\nCHANNELS 3 Zrotation Yrotation Xrotation\nEnd Site {\nOFFSET 0 1 0\n}\n}\nMOTION\nFrame Time: 0.1\n0 0 0\n"
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Skeleton.Joints) != 2 || doc.Skeleton.Root.Order.String() != "ZYX" {
		t.Error("joints", doc.Skeleton.Joints)
	}
	if doc.Motion.DeclaredFrames != -1 || len(doc.Motion.Frames) != 1 {
		t.Error("motion without Frames line", doc.Motion)
	}
}

func TestParseErrors(t *testing.T) {
	for _, c := range []struct {
		name string
		src  string
		line int
	}{
		{"no hierarchy", "ROOT Hips\n{\n}\n", 1},
		{"no root", "HIERARCHY\nJOINT Hips\n{\n}\n", 2},
		{"missing brace", "HIERARCHY\nROOT Hips\nOFFSET 0 0 0\n}\n", 3},
		{"eof in joint", "HIERARCHY\nROOT Hips\n{\nOFFSET 0 0 0\n", 4},
		{"eof after header", "HIERARCHY\nROOT Hips\n", 2},
		{"bad offset", "HIERARCHY\nROOT Hips\n{\nOFFSET 0 x 0\n}\n", 4},
		{"short offset", "HIERARCHY\nROOT Hips\n{\nOFFSET 0 0\n}\n", 4},
		{"bad channel", "HIERARCHY\nROOT Hips\n{\nCHANNELS 1 Wrotation\n}\n", 4},
		{"channel count", "HIERARCHY\nROOT Hips\n{\nCHANNELS 2 Xrotation\n}\n", 4},
		{"motion in joint", "HIERARCHY\nROOT Hips\n{\nMOTION\n}\n", 4},
		{"zero frame time", "HIERARCHY\nROOT Hips\n{\n}\nMOTION\nFrames: 1\nFrame Time: 0\n0\n", 7},
		{"nan frame time", "HIERARCHY\nROOT Hips\n{\n}\nMOTION\nFrames: 1\nFrame Time: NaN\n0\n", 7},
		{"inf frame time", "HIERARCHY\nROOT Hips\n{\n}\nMOTION\nFrame Time: +Inf\n0\n", 6},
		{"no frame time", "HIERARCHY\nROOT Hips\n{\n}\nMOTION\nFrames: 1\n0 0\n", 7},
		{"bad value", "HIERARCHY\nROOT Hips\n{\n}\nMOTION\nFrame Time: 0.1\n0 a\n", 7},
	} {
		_, err := Parse(strings.NewReader(c.src))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Error(c.name, "ParseError expected", err)
			continue
		}
		if perr.Line != c.line {
			t.Error(c.name, "line", perr.Line, "expected", c.line, perr)
		}
	}
}

func TestMotionSectionMissing(t *testing.T) {
	src := testBVH[:strings.Index(testBVH, "MOTION")]
	doc, err := Parse(strings.NewReader(src))
	if !errors.Is(err, ErrMotionSectionMissing) {
		t.Fatal("ErrMotionSectionMissing expected", err)
	}
	if doc == nil || doc.Skeleton.Root.Name != "Hips" {
		t.Fatal("hierarchy must be returned")
	}
	if len(doc.Motion.Frames) != 0 || doc.Motion.Duration() != 0 {
		t.Error("motion must be empty", doc.Motion)
	}
}

func TestDegenerateChannelOrder(t *testing.T) {
	src := "HIERARCHY\nROOT Hips\n{\nCHANNELS 3 Xposition Yposition Zposition\n}\nMOTION\nFrames: 3\nFrame Time: 0.1\n1 2 3\n"
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Skeleton.Root.Order.String() != "ZXY" {
		t.Error("fallback order", doc.Skeleton.Root.Order)
	}
	if len(doc.Warnings) != 2 ||
		!errors.Is(doc.Warnings[0], ErrDegenerateChannelOrder) ||
		!errors.Is(doc.Warnings[1], ErrFrameCountMismatch) {
		t.Error("warnings", doc.Warnings)
	}
}

func TestInvalidFrameCount(t *testing.T) {
	src := "HIERARCHY\nROOT Hips\n{\nCHANNELS 1 Zrotation\n}\nMOTION\nFrames: many\nFrame Time: 0.1\n1\n2\n"
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Motion.DeclaredFrames != -1 || len(doc.Motion.Frames) != 2 {
		t.Error("motion", doc.Motion.DeclaredFrames, len(doc.Motion.Frames))
	}
	if len(doc.Warnings) != 1 || !errors.Is(doc.Warnings[0], ErrFrameCountMismatch) {
		t.Error("warnings", doc.Warnings)
	}
}

func TestParseEncodings(t *testing.T) {
	src := strings.Replace(testBVH, "Spine", "背骨", -1)

	sjis, err := japanese.ShiftJIS.NewEncoder().String(src)
	if err != nil {
		t.Fatal(err)
	}
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(src)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []string{src, "\xef\xbb\xbf" + src, sjis, utf16} {
		doc, err := Parse(strings.NewReader(s))
		if err != nil {
			t.Error(err)
			continue
		}
		if doc.Skeleton.Joint("背骨") == nil || doc.Skeleton.Joint("背骨_EndSite") == nil {
			t.Error("joint name not decoded")
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	doc, err := Parse(strings.NewReader(testBVH))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		t.Fatal(err)
	}
	doc2, err := Parse(&buf)
	if err != nil {
		t.Fatal(err, buf.String())
	}

	if diff := pretty.Diff(doc.Skeleton.Joints, doc2.Skeleton.Joints); len(diff) > 0 {
		t.Error("joints differ", diff)
	}
	if diff := pretty.Diff(doc.Motion, doc2.Motion); len(diff) > 0 {
		t.Error("motion differs", diff)
	}
}

func jointValues(doc *Document, name string) [][]float32 {
	var values [][]float32
	offset := 0
	for _, j := range doc.Skeleton.Animated {
		if j.Name == name {
			for _, f := range doc.Motion.Frames {
				values = append(values, f[offset:offset+len(j.Channels)])
			}
		}
		offset += len(j.Channels)
	}
	return values
}

func TestWriteChannelsAfterChild(t *testing.T) {
	src := `HIERARCHY
ROOT Hips
{
	OFFSET 0 0 0
	JOINT Spine
	{
		OFFSET 0 1 0
		CHANNELS 1 Zrotation
		End Site
		{
			OFFSET 0 1 0
		}
	}
	CHANNELS 2 Xposition Xrotation
}
MOTION
Frames: 2
Frame Time: 0.1
1 2 3
4 5 6
`
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		t.Fatal(err)
	}
	doc2, err := Parse(&buf)
	if err != nil {
		t.Fatal(err, buf.String())
	}
	if doc2.Skeleton.Animated[0].Name != "Hips" {
		t.Error("written order", doc2.Skeleton.Animated[0].Name)
	}
	if f := doc2.Motion.Frames[0]; len(f) != 3 || f[0] != 2 || f[1] != 3 || f[2] != 1 {
		t.Error("frame", f)
	}
	for _, name := range []string{"Hips", "Spine"} {
		if diff := pretty.Diff(jointValues(doc, name), jointValues(doc2, name)); len(diff) > 0 {
			t.Error(name, diff)
		}
	}
}

func TestLoad(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.bvh"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Error("ErrFileNotFound expected", err)
	}

	doc, _ := Parse(strings.NewReader(testBVH))
	path := filepath.Join(t.TempDir(), "test.bvh")
	if err := Save(doc, path); err != nil {
		t.Fatal(err)
	}
	doc2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc2.Skeleton.ChannelCount() != 12 {
		t.Error("ChannelCount", doc2.Skeleton.ChannelCount())
	}
}

func TestScaleAndSlice(t *testing.T) {
	doc, err := Parse(strings.NewReader(testBVH))
	if err != nil {
		t.Fatal(err)
	}
	doc.Scale(0.5)
	if y := doc.Skeleton.Joint("Spine").Offset.Y; y != 5 {
		t.Error("offset", y)
	}
	if pos := doc.Skeleton.Graph.Transform(doc.Skeleton.Joint("Spine").Node).Position(); pos.Y != 5 {
		t.Error("node position", pos)
	}
	f := doc.Motion.Frames[0]
	if f[0] != 0.5 || f[2] != 1.5 || f[3] != 10 {
		t.Error("frame", f)
	}

	clip := doc.Motion.Slice(1, 10)
	if len(clip.Frames) != 1 || clip.Frames[0][0] != 2 || clip.FrameTime != doc.Motion.FrameTime {
		t.Error("slice", clip)
	}
	if len(doc.Motion.Slice(2, 1).Frames) != 0 {
		t.Error("empty slice")
	}
}
