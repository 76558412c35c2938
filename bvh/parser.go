package bvh

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/binzume/bvhplayer/geom"
	"github.com/binzume/bvhplayer/scene"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type line struct {
	no     int
	text   string
	fields []string
}

// tokenStream is a cursor over the non-empty trimmed lines of a file.
type tokenStream struct {
	lines []line
	pos   int
}

func newTokenStream(src string) *tokenStream {
	ts := &tokenStream{}
	for i, l := range strings.Split(src, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		ts.lines = append(ts.lines, line{no: i + 1, text: l, fields: strings.Fields(l)})
	}
	return ts
}

func (ts *tokenStream) peek() *line {
	if ts.pos >= len(ts.lines) {
		return nil
	}
	return &ts.lines[ts.pos]
}

func (ts *tokenStream) next() *line {
	l := ts.peek()
	if l != nil {
		ts.pos++
	}
	return l
}

// lineNo returns the number of l, or of the last line at end of input.
func (ts *tokenStream) lineNo(l *line) int {
	if l != nil {
		return l.no
	}
	return ts.lastLine()
}

func (ts *tokenStream) lastLine() int {
	if len(ts.lines) == 0 {
		return 0
	}
	return ts.lines[len(ts.lines)-1].no
}

// Parser for bvh file.
type Parser struct {
	name string
	r    io.Reader

	// Graph receives one node per joint. A new graph is created if nil.
	Graph *scene.Graph
	// MarkerRadius > 0 attaches scene.Marker and scene.Link components.
	MarkerRadius float32

	warnings []error
}

// NewParser returns new parser.
func NewParser(r io.Reader, path string) *Parser {
	return &Parser{name: path, r: r}
}

func (p *Parser) errorf(line int, format string, args ...interface{}) error {
	return &ParseError{Path: p.name, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) warn(err error) {
	log.Println("WARN:", err)
	p.warnings = append(p.warnings, err)
}

// readText decodes UTF-8 or UTF-16 with BOM. Other input that is not valid
// UTF-8 is read as Shift_JIS.
func (p *Parser) readText() (string, error) {
	raw, err := io.ReadAll(p.r)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(transform.Nop)))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		log.Println("not utf8. decode as Shift_JIS:", p.name)
		data, err = japanese.ShiftJIS.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
	}
	return string(data), nil
}

// Parse reads the hierarchy and the motion. If the MOTION section is missing
// the returned document has an empty clip and the error wraps
// ErrMotionSectionMissing.
func (p *Parser) Parse() (*Document, error) {
	src, err := p.readText()
	if err != nil {
		return nil, err
	}
	if p.Graph == nil {
		p.Graph = scene.NewGraph()
	}
	p.warnings = nil
	ts := newTokenStream(src)

	if l := ts.next(); l == nil || l.fields[0] != "HIERARCHY" {
		return nil, p.errorf(ts.lineNo(l), "HIERARCHY expected")
	}
	if l := ts.peek(); l == nil || l.fields[0] != "ROOT" {
		return nil, p.errorf(ts.lineNo(l), "ROOT expected")
	}

	sk := &Skeleton{Graph: p.Graph}
	root, err := p.parseJoint(ts, sk, -1)
	if err != nil {
		return nil, err
	}
	sk.Root = root
	doc := &Document{Skeleton: sk}

	for l := ts.next(); ; l = ts.next() {
		if l == nil {
			doc.Motion = &MotionClip{DeclaredFrames: -1}
			doc.Warnings = p.warnings
			return doc, errors.Wrapf(ErrMotionSectionMissing, "%s", p.name)
		}
		if l.text == "MOTION" {
			break
		}
		log.Printf("  skip line %d: %s\n", l.no, l.text)
	}

	doc.Motion, err = p.parseMotion(ts)
	if err != nil {
		return nil, err
	}
	doc.Warnings = p.warnings
	return doc, nil
}

func (p *Parser) parseJoint(ts *tokenStream, sk *Skeleton, parent int) (*Joint, error) {
	hdr := ts.next()
	fields := hdr.fields
	open := false
	if len(fields) > 1 && fields[len(fields)-1] == "{" {
		fields = fields[:len(fields)-1]
		open = true
	}

	j := &Joint{Index: len(sk.Joints), Parent: parent}
	switch fields[0] {
	case "ROOT", "JOINT":
		if len(fields) < 2 {
			return nil, p.errorf(hdr.no, "joint name expected")
		}
		j.Name = strings.Join(fields[1:], " ")
	case "End":
		if len(fields) != 2 || fields[1] != "Site" || parent < 0 {
			return nil, p.errorf(hdr.no, "invalid End Site")
		}
		j.Name = sk.Joints[parent].Name + "_EndSite"
		j.EndSite = true
	default:
		return nil, p.errorf(hdr.no, "unexpected %q", fields[0])
	}

	g := sk.Graph
	sk.Joints = append(sk.Joints, j)
	j.Node = g.NewNode(j.Name)
	if parent >= 0 {
		pj := sk.Joints[parent]
		pj.Children = append(pj.Children, j.Index)
		if err := g.AddChild(pj.Node, j.Node); err != nil {
			return nil, err
		}
		if p.MarkerRadius > 0 {
			g.AddComponent(pj.Node, "link:"+j.Name, &scene.Link{To: j.Node})
		}
	}
	if p.MarkerRadius > 0 && !j.EndSite {
		g.AddComponent(j.Node, "marker", &scene.Marker{Radius: p.MarkerRadius})
	}

	if !open {
		l := ts.next()
		if l == nil {
			return nil, p.errorf(ts.lastLine(), "unexpected end of file, '{' expected after %q", hdr.text)
		}
		if l.text != "{" {
			return nil, p.errorf(l.no, "'{' expected after %q", hdr.text)
		}
	}

	for {
		l := ts.peek()
		if l == nil {
			return nil, p.errorf(ts.lastLine(), "unexpected end of file in %q", j.Name)
		}
		switch l.fields[0] {
		case "OFFSET":
			ts.next()
			v, err := p.parseVector(l)
			if err != nil {
				return nil, err
			}
			j.Offset = *v
			g.SetPosition(j.Node, v)
		case "CHANNELS":
			ts.next()
			if err := p.parseChannels(l, j); err != nil {
				return nil, err
			}
			if len(j.Channels) > 0 {
				// Slot in frame layout is the declaration order.
				sk.Animated = append(sk.Animated, j)
			}
		case "JOINT", "End":
			if _, err := p.parseJoint(ts, sk, j.Index); err != nil {
				return nil, err
			}
		case "}":
			ts.next()
			if j.Order == nil {
				j.Order = append(AxisOrder(nil), DefaultOrder...)
			}
			return j, nil
		case "ROOT", "MOTION", "HIERARCHY":
			return nil, p.errorf(l.no, "unexpected %q in %q", l.fields[0], j.Name)
		default:
			log.Printf("  skip %s %s\n", j.Name, l.text)
			ts.next()
		}
	}
}

func (p *Parser) parseVector(l *line) (*geom.Vector3, error) {
	if len(l.fields) != 4 {
		return nil, p.errorf(l.no, "OFFSET needs 3 values")
	}
	var v [3]float32
	for i := range v {
		f, err := strconv.ParseFloat(l.fields[i+1], 32)
		if err != nil {
			return nil, p.errorf(l.no, "invalid number %q", l.fields[i+1])
		}
		v[i] = float32(f)
	}
	return geom.NewVector3FromArray(v), nil
}

func (p *Parser) parseChannels(l *line, j *Joint) error {
	if j.Channels != nil {
		return p.errorf(l.no, "duplicate CHANNELS in %q", j.Name)
	}
	if len(l.fields) < 2 {
		return p.errorf(l.no, "channel count expected")
	}
	n, err := strconv.Atoi(l.fields[1])
	if err != nil || n < 0 {
		return p.errorf(l.no, "invalid channel count %q", l.fields[1])
	}
	if len(l.fields)-2 != n {
		return p.errorf(l.no, "CHANNELS declares %d channels, got %d", n, len(l.fields)-2)
	}

	j.Channels = make([]ChannelType, 0, n)
	for _, name := range l.fields[2:] {
		c, ok := ParseChannelType(name)
		if !ok {
			return p.errorf(l.no, "unknown channel %q", name)
		}
		j.Channels = append(j.Channels, c)
		if c.IsRotation() {
			j.Order = append(j.Order, c.Axis())
		}
	}
	if n > 0 && j.Order == nil {
		j.Order = append(AxisOrder(nil), DefaultOrder...)
		p.warn(errors.Wrapf(ErrDegenerateChannelOrder, "%s:%d: %q uses %v", p.name, l.no, j.Name, j.Order))
	}
	return nil
}

func (p *Parser) parseMotion(ts *tokenStream) (*MotionClip, error) {
	clip := &MotionClip{DeclaredFrames: -1}

	if l := ts.peek(); l != nil && strings.HasPrefix(l.text, "Frames:") {
		ts.next()
		n, err := strconv.Atoi(l.fields[len(l.fields)-1])
		if err != nil || n < 0 {
			// the count is informational, frames are read until EOF
			p.warn(errors.Wrapf(ErrFrameCountMismatch, "%s:%d: invalid frame count %q", p.name, l.no, l.text))
		} else {
			clip.DeclaredFrames = n
		}
	}

	l := ts.next()
	if l == nil || !strings.HasPrefix(l.text, "Frame Time:") {
		return nil, p.errorf(ts.lineNo(l), "Frame Time expected")
	}
	ft, err := strconv.ParseFloat(l.fields[len(l.fields)-1], 64)
	if err != nil || !(ft > 0) || math.IsInf(ft, 0) {
		return nil, p.errorf(l.no, "invalid frame time %q", l.fields[len(l.fields)-1])
	}
	clip.FrameTime = ft

	for l := ts.next(); l != nil; l = ts.next() {
		frame := make(Frame, len(l.fields))
		for i, s := range l.fields {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, p.errorf(l.no, "invalid number %q", s)
			}
			frame[i] = float32(f)
		}
		clip.Frames = append(clip.Frames, frame)
	}

	if clip.DeclaredFrames >= 0 && clip.DeclaredFrames != len(clip.Frames) {
		p.warn(errors.Wrapf(ErrFrameCountMismatch, "%s: Frames: %d, found %d", p.name, clip.DeclaredFrames, len(clip.Frames)))
	}
	return clip, nil
}

// Parse reads a bvh document from r.
func Parse(r io.Reader) (*Document, error) {
	return NewParser(r, "").Parse()
}

// Load reads a bvh file.
func Load(path string) (*Document, error) {
	return LoadWithMarkers(path, 0)
}

// LoadWithMarkers reads a bvh file and attaches drawable components to the
// joints when radius > 0.
func LoadWithMarkers(path string, radius float32) (*Document, error) {
	r, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(ErrFileNotFound, "%s", path)
	} else if err != nil {
		return nil, err
	}
	defer r.Close()
	parser := NewParser(r, path)
	parser.MarkerRadius = radius
	return parser.Parse()
}
