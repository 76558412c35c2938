package preview

import (
	"image"
	"image/color"
	"log"

	"github.com/binzume/bvhplayer/anim"
	"github.com/binzume/bvhplayer/geom"
	"github.com/binzume/bvhplayer/scene"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

type Options struct {
	Width       int
	Height      int
	Supersample int
	// Yaw and Pitch of the camera in degrees.
	Yaw   float32
	Pitch float32
	// LineWidth in output pixels.
	LineWidth float32
	// MinPointRadius in output pixels.
	MinPointRadius float32
	// Margin is the fraction of the image left empty on each side by Fit.
	Margin     float32
	Background color.Color
	LineColor  color.Color
	PointColor color.Color
}

func (o *Options) withDefaults() *Options {
	opt := Options{}
	if o != nil {
		opt = *o
	}
	if opt.Width <= 0 {
		opt.Width = 512
	}
	if opt.Height <= 0 {
		opt.Height = opt.Width
	}
	if opt.Supersample <= 0 {
		opt.Supersample = 2
	}
	if opt.LineWidth <= 0 {
		opt.LineWidth = 2
	}
	if opt.MinPointRadius <= 0 {
		opt.MinPointRadius = opt.LineWidth
	}
	if opt.Margin <= 0 || opt.Margin >= 0.5 {
		opt.Margin = 0.1
	}
	if opt.Background == nil {
		opt.Background = color.White
	}
	if opt.LineColor == nil {
		opt.LineColor = color.RGBA{0x40, 0x40, 0x40, 0xff}
	}
	if opt.PointColor == nil {
		opt.PointColor = color.RGBA{0xd0, 0x30, 0x30, 0xff}
	}
	return &opt
}

// Canvas is an orthographic scene.Renderer.
// Drawing happens at Supersample times the output size.
type Canvas struct {
	opt   *Options
	img   *image.RGBA
	view  *geom.Matrix4
	scale float32
	cx    float32
	cy    float32
	z     *vector.Rasterizer
	line  *image.Uniform
	point *image.Uniform
}

func NewCanvas(opt *Options) *Canvas {
	o := opt.withDefaults()
	ss := o.Supersample
	c := &Canvas{
		opt:   o,
		img:   image.NewRGBA(image.Rect(0, 0, o.Width*ss, o.Height*ss)),
		scale: 1,
		z:     vector.NewRasterizer(0, 0),
		line:  image.NewUniform(o.LineColor),
		point: image.NewUniform(o.PointColor),
	}
	c.SetView(o.Yaw, o.Pitch)
	c.Clear()
	return c
}

// SetView sets the camera rotation. Yaw turns around Y, then pitch tilts around X.
func (c *Canvas) SetView(yaw, pitch float32) {
	q := geom.NewQuaternionFromAxisAngle(&geom.Vector3{X: 1}, geom.DegToRad(pitch)).
		Mul(geom.NewQuaternionFromAxisAngle(&geom.Vector3{Y: 1}, geom.DegToRad(-yaw)))
	c.view = geom.NewRotationMatrix4FromQuaternion(q)
}

func (c *Canvas) Clear() {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.opt.Background), image.Point{}, draw.Src)
}

// Project returns the position of p on the supersampled canvas.
func (c *Canvas) Project(p *geom.Vector3) (float32, float32) {
	v := c.view.ApplyTo(p)
	b := c.img.Bounds()
	return float32(b.Dx())/2 + (v.X-c.cx)*c.scale, float32(b.Dy())/2 - (v.Y-c.cy)*c.scale
}

// Fit centers the points and scales them to fill the canvas minus the margin.
func (c *Canvas) Fit(points []*geom.Vector3) {
	if len(points) == 0 {
		return
	}
	var min, max geom.Vector2
	for i, p := range points {
		v := c.view.ApplyTo(p)
		if i == 0 || v.X < min.X {
			min.X = v.X
		}
		if i == 0 || v.Y < min.Y {
			min.Y = v.Y
		}
		if i == 0 || v.X > max.X {
			max.X = v.X
		}
		if i == 0 || v.Y > max.Y {
			max.Y = v.Y
		}
	}
	c.cx, c.cy = (min.X+max.X)/2, (min.Y+max.Y)/2

	b := c.img.Bounds()
	usable := 1 - 2*c.opt.Margin
	w, h := max.X-min.X, max.Y-min.Y
	c.scale = math32.MaxFloat32
	if w > 0 {
		c.scale = float32(b.Dx()) * usable / w
	}
	if h > 0 && float32(b.Dy())*usable/h < c.scale {
		c.scale = float32(b.Dy()) * usable / h
	}
	if c.scale == math32.MaxFloat32 {
		c.scale = 1
	}
}

func (c *Canvas) fill(poly [][2]float32, src image.Image) {
	if len(poly) < 3 {
		return
	}
	minX, minY := poly[0][0], poly[0][1]
	maxX, maxY := minX, minY
	for _, p := range poly[1:] {
		minX, minY = math32.Min(minX, p[0]), math32.Min(minY, p[1])
		maxX, maxY = math32.Max(maxX, p[0]), math32.Max(maxY, p[1])
	}
	r := image.Rect(int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY))).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	c.z.Reset(r.Dx(), r.Dy())
	c.z.DrawOp = draw.Over
	c.z.MoveTo(poly[0][0]-ox, poly[0][1]-oy)
	for _, p := range poly[1:] {
		c.z.LineTo(p[0]-ox, p[1]-oy)
	}
	c.z.ClosePath()
	c.z.Draw(c.img, r, src, image.Point{})
}

// DrawPoint draws a dot. radius is in world units.
func (c *Canvas) DrawPoint(p *geom.Vector3, radius float32) {
	x, y := c.Project(p)
	r := radius * c.scale
	r = math32.Max(r, c.opt.MinPointRadius*float32(c.opt.Supersample))
	const segments = 16
	poly := make([][2]float32, segments)
	for i := range poly {
		s, co := math32.Sincos(float32(i) * 2 * math32.Pi / segments)
		poly[i] = [2]float32{x + r*co, y + r*s}
	}
	c.fill(poly, c.point)
}

// DrawLine draws a segment LineWidth pixels wide.
func (c *Canvas) DrawLine(a, b *geom.Vector3) {
	ax, ay := c.Project(a)
	bx, by := c.Project(b)
	dx, dy := bx-ax, by-ay
	l := math32.Hypot(dx, dy)
	if l == 0 {
		return
	}
	hw := c.opt.LineWidth * float32(c.opt.Supersample) / 2
	nx, ny := -dy/l*hw, dx/l*hw
	c.fill([][2]float32{{ax + nx, ay + ny}, {bx + nx, by + ny}, {bx - nx, by - ny}, {ax - nx, ay - ny}}, c.line)
}

// Image returns the canvas scaled down to the output size.
func (c *Canvas) Image() image.Image {
	if c.opt.Supersample == 1 {
		return c.img
	}
	dst := image.NewRGBA(image.Rect(0, 0, c.opt.Width, c.opt.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), c.img, c.img.Bounds(), draw.Src, nil)
	return dst
}

// WorldPositions returns the world positions of every node under root.
func WorldPositions(g *scene.Graph, root scene.NodeID) []*geom.Vector3 {
	var points []*geom.Vector3
	g.Walk(root, func(id scene.NodeID, depth int) bool {
		points = append(points, g.WorldPosition(id))
		return true
	})
	return points
}

// RenderPose draws the components under root with the current pose.
func RenderPose(g *scene.Graph, root scene.NodeID, opt *Options) image.Image {
	c := NewCanvas(opt)
	c.Fit(WorldPositions(g, root))
	g.Draw(root, c)
	return c.Image()
}

// RenderClip renders the clip of p sampled at fps. The view is fitted once to
// the joints of every sampled frame. p is left at the last sampled frame.
func RenderClip(g *scene.Graph, root scene.NodeID, p *anim.Player, fps float64, opt *Options) ([]image.Image, error) {
	if fps <= 0 {
		return nil, errors.New("fps must be positive")
	}
	clip := p.Clip()
	if clip == nil || len(clip.Frames) == 0 {
		return nil, errors.New("no motion")
	}
	n := int(float64(len(clip.Frames)-1)*clip.FrameTime*fps) + 1

	var points []*geom.Vector3
	for i := 0; i < n; i++ {
		p.Seek(float64(i) / fps)
		p.Tick(0)
		points = append(points, WorldPositions(g, root)...)
	}

	c := NewCanvas(opt)
	c.Fit(points)
	var images []image.Image
	for i := 0; i < n; i++ {
		p.Seek(float64(i) / fps)
		if err := p.Tick(0); err != nil {
			log.Printf("frame %d: %v\n", p.CurrentFrame(), err)
		}
		c.Clear()
		g.Draw(root, c)
		images = append(images, c.Image())
	}
	return images, nil
}
