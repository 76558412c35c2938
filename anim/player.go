package anim

import (
	"log"
	"math"

	"github.com/binzume/bvhplayer/bvh"
	"github.com/binzume/bvhplayer/scene"
)

// Player selects a frame from elapsed time and applies it.
// It implements scene.Component; attach it to the root joint.
type Player struct {
	scene.BaseComponent

	applier *PoseApplier
	clip    *bvh.MotionClip

	playing bool
	loop    bool
	speed   float64
	time    float64
	frame   int

	lastErr      error
	lastErrFrame int
}

// NewPlayer returns a paused looping player with speed 1.
func NewPlayer(sk *bvh.Skeleton, clip *bvh.MotionClip) *Player {
	return &Player{
		applier:      NewPoseApplier(sk),
		clip:         clip,
		loop:         true,
		speed:        1,
		lastErrFrame: -1,
	}
}

func (p *Player) Play()           { p.playing = true }
func (p *Player) Pause()          { p.playing = false }
func (p *Player) IsPlaying() bool { return p.playing }

// SetSpeed sets the playback rate. Negative values play backwards.
func (p *Player) SetSpeed(s float64) { p.speed = s }
func (p *Player) Speed() float64     { return p.speed }

func (p *Player) SetLoop(loop bool) { p.loop = loop }
func (p *Player) Loop() bool        { return p.loop }

// Reset rewinds time and frame index. Flags are kept.
func (p *Player) Reset() {
	p.time = 0
	p.frame = 0
}

// Seek sets the accumulated time in seconds. The pose changes on the next Tick.
func (p *Player) Seek(t float64) { p.time = t }

func (p *Player) Time() float64     { return p.time }
func (p *Player) CurrentFrame() int { return p.frame }
func (p *Player) Clip() *bvh.MotionClip {
	return p.clip
}

func (p *Player) FrameCount() int {
	if p.clip == nil {
		return 0
	}
	return len(p.clip.Frames)
}

// LastError returns the error of the last Tick that failed to apply a frame.
func (p *Player) LastError() error { return p.lastErr }

func (p *Player) selectFrame() {
	n := len(p.clip.Frames)
	i := int(math.Floor(p.time / p.clip.FrameTime))
	if p.loop {
		p.frame = (i%n + n) % n
	} else if i < 0 {
		p.frame = 0
	} else if i >= n {
		p.frame = n - 1
	} else {
		p.frame = i
	}
}

// Tick advances time by dt if playing and applies the selected frame.
// The pose is applied even when paused.
func (p *Player) Tick(dt float64) error {
	if p.playing {
		p.time += dt * p.speed
	}
	if p.clip == nil || p.clip.FrameTime <= 0 || len(p.clip.Frames) == 0 {
		return nil
	}
	p.selectFrame()
	_, err := p.applier.Apply(p.clip.Frames[p.frame])
	if err != nil {
		p.lastErr = err
	}
	return err
}

// Update implements scene.Component. Frame errors are logged once per frame
// and playback continues.
func (p *Player) Update(g *scene.Graph, id scene.NodeID, dt float64) {
	if err := p.Tick(dt); err != nil {
		if p.lastErrFrame != p.frame {
			log.Printf("frame %d: %v\n", p.frame, err)
			p.lastErrFrame = p.frame
		}
	}
}
