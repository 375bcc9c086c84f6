package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/bvh_skinning/skeleton"
	"github.com/mogaika/bvh_skinning/skin"
)

// Player drives a skeleton by wall clock time and keeps the buffers of
// the last accepted frame: joint transforms, joint positions and the
// deformed mesh.
type Player struct {
	skel      *skeleton.Skeleton
	frameTime float64

	frame       int
	accumulated float64
	paused      bool
	dirty       bool
	revision    uint64

	mode     skin.Mode
	restMesh []mgl64.Vec3
	weights  *skin.WeightMap

	transforms []mgl64.Mat4
	positions  []mgl64.Vec3
	deformed   []mgl64.Vec3
}

// New starts at frame 0. A non positive frameTime falls back to the
// skeleton frame time.
func New(skel *skeleton.Skeleton, frameTime float64) *Player {
	if frameTime <= 0 {
		frameTime = skel.FrameTime()
	}
	return &Player{
		skel:       skel,
		frameTime:  frameTime,
		mode:       skin.ModeSmooth,
		dirty:      true,
		transforms: make([]mgl64.Mat4, skel.JointCount()),
		positions:  make([]mgl64.Vec3, skel.JointCount()),
	}
}

// Advance accumulates dt and moves one frame per elapsed frame time,
// wrapping at the end of the motion. Infinite dt is ignored. Buffers are
// recomputed only when a frame was accepted or the inputs changed.
// Returns the current frame.
func (p *Player) Advance(dt float64) int {
	if !p.paused && dt > 0 && !math.IsInf(dt, 0) {
		p.accumulated += dt
		if steps := math.Floor(p.accumulated / p.frameTime); steps >= 1 {
			frameCount := float64(p.skel.FrameCount())
			p.frame = int(math.Mod(float64(p.frame)+math.Mod(steps, frameCount), frameCount))
			p.accumulated = math.Mod(p.accumulated, p.frameTime)
			p.dirty = true
		}
	}
	if p.dirty {
		p.recompute()
	}
	return p.frame
}

func (p *Player) recompute() {
	p.skel.Animate(p.frame)
	p.skel.ComputeWorldTransforms(p.transforms, p.positions)
	if p.restMesh != nil {
		p.deformed = skin.Deform(p.mode, p.transforms, p.restMesh, p.weights, p.deformed)
	} else {
		p.deformed = nil
	}
	p.dirty = false
	p.revision++
}

// invalidate recomputes right away once a frame was shown, otherwise on
// the first Advance.
func (p *Player) invalidate() {
	p.dirty = true
	if p.revision != 0 {
		p.recompute()
	}
}

// Seek jumps to frame modulo the frame count and drops the accumulated
// time.
func (p *Player) Seek(frame int) int {
	frameCount := p.skel.FrameCount()
	frame %= frameCount
	if frame < 0 {
		frame += frameCount
	}
	p.frame = frame
	p.accumulated = 0
	p.recompute()
	return p.frame
}

func (p *Player) SetPaused(paused bool) { p.paused = paused }
func (p *Player) Paused() bool          { return p.paused }

// SetSkin replaces the deformation inputs. A nil restMesh disables the
// mesh, nil weights keep the mesh in rest pose.
func (p *Player) SetSkin(restMesh []mgl64.Vec3, weights *skin.WeightMap) {
	p.restMesh = restMesh
	p.weights = weights
	p.deformed = nil
	p.invalidate()
}

func (p *Player) SetMode(mode skin.Mode) {
	if p.mode != mode {
		p.mode = mode
		p.invalidate()
	}
}

func (p *Player) Skeleton() *skeleton.Skeleton { return p.skel }
func (p *Player) Frame() int                   { return p.frame }
func (p *Player) FrameTime() float64           { return p.frameTime }
func (p *Player) Mode() skin.Mode              { return p.mode }
func (p *Player) Weights() *skin.WeightMap     { return p.weights }
func (p *Player) Revision() uint64             { return p.revision }

// Animated reports whether the buffers hold a computed frame yet.
func (p *Player) Animated() bool { return p.revision != 0 }

func (p *Player) Transforms() []mgl64.Mat4 { return p.transforms }
func (p *Player) Positions() []mgl64.Vec3  { return p.positions }

// Deformed is nil while no mesh is set.
func (p *Player) Deformed() []mgl64.Vec3 { return p.deformed }
