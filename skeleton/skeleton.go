package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/bvh_skinning/bvh"
)

// Pose holds the current value of every channel of a joint, indexed by
// bvh.Channel. Rotations are in degrees.
type Pose [bvh.CHANNELS_COUNT]float64

func (p Pose) Translation() mgl64.Vec3 {
	return mgl64.Vec3{p[bvh.CHANNEL_XPOSITION], p[bvh.CHANNEL_YPOSITION], p[bvh.CHANNEL_ZPOSITION]}
}

// Rotation returns the euler angles in degrees, x y z.
func (p Pose) Rotation() mgl64.Vec3 {
	return mgl64.Vec3{p[bvh.CHANNEL_XROTATION], p[bvh.CHANNEL_YROTATION], p[bvh.CHANNEL_ZROTATION]}
}

type Edge struct {
	Parent int
	Child  int
}

// Skeleton owns the joint arena of a parsed motion and the current pose
// of every joint.
type Skeleton struct {
	joints     []bvh.Joint
	poses      []Pose
	frameCount int
	frameTime  float64
}

func New(m *bvh.Motion) *Skeleton {
	if len(m.Joints) == 0 {
		panic("skeleton without joints")
	}
	return &Skeleton{
		joints:     m.Joints,
		poses:      make([]Pose, len(m.Joints)),
		frameCount: m.FrameCount,
		frameTime:  m.FrameTime,
	}
}

func (s *Skeleton) JointCount() int         { return len(s.joints) }
func (s *Skeleton) EdgeCount() int          { return len(s.joints) - 1 }
func (s *Skeleton) FrameCount() int         { return s.frameCount }
func (s *Skeleton) FrameTime() float64      { return s.frameTime }
func (s *Skeleton) Joint(id int) *bvh.Joint { return &s.joints[id] }
func (s *Skeleton) Pose(id int) Pose        { return s.poses[id] }

// SetPose overrides the current pose of a joint until the next Animate.
func (s *Skeleton) SetPose(id int, p Pose) {
	s.poses[id] = p
}

// JointIds maps joint names to ids. End sites are included under their
// generated names.
func (s *Skeleton) JointIds() map[string]int {
	ids := make(map[string]int, len(s.joints))
	for i := range s.joints {
		ids[s.joints[i].Name] = i
	}
	return ids
}

// Animate loads the channel values of frame into the poses. Channels a
// joint does not declare stay at zero.
func (s *Skeleton) Animate(frame int) {
	if frame < 0 || frame >= s.frameCount {
		panic(fmt.Sprintf("frame %d out of range [0, %d)", frame, s.frameCount))
	}
	for i := range s.joints {
		pose := &s.poses[i]
		*pose = Pose{}
		for _, curve := range s.joints[i].Curves {
			pose[curve.Channel] = curve.Values[frame]
		}
	}
}

// Walk visits joints depth-first from the root, children in declaration
// order. Returning false from fn skips the children of that joint.
func (s *Skeleton) Walk(fn func(id, depth int) bool) {
	type item struct {
		id, depth int
	}
	stack := make([]item, 0, 32)
	stack = append(stack, item{0, 0})
	for len(stack) != 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(it.id, it.depth) {
			continue
		}
		children := s.joints[it.id].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, item{children[i], it.depth + 1})
		}
	}
}

// ComputeEdgeList returns one (parent, child) pair per non-root joint in
// depth-first order.
func (s *Skeleton) ComputeEdgeList() []Edge {
	edges := make([]Edge, 0, s.EdgeCount())
	s.Walk(func(id, depth int) bool {
		if depth != 0 {
			edges = append(edges, Edge{Parent: s.joints[id].Parent, Child: id})
		}
		return true
	})
	return edges
}

// LineIndices flattens the edge list into a line list index buffer.
func (s *Skeleton) LineIndices() []uint32 {
	edges := s.ComputeEdgeList()
	indices := make([]uint32, 0, len(edges)*2)
	for _, e := range edges {
		indices = append(indices, uint32(e.Parent), uint32(e.Child))
	}
	return indices
}
