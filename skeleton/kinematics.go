package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// RotationMatrix composes the pose rotation as Rz * Ry * Rx. The order is fixed
// and does not follow the channel declaration order of the file.
func (p Pose) RotationMatrix() mgl64.Mat4 {
	r := p.Rotation()
	rZ := mgl64.HomogRotate3DZ(mgl64.DegToRad(r[2]))
	rY := mgl64.HomogRotate3DY(mgl64.DegToRad(r[1]))
	rX := mgl64.HomogRotate3DX(mgl64.DegToRad(r[0]))
	return rZ.Mul4(rY).Mul4(rX)
}

// LocalTransform is the transform of a joint relative to its parent.
// Only the root applies its translation channels.
func (s *Skeleton) LocalTransform(id int) mgl64.Mat4 {
	joint := &s.joints[id]
	pose := &s.poses[id]

	m := mgl64.Translate3D(joint.Offset[0], joint.Offset[1], joint.Offset[2])
	if joint.IsRoot() {
		t := pose.Translation()
		m = m.Mul4(mgl64.Translate3D(t[0], t[1], t[2]))
	}
	return m.Mul4(pose.RotationMatrix())
}

func (s *Skeleton) checkBuffer(name string, size int) {
	if size != len(s.joints) {
		panic(fmt.Sprintf("%s buffer has %d entries, skeleton has %d joints", name, size, len(s.joints)))
	}
}

// ComputeWorldTransforms writes the world transform and world position
// of every joint. Both slices must be JointCount long.
func (s *Skeleton) ComputeWorldTransforms(outTransforms []mgl64.Mat4, outPositions []mgl64.Vec3) {
	s.checkBuffer("transforms", len(outTransforms))
	s.checkBuffer("positions", len(outPositions))

	// ids are depth-first creation order, parents are computed first
	for id := range s.joints {
		local := s.LocalTransform(id)
		if parent := s.joints[id].Parent; parent >= 0 {
			outTransforms[id] = outTransforms[parent].Mul4(local)
		} else {
			outTransforms[id] = local
		}
		outPositions[id] = outTransforms[id].Col(3).Vec3()
	}
}

// ComputeRestPositions places the root at baseOffset and every other
// joint at its parent position plus its offset.
func (s *Skeleton) ComputeRestPositions(outPositions []mgl64.Vec3, baseOffset mgl64.Vec3) {
	s.checkBuffer("positions", len(outPositions))

	for id := range s.joints {
		if parent := s.joints[id].Parent; parent >= 0 {
			outPositions[id] = outPositions[parent].Add(s.joints[id].Offset)
		} else {
			outPositions[id] = baseOffset
		}
	}
}

// RestTransforms returns pure translations to the rest positions. Skinning
// with these transforms reproduces the bind pose.
func (s *Skeleton) RestTransforms(baseOffset mgl64.Vec3) []mgl64.Mat4 {
	positions := make([]mgl64.Vec3, len(s.joints))
	s.ComputeRestPositions(positions, baseOffset)

	transforms := make([]mgl64.Mat4, len(s.joints))
	for i, p := range positions {
		transforms[i] = mgl64.Translate3D(p[0], p[1], p[2])
	}
	return transforms
}
