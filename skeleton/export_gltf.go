package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"

	"github.com/mogaika/bvh_skinning/utils"
)

type GLTFSkeletonExported struct {
	JointNodes []uint32
	RootNode   uint32
}

// ExportGLTF appends one node per joint carrying its current local pose.
// The caller decides where the root node goes in the scene.
func (s *Skeleton) ExportGLTF(doc *gltf.Document) *GLTFSkeletonExported {
	tfse := &GLTFSkeletonExported{
		JointNodes: make([]uint32, len(s.joints)),
	}

	for id := range s.joints {
		translation := s.LocalTransform(id).Col(3).Vec3()
		rotation := mgl64.Mat4ToQuat(s.poses[id].RotationMatrix()).Normalize()

		node := &gltf.Node{
			Name:        s.joints[id].Name,
			Translation: utils.Vec3To32(translation),
			Rotation:    utils.Vec3To32(rotation.V).Vec4(float32(rotation.W)),
			Scale:       [3]float32{1, 1, 1},
		}

		tfse.JointNodes[id] = uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, node)
	}

	for id := range s.joints {
		node := doc.Nodes[tfse.JointNodes[id]]
		for _, child := range s.joints[id].Children {
			node.Children = append(node.Children, tfse.JointNodes[child])
		}
	}

	tfse.RootNode = tfse.JointNodes[0]
	return tfse
}
