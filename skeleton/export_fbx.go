package skeleton

import (
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/bvh_skinning/utils/fbxbuilder"
)

type FbxSkeletonExported struct {
	JointModelIds []int64
	RootModelId   int64
}

// ExportFbx adds one LimbNode model per joint with its current local pose.
// Euler order matches the Z-Y-X composition of the transforms.
func (s *Skeleton) ExportFbx(f *fbxbuilder.FBXBuilder) *FbxSkeletonExported {
	fse := &FbxSkeletonExported{
		JointModelIds: make([]int64, len(s.joints)),
	}

	for id := range s.joints {
		joint := &s.joints[id]
		translation := s.LocalTransform(id).Col(3).Vec3()
		rotation := s.poses[id].Rotation()

		modelId := f.GenerateId()
		model := bfbx73.Model(modelId, joint.Name+"\x00\x01Model", "LimbNode").AddNodes(
			bfbx73.Version(232),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("RotationOrder", "enum", "", "", int32(0)),
				bfbx73.P("InheritType", "enum", "", "", int32(1)),
				bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
				bfbx73.P("Lcl Translation", "Lcl Translation", "", "A",
					translation[0], translation[1], translation[2]),
				bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A",
					rotation[0], rotation[1], rotation[2]),
				bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
			),
			bfbx73.Shading(true),
			bfbx73.Culling("CullingOff"),
		)

		nodeAttribute := bfbx73.NodeAttribute(f.GenerateId(), joint.Name+"\x00\x01NodeAttribute", "LimbNode").AddNodes(
			bfbx73.Properties70(),
			bfbx73.TypeFlags("Skeleton"),
		)

		f.AddObjects(model, nodeAttribute)
		f.AddConnections(bfbx73.C("OO", nodeAttribute.Properties[0].(int64), modelId))
		fse.JointModelIds[id] = modelId
	}

	connections := make([]*fbx.Node, 0, len(s.joints)-1)
	for _, e := range s.ComputeEdgeList() {
		connections = append(connections,
			bfbx73.C("OO", fse.JointModelIds[e.Child], fse.JointModelIds[e.Parent]))
	}
	f.AddConnections(connections...)

	fse.RootModelId = fse.JointModelIds[0]
	return fse
}
