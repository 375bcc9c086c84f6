package mesh

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mogaika/fbx/builders/bfbx73"

	"github.com/mogaika/bvh_skinning/utils/fbxbuilder"
)

type FbxMeshExported struct {
	FbxGeometryId int64
	FbxModelId    int64
}

// ExportFbx adds a mesh model with its geometry. positions replaces the
// rest pose when not nil.
func (m *Mesh) ExportFbx(f *fbxbuilder.FBXBuilder, name string, positions []mgl64.Vec3) *FbxMeshExported {
	if positions == nil {
		positions = m.Vertices
	}

	vertices := make([]float64, 0, len(positions)*3)
	for _, p := range positions {
		vertices = append(vertices, p[0], p[1], p[2])
	}

	// last index of every polygon is stored as -(index)-1
	indexes := make([]int32, len(m.Indexes))
	for i, idx := range m.Indexes {
		indexes[i] = int32(idx)
		if i%3 == 2 {
			indexes[i] = -int32(idx) - 1
		}
	}

	fme := &FbxMeshExported{
		FbxGeometryId: f.GenerateId(),
		FbxModelId:    f.GenerateId(),
	}

	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
	)

	geometry := bfbx73.Geometry(fme.FbxGeometryId, name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		geometryLayer,
	)

	if m.Normals != nil {
		normals := make([]float64, 0, len(m.Normals)*3)
		for _, n := range m.Normals {
			normals = append(normals, n[0], n[1], n[2])
		}
		geometry.AddNode(
			bfbx73.LayerElementNormal(0).AddNodes(
				bfbx73.Version(101),
				bfbx73.Name(""),
				bfbx73.MappingInformationType("ByVertice"),
				bfbx73.ReferenceInformationType("Direct"),
				bfbx73.Normals(normals),
			),
		)
		geometryLayer.AddNode(
			bfbx73.LayerElement().AddNodes(
				bfbx73.Type("LayerElementNormal"),
				bfbx73.TypedIndex(0),
			),
		)
	}

	model := bfbx73.Model(fme.FbxModelId, name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	f.AddObjects(model, geometry)
	f.AddConnections(bfbx73.C("OO", fme.FbxGeometryId, fme.FbxModelId))
	return fme
}
