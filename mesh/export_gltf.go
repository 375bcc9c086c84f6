package mesh

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/bvh_skinning/utils"
)

type GLTFMeshExported struct {
	GLTFMesh      *gltf.Mesh
	GLTFMeshIndex uint32
	Node          uint32
}

// ExportGLTF appends a mesh and a node holding it. positions replaces the
// rest pose when not nil, colors adds a COLOR_0 attribute when not nil.
func (m *Mesh) ExportGLTF(doc *gltf.Document, name string, positions []mgl64.Vec3, colors []color.NRGBA) *GLTFMeshExported {
	if positions == nil {
		positions = m.Vertices
	}

	attributes := make(map[string]uint32)
	attributes["POSITION"] = modeler.WritePosition(doc, utils.Vec3sTo32(positions))

	if m.Normals != nil {
		normals := make([][3]float32, len(m.Normals))
		for i, normal := range m.Normals {
			if normal.Len() > 0.5 {
				normal = normal.Normalize()
			}
			normals[i] = utils.Vec3To32(normal)
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}

	if colors != nil {
		rgba := make([][4]uint8, len(colors))
		for i, c := range colors {
			rgba[i] = [4]uint8{c.R, c.G, c.B, c.A}
		}
		attributes["COLOR_0"] = modeler.WriteColor(doc, rgba)
	}

	indicesAccessor := modeler.WriteIndices(doc, m.Indexes)

	gltfMesh := &gltf.Mesh{
		Name: name,
		Primitives: []*gltf.Primitive{
			{
				Indices:    gltf.Index(indicesAccessor),
				Attributes: attributes,
			},
		},
	}
	doc.Meshes = append(doc.Meshes, gltfMesh)
	tfme := &GLTFMeshExported{
		GLTFMesh:      gltfMesh,
		GLTFMeshIndex: uint32(len(doc.Meshes) - 1),
		Node:          uint32(len(doc.Nodes)),
	}

	doc.Nodes = append(doc.Nodes, &gltf.Node{
		Name:     name,
		Mesh:     gltf.Index(tfme.GLTFMeshIndex),
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	})

	return tfme
}
