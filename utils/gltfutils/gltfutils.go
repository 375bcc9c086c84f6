package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

// ExportBinary puts roots into the default scene and writes doc as glb.
func ExportBinary(w io.Writer, doc *gltf.Document, roots ...uint32) error {
	if len(doc.Scenes) == 0 {
		doc.Scenes = append(doc.Scenes, &gltf.Scene{Name: "Root Scene"})
		doc.Scene = gltf.Index(0)
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, roots...)

	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}
