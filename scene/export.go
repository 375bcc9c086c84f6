package scene

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/utils/fbxbuilder"
	"github.com/mogaika/bvh_skinning/utils/gltfutils"
)

func baseName(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// ExportGLTF writes the current frame as glb: the joint hierarchy with
// its local poses and the deformed mesh.
func (s *Scene) ExportGLTF(w io.Writer) error {
	if s.skel == nil && s.mesh == nil {
		return errors.Errorf("Nothing to export")
	}

	doc := gltfutils.NewDocument()
	var roots []uint32

	if s.skel != nil {
		roots = append(roots, s.skel.ExportGLTF(doc).RootNode)
	}
	if s.mesh != nil {
		exported := s.mesh.ExportGLTF(doc, baseName(s.meshPath, "mesh"), s.DeformedMeshVertices(), nil)
		roots = append(roots, exported.Node)
	}

	if err := gltfutils.ExportBinary(w, doc, roots...); err != nil {
		return errors.Wrapf(err, "Failed to encode glb")
	}
	return nil
}

// ExportObj writes the current deformed mesh.
func (s *Scene) ExportObj(w io.Writer) error {
	if s.mesh == nil {
		return ErrNoMesh
	}
	return s.mesh.ExportObj(w, baseName(s.meshPath, "mesh"), s.DeformedMeshVertices())
}

// ExportFBX writes the current frame as binary fbx with the same content
// as ExportGLTF.
func (s *Scene) ExportFBX(w io.Writer) error {
	if s.skel == nil && s.mesh == nil {
		return errors.Errorf("Nothing to export")
	}

	f := fbxbuilder.NewFBXBuilder(baseName(s.skeletonPath, "scene") + ".fbx")

	if s.skel != nil {
		exported := s.skel.ExportFbx(f)
		f.AddConnections(bfbx73.C("OO", exported.RootModelId, 0))
	}
	if s.mesh != nil {
		exported := s.mesh.ExportFbx(f, baseName(s.meshPath, "mesh"), s.DeformedMeshVertices())
		f.AddConnections(bfbx73.C("OO", exported.FbxModelId, 0))
	}

	if err := f.Write(w); err != nil {
		return errors.Wrapf(err, "Failed to encode fbx")
	}
	return nil
}
