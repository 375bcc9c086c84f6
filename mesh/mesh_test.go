package mesh_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/bvh_skinning/mesh"
)

const quadObj = `# two triangles as one quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
vn 0 0 1
vn 0 0 1
vn 0 0 1
usemtl skin
s off
f 1/1/1 2/1/2 3/1/3 -1//4
`

func TestParseObjFan(t *testing.T) {
	m, err := mesh.ParseObjData([]byte(quadObj))
	require.NoError(t, err)

	assert.Len(t, m.Vertices, 4)
	assert.Equal(t, mgl64.Vec3{1, 1, 0}, m.Vertices[2])
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indexes)
	assert.Equal(t, 2, m.TrianglesCount())
	assert.Len(t, m.Normals, 4)
}

func TestParseObjDropsMismatchedNormals(t *testing.T) {
	m, err := mesh.ParseObj(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1 2 3\n"))
	require.NoError(t, err)
	assert.Nil(t, m.Normals)
}

var badObjs = []struct {
	name string
	text string
	line int
}{
	{"short vertex", "v 0 0\n", 1},
	{"bad number", "v 0 0 0\nv 1 x 0\n", 2},
	{"index range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n", 4},
	{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", 4},
	{"two vertex face", "v 0 0 0\nv 1 0 0\n\nf 1 2\n", 4},
}

func TestParseObjErrors(t *testing.T) {
	for _, test := range badObjs {
		_, err := mesh.ParseObjData([]byte(test.text))
		if assert.Error(t, err, test.name) {
			assert.True(t, errors.Is(err, mesh.ErrMeshParse), test.name)
			var syntaxErr *mesh.SyntaxError
			if assert.True(t, errors.As(err, &syntaxErr), test.name) {
				assert.Equal(t, test.line, syntaxErr.Line, test.name)
			}
		}
	}

	_, err := mesh.ParseObjData([]byte("# nothing\n"))
	assert.True(t, errors.Is(err, mesh.ErrMeshParse))
}

func TestLoadObjFileMissing(t *testing.T) {
	_, err := mesh.LoadObjFile(filepath.Join(t.TempDir(), "none.obj"))
	assert.True(t, errors.Is(err, mesh.ErrFileUnreadable))
}

func TestExportObj(t *testing.T) {
	m, err := mesh.ParseObjData([]byte(quadObj))
	require.NoError(t, err)

	moved := make([]mgl64.Vec3, len(m.Vertices))
	for i, v := range m.Vertices {
		moved[i] = v.Add(mgl64.Vec3{0, 0, 2})
	}

	var buf bytes.Buffer
	require.NoError(t, m.ExportObj(&buf, "skin", moved))
	assert.Equal(t, `o skin
v 0.000000 0.000000 2.000000
v 1.000000 0.000000 2.000000
v 1.000000 1.000000 2.000000
v 0.000000 1.000000 2.000000
f 1 2 3
f 1 3 4
`, buf.String())

	assert.Error(t, m.ExportObj(&buf, "skin", moved[:2]))
}

func TestExportGLTF(t *testing.T) {
	m, err := mesh.ParseObjData([]byte(quadObj))
	require.NoError(t, err)

	doc := gltf.NewDocument()
	exported := m.ExportGLTF(doc, "skin", nil, nil)

	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, uint32(0), exported.Node)
	primitive := doc.Meshes[0].Primitives[0]
	assert.Contains(t, primitive.Attributes, "POSITION")
	assert.Contains(t, primitive.Attributes, "NORMAL")
	assert.NotContains(t, primitive.Attributes, "COLOR_0")

	positions := doc.Accessors[primitive.Attributes["POSITION"]]
	assert.Equal(t, uint32(4), positions.Count)
	indices := doc.Accessors[*primitive.Indices]
	assert.Equal(t, uint32(6), indices.Count)
}
