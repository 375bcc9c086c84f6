package skin_test

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/bvh_skinning/skin"
)

// Root at origin, Joint1 one unit up, Joint1_End two units up.
var (
	restJoints = []mgl64.Vec3{{0, 0, 0}, {0, 1, 0}, {0, 2, 0}}
	jointIds   = map[string]int{"Root": 0, "Joint1": 1, "Joint1_End": 2}
	restMesh   = []mgl64.Vec3{{0.5, 0.2, 0}, {0.5, 1, 0}, {0.5, 1.8, 0}, {-0.5, 3, 0}}
)

const weightsText = `# vertex Root Joint1
vertex Root 1
0 1.0 0.0
1 0.5 0.5
2 0   1 # top
`

func bind(t *testing.T, text string) *skin.WeightMap {
	t.Helper()
	wt, err := skin.ParseWeightsData([]byte(text))
	require.NoError(t, err)
	wm, err := wt.Bind(jointIds, restMesh, restJoints)
	require.NoError(t, err)
	return wm
}

func restTransforms() []mgl64.Mat4 {
	transforms := make([]mgl64.Mat4, len(restJoints))
	for i, p := range restJoints {
		transforms[i] = mgl64.Translate3D(p[0], p[1], p[2])
	}
	return transforms
}

func assertVec3s(t *testing.T, expected, actual []mgl64.Vec3, eps float64) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		if !expected[i].ApproxEqualThreshold(actual[i], eps) {
			t.Errorf("vertex %d: expected %v, got %v", i, expected[i], actual[i])
		}
	}
}

func TestParseWeights(t *testing.T) {
	wt, err := skin.ParseWeightsData([]byte(weightsText))
	require.NoError(t, err)

	assert.Equal(t, "vertex", wt.Label)
	assert.Equal(t, []string{"Root", "1"}, wt.Joints)
	require.Len(t, wt.Rows, 3)
	assert.Equal(t, skin.WeightRow{Vertex: 1, Weights: []float64{0.5, 0.5}}, wt.Rows[1])
}

var badWeights = []struct {
	name string
	text string
	line int
}{
	{"empty", "# only a comment\n", 1},
	{"no joints", "vertex\n0\n", 1},
	{"repeated column", "vertex Root Root\n", 1},
	{"short row", "vertex Root 1\n0 1\n", 2},
	{"bad vertex", "vertex Root\n-1 1\n", 2},
	{"repeated vertex", "vertex Root\n0 1\n0 1\n", 3},
	{"not a number", "vertex Root\n0 one\n", 2},
	{"above one", "vertex Root\n0 1.5\n", 2},
	{"negative", "vertex Root\n\n0 -0.1\n", 3},
	{"no rows", "vertex Root\n", 1},
}

func TestParseWeightsErrors(t *testing.T) {
	for _, test := range badWeights {
		_, err := skin.ParseWeightsData([]byte(test.text))
		if assert.Error(t, err, test.name) {
			assert.True(t, errors.Is(err, skin.ErrWeightParse), test.name)
			var syntaxErr *skin.SyntaxError
			if assert.True(t, errors.As(err, &syntaxErr), test.name) {
				assert.Equal(t, test.line, syntaxErr.Line, test.name)
			}
		}
	}
}

func TestParseWeightsFileMissing(t *testing.T) {
	_, err := skin.ParseWeightsFile(filepath.Join(t.TempDir(), "none.txt"))
	assert.True(t, errors.Is(err, skin.ErrFileUnreadable))
	assert.False(t, errors.Is(err, skin.ErrWeightParse))
}

func TestBind(t *testing.T) {
	wm := bind(t, weightsText)

	require.Len(t, wm.Vertices, len(restMesh))
	assert.Equal(t, len(restJoints), wm.JointCount)

	v0 := wm.Vertices[0]
	require.Len(t, v0.Influences, 1, "zero weights are dropped")
	assert.Equal(t, 0, v0.Influences[0].Joint)
	assert.Equal(t, mgl64.Vec3{0.5, 0.2, 0}, v0.Influences[0].BindOffset)

	v1 := wm.Vertices[1]
	require.Len(t, v1.Influences, 2)
	assert.Equal(t, 0, v1.Dominant, "first joint wins a tie")
	assert.Equal(t, mgl64.Vec3{0.5, 0, 0}, v1.Influences[1].BindOffset)

	v2 := wm.Vertices[2]
	assert.Equal(t, 1, v2.Influences[v2.Dominant].Joint)

	assert.Equal(t, -1, wm.Vertices[3].Dominant, "vertex without a row")
	assert.Equal(t, 3, wm.SkinnedCount())
}

func TestBindErrors(t *testing.T) {
	for _, text := range []string{
		"vertex Pelvis\n0 1\n",
		"vertex 3\n0 1\n",
		"vertex Joint1 1\n0 0.5 0.5\n",
		"vertex Root\n4 1\n",
	} {
		wt, err := skin.ParseWeightsData([]byte(text))
		require.NoError(t, err, text)
		_, err = wt.Bind(jointIds, restMesh, restJoints)
		assert.True(t, errors.Is(err, skin.ErrBind), text)
	}
}

func TestRestTransformsReproduceRest(t *testing.T) {
	wm := bind(t, weightsText)
	transforms := restTransforms()

	for _, mode := range []skin.Mode{skin.ModeRigid, skin.ModeSmooth} {
		deformed := skin.Deform(mode, transforms, restMesh, wm, nil)
		assertVec3s(t, restMesh, deformed, 1e-6)
	}
}

func TestRigidSingleJointEqualsSmooth(t *testing.T) {
	wm := bind(t, "vertex Joint1\n0 1\n1 1\n2 1\n3 1\n")
	transforms := restTransforms()
	transforms[1] = mgl64.Translate3D(0, 1, 0).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(90))).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(30)))

	rigid := skin.Deform(skin.ModeRigid, transforms, restMesh, wm, nil)
	smooth := skin.Deform(skin.ModeSmooth, transforms, restMesh, wm, nil)
	assertVec3s(t, rigid, smooth, 1e-12)
}

func TestRigidAndSmoothDiffer(t *testing.T) {
	wm := bind(t, weightsText)
	transforms := restTransforms()
	transforms[1] = mgl64.Translate3D(0, 1, 0).Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(90)))

	rigid := skin.Deform(skin.ModeRigid, transforms, restMesh, wm, nil)
	smooth := skin.Deform(skin.ModeSmooth, transforms, restMesh, wm, nil)

	// vertex 1 follows Root alone in rigid mode
	assertVec3s(t, []mgl64.Vec3{restMesh[1]}, rigid[1:2], 1e-12)
	// half of the rest position plus half of (0.5,0,0) rotated about Joint1
	expected := restMesh[1].Mul(0.5).Add(mgl64.Vec3{0, 1.5, 0}.Mul(0.5))
	assertVec3s(t, []mgl64.Vec3{expected}, smooth[1:2], 1e-12)

	assertVec3s(t, []mgl64.Vec3{{-0.8, 1.5, 0}}, rigid[2:3], 1e-12)
	assert.Equal(t, restMesh[3], smooth[3])
}

func TestSmoothUsesWeightsAsGiven(t *testing.T) {
	wm := bind(t, "vertex Root\n0 0.5\n")
	deformed := skin.Deform(skin.ModeSmooth, restTransforms(), restMesh, wm, nil)
	assertVec3s(t, []mgl64.Vec3{restMesh[0].Mul(0.5)}, deformed[:1], 1e-12)

	assert.Equal(t, []int{0}, wm.Unnormalized(1e-6))
	assert.InDelta(t, 0.5, wm.WeightSums()[0], 1e-12)
	assert.Empty(t, bind(t, weightsText).Unnormalized(1e-6))
}

func TestDeformReusesOutput(t *testing.T) {
	wm := bind(t, weightsText)
	out := make([]mgl64.Vec3, len(restMesh))
	result := skin.Deform(skin.ModeSmooth, restTransforms(), restMesh, wm, out)
	assert.Same(t, &out[0], &result[0])

	fallback := skin.Deform(skin.ModeSmooth, nil, restMesh, nil, make([]mgl64.Vec3, 1))
	assert.Equal(t, restMesh, fallback)
}

func TestDeformPanicsOnWrongInput(t *testing.T) {
	wm := bind(t, weightsText)
	assert.Panics(t, func() { skin.Deform(skin.ModeSmooth, restTransforms()[:2], restMesh, wm, nil) })
	assert.Panics(t, func() { skin.Deform(skin.ModeSmooth, restTransforms(), restMesh[:2], wm, nil) })
}

func TestParseMode(t *testing.T) {
	mode, err := skin.ParseMode("Rigid")
	require.NoError(t, err)
	assert.Equal(t, skin.ModeRigid, mode)
	assert.Equal(t, "smooth", skin.ModeSmooth.String())

	_, err = skin.ParseMode("dual-quaternion")
	assert.Error(t, err)
}

func TestJointColors(t *testing.T) {
	wm := bind(t, weightsText)
	colors := wm.JointColors(1)

	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, colors[0])
	assert.Equal(t, color.NRGBA{128, 0, 128, 255}, colors[1])
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, colors[2])
	assert.Panics(t, func() { wm.JointColors(3) })
}
