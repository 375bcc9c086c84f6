package web

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/bvh_skinning/config"
	"github.com/mogaika/bvh_skinning/scene"
)

const chainBVH = `HIERARCHY
ROOT Root
{
	OFFSET 0 0 0
	CHANNELS 6 Xposition Yposition Zposition Zrotation Yrotation Xrotation
	JOINT Joint1
	{
		OFFSET 0 1 0
		CHANNELS 3 Zrotation Yrotation Xrotation
		End Site
		{
			OFFSET 0 1 0
		}
	}
}
MOTION
Frames: 2
Frame Time: 0.5
0 0 0 0 0 0 0 0 0
0 0 0 0 0 0 90 0 0
`

func writeFile(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, ioutil.WriteFile(path, []byte(text), 0644))
	return path
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Skeleton = writeFile(t, "chain.bvh", chainBVH)
	cfg.Mesh = writeFile(t, "tri.obj", "v 0.5 1.5 0\nv -0.5 1.5 0\nv 0 2 0\nf 1 2 3\n")
	cfg.Weights = writeFile(t, "weights.txt", "vertex Joint1\n0 1\n1 1\n2 1\n")

	s := scene.New(cfg)
	require.NoError(t, s.LoadConfigured())
	return NewRouter(s)
}

func do(t *testing.T, h http.Handler, method, target string, body url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestJsonScene(t *testing.T) {
	h := newTestRouter(t)

	var js jsonScene
	decode(t, do(t, h, "GET", "/json/scene", nil), &js)
	assert.Equal(t, scene.SkeletonInfo{JointCount: 3, EdgeCount: 2, FrameCount: 2, FrameTime: 0.5}, js.Skeleton)
	assert.Equal(t, "smooth", js.Mode)
	assert.True(t, js.SkinningEnabled)
	assert.Equal(t, 3, js.MeshVertices)
	assert.Equal(t, 1, js.MeshTriangles)

	var indices []uint32
	decode(t, do(t, h, "GET", "/json/skeleton/indices", nil), &indices)
	assert.Equal(t, []uint32{0, 1, 1, 2}, indices)

	var transforms [][16]float32
	decode(t, do(t, h, "GET", "/json/skeleton/transforms", nil), &transforms)
	require.Len(t, transforms, 3)
	assert.Equal(t, float32(1), transforms[1][13])
}

func TestActionsDriveFrames(t *testing.T) {
	h := newTestRouter(t)

	var js jsonScene
	decode(t, do(t, h, "POST", "/action/advance/0.5", nil), &js)
	assert.Equal(t, 1, js.Frame)

	var joints [][3]float32
	decode(t, do(t, h, "GET", "/json/skeleton/vertices", nil), &joints)
	require.Len(t, joints, 3)
	assert.InDelta(t, -1, joints[2][0], 1e-6)

	var vertices [][3]float32
	decode(t, do(t, h, "GET", "/json/mesh/vertices", nil), &vertices)
	require.Len(t, vertices, 3)
	assert.InDelta(t, -0.5, vertices[0][0], 1e-6)
	assert.InDelta(t, 1.5, vertices[0][1], 1e-6)

	decode(t, do(t, h, "POST", "/action/mode/rigid", nil), &js)
	assert.Equal(t, "rigid", js.Mode)

	decode(t, do(t, h, "POST", "/action/pause/true", nil), &js)
	assert.True(t, js.Paused)

	decode(t, do(t, h, "POST", "/action/seek/2", nil), &js)
	assert.Equal(t, 0, js.Frame)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/action/advance/-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/action/advance/Inf", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/action/advance/NaN", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/action/mode/wobbly", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, "GET", "/action/seek/0", nil).Code)
}

func TestMeshWeights(t *testing.T) {
	h := newTestRouter(t)

	var colors [][4]uint8
	decode(t, do(t, h, "GET", "/json/mesh/weights/Joint1", nil), &colors)
	assert.Equal(t, [][4]uint8{{255, 0, 0, 255}, {255, 0, 0, 255}, {255, 0, 0, 255}}, colors)

	rec := do(t, h, "GET", "/json/mesh/weights/Pelvis", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestActionLoad(t *testing.T) {
	h := newTestRouter(t)

	bad := writeFile(t, "bad.txt", "vertex Joint1\n0 7\n")
	rec := do(t, h, "POST", "/action/load/weights", url.Values{"path": {bad}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var js jsonScene
	decode(t, do(t, h, "GET", "/json/scene", nil), &js)
	assert.False(t, js.SkinningEnabled)

	rec = do(t, h, "POST", "/action/load/skeleton", url.Values{"path": {filepath.Join(t.TempDir(), "none.bvh")}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/action/load/texture", url.Values{"path": {bad}}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/action/load/mesh", nil).Code)
}

func TestExports(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, "GET", "/export/glb", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "glTF", rec.Body.String()[:4])
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "scene.glb")

	rec = do(t, h, "GET", "/export/obj", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "o tri\n"))

	rec = do(t, h, "GET", "/export/fbx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Kaydara FBX Binary"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "scene.fbx")
}

func TestFrameStream(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/frames"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first jsonFrame
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 0, first.Frame)
	assert.Len(t, first.Joints, 3)
	assert.Len(t, first.Vertices, 3)

	resp, err := http.Post(server.URL+"/action/advance/0.5", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()

	var next jsonFrame
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, 1, next.Frame)
	assert.NotEqual(t, first.Revision, next.Revision)
}
