package web

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/scene"
	"github.com/mogaika/bvh_skinning/skin"
	"github.com/mogaika/bvh_skinning/utils"
	"github.com/mogaika/bvh_skinning/webutils"
)

type jsonScene struct {
	Skeleton        scene.SkeletonInfo
	MeshVertices    int
	MeshTriangles   int
	Mode            string
	Frame           int
	Paused          bool
	SkinningEnabled bool
	Revision        uint64
}

func sceneSummary(s *scene.Scene) *jsonScene {
	js := &jsonScene{
		Skeleton:        s.SkeletonInfo(),
		Mode:            s.SkinningMode().String(),
		Frame:           s.Frame(),
		Paused:          s.Paused(),
		SkinningEnabled: s.SkinningEnabled(),
		Revision:        s.Revision(),
	}
	if m := s.Mesh(); m != nil {
		js.MeshVertices = len(m.Vertices)
		js.MeshTriangles = m.TrianglesCount()
	}
	return js
}

func HandlerJsonScene(w http.ResponseWriter, r *http.Request) {
	var js *jsonScene
	withScene(func(s *scene.Scene) { js = sceneSummary(s) })
	webutils.WriteJson(w, js)
}

func HandlerJsonSkeletonTransforms(w http.ResponseWriter, r *http.Request) {
	var transforms []mgl32.Mat4
	withScene(func(s *scene.Scene) { transforms = utils.Mat4sTo32(s.JointWorldTransforms()) })
	webutils.WriteJson(w, transforms)
}

func HandlerJsonSkeletonVertices(w http.ResponseWriter, r *http.Request) {
	var vertices [][3]float32
	withScene(func(s *scene.Scene) { vertices = utils.Vec3sTo32(s.SkeletonVertices()) })
	webutils.WriteJson(w, vertices)
}

func HandlerJsonSkeletonIndices(w http.ResponseWriter, r *http.Request) {
	var indices []uint32
	withScene(func(s *scene.Scene) { indices = s.SkeletonIndices() })
	webutils.WriteJson(w, indices)
}

func HandlerJsonMeshVertices(w http.ResponseWriter, r *http.Request) {
	var vertices [][3]float32
	withScene(func(s *scene.Scene) { vertices = utils.Vec3sTo32(s.DeformedMeshVertices()) })
	webutils.WriteJson(w, vertices)
}

func HandlerJsonMeshIndices(w http.ResponseWriter, r *http.Request) {
	var indices []uint32
	withScene(func(s *scene.Scene) { indices = s.MeshIndices() })
	webutils.WriteJson(w, indices)
}

func HandlerJsonMeshWeights(w http.ResponseWriter, r *http.Request) {
	joint := mux.Vars(r)["joint"]
	var rgba [][4]uint8
	var err error
	withScene(func(s *scene.Scene) {
		colors, cerr := s.WeightColors(joint)
		if cerr != nil {
			err = cerr
			return
		}
		rgba = make([][4]uint8, len(colors))
		for i, c := range colors {
			rgba[i] = [4]uint8{c.R, c.G, c.B, c.A}
		}
	})
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusNotFound, err)
	} else {
		webutils.WriteJson(w, rgba)
	}
}

// answerAction reports the scene state after an action and pushes the
// resulting frame to stream listeners.
func answerAction(w http.ResponseWriter, err error) {
	if err != nil {
		webutils.WriteErrorCode(w, http.StatusBadRequest, err)
		return
	}
	var js *jsonScene
	withScene(func(s *scene.Scene) { js = sceneSummary(s) })
	broadcastFrame()
	webutils.WriteJson(w, js)
}

func HandlerActionAdvance(w http.ResponseWriter, r *http.Request) {
	dt, err := strconv.ParseFloat(mux.Vars(r)["dt"], 64)
	if err != nil || !(dt >= 0) || math.IsInf(dt, 1) {
		answerAction(w, fmt.Errorf("param '%s' is not a finite non negative number", mux.Vars(r)["dt"]))
		return
	}
	withScene(func(s *scene.Scene) { _, err = s.AdvanceFrame(dt) })
	answerAction(w, err)
}

func HandlerActionSeek(w http.ResponseWriter, r *http.Request) {
	frame, err := strconv.Atoi(mux.Vars(r)["frame"])
	if err != nil {
		answerAction(w, fmt.Errorf("param '%s' is not integer", mux.Vars(r)["frame"]))
		return
	}
	withScene(func(s *scene.Scene) { _, err = s.Seek(frame) })
	answerAction(w, err)
}

func HandlerActionPause(w http.ResponseWriter, r *http.Request) {
	paused, err := strconv.ParseBool(mux.Vars(r)["paused"])
	if err != nil {
		answerAction(w, fmt.Errorf("param '%s' is not boolean", mux.Vars(r)["paused"]))
		return
	}
	withScene(func(s *scene.Scene) { s.SetPaused(paused) })
	answerAction(w, nil)
}

func HandlerActionMode(w http.ResponseWriter, r *http.Request) {
	mode, err := skin.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		answerAction(w, err)
		return
	}
	withScene(func(s *scene.Scene) { s.SetSkinningMode(mode) })
	answerAction(w, nil)
}

// HandlerActionLoad reloads one input of the scene from the "path" form
// value.
func HandlerActionLoad(w http.ResponseWriter, r *http.Request) {
	kind := mux.Vars(r)["kind"]
	path := r.FormValue("path")
	if path == "" {
		answerAction(w, errors.Errorf("Missing 'path' form value"))
		return
	}

	var err error
	withScene(func(s *scene.Scene) {
		switch kind {
		case "skeleton":
			_, err = s.LoadSkeleton(path)
		case "mesh":
			err = s.LoadMesh(path)
		case "weights":
			err = s.LoadWeights(path)
		default:
			err = errors.Errorf("Unknown load kind %q", kind)
		}
	})
	answerAction(w, err)
}

func HandlerExportGlb(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var err error
	withScene(func(s *scene.Scene) { err = s.ExportGLTF(&buf) })
	if err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteFile(w, &buf, "scene.glb")
	}
}

func HandlerExportObj(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var err error
	withScene(func(s *scene.Scene) { err = s.ExportObj(&buf) })
	if err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteFile(w, &buf, "scene.obj")
	}
}

func HandlerExportFbx(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	var err error
	withScene(func(s *scene.Scene) { err = s.ExportFBX(&buf) })
	if err != nil {
		webutils.WriteError(w, err)
	} else {
		webutils.WriteFile(w, &buf, "scene.fbx")
	}
}
