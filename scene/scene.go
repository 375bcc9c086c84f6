package scene

import (
	"image/color"
	"log"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/bvh"
	"github.com/mogaika/bvh_skinning/config"
	"github.com/mogaika/bvh_skinning/mesh"
	"github.com/mogaika/bvh_skinning/player"
	"github.com/mogaika/bvh_skinning/skeleton"
	"github.com/mogaika/bvh_skinning/skin"
	"github.com/mogaika/bvh_skinning/status"
)

var (
	ErrNoSkeleton = errors.New("no skeleton loaded")
	ErrNoMesh     = errors.New("no mesh loaded")
)

const WEIGHT_SUM_TOLERANCE = 1e-3

type SkeletonInfo struct {
	JointCount int
	EdgeCount  int
	FrameCount int
	FrameTime  float64
}

// Scene is the session context: one skeleton with its player, one rest
// mesh and the weights binding them. Scene is not safe for concurrent
// use.
type Scene struct {
	cfg  *config.Config
	mode skin.Mode

	skeletonPath string
	skel         *skeleton.Skeleton
	player       *player.Player
	restJoints   []mgl64.Vec3
	lineIndices  []uint32

	meshPath string
	mesh     *mesh.Mesh

	weightsPath string
	weights     *skin.WeightTable
	weightMap   *skin.WeightMap

	loads uint64
}

func New(cfg *config.Config) *Scene {
	mode, err := skin.ParseMode(cfg.Mode)
	if err != nil {
		log.Printf("[scene] %v, using %v", err, mode)
	}
	return &Scene{cfg: cfg, mode: mode}
}

// LoadConfigured loads every file named by the config. A weight failure
// is not fatal and only leaves skinning disabled.
func (s *Scene) LoadConfigured() error {
	if s.cfg.Skeleton != "" {
		if _, err := s.LoadSkeleton(s.cfg.Skeleton); err != nil {
			return err
		}
	}
	if s.cfg.Mesh != "" {
		if err := s.LoadMesh(s.cfg.Mesh); err != nil {
			return err
		}
	}
	if s.cfg.Weights != "" {
		if err := s.LoadWeights(s.cfg.Weights); err != nil {
			log.Printf("[scene] Continuing without skinning: %v", err)
		}
	}
	return nil
}

// LoadSkeleton replaces the skeleton and restarts playback. On failure the
// previous scene stays untouched. Loaded weights are bound again to the
// new joints.
func (s *Scene) LoadSkeleton(path string) (SkeletonInfo, error) {
	m, err := bvh.ParseFile(path)
	if err != nil {
		status.Error("Failed to load skeleton %q: %v", path, err)
		return SkeletonInfo{}, err
	}

	skel := skeleton.New(m)
	p := player.New(skel, 0)
	p.SetMode(s.mode)
	p.SetPaused(s.cfg.Paused)

	restJoints := make([]mgl64.Vec3, skel.JointCount())
	skel.ComputeRestPositions(restJoints, s.restBase(skel))

	s.skeletonPath = path
	s.skel = skel
	s.player = p
	s.restJoints = restJoints
	s.lineIndices = skel.LineIndices()
	s.loads++
	s.rebind()

	info := s.SkeletonInfo()
	status.Info("Loaded skeleton %q: %d joints, %d frames", path, info.JointCount, info.FrameCount)
	return info, nil
}

func (s *Scene) restBase(skel *skeleton.Skeleton) mgl64.Vec3 {
	if s.cfg.BaseOffset != nil {
		return mgl64.Vec3(*s.cfg.BaseOffset)
	}
	return skel.Joint(0).Offset
}

// LoadMesh replaces the rest mesh. On failure the previous mesh stays.
func (s *Scene) LoadMesh(path string) error {
	m, err := mesh.LoadObjFile(path)
	if err != nil {
		status.Error("Failed to load mesh %q: %v", path, err)
		return err
	}
	s.meshPath = path
	s.mesh = m
	s.loads++
	s.rebind()
	status.Info("Loaded mesh %q: %d vertices", path, len(m.Vertices))
	return nil
}

// LoadWeights binds a weight file to the current skeleton and mesh. An
// unreadable file leaves the scene as it was. Any other failure disables
// skinning, the mesh then follows no joint and stays in rest pose.
func (s *Scene) LoadWeights(path string) error {
	err := s.loadWeights(path)
	if errors.Is(err, skin.ErrFileUnreadable) {
		status.Warning("Failed to read weights %q, keeping current skinning: %v", path, err)
		return err
	}
	if err != nil {
		s.weights = nil
		s.weightsPath = ""
		s.setWeightMap(nil)
		status.Warning("Skinning disabled, mesh stays in rest pose: %v", err)
	}
	return err
}

func (s *Scene) loadWeights(path string) error {
	if s.skel == nil {
		return ErrNoSkeleton
	}
	if s.mesh == nil {
		return ErrNoMesh
	}
	wt, err := skin.ParseWeightsFile(path)
	if err != nil {
		return err
	}
	wm, err := wt.Bind(s.skel.JointIds(), s.mesh.Vertices, s.restJoints)
	if err != nil {
		return errors.Wrapf(err, "Failed to bind %q", path)
	}
	s.weightsPath = path
	s.weights = wt
	s.loads++
	s.setWeightMap(wm)
	return nil
}

// rebind applies the loaded weight table to the current skeleton and mesh.
func (s *Scene) rebind() {
	if s.weights == nil || s.skel == nil || s.mesh == nil {
		s.setWeightMap(nil)
		return
	}
	wm, err := s.weights.Bind(s.skel.JointIds(), s.mesh.Vertices, s.restJoints)
	if err != nil {
		s.weights = nil
		s.weightsPath = ""
		s.setWeightMap(nil)
		status.Warning("Skinning disabled, weights do not fit anymore: %v", err)
		return
	}
	s.setWeightMap(wm)
}

func (s *Scene) setWeightMap(wm *skin.WeightMap) {
	s.weightMap = wm
	if wm != nil {
		if bad := wm.Unnormalized(WEIGHT_SUM_TOLERANCE); len(bad) != 0 {
			status.Warning("%d of %d skinned vertices have weights not summing to 1 (first: %d)",
				len(bad), wm.SkinnedCount(), bad[0])
		}
	}
	if s.player == nil {
		return
	}
	if s.mesh == nil {
		s.player.SetSkin(nil, nil)
	} else {
		s.player.SetSkin(s.mesh.Vertices, wm)
	}
}

func (s *Scene) SkeletonInfo() SkeletonInfo {
	if s.skel == nil {
		return SkeletonInfo{}
	}
	return SkeletonInfo{
		JointCount: s.skel.JointCount(),
		EdgeCount:  s.skel.EdgeCount(),
		FrameCount: s.skel.FrameCount(),
		FrameTime:  s.skel.FrameTime(),
	}
}

func (s *Scene) Skeleton() *skeleton.Skeleton { return s.skel }
func (s *Scene) Mesh() *mesh.Mesh             { return s.mesh }
func (s *Scene) SkinningEnabled() bool        { return s.weightMap != nil }
func (s *Scene) SkinningMode() skin.Mode      { return s.mode }

func (s *Scene) SetSkinningMode(mode skin.Mode) {
	s.mode = mode
	if s.player != nil {
		s.player.SetMode(mode)
	}
}

func (s *Scene) SetPaused(paused bool) {
	s.cfg.Paused = paused
	if s.player != nil {
		s.player.SetPaused(paused)
	}
}

func (s *Scene) Paused() bool { return s.cfg.Paused }

// AdvanceFrame moves the clock by dt seconds and returns the frame shown.
func (s *Scene) AdvanceFrame(dt float64) (int, error) {
	if s.player == nil {
		return 0, ErrNoSkeleton
	}
	return s.player.Advance(dt), nil
}

func (s *Scene) Seek(frame int) (int, error) {
	if s.player == nil {
		return 0, ErrNoSkeleton
	}
	return s.player.Seek(frame), nil
}

func (s *Scene) Frame() int {
	if s.player == nil {
		return 0
	}
	return s.player.Frame()
}

// Revision changes every time the frame buffers are recomputed or an
// input file is loaded.
func (s *Scene) Revision() uint64 {
	if s.player == nil {
		return 0
	}
	return s.loads<<40 | s.player.Revision()
}

func (s *Scene) animated() bool {
	return s.player != nil && s.player.Animated()
}

// JointWorldTransforms returns the transforms of the last frame, or the
// bind pose before the first one.
func (s *Scene) JointWorldTransforms() []mgl64.Mat4 {
	if s.skel == nil {
		return nil
	}
	if !s.animated() {
		return s.skel.RestTransforms(s.restJoints[0])
	}
	return s.player.Transforms()
}

func (s *Scene) SkeletonVertices() []mgl64.Vec3 {
	if s.skel == nil {
		return nil
	}
	if !s.animated() {
		return s.restJoints
	}
	return s.player.Positions()
}

func (s *Scene) SkeletonIndices() []uint32 {
	return s.lineIndices
}

// DeformedMeshVertices returns the skinned mesh of the last frame. The
// rest mesh is returned while nothing was animated or skinning is off.
func (s *Scene) DeformedMeshVertices() []mgl64.Vec3 {
	if s.mesh == nil {
		return nil
	}
	if !s.animated() || s.player.Deformed() == nil {
		return s.mesh.Vertices
	}
	return s.player.Deformed()
}

func (s *Scene) MeshIndices() []uint32 {
	if s.mesh == nil {
		return nil
	}
	return s.mesh.Indexes
}

// WeightColors resolves joint by name or id and returns its heat map.
func (s *Scene) WeightColors(joint string) ([]color.NRGBA, error) {
	if s.weightMap == nil {
		return nil, errors.Errorf("Skinning is disabled")
	}
	id, ok := s.skel.JointIds()[joint]
	if !ok {
		var err error
		if id, err = strconv.Atoi(joint); err != nil {
			return nil, errors.Errorf("Unknown joint %q", joint)
		}
	}
	if id < 0 || id >= s.skel.JointCount() {
		return nil, errors.Errorf("Unknown joint %q", joint)
	}
	return s.weightMap.JointColors(id), nil
}
