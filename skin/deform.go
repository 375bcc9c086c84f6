package skin

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/utils"
)

type Mode int

const (
	ModeRigid Mode = iota
	ModeSmooth
)

func (m Mode) String() string {
	switch m {
	case ModeRigid:
		return "rigid"
	case ModeSmooth:
		return "smooth"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "rigid":
		return ModeRigid, nil
	case "smooth", "linear", "lbs":
		return ModeSmooth, nil
	}
	return ModeSmooth, errors.Errorf("Unknown skinning mode %q", s)
}

func transformPoint(m *mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// Deform writes the skinned rest mesh into out and returns it. out is
// reallocated when its length does not match restMesh. A nil weight map
// gives the rest mesh back. Rigid mode follows the dominant joint only,
// smooth mode sums every weighted contribution as given.
func Deform(mode Mode, transforms []mgl64.Mat4, restMesh []mgl64.Vec3, wm *WeightMap, out []mgl64.Vec3) []mgl64.Vec3 {
	if len(out) != len(restMesh) {
		out = make([]mgl64.Vec3, len(restMesh))
	}
	if wm == nil {
		copy(out, restMesh)
		return out
	}
	if len(wm.Vertices) != len(restMesh) {
		panic(fmt.Sprintf("weight map of %d vertices for mesh of %d", len(wm.Vertices), len(restMesh)))
	}
	if len(transforms) != wm.JointCount {
		panic(fmt.Sprintf("%d transforms for weight map bound to %d joints", len(transforms), wm.JointCount))
	}

	for i := range restMesh {
		vw := &wm.Vertices[i]
		if vw.Dominant < 0 {
			out[i] = restMesh[i]
			continue
		}

		switch mode {
		case ModeRigid:
			inf := &vw.Influences[vw.Dominant]
			out[i] = transformPoint(&transforms[inf.Joint], inf.BindOffset)
		case ModeSmooth:
			var sum mgl64.Vec3
			for j := range vw.Influences {
				inf := &vw.Influences[j]
				sum = sum.Add(transformPoint(&transforms[inf.Joint], inf.BindOffset).Mul(inf.Weight))
			}
			out[i] = sum
		default:
			panic(fmt.Sprintf("unknown skinning mode %v", mode))
		}
	}
	return out
}

var (
	coldColor = utils.ColorFloat{0, 0, 1, 1}
	hotColor  = utils.ColorFloat{1, 0, 0, 1}
)

// JointColors maps the influence of joint on every vertex to a blue (none)
// to red (full) color.
func (wm *WeightMap) JointColors(joint int) []color.NRGBA {
	if joint < 0 || joint >= wm.JointCount {
		panic(fmt.Sprintf("joint %d out of range [0, %d)", joint, wm.JointCount))
	}
	colors := make([]color.NRGBA, len(wm.Vertices))
	for i := range wm.Vertices {
		weight := 0.0
		for _, inf := range wm.Vertices[i].Influences {
			if inf.Joint == joint {
				weight = inf.Weight
				break
			}
		}
		colors[i] = coldColor.Lerp(hotColor, float32(weight)).NRGBA()
	}
	return colors
}
