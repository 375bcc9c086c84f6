package skin

import (
	"math"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

type Influence struct {
	Joint  int
	Weight float64
	// BindOffset is the rest vertex relative to the rest position of Joint
	BindOffset mgl64.Vec3
}

type VertexWeights struct {
	Influences []Influence
	// Dominant indexes Influences, -1 when the vertex is not skinned
	Dominant int
}

func (vw *VertexWeights) Sum() float64 {
	sum := 0.0
	for _, inf := range vw.Influences {
		sum += inf.Weight
	}
	return sum
}

// WeightMap binds a weight table to one mesh and one skeleton.
type WeightMap struct {
	Vertices   []VertexWeights
	JointCount int
}

func (wt *WeightTable) resolveJoints(jointIds map[string]int, jointCount int) ([]int, error) {
	ids := make([]int, len(wt.Joints))
	used := make(map[int]string, len(wt.Joints))
	for i, name := range wt.Joints {
		id, ok := jointIds[name]
		if !ok {
			var err error
			if id, err = strconv.Atoi(name); err != nil {
				return nil, errors.Wrapf(ErrBind, "unknown joint %q", name)
			}
			if id < 0 || id >= jointCount {
				return nil, errors.Wrapf(ErrBind, "joint id %d out of range [0, %d)", id, jointCount)
			}
		}
		if other, ok := used[id]; ok {
			return nil, errors.Wrapf(ErrBind, "columns %q and %q name the same joint", other, name)
		}
		used[id] = name
		ids[i] = id
	}
	return ids, nil
}

// Bind resolves joint columns against the skeleton and computes bind
// offsets from the rest mesh and rest joint positions. Zero weights are
// dropped. Vertices without a row stay unskinned.
func (wt *WeightTable) Bind(jointIds map[string]int, restMesh []mgl64.Vec3, restJoints []mgl64.Vec3) (*WeightMap, error) {
	ids, err := wt.resolveJoints(jointIds, len(restJoints))
	if err != nil {
		return nil, err
	}

	wm := &WeightMap{
		Vertices:   make([]VertexWeights, len(restMesh)),
		JointCount: len(restJoints),
	}
	for i := range wm.Vertices {
		wm.Vertices[i].Dominant = -1
	}

	for _, row := range wt.Rows {
		if row.Vertex >= len(restMesh) {
			return nil, errors.Wrapf(ErrBind, "vertex %d out of range [0, %d)", row.Vertex, len(restMesh))
		}
		vw := &wm.Vertices[row.Vertex]
		best := 0.0
		for column, w := range row.Weights {
			if w == 0 {
				continue
			}
			joint := ids[column]
			if w > best {
				best = w
				vw.Dominant = len(vw.Influences)
			}
			vw.Influences = append(vw.Influences, Influence{
				Joint:      joint,
				Weight:     w,
				BindOffset: restMesh[row.Vertex].Sub(restJoints[joint]),
			})
		}
	}

	return wm, nil
}

func (wm *WeightMap) WeightSums() []float64 {
	sums := make([]float64, len(wm.Vertices))
	for i := range wm.Vertices {
		sums[i] = wm.Vertices[i].Sum()
	}
	return sums
}

// Unnormalized lists skinned vertices whose weights do not sum to 1.
func (wm *WeightMap) Unnormalized(tolerance float64) []int {
	var result []int
	for i := range wm.Vertices {
		if wm.Vertices[i].Dominant < 0 {
			continue
		}
		if math.Abs(wm.Vertices[i].Sum()-1) > tolerance {
			result = append(result, i)
		}
	}
	return result
}

func (wm *WeightMap) SkinnedCount() int {
	count := 0
	for i := range wm.Vertices {
		if wm.Vertices[i].Dominant >= 0 {
			count++
		}
	}
	return count
}
