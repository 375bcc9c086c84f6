package skeleton

import (
	"fmt"
	"math"
	"strings"
)

const DEFAULT_DOF_TOLERANCE = 1e-4

// RotationDOFs counts, per joint, the rotation channels whose value
// actually changes over the motion by more than tolerance.
func (s *Skeleton) RotationDOFs(tolerance float64) []int {
	dofs := make([]int, len(s.joints))
	for i := range s.joints {
		for _, curve := range s.joints[i].Curves {
			if !curve.Channel.IsRotation() || len(curve.Values) == 0 {
				continue
			}
			min, max := math.Inf(1), math.Inf(-1)
			for _, v := range curve.Values {
				min = math.Min(min, v)
				max = math.Max(max, v)
			}
			if max-min > tolerance {
				dofs[i]++
			}
		}
	}
	return dofs
}

func (s *Skeleton) DOFReport(tolerance float64) string {
	var b strings.Builder
	dofs := s.RotationDOFs(tolerance)
	s.Walk(func(id, depth int) bool {
		if len(s.joints[id].Curves) != 0 {
			fmt.Fprintf(&b, "%s%s : %d degree(s) of freedom in rotation\n",
				strings.Repeat("  ", depth), s.joints[id].Name, dofs[id])
		}
		return true
	})
	return b.String()
}
