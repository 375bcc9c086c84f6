package skeleton

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mogaika/bvh_skinning/bvh"
	"github.com/mogaika/bvh_skinning/utils"
)

func (s *Skeleton) StringJoint(id int, spaces string) string {
	j := &s.joints[id]
	r := s.poses[id].Rotation()
	return fmt.Sprintf("%sjoint [%d <=%d] %s:\n%s  offset: %s\n%s  rotation zyx: %s\n%s  channels: %s\n",
		spaces, j.Id, j.Parent, j.Name,
		spaces, utils.SPrint(j.Offset),
		spaces, utils.SPrint([3]float64{r[2], r[1], r[0]}),
		spaces, utils.SPrint(channelList(j.Curves)))
}

func channelList(curves []bvh.AnimCurve) []string {
	names := make([]string, len(curves))
	for i, c := range curves {
		names[i] = c.Channel.String()
	}
	return names
}

// StringTree prints the hierarchy with the current pose, any depth.
func (s *Skeleton) StringTree() string {
	var buffer bytes.Buffer
	s.Walk(func(id, depth int) bool {
		buffer.WriteString(s.StringJoint(id, strings.Repeat("  ", depth)))
		return true
	})
	return buffer.String()
}

// Dump animates frame and returns the resulting tree.
func (s *Skeleton) Dump(frame int) string {
	s.Animate(frame)
	return fmt.Sprintf("Frame nb : %d\n%s", frame, s.StringTree())
}

func (s *Skeleton) String() string {
	var buffer bytes.Buffer
	s.Walk(func(id, depth int) bool {
		fmt.Fprintf(&buffer, "%s%s %d\n", strings.Repeat("  ", depth), s.joints[id].Name, id)
		return true
	})
	return buffer.String()
}
