package bvh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Channel is one animated degree of freedom. Values double as indexes
// into a joint pose.
type Channel int

const (
	CHANNEL_XPOSITION Channel = iota
	CHANNEL_YPOSITION
	CHANNEL_ZPOSITION
	CHANNEL_XROTATION
	CHANNEL_YROTATION
	CHANNEL_ZROTATION

	CHANNELS_COUNT
)

const JOINT_PARENT_NONE = -1

var channelNames = [CHANNELS_COUNT]string{
	CHANNEL_XPOSITION: "Xposition",
	CHANNEL_YPOSITION: "Yposition",
	CHANNEL_ZPOSITION: "Zposition",
	CHANNEL_XROTATION: "Xrotation",
	CHANNEL_YROTATION: "Yrotation",
	CHANNEL_ZROTATION: "Zrotation",
}

func (c Channel) String() string {
	if c < 0 || c >= CHANNELS_COUNT {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

func (c Channel) IsRotation() bool {
	return c >= CHANNEL_XROTATION && c <= CHANNEL_ZROTATION
}

func ChannelByName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

type AnimCurve struct {
	Channel Channel
	Values  []float64 // one value per frame
}

type Joint struct {
	Id       int
	Name     string
	Parent   int
	Offset   mgl64.Vec3
	Curves   []AnimCurve
	Children []int
	EndSite  bool
}

func (j *Joint) IsRoot() bool {
	return j.Parent == JOINT_PARENT_NONE
}

// Motion is a parsed BVH file. Joints is an arena indexed by joint id,
// ids follow depth-first creation order so a parent id is always lower
// than the ids of its children.
type Motion struct {
	Joints     []Joint
	FrameCount int
	FrameTime  float64
}

func (m *Motion) Root() *Joint {
	return &m.Joints[0]
}

func (m *Motion) JointCount() int {
	return len(m.Joints)
}

func (m *Motion) EdgeCount() int {
	return len(m.Joints) - 1
}

// ChannelCount is the number of motion values per frame.
func (m *Motion) ChannelCount() int {
	count := 0
	for i := range m.Joints {
		count += len(m.Joints[i].Curves)
	}
	return count
}

func (m *Motion) Duration() float64 {
	return float64(m.FrameCount) * m.FrameTime
}

func (m *Motion) JointByName(name string) (*Joint, bool) {
	for i := range m.Joints {
		if m.Joints[i].Name == name {
			return &m.Joints[i], true
		}
	}
	return nil, false
}
