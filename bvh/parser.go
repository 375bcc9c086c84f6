package bvh

import (
	"io"
	"io/ioutil"
	"log"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/textscan"
	"github.com/mogaika/bvh_skinning/utils"
)

const (
	kHierarchy    = "HIERARCHY"
	kRoot         = "ROOT"
	kJoint        = "JOINT"
	kEnd          = "End"
	kOffset       = "OFFSET"
	kChannels     = "CHANNELS"
	kOpenBracket  = "{"
	kCloseBracket = "}"
	kMotion       = "MOTION"
	kFrames       = "Frames:"
	kFrame        = "Frame"
	kTime         = "Time:"
)

const END_SITE_SUFFIX = "_End"

func ParseFile(path string) (*Motion, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}

	m, err := ParseData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %q", path)
	}

	log.Printf("[bvh] Loaded %q: %d joints, %d channels, %d frames of %vs",
		path, m.JointCount(), m.ChannelCount(), m.FrameCount, m.FrameTime)
	return m, nil
}

func Parse(r io.Reader) (*Motion, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}
	return ParseData(data)
}

func ParseData(data []byte) (*Motion, error) {
	text, err := utils.DecodeText(data)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}

	scanner, err := textscan.NewScanner(text, textscan.Options{})
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedHierarchy, "%v", err)
	}

	p := &parser{s: scanner, m: &Motion{}}
	if err := p.parseHierarchy(); err != nil {
		return nil, err
	}
	if err := p.parseMotion(); err != nil {
		return nil, err
	}
	return p.m, nil
}

type parser struct {
	s     *textscan.Scanner
	m     *Motion
	stack []int
}

func (p *parser) next(what string) (textscan.Token, error) {
	tok, ok := p.s.Next()
	if !ok {
		return tok, newSyntaxError(tok, "unexpected end of input, expected %s", what)
	}
	return tok, nil
}

func (p *parser) expect(word string) error {
	tok, err := p.next(strconv.Quote(word))
	if err != nil {
		return err
	}
	if tok.Text != word {
		return newSyntaxError(tok, "expected %q", word)
	}
	return nil
}

func (p *parser) float(what string) (float64, error) {
	tok, err := p.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		return 0, newSyntaxError(tok, "%s is not a number", what)
	}
	return v, nil
}

func (p *parser) int(what string) (int, error) {
	tok, err := p.next(what)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, newSyntaxError(tok, "%s is not an integer", what)
	}
	return v, nil
}

func (p *parser) top() *Joint {
	return &p.m.Joints[p.stack[len(p.stack)-1]]
}

// pushJoint creates the next joint in depth-first order and makes it
// the current one.
func (p *parser) pushJoint(name string, endSite bool) {
	id := len(p.m.Joints)
	parent := JOINT_PARENT_NONE
	if len(p.stack) != 0 {
		parent = p.stack[len(p.stack)-1]
		p.m.Joints[parent].Children = append(p.m.Joints[parent].Children, id)
	}
	p.m.Joints = append(p.m.Joints, Joint{
		Id:      id,
		Name:    name,
		Parent:  parent,
		EndSite: endSite,
	})
	p.stack = append(p.stack, id)
}

func (p *parser) parseHierarchy() error {
	if err := p.expect(kHierarchy); err != nil {
		return err
	}

	for {
		tok, err := p.next("hierarchy keyword")
		if err != nil {
			return err
		}

		switch tok.Text {
		case kRoot:
			if len(p.m.Joints) != 0 {
				return newSyntaxError(tok, "only one ROOT is supported")
			}
			name, err := p.next("root name")
			if err != nil {
				return err
			}
			p.pushJoint(name.Text, false)
			if err := p.expect(kOpenBracket); err != nil {
				return err
			}
		case kJoint, kEnd:
			if len(p.stack) == 0 {
				return newSyntaxError(tok, "%s outside of ROOT", tok.Text)
			}
			if p.top().EndSite {
				return newSyntaxError(tok, "End Site can not have children")
			}
			name, err := p.next("joint name")
			if err != nil {
				return err
			}
			if tok.Text == kEnd {
				p.pushJoint(p.top().Name+END_SITE_SUFFIX, true)
			} else {
				p.pushJoint(name.Text, false)
			}
			if err := p.expect(kOpenBracket); err != nil {
				return err
			}
		case kOffset:
			if len(p.stack) == 0 {
				return newSyntaxError(tok, "OFFSET outside of joint")
			}
			var offset mgl64.Vec3
			for i := range offset {
				if offset[i], err = p.float("offset component"); err != nil {
					return err
				}
			}
			p.top().Offset = offset
		case kChannels:
			if err := p.parseChannels(tok); err != nil {
				return err
			}
		case kCloseBracket:
			if len(p.stack) == 0 {
				return newSyntaxError(tok, "unmatched closing brace")
			}
			p.stack = p.stack[:len(p.stack)-1]
		case kMotion:
			if len(p.m.Joints) == 0 {
				return newSyntaxError(tok, "hierarchy has no ROOT")
			}
			if len(p.stack) != 0 {
				return newSyntaxError(tok, "%d unclosed braces before MOTION", len(p.stack))
			}
			return nil
		default:
			return newSyntaxError(tok, "unexpected token")
		}
	}
}

func (p *parser) parseChannels(tok textscan.Token) error {
	if len(p.stack) == 0 {
		return newSyntaxError(tok, "CHANNELS outside of joint")
	}
	joint := p.top()
	if joint.EndSite {
		return newSyntaxError(tok, "End Site can not have channels")
	}
	if joint.Curves != nil {
		return newSyntaxError(tok, "channels of %q declared twice", joint.Name)
	}

	countTok, err := p.next("channels count")
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(countTok.Text)
	if err != nil || count < 0 || count > int(CHANNELS_COUNT) {
		return newSyntaxError(countTok, "invalid channels count")
	}

	joint.Curves = make([]AnimCurve, 0, count)
	var seen [CHANNELS_COUNT]bool
	for i := 0; i < count; i++ {
		nameTok, err := p.next("channel name")
		if err != nil {
			return err
		}
		channel, ok := ChannelByName(nameTok.Text)
		if !ok {
			return newSyntaxError(nameTok, "unknown channel")
		}
		if seen[channel] {
			return newSyntaxError(nameTok, "duplicated channel")
		}
		seen[channel] = true
		joint.Curves = append(joint.Curves, AnimCurve{Channel: channel})
	}
	return nil
}

func (p *parser) parseMotion() error {
	if err := p.expect(kFrames); err != nil {
		return err
	}
	frames, err := p.int("frames count")
	if err != nil {
		return err
	}
	if frames <= 0 {
		return newSyntaxError(p.s.Last(), "frames count must be positive")
	}

	if err := p.expect(kFrame); err != nil {
		return err
	}
	if err := p.expect(kTime); err != nil {
		return err
	}
	frameTime, err := p.float("frame time")
	if err != nil {
		return err
	}
	if frameTime <= 0 {
		return newSyntaxError(p.s.Last(), "frame time must be positive")
	}

	p.m.FrameCount = frames
	p.m.FrameTime = frameTime

	channels := p.m.ChannelCount()
	available := p.s.Remaining()
	// frames*channels may overflow for absurd frame counts
	if channels > 0 && frames > available/channels {
		return &ShortfallError{Frames: frames, Channels: channels, Got: available}
	}
	if channels == 0 {
		if available != 0 {
			log.Printf("[bvh] Ignoring %d values of a motion without channels", available)
		}
		return nil
	}

	for i := range p.m.Joints {
		for j := range p.m.Joints[i].Curves {
			p.m.Joints[i].Curves[j].Values = make([]float64, 0, frames)
		}
	}

	// arena order is the depth-first declaration order of the channels
	for frame := 0; frame < frames; frame++ {
		for i := range p.m.Joints {
			curves := p.m.Joints[i].Curves
			for j := range curves {
				v, err := p.float("motion value")
				if err != nil {
					return err
				}
				curves[j].Values = append(curves[j].Values, v)
			}
		}
	}

	if rest := p.s.Remaining(); rest != 0 {
		log.Printf("[bvh] Ignoring %d values after the last frame", rest)
	}
	return nil
}
