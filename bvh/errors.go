package bvh

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/textscan"
)

var (
	ErrFileUnreadable     = errors.New("bvh file unreadable")
	ErrMalformedHierarchy = errors.New("malformed bvh hierarchy")
	ErrFrameDataShortfall = errors.New("bvh frame data shortfall")
)

// SyntaxError points at the token that broke the hierarchy or motion block.
type SyntaxError struct {
	Token  string
	Line   int
	Column int
	Reason string
}

func newSyntaxError(tok textscan.Token, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Token:  tok.Text,
		Line:   tok.Line,
		Column: tok.Column,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %s at %d:%d (%q)", ErrMalformedHierarchy, e.Reason, e.Line, e.Column, e.Token)
}

func (e *SyntaxError) Unwrap() error { return ErrMalformedHierarchy }

type ShortfallError struct {
	Frames   int
	Channels int
	Got      int
}

func (e *ShortfallError) Expected() int {
	return e.Frames * e.Channels
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%v: %d frames of %d channels need %d values, got %d",
		ErrFrameDataShortfall, e.Frames, e.Channels, e.Expected(), e.Got)
}

func (e *ShortfallError) Unwrap() error { return ErrFrameDataShortfall }
