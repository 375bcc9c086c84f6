package skin

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/textscan"
	"github.com/mogaika/bvh_skinning/utils"
)

var (
	ErrFileUnreadable = errors.New("weight file unreadable")
	ErrWeightParse    = errors.New("weight parse error")
	ErrBind           = errors.New("weights do not match skeleton or mesh")
)

type SyntaxError struct {
	Line   int
	Column int
	Token  string
	Reason string
}

func newSyntaxError(tok textscan.Token, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Line:   tok.Line,
		Column: tok.Column,
		Token:  tok.Text,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %s at %d:%d (%q)", ErrWeightParse, e.Reason, e.Line, e.Column, e.Token)
}

func (e *SyntaxError) Unwrap() error { return ErrWeightParse }

type WeightRow struct {
	Vertex  int
	Weights []float64 // one per WeightTable.Joints entry
}

// WeightTable is the weight file as written: a dense matrix of joint
// columns and vertex rows, not yet resolved against a skeleton.
type WeightTable struct {
	Label  string
	Joints []string // joint names or decimal joint ids
	Rows   []WeightRow
}

func ParseWeightsFile(path string) (*WeightTable, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}
	wt, err := ParseWeightsData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %q", path)
	}
	log.Printf("[skin] Loaded %q: %d joints, %d vertices", path, len(wt.Joints), len(wt.Rows))
	return wt, nil
}

func ParseWeights(r io.Reader) (*WeightTable, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}
	return ParseWeightsData(data)
}

// ParseWeightsData reads
//
//	<label> <joint_1> ... <joint_K>
//	<vertex> <w_1> ... <w_K>
//	...
//
// with '#' comments. Every weight must lie in [0, 1]. Joint names are
// decoded with the same charmap as bvh sources.
func ParseWeightsData(data []byte) (*WeightTable, error) {
	text, err := utils.DecodeText(data)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}

	scanner, err := textscan.NewScanner(text, textscan.Options{Newlines: true, Comments: true})
	if err != nil {
		return nil, errors.Wrapf(ErrWeightParse, "%v", err)
	}

	header, ok := scanner.Line()
	if !ok {
		return nil, newSyntaxError(scanner.Last(), "missing header")
	}
	if len(header) < 2 {
		return nil, newSyntaxError(header[0], "header names no joints")
	}

	wt := &WeightTable{
		Label:  header[0].Text,
		Joints: make([]string, len(header)-1),
	}
	columns := make(map[string]bool, len(wt.Joints))
	for i, tok := range header[1:] {
		if columns[tok.Text] {
			return nil, newSyntaxError(tok, "joint column repeated")
		}
		columns[tok.Text] = true
		wt.Joints[i] = tok.Text
	}

	seen := make(map[int]bool)
	for line, ok := scanner.Line(); ok; line, ok = scanner.Line() {
		if len(line) != len(wt.Joints)+1 {
			return nil, newSyntaxError(line[len(line)-1], "expected %d weights, got %d", len(wt.Joints), len(line)-1)
		}

		vertex, err := strconv.Atoi(line[0].Text)
		if err != nil || vertex < 0 {
			return nil, newSyntaxError(line[0], "bad vertex id")
		}
		if seen[vertex] {
			return nil, newSyntaxError(line[0], "vertex repeated")
		}
		seen[vertex] = true

		row := WeightRow{Vertex: vertex, Weights: make([]float64, len(wt.Joints))}
		for i, tok := range line[1:] {
			w, err := strconv.ParseFloat(tok.Text, 64)
			if err != nil {
				return nil, newSyntaxError(tok, "not a number")
			}
			if !(w >= 0 && w <= 1) {
				return nil, newSyntaxError(tok, "weight out of [0, 1]")
			}
			row.Weights[i] = w
		}
		wt.Rows = append(wt.Rows, row)
	}

	if len(wt.Rows) == 0 {
		return nil, newSyntaxError(scanner.Last(), "no vertex rows")
	}
	return wt, nil
}
