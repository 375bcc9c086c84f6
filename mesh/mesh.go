package mesh

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/bvh_skinning/textscan"
)

var (
	ErrFileUnreadable = errors.New("mesh file unreadable")
	ErrMeshParse      = errors.New("mesh parse error")
)

type SyntaxError struct {
	Line   int
	Column int
	Token  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %s at %d:%d (%q)", ErrMeshParse, e.Reason, e.Line, e.Column, e.Token)
}

func (e *SyntaxError) Unwrap() error { return ErrMeshParse }

// Mesh is a rest-pose triangle mesh. Normals are optional and indexed
// like Vertices when present.
type Mesh struct {
	Vertices []mgl64.Vec3
	Normals  []mgl64.Vec3
	Indexes  []uint32 // triangle list
}

func (m *Mesh) TrianglesCount() int {
	return len(m.Indexes) / 3
}

func LoadObjFile(path string) (*Mesh, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}
	m, err := ParseObjData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to parse %q", path)
	}
	log.Printf("[mesh] Loaded %q: %d vertices, %d triangles", path, len(m.Vertices), m.TrianglesCount())
	return m, nil
}

func ParseObj(r io.Reader) (*Mesh, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(ErrFileUnreadable, "%v", err)
	}
	return ParseObjData(data)
}

// ParseObjData reads positions and faces of a Wavefront OBJ. Polygons are
// triangulated as fans, per-face normal indexes are ignored and vertex
// normals are kept only when their count matches the vertices.
func ParseObjData(data []byte) (*Mesh, error) {
	scanner, err := textscan.NewScanner(data, textscan.Options{Newlines: true, Comments: true})
	if err != nil {
		return nil, errors.Wrapf(ErrMeshParse, "%v", err)
	}

	m := &Mesh{}
	var normals []mgl64.Vec3

	for line, ok := scanner.Line(); ok; line, ok = scanner.Line() {
		switch line[0].Text {
		case "v":
			v, err := parseVec3(line)
			if err != nil {
				return nil, err
			}
			m.Vertices = append(m.Vertices, v)
		case "vn":
			n, err := parseVec3(line)
			if err != nil {
				return nil, err
			}
			normals = append(normals, n)
		case "f":
			if len(line) < 4 {
				return nil, syntaxError(line[0], "face needs at least 3 vertices")
			}
			face := make([]uint32, len(line)-1)
			for i, tok := range line[1:] {
				idx, err := parseFaceIndex(tok, len(m.Vertices))
				if err != nil {
					return nil, err
				}
				face[i] = idx
			}
			for i := 1; i+1 < len(face); i++ {
				m.Indexes = append(m.Indexes, face[0], face[i], face[i+1])
			}
		}
	}

	if len(m.Vertices) == 0 {
		return nil, errors.Wrapf(ErrMeshParse, "no vertices")
	}
	if len(normals) == len(m.Vertices) {
		m.Normals = normals
	}
	return m, nil
}

func syntaxError(tok textscan.Token, reason string) *SyntaxError {
	return &SyntaxError{Line: tok.Line, Column: tok.Column, Token: tok.Text, Reason: reason}
}

func parseVec3(line []textscan.Token) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	if len(line) < 4 {
		return v, syntaxError(line[len(line)-1], "expected 3 components")
	}
	for i := range v {
		f, err := strconv.ParseFloat(line[1+i].Text, 64)
		if err != nil {
			return v, syntaxError(line[1+i], "not a number")
		}
		v[i] = f
	}
	return v, nil
}

// parseFaceIndex takes the position part of v, v/t, v//n or v/t/n.
// Negative indexes are relative to the vertices read so far.
func parseFaceIndex(tok textscan.Token, verticesCount int) (uint32, error) {
	text := tok.Text
	if slash := strings.IndexByte(text, '/'); slash >= 0 {
		text = text[:slash]
	}
	idx, err := strconv.Atoi(text)
	if err != nil {
		return 0, syntaxError(tok, "bad face index")
	}
	if idx < 0 {
		idx = verticesCount + idx + 1
	}
	if idx < 1 || idx > verticesCount {
		return 0, syntaxError(tok, "face index out of range")
	}
	return uint32(idx - 1), nil
}
