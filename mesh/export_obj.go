package mesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
)

// ExportObj writes the mesh topology with the given vertex positions,
// typically the deformed buffer of the current frame. nil positions
// writes the rest pose.
func (m *Mesh) ExportObj(_w io.Writer, name string, positions []mgl64.Vec3) error {
	if positions == nil {
		positions = m.Vertices
	}
	if len(positions) != len(m.Vertices) {
		return fmt.Errorf("Got %d positions for %d vertices", len(positions), len(m.Vertices))
	}

	bw := bufio.NewWriter(_w)
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(bw, format+"\n", args...)
	}

	w("o %s", name)
	for _, vertex := range positions {
		w("v %f %f %f", vertex[0], vertex[1], vertex[2])
	}

	for iIndex := 0; iIndex+2 < len(m.Indexes); iIndex += 3 {
		indexes := m.Indexes[iIndex : iIndex+3]
		w("f %v %v %v", indexes[0]+1, indexes[1]+1, indexes[2]+1)
	}

	return bw.Flush()
}
