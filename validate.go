package hemesh

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Validate checks the structural invariants of the mesh and reports every
// violation found, wrapped in ErrInvalidMesh.
func (m *Mesh) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	for _, h := range m.HalfEdges() {
		e := m.he(h)
		if !m.heOK(e.Next) || !m.heOK(e.Prev) {
			fail("%v: dangling next/prev", h)
			continue
		}
		if m.he(e.Next).Prev != h {
			fail("%v: next.prev does not return", h)
		}
		if !m.vertexOK(e.V) {
			fail("%v: dead to-vertex %v", h, e.V)
		}
		if !m.faceOK(e.Face) {
			fail("%v: dead face %v", h, e.Face)
		}
		if !e.Twin.IsNil() {
			if !m.heOK(e.Twin) {
				fail("%v: dead twin %v", h, e.Twin)
			} else if m.he(e.Twin).Twin != h {
				fail("%v: twin %v is not symmetric", h, e.Twin)
			} else if m.origin(e.Twin) != e.V || m.he(e.Twin).V != m.origin(h) {
				fail("%v: twin %v spans different vertices", h, e.Twin)
			}
		}
	}

	for _, f := range m.Faces() {
		start := m.face(f).HE
		if !m.heOK(start) {
			fail("%v: dead seed half-edge", f)
			continue
		}
		n := 0
		h := start
		for {
			if m.he(h).Face != f {
				fail("%v: half-edge %v belongs to %v", f, h, m.he(h).Face)
			}
			n++
			h = m.he(h).Next
			if h == start || n > m.hes.live || !m.heOK(h) {
				break
			}
		}
		if h != start {
			fail("%v: boundary cycle does not close", f)
		}
		if n < 3 {
			fail("%v: %d sides", f, n)
		}
	}

	for _, v := range m.Vertices() {
		h := m.vert(v).HE
		if h.IsNil() {
			continue
		}
		if !m.heOK(h) {
			fail("%v: dead seed half-edge", v)
		} else if m.origin(h) != v {
			fail("%v: seed half-edge %v leaves %v", v, h, m.origin(h))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrap(ErrInvalidMesh, err.Error())
	}
	return nil
}
