package hemesh

import (
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/require"
)

// newGrid builds an nx by ny grid of unit quads in the z=0 plane, facing +z.
// Vertex (i, j) sits at (i, j, 0) and has slot j*(nx+1)+i.
func newGrid(t *testing.T, nx, ny int) (*Mesh, []VID) {
	t.Helper()
	m := NewMesh()
	vs := make([]VID, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			vs = append(vs, m.AddVertex(vec3.T{float32(i), float32(j), 0}))
		}
	}
	at := func(i, j int) VID { return vs[j*(nx+1)+i] }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			_, err := m.AddFace([]VID{at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1)})
			require.NoError(t, err)
		}
	}
	return m, vs
}

// planarUVs gives every corner the UV of its vertex's xy position scaled
// by 1/sx and 1/sy.
func planarUVs(m *Mesh, sx, sy float32) {
	for _, h := range m.HalfEdges() {
		p := m.Position(m.Dest(h))
		m.SetUV(h, vec2.T{p[0] / sx, p[1] / sy})
	}
}

// newCube builds a closed unit cube from six outward facing quads.
func newCube(t *testing.T) (*Mesh, []VID) {
	t.Helper()
	m := NewMesh()
	ps := []vec3.T{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	vs := make([]VID, len(ps))
	for i, p := range ps {
		vs[i] = m.AddVertex(p)
	}
	for _, q := range [][4]int{
		{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7},
	} {
		_, err := m.AddFace([]VID{vs[q[0]], vs[q[1]], vs[q[2]], vs[q[3]]})
		require.NoError(t, err)
	}
	return m, vs
}

// findHE returns the half-edge running from a to b.
func findHE(t *testing.T, m *Mesh, a, b VID) HEID {
	t.Helper()
	for _, h := range m.HalfEdges() {
		if m.Origin(h) == a && m.Dest(h) == b {
			return h
		}
	}
	t.Fatalf("no half-edge %v -> %v", a, b)
	return NoHalfEdge
}

func boundaryCount(m *Mesh) int {
	n := 0
	for _, h := range m.HalfEdges() {
		if m.IsBoundary(h) {
			n++
		}
	}
	return n
}

func requireValid(t *testing.T, m *Mesh) {
	t.Helper()
	require.NoError(t, m.Validate())
}
