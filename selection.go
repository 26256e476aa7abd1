package hemesh

import (
	"math"
	"sort"

	"github.com/flywave/go3d/vec3"
)

type cellKey [3]int64

// pointGrid buckets vertices by position so near neighbours can be found
// without comparing every pair.
type pointGrid struct {
	cell    float32
	buckets map[cellKey][]VID
}

func newPointGrid(m *Mesh, eps float32) *pointGrid {
	cell := eps
	if cell <= 0 {
		cell = 1e-6
	}
	g := &pointGrid{cell: cell, buckets: map[cellKey][]VID{}}
	for _, v := range m.Vertices() {
		k := g.key(m.Position(v))
		g.buckets[k] = append(g.buckets[k], v)
	}
	return g
}

func (g *pointGrid) key(p vec3.T) cellKey {
	return cellKey{
		int64(math.Floor(float64(p[0] / g.cell))),
		int64(math.Floor(float64(p[1] / g.cell))),
		int64(math.Floor(float64(p[2] / g.cell))),
	}
}

// near returns the vertices within eps of p.
func (g *pointGrid) near(m *Mesh, p vec3.T, eps float32) []VID {
	k := g.key(p)
	var out []VID
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, v := range g.buckets[cellKey{k[0] + dx, k[1] + dy, k[2] + dz}] {
					if dist3(m.Position(v), p) <= eps {
						out = append(out, v)
					}
				}
			}
		}
	}
	return out
}

// ResolveVertsForEdit turns a selection into the set of vertices an edit
// should move. Coincident vertices and mirror partners are added on request.
// The result is sorted by slot index.
func (m *Mesh) ResolveVertsForEdit(sel Selection, opts SelectionOptions) ([]VID, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	set := map[VID]bool{}
	switch sel.Mode {
	case SelectVertex:
		for _, v := range sel.Vertices {
			if m.vertexOK(v) {
				set[v] = true
			}
		}
	case SelectEdge:
		for _, h := range sel.Edges {
			if m.heOK(h) {
				set[m.origin(h)] = true
				set[m.he(h).V] = true
			}
		}
	case SelectFace:
		for _, f := range sel.Faces {
			if m.faceOK(f) {
				for _, h := range m.faceLoop(f) {
					set[m.he(h).V] = true
				}
			}
		}
	default:
		return nil, precondition("unknown selection mode %d", sel.Mode)
	}

	if opts.ExpandCoincident {
		g := newPointGrid(m, opts.PositionEps)
		seeds := keys(set)
		for _, v := range seeds {
			for _, n := range g.near(m, m.Position(v), opts.PositionEps) {
				set[n] = true
			}
		}
	}
	if opts.Mirror {
		g := newPointGrid(m, opts.WeldEps)
		for _, v := range keys(set) {
			p := m.Position(v)
			p[opts.MirrorAxis] = -p[opts.MirrorAxis]
			for _, n := range g.near(m, p, opts.WeldEps) {
				set[n] = true
			}
		}
	}
	return keys(set), nil
}

func keys(set map[VID]bool) []VID {
	out := make([]VID, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}
