package hemesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/sirupsen/logrus"
)

// seamContinuous reports whether the UV chart continues across the edge of
// h: both ends must carry matching corner UVs on each side and neither side
// may be flagged as a seam.
func (m *Mesh) seamContinuous(h HEID, eps float32) bool {
	t := m.he(h).Twin
	if !m.heOK(t) {
		return false
	}
	if m.Attrs.Seam.Get(h.Index()) || m.Attrs.Seam.Get(t.Index()) {
		return false
	}
	uh, ok1 := m.Attrs.UV.Lookup(h.Index())
	up, ok2 := m.Attrs.UV.Lookup(m.he(h).Prev.Index())
	ut, ok3 := m.Attrs.UV.Lookup(t.Index())
	upt, ok4 := m.Attrs.UV.Lookup(m.he(t).Prev.Index())
	if !(ok1 && ok2 && ok3 && ok4) {
		return false
	}
	return near2(uh, upt, eps) && near2(up, ut, eps)
}

// RelaxIslands smooths corner UVs by Jacobi averaging. A corner is linked to
// the neighbouring corners of its face and to the corners at the same
// vertex across UV-continuous edges. Corners on a chart border stay put when
// PinBoundary is set. It returns the number of corners that took part.
func (m *Mesh) RelaxIslands(opts RelaxOptions) (int, error) {
	if err := ValidateOptions(opts); err != nil {
		return 0, err
	}
	faces := opts.Faces
	if len(faces) == 0 {
		faces = m.Faces()
	}
	in := map[FID]bool{}
	for _, f := range faces {
		if m.faceOK(f) {
			in[f] = true
		}
	}

	index := map[HEID]int{}
	var corners []HEID
	for _, f := range faces {
		if !in[f] {
			continue
		}
		for _, h := range m.faceLoop(f) {
			if _, ok := index[h]; ok || !m.Attrs.UV.Has(h.Index()) {
				continue
			}
			index[h] = len(corners)
			corners = append(corners, h)
		}
	}

	crosses := func(h HEID) bool {
		t := m.he(h).Twin
		return m.heOK(t) && in[m.he(t).Face] && m.seamContinuous(h, opts.Epsilon)
	}
	nbrs := make([][]int, len(corners))
	pinned := make([]bool, len(corners))
	link := func(i int, h HEID) {
		if j, ok := index[h]; ok && j != i {
			for _, k := range nbrs[i] {
				if k == j {
					return
				}
			}
			nbrs[i] = append(nbrs[i], j)
		}
	}
	for i, h := range corners {
		e := m.he(h)
		link(i, e.Next)
		link(i, e.Prev)
		in1, in2 := crosses(h), crosses(e.Next)
		if in1 {
			link(i, m.he(m.he(h).Twin).Prev)
		}
		if in2 {
			link(i, m.he(e.Next).Twin)
		}
		pinned[i] = opts.PinBoundary && !(in1 && in2)
	}

	uv := make([]vec2.T, len(corners))
	for i, h := range corners {
		uv[i] = m.Attrs.UV.Get(h.Index())
	}
	next := make([]vec2.T, len(corners))
	for it := 0; it < opts.Iterations; it++ {
		for i := range corners {
			if pinned[i] || len(nbrs[i]) == 0 {
				next[i] = uv[i]
				continue
			}
			var sum vec2.T
			for _, j := range nbrs[i] {
				sum[0] += uv[j][0]
				sum[1] += uv[j][1]
			}
			k := float32(len(nbrs[i]))
			next[i] = vec2.T{sum[0] / k, sum[1] / k}
		}
		uv, next = next, uv
	}
	for i, h := range corners {
		m.Attrs.UV.Set(h.Index(), uv[i])
	}
	Logger().WithFields(logrus.Fields{
		"corners":    len(corners),
		"iterations": opts.Iterations,
	}).Debug("relax islands")
	return len(corners), nil
}
