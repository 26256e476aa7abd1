package hemesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// ExtrudeResult lists what ExtrudeFaces built. Cap holds the selected faces,
// which now sit on the duplicated vertices.
type ExtrudeResult struct {
	Sides   []FID
	Cap     []FID
	Old2New map[VID]VID
}

type borderEdge struct {
	h        HEID
	p, q     VID
	uvQ, uvP vec2.T
	okQ, okP bool
	mat      int32
}

// ExtrudeFaces lifts a face region off the mesh. Border vertices are
// duplicated, the region is moved onto the duplicates and one side quad
// per border edge joins the old border to the new one. Every vertex of the
// region then moves by offset along the area weighted region normal.
func (m *Mesh) ExtrudeFaces(faces []FID, offset float32) (*ExtrudeResult, error) {
	var region []FID
	in := map[FID]bool{}
	for _, f := range faces {
		if !m.faceOK(f) {
			Logger().WithField("face", f.String()).Debug("extrude: skipping invalid face")
			continue
		}
		if !in[f] {
			in[f] = true
			region = append(region, f)
		}
	}
	if len(region) == 0 {
		return nil, precondition("extrude: no valid faces")
	}

	var dir vec3.T
	for _, f := range region {
		n := newell(m.facePositions(f))
		dir.Add(&n)
	}
	if dir.Length() > 0 {
		dir.Normalize()
	}

	loops := m.BoundaryLoops(region)
	var border []HEID
	for _, l := range loops {
		border = append(border, l...)
	}
	old2new, err := m.DuplicateBoundaryLoop(border)
	if err != nil {
		return nil, err
	}

	edges := make([]borderEdge, len(border))
	for i, h := range border {
		e := borderEdge{h: h, p: m.origin(h), q: m.he(h).V, mat: m.Material(m.he(h).Face)}
		e.uvQ, e.okQ = m.Attrs.UV.Lookup(h.Index())
		e.uvP, e.okP = m.Attrs.UV.Lookup(m.he(h).Prev.Index())
		edges[i] = e
	}

	// Detach the region: its border twins lose their partners and every
	// half-edge ending at a border vertex moves to the duplicate.
	var outer []HEID
	for _, h := range border {
		if t := m.he(h).Twin; m.heOK(t) {
			m.he(t).Twin = NoHalfEdge
			m.he(h).Twin = NoHalfEdge
			outer = append(outer, t)
		}
	}
	touched := make([]VID, 0, 2*len(old2new))
	for o, n := range old2new {
		touched = append(touched, o, n)
	}
	for _, f := range region {
		for _, h := range m.faceLoop(f) {
			m.pending.remove(h)
			if n, ok := old2new[m.he(h).V]; ok {
				m.he(h).V = n
			}
		}
	}
	m.rebindVertices(touched)
	for _, h := range border {
		m.pairOrRegister(h)
	}
	for _, t := range outer {
		m.pairOrRegister(t)
	}

	res := &ExtrudeResult{Cap: region, Old2New: old2new}
	for _, e := range edges {
		pn, qn := old2new[e.p], old2new[e.q]
		side := m.addFace([]VID{e.p, e.q, qn, pn})
		hs := m.faceLoop(side)
		if e.okQ {
			m.Attrs.UV.Set(hs[0].Index(), e.uvQ)
			m.Attrs.UV.Set(hs[1].Index(), e.uvQ)
		}
		if e.okP {
			m.Attrs.UV.Set(hs[2].Index(), e.uvP)
			m.Attrs.UV.Set(hs[3].Index(), e.uvP)
		}
		m.Attrs.Material.Set(side.Index(), e.mat)
		res.Sides = append(res.Sides, side)
	}

	move := scaled3(dir, offset)
	moved := map[VID]bool{}
	for _, f := range region {
		for _, h := range m.faceLoop(f) {
			v := m.he(h).V
			if moved[v] {
				continue
			}
			moved[v] = true
			p := m.Position(v)
			m.Attrs.Position.Set(v.Index(), vec3.Add(&p, &move))
		}
	}
	return res, nil
}
