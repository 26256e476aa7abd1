package hemesh

import (
	"github.com/flywave/go3d/vec3"
	"github.com/sirupsen/logrus"
)

// CollapseMode picks where the surviving vertex of a collapse ends up.
type CollapseMode int

const (
	CollapseMid CollapseMode = iota
	CollapseOrigin
	CollapseDest
)

func (c CollapseMode) String() string {
	switch c {
	case CollapseMid:
		return "mid"
	case CollapseOrigin:
		return "origin"
	case CollapseDest:
		return "dest"
	}
	return "unknown"
}

// SplitFaceResult describes the two faces produced by SplitFace. Faces[0]
// reuses the original face id. Chord runs from the first to the second
// split vertex inside Faces[1]; its twin lies in Faces[0].
type SplitFaceResult struct {
	Faces [2]FID
	Chord HEID
}

// copyUV copies the corner UV of src into dst.
func (m *Mesh) copyUV(dst, src HEID) {
	m.Attrs.UV.copyFrom(dst.Index(), src.Index())
}

// insertAfter shortens h (x->y) to x->w and links a new half-edge w->y after
// it. The new half-edge takes over h's corner; h's corner UV is cleared.
func (m *Mesh) insertAfter(h HEID, w VID) HEID {
	n := m.allocHE()
	e := m.he(h)
	ne := m.he(n)
	ne.V = e.V
	ne.Next = e.Next
	ne.Prev = h
	ne.Face = e.Face
	ne.Twin = NoHalfEdge
	m.he(e.Next).Prev = n
	e.Next = n
	e.V = w
	m.Attrs.copySlot(DomainHalfEdge, n.Index(), h.Index())
	m.Attrs.UV.Clear(h.Index())
	return n
}

// SplitEdge inserts a vertex at Origin(h) + t*(Dest(h)-Origin(h)); t may lie
// outside [0,1]. Both faces along the edge gain one side. The new corners
// at the inserted vertex carry no UV.
func (m *Mesh) SplitEdge(h HEID, t float32) (VID, error) {
	if err := m.checkHalfEdge(h); err != nil {
		return NoVertex, err
	}
	return m.splitEdge(h, t), nil
}

func (m *Mesh) splitEdge(h HEID, t float32) VID {
	a, b := m.origin(h), m.he(h).V
	w := m.allocVertex()
	m.Attrs.Position.Set(w.Index(), lerp3(m.Position(a), m.Position(b), t))
	if na, ok := m.Attrs.Normal.Lookup(a.Index()); ok {
		if nb, ok := m.Attrs.Normal.Lookup(b.Index()); ok {
			n := lerp3(na, nb, t)
			if n.Length() > 0 {
				n.Normalize()
			}
			m.Attrs.Normal.Set(w.Index(), n)
		}
	}

	tw := m.he(h).Twin
	m.pending.remove(h)
	h2 := m.insertAfter(h, w)
	m.vert(w).HE = h2
	if m.heOK(tw) {
		t2 := m.insertAfter(tw, w)
		m.he(h).Twin = t2
		m.he(t2).Twin = h
		m.he(h2).Twin = tw
		m.he(tw).Twin = h2
	} else {
		m.pairOrRegister(h)
		m.pairOrRegister(h2)
	}
	return w
}

// SplitFace cuts f along a chord between two of its boundary vertices. It
// returns nil when either vertex is not on f or the two are adjacent.
func (m *Mesh) SplitFace(f FID, va, vb VID) (*SplitFaceResult, error) {
	if err := m.checkFace(f); err != nil {
		return nil, err
	}
	if va == vb {
		return nil, nil
	}
	ea, eb := NoHalfEdge, NoHalfEdge
	for _, h := range m.faceLoop(f) {
		switch m.origin(h) {
		case va:
			if ea.IsNil() {
				ea = h
			}
		case vb:
			if eb.IsNil() {
				eb = h
			}
		}
	}
	if ea.IsNil() || eb.IsNil() {
		return nil, nil
	}
	if m.he(ea).V == vb || m.he(eb).V == va {
		return nil, nil
	}
	return m.splitFace(f, ea, eb), nil
}

// splitFace closes ea..prev(eb) with a chord vb->va in f, and eb..prev(ea)
// with a chord va->vb in a new face.
func (m *Mesh) splitFace(f FID, ea, eb HEID) *SplitFaceResult {
	pa, pb := m.he(ea).Prev, m.he(eb).Prev
	va, vb := m.origin(ea), m.origin(eb)
	g := m.allocFace()
	c1 := m.allocHE()
	c2 := m.allocHE()

	*m.he(c1) = HalfEdge{V: va, Prev: pb, Next: ea, Face: f, Twin: c2}
	*m.he(c2) = HalfEdge{V: vb, Prev: pa, Next: eb, Face: g, Twin: c1}
	m.he(pb).Next = c1
	m.he(ea).Prev = c1
	m.he(pa).Next = c2
	m.he(eb).Prev = c2

	for h := eb; h != c2; h = m.he(h).Next {
		m.he(h).Face = g
	}
	m.he(c2).Face = g
	m.face(f).HE = ea
	m.face(g).HE = eb
	m.Attrs.copySlot(DomainFace, g.Index(), f.Index())
	m.copyUV(c1, pa)
	m.copyUV(c2, pb)
	return &SplitFaceResult{Faces: [2]FID{f, g}, Chord: c2}
}

// DeleteFaces frees the given faces and their half-edges. Surviving twins
// become unpaired boundary half-edges; vertices are kept even when isolated.
// Invalid ids are skipped. It returns the number of faces deleted.
func (m *Mesh) DeleteFaces(faces []FID) int {
	var touched []VID
	var orphans []HEID
	dead := 0
	for _, f := range faces {
		if !m.faceOK(f) {
			Logger().WithField("face", f.String()).Debug("delete faces: skipping invalid face")
			continue
		}
		for _, h := range m.faceLoop(f) {
			if t := m.he(h).Twin; m.heOK(t) {
				m.he(t).Twin = NoHalfEdge
				orphans = append(orphans, t)
			}
			touched = append(touched, m.he(h).V)
		}
		for _, h := range m.faceLoop(f) {
			m.freeHE(h)
		}
		m.freeFace(f)
		dead++
	}
	for _, t := range orphans {
		if m.heOK(t) {
			m.pairOrRegister(t)
		}
	}
	m.rebindVertices(touched)
	return dead
}

// CollapseEdge merges the endpoints of h into Origin(h), placed according to
// mode. Faces left with fewer than 3 distinct vertices are removed; the two
// outer edges of a collapsed triangle are stitched together.
func (m *Mesh) CollapseEdge(h HEID, mode CollapseMode) (VID, error) {
	if err := m.checkHalfEdge(h); err != nil {
		return NoVertex, err
	}
	a, b := m.origin(h), m.he(h).V
	var p vec3.T
	switch mode {
	case CollapseMid:
		p = lerp3(m.Position(a), m.Position(b), 0.5)
	case CollapseOrigin:
		p = m.Position(a)
	case CollapseDest:
		p = m.Position(b)
	default:
		return NoVertex, precondition("unknown collapse mode %d", mode)
	}
	m.weld(a, b, false)
	m.Attrs.Position.Set(a.Index(), p)
	return a, nil
}

// MergeVertices rewires every half-edge at b onto a and frees b. Faces that
// contain both vertices are deleted first. a keeps its position.
func (m *Mesh) MergeVertices(a, b VID) (VID, error) {
	if err := m.checkVertex(a); err != nil {
		return NoVertex, err
	}
	if err := m.checkVertex(b); err != nil {
		return NoVertex, err
	}
	if a == b {
		return NoVertex, precondition("cannot merge %v with itself", a)
	}
	m.weld(a, b, true)
	return a, nil
}

func (m *Mesh) weld(keep, drop VID, dropShared bool) {
	if dropShared {
		var shared []FID
		for _, f := range m.Faces() {
			hasKeep, hasDrop := false, false
			for _, v := range m.FaceVerts(f) {
				hasKeep = hasKeep || v == keep
				hasDrop = hasDrop || v == drop
			}
			if hasKeep && hasDrop {
				shared = append(shared, f)
			}
		}
		m.DeleteFaces(shared)
	}

	affected := map[FID]bool{}
	var order []FID
	touched := []VID{keep}
	for _, h := range m.HalfEdges() {
		e := m.he(h)
		if e.V != drop {
			continue
		}
		if !affected[e.Face] {
			affected[e.Face] = true
			order = append(order, e.Face)
			touched = append(touched, m.FaceVerts(e.Face)...)
		}
	}
	for _, h := range m.HalfEdges() {
		if m.he(h).V == drop {
			m.pending.remove(h)
			m.pending.remove(m.he(h).Next)
			m.he(h).V = keep
		}
	}

	for _, f := range order {
		m.dropZeroLength(f)
	}
	for _, f := range order {
		if !m.faceOK(f) {
			continue
		}
		hs := m.faceLoop(f)
		distinct := map[VID]bool{}
		for _, h := range hs {
			distinct[m.he(h).V] = true
		}
		switch {
		case len(hs) == 2:
			m.stitchDigon(f)
		case len(distinct) < 3:
			Logger().WithFields(logrus.Fields{
				"face":  f.String(),
				"sides": len(hs),
			}).Debug("collapse: deleting degenerate face")
			m.DeleteFaces([]FID{f})
		}
	}

	m.freeVertex(drop)
	m.rebindVertices(touched)
	for _, h := range m.HalfEdges() {
		if m.he(h).Twin.IsNil() && (m.he(h).V == keep || m.origin(h) == keep) {
			m.pairOrRegister(h)
		}
	}
}

// dropZeroLength unlinks half-edges of f whose endpoints coincide.
func (m *Mesh) dropZeroLength(f FID) {
	for _, h := range m.faceLoop(f) {
		e := m.he(h)
		if m.he(e.Prev).V != e.V {
			continue
		}
		if e.Next == h {
			m.freeHE(h)
			m.freeFace(f)
			return
		}
		m.he(e.Prev).Next = e.Next
		m.he(e.Next).Prev = e.Prev
		if m.face(f).HE == h {
			m.face(f).HE = e.Next
		}
		m.freeHE(h)
	}
}

// stitchDigon removes a two-sided face and twins its neighbours directly.
func (m *Mesh) stitchDigon(f FID) {
	hs := m.faceLoop(f)
	u, w := hs[0], hs[1]
	tu, tw := m.he(u).Twin, m.he(w).Twin
	m.freeHE(u)
	m.freeHE(w)
	m.freeFace(f)
	switch {
	case m.heOK(tu) && m.heOK(tw) && tu != w:
		m.he(tu).Twin = tw
		m.he(tw).Twin = tu
	case m.heOK(tu):
		m.he(tu).Twin = NoHalfEdge
		m.pairOrRegister(tu)
	case m.heOK(tw):
		m.he(tw).Twin = NoHalfEdge
		m.pairOrRegister(tw)
	}
}

// DuplicateBoundaryLoop creates one vertex per vertex of loop at the same
// position, copying vertex attributes. No faces are created.
func (m *Mesh) DuplicateBoundaryLoop(loop []HEID) (map[VID]VID, error) {
	for _, h := range loop {
		if err := m.checkHalfEdge(h); err != nil {
			return nil, err
		}
	}
	old2new := make(map[VID]VID, len(loop))
	dup := func(v VID) {
		if _, ok := old2new[v]; ok {
			return
		}
		n := m.allocVertex()
		m.Attrs.copySlot(DomainVertex, n.Index(), v.Index())
		old2new[v] = n
	}
	for _, h := range loop {
		dup(m.origin(h))
		dup(m.he(h).V)
	}
	return old2new, nil
}

// BridgeEdges builds one quad per index pair, connecting edge a=p->q of
// loopA to edge b=r->s of loopB as [q p s r]. b is expected to run against
// a, so the quad twins both a and b when they are unpaired.
func (m *Mesh) BridgeEdges(loopA, loopB []HEID) ([]FID, error) {
	if len(loopA) != len(loopB) {
		return nil, precondition("bridge loops differ in length: %d vs %d", len(loopA), len(loopB))
	}
	for i := range loopA {
		if err := m.checkHalfEdge(loopA[i]); err != nil {
			return nil, err
		}
		if err := m.checkHalfEdge(loopB[i]); err != nil {
			return nil, err
		}
	}
	type rung struct {
		a, b   HEID
		pa, pb HEID
		mat    int32
		quad   []VID
	}
	rungs := make([]rung, len(loopA))
	for i := range loopA {
		a, b := loopA[i], loopB[i]
		rungs[i] = rung{
			a:    a,
			b:    b,
			pa:   m.he(a).Prev,
			pb:   m.he(b).Prev,
			mat:  m.Material(m.he(a).Face),
			quad: []VID{m.he(a).V, m.origin(a), m.he(b).V, m.origin(b)},
		}
		for j := range rungs[i].quad {
			if rungs[i].quad[j] == rungs[i].quad[(j+1)%4] {
				return nil, precondition("bridge pair %d shares a vertex", i)
			}
		}
	}

	faces := make([]FID, 0, len(rungs))
	for _, r := range rungs {
		f := m.addFace(r.quad)
		hs := m.faceLoop(f)
		m.copyUV(hs[0], r.pa)
		m.copyUV(hs[1], r.b)
		m.copyUV(hs[2], r.pb)
		m.copyUV(hs[3], r.a)
		m.Attrs.Material.Set(f.Index(), r.mat)
		faces = append(faces, f)
	}
	return faces, nil
}
