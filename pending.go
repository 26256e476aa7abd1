package hemesh

import "github.com/sirupsen/logrus"

type edgeKey struct {
	lo, hi int
}

func keyOf(a, b VID) edgeKey {
	i, j := a.Index(), b.Index()
	if i > j {
		i, j = j, i
	}
	return edgeKey{i, j}
}

// pendingEdges indexes unpaired half-edges by undirected vertex pair so a
// new face can find its twins. Entries are dropped when their half-edge is
// freed, paired or re-keyed, and re-validated on lookup.
type pendingEdges struct {
	byKey map[edgeKey][]HEID
	keys  map[HEID]edgeKey
}

func newPendingEdges() pendingEdges {
	return pendingEdges{
		byKey: map[edgeKey][]HEID{},
		keys:  map[HEID]edgeKey{},
	}
}

func (p *pendingEdges) add(h HEID, k edgeKey) {
	if _, ok := p.keys[h]; ok {
		p.remove(h)
	}
	p.byKey[k] = append(p.byKey[k], h)
	p.keys[h] = k
}

func (p *pendingEdges) remove(h HEID) {
	k, ok := p.keys[h]
	if !ok {
		return
	}
	delete(p.keys, h)
	list := p.byKey[k]
	for i, c := range list {
		if c == h {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(p.byKey, k)
	} else {
		p.byKey[k] = list
	}
}

func (p *pendingEdges) len() int { return len(p.keys) }

func (p *pendingEdges) clone() pendingEdges {
	c := pendingEdges{
		byKey: make(map[edgeKey][]HEID, len(p.byKey)),
		keys:  make(map[HEID]edgeKey, len(p.keys)),
	}
	for k, l := range p.byKey {
		c.byKey[k] = append([]HEID(nil), l...)
	}
	for h, k := range p.keys {
		c.keys[h] = k
	}
	return c
}

// pairOrRegister twins h with a pending opposite half-edge over the same
// vertex pair, or records h as pending. A same-direction candidate is a
// winding conflict and is never paired.
func (m *Mesh) pairOrRegister(h HEID) bool {
	m.pending.remove(h)
	if !m.he(h).Twin.IsNil() {
		return false
	}
	a, b := m.origin(h), m.he(h).V
	k := keyOf(a, b)
	for _, c := range append([]HEID(nil), m.pending.byKey[k]...) {
		if !m.heOK(c) || !m.he(c).Twin.IsNil() || keyOf(m.origin(c), m.he(c).V) != k {
			m.pending.remove(c)
			continue
		}
		if m.origin(c) == b && m.he(c).V == a {
			m.he(c).Twin = h
			m.he(h).Twin = c
			m.pending.remove(c)
			return true
		}
	}
	if len(m.pending.byKey[k]) > 0 {
		Logger().WithFields(logrus.Fields{
			"halfedge": h.String(),
			"from":     a.String(),
			"to":       b.String(),
		}).Debug("unpaired half-edge shares an edge with a same-direction half-edge")
	}
	m.pending.add(h, k)
	return false
}

// unpair detaches h from its twin and re-registers both as pending.
func (m *Mesh) unpair(h HEID) {
	t := m.he(h).Twin
	m.he(h).Twin = NoHalfEdge
	if m.heOK(t) && m.he(t).Twin == h {
		m.he(t).Twin = NoHalfEdge
		m.pending.add(t, keyOf(m.origin(t), m.he(t).V))
	}
	m.pending.add(h, keyOf(m.origin(h), m.he(h).V))
}

// rebuildPending re-registers every unpaired half-edge.
func (m *Mesh) rebuildPending() {
	m.pending = newPendingEdges()
	for _, h := range m.HalfEdges() {
		if m.he(h).Twin.IsNil() {
			m.pending.add(h, keyOf(m.origin(h), m.he(h).V))
		}
	}
}
