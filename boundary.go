package hemesh

// BoundaryLoops returns the cycles of half-edges that border the face set:
// a half-edge of a selected face is on the border when it has no twin or
// its twin's face is not selected. Invalid face ids are ignored.
func (m *Mesh) BoundaryLoops(faces []FID) [][]HEID {
	in := make(map[FID]bool, len(faces))
	for _, f := range faces {
		if m.faceOK(f) {
			in[f] = true
		}
	}
	var border []HEID
	byOrigin := map[VID][]HEID{}
	seenFace := map[FID]bool{}
	for _, f := range faces {
		if !in[f] || seenFace[f] {
			continue
		}
		seenFace[f] = true
		for _, h := range m.faceLoop(f) {
			t := m.he(h).Twin
			if m.heOK(t) && in[m.he(t).Face] {
				continue
			}
			border = append(border, h)
			o := m.origin(h)
			byOrigin[o] = append(byOrigin[o], h)
		}
	}

	used := map[HEID]bool{}
	var loops [][]HEID
	for _, start := range border {
		if used[start] {
			continue
		}
		var loop []HEID
		h := start
		for !h.IsNil() && !used[h] {
			used[h] = true
			loop = append(loop, h)
			next := NoHalfEdge
			for _, c := range byOrigin[m.he(h).V] {
				if !used[c] || c == start {
					next = c
					break
				}
			}
			h = next
		}
		loops = append(loops, loop)
	}
	return loops
}

// RingStep is one quad of a quad ring: Entry is the half-edge the walk came
// in through, Opposite the one it leaves by (Next(Next(Entry))).
type RingStep struct {
	Face     FID
	Entry    HEID
	Opposite HEID
}

// QuadRing walks the ring of quads through the edge of h in both
// directions, stopping at a non-quad face or a boundary. Closed reports
// whether the walk returned to its first face.
func (m *Mesh) QuadRing(h HEID) (steps []RingStep, closed bool) {
	if !m.heOK(h) {
		return nil, false
	}
	seen := map[FID]bool{}
	walk := func(cur HEID) []RingStep {
		var out []RingStep
		for m.heOK(cur) {
			f := m.he(cur).Face
			if seen[f] {
				if len(steps) == 0 && len(out) > 0 && f == out[0].Face {
					closed = true
				}
				break
			}
			if len(m.faceLoop(f)) != 4 {
				break
			}
			seen[f] = true
			opp := m.he(m.he(cur).Next).Next
			out = append(out, RingStep{Face: f, Entry: cur, Opposite: opp})
			cur = m.he(opp).Twin
		}
		return out
	}

	forward := walk(h)
	if closed {
		return forward, true
	}
	backward := walk(m.he(h).Twin)
	for i := len(backward) - 1; i >= 0; i-- {
		b := backward[i]
		steps = append(steps, RingStep{Face: b.Face, Entry: b.Opposite, Opposite: b.Entry})
	}
	steps = append(steps, forward...)
	return steps, false
}
