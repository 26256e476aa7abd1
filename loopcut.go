package hemesh

// LoopCutResult lists the vertices inserted along the ring and the face
// pairs each ring quad was cut into.
type LoopCutResult struct {
	Vertices []VID
	Faces    [][2]FID
	Closed   bool
}

// splitEdgeUV splits h at t like splitEdge and gives the two new corners at
// the inserted vertex UVs interpolated from the edge's end corners.
func (m *Mesh) splitEdgeUV(h HEID, t float32) VID {
	uvA, okA := m.Attrs.UV.Lookup(m.he(h).Prev.Index())
	uvB, okB := m.Attrs.UV.Lookup(h.Index())
	tw := m.he(h).Twin
	var twA, twB cornerUV
	if m.heOK(tw) {
		twB.uv, twB.ok = m.Attrs.UV.Lookup(m.he(tw).Prev.Index())
		twA.uv, twA.ok = m.Attrs.UV.Lookup(tw.Index())
	}

	w := m.splitEdge(h, t)
	if okA && okB {
		m.Attrs.UV.Set(h.Index(), lerp2(uvA, uvB, t))
	}
	if m.heOK(tw) && twA.ok && twB.ok {
		m.Attrs.UV.Set(tw.Index(), lerp2(twB.uv, twA.uv, 1-t))
	}
	return w
}

// LoopCutQuadRing cuts the quad ring through h. Every ring edge is split at
// t measured from the origin of the half-edge the walk enters by, then each
// quad is split between its two new vertices. It returns nil when the face
// of h is not a quad. An open ring of k quads gains k+1 vertices and a
// closed ring gains k, since neighbouring quads share their ring edge.
func (m *Mesh) LoopCutQuadRing(h HEID, t float32) (*LoopCutResult, error) {
	if err := m.checkHalfEdge(h); err != nil {
		return nil, err
	}
	if m.FaceSides(m.he(h).Face) != 4 {
		return nil, nil
	}
	steps, closed := m.QuadRing(h)
	if len(steps) == 0 {
		return nil, nil
	}
	cuts := make([]HEID, 0, len(steps)+1)
	seen := map[HEID]bool{}
	for _, s := range steps {
		if seen[s.Entry] {
			return nil, nil
		}
		seen[s.Entry] = true
		cuts = append(cuts, s.Entry)
	}

	res := &LoopCutResult{Closed: closed}
	for _, e := range cuts {
		res.Vertices = append(res.Vertices, m.splitEdgeUV(e, t))
	}
	if !closed {
		last := steps[len(steps)-1].Opposite
		res.Vertices = append(res.Vertices, m.splitEdgeUV(last, 1-t))
	}

	k := len(steps)
	for i, s := range steps {
		a, b := res.Vertices[i], res.Vertices[(i+1)%len(res.Vertices)]
		sf, err := m.SplitFace(s.Face, a, b)
		if err != nil {
			return nil, err
		}
		if sf == nil {
			Logger().WithField("face", s.Face.String()).Warn("loop cut: ring quad could not be split")
			continue
		}
		res.Faces = append(res.Faces, sf.Faces)
	}
	Logger().WithField("quads", k).WithField("closed", closed).Debug("loop cut")
	return res, nil
}
