package hemesh

// KnifeAcrossFace cuts f with a straight chord from the point at tA along
// ha to the point at tB along hb. Both half-edges must be distinct sides
// of f; otherwise nothing changes and nil is returned. The new corners get
// interpolated UVs.
func (m *Mesh) KnifeAcrossFace(f FID, ha HEID, tA float32, hb HEID, tB float32) (*SplitFaceResult, error) {
	if err := m.checkFace(f); err != nil {
		return nil, err
	}
	if ha == hb || !m.heOK(ha) || !m.heOK(hb) {
		return nil, nil
	}
	if m.he(ha).Face != f || m.he(hb).Face != f {
		return nil, nil
	}
	wa := m.splitEdgeUV(ha, tA)
	wb := m.splitEdgeUV(hb, tB)
	return m.SplitFace(f, wa, wb)
}
