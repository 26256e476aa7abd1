package hemesh

import (
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// SubdivideFaces replaces every face by a fan of triangles around a new
// centroid vertex, levels times over. It returns the faces of the last
// level. The centroid corner of each triangle takes the mean UV of the
// triangle's two outer corners.
func (m *Mesh) SubdivideFaces(faces []FID, levels int) ([]FID, error) {
	if levels < 0 {
		return nil, precondition("subdivide levels must be >= 0, got %d", levels)
	}
	cur := make([]FID, 0, len(faces))
	for _, f := range faces {
		if m.faceOK(f) {
			cur = append(cur, f)
		}
	}
	for l := 0; l < levels; l++ {
		next := make([]FID, 0, 3*len(cur))
		for _, f := range cur {
			if m.faceOK(f) {
				next = append(next, m.fanFace(f)...)
			}
		}
		cur = next
	}
	return cur, nil
}

func (m *Mesh) fanFace(f FID) []FID {
	s := m.snapshotFace(f)
	c := m.AddVertex(m.FaceCentroid(f))
	var nrm vec3.T
	for _, v := range s.verts {
		if n, ok := m.Attrs.Normal.Lookup(v.Index()); ok {
			nrm.Add(&n)
		}
	}
	if nrm.Length() > 0 {
		nrm.Normalize()
		m.Attrs.Normal.Set(c.Index(), nrm)
	}

	m.DeleteFaces([]FID{f})

	n := len(s.verts)
	tris := make([]FID, 0, n)
	for i := 0; i < n; i++ {
		a, b := s.verts[i], s.verts[(i+1)%n]
		t := m.addFace([]VID{a, b, c})
		hs := m.faceLoop(t)
		ua, ub := s.uvs[a], s.uvs[b]
		if ub.ok {
			m.Attrs.UV.Set(hs[0].Index(), ub.uv)
		}
		if ua.ok && ub.ok {
			m.Attrs.UV.Set(hs[1].Index(), lerp2(ua.uv, ub.uv, 0.5))
		}
		if ua.ok {
			m.Attrs.UV.Set(hs[2].Index(), ua.uv)
		}
		m.applyFaceAttrs(t, s)
		tris = append(tris, t)
	}
	return tris
}

// CatmullClark is reserved for smooth subdivision.
func (m *Mesh) CatmullClark(faces []FID, levels int) ([]FID, error) {
	return nil, errors.Wrap(ErrNotImplemented, "catmull-clark subdivision")
}
