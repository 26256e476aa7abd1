package hemesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

type cornerUV struct {
	uv vec2.T
	ok bool
}

// faceSnapshot is what derived operators need from a face before they
// delete it: its vertices in order and its corner UVs keyed by vertex.
type faceSnapshot struct {
	verts  []VID
	uvs    map[VID]cornerUV
	mat    int32
	hasMat bool
	smooth bool
}

func (m *Mesh) snapshotFace(f FID) faceSnapshot {
	hs := m.faceLoop(f)
	s := faceSnapshot{
		verts: make([]VID, len(hs)),
		uvs:   make(map[VID]cornerUV, len(hs)),
	}
	for i, h := range hs {
		s.verts[i] = m.origin(h)
		uv, ok := m.Attrs.UV.Lookup(h.Index())
		s.uvs[m.he(h).V] = cornerUV{uv, ok}
	}
	s.mat, s.hasMat = m.Attrs.Material.Lookup(f.Index())
	s.smooth = m.Attrs.Smooth.Get(f.Index())
	return s
}

// applyFaceAttrs copies the face-level attributes of s onto f.
func (m *Mesh) applyFaceAttrs(f FID, s faceSnapshot) {
	if s.hasMat {
		m.Attrs.Material.Set(f.Index(), s.mat)
	}
	if s.smooth {
		m.Attrs.Smooth.Set(f.Index(), true)
	}
}

// assignCornerUVs sets the UV of every corner of f from uvOf(Dest(corner)).
func (m *Mesh) assignCornerUVs(f FID, uvOf func(v VID) cornerUV) {
	for _, h := range m.faceLoop(f) {
		if c := uvOf(m.he(h).V); c.ok {
			m.Attrs.UV.Set(h.Index(), c.uv)
		}
	}
}

// InsetFaces replaces each face by a ring of quads and a smaller cap. Inner
// vertices sit at centroid + (p - centroid) * scale. Corner UVs and the
// material of the new faces come from the original corner at the same
// (or source) vertex. Invalid face ids are skipped.
func (m *Mesh) InsetFaces(faces []FID, scale float32) []FID {
	var created []FID
	for _, f := range faces {
		if !m.faceOK(f) {
			Logger().WithField("face", f.String()).Debug("inset: skipping invalid face")
			continue
		}
		created = append(created, m.insetFace(f, scale)...)
	}
	return created
}

func (m *Mesh) insetFace(f FID, scale float32) []FID {
	s := m.snapshotFace(f)
	c := m.FaceCentroid(f)
	n := len(s.verts)

	inner := make([]VID, n)
	source := make(map[VID]VID, 2*n)
	for i, v := range s.verts {
		p := m.Position(v)
		d := vec3.Sub(&p, &c)
		inner[i] = m.AddVertex(vec3.Add(&c, &vec3.T{d[0] * scale, d[1] * scale, d[2] * scale}))
		m.Attrs.Normal.copyFrom(inner[i].Index(), v.Index())
		source[v] = v
		source[inner[i]] = v
	}
	uvOf := func(v VID) cornerUV { return s.uvs[source[v]] }

	m.DeleteFaces([]FID{f})

	created := make([]FID, 0, n+1)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		rim := m.addFace([]VID{s.verts[i], s.verts[j], inner[j], inner[i]})
		m.assignCornerUVs(rim, uvOf)
		m.applyFaceAttrs(rim, s)
		created = append(created, rim)
	}
	capFace := m.addFace(inner)
	m.assignCornerUVs(capFace, uvOf)
	m.applyFaceAttrs(capFace, s)
	return append(created, capFace)
}
