package hemesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
)

// Vertex keeps one outgoing half-edge as a traversal seed.
type Vertex struct {
	HE HEID
}

// HalfEdge is one directed side of an edge. V is the to-vertex; the
// from-vertex is the V of Prev.
type HalfEdge struct {
	V    VID
	Next HEID
	Prev HEID
	Twin HEID
	Face FID
}

// Face keeps one half-edge of its boundary cycle.
type Face struct {
	HE HEID
}

// Mesh is an arena-backed half-edge mesh. It is not safe for concurrent
// mutation; handles must not be kept across a mutation that may free them.
type Mesh struct {
	verts arena[Vertex]
	hes   arena[HalfEdge]
	faces arena[Face]

	Attrs *Attributes
	// Materials is the palette that face material ids index into.
	Materials []Material

	pending pendingEdges
}

func NewMesh() *Mesh {
	return &Mesh{
		Attrs:   newAttributes(),
		pending: newPendingEdges(),
	}
}

func (m *Mesh) VertexCount() int   { return m.verts.live }
func (m *Mesh) HalfEdgeCount() int { return m.hes.live }
func (m *Mesh) FaceCount() int     { return m.faces.live }

func (m *Mesh) vertexOK(v VID) bool    { return !v.IsNil() && m.verts.valid(v.Index(), v.Gen()) }
func (m *Mesh) heOK(h HEID) bool       { return !h.IsNil() && m.hes.valid(h.Index(), h.Gen()) }
func (m *Mesh) faceOK(f FID) bool      { return !f.IsNil() && m.faces.valid(f.Index(), f.Gen()) }
func (m *Mesh) IsVertex(v VID) bool    { return m.vertexOK(v) }
func (m *Mesh) IsHalfEdge(h HEID) bool { return m.heOK(h) }
func (m *Mesh) IsFace(f FID) bool      { return m.faceOK(f) }

func (m *Mesh) vert(v VID) *Vertex  { return &m.verts.items[v.Index()] }
func (m *Mesh) he(h HEID) *HalfEdge { return &m.hes.items[h.Index()] }
func (m *Mesh) face(f FID) *Face    { return &m.faces.items[f.Index()] }

func checkHandle(kind string, isNil bool, idx, size int, alive bool) error {
	if isNil || idx >= size {
		return errors.Wrapf(ErrInvalidHandle, "%s %d", kind, idx)
	}
	if !alive {
		return errors.Wrapf(ErrStaleHandle, "%s %d", kind, idx)
	}
	return nil
}

func (m *Mesh) checkVertex(v VID) error {
	return checkHandle("vertex", v.IsNil(), v.Index(), m.verts.size(), m.vertexOK(v))
}

func (m *Mesh) checkHalfEdge(h HEID) error {
	return checkHandle("half-edge", h.IsNil(), h.Index(), m.hes.size(), m.heOK(h))
}

func (m *Mesh) checkFace(f FID) error {
	return checkHandle("face", f.IsNil(), f.Index(), m.faces.size(), m.faceOK(f))
}

func (m *Mesh) allocVertex() VID {
	idx, gen := m.verts.alloc()
	m.Attrs.resize(DomainVertex, m.verts.size())
	return VID(pack(idx, gen))
}

func (m *Mesh) allocHE() HEID {
	idx, gen := m.hes.alloc()
	m.Attrs.resize(DomainHalfEdge, m.hes.size())
	return HEID(pack(idx, gen))
}

func (m *Mesh) allocFace() FID {
	idx, gen := m.faces.alloc()
	m.Attrs.resize(DomainFace, m.faces.size())
	return FID(pack(idx, gen))
}

func (m *Mesh) freeVertex(v VID) {
	m.Attrs.clear(DomainVertex, v.Index())
	m.verts.release(v.Index())
}

func (m *Mesh) freeHE(h HEID) {
	m.pending.remove(h)
	m.Attrs.clear(DomainHalfEdge, h.Index())
	m.hes.release(h.Index())
}

func (m *Mesh) freeFace(f FID) {
	m.Attrs.clear(DomainFace, f.Index())
	m.faces.release(f.Index())
}

// AddVertex appends an isolated vertex at p.
func (m *Mesh) AddVertex(p vec3.T) VID {
	v := m.allocVertex()
	m.Attrs.Position.Set(v.Index(), p)
	return v
}

// AddFace creates a face over loop, wiring one half-edge per side and
// pairing each with an unpaired opposite half-edge when one is pending.
func (m *Mesh) AddFace(loop []VID) (FID, error) {
	n := len(loop)
	if n < 3 {
		return NoFace, precondition("face needs at least 3 vertices, got %d", n)
	}
	seen := make(map[VID]int, n)
	for i, v := range loop {
		if err := m.checkVertex(v); err != nil {
			return NoFace, err
		}
		if j, ok := seen[v]; ok {
			return NoFace, precondition("repeated vertex %v at loop positions %d and %d", v, j, i)
		}
		seen[v] = i
	}
	return m.addFace(loop), nil
}

// addFace assumes loop was validated.
func (m *Mesh) addFace(loop []VID) FID {
	n := len(loop)
	f := m.allocFace()
	hs := make([]HEID, n)
	for i := range hs {
		hs[i] = m.allocHE()
	}
	for i, h := range hs {
		e := m.he(h)
		e.V = loop[(i+1)%n]
		e.Next = hs[(i+1)%n]
		e.Prev = hs[(i+n-1)%n]
		e.Twin = NoHalfEdge
		e.Face = f
		if vx := m.vert(loop[i]); !m.heOK(vx.HE) {
			vx.HE = h
		}
	}
	m.face(f).HE = hs[0]
	for _, h := range hs {
		m.pairOrRegister(h)
	}
	return f
}

func (m *Mesh) Next(h HEID) HEID {
	if !m.heOK(h) {
		return NoHalfEdge
	}
	return m.he(h).Next
}

func (m *Mesh) Prev(h HEID) HEID {
	if !m.heOK(h) {
		return NoHalfEdge
	}
	return m.he(h).Prev
}

func (m *Mesh) Twin(h HEID) HEID {
	if !m.heOK(h) {
		return NoHalfEdge
	}
	return m.he(h).Twin
}

// Dest is the vertex h points to.
func (m *Mesh) Dest(h HEID) VID {
	if !m.heOK(h) {
		return NoVertex
	}
	return m.he(h).V
}

// Origin is the vertex h leaves from.
func (m *Mesh) Origin(h HEID) VID {
	if !m.heOK(h) {
		return NoVertex
	}
	return m.he(m.he(h).Prev).V
}

func (m *Mesh) FaceOf(h HEID) FID {
	if !m.heOK(h) {
		return NoFace
	}
	return m.he(h).Face
}

func (m *Mesh) FaceHE(f FID) HEID {
	if !m.faceOK(f) {
		return NoHalfEdge
	}
	return m.face(f).HE
}

func (m *Mesh) VertexHE(v VID) HEID {
	if !m.vertexOK(v) {
		return NoHalfEdge
	}
	return m.vert(v).HE
}

// IsBoundary reports whether h has no twin.
func (m *Mesh) IsBoundary(h HEID) bool {
	return m.heOK(h) && m.he(h).Twin.IsNil()
}

func (m *Mesh) origin(h HEID) VID { return m.he(m.he(h).Prev).V }

// FaceLoop returns the boundary cycle of f starting at its seed half-edge.
func (m *Mesh) FaceLoop(f FID) []HEID {
	if !m.faceOK(f) {
		return nil
	}
	return m.faceLoop(f)
}

func (m *Mesh) faceLoop(f FID) []HEID {
	start := m.face(f).HE
	var hs []HEID
	h := start
	for {
		hs = append(hs, h)
		h = m.he(h).Next
		if h == start || len(hs) > m.hes.size() {
			break
		}
	}
	return hs
}

// FaceVerts lists the vertices of f; entry i is the origin of FaceLoop(f)[i].
func (m *Mesh) FaceVerts(f FID) []VID {
	hs := m.FaceLoop(f)
	vs := make([]VID, len(hs))
	for i, h := range hs {
		vs[i] = m.origin(h)
	}
	return vs
}

func (m *Mesh) FaceSides(f FID) int {
	return len(m.FaceLoop(f))
}

func (m *Mesh) TriangleVerts(f FID) ([3]VID, bool) {
	var t [3]VID
	vs := m.FaceVerts(f)
	if len(vs) != 3 {
		return t, false
	}
	copy(t[:], vs)
	return t, true
}

func (m *Mesh) QuadVerts(f FID) ([4]VID, bool) {
	var q [4]VID
	vs := m.FaceVerts(f)
	if len(vs) != 4 {
		return q, false
	}
	copy(q[:], vs)
	return q, true
}

// Triangulate fans f into triangles of corners; a corner's vertex is its
// half-edge's Dest.
func (m *Mesh) Triangulate(f FID) [][3]HEID {
	hs := m.FaceLoop(f)
	n := len(hs)
	if n < 3 {
		return nil
	}
	tris := make([][3]HEID, 0, n-2)
	for i := 0; i < n-2; i++ {
		tris = append(tris, [3]HEID{hs[n-1], hs[i], hs[i+1]})
	}
	return tris
}

// Vertices returns the live vertex handles in slot order.
func (m *Mesh) Vertices() []VID {
	vs := make([]VID, 0, m.verts.live)
	for i := range m.verts.items {
		if m.verts.alive[i] {
			vs = append(vs, VID(pack(i, m.verts.gens[i])))
		}
	}
	return vs
}

func (m *Mesh) HalfEdges() []HEID {
	hs := make([]HEID, 0, m.hes.live)
	for i := range m.hes.items {
		if m.hes.alive[i] {
			hs = append(hs, HEID(pack(i, m.hes.gens[i])))
		}
	}
	return hs
}

func (m *Mesh) Faces() []FID {
	fs := make([]FID, 0, m.faces.live)
	for i := range m.faces.items {
		if m.faces.alive[i] {
			fs = append(fs, FID(pack(i, m.faces.gens[i])))
		}
	}
	return fs
}

// Outgoing lists the half-edges leaving v. It scans every half-edge so it
// also works around non-manifold vertices.
func (m *Mesh) Outgoing(v VID) []HEID {
	if !m.vertexOK(v) {
		return nil
	}
	var out []HEID
	for _, h := range m.HalfEdges() {
		if m.origin(h) == v {
			out = append(out, h)
		}
	}
	return out
}

func (m *Mesh) Position(v VID) vec3.T {
	return m.Attrs.Position.Get(v.Index())
}

func (m *Mesh) SetPosition(v VID, p vec3.T) {
	if m.vertexOK(v) {
		m.Attrs.Position.Set(v.Index(), p)
	}
}

// UV returns the corner UV of h.
func (m *Mesh) UV(h HEID) (vec2.T, bool) {
	if !m.heOK(h) {
		return vec2.T{}, false
	}
	return m.Attrs.UV.Lookup(h.Index())
}

func (m *Mesh) SetUV(h HEID, uv vec2.T) {
	if m.heOK(h) {
		m.Attrs.UV.Set(h.Index(), uv)
	}
}

func (m *Mesh) Material(f FID) int32 {
	return m.Attrs.Material.Get(f.Index())
}

func (m *Mesh) SetMaterial(f FID, id int32) {
	if m.faceOK(f) {
		m.Attrs.Material.Set(f.Index(), id)
	}
}

// AddScalarLayer registers (or returns) a custom float layer.
func (m *Mesh) AddScalarLayer(d Domain, name string) *Layer[float32] {
	if l := m.Attrs.scalars[d][name]; l != nil {
		return l
	}
	l := &Layer[float32]{}
	switch d {
	case DomainVertex:
		l.Resize(m.verts.size())
	case DomainHalfEdge:
		l.Resize(m.hes.size())
	case DomainFace:
		l.Resize(m.faces.size())
	}
	m.Attrs.scalars[d][name] = l
	return l
}

func (m *Mesh) facePositions(f FID) []vec3.T {
	hs := m.faceLoop(f)
	ps := make([]vec3.T, len(hs))
	for i, h := range hs {
		ps[i] = m.Position(m.origin(h))
	}
	return ps
}

// FaceCentroid is the unweighted mean of the face's vertex positions.
func (m *Mesh) FaceCentroid(f FID) vec3.T {
	if !m.faceOK(f) {
		return vec3.T{}
	}
	ps := m.facePositions(f)
	var c vec3.T
	for i := range ps {
		c.Add(&ps[i])
	}
	return scaled3(c, 1/float32(len(ps)))
}

// FaceNormal is the unit normal of f (Newell's method); zero if degenerate.
func (m *Mesh) FaceNormal(f FID) vec3.T {
	if !m.faceOK(f) {
		return vec3.T{}
	}
	n := newell(m.facePositions(f))
	if l := n.Length(); l > 0 {
		return scaled3(n, 1/l)
	}
	return vec3.T{}
}

func (m *Mesh) FaceArea(f FID) float32 {
	if !m.faceOK(f) {
		return 0
	}
	n := newell(m.facePositions(f))
	return n.Length() / 2
}

// Bounds scans every live vertex. An empty mesh yields Min=+Inf, Max=-Inf.
func (m *Mesh) Bounds() vec3.Box {
	box := emptyBox()
	for i := range m.verts.items {
		if m.verts.alive[i] {
			extendBox(&box, m.Attrs.Position.Get(i))
		}
	}
	return box
}

// RecomputeNormals rebuilds the vertex normal layer from area weighted
// face normals.
func (m *Mesh) RecomputeNormals() {
	normals := make([]vec3.T, m.verts.size())
	for _, f := range m.Faces() {
		n := newell(m.facePositions(f))
		for _, h := range m.faceLoop(f) {
			normals[m.he(h).V.Index()].Add(&n)
		}
	}
	for _, v := range m.Vertices() {
		n := normals[v.Index()]
		if n.Length() > 0 {
			n.Normalize()
		}
		m.Attrs.Normal.Set(v.Index(), n)
	}
}

// rebindVertices repairs Vertex.HE for vs after half-edges were freed or
// rewired. Local candidates are tried first; the rest share one scan.
func (m *Mesh) rebindVertices(vs []VID) {
	missing := map[VID]bool{}
	for _, v := range vs {
		if !m.vertexOK(v) {
			continue
		}
		h := m.vert(v).HE
		if m.heOK(h) && m.origin(h) == v {
			continue
		}
		m.vert(v).HE = NoHalfEdge
		missing[v] = true
	}
	if len(missing) == 0 {
		return
	}
	for i := range m.hes.items {
		if !m.hes.alive[i] {
			continue
		}
		h := HEID(pack(i, m.hes.gens[i]))
		o := m.origin(h)
		if missing[o] {
			m.vert(o).HE = h
			delete(missing, o)
			if len(missing) == 0 {
				return
			}
		}
	}
}

// Clone returns a deep copy with identical handles.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		verts:     m.verts.clone(),
		hes:       m.hes.clone(),
		faces:     m.faces.clone(),
		Attrs:     m.Attrs.clone(),
		Materials: append([]Material(nil), m.Materials...),
		pending:   m.pending.clone(),
	}
}

// Restore replaces the state of m with a deep copy of src.
func (m *Mesh) Restore(src *Mesh) {
	c := src.Clone()
	*m = *c
}
