package hemesh

import (
	"testing"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requirePlanarUVs checks that every corner UV still equals the xy position
// of its vertex, which holds for any split of a planarUVs(m, 1, 1) mesh.
func requirePlanarUVs(t *testing.T, m *Mesh) {
	t.Helper()
	for _, h := range m.HalfEdges() {
		uv, ok := m.UV(h)
		require.True(t, ok, "corner %v has no UV", h)
		p := m.Position(m.Dest(h))
		assert.InDelta(t, p[0], uv[0], 1e-6)
		assert.InDelta(t, p[1], uv[1], 1e-6)
	}
}

func TestInsetSingleQuad(t *testing.T) {
	m, _ := newGrid(t, 1, 1)
	planarUVs(m, 1, 1)
	f := m.Faces()[0]
	m.SetMaterial(f, 3)

	created := m.InsetFaces([]FID{f}, 0.5)
	require.Len(t, created, 5)
	assert.False(t, m.IsFace(f))
	assert.Equal(t, 5, m.FaceCount())
	assert.Equal(t, 8, m.VertexCount())
	assert.Equal(t, 20, m.HalfEdgeCount())
	assert.Equal(t, 4, boundaryCount(m))
	requireValid(t, m)

	capFace := created[4]
	assert.Equal(t, 4, m.FaceSides(capFace))
	assert.InDelta(t, 0.25, m.FaceArea(capFace), 1e-6)
	assert.InDelta(t, 1, m.FaceNormal(capFace)[2], 1e-6)
	for _, v := range m.FaceVerts(capFace) {
		p := m.Position(v)
		assert.Contains(t, []float32{0.25, 0.75}, p[0])
		assert.Contains(t, []float32{0.25, 0.75}, p[1])
	}
	capUVs := map[vec2.T]bool{}
	for _, h := range m.FaceLoop(capFace) {
		uv, ok := m.UV(h)
		require.True(t, ok)
		capUVs[uv] = true
	}
	assert.Equal(t, map[vec2.T]bool{{0, 0}: true, {1, 0}: true, {1, 1}: true, {0, 1}: true}, capUVs)
	for _, g := range created {
		assert.Equal(t, int32(3), m.Material(g))
		for _, h := range m.FaceLoop(g) {
			uv, ok := m.UV(h)
			require.True(t, ok)
			assert.Contains(t, []float32{0, 1}, uv[0])
		}
	}
}

func TestInsetSkipsInvalidFaces(t *testing.T) {
	m, _ := newGrid(t, 1, 1)
	assert.Empty(t, m.InsetFaces([]FID{NoFace, FID(pack(7, 1))}, 0.5))
	assert.Equal(t, 1, m.FaceCount())
}

func TestExtrudeSingleQuad(t *testing.T) {
	m, v := newGrid(t, 1, 1)
	planarUVs(m, 1, 1)
	f := m.Faces()[0]

	res, err := m.ExtrudeFaces([]FID{f}, 2)
	require.NoError(t, err)
	assert.Equal(t, []FID{f}, res.Cap)
	assert.Len(t, res.Sides, 4)
	assert.Len(t, res.Old2New, 4)

	assert.Equal(t, 5, m.FaceCount())
	assert.Equal(t, 8, m.VertexCount())
	assert.Equal(t, 20, m.HalfEdgeCount())
	assert.Equal(t, 4, boundaryCount(m))
	requireValid(t, m)

	for _, u := range m.FaceVerts(f) {
		assert.InDelta(t, 2, m.Position(u)[2], 1e-6)
		assert.NotContains(t, v, u)
	}
	for _, u := range v {
		assert.Equal(t, float32(0), m.Position(u)[2])
		assert.Contains(t, res.Old2New, u)
	}
	for _, h := range m.HalfEdges() {
		if m.IsBoundary(h) {
			assert.Contains(t, v, m.Origin(h))
			assert.Contains(t, v, m.Dest(h))
		}
	}
	for _, s := range res.Sides {
		assert.Equal(t, 4, m.FaceSides(s))
		n := m.FaceNormal(s)
		assert.InDelta(t, 0, n[2], 1e-6, "side faces stand upright")
		for _, h := range m.FaceLoop(s) {
			_, ok := m.UV(h)
			assert.True(t, ok)
		}
	}
}

func TestExtrudeInteriorFace(t *testing.T) {
	m, _ := newGrid(t, 3, 3)
	center := m.Faces()[4]
	res, err := m.ExtrudeFaces([]FID{center, center}, 1)
	require.NoError(t, err)
	assert.Len(t, res.Sides, 4)
	assert.Equal(t, 13, m.FaceCount())
	assert.Equal(t, 20, m.VertexCount())
	assert.Equal(t, 12, boundaryCount(m))
	requireValid(t, m)

	for _, s := range res.Sides {
		for _, h := range m.FaceLoop(s) {
			assert.False(t, m.IsBoundary(h))
		}
	}
}

func TestExtrudeRequiresFaces(t *testing.T) {
	m, _ := newGrid(t, 1, 1)
	_, err := m.ExtrudeFaces([]FID{NoFace}, 1)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, 4, m.VertexCount())
}

func TestLoopCutOpenRing(t *testing.T) {
	m, v := newGrid(t, 1, 3)
	planarUVs(m, 1, 1)
	res, err := m.LoopCutQuadRing(findHE(t, m, v[0], v[1]), 0.25)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.False(t, res.Closed)
	assert.Len(t, res.Vertices, 4)
	assert.Len(t, res.Faces, 3)
	assert.Equal(t, 6, m.FaceCount())
	assert.Equal(t, 12, m.VertexCount())
	for _, w := range res.Vertices {
		assert.InDelta(t, 0.25, m.Position(w)[0], 1e-6)
	}
	for _, f := range m.Faces() {
		assert.Equal(t, 4, m.FaceSides(f))
	}
	requireValid(t, m)
	requirePlanarUVs(t, m)
}

func TestLoopCutClosedRing(t *testing.T) {
	m, v := newCube(t)
	res, err := m.LoopCutQuadRing(findHE(t, m, v[0], v[1]), 0.5)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Closed)
	assert.Len(t, res.Vertices, 4)
	assert.Equal(t, 10, m.FaceCount())
	assert.Equal(t, 12, m.VertexCount())
	assert.Equal(t, 0, boundaryCount(m))
	for _, w := range res.Vertices {
		assert.InDelta(t, 0.5, m.Position(w)[0], 1e-6)
	}
	requireValid(t, m)
}

func TestLoopCutOnTriangleDoesNothing(t *testing.T) {
	m, v, _ := twoTriangles(t)
	res, err := m.LoopCutQuadRing(findHE(t, m, v[0], v[1]), 0.5)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 4, m.VertexCount())

	_, err = m.LoopCutQuadRing(NoHalfEdge, 0.5)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestLoopCutFromTriangleBesideQuad(t *testing.T) {
	m, v := newGrid(t, 1, 1)
	apex := m.AddVertex(vec3.T{0.5, -1, 0})
	tri, err := m.AddFace([]VID{v[1], v[0], apex})
	require.NoError(t, err)
	h := findHE(t, m, v[1], v[0])
	require.Equal(t, tri, m.FaceOf(h))
	require.False(t, m.Twin(h).IsNil())

	res, err := m.LoopCutQuadRing(h, 0.5)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 2, m.FaceCount())
	assert.Equal(t, 5, m.VertexCount())

	res, err = m.LoopCutQuadRing(m.Twin(h), 0.5)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.Vertices, 2)
	requireValid(t, m)
}

func TestKnifeAcrossQuad(t *testing.T) {
	m, v := newGrid(t, 1, 1)
	planarUVs(m, 1, 1)
	f := m.Faces()[0]
	ha := findHE(t, m, v[0], v[1])
	hb := findHE(t, m, v[3], v[2])

	res, err := m.KnifeAcrossFace(f, ha, 0.5, hb, 0.5)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 2, m.FaceCount())
	assert.Equal(t, 6, m.VertexCount())
	assert.Equal(t, 4, m.FaceSides(res.Faces[0]))
	assert.Equal(t, 4, m.FaceSides(res.Faces[1]))
	assert.Equal(t, vec3.T{0.5, 0, 0}, m.Position(m.Origin(res.Chord)))
	assert.Equal(t, vec3.T{0.5, 1, 0}, m.Position(m.Dest(res.Chord)))
	requireValid(t, m)
	requirePlanarUVs(t, m)
}

func TestKnifeRejectsForeignEdges(t *testing.T) {
	m, v := newGrid(t, 2, 1)
	faces := m.Faces()
	ha := findHE(t, m, v[0], v[1])
	hb := findHE(t, m, v[2], v[5])

	res, err := m.KnifeAcrossFace(faces[0], ha, 0.5, hb, 0.5)
	assert.NoError(t, err)
	assert.Nil(t, res)
	res, err = m.KnifeAcrossFace(faces[0], ha, 0.5, ha, 0.7)
	assert.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 6, m.VertexCount())

	_, err = m.KnifeAcrossFace(NoFace, ha, 0.5, hb, 0.5)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestSubdivideFaces(t *testing.T) {
	tests := []struct {
		levels int
		faces  int
		verts  int
	}{
		{0, 1, 4},
		{1, 4, 5},
		{2, 12, 9},
	}
	for _, tt := range tests {
		m, _ := newGrid(t, 1, 1)
		created, err := m.SubdivideFaces(m.Faces(), tt.levels)
		require.NoError(t, err)
		assert.Len(t, created, tt.faces, "levels %d", tt.levels)
		assert.Equal(t, tt.faces, m.FaceCount())
		assert.Equal(t, tt.verts, m.VertexCount())
		assert.Equal(t, 4, boundaryCount(m))
		requireValid(t, m)
	}

	m, _ := newGrid(t, 1, 1)
	_, err := m.SubdivideFaces(m.Faces(), -1)
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestSubdivideCentroidUV(t *testing.T) {
	m, v := newGrid(t, 1, 1)
	planarUVs(m, 1, 1)
	m.SetMaterial(m.Faces()[0], 7)
	tris, err := m.SubdivideFaces(m.Faces(), 1)
	require.NoError(t, err)

	for _, f := range tris {
		assert.Equal(t, int32(7), m.Material(f))
		tv, ok := m.TriangleVerts(f)
		require.True(t, ok)
		c := tv[2]
		assert.NotContains(t, v, c)
		assert.Equal(t, vec3.T{0.5, 0.5, 0}, m.Position(c))

		hs := m.FaceLoop(f)
		uv, ok := m.UV(hs[1])
		require.True(t, ok)
		a, _ := m.UV(hs[2])
		b, _ := m.UV(hs[0])
		assert.Equal(t, vec2.T{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}, uv)
	}
}

func TestCatmullClarkIsReserved(t *testing.T) {
	m, _ := newGrid(t, 1, 1)
	_, err := m.CatmullClark(m.Faces(), 1)
	assert.ErrorIs(t, err, ErrNotImplemented)
	assert.ErrorContains(t, err, "catmull-clark")
	assert.Equal(t, 1, m.FaceCount())
}

// centerCorners returns, per face of a 2x2 grid, the corner at the middle
// vertex v4.
func centerCorners(m *Mesh, center VID) map[FID]HEID {
	out := map[FID]HEID{}
	for _, h := range m.HalfEdges() {
		if m.Dest(h) == center {
			out[m.FaceOf(h)] = h
		}
	}
	return out
}

func TestRelaxIslandsAveragesInteriorCorners(t *testing.T) {
	m, v := newGrid(t, 2, 2)
	planarUVs(m, 2, 2)
	faces := m.Faces()

	opts := DefaultRelaxOptions()
	opts.Iterations = 60
	n, err := m.RelaxIslands(opts)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	cc := centerCorners(m, v[4])
	want := map[FID]vec2.T{
		faces[0]: {0.375, 0.375},
		faces[1]: {0.625, 0.375},
		faces[2]: {0.375, 0.625},
		faces[3]: {0.625, 0.625},
	}
	for f, uv := range want {
		got, ok := m.UV(cc[f])
		require.True(t, ok)
		assert.InDelta(t, uv[0], got[0], 1e-4)
		assert.InDelta(t, uv[1], got[1], 1e-4)
	}

	uv, _ := m.UV(findHE(t, m, v[0], v[1]))
	assert.Equal(t, vec2.T{0.5, 0}, uv, "border corners are pinned")
}

func TestRelaxIslandsRespectsSeams(t *testing.T) {
	m, v := newGrid(t, 2, 2)
	planarUVs(m, 2, 2)
	for _, h := range m.HalfEdges() {
		m.Attrs.Seam.Set(h.Index(), true)
	}
	_, err := m.RelaxIslands(DefaultRelaxOptions())
	require.NoError(t, err)
	for _, h := range centerCorners(m, v[4]) {
		uv, _ := m.UV(h)
		assert.Equal(t, vec2.T{0.5, 0.5}, uv)
	}
}

func TestRelaxIslandsHoldsCornersWithoutUV(t *testing.T) {
	m, v := newGrid(t, 2, 2)
	planarUVs(m, 2, 2)
	faces := m.Faces()
	bare := m.FaceLoop(faces[0])
	for _, h := range bare {
		m.Attrs.UV.Clear(h.Index())
	}

	opts := DefaultRelaxOptions()
	opts.Iterations = 60
	n, err := m.RelaxIslands(opts)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	for _, h := range bare {
		_, ok := m.UV(h)
		assert.False(t, ok, "corner %v gained a UV", h)
	}

	// only the corner of faces[3] stays linked on both sides; the others
	// border the bare face and are pinned
	cc := centerCorners(m, v[4])
	want := map[FID]vec2.T{
		faces[1]: {0.5, 0.5},
		faces[2]: {0.5, 0.5},
		faces[3]: {0.625, 0.625},
	}
	for f, uv := range want {
		got, ok := m.UV(cc[f])
		require.True(t, ok)
		assert.InDelta(t, uv[0], got[0], 1e-5)
		assert.InDelta(t, uv[1], got[1], 1e-5)
	}
}

func TestRelaxIslandsValidatesOptions(t *testing.T) {
	m, _ := newGrid(t, 1, 1)
	_, err := m.RelaxIslands(RelaxOptions{Iterations: -1})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestWeldCoincident(t *testing.T) {
	m := NewMesh()
	a := m.AddVertex(vec3.T{0, 0, 0})
	b := m.AddVertex(vec3.T{1, 0, 0})
	c := m.AddVertex(vec3.T{0, 1, 0})
	b2 := m.AddVertex(vec3.T{1, 0, 0})
	c2 := m.AddVertex(vec3.T{0, 1, 0.000001})
	d := m.AddVertex(vec3.T{1, 1, 0})
	_, err := m.AddFace([]VID{a, b, c})
	require.NoError(t, err)
	_, err = m.AddFace([]VID{c2, b2, d})
	require.NoError(t, err)
	assert.Equal(t, 6, boundaryCount(m))

	merged, err := m.WeldCoincident(WeldOptions{Epsilon: 1e-4})
	require.NoError(t, err)
	assert.Equal(t, 2, merged)
	assert.Equal(t, 4, m.VertexCount())
	assert.Equal(t, 4, boundaryCount(m))
	assert.True(t, m.IsVertex(b))
	assert.False(t, m.IsVertex(b2))
	assert.False(t, m.IsVertex(c2))
	requireValid(t, m)

	_, err = m.WeldCoincident(WeldOptions{Epsilon: -1})
	assert.ErrorIs(t, err, ErrPrecondition)
}
