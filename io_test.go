package hemesh

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// editedGrid returns a grid with freed slots in every arena, UVs, a scalar
// layer and a material palette, so the stream carries every section.
func editedGrid(t *testing.T) *Mesh {
	t.Helper()
	m, v := newGrid(t, 2, 2)
	planarUVs(m, 2, 2)
	m.RecomputeNormals()
	faces := m.Faces()
	m.SetMaterial(faces[3], 1)
	m.Attrs.Smooth.Set(faces[3].Index(), true)
	m.Attrs.Seam.Set(findHE(t, m, v[1], v[4]).Index(), true)
	m.DeleteFaces([]FID{faces[0]})
	_, err := m.MergeVertices(v[8], m.AddVertex(vec3.T{2, 2, 0}))
	require.NoError(t, err)
	m.AddScalarLayer(DomainVertex, "weight").Set(v[4].Index(), 0.25)
	m.AddScalarLayer(DomainFace, "area")
	m.Materials = []Material{DefaultMaterial, {Name: "red", Color: [3]byte{255, 0, 0}, Transparency: 0.5, DoubleSided: true}}
	return m
}

func TestMeshMarshalRoundTrip(t *testing.T) {
	m := editedGrid(t)
	buf := new(bytes.Buffer)
	require.NoError(t, MeshMarshal(buf, m))
	assert.Equal(t, MESH_SIGNATURE, string(buf.Bytes()[:4]))

	got, err := MeshUnMarshal(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	requireValid(t, got)

	assert.Equal(t, m.Vertices(), got.Vertices())
	assert.Equal(t, m.HalfEdges(), got.HalfEdges())
	assert.Equal(t, m.Faces(), got.Faces())
	assert.Equal(t, m.Materials, got.Materials)
	assert.Equal(t, m.pending.len(), got.pending.len())
	for _, v := range m.Vertices() {
		assert.Equal(t, m.Position(v), got.Position(v))
		assert.Equal(t, m.VertexHE(v), got.VertexHE(v))
	}
	for _, h := range m.HalfEdges() {
		assert.Equal(t, m.Twin(h), got.Twin(h))
		uv, ok := m.UV(h)
		guv, gok := got.UV(h)
		assert.Equal(t, ok, gok)
		assert.Equal(t, uv, guv)
		assert.Equal(t, m.Attrs.Seam.Get(h.Index()), got.Attrs.Seam.Get(h.Index()))
	}
	for _, f := range m.Faces() {
		assert.Equal(t, m.Material(f), got.Material(f))
		assert.Equal(t, m.Attrs.Smooth.Get(f.Index()), got.Attrs.Smooth.Get(f.Index()))
	}
	w := got.Attrs.Scalar(DomainVertex, "weight")
	require.NotNil(t, w)
	assert.Equal(t, float32(0.25), w.Get(m.Vertices()[4].Index()))
	assert.NotNil(t, got.Attrs.Scalar(DomainFace, "area"))

	// free lists survive, so both meshes hand out the same slots next
	a := m.AddVertex(vec3.T{})
	b := got.AddVertex(vec3.T{})
	assert.Equal(t, a, b)
}

func TestMeshUnMarshalRejectsBadInput(t *testing.T) {
	_, err := MeshUnMarshal(bytes.NewReader([]byte("nope0000")))
	assert.ErrorIs(t, err, ErrBadSignature)

	_, err = MeshUnMarshal(bytes.NewReader([]byte("fw")))
	assert.Error(t, err)

	m := editedGrid(t)
	buf := new(bytes.Buffer)
	require.NoError(t, MeshMarshal(buf, m))
	_, err = MeshUnMarshal(bytes.NewReader(buf.Bytes()[:buf.Len()/2]))
	assert.Error(t, err)

	bad := append([]byte(MESH_SIGNATURE), 9, 0, 0, 0)
	_, err = MeshUnMarshal(bytes.NewReader(bad))
	assert.ErrorContains(t, err, "unsupported version")
}

func TestMeshUnMarshalBoundsDeclaredCounts(t *testing.T) {
	header := func(n uint32) []byte {
		b := binary.LittleEndian.AppendUint32([]byte(MESH_SIGNATURE), V1)
		return binary.LittleEndian.AppendUint32(b, n)
	}
	_, err := MeshUnMarshal(bytes.NewReader(header(maxSlots + 1)))
	assert.ErrorContains(t, err, "out of range")

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = MeshUnMarshal(bytes.NewReader(header(maxSlots)))
	runtime.ReadMemStats(&after)
	assert.Error(t, err)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20), "allocation follows the bytes present")
}

func TestSnapshotRestore(t *testing.T) {
	m := editedGrid(t)
	snap, err := m.Snapshot()
	require.NoError(t, err)

	faces, verts := m.FaceCount(), m.VertexCount()
	_, err = m.ExtrudeFaces(m.Faces(), 1)
	require.NoError(t, err)
	require.NotEqual(t, faces, m.FaceCount())

	require.NoError(t, m.RestoreSnapshot(snap))
	assert.Equal(t, faces, m.FaceCount())
	assert.Equal(t, verts, m.VertexCount())
	requireValid(t, m)

	assert.Error(t, m.RestoreSnapshot([]byte("garbage")))
	assert.Equal(t, faces, m.FaceCount())
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	m := editedGrid(t)

	path := filepath.Join(dir, "nested", "grid.hem")
	require.NoError(t, WriteFile(path, m))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Faces(), got.Faces())

	assert.Error(t, WriteFile(filepath.Join(dir, "grid.obj"), m))
	_, err = ReadFile(filepath.Join(dir, "grid.obj"))
	assert.Error(t, err)
	_, err = ReadFile(filepath.Join(dir, "missing.hem"))
	assert.Error(t, err)
}
