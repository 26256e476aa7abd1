package hemesh

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

const (
	MESH_SIGNATURE string = "fwhe"
	HEMEXT         string = ".hem"
	V1             uint32 = 1
)

// maxSlots bounds every count read from a stream.
const maxSlots = 1 << 24

// readChunk is how many elements getSlice decodes per step, so memory grows
// with the bytes actually present rather than with the declared count.
const readChunk = 1 << 12

// littleWriter keeps the first write error so callers can check once.
type littleWriter struct {
	wt  io.Writer
	err error
}

func (w *littleWriter) put(v interface{}) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.wt, binary.LittleEndian, v)
}

func (w *littleWriter) putString(s string) {
	w.put(uint32(len(s)))
	if w.err == nil {
		_, w.err = w.wt.Write([]byte(s))
	}
}

type littleReader struct {
	rd  io.Reader
	err error
}

func (r *littleReader) get(v interface{}) {
	if r.err != nil {
		return
	}
	r.err = binary.Read(r.rd, binary.LittleEndian, v)
}

func (r *littleReader) count() int {
	var n uint32
	r.get(&n)
	if r.err == nil && n > maxSlots {
		r.err = errors.Errorf("count %d out of range", n)
	}
	if r.err != nil {
		return 0
	}
	return int(n)
}

func (r *littleReader) getString() string {
	n := r.count()
	if r.err != nil {
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(r.rd, int64(n)))
	if err == nil && len(b) < n {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		r.err = err
		return ""
	}
	return string(b)
}

// getSlice decodes n elements of T in chunks of readChunk.
func getSlice[T any](r *littleReader, n int) []T {
	out := make([]T, 0, min(n, readChunk))
	for len(out) < n && r.err == nil {
		chunk := make([]T, min(n-len(out), readChunk))
		r.get(chunk)
		out = append(out, chunk...)
	}
	if r.err != nil {
		return nil
	}
	return out
}

func writeArena[T any](w *littleWriter, a *arena[T]) {
	w.put(uint32(len(a.items)))
	w.put(a.items)
	w.put(a.gens)
	w.put(a.alive)
	free := make([]uint32, len(a.free))
	for i, f := range a.free {
		free[i] = uint32(f)
	}
	w.put(uint32(len(free)))
	w.put(free)
}

func readArena[T any](r *littleReader, a *arena[T]) {
	n := r.count()
	a.items = getSlice[T](r, n)
	a.gens = getSlice[uint32](r, n)
	a.alive = getSlice[bool](r, n)
	free := getSlice[uint32](r, r.count())
	if r.err != nil {
		return
	}
	a.free = make([]int, len(free))
	for i, f := range free {
		if int(f) >= n {
			r.err = errors.Errorf("free slot %d out of range", f)
			return
		}
		a.free[i] = int(f)
	}
	a.live = 0
	for _, ok := range a.alive {
		if ok {
			a.live++
		}
	}
}

func writeLayer[T any](w *littleWriter, l *Layer[T]) {
	w.put(uint32(len(l.data)))
	w.put(l.has)
	w.put(l.data)
}

func readLayer[T any](r *littleReader, l *Layer[T]) {
	n := r.count()
	l.has = getSlice[bool](r, n)
	l.data = getSlice[T](r, n)
}

func writeMaterials(w *littleWriter, mtls []Material) {
	w.put(uint32(len(mtls)))
	for i := range mtls {
		mt := &mtls[i]
		w.putString(mt.Name)
		w.put(mt.Color[:])
		w.put(mt.Transparency)
		w.put(mt.Emissive[:])
		w.put(mt.Metallic)
		w.put(mt.Roughness)
		w.put(mt.DoubleSided)
	}
}

func readMaterials(r *littleReader) []Material {
	n := r.count()
	if n == 0 {
		return nil
	}
	mtls := make([]Material, 0, min(n, readChunk))
	for i := 0; i < n && r.err == nil; i++ {
		var mt Material
		mt.Name = r.getString()
		r.get(mt.Color[:])
		r.get(&mt.Transparency)
		r.get(mt.Emissive[:])
		r.get(&mt.Metallic)
		r.get(&mt.Roughness)
		r.get(&mt.DoubleSided)
		mtls = append(mtls, mt)
	}
	return mtls
}

// MeshMarshal writes the full arena state, free lists and generations
// included, so handles survive a round trip.
func MeshMarshal(wt io.Writer, m *Mesh) error {
	w := &littleWriter{wt: wt}
	if _, err := wt.Write([]byte(MESH_SIGNATURE)); err != nil {
		return err
	}
	w.put(V1)
	writeArena(w, &m.verts)
	writeArena(w, &m.hes)
	writeArena(w, &m.faces)

	a := m.Attrs
	writeLayer(w, a.Position)
	writeLayer(w, a.Normal)
	writeLayer(w, a.UV)
	writeLayer(w, a.Seam)
	writeLayer(w, a.Hard)
	writeLayer(w, a.Material)
	writeLayer(w, a.Smooth)
	for d := range a.scalars {
		names := make([]string, 0, len(a.scalars[d]))
		for name := range a.scalars[d] {
			names = append(names, name)
		}
		sort.Strings(names)
		w.put(uint32(len(names)))
		for _, name := range names {
			w.putString(name)
			writeLayer(w, a.scalars[d][name])
		}
	}
	writeMaterials(w, m.Materials)
	return w.err
}

// MeshUnMarshal reads a mesh written by MeshMarshal and rebuilds the
// pending-edge index.
func MeshUnMarshal(rd io.Reader) (*Mesh, error) {
	sig := make([]byte, 4)
	if _, err := io.ReadFull(rd, sig); err != nil {
		return nil, errors.Wrap(err, "read signature")
	}
	if string(sig) != MESH_SIGNATURE {
		return nil, errors.Wrapf(ErrBadSignature, "got %q", sig)
	}
	r := &littleReader{rd: rd}
	var version uint32
	r.get(&version)
	if r.err == nil && version != V1 {
		return nil, errors.Errorf("unsupported version %d", version)
	}

	m := NewMesh()
	readArena(r, &m.verts)
	readArena(r, &m.hes)
	readArena(r, &m.faces)

	a := m.Attrs
	readLayer(r, a.Position)
	readLayer(r, a.Normal)
	readLayer(r, a.UV)
	readLayer(r, a.Seam)
	readLayer(r, a.Hard)
	readLayer(r, a.Material)
	readLayer(r, a.Smooth)
	for d := range a.scalars {
		n := r.count()
		for i := 0; i < n && r.err == nil; i++ {
			name := r.getString()
			l := &Layer[float32]{}
			readLayer(r, l)
			a.scalars[d][name] = l
		}
	}
	m.Materials = readMaterials(r)
	if r.err != nil {
		return nil, errors.Wrap(r.err, "read mesh")
	}

	a.resize(DomainVertex, m.verts.size())
	a.resize(DomainHalfEdge, m.hes.size())
	a.resize(DomainFace, m.faces.size())
	if err := m.checkRefs(); err != nil {
		return nil, err
	}
	m.rebuildPending()
	return m, nil
}

// checkRefs rejects streams whose handles point outside the arenas, so
// later traversal cannot index out of range.
func (m *Mesh) checkRefs() error {
	for _, h := range m.HalfEdges() {
		e := m.he(h)
		if !m.vertexOK(e.V) || !m.heOK(e.Next) || !m.heOK(e.Prev) || !m.faceOK(e.Face) {
			return errors.Wrapf(ErrInvalidMesh, "%v has dangling references", h)
		}
		if !e.Twin.IsNil() && !m.heOK(e.Twin) {
			return errors.Wrapf(ErrInvalidMesh, "%v has a dead twin", h)
		}
	}
	for _, f := range m.Faces() {
		if !m.heOK(m.face(f).HE) {
			return errors.Wrapf(ErrInvalidMesh, "%v has a dead seed", f)
		}
	}
	for _, v := range m.Vertices() {
		if h := m.vert(v).HE; !h.IsNil() && !m.heOK(h) {
			return errors.Wrapf(ErrInvalidMesh, "%v has a dead seed", v)
		}
	}
	return nil
}

func MeshReadFrom(path string) (*Mesh, error) {
	f, e := os.Open(path)
	if e != nil {
		return nil, e
	}
	defer f.Close()
	return MeshUnMarshal(f)
}

func MeshWriteTo(path string, m *Mesh) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	f, e := os.Create(path)
	if e != nil {
		return e
	}
	if err := MeshMarshal(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Snapshot is the zlib-compressed binary form of m.
func (m *Mesh) Snapshot() ([]byte, error) {
	bf := new(bytes.Buffer)
	w := zlib.NewWriter(bf)
	if err := MeshMarshal(w, m); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return bf.Bytes(), nil
}

// RestoreSnapshot replaces m with the state captured by Snapshot.
func (m *Mesh) RestoreSnapshot(src []byte) error {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return errors.Wrap(err, "open snapshot")
	}
	defer r.Close()
	ms, err := MeshUnMarshal(r)
	if err != nil {
		return err
	}
	*m = *ms
	return nil
}
