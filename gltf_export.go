package hemesh

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
)

const GLTF_VERSION = "2.0"

func CreateDoc() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = GLTF_VERSION
	doc.Asset.Generator = "go-hemesh"
	srcIndex := uint32(0)
	doc.Scene = &srcIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

type calcSizeWriter struct {
	writer *bytes.Buffer
	Size   int
}

func (w *calcSizeWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	w.Size += n
	return n, err
}

func (w *calcSizeWriter) Bytes() []byte { return w.writer.Bytes() }

func calcPadding(offset, paddingUnit int) int {
	padding := offset % paddingUnit
	if padding != 0 {
		padding = paddingUnit - padding
	}
	return padding
}

// GetGltfBinary encodes doc as GLB, padded with spaces to paddingUnit.
func GetGltfBinary(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	w := &calcSizeWriter{writer: new(bytes.Buffer)}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	padding := calcPadding(w.Size, paddingUnit)
	if padding > 0 {
		w.Write(bytes.Repeat([]byte{0x20}, padding))
	}
	return w.Bytes(), nil
}

// WriteGltf encodes m as GLB into wt.
func WriteGltf(wt io.Writer, m *Mesh) error {
	doc, err := MeshToGltf(m)
	if err != nil {
		return err
	}
	bt, err := GetGltfBinary(doc, 4)
	if err != nil {
		return err
	}
	_, err = wt.Write(bt)
	return err
}

// exportVertex is one unshared glTF vertex: a mesh vertex seen through one
// corner, with that corner's UV and normal.
type exportVertex struct {
	pos vec3.T
	nrm vec3.T
	uv  vec2.T
}

type primitiveBuilder struct {
	verts   []exportVertex
	index   map[exportVertex]uint32
	indices []uint32
	box     vec3.Box
}

func (p *primitiveBuilder) add(v exportVertex) {
	i, ok := p.index[v]
	if !ok {
		i = uint32(len(p.verts))
		p.index[v] = i
		p.verts = append(p.verts, v)
		extendBox(&p.box, v.pos)
	}
	p.indices = append(p.indices, i)
}

// MeshToGltf triangulates every face and writes one primitive per material
// id. Vertices are split wherever corners disagree on UV or normal.
func MeshToGltf(m *Mesh) (*gltf.Document, error) {
	doc := CreateDoc()
	if err := BuildGltf(doc, m); err != nil {
		return nil, err
	}
	return doc, nil
}

// BuildGltf appends m to doc as one node with one mesh.
func BuildGltf(doc *gltf.Document, m *Mesh) error {
	if len(doc.Buffers) == 0 {
		return errors.New("gltf document has no buffer")
	}
	hasUV := false
	for _, h := range m.HalfEdges() {
		if m.Attrs.UV.Has(h.Index()) {
			hasUV = true
			break
		}
	}

	groups := map[int32]*primitiveBuilder{}
	for _, f := range m.Faces() {
		id := m.Material(f)
		pb := groups[id]
		if pb == nil {
			pb = &primitiveBuilder{index: map[exportVertex]uint32{}, box: emptyBox()}
			groups[id] = pb
		}
		fn := m.FaceNormal(f)
		smooth := m.Attrs.Smooth.Get(f.Index())
		for _, tri := range m.Triangulate(f) {
			for _, h := range tri {
				v := m.he(h).V
				ev := exportVertex{pos: m.Position(v), nrm: fn}
				if n, ok := m.Attrs.Normal.Lookup(v.Index()); ok && smooth && !m.Attrs.Hard.Get(h.Index()) {
					ev.nrm = n
				}
				if hasUV {
					ev.uv = m.Attrs.UV.Get(h.Index())
				}
				pb.add(ev)
			}
		}
	}
	if len(groups) == 0 {
		return errors.Wrap(ErrPrecondition, "mesh has no faces to export")
	}

	ids := make([]int32, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	buffer := doc.Buffers[0]
	mesh := &gltf.Mesh{Name: "hemesh"}
	mtlBase := uint32(len(doc.Materials))
	for i, id := range ids {
		pb := groups[id]
		ps := &gltf.Primitive{Attributes: make(gltf.Attribute), Mode: gltf.PrimitiveTriangles}

		idx, err := writeAccessor(doc, buffer, pb.indices, gltf.ComponentUint, gltf.AccessorScalar, len(pb.indices))
		if err != nil {
			return err
		}
		ps.Indices = &idx

		pos := make([]vec3.T, len(pb.verts))
		nrm := make([]vec3.T, len(pb.verts))
		uvs := make([]vec2.T, len(pb.verts))
		for j, v := range pb.verts {
			pos[j], nrm[j], uvs[j] = v.pos, v.nrm, v.uv
		}
		pa, err := writeAccessor(doc, buffer, pos, gltf.ComponentFloat, gltf.AccessorVec3, len(pos))
		if err != nil {
			return err
		}
		doc.Accessors[pa].Min = []float32{pb.box.Min[0], pb.box.Min[1], pb.box.Min[2]}
		doc.Accessors[pa].Max = []float32{pb.box.Max[0], pb.box.Max[1], pb.box.Max[2]}
		ps.Attributes["POSITION"] = pa
		if ps.Attributes["NORMAL"], err = writeAccessor(doc, buffer, nrm, gltf.ComponentFloat, gltf.AccessorVec3, len(nrm)); err != nil {
			return err
		}
		if hasUV {
			if ps.Attributes["TEXCOORD_0"], err = writeAccessor(doc, buffer, uvs, gltf.ComponentFloat, gltf.AccessorVec2, len(uvs)); err != nil {
				return err
			}
		}
		mtlID := mtlBase + uint32(i)
		ps.Material = &mtlID
		mesh.Primitives = append(mesh.Primitives, ps)

		mt := m.MaterialFor(id)
		doc.Materials = append(doc.Materials, toGltfMaterial(&mt))
	}

	meshID := uint32(len(doc.Meshes))
	doc.Meshes = append(doc.Meshes, mesh)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: &meshID})
	return nil
}

// writeAccessor appends data to buffer behind a new buffer view and
// accessor, keeping 4-byte alignment. It returns the accessor index. On
// error the document is left unchanged.
func writeAccessor(doc *gltf.Document, buffer *gltf.Buffer, data interface{}, ct gltf.ComponentType, at gltf.AccessorType, count int) (uint32, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return 0, errors.Wrap(err, "encode accessor data")
	}
	if pad := calcPadding(len(buffer.Data), 4); pad > 0 {
		buffer.Data = append(buffer.Data, make([]byte, pad)...)
	}
	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: uint32(len(buffer.Data)),
		ByteLength: uint32(buf.Len()),
	}
	buffer.Data = append(buffer.Data, buf.Bytes()...)
	buffer.ByteLength = uint32(len(buffer.Data))

	bv := uint32(len(doc.BufferViews))
	doc.BufferViews = append(doc.BufferViews, view)
	acc := &gltf.Accessor{
		BufferView:    &bv,
		ComponentType: ct,
		Type:          at,
		Count:         uint32(count),
	}
	doc.Accessors = append(doc.Accessors, acc)
	return uint32(len(doc.Accessors) - 1), nil
}

func toGltfMaterial(mt *Material) *gltf.Material {
	gm := &gltf.Material{Name: mt.Name, DoubleSided: mt.DoubleSided}
	metallic, roughness := mt.Metallic, mt.Roughness
	color, emissive := mt.GetColor(), mt.GetEmissive()
	gm.PBRMetallicRoughness = &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{
			float32(color[0]) / 255,
			float32(color[1]) / 255,
			float32(color[2]) / 255,
			1 - mt.Transparency,
		},
		MetallicFactor:  &metallic,
		RoughnessFactor: &roughness,
	}
	if mt.Transparency > 0 {
		gm.AlphaMode = gltf.AlphaBlend
	}
	for i := range emissive {
		gm.EmissiveFactor[i] = float32(emissive[i]) / 255
	}
	return gm
}
