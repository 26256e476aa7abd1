package hemesh

import (
	"encoding/binary"
	"math"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/sirupsen/logrus"
)

func componentSize(ct gltf.ComponentType) int {
	switch ct {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	}
	return 4
}

func componentCount(at gltf.AccessorType) int {
	switch at {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	}
	return 0
}

// accessorElements slices the raw bytes of every element of accessor idx,
// honouring view and accessor offsets and the view stride.
func accessorElements(doc *gltf.Document, idx uint32) ([][]byte, *gltf.Accessor, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, nil, errors.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, nil, errors.Errorf("accessor %d has no buffer view", idx)
	}
	if int(*acc.BufferView) >= len(doc.BufferViews) {
		return nil, nil, errors.Errorf("buffer view %d out of range", *acc.BufferView)
	}
	view := doc.BufferViews[*acc.BufferView]
	if int(view.Buffer) >= len(doc.Buffers) {
		return nil, nil, errors.Errorf("buffer %d out of range", view.Buffer)
	}
	data := doc.Buffers[view.Buffer].Data
	elem := componentSize(acc.ComponentType) * componentCount(acc.Type)
	if elem == 0 {
		return nil, nil, errors.Errorf("accessor %d has unsupported type", idx)
	}
	stride := int(view.ByteStride)
	if stride == 0 {
		stride = elem
	}
	base := int(view.ByteOffset) + int(acc.ByteOffset)
	out := make([][]byte, acc.Count)
	for i := range out {
		s := base + i*stride
		if s+elem > len(data) {
			return nil, nil, errors.Errorf("accessor %d overruns its buffer", idx)
		}
		out[i] = data[s : s+elem]
	}
	return out, acc, nil
}

func readFloats(b []byte, n int) []float32 {
	fs := make([]float32, n)
	for i := range fs {
		fs[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return fs
}

func readVec3s(doc *gltf.Document, idx uint32) ([]vec3.T, error) {
	els, acc, err := accessorElements(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec3 {
		return nil, errors.Errorf("accessor %d is not a float vec3", idx)
	}
	out := make([]vec3.T, len(els))
	for i, b := range els {
		f := readFloats(b, 3)
		out[i] = vec3.T{f[0], f[1], f[2]}
	}
	return out, nil
}

func readVec2s(doc *gltf.Document, idx uint32) ([]vec2.T, error) {
	els, acc, err := accessorElements(doc, idx)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec2 {
		return nil, errors.Errorf("accessor %d is not a float vec2", idx)
	}
	out := make([]vec2.T, len(els))
	for i, b := range els {
		f := readFloats(b, 2)
		out[i] = vec2.T{f[0], f[1]}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, idx uint32) ([]uint32, error) {
	els, acc, err := accessorElements(doc, idx)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(els))
	for i, b := range els {
		switch acc.ComponentType {
		case gltf.ComponentUbyte:
			out[i] = uint32(b[0])
		case gltf.ComponentUshort:
			out[i] = uint32(binary.LittleEndian.Uint16(b))
		case gltf.ComponentUint:
			out[i] = binary.LittleEndian.Uint32(b)
		default:
			return nil, errors.Errorf("accessor %d has unsupported index type", idx)
		}
	}
	return out, nil
}

// GltfToMesh builds a mesh from every triangle primitive of doc. Vertices
// at identical positions are shared so faces connect across glTF vertex
// splits; per-vertex UVs become corner UVs. Node transforms are ignored.
func GltfToMesh(doc *gltf.Document) (*Mesh, error) {
	m := NewMesh()
	for _, gm := range doc.Materials {
		m.Materials = append(m.Materials, fromGltfMaterial(gm))
	}
	shared := map[vec3.T]VID{}
	skipped := 0
	for mi, mesh := range doc.Meshes {
		for pi, ps := range mesh.Primitives {
			log := Logger().WithFields(logrus.Fields{"mesh": mi, "primitive": pi})
			if ps.Mode != gltf.PrimitiveTriangles {
				log.Warn("gltf import: skipping non-triangle primitive")
				continue
			}
			posIdx, ok := ps.Attributes["POSITION"]
			if !ok {
				log.Warn("gltf import: primitive has no positions")
				continue
			}
			pos, err := readVec3s(doc, posIdx)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
			}
			var uvs []vec2.T
			if idx, ok := ps.Attributes["TEXCOORD_0"]; ok {
				if uvs, err = readVec2s(doc, idx); err != nil {
					return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
				}
			}
			var nrms []vec3.T
			if idx, ok := ps.Attributes["NORMAL"]; ok {
				if nrms, err = readVec3s(doc, idx); err != nil {
					return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
				}
			}
			var indices []uint32
			if ps.Indices != nil {
				if indices, err = readIndices(doc, *ps.Indices); err != nil {
					return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
				}
			} else {
				indices = make([]uint32, len(pos))
				for i := range indices {
					indices[i] = uint32(i)
				}
			}

			ids := make([]VID, len(pos))
			for i, p := range pos {
				v, ok := shared[p]
				if !ok {
					v = m.AddVertex(p)
					shared[p] = v
					if i < len(nrms) {
						m.Attrs.Normal.Set(v.Index(), nrms[i])
					}
				}
				ids[i] = v
			}

			for t := 0; t+2 < len(indices); t += 3 {
				tri := [3]uint32{indices[t], indices[t+1], indices[t+2]}
				if tri[0] >= uint32(len(ids)) || tri[1] >= uint32(len(ids)) || tri[2] >= uint32(len(ids)) {
					return nil, errors.Errorf("mesh %d primitive %d: index out of range", mi, pi)
				}
				loop := []VID{ids[tri[0]], ids[tri[1]], ids[tri[2]]}
				if loop[0] == loop[1] || loop[1] == loop[2] || loop[2] == loop[0] {
					skipped++
					continue
				}
				f := m.addFace(loop)
				if ps.Material != nil {
					m.Attrs.Material.Set(f.Index(), int32(*ps.Material))
				}
				if len(nrms) > 0 {
					m.Attrs.Smooth.Set(f.Index(), true)
				}
				if len(uvs) > 0 {
					hs := m.faceLoop(f)
					for c := 0; c < 3; c++ {
						if k := tri[(c+1)%3]; k < uint32(len(uvs)) {
							m.Attrs.UV.Set(hs[c].Index(), uvs[k])
						}
					}
				}
			}
		}
	}
	if skipped > 0 {
		Logger().WithField("triangles", skipped).Info("gltf import: dropped degenerate triangles")
	}
	return m, nil
}

func fromGltfMaterial(gm *gltf.Material) Material {
	mt := Material{Name: gm.Name, DoubleSided: gm.DoubleSided, Roughness: 1, Metallic: 1}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if c := pbr.BaseColorFactor; c != nil {
			mt.Color = [3]byte{toByte(c[0]), toByte(c[1]), toByte(c[2])}
			mt.Transparency = 1 - c[3]
		} else {
			mt.Color = [3]byte{255, 255, 255}
		}
		if pbr.MetallicFactor != nil {
			mt.Metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			mt.Roughness = *pbr.RoughnessFactor
		}
	}
	mt.Emissive = [3]byte{toByte(gm.EmissiveFactor[0]), toByte(gm.EmissiveFactor[1]), toByte(gm.EmissiveFactor[2])}
	return mt
}

func toByte(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f*255 + 0.5)
}

// ReadGltf opens a .gltf or .glb file and converts it.
func ReadGltf(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return GltfToMesh(doc)
}

// WriteGltfFile saves m as .glb or .gltf, chosen by the extension.
func WriteGltfFile(path string, m *Mesh) error {
	doc, err := MeshToGltf(m)
	if err != nil {
		return err
	}
	if isGLB(path) {
		return gltf.SaveBinary(doc, path)
	}
	return gltf.Save(doc, path)
}
