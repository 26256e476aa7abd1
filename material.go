package hemesh

// Material is an entry of the mesh palette. A face's material id indexes
// Mesh.Materials; ids without an entry export with DefaultMaterial.
type Material struct {
	Name         string  `json:"name" yaml:"name"`
	Color        [3]byte `json:"color" yaml:"color"`
	Transparency float32 `json:"transparency" yaml:"transparency"`
	Emissive     [3]byte `json:"emissive" yaml:"emissive"`
	Metallic     float32 `json:"metallic" yaml:"metallic"`
	Roughness    float32 `json:"roughness" yaml:"roughness"`
	DoubleSided  bool    `json:"doubleSided" yaml:"doubleSided"`
}

var DefaultMaterial = Material{
	Name:      "default",
	Color:     [3]byte{200, 200, 200},
	Roughness: 1,
}

func (m *Material) GetColor() [3]byte    { return m.Color }
func (m *Material) GetEmissive() [3]byte { return m.Emissive }

// MaterialFor returns the palette entry for id.
func (m *Mesh) MaterialFor(id int32) Material {
	if id >= 0 && int(id) < len(m.Materials) {
		return m.Materials[id]
	}
	return DefaultMaterial
}
