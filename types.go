package hemesh

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	GLBEXT  = ".glb"
	GLTFEXT = ".gltf"
)

func isGLB(path string) bool {
	return strings.EqualFold(filepath.Ext(path), GLBEXT)
}

// ReadFile loads a mesh from .hem, .glb or .gltf.
func ReadFile(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case HEMEXT:
		return MeshReadFrom(path)
	case GLBEXT, GLTFEXT:
		return ReadGltf(path)
	}
	return nil, errors.Errorf("unsupported mesh format %q", filepath.Ext(path))
}

// WriteFile saves a mesh as .hem, .glb or .gltf.
func WriteFile(path string, m *Mesh) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case HEMEXT:
		return MeshWriteTo(path, m)
	case GLBEXT, GLTFEXT:
		return WriteGltfFile(path, m)
	}
	return errors.Errorf("unsupported mesh format %q", filepath.Ext(path))
}
