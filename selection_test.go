package hemesh

import (
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVertsForEditModes(t *testing.T) {
	m, v := newGrid(t, 2, 1)
	faces := m.Faces()
	opts := DefaultSelectionOptions()

	tests := []struct {
		name string
		sel  Selection
		want []VID
	}{
		{"vertices", Selection{Mode: SelectVertex, Vertices: []VID{v[4], v[0], v[4], NoVertex}}, []VID{v[0], v[4]}},
		{"edge", Selection{Mode: SelectEdge, Edges: []HEID{findHE(t, m, v[1], v[4])}}, []VID{v[1], v[4]}},
		{"face", Selection{Mode: SelectFace, Faces: []FID{faces[1]}}, []VID{v[1], v[2], v[4], v[5]}},
		{"empty", Selection{Mode: SelectFace}, []VID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ResolveVertsForEdit(tt.sel, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveVertsForEditExpandsCoincident(t *testing.T) {
	m, v := newGrid(t, 1, 1)
	dup := m.AddVertex(vec3.T{0, 0, 0.000001})
	far := m.AddVertex(vec3.T{0, 0, 0.01})
	sel := Selection{Mode: SelectVertex, Vertices: []VID{v[0]}}

	opts := DefaultSelectionOptions()
	got, err := m.ResolveVertsForEdit(sel, opts)
	require.NoError(t, err)
	assert.Equal(t, []VID{v[0]}, got)

	opts.ExpandCoincident = true
	got, err = m.ResolveVertsForEdit(sel, opts)
	require.NoError(t, err)
	assert.Equal(t, []VID{v[0], dup}, got)
	assert.NotContains(t, got, far)
}

func TestResolveVertsForEditAcrossCellBorder(t *testing.T) {
	m := NewMesh()
	left := m.AddVertex(vec3.T{-2e-6, 0, 0})
	right := m.AddVertex(vec3.T{2e-6, 0, 0})
	nextCell := m.AddVertex(vec3.T{1.9e-5, 0, 0})
	prevCell := m.AddVertex(vec3.T{-1.3e-5, 0, 0})

	opts := DefaultSelectionOptions()
	opts.PositionEps = 1e-5
	opts.ExpandCoincident = true

	for _, seed := range []VID{left, right} {
		got, err := m.ResolveVertsForEdit(Selection{Mode: SelectVertex, Vertices: []VID{seed}}, opts)
		require.NoError(t, err)
		assert.Equal(t, []VID{left, right}, got)
		assert.NotContains(t, got, nextCell)
		assert.NotContains(t, got, prevCell)
	}
}

func TestResolveVertsForEditMirror(t *testing.T) {
	m := NewMesh()
	left := m.AddVertex(vec3.T{-1, 0.5, 0})
	right := m.AddVertex(vec3.T{1, 0.5, 0})
	up := m.AddVertex(vec3.T{1, -0.5, 0})

	opts := DefaultSelectionOptions()
	opts.Mirror = true
	got, err := m.ResolveVertsForEdit(Selection{Mode: SelectVertex, Vertices: []VID{right}}, opts)
	require.NoError(t, err)
	assert.Equal(t, []VID{left, right}, got)

	opts.MirrorAxis = 1
	got, err = m.ResolveVertsForEdit(Selection{Mode: SelectVertex, Vertices: []VID{right}}, opts)
	require.NoError(t, err)
	assert.Equal(t, []VID{right, up}, got)
}

func TestResolveVertsForEditRejectsBadOptions(t *testing.T) {
	m, v := newGrid(t, 1, 1)
	sel := Selection{Mode: SelectVertex, Vertices: []VID{v[0]}}

	opts := DefaultSelectionOptions()
	opts.MirrorAxis = 3
	_, err := m.ResolveVertsForEdit(sel, opts)
	assert.ErrorIs(t, err, ErrPrecondition)

	opts = DefaultSelectionOptions()
	opts.PositionEps = -1
	_, err = m.ResolveVertsForEdit(sel, opts)
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = m.ResolveVertsForEdit(Selection{Mode: SelectionMode(7)}, DefaultSelectionOptions())
	assert.ErrorIs(t, err, ErrPrecondition)
}
