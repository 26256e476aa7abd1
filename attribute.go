package hemesh

import (
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Domain names the element kind an attribute layer is keyed by.
type Domain int

const (
	DomainVertex Domain = iota
	DomainHalfEdge
	DomainFace
)

func (d Domain) String() string {
	switch d {
	case DomainVertex:
		return "vertex"
	case DomainHalfEdge:
		return "corner"
	case DomainFace:
		return "face"
	}
	return "unknown"
}

// Layer is a dense per-element attribute buffer indexed by slot index.
// A presence mask tells set values apart from zero values.
type Layer[T any] struct {
	data []T
	has  []bool
}

// Len is the number of addressable slots.
func (l *Layer[T]) Len() int { return len(l.data) }

// Resize grows the layer to n slots. Capacity grows geometrically; the layer
// never shrinks.
func (l *Layer[T]) Resize(n int) {
	if n <= len(l.data) {
		return
	}
	if n > cap(l.data) {
		c := 2 * cap(l.data)
		if c < n {
			c = n
		}
		if c < 16 {
			c = 16
		}
		data := make([]T, len(l.data), c)
		copy(data, l.data)
		has := make([]bool, len(l.has), c)
		copy(has, l.has)
		l.data, l.has = data, has
	}
	l.data = l.data[:n]
	l.has = l.has[:n]
}

func (l *Layer[T]) Get(i int) T {
	if i < 0 || i >= len(l.data) {
		var zero T
		return zero
	}
	return l.data[i]
}

func (l *Layer[T]) Lookup(i int) (T, bool) {
	if i < 0 || i >= len(l.data) || !l.has[i] {
		var zero T
		return zero, false
	}
	return l.data[i], true
}

func (l *Layer[T]) Has(i int) bool {
	return i >= 0 && i < len(l.has) && l.has[i]
}

func (l *Layer[T]) Set(i int, v T) {
	if i >= len(l.data) {
		l.Resize(i + 1)
	}
	l.data[i] = v
	l.has[i] = true
}

func (l *Layer[T]) Clear(i int) {
	if i < 0 || i >= len(l.data) {
		return
	}
	var zero T
	l.data[i] = zero
	l.has[i] = false
}

// copyFrom copies slot src into slot dst, presence included.
func (l *Layer[T]) copyFrom(dst, src int) {
	if v, ok := l.Lookup(src); ok {
		l.Set(dst, v)
	} else {
		l.Clear(dst)
	}
}

func (l *Layer[T]) clone() *Layer[T] {
	return &Layer[T]{
		data: append(make([]T, 0, cap(l.data)), l.data...),
		has:  append(make([]bool, 0, cap(l.has)), l.has...),
	}
}

type anyLayer interface {
	Resize(n int)
	Clear(i int)
	copyFrom(dst, src int)
}

// Attributes holds the built-in layers plus custom scalar layers.
type Attributes struct {
	Position *Layer[vec3.T]
	Normal   *Layer[vec3.T]

	Material *Layer[int32]
	Smooth   *Layer[bool]

	UV   *Layer[vec2.T]
	Seam *Layer[bool]
	Hard *Layer[bool]

	scalars [3]map[string]*Layer[float32]
}

func newAttributes() *Attributes {
	a := &Attributes{
		Position: &Layer[vec3.T]{},
		Normal:   &Layer[vec3.T]{},
		Material: &Layer[int32]{},
		Smooth:   &Layer[bool]{},
		UV:       &Layer[vec2.T]{},
		Seam:     &Layer[bool]{},
		Hard:     &Layer[bool]{},
	}
	for i := range a.scalars {
		a.scalars[i] = map[string]*Layer[float32]{}
	}
	return a
}

func (a *Attributes) layers(d Domain) []anyLayer {
	var ls []anyLayer
	switch d {
	case DomainVertex:
		ls = []anyLayer{a.Position, a.Normal}
	case DomainHalfEdge:
		ls = []anyLayer{a.UV, a.Seam, a.Hard}
	case DomainFace:
		ls = []anyLayer{a.Material, a.Smooth}
	}
	for _, l := range a.scalars[d] {
		ls = append(ls, l)
	}
	return ls
}

func (a *Attributes) resize(d Domain, n int) {
	for _, l := range a.layers(d) {
		l.Resize(n)
	}
}

func (a *Attributes) clear(d Domain, i int) {
	for _, l := range a.layers(d) {
		l.Clear(i)
	}
}

func (a *Attributes) copySlot(d Domain, dst, src int) {
	for _, l := range a.layers(d) {
		l.copyFrom(dst, src)
	}
}

// Scalar returns the custom float layer with the given name, or nil.
func (a *Attributes) Scalar(d Domain, name string) *Layer[float32] {
	return a.scalars[d][name]
}

func (a *Attributes) clone() *Attributes {
	c := &Attributes{
		Position: a.Position.clone(),
		Normal:   a.Normal.clone(),
		Material: a.Material.clone(),
		Smooth:   a.Smooth.clone(),
		UV:       a.UV.clone(),
		Seam:     a.Seam.clone(),
		Hard:     a.Hard.clone(),
	}
	for i := range a.scalars {
		c.scalars[i] = make(map[string]*Layer[float32], len(a.scalars[i]))
		for k, l := range a.scalars[i] {
			c.scalars[i][k] = l.clone()
		}
	}
	return c
}
