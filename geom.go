package hemesh

import (
	"math"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

func lerp3(a, b vec3.T, t float32) vec3.T {
	return vec3.T{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func lerp2(a, b vec2.T, t float32) vec2.T {
	return vec2.T{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t}
}

func scaled3(a vec3.T, s float32) vec3.T {
	return vec3.T{a[0] * s, a[1] * s, a[2] * s}
}

func dist3(a, b vec3.T) float32 {
	d := vec3.Sub(&a, &b)
	return d.Length()
}

func near2(a, b vec2.T, eps float32) bool {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx+dy*dy <= eps*eps
}

func emptyBox() vec3.Box {
	inf := float32(math.Inf(1))
	return vec3.Box{
		Min: vec3.T{inf, inf, inf},
		Max: vec3.T{-inf, -inf, -inf},
	}
}

func extendBox(b *vec3.Box, p vec3.T) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// newell returns the unnormalised polygon normal; its length is twice the
// polygon area.
func newell(ps []vec3.T) vec3.T {
	var n vec3.T
	for i := range ps {
		c := ps[i]
		d := ps[(i+1)%len(ps)]
		n[0] += (c[1] - d[1]) * (c[2] + d[2])
		n[1] += (c[2] - d[2]) * (c[0] + d[0])
		n[2] += (c[0] - d[0]) * (c[1] + d[1])
	}
	return n
}
