package hemesh

// arena is a flat pool of elements addressed by slot index. Freed slots are
// recycled LIFO; each free bumps the slot generation so handles minted
// before the free no longer validate.
type arena[T any] struct {
	items []T
	gens  []uint32
	alive []bool
	free  []int
	live  int
}

func (a *arena[T]) alloc() (int, uint32) {
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = len(a.items)
		var zero T
		a.items = append(a.items, zero)
		a.gens = append(a.gens, 1)
		a.alive = append(a.alive, false)
	}
	a.alive[idx] = true
	a.live++
	return idx, a.gens[idx]
}

func (a *arena[T]) release(idx int) {
	var zero T
	a.items[idx] = zero
	a.alive[idx] = false
	a.gens[idx]++
	if a.gens[idx] == 0 {
		a.gens[idx] = 1
	}
	a.free = append(a.free, idx)
	a.live--
}

func (a *arena[T]) valid(idx int, gen uint32) bool {
	return idx >= 0 && idx < len(a.items) && a.alive[idx] && a.gens[idx] == gen
}

// size is the slot count, live or not.
func (a *arena[T]) size() int { return len(a.items) }

func (a *arena[T]) clone() arena[T] {
	return arena[T]{
		items: append([]T(nil), a.items...),
		gens:  append([]uint32(nil), a.gens...),
		alive: append([]bool(nil), a.alive...),
		free:  append([]int(nil), a.free...),
		live:  a.live,
	}
}
