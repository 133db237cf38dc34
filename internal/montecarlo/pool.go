package montecarlo

import "github.com/tubone24/monte-carlo-3d-app/internal/physics"

// slot holds one pooled ball plus its spawn-time classification. The
// inside flag is written once at alloc and never touched again. Slots are
// recycled through the free list, so steady-state spawning stops
// allocating once the arena has grown.
type slot struct {
	ball   physics.Ball
	id     uint64
	inside bool
	live   bool
}

// arena is an index pool with a free list. order keeps live slot indices
// oldest-first, which makes "evict the oldest n" a prefix cut.
type arena struct {
	slots []slot
	free  []int
	order []int
}

func (a *arena) alloc(b physics.Ball, id uint64, inside bool) int {
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = len(a.slots) - 1
	}
	a.slots[idx] = slot{ball: b, id: id, inside: inside, live: true}
	a.order = append(a.order, idx)
	return idx
}

func (a *arena) release(idx int) {
	a.slots[idx].live = false
	a.free = append(a.free, idx)
}

func (a *arena) len() int { return len(a.order) }

// forEach visits live slots oldest-first.
func (a *arena) forEach(fn func(s *slot)) {
	for _, idx := range a.order {
		fn(&a.slots[idx])
	}
}

// evictOldest removes the n oldest balls, invoking fn on each slot before
// it is recycled.
func (a *arena) evictOldest(n int, fn func(s *slot)) {
	if n > len(a.order) {
		n = len(a.order)
	}
	for _, idx := range a.order[:n] {
		if fn != nil {
			fn(&a.slots[idx])
		}
		a.release(idx)
	}
	a.order = a.order[:copy(a.order, a.order[n:])]
}

func (a *arena) reset() {
	a.slots = a.slots[:0]
	a.free = a.free[:0]
	a.order = a.order[:0]
}
