package containers

// Ring is a fixed set of slots addressed by a monotonically increasing
// counter. Slot i is reused every Len() steps.
type Ring[T any] struct {
	data []T
}

// NewRing creates a ring of size zero-valued slots.
func NewRing[T any](size int) *Ring[T] {
	if size <= 0 {
		panic("containers: ring size must be positive")
	}
	return &Ring[T]{
		data: make([]T, size),
	}
}

func (r *Ring[T]) Len() int {
	return len(r.data)
}

// Index maps a counter to the slot it selects.
func (r *Ring[T]) Index(counter uint64) int {
	return int(counter % uint64(len(r.data)))
}

// At returns the slot selected by counter.
func (r *Ring[T]) At(counter uint64) T {
	return r.data[r.Index(counter)]
}

// Set stores value in slot i.
func (r *Ring[T]) Set(i int, value T) {
	r.data[i] = value
}

// Each visits every slot in index order.
func (r *Ring[T]) Each(fn func(i int, value T)) {
	for i, v := range r.data {
		fn(i, v)
	}
}
