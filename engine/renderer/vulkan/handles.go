package vulkan

// handleTable maps the opaque uint64 handles the renderer sees onto Vulkan
// objects. All tables of a backend share one counter so a handle is never
// valid in two tables at once. Zero is never issued.
type handleTable[T any] struct {
	next  *uint64
	items map[uint64]T
}

func newHandleTable[T any](counter *uint64) *handleTable[T] {
	return &handleTable[T]{
		next:  counter,
		items: make(map[uint64]T),
	}
}

func (t *handleTable[T]) insert(v T) uint64 {
	*t.next++
	h := *t.next
	t.items[h] = v
	return h
}

func (t *handleTable[T]) get(h uint64) (T, bool) {
	v, ok := t.items[h]
	return v, ok
}

func (t *handleTable[T]) remove(h uint64) (T, bool) {
	v, ok := t.items[h]
	if ok {
		delete(t.items, h)
	}
	return v, ok
}

func (t *handleTable[T]) len() int {
	return len(t.items)
}
