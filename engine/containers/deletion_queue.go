package containers

// DeletionQueue records teardown actions as resources are created and runs
// them newest first, so dependents always go before what they depend on.
//
// It is not safe for concurrent use. Flush must only run once the device is
// idle.
type DeletionQueue struct {
	deletors []func()
}

func NewDeletionQueue() *DeletionQueue {
	return &DeletionQueue{}
}

// Push appends fn to the queue.
func (q *DeletionQueue) Push(fn func()) {
	q.deletors = append(q.deletors, fn)
}

// Flush runs every pending action in reverse insertion order and empties the
// queue. A panicking action is not recovered.
func (q *DeletionQueue) Flush() {
	for i := len(q.deletors) - 1; i >= 0; i-- {
		fn := q.deletors[i]
		q.deletors = q.deletors[:i]
		fn()
	}
	q.deletors = nil
}

func (q *DeletionQueue) Len() int {
	return len(q.deletors)
}
