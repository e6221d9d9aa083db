package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletionQueueFlushIsLIFO(t *testing.T) {
	q := NewDeletionQueue()
	var order []string
	for _, name := range []string{"A", "B", "C"} {
		name := name
		q.Push(func() { order = append(order, name) })
	}
	assert.Equal(t, 3, q.Len())

	q.Flush()

	assert.Equal(t, []string{"C", "B", "A"}, order)
	assert.Zero(t, q.Len())
}

func TestDeletionQueueFlushTwiceRunsNothing(t *testing.T) {
	q := NewDeletionQueue()
	calls := 0
	q.Push(func() { calls++ })

	q.Flush()
	q.Flush()

	assert.Equal(t, 1, calls)
}

func TestDeletionQueueEmptyFlush(t *testing.T) {
	q := NewDeletionQueue()
	assert.NotPanics(t, q.Flush)
}

func TestDeletionQueueReusableAfterFlush(t *testing.T) {
	q := NewDeletionQueue()
	var order []int
	q.Push(func() { order = append(order, 1) })
	q.Push(func() { order = append(order, 2) })

	q.Flush()
	q.Push(func() { order = append(order, 3) })
	q.Flush()

	assert.Equal(t, []int{2, 1, 3}, order)
}

func TestDeletionQueuePanicPropagates(t *testing.T) {
	q := NewDeletionQueue()
	q.Push(func() {})
	q.Push(func() { panic("device lost") })

	assert.PanicsWithValue(t, "device lost", q.Flush)
}
