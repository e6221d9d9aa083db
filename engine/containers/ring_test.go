package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingSelectsByCounterModulo(t *testing.T) {
	r := NewRing[string](2)
	r.Set(0, "even")
	r.Set(1, "odd")

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "even", r.At(0))
	assert.Equal(t, "odd", r.At(1))
	assert.Equal(t, "even", r.At(2))
	assert.Equal(t, "odd", r.At(1<<40+1))
}

func TestRingEachVisitsInOrder(t *testing.T) {
	r := NewRing[int](3)
	for i := 0; i < 3; i++ {
		r.Set(i, i*10)
	}
	var seen []int
	r.Each(func(i int, v int) { seen = append(seen, v) })
	assert.Equal(t, []int{0, 10, 20}, seen)
}

func TestRingRejectsZeroSize(t *testing.T) {
	assert.Panics(t, func() { NewRing[int](0) })
}
