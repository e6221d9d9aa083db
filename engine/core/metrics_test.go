package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAverageAfterFullWindow(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < avgCount-1; i++ {
		m.Update(10 * time.Millisecond)
	}
	assert.Zero(t, m.FrameTime())

	m.Update(10 * time.Millisecond)
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)
}

func TestMetricsFPSRollsOverEachSecond(t *testing.T) {
	m := NewMetrics()
	rolled := 0
	for i := 0; i < 120; i++ {
		if m.Update(20 * time.Millisecond) {
			rolled++
		}
	}
	assert.Equal(t, 2, rolled)
	fps, _ := m.Frame()
	assert.Equal(t, 50.0, fps)
}
