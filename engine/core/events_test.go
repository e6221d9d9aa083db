package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusStopsAtFirstHandler(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	bus.Register(EventKeyPressed, func(code EventCode, sender interface{}, data EventContext) bool {
		calls = append(calls, "first")
		return data.Key == KeyEscape
	})
	bus.Register(EventKeyPressed, func(code EventCode, sender interface{}, data EventContext) bool {
		calls = append(calls, "second")
		return true
	})

	assert.True(t, bus.Fire(EventKeyPressed, nil, EventContext{Key: KeyEscape}))
	assert.Equal(t, []string{"first"}, calls)

	calls = nil
	assert.True(t, bus.Fire(EventKeyPressed, nil, EventContext{Key: KeySpace}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	fired := 0
	id := bus.Register(EventResized, func(EventCode, interface{}, EventContext) bool {
		fired++
		return false
	})

	assert.False(t, bus.Fire(EventResized, nil, EventContext{Width: 10, Height: 10}))
	assert.Equal(t, 1, fired)

	assert.True(t, bus.Unregister(EventResized, id))
	assert.False(t, bus.Unregister(EventResized, id))
	assert.False(t, bus.Fire(EventResized, nil, EventContext{}))
	assert.Equal(t, 1, fired)
}

func TestEventBusShutdown(t *testing.T) {
	bus := NewEventBus()
	bus.Register(EventApplicationQuit, func(EventCode, interface{}, EventContext) bool { return true })
	bus.Shutdown()
	assert.False(t, bus.Fire(EventApplicationQuit, nil, EventContext{}))
}
