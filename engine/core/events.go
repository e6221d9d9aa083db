package core

import "sync"

// System event codes. Application codes start at EventCodeUser.
type EventCode uint16

const (
	// Closes the window on the next frame.
	EventApplicationQuit EventCode = iota + 1
	// Keyboard key pressed. Context: Key.
	EventKeyPressed
	// Keyboard key released. Context: Key.
	EventKeyReleased
	// Framebuffer resized by the OS. Context: Width, Height.
	EventResized

	EventCodeUser EventCode = 0x100
)

// Key codes delivered with key events.
type KeyCode uint16

const (
	KeyUnknown KeyCode = 0
	KeyEnter   KeyCode = 0x0D
	KeyEscape  KeyCode = 0x1B
	KeySpace   KeyCode = 0x20
	KeyQ       KeyCode = 0x51
)

type EventContext struct {
	Key    KeyCode
	Width  uint32
	Height uint32
}

// FnOnEvent should return true if it handled the event.
type FnOnEvent func(code EventCode, sender interface{}, data EventContext) bool

// ListenerID identifies a registration for Unregister.
type ListenerID uint64

type registeredEvent struct {
	id       ListenerID
	callback FnOnEvent
}

// EventBus dispatches events to listeners in registration order. A listener
// that returns true stops the dispatch.
type EventBus struct {
	mu         sync.RWMutex
	nextID     ListenerID
	registered map[EventCode][]registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{registered: make(map[EventCode][]registeredEvent)}
}

/**
 * Register to listen for when events are sent with the provided code.
 * @param code The event code to listen for.
 * @param onEvent The callback invoked when the event code is fired.
 * @returns An id to pass to Unregister.
 */
func (b *EventBus) Register(code EventCode, onEvent FnOnEvent) ListenerID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.registered[code] = append(b.registered[code], registeredEvent{id: b.nextID, callback: onEvent})
	return b.nextID
}

// Unregister reports whether a registration with id was found for code.
func (b *EventBus) Unregister(code EventCode, id ListenerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.registered[code]
	for i, e := range events {
		if e.id == id {
			b.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code.
 * @param code The event code to fire.
 * @param sender The sender. Can be nil.
 * @param data The event data.
 * @returns true if a listener handled it.
 */
func (b *EventBus) Fire(code EventCode, sender interface{}, data EventContext) bool {
	b.mu.RLock()
	events := make([]registeredEvent, len(b.registered[code]))
	copy(events, b.registered[code])
	b.mu.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, data) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (b *EventBus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registered = make(map[EventCode][]registeredEvent)
}
