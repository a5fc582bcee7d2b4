// Package notify provides transient user notices and change fan-out.
//
// Notices are non-blocking: a sink shows them briefly and never
// interrupts with a modal. The Hub also carries an observer registry
// used by the mark store and config for change notification.
package notify

import (
	"fmt"
	"sync"
)

// Sink receives user notices for display.
type Sink func(msg string)

// Observer is called when a watched value changes.
type Observer func(topic string)

// Hub fans notices out to a sink and change events out to observers.
// The zero value is not usable; call New.
type Hub struct {
	mu        sync.RWMutex
	sink      Sink
	observers map[string]map[uint64]Observer
	nextID    uint64
}

// New creates a Hub. A nil sink drops notices.
func New(sink Sink) *Hub {
	return &Hub{
		sink:      sink,
		observers: make(map[string]map[uint64]Observer),
	}
}

// SetSink replaces the notice sink.
func (h *Hub) SetSink(sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink = sink
}

// Notice shows a transient user notice.
func (h *Hub) Notice(msg string) {
	h.mu.RLock()
	sink := h.sink
	h.mu.RUnlock()
	if sink != nil {
		sink(msg)
	}
}

// Noticef shows a formatted transient notice.
func (h *Hub) Noticef(format string, args ...any) {
	h.Notice(fmt.Sprintf(format, args...))
}

// Subscribe registers an observer for a topic. The returned function
// unsubscribes and is safe to call more than once.
func (h *Hub) Subscribe(topic string, obs Observer) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.observers[topic] == nil {
		h.observers[topic] = make(map[uint64]Observer)
	}
	h.observers[topic][id] = obs

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.observers[topic], id)
	}
}

// Publish notifies every observer of the topic.
func (h *Hub) Publish(topic string) {
	h.mu.RLock()
	obs := make([]Observer, 0, len(h.observers[topic]))
	for _, o := range h.observers[topic] {
		obs = append(obs, o)
	}
	h.mu.RUnlock()

	for _, o := range obs {
		o(topic)
	}
}

// Topics published by the layer.
const (
	TopicMarks    = "marks"
	TopicSettings = "settings"
	TopicKeybinds = "keybinds"
)
