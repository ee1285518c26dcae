// Package events carries string-topic/string-payload notifications from the
// launch pipeline out to whatever is watching it (a TUI, a CLI, a test).
package events

import "sync"

// Topic names the well-known events the launch pipeline emits.
const (
	TopicLaunching = "mc:launching"
	TopicLogLine   = "mc:log_line"
	TopicStarted   = "mc:started"
	TopicExited    = "mc:exited"
)

// Handler receives a topic's payload. Handlers run synchronously, in
// registration order, on the emitting goroutine.
type Handler func(payload string)

// Bus is a mutex-guarded topic/payload emitter.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{listeners: make(map[string][]Handler)}
}

// On registers a handler for a topic. Multiple handlers may share a topic.
func (b *Bus) On(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[topic] = append(b.listeners[topic], handler)
}

// Emit calls every handler registered for topic, in order, synchronously.
func (b *Bus) Emit(topic, payload string) {
	b.mu.RLock()
	handlers := b.listeners[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
