package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during one loop
// iteration are delivered by the next SwapBuffers + DispatchAll pair.
// Emit may be called from any goroutine (room ticks run in parallel);
// SwapBuffers and DispatchAll belong to the loop goroutine.
type Bus struct {
	mu       sync.Mutex // protects back and handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	order    []reflect.Type // event types in first-seen order
	known    map[reflect.Type]bool
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		known:    make(map[reflect.Type]bool),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	if !b.known[t] {
		b.known[t] = true
		b.order = append(b.order, t)
	}
	b.back[t] = append(b.back[t], event)
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// Event types are visited in first-seen order, so a type emitted earlier in
// the server's life is always delivered before a later one.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	order := append([]reflect.Type(nil), b.order...)
	b.mu.Unlock()

	for _, t := range order {
		events := b.front[t]
		if len(events) == 0 {
			continue
		}
		b.mu.Lock()
		handlers := append([]any(nil), b.handlers[t]...)
		b.mu.Unlock()
		for _, ev := range events {
			for _, h := range handlers {
				callHandler(h, ev)
			}
		}
		b.front[t] = events[:0]
	}
}

// Pending reports how many events of type T are waiting in the back buffer.
func Pending[T any](b *Bus) int {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back[t])
}

// Drain removes and returns the back-buffer events of type T without
// dispatching them.
func Drain[T any](b *Bus) []T {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	defer b.mu.Unlock()
	raw := b.back[t]
	out := make([]T, 0, len(raw))
	for _, ev := range raw {
		out = append(out, ev.(T))
	}
	b.back[t] = raw[:0]
	return out
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
