package binding

import (
	"context"
	"sync/atomic"

	"codeberg.org/snonux/flashgen/internal/observable"
	"codeberg.org/snonux/flashgen/internal/storage"
)

// NativeOrigin marks events relayed from the storage watcher.
const NativeOrigin uint64 = 0

// Event announces a new raw value for a key.
type Event struct {
	Key     string
	Raw     string
	Deleted bool
	// Origin identifies the publishing binding, NativeOrigin for
	// changes made by another process.
	Origin uint64
	Native bool
}

// Bus is the in-process channel on which bindings announce writes.
// Delivery is synchronous and in subscription order.
type Bus struct {
	subject observable.Subject[Event]
	origins atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// NewOrigin hands out a unique non-native origin id.
func (b *Bus) NewOrigin() uint64 {
	return b.origins.Add(1)
}

// Publish delivers e to every subscriber.
func (b *Bus) Publish(e Event) {
	b.subject.Publish(e)
}

// Subscribe registers fn and returns its unsubscribe function.
func (b *Bus) Subscribe(fn func(Event)) func() {
	return b.subject.Subscribe(fn)
}

// Relay forwards storage events onto the bus until events is closed or
// ctx is done.
func Relay(ctx context.Context, events <-chan storage.Event, bus *Bus) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			bus.Publish(Event{
				Key:     ev.Key,
				Raw:     ev.NewValue,
				Deleted: ev.Deleted,
				Origin:  NativeOrigin,
				Native:  true,
			})
		}
	}
}
