// Package events is the outbound channel for non-fatal failures. The
// render loop and the control surface run in call contexts that must
// never crash, so failures are logged and dispatched as named events
// that hosts and tests can observe.
package events

import (
	"fmt"
	"log"
	"sync"
)

// ErrorEvent is the name carried by events dispatched via ReportError.
const ErrorEvent = "PlayerError"

// Event is a named notification with a single text message.
type Event struct {
	Name    string
	Message string
}

// Bus fans events out to subscribers. The zero value is usable.
type Bus struct {
	mu   sync.Mutex
	subs []func(Event)
}

// Subscribe registers a callback invoked for every dispatched event.
// Callbacks run on the dispatching goroutine and must not block.
func (b *Bus) Subscribe(fn func(Event)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

// Dispatch delivers ev to all subscribers. A panicking subscriber is
// logged and skipped; there is no further escalation channel.
func (b *Bus) Dispatch(ev Event) {
	b.mu.Lock()
	subs := make([]func(Event), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("event subscriber failed for %q: %v", ev.Name, r)
				}
			}()
			fn(ev)
		}()
	}
}

// ReportError logs the message and dispatches it as an ErrorEvent so
// the failure is externally visible without crashing anything.
func (b *Bus) ReportError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Print(msg)
	b.Dispatch(Event{Name: ErrorEvent, Message: msg})
}
