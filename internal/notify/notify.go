// Package notify delivers {title, body} events raised by the core
// (download completion/failure, low storage, session recovery). The core
// never formats platform notifications itself; it hands events to a
// Notifier and moves on.
package notify

import (
	"context"
	"log"
)

type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// LogNotifier writes events to the process log. It is the default sink
// and the fallback when no platform bridge is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, title, body string) error {
	log.Printf("notify: %s — %s", title, body)
	return nil
}

// Multi fans an event out to every sink, returning the first error after
// all sinks ran.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, body string) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, title, body); err != nil && first == nil {
			first = err
		}
	}
	return first
}
