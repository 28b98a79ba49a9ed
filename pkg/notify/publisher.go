package notify

import "context"

// Publisher delivers one event to a transport.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Broker is a Publisher that can also feed events published by any
// instance back into a local sink.
type Broker interface {
	Publisher
	// Relay blocks until ctx is done or the subscription fails.
	Relay(ctx context.Context, sink Publisher) error
}

type discard struct{}

// Discard drops every event.
func Discard() Publisher {
	return discard{}
}

func (discard) Publish(context.Context, Event) error { return nil }

func (discard) Close() error { return nil }
