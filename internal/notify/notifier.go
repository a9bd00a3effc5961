package notify

import (
	"context"
	"log/slog"
	"time"
)

// Notifier is the fire-and-forget notification port. Controllers publish
// case events through it; delivery failures are logged, never surfaced to
// the staff operation that produced the event.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Sink receives drained events. Implemented by the kafka publisher and by
// test doubles.
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// ChannelNotifier decouples controllers from the delivery sink with a
// buffered channel. Publish never blocks the request path: when the buffer
// is full the event is dropped and counted, which is acceptable for a
// notification stream that is not required for correctness.
type ChannelNotifier struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelNotifier(buffer int, logger *slog.Logger) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelNotifier{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

func (n *ChannelNotifier) Publish(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case n.inbox <- event:
	default:
		n.logger.Warn("notification buffer full, dropping event",
			"kind", string(event.Kind),
			"case_code", event.CaseCode,
		)
	}
	return nil
}

// Inbox exposes the receive side for the worker.
func (n *ChannelNotifier) Inbox() <-chan Event { return n.inbox }
