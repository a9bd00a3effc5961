package notify

import (
	"context"
	"log/slog"
)

// Worker drains the notifier's inbox and hands events to the sink. Delivery
// errors are logged and the worker keeps going; the notification stream is
// not awaited for correctness anywhere.
type Worker struct {
	inbox  <-chan Event
	sink   Sink
	logger *slog.Logger
}

func NewWorker(inbox <-chan Event, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{inbox: inbox, sink: sink, logger: logger}
}

// Run consumes events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Deliver(ctx, event); err != nil {
				w.logger.Error("notification delivery failed",
					"kind", string(event.Kind),
					"case_code", event.CaseCode,
					"error", err,
				)
			}
		}
	}
}
