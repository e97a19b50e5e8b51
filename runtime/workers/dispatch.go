package workers

import (
	"chat-relay/contract"
	"context"
	"log/slog"
	"time"
)

// Ensure *DispatchWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*DispatchWorker)(nil)

// DispatchWorker drains the notification queue forever. Each iteration pops
// at most one entry and hands it to the sink; an empty queue pauses for the
// poll interval so the loop never blocks indefinitely on the queue itself.
//
// Delivery is at-most-once: a popped entry that fails processing is logged
// and dropped, never re-queued. The worker has no terminal state of its
// own, it runs until its context is canceled.
type DispatchWorker struct {
	queue        contract.IQueue
	sink         contract.NotificationSink
	pollInterval time.Duration
	log          *slog.Logger
}

func NewDispatchWorker(
	queue contract.IQueue,
	sink contract.NotificationSink,
	pollInterval time.Duration,
	log *slog.Logger,
) *DispatchWorker {
	return &DispatchWorker{queue: queue, sink: sink, pollInterval: pollInterval, log: log}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, ok, err := w.queue.Pop(ctx)
		if err != nil {
			// Covers both transport failures and undecodable frames. The
			// frame is already off the queue, so there is nothing to retry.
			w.log.Warn("Queue pop failed", "error", err)
			if !w.pause(ctx) {
				return ctx.Err()
			}
			continue
		}
		if !ok {
			if !w.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		if err := w.sink.Process(ctx, entry); err != nil {
			w.log.Warn("Notification processing failed, entry dropped",
				"room", entry.Room, "client_id", entry.ClientGeneratedID, "error", err)
		}
	}
}

// pause waits one poll interval, returning false when the context was
// canceled first.
func (w *DispatchWorker) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.pollInterval):
		return true
	}
}
