// Package sink holds the downstream side of notification dispatch.
package sink

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
	"sync/atomic"
)

// Ensure *DeliverySink implements the contract at compile time.
var _ contract.NotificationSink = (*DeliverySink)(nil)

// DeliverySink is the default notification processor: it records each entry
// in the structured log and keeps a running count. The actual push provider
// integration lives outside this service; this sink is the seam where it
// plugs in.
type DeliverySink struct {
	log       *slog.Logger
	processed atomic.Int64
}

func NewDeliverySink(log *slog.Logger) *DeliverySink {
	return &DeliverySink{log: log}
}

func (d *DeliverySink) Process(_ context.Context, entry domain.QueueEntry) error {
	d.processed.Add(1)
	d.log.Info("Notification dispatched",
		"room", entry.Room,
		"kind", entry.Kind,
		"client_id", entry.ClientGeneratedID,
	)
	return nil
}

// Processed reports how many entries this sink has handled.
func (d *DeliverySink) Processed() int64 {
	return d.processed.Load()
}
