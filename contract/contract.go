//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Member is a connected participant's delivery handle.
// Send is fire and forget: delivery failure is handled inside the transport
// and never surfaced to the Room.
type Member interface {
	ID() string
	Send(payload any)
	Close() error
}

// IQueue is the notification queue seen from both sides: the Room pushes
// entries, dispatch workers pop them. Pop never blocks; the second return
// value is false when the queue is empty.
type IQueue interface {
	Push(ctx context.Context, entry domain.QueueEntry) error
	Pop(ctx context.Context) (domain.QueueEntry, bool, error)
}

// NotificationSink performs the downstream delivery side effect for one
// popped queue entry. A failed entry is not re-queued.
type NotificationSink interface {
	Process(ctx context.Context, entry domain.QueueEntry) error
}
