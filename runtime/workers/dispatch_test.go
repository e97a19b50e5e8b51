package workers

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatchWorker_Processes_Popped_Entry(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queueMock := mocks.NewMockIQueue(ctrl)
	sinkMock := mocks.NewMockNotificationSink(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entry := domain.QueueEntry{Kind: domain.KindGroup, Room: "1", ClientGeneratedID: "abc"}
	queueMock.EXPECT().Pop(gomock.Any()).Return(entry, true, nil)
	sinkMock.EXPECT().
		Process(gomock.Any(), entry).
		DoAndReturn(func(ctx context.Context, e domain.QueueEntry) error {
			cancel()
			return nil
		})

	worker := NewDispatchWorker(queueMock, sinkMock, time.Millisecond, slog.Default())
	err := worker.Run(ctx)
	req.ErrorIs(err, context.Canceled)
}

func TestDispatchWorker_Keeps_Polling_On_Empty_Queue(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queueMock := mocks.NewMockIQueue(ctrl)
	sinkMock := mocks.NewMockNotificationSink(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	polls := 0
	queueMock.EXPECT().
		Pop(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (domain.QueueEntry, bool, error) {
			polls++
			if polls == 3 {
				cancel()
			}
			return domain.QueueEntry{}, false, nil
		}).
		Times(3)

	worker := NewDispatchWorker(queueMock, sinkMock, time.Millisecond, slog.Default())
	err := worker.Run(ctx)
	req.ErrorIs(err, context.Canceled)
	req.Equal(3, polls)
}

func TestDispatchWorker_Drops_Failed_Entry_Without_Requeue(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queueMock := mocks.NewMockIQueue(ctrl)
	sinkMock := mocks.NewMockNotificationSink(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entry := domain.QueueEntry{Kind: domain.KindDirect, Room: "12", ClientGeneratedID: "abc"}
	gomock.InOrder(
		queueMock.EXPECT().Pop(gomock.Any()).Return(entry, true, nil),
		queueMock.EXPECT().
			Pop(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (domain.QueueEntry, bool, error) {
				cancel()
				return domain.QueueEntry{}, false, nil
			}),
	)
	// The failed entry is never pushed back, the loop simply moves on.
	sinkMock.EXPECT().Process(gomock.Any(), entry).Return(fmt.Errorf("provider down"))

	worker := NewDispatchWorker(queueMock, sinkMock, time.Millisecond, slog.Default())
	err := worker.Run(ctx)
	req.ErrorIs(err, context.Canceled)
}

func TestDispatchWorker_Survives_Pop_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queueMock := mocks.NewMockIQueue(ctrl)
	sinkMock := mocks.NewMockNotificationSink(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gomock.InOrder(
		queueMock.EXPECT().Pop(gomock.Any()).Return(domain.QueueEntry{}, false, fmt.Errorf("broken frame")),
		queueMock.EXPECT().
			Pop(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (domain.QueueEntry, bool, error) {
				cancel()
				return domain.QueueEntry{}, false, nil
			}),
	)

	worker := NewDispatchWorker(queueMock, sinkMock, time.Millisecond, slog.Default())
	err := worker.Run(ctx)
	req.ErrorIs(err, context.Canceled)
}
