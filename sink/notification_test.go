package sink

import (
	"chat-relay/domain"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeliverySink_Counts_Processed_Entries(t *testing.T) {
	req := require.New(t)
	deliveries := NewDeliverySink(slog.Default())

	for i := 0; i < 3; i++ {
		err := deliveries.Process(context.Background(), domain.QueueEntry{
			Kind: domain.KindGroup, Room: "1", ClientGeneratedID: "abc",
		})
		req.NoError(err)
	}

	req.Equal(int64(3), deliveries.Processed())
}
