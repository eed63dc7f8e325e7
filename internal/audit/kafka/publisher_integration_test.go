//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kgo"

	"opsdash/internal/audit"
	"opsdash/internal/audit/kafka"
	id "opsdash/pkg/domain"
)

func TestPublisher_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcredpanda.Run(ctx, "redpandadata/redpanda:v24.1.2")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	broker, err := container.KafkaSeedBroker(ctx)
	require.NoError(t, err)

	const topic = "opsdash.audit.session.test"
	publisher, err := kafka.NewPublisher(ctx, []string{broker}, topic)
	require.NoError(t, err)
	t.Cleanup(publisher.Close)

	userID := id.NewUserID()
	event := audit.Event{
		ID:        "evt-1",
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		UserID:    userID,
		Email:     "ada@example.com",
		Action:    audit.ActionSignedIn,
		Device:    "Chrome on macOS",
	}
	require.NoError(t, publisher.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, userID.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, event.Action, got.Action)
	require.Equal(t, event.Email, got.Email)
}
