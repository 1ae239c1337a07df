//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"namegate/internal/events"
	"namegate/pkg/domain"
	"namegate/pkg/testutil/containers"
)

func TestKafkaFanoutDeliversEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	brokers := containers.GetManager().GetRedpanda(t).Brokers
	topic := fmt.Sprintf("namegate.events.%s", uuid.NewString())

	fanout, err := events.NewKafkaFanout(ctx, brokers, topic)
	require.NoError(t, err)
	defer fanout.Close()

	controller := domain.AccountID(uuid.New())
	sent := events.Event{
		ID:         uuid.New(),
		Sequence:   1,
		Type:       events.TypeDomainRegistered,
		At:         time.Now().UTC().Truncate(time.Millisecond),
		Name:       "test.org",
		Controller: controller,
	}
	require.NoError(t, fanout.Publish(ctx, sent))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "test.org", string(records[0].Key), "records are keyed by name")

	var got events.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, sent.ID, got.ID)
	require.Equal(t, events.TypeDomainRegistered, got.Type)
	require.Equal(t, "test.org", got.Name)
	require.Equal(t, controller, got.Controller)
}
