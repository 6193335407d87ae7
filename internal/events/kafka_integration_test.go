//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap/zaptest"

	"schemefinder/internal/events"
	"schemefinder/pkg/testutil/containers"
)

func TestKafkaSinkProducesJSONRecords(t *testing.T) {
	broker := containers.NewRedpandaContainer(t).Broker
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "eligibility-checks"
	sink, err := events.NewKafkaSink(ctx, []string{broker}, topic, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = sink.Close(context.Background()) }()

	// A second sink against the same topic must tolerate the existing topic.
	again, err := events.NewKafkaSink(ctx, []string{broker}, topic, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, again.Close(ctx))

	event := events.NewCheckEvent(time.Now().UTC(), "req-kafka")
	event.MatchedIDs = []int{2, 5}
	require.NoError(t, sink.Write(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, event.ID, string(records[0].Key))
	var got events.CheckEvent
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "req-kafka", got.RequestID)
	assert.Equal(t, []int{2, 5}, got.MatchedIDs)
}
