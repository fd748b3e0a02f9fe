package jobs

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/charlesng35/stackapp/pkg/logger"
)

const testProject = "stackapp-test"

func newFakePubSub(t *testing.T) (*pstest.Server, *pubsub.Client) {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(context.Background(), testProject, option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestNewPublisherDisabledWithoutTopic(t *testing.T) {
	for _, cfg := range []PubSubConfig{{}, {ProjectID: testProject}, {Topic: "jobs"}} {
		publisher, err := NewPublisher(context.Background(), cfg)
		require.NoError(t, err)
		require.IsType(t, DisabledPublisher{}, publisher)

		publisher.Publish(context.Background(), ProcessItemEvent(1, "u"))
		require.NoError(t, publisher.Close())
	}
}

func TestPubSubPublisherDeliversEnvelope(t *testing.T) {
	srv, client := newFakePubSub(t)
	ctx := context.Background()
	_, err := client.CreateTopic(ctx, "jobs")
	require.NoError(t, err)

	publisher := NewPubSubPublisherWithClient(client, PubSubConfig{ProjectID: testProject, Topic: "jobs"})
	publisher.Publish(ctx, ProcessItemEvent(7, "user-1"))
	require.NoError(t, publisher.Close())

	messages := srv.Messages()
	require.Len(t, messages, 1)
	require.JSONEq(t, `{"type":"process_item","item_id":7,"requested_by":"user-1"}`, string(messages[0].Data))
	require.Equal(t, TypeProcessItem, messages[0].Attributes["type"])
}

func TestPubSubPublisherIgnoresCallerCancellation(t *testing.T) {
	srv, client := newFakePubSub(t)
	_, err := client.CreateTopic(context.Background(), "jobs")
	require.NoError(t, err)

	publisher := NewPubSubPublisherWithClient(client, PubSubConfig{ProjectID: testProject, Topic: "jobs"})

	ctx, cancel := context.WithCancel(context.Background())
	publisher.Publish(ctx, ProcessItemEvent(8, "user-2"))
	cancel()
	publisher.Flush()

	require.Len(t, srv.Messages(), 1)
	require.NoError(t, publisher.Close())
}

func TestPubSubPublisherLogsBrokerFailure(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(nil) })

	_, client := newFakePubSub(t)
	publisher := NewPubSubPublisherWithClient(client, PubSubConfig{ProjectID: testProject, Topic: "missing-topic"})

	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), ProcessItemEvent(9, "user-3"))
	})
	require.NoError(t, publisher.Close())

	entries := recorded.FilterMessage("job publish failed").All()
	require.Len(t, entries, 1)
	require.Equal(t, "missing-topic", entries[0].ContextMap()["topic"])
}
