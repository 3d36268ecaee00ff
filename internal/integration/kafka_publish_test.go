//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/storm-track-map/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-map/internal/config"
	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
)

const testSceneTopic = "test-scenes"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("storm-track-map"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

func loadStorms(t *testing.T) []domain.StormTrack {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "storms_2025_08.json"))
	require.NoError(t, err)
	var c domain.StormCollection
	require.NoError(t, json.Unmarshal(data, &c))
	return c.Storms
}

// TestPublishOverviewScene renders the August 2025 fixture and reads every
// published storm back from the topic.
func TestPublishOverviewScene(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSceneTopic)

	metrics := observability.NewMetricsForTesting()
	scene := render.NewRenderer(discardLogger(), metrics).Render(loadStorms(t), render.Overview())

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSceneTopic: testSceneTopic}
	pub := kafka.NewPublisher(cfg, metrics, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	require.NoError(t, pub.Publish(ctx, "2025-08", scene))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSceneTopic,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	seen := make(map[string]kafka.TrackMessage)
	for len(seen) < len(scene.Groups) {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read scene message")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "overview", headers["mode"])
		assert.Equal(t, "2025-08", headers["month"])

		var track kafka.TrackMessage
		require.NoError(t, json.Unmarshal(msg.Value, &track))
		assert.Equal(t, string(msg.Key), track.StormID)
		seen[track.StormID] = track
	}

	for _, g := range scene.Groups {
		track, ok := seen[g.StormID]
		require.True(t, ok, "storm %s not published", g.StormID)
		assert.Equal(t, g.Name, track.Name)
		assert.InDelta(t, g.Style.Opacity, track.Opacity, 1e-9)
		assert.Len(t, track.Segments, len(g.Polylines))
	}
}
