// Package kafka publishes rendered overview scenes to a Kafka topic, one
// message per storm.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-track-map/internal/config"
	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
)

const (
	publishAttempts = 3
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

// messageWriter is the subset of kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// TrackMessage is the JSON value of one published storm track.
type TrackMessage struct {
	StormID    string           `json:"storm_id"`
	Name       string           `json:"name"`
	Month      string           `json:"month"`
	Color      string           `json:"color"`
	Opacity    float64          `json:"opacity"`
	Segments   [][]domain.Point `json:"segments"`
	RenderedAt time.Time        `json:"rendered_at"`
}

// Publisher produces overview style groups to the scene topic.
type Publisher struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured scene topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSceneTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newPublisher(w, metrics, logger)
}

func newPublisher(w messageWriter, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish writes one message per style group of an overview scene. Detailed
// scenes are not published. Storms with no drawable segment are skipped.
func (p *Publisher) Publish(ctx context.Context, month string, scene *render.Scene) error {
	if scene.Mode != render.ModeOverview {
		return nil
	}

	msgs := make([]kafkago.Message, 0, len(scene.Groups))
	for _, g := range scene.Groups {
		if len(g.Polylines) == 0 {
			continue
		}
		msg, err := serializeToMessage(month, scene, g)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}

	if err := p.write(ctx, msgs); err != nil {
		return err
	}
	p.metrics.ScenesPublished.Inc()
	p.logger.Debug("scene published", "month", month, "storms", len(msgs))
	return nil
}

// write retries transient failures with exponential backoff.
func (p *Publisher) write(ctx context.Context, msgs []kafkago.Message) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		if err = p.writer.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if attempt == publishAttempts {
			break
		}
		p.logger.Warn("scene publish failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish scene: %w", ctx.Err())
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("publish scene after %d attempts: %w", publishAttempts, err)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals one storm's overview group into a Kafka message
// keyed by storm id.
func serializeToMessage(month string, scene *render.Scene, g render.StyleGroup) (kafkago.Message, error) {
	segments := make([][]domain.Point, len(g.Polylines))
	for i, pl := range g.Polylines {
		segments[i] = pl.Points
	}
	data, err := json.Marshal(TrackMessage{
		StormID:    g.StormID,
		Name:       g.Name,
		Month:      month,
		Color:      g.Style.Color,
		Opacity:    g.Style.Opacity,
		Segments:   segments,
		RenderedAt: scene.RenderedAt.UTC(),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize storm %s: %w", g.StormID, err)
	}
	return kafkago.Message{
		Key:   []byte(g.StormID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(scene.Mode)},
			{Key: "month", Value: []byte(month)},
			{Key: "rendered_at", Value: []byte(scene.RenderedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
