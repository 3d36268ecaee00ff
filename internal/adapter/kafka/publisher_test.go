package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-track-map/internal/domain"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/render"
)

type fakeWriter struct {
	errs   []error
	calls  int
	msgs   []kafkago.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return err
		}
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var renderedAt = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func overviewScene() *render.Scene {
	return &render.Scene{
		Mode:       render.ModeOverview,
		RenderedAt: renderedAt,
		Groups: []render.StyleGroup{
			{
				StormID: "2025223N16334",
				Name:    "ERIN",
				Style:   domain.Style{Color: domain.IntensityColor, Opacity: 0.75},
				Polylines: []render.Polyline{
					{Points: []domain.Point{{Lat: 16, Lon: -26}, {Lat: 17, Lon: -28}}},
				},
			},
			{
				StormID: "2025214N16242",
				Name:    "HENRIETTE",
				Style:   domain.Style{Color: domain.IntensityColor, Opacity: 0.5},
				Polylines: []render.Polyline{
					{Points: []domain.Point{{Lat: 30, Lon: 178}}},
					{Points: []domain.Point{{Lat: 31, Lon: -179}}},
				},
			},
			{StormID: "EMPTY", Name: "NOT_NAMED"},
		},
	}
}

func newTestPublisher(w *fakeWriter) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return newPublisher(w, m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func TestPublish_OneMessagePerDrawableStorm(t *testing.T) {
	w := &fakeWriter{}
	p, m := newTestPublisher(w)

	require.NoError(t, p.Publish(context.Background(), "2025-08", overviewScene()))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("2025223N16334"), w.msgs[0].Key)
	assert.Equal(t, []byte("2025214N16242"), w.msgs[1].Key)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScenesPublished))
}

func TestPublish_SkipsDetailedScenes(t *testing.T) {
	w := &fakeWriter{}
	p, m := newTestPublisher(w)

	scene := overviewScene()
	scene.Mode = render.ModeDetailed
	require.NoError(t, p.Publish(context.Background(), "2025-08", scene))

	assert.Zero(t, w.calls)
	assert.Zero(t, testutil.ToFloat64(m.ScenesPublished))
}

func TestPublish_RetriesTransientFailure(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("leader not available"), nil}}
	p, m := newTestPublisher(w)

	require.NoError(t, p.Publish(context.Background(), "2025-08", overviewScene()))
	assert.Equal(t, 2, w.calls)
	assert.Len(t, w.msgs, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScenesPublished))
}

func TestPublish_GivesUpAfterAttempts(t *testing.T) {
	boom := errors.New("broker down")
	w := &fakeWriter{errs: []error{boom, boom, boom}}
	p, m := newTestPublisher(w)

	err := p.Publish(context.Background(), "2025-08", overviewScene())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, publishAttempts, w.calls)
	assert.Zero(t, testutil.ToFloat64(m.ScenesPublished))
}

func TestPublish_StopsOnCancelledContext(t *testing.T) {
	w := &fakeWriter{errs: []error{errors.New("broker down")}}
	p, _ := newTestPublisher(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "2025-08", overviewScene())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, w.calls)
}

func TestSerializeToMessage(t *testing.T) {
	scene := overviewScene()
	msg, err := serializeToMessage("2025-08", scene, scene.Groups[1])
	require.NoError(t, err)

	assert.Equal(t, []byte("2025214N16242"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("overview"), msg.Headers[0].Value)
	assert.Equal(t, "month", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-08"), msg.Headers[1].Value)
	assert.Equal(t, "rendered_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2025-09-01T12:00:00Z"), msg.Headers[2].Value)

	var got TrackMessage
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "HENRIETTE", got.Name)
	assert.Equal(t, "2025-08", got.Month)
	assert.Equal(t, 0.5, got.Opacity)
	require.Len(t, got.Segments, 2)
	assert.Equal(t, domain.Point{Lat: 31, Lon: -179}, got.Segments[1][0])
	assert.True(t, renderedAt.Equal(got.RenderedAt))
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	p, _ := newTestPublisher(w)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
