package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/cyclone-catalog/internal/config"
	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

// SnapshotEvent announces a newly installed catalog snapshot.
type SnapshotEvent struct {
	SnapshotID string              `json:"snapshot_id"`
	BuiltAt    time.Time           `json:"built_at"`
	Stats      domain.CatalogStats `json:"stats"`
	Storms     []StormSummary      `json:"storms"`
}

// StormSummary lists a storm's products and the time span they cover.
type StormSummary struct {
	Name     string   `json:"name"`
	Products []string `json:"products"`
	Start    string   `json:"start,omitempty"`
	End      string   `json:"end,omitempty"`
}

// Writer publishes snapshot events to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSnapshotTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish writes one event for the snapshot.
func (w *Writer) Publish(ctx context.Context, cat *domain.Catalog) error {
	msg, err := serializeToMessage(NewSnapshotEvent(cat))
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write snapshot event: %w", err)
	}
	w.logger.Debug("snapshot event published", "snapshot_id", cat.ID, "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// NewSnapshotEvent summarizes a catalog.
func NewSnapshotEvent(cat *domain.Catalog) SnapshotEvent {
	ev := SnapshotEvent{
		SnapshotID: cat.ID,
		BuiltAt:    cat.BuiltAt,
		Stats:      cat.Stats(),
		Storms:     []StormSummary{},
	}
	for _, name := range cat.StormNames() {
		cy, _ := cat.Cyclone(name)
		s := StormSummary{Name: name, Products: cy.ProductNames()}

		var start, end time.Time
		for _, p := range cy.Products {
			ds := p.Dataset
			if ds == nil || !ds.TimeSensitive || ds.Len() == 0 {
				continue
			}
			if start.IsZero() || ds.StartDate().Before(start) {
				start = ds.StartDate()
			}
			if ds.EndDate().After(end) {
				end = ds.EndDate()
			}
		}
		if !start.IsZero() {
			s.Start = start.Format(time.RFC3339)
			s.End = end.Format(time.RFC3339)
		}
		ev.Storms = append(ev.Storms, s)
	}
	return ev
}

// serializeToMessage marshals a SnapshotEvent into a Kafka message keyed by
// snapshot id.
func serializeToMessage(ev SnapshotEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(ev.SnapshotID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte("catalog.snapshot")},
			{Key: "built_at", Value: []byte(ev.BuiltAt.Format(time.RFC3339))},
		},
	}, nil
}
