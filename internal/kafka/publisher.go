package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
)

type publisher struct {
	writer  messageWriter
	topic   string
	metrics *prometheus.HistogramVec
}

// NewPublisher returns a kafka-backed publisher, or a noop one when kafka is
// disabled in configuration.
func NewPublisher(lc fx.Lifecycle, conf *config.Config) (Publisher, error) {
	if !conf.Kafka.Enabled {
		logctx.Warnf(context.Background(), "Kafka publisher is disabled in configuration")
		return &noopPublisher{}, nil
	}
	if len(conf.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka enabled without brokers")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(conf.Kafka.Brokers...),
		Topic:        conf.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	p, err := newPublisher(writer, conf.Kafka.Topic)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return writer.Close()
		},
	})
	return p, nil
}

func newPublisher(writer messageWriter, topic string) (*publisher, error) {
	metrics, err := util.GetHistogramVec("kafka_messages_produced", "status", "topic")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &publisher{writer: writer, topic: topic, metrics: metrics}, nil
}

// Publish writes the event keyed by caller so one caller's events stay ordered.
func (p *publisher) Publish(ctx context.Context, event models.ListingEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal listing event: %w", err)
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.CallerID),
		Value: value,
		Time:  event.OccurredAt,
	})
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.WithLabelValues(status, p.topic).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("write listing event: %w", err)
	}

	logctx.Debugw(ctx, "listing event published", "type", event.Type, "product_id", event.ProductID)
	return nil
}

// noopPublisher is used when Kafka is disabled
type noopPublisher struct{}

func (n *noopPublisher) Publish(context.Context, models.ListingEvent) error {
	return nil
}
