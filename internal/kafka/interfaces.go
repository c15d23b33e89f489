package kafka

import (
	"context"

	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/segmentio/kafka-go"
)

// Publisher emits listing lifecycle events after a mutation is committed.
type Publisher interface {
	Publish(ctx context.Context, event models.ListingEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
