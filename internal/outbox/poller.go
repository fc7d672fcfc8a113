// Package outbox publishes order integration events recorded by the orders
// store. Events are written in the same transaction as the order items and
// drained here, so a completed order is eventually announced even if the
// broker was down at checkout time.
package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/huulo/storefront/internal/orders"
)

const defaultBatchSize = 100

// messageWriter is the slice of kafka.Writer the poller needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Poller struct {
	tick   time.Duration
	source orders.OutboxSource
	writer messageWriter
}

// NewPoller publishes order events to the given brokers on the order-events
// topic.
func NewPoller(source orders.OutboxSource, brokers ...string) *Poller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "order-events",
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Poller{tick: time.Second, source: source, writer: w}
}

func newPollerWithWriter(source orders.OutboxSource, writer messageWriter) *Poller {
	return &Poller{tick: time.Second, source: source, writer: writer}
}

// Run drains the outbox until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.source.UnprocessedEvents(ctx, defaultBatchSize)
	if err != nil {
		slog.Error("failed to fetch outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			slog.Error("failed to publish outbox event", "event_id", event.ID, "error", err)
			continue
		}

		if err := p.source.MarkEventProcessed(ctx, event.ID); err != nil {
			slog.Error("failed to mark outbox event processed", "event_id", event.ID, "error", err)
			continue
		}
	}
}

func (p *Poller) publish(ctx context.Context, event *orders.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order ID, for per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
