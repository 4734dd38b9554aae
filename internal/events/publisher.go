// Package events publishes order lifecycle events to Kafka so downstream
// consumers (fulfilment, notifications) can react without polling the ledger.
// Publishing is optional: without configured brokers the service runs with a
// no-op publisher.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/varahajewels/storefront-api/internal/domain/order"
)

var _ order.Publisher = (*Kafka)(nil)

// Kafka publishes order events to a single topic, keyed by order id so all
// events for one order land in the same partition.
type Kafka struct {
	client *kgo.Client
	topic  string
	lg     *zap.Logger
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, topic string, lg *zap.Logger) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10*time.Millisecond),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka client")
	}
	return &Kafka{client: client, topic: topic, lg: lg}, nil
}

// Publish sends one event. Delivery is asynchronous; broker-side failures are
// logged rather than surfaced, matching the best-effort contract.
func (k *Kafka) Publish(ctx context.Context, e order.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(e.Order.ID),
		Value: value,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			k.lg.Warn("deliver order event",
				zap.String("type", e.Type), zap.String("order_id", e.Order.ID), zap.Error(err))
		}
	})
	return nil
}

// Close flushes buffered records and releases the client.
func (k *Kafka) Close(ctx context.Context) error {
	if err := k.client.Flush(ctx); err != nil {
		k.client.Close()
		return errors.Wrap(err, "flush kafka producer")
	}
	k.client.Close()
	return nil
}

// Noop discards every event. Used when no brokers are configured.
type Noop struct{}

// Publish implements order.Publisher.
func (Noop) Publish(context.Context, order.Event) error { return nil }
