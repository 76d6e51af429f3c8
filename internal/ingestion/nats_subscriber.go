package ingestion

import (
	"context"
	"fmt"
	"io"
	"time"

	"PayEngine/internal/observability"
	"PayEngine/internal/record"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// NATSSubscriber subscribes to a JetStream subject and feeds raw records
// into recordChan. A single durable consumer with explicit ACK preserves the
// input ordering the engine depends on; scaling out consumers would break
// the single-writer model and is deliberately not supported.
type NATSSubscriber struct {
	js         jetstream.JetStream
	recordChan chan<- RawRecord
	metrics    *observability.Metrics
	consumer   jetstream.ConsumeContext
}

// SubjectConfig maps the NATS subject to its stream and durable consumer.
type SubjectConfig struct {
	Subject      string
	ConsumerName string
	StreamName   string
}

// DefaultSubject returns the standard transaction subject configuration.
func DefaultSubject() SubjectConfig {
	return SubjectConfig{
		Subject:      "pay.transactions.>",
		ConsumerName: "payengine-transactions",
		StreamName:   "PAY_TRANSACTIONS",
	}
}

func NewNATSSubscriber(js jetstream.JetStream, recordChan chan<- RawRecord, metrics *observability.Metrics) *NATSSubscriber {
	return &NATSSubscriber{
		js:         js,
		recordChan: recordChan,
		metrics:    metrics,
	}
}

// Subscribe creates the JetStream consumer and starts delivery.
// The consumer uses explicit ACK, max_deliver=5, ack_wait=30s.
func (ns *NATSSubscriber) Subscribe(ctx context.Context, cfg SubjectConfig) error {
	consumer, err := ns.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
	}

	consumerContext, err := consumer.Consume(func(msg jetstream.Msg) {
		received := time.Now()
		raw := RawRecord{
			Subject:   msg.Subject(),
			Data:      msg.Data(),
			Timestamp: received,
			AckFunc:   func() { msg.Ack() },
			NakFunc:   func() { msg.Nak() },
		}

		select {
		case ns.recordChan <- raw:
			if ns.metrics != nil {
				ns.metrics.StreamRecordsReceived.Inc()
				ns.metrics.StreamPullLatency.Observe(time.Since(received).Seconds())
			}
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
	}

	ns.consumer = consumerContext
	return nil
}

// Drain halts delivery, waits for in-flight message callbacks to finish,
// then closes recordChan so the engine sees end of input. The subscriber
// owns the close: no callback can race a send against it. Records already
// queued stay queued for the engine to fold before snapshotting.
func (ns *NATSSubscriber) Drain() {
	if ns.consumer != nil {
		ns.consumer.Drain()
		<-ns.consumer.Closed()
	}
	close(ns.recordChan)
}

// StreamSource adapts the raw record channel into the engine's Source.
// Malformed messages are acked and dropped with a diagnostic, mirroring the
// CSV path; channel close is end of input.
type StreamSource struct {
	ch        <-chan RawRecord
	log       zerolog.Logger
	metrics   *observability.Metrics
	malformed int64
}

func NewStreamSource(ch <-chan RawRecord, metrics *observability.Metrics, log zerolog.Logger) *StreamSource {
	return &StreamSource{
		ch:      ch,
		log:     log,
		metrics: metrics,
	}
}

func (s *StreamSource) Next() (record.Record, error) {
	for raw := range s.ch {
		rec, err := ParseRawRecord(raw)
		if raw.AckFunc != nil {
			raw.AckFunc()
		}
		if err != nil {
			s.malformed++
			s.log.Warn().Str("subject", raw.Subject).Err(err).Msg("malformed record dropped")
			if s.metrics != nil {
				s.metrics.RecordsMalformed.Inc()
			}
			continue
		}
		return rec, nil
	}
	return record.Record{}, io.EOF
}

// Malformed returns the number of messages dropped so far.
func (s *StreamSource) Malformed() int64 {
	return s.malformed
}
