package repository

import (
	"context"
	"fmt"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/domain/repository"

	"github.com/segmentio/kafka-go"
)

// EventStockComputed names the record event in the message header.
const EventStockComputed = "stock.computed"

// RecordEvent is the message value published per live computation.
type RecordEvent struct {
	Event      string                `json:"event"`
	Ticker     string                `json:"ticker"`
	Period     models.Period         `json:"period"`
	ComputedAt time.Time             `json:"computedAt"`
	Record     *models.CompanyRecord `json:"record"`
}

// recordProducer is satisfied by *pkg/kafka.Producer.
type recordProducer interface {
	Publish(ctx context.Context, key []byte, value interface{}, headers ...kafka.Header) error
	Close() error
}

// KafkaRecordPublisher implements RecordPublisher for Kafka.
type KafkaRecordPublisher struct {
	producer recordProducer
	now      func() time.Time
}

func NewKafkaRecordPublisher(producer recordProducer) repository.RecordPublisher {
	return &KafkaRecordPublisher{producer: producer, now: time.Now}
}

// PublishRecord writes the record keyed by ticker so one ticker stays ordered.
func (p *KafkaRecordPublisher) PublishRecord(ctx context.Context, rec *models.CompanyRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	evt := RecordEvent{
		Event:      EventStockComputed,
		Ticker:     rec.Ticker,
		Period:     rec.Period,
		ComputedAt: p.now().UTC(),
		Record:     rec,
	}
	return p.producer.Publish(ctx, []byte(rec.Ticker), evt,
		kafka.Header{Key: "event", Value: []byte(EventStockComputed)},
	)
}

func (p *KafkaRecordPublisher) Close() error { return p.producer.Close() }

// NoopPublisher drops records. Wired when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishRecord(context.Context, *models.CompanyRecord) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }
