package publisher

import (
	"context"
	"log"
	"time"

	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const Topic = "sale-completed"

type OutboxSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// OutboxPoller drains sale-completed events written by the checkout
// transaction and publishes them to Kafka. Events are marked processed only
// after a successful write, so a crash republishes rather than drops.
type OutboxPoller struct {
	tick   time.Duration
	repo   OutboxSource
	writer messageWriter
}

func NewOutboxPoller(repo OutboxSource, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{tick: time.Second, repo: repo, writer: w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
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

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, 100)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}

		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			log.Printf("failed to mark event as processed id = %v with error %v", event.ID, errMark)
			continue
		}
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // sale id, keeps per-sale ordering
		Value: event.Payload,             // already JSON from the database
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
