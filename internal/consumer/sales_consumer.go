package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/fjod/go_bookstore/internal/cache"
	"github.com/fjod/go_bookstore/internal/publisher"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// saleEvent mirrors the sale-completed payload written by the checkout
// outbox; only the fields the ranking needs are decoded.
type saleEvent struct {
	SaleID uuid.UUID `json:"sale_id"`
	Lines  []struct {
		BookID   uuid.UUID `json:"book_id"`
		Quantity int       `json:"quantity"`
	} `json:"lines"`
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// SalesConsumer feeds the best-seller ranking from sale-completed events.
// The ranking is a derived view: a dropped message means a stale count,
// never a wrong sale archive.
type SalesConsumer struct {
	ranking cache.Ranking
	reader  messageReader
}

func NewSalesConsumer(ranking cache.Ranking, brokers ...string) *SalesConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    publisher.Topic,
		GroupID:  "stats-ranking",
		MaxBytes: 10e6, // 10MB
	})
	return &SalesConsumer{ranking, reader}
}

func (c *SalesConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *SalesConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		fmt.Printf("error closing kafka reader: %v\n", err)
	}
}

func (c *SalesConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		log.Printf("error reading message: %v", err)
		return
	}

	var event saleEvent
	if errUnmarshal := json.Unmarshal(m.Value, &event); errUnmarshal != nil {
		log.Printf("error parsing sale event: %v", errUnmarshal)
		return
	}

	for _, line := range event.Lines {
		if err := c.ranking.Bump(ctx, line.BookID, line.Quantity); err != nil {
			log.Printf("failed to bump ranking for book %s: %v", line.BookID, err)
		}
	}
}
