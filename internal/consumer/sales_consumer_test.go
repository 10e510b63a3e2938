package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fjod/go_bookstore/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	messages []kafka.Message
	err      error
}

func (m *mockReader) ReadMessage(context.Context) (kafka.Message, error) {
	if m.err != nil {
		return kafka.Message{}, m.err
	}
	if len(m.messages) == 0 {
		return kafka.Message{}, errors.New("no more messages")
	}
	msg := m.messages[0]
	m.messages = m.messages[1:]
	return msg, nil
}

func (m *mockReader) Close() error { return nil }

type mockRanking struct {
	m     sync.Mutex
	err   error
	bumps map[uuid.UUID]int
}

func (m *mockRanking) Bump(_ context.Context, bookID uuid.UUID, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.bumps == nil {
		m.bumps = map[uuid.UUID]int{}
	}
	m.bumps[bookID] += quantity
	return nil
}

func (m *mockRanking) Top(context.Context, int) ([]domain.BestSeller, error) {
	return nil, nil
}

func TestProcessMessage_BumpsEveryLine(t *testing.T) {
	saleID := uuid.New()
	bookA := uuid.New()
	bookB := uuid.New()
	payload := `{"sale_id":"` + saleID.String() + `","lines":[` +
		`{"book_id":"` + bookA.String() + `","quantity":2},` +
		`{"book_id":"` + bookB.String() + `","quantity":1}]}`

	ranking := &mockRanking{}
	sut := &SalesConsumer{ranking: ranking, reader: &mockReader{
		messages: []kafka.Message{{Key: []byte(saleID.String()), Value: []byte(payload)}},
	}}

	sut.processMessage(context.Background())

	require.Len(t, ranking.bumps, 2)
	assert.Equal(t, 2, ranking.bumps[bookA])
	assert.Equal(t, 1, ranking.bumps[bookB])
}

func TestProcessMessage_BadPayloadSkipped(t *testing.T) {
	ranking := &mockRanking{}
	sut := &SalesConsumer{ranking: ranking, reader: &mockReader{
		messages: []kafka.Message{{Value: []byte(`{not json`)}},
	}}

	sut.processMessage(context.Background())
	assert.Empty(t, ranking.bumps)
}

func TestProcessMessage_ReadErrorDoesNotPanic(t *testing.T) {
	ranking := &mockRanking{}
	sut := &SalesConsumer{ranking: ranking, reader: &mockReader{err: errors.New("broker gone")}}

	sut.processMessage(context.Background())
	assert.Empty(t, ranking.bumps)
}
