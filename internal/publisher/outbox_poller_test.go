package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_bookstore/internal/repository"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOutboxSource struct {
	m         sync.Mutex
	events    []*repository.OutboxEvent
	fetchErr  error
	markErr   error
	processed []uuid.UUID
}

func (m *mockOutboxSource) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	events := m.events
	m.events = nil
	return events, nil
}

func (m *mockOutboxSource) MarkEventAsProcessed(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processed = append(m.processed, id)
	return nil
}

type mockWriter struct {
	m        sync.Mutex
	err      error
	messages []kafka.Message
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func testEvent(saleID uuid.UUID) *repository.OutboxEvent {
	return &repository.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: saleID.String(),
		EventType:   "sale-completed",
		Payload:     json.RawMessage(`{"sale_id":"` + saleID.String() + `","total":40}`),
		CreatedAt:   time.Now(),
	}
}

func TestOutboxPoller_PublishesAndMarksProcessed(t *testing.T) {
	saleID := uuid.New()
	event := testEvent(saleID)
	repo := &mockOutboxSource{events: []*repository.OutboxEvent{event}}
	writer := &mockWriter{}

	poller := &OutboxPoller{tick: time.Second, repo: repo, writer: writer}
	poller.processUnpublishedEvents(context.Background())

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, saleID.String(), string(msg.Key))
	assert.JSONEq(t, string(event.Payload), string(msg.Value))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "sale-completed", string(msg.Headers[0].Value))

	assert.Equal(t, []uuid.UUID{event.ID}, repo.processed)
}

func TestOutboxPoller_FetchErrorSkipsCycle(t *testing.T) {
	repo := &mockOutboxSource{fetchErr: errors.New("database connection error")}
	writer := &mockWriter{}

	poller := &OutboxPoller{tick: time.Second, repo: repo, writer: writer}
	poller.processUnpublishedEvents(context.Background())

	assert.Empty(t, writer.messages)
	assert.Empty(t, repo.processed)
}

func TestOutboxPoller_PublishFailureLeavesEventUnprocessed(t *testing.T) {
	repo := &mockOutboxSource{events: []*repository.OutboxEvent{testEvent(uuid.New())}}
	writer := &mockWriter{err: errors.New("broker unavailable")}

	poller := &OutboxPoller{tick: time.Second, repo: repo, writer: writer}
	poller.processUnpublishedEvents(context.Background())

	// Unmarked events come back on the next poll, so a broker outage
	// delays delivery instead of dropping it.
	assert.Empty(t, repo.processed)
}

func TestOutboxPoller_MarkFailureDoesNotStopOthers(t *testing.T) {
	first := testEvent(uuid.New())
	second := testEvent(uuid.New())
	repo := &mockOutboxSource{events: []*repository.OutboxEvent{first, second}, markErr: errors.New("deadlock")}
	writer := &mockWriter{}

	poller := &OutboxPoller{tick: time.Second, repo: repo, writer: writer}
	poller.processUnpublishedEvents(context.Background())

	// Both events still published; marking failed for both.
	assert.Len(t, writer.messages, 2)
	assert.Empty(t, repo.processed)
}

func TestOutboxPoller_RunStopsOnContextCancel(t *testing.T) {
	repo := &mockOutboxSource{}
	writer := &mockWriter{}
	poller := &OutboxPoller{tick: 10 * time.Millisecond, repo: repo, writer: writer}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancel")
	}
}
