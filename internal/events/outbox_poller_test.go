package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

type fakeOutbox struct {
	mu     sync.Mutex
	events []models.OutboxEvent
	marked []string
}

func (f *fakeOutbox) PendingOutboxEvents(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	done := make(map[string]bool, len(f.marked))
	for _, id := range f.marked {
		done[id] = true
	}
	var out []models.OutboxEvent
	for _, ev := range f.events {
		if !done[ev.ID.String()] && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkOutboxProcessed(_ context.Context, ids []string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, ids...)
	return nil
}

type fakeWriter struct {
	failOn int
	msgs   []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.failOn > 0 && len(w.msgs)+1 == w.failOn {
		return errors.New("broker down")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func outboxEvent(aggregate, eventType string) models.OutboxEvent {
	return models.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: aggregate,
		Topic:       models.TopicOrderEvents,
		EventType:   eventType,
		Payload:     `{"id":"` + aggregate + `"}`,
	}
}

func TestProcessPendingPublishesAndMarks(t *testing.T) {
	repo := &fakeOutbox{events: []models.OutboxEvent{
		outboxEvent("o1", "order_created"),
		outboxEvent("o2", "order_created"),
	}}
	w := &fakeWriter{}
	p := NewOutboxPoller(repo, w, testLogger())

	n := p.ProcessPending(context.Background())
	assert.Equal(t, 2, n)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "o1", string(w.msgs[0].Key))
	assert.Equal(t, models.TopicOrderEvents, w.msgs[0].Topic)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, "order_created", string(w.msgs[0].Headers[0].Value))
	assert.Len(t, repo.marked, 2)

	assert.Zero(t, p.ProcessPending(context.Background()))
}

func TestProcessPendingStopsAtFirstFailure(t *testing.T) {
	first := outboxEvent("o1", "order_created")
	repo := &fakeOutbox{events: []models.OutboxEvent{
		first,
		outboxEvent("o1", "order_status_changed"),
		outboxEvent("o2", "order_created"),
	}}
	w := &fakeWriter{failOn: 2}
	p := NewOutboxPoller(repo, w, testLogger())

	n := p.ProcessPending(context.Background())
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{first.ID.String()}, repo.marked)

	w.failOn = 0
	n = p.ProcessPending(context.Background())
	assert.Equal(t, 2, n)
	assert.Len(t, repo.marked, 3)
}

func TestProcessPendingEmpty(t *testing.T) {
	p := NewOutboxPoller(&fakeOutbox{}, &fakeWriter{}, testLogger())
	assert.Zero(t, p.ProcessPending(context.Background()))
}
