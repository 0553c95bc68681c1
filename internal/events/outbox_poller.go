package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OutboxRepo interface {
	PendingOutboxEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, ids []string, at time.Time) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewKafkaWriter(brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
}

// OutboxPoller drains outbox rows written in the same transaction as the
// state change and publishes them to kafka, keyed by aggregate id.
type OutboxPoller struct {
	repo      OutboxRepo
	writer    MessageWriter
	log       *slog.Logger
	eventTick time.Duration
	batch     int
}

func NewOutboxPoller(repo OutboxRepo, writer MessageWriter, log *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		repo:      repo,
		writer:    writer,
		log:       log.With("component", "outbox_poller"),
		eventTick: time.Second,
		batch:     100,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.eventTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.ProcessPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ProcessPending publishes one batch and returns how many events were marked.
// Events are written in creation order; the first failure stops the batch so
// per-aggregate ordering is kept.
func (p *OutboxPoller) ProcessPending(ctx context.Context) int {
	events, err := p.repo.PendingOutboxEvents(ctx, p.batch)
	if err != nil {
		p.log.Error("fetch_outbox_error", "error", err)
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	done := make([]string, 0, len(events))
	for _, ev := range events {
		msg := kafka.Message{
			Topic: ev.Topic,
			Key:   []byte(ev.AggregateID),
			Value: []byte(ev.Payload),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(ev.EventType)},
				{Key: "event_id", Value: []byte(ev.ID.String())},
			},
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.log.Error("publish_outbox_error", "event_id", ev.ID, "topic", ev.Topic, "error", err)
			break
		}
		done = append(done, ev.ID.String())
	}

	if len(done) == 0 {
		return 0
	}
	if err := p.repo.MarkOutboxProcessed(ctx, done, time.Now().UTC()); err != nil {
		p.log.Error("mark_outbox_error", "count", len(done), "error", err)
		return 0
	}
	return len(done)
}
