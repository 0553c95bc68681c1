package journal

import (
	"context"
	"time"
)

// Attempt is one recorded conversation with the payment gateway.
type Attempt struct {
	Authority string    `bson:"authority"`
	UserID    string    `bson:"user_id"`
	Operation string    `bson:"operation"`
	Amount    int64     `bson:"amount"`
	Code      int       `bson:"code"`
	RefID     string    `bson:"ref_id,omitempty"`
	Outcome   string    `bson:"outcome"`
	Raw       string    `bson:"raw,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type Journal interface {
	Record(ctx context.Context, a Attempt) error
}

type Nop struct{}

func (Nop) Record(context.Context, Attempt) error { return nil }
