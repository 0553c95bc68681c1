package models

import "github.com/google/uuid"

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every table owned by the service, in migration order.
func All() []any {
	return []any{
		&User{},
		&Address{},
		&RefreshToken{},
		&Category{},
		&Product{},
		&Cart{},
		&CartItem{},
		&WishlistItem{},
		&Comment{},
		&Ticket{},
		&TicketMessage{},
		&CheckoutSession{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
	}
}
