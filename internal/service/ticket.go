package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var ErrTicketClosed = fmt.Errorf("%w: ticket is closed", ErrConflict)

type TicketService struct {
	Repo *repo.GormRepo
}

func (s *TicketService) Create(ctx context.Context, userID uuid.UUID, req transport.CreateTicketRequest) (*models.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	t := models.Ticket{
		UserID:  userID,
		Subject: strings.TrimSpace(req.Subject),
		Status:  models.TicketStatusOpen,
		Messages: []models.TicketMessage{{
			AuthorID: userID,
			Body:     strings.TrimSpace(req.Body),
		}},
	}
	if err := s.Repo.CreateTicket(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TicketService) ListOwn(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Ticket, error) {
	return s.Repo.ListTickets(ctx, repo.TicketFilter{UserID: &userID}, offset, limit)
}

func (s *TicketService) ListAll(ctx context.Context, status string, offset, limit int) (int64, []models.Ticket, error) {
	return s.Repo.ListTickets(ctx, repo.TicketFilter{Status: status}, offset, limit)
}

func (s *TicketService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*models.Ticket, error) {
	t, err := s.Repo.GetTicket(ctx, id)
	if err != nil {
		return nil, notFound(err, "ticket")
	}
	if !caller.CanAccess(t.UserID) {
		return nil, ErrForbidden
	}
	return t, nil
}

// Reply appends a message. A staff reply marks the ticket answered and a
// customer reply reopens it.
func (s *TicketService) Reply(ctx context.Context, caller Caller, id uuid.UUID, req transport.TicketMessageRequest) (*models.Ticket, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	t, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if t.Status == models.TicketStatusClosed {
		return nil, ErrTicketClosed
	}

	status := models.TicketStatusOpen
	if caller.IsAdmin() {
		status = models.TicketStatusAnswered
	}
	msg := models.TicketMessage{
		TicketID:  t.ID,
		AuthorID:  caller.ID,
		FromStaff: caller.IsAdmin(),
		Body:      strings.TrimSpace(req.Body),
	}
	if err := s.Repo.AddTicketMessage(ctx, &msg, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketClosed
		}
		return nil, err
	}
	return s.Repo.GetTicket(ctx, id)
}

func (s *TicketService) Close(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.SetTicketStatus(ctx, id, models.TicketStatusClosed), "ticket")
}
