package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var statusRank = map[string]int{
	models.OrderStatusProcessing: 0,
	models.OrderStatusShipped:    1,
	models.OrderStatusDelivered:  2,
}

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) ListOwn(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrders(ctx, repo.OrderFilter{UserID: &userID}, offset, limit)
}

func (s *OrderService) ListAll(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	if status != "" {
		if _, ok := statusRank[status]; !ok {
			return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
	}
	return s.Repo.ListOrders(ctx, repo.OrderFilter{Status: status}, offset, limit)
}

func (s *OrderService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !caller.CanAccess(o.UserID) {
		return nil, ErrForbidden
	}
	return o, nil
}

// Update sets the tracking code and moves the status forward. Status never
// moves back; a change emits order_status_changed.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req transport.PatchOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if req.TrackingCode != nil {
			updates["tracking_code"] = *req.TrackingCode
		}

		changed := false
		if req.Status != nil && *req.Status != o.Status {
			if statusRank[*req.Status] < statusRank[o.Status] {
				return fmt.Errorf("%w: cannot move order from %s to %s", ErrValidation, o.Status, *req.Status)
			}
			updates["status"] = *req.Status
			changed = true
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.UpdateOrder(ctx, id, updates); err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return tx.AddOutbox(ctx, models.TopicOrderEvents, "order_status_changed", id.String(), map[string]any{
			"order_id": id,
			"user_id":  o.UserID,
			"from":     o.Status,
			"to":       *req.Status,
		})
	})
	if err != nil {
		return nil, notFound(err, "order")
	}
	o, err := s.Repo.GetOrder(ctx, id)
	return o, notFound(err, "order")
}
