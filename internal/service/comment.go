package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CommentService struct {
	Repo *repo.GormRepo
}

func (s *CommentService) List(ctx context.Context, productID uuid.UUID, offset, limit int) (int64, []*models.Comment, error) {
	return s.Repo.ListApprovedComments(ctx, productID, offset, limit)
}

// Create stores a comment awaiting moderation. Staff comments are published
// right away. Replies to a reply attach to the thread's root.
func (s *CommentService) Create(ctx context.Context, caller Caller, productID uuid.UUID, req transport.CreateCommentRequest) (*models.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}

	c := models.Comment{
		ProductID: productID,
		UserID:    caller.ID,
		Body:      strings.TrimSpace(req.Body),
		Rating:    req.Rating,
		Approved:  caller.IsAdmin(),
	}

	if req.ParentID != nil {
		parent, err := s.Repo.GetComment(ctx, *req.ParentID)
		if err != nil {
			return nil, notFound(err, "parent comment")
		}
		if parent.ProductID != productID {
			return nil, fmt.Errorf("%w: parent comment belongs to another product", ErrValidation)
		}
		root := parent.ID
		if parent.ParentID != nil {
			root = *parent.ParentID
		}
		c.ParentID = &root
	}

	if err := s.Repo.CreateComment(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommentService) Delete(ctx context.Context, caller Caller, id uuid.UUID) error {
	c, err := s.Repo.GetComment(ctx, id)
	if err != nil {
		return notFound(err, "comment")
	}
	if !caller.CanAccess(c.UserID) {
		return ErrForbidden
	}
	return notFound(s.Repo.DeleteComment(ctx, id), "comment")
}

func (s *CommentService) ListPending(ctx context.Context, offset, limit int) (int64, []models.Comment, error) {
	return s.Repo.ListPendingComments(ctx, offset, limit)
}

func (s *CommentService) Approve(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.ApproveComment(ctx, id), "comment")
}
