package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type WishlistService struct {
	Repo *repo.GormRepo
}

func (s *WishlistService) List(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	return s.Repo.ListWishlist(ctx, userID)
}

func (s *WishlistService) Add(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	return s.Repo.AddWishlist(ctx, userID, productID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.Repo.RemoveWishlist(ctx, userID, productID)
}
