package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*transport.CartResponse, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &transport.CartResponse{Items: []models.CartItem{}, TotalPrice: decimal.Zero}, nil
	}
	if err != nil {
		return nil, err
	}
	items := cart.Items
	if items == nil {
		items = []models.CartItem{}
	}
	return &transport.CartResponse{Items: items, TotalPrice: cart.TotalPrice()}, nil
}

// AddItem snapshots the product's current price onto the line. The
// resulting quantity may not exceed stock.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req transport.AddCartItemRequest) (*transport.CartResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	p, err := s.Repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, notFound(err, "product")
	}

	have := 0
	item, err := s.Repo.GetCartItem(ctx, userID, req.ProductID)
	switch {
	case err == nil:
		have = item.Quantity
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	if have+req.Quantity > p.Stock {
		return nil, fmt.Errorf("%w: only %d left", ErrInsufficientStock, p.Stock)
	}

	if _, err := s.Repo.AddCartItem(ctx, userID, p.ID, req.Quantity, p.Price); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) UpdateItem(ctx context.Context, userID, productID uuid.UUID, req transport.UpdateCartItemRequest) (*transport.CartResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if req.Quantity > p.Stock {
		return nil, fmt.Errorf("%w: only %d left", ErrInsufficientStock, p.Stock)
	}

	if _, err := s.Repo.SetCartItemQuantity(ctx, userID, productID, req.Quantity); err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*transport.CartResponse, error) {
	if err := s.Repo.RemoveCartItem(ctx, userID, productID); err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.ClearCart(ctx, userID)
}
