package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/transport"
)

func TestCart_AddUpdateRemove(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	s := &CartService{Repo: e.repo}
	u := e.seedUser(t, "09120000001")
	lamp := e.seedProduct(t, "lamp", "100", 3)
	desk := e.seedProduct(t, "desk", "40", 10)

	empty, err := s.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.TotalPrice.IsZero())

	_, err = s.AddItem(ctx, u.ID, transport.AddCartItemRequest{ProductID: lamp.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := s.AddItem(ctx, u.ID, transport.AddCartItemRequest{ProductID: lamp.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	_, err = s.AddItem(ctx, u.ID, transport.AddCartItemRequest{ProductID: lamp.ID, Quantity: 2})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	cart, err = s.AddItem(ctx, u.ID, transport.AddCartItemRequest{ProductID: desk.ID, Quantity: 3})
	require.NoError(t, err)
	assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(2*100+3*40)))

	cart, err = s.UpdateItem(ctx, u.ID, desk.ID, transport.UpdateCartItemRequest{Quantity: 1})
	require.NoError(t, err)
	assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(240)))

	_, err = s.UpdateItem(ctx, u.ID, desk.ID, transport.UpdateCartItemRequest{Quantity: 11})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	_, err = s.UpdateItem(ctx, u.ID, desk.ID, transport.UpdateCartItemRequest{Quantity: 0})
	assert.ErrorIs(t, err, ErrValidation)

	cart, err = s.RemoveItem(ctx, u.ID, lamp.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, desk.ID, cart.Items[0].ProductID)

	_, err = s.RemoveItem(ctx, u.ID, lamp.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Clear(ctx, u.ID))
	cart, err = s.GetCart(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCart_AddRejectsUnknownProduct(t *testing.T) {
	e := newTestEnv(t)
	s := &CartService{Repo: e.repo}
	u := e.seedUser(t, "09120000001")

	_, err := s.AddItem(context.Background(), u.ID, transport.AddCartItemRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddItem(context.Background(), u.ID, transport.AddCartItemRequest{Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWishlist(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	s := &WishlistService{Repo: e.repo}
	u := e.seedUser(t, "09120000001")
	p := e.seedProduct(t, "lamp", "100", 3)

	_, err := s.Add(ctx, u.ID, p.ID)
	require.NoError(t, err)
	_, err = s.Add(ctx, u.ID, p.ID)
	require.NoError(t, err)

	items, err := s.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "lamp", items[0].Product.Name)

	_, err = s.Add(ctx, u.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Remove(ctx, u.ID, p.ID))
	require.NoError(t, s.Remove(ctx, u.ID, p.ID))
	items, err = s.List(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
