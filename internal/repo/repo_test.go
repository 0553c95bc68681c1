package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(dbtest.Open(t))
}

func seedProduct(t *testing.T, r *GormRepo, name string, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func TestFindOrCreateUserByPhone(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	u1, created, err := r.FindOrCreateUserByPhone(ctx, "09120000000")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleUser, u1.Role)

	u2, created, err := r.FindOrCreateUserByPhone(ctx, "09120000000")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u1.ID, u2.ID)
}

func TestRotateRefreshToken(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	old := &models.RefreshToken{TokenHash: "h1", UserID: userID, JTI: "j1", ExpiresAt: exp}
	require.NoError(t, r.CreateRefreshToken(ctx, old))

	next := &models.RefreshToken{TokenHash: "h2", UserID: userID, JTI: "j2", ExpiresAt: exp}
	require.NoError(t, r.RotateRefreshToken(ctx, "j1", next))

	again := &models.RefreshToken{TokenHash: "h3", UserID: userID, JTI: "j3", ExpiresAt: exp}
	err := r.RotateRefreshToken(ctx, "j1", again)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	err = r.RotateRefreshToken(ctx, "missing", again)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAddressesAreOwnerScoped(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	a := &models.Address{UserID: owner, Province: "Tehran", City: "Tehran", Street: "Valiasr", PostalCode: "1234567890", ReceiverName: "A", ReceiverPhone: "09120000000"}
	require.NoError(t, r.CreateAddress(ctx, a))

	_, err := r.GetAddress(ctx, other, a.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, r.DeleteAddress(ctx, other, a.ID), gorm.ErrRecordNotFound)
	require.NoError(t, r.DeleteAddress(ctx, owner, a.ID))
}

func TestGetProductsSortAndFilter(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	cat := &models.Category{Name: "Phones", Slug: "phones"}
	require.NoError(t, r.CreateCategory(ctx, cat))

	cheap := seedProduct(t, r, "cheap", "10.00", 1)
	mid := seedProduct(t, r, "mid", "20.00", 1)
	pricey := seedProduct(t, r, "pricey", "30.00", 1)
	mid.CategoryID = &cat.ID
	require.NoError(t, r.SaveProduct(ctx, mid))

	total, items, err := r.GetProducts(ctx, ProductFilter{Sort: SortPriceDesc}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, []uuid.UUID{pricey.ID, mid.ID, cheap.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})

	total, items, err = r.GetProducts(ctx, ProductFilter{CategoryIDs: []uuid.UUID{cat.ID}}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, mid.ID, items[0].ID)

	total, items, err = r.GetProducts(ctx, ProductFilter{Sort: SortPriceAsc}, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, mid.ID, items[0].ID)
}

func TestSearchProductsLike(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedProduct(t, r, "Blue Shirt", "10.00", 1)
	seedProduct(t, r, "Red Hat", "10.00", 1)

	total, items, err := r.SearchProductsLike(ctx, "shirt", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Blue Shirt", items[0].Name)
}

func TestDecrementStock(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := seedProduct(t, r, "widget", "5.00", 3)

	ok, err := r.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestCartLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, r, "widget", "5.00", 10)

	_, err := r.GetCart(ctx, userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = r.AddCartItem(ctx, userID, p.ID, 2, p.Price)
	require.NoError(t, err)
	item, err := r.AddCartItem(ctx, userID, p.ID, 1, decimal.RequireFromString("6.00"))
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("6.00")))

	cart, err := r.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.TotalPrice().Equal(decimal.RequireFromString("18.00")))

	_, err = r.SetCartItemQuantity(ctx, userID, p.ID, 5)
	require.NoError(t, err)

	require.NoError(t, r.ClearCart(ctx, userID))
	cart, err = r.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.ErrorIs(t, r.RemoveCartItem(ctx, userID, p.ID), gorm.ErrRecordNotFound)
}

func TestDeleteProductDropsCartAndWishlistLines(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, r, "widget", "5.00", 10)

	_, err := r.AddCartItem(ctx, userID, p.ID, 1, p.Price)
	require.NoError(t, err)
	_, err = r.AddWishlist(ctx, userID, p.ID)
	require.NoError(t, err)

	require.NoError(t, r.DeleteProduct(ctx, p.ID))

	cart, err := r.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	wl, err := r.ListWishlist(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, wl)

	assert.ErrorIs(t, r.DeleteProduct(ctx, p.ID), gorm.ErrRecordNotFound)
}

func TestWishlistIsIdempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()
	p := seedProduct(t, r, "widget", "5.00", 10)

	a, err := r.AddWishlist(ctx, userID, p.ID)
	require.NoError(t, err)
	b, err := r.AddWishlist(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	items, err := r.ListWishlist(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "widget", items[0].Product.Name)

	require.NoError(t, r.RemoveWishlist(ctx, userID, p.ID))
	require.NoError(t, r.RemoveWishlist(ctx, userID, p.ID))
}

func TestApprovedCommentsWithReplies(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	productID := uuid.New()

	root := &models.Comment{ProductID: productID, UserID: uuid.New(), Body: "great", Rating: 5, Approved: true}
	require.NoError(t, r.CreateComment(ctx, root))
	pending := &models.Comment{ProductID: productID, UserID: uuid.New(), Body: "meh", Rating: 2}
	require.NoError(t, r.CreateComment(ctx, pending))
	reply := &models.Comment{ProductID: productID, UserID: uuid.New(), ParentID: &root.ID, Body: "agreed", Approved: true}
	require.NoError(t, r.CreateComment(ctx, reply))

	total, items, err := r.ListApprovedComments(ctx, productID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.Len(t, items[0].Replies, 1)
	assert.Equal(t, reply.ID, items[0].Replies[0].ID)

	total, _, err = r.ListPendingComments(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	require.NoError(t, r.DeleteComment(ctx, root.ID))
	_, err = r.GetComment(ctx, reply.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTicketMessagesRespectClosedStatus(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	tk := &models.Ticket{
		UserID:   userID,
		Subject:  "late delivery",
		Status:   models.TicketStatusOpen,
		Messages: []models.TicketMessage{{AuthorID: userID, Body: "where is it"}},
	}
	require.NoError(t, r.CreateTicket(ctx, tk))

	msg := &models.TicketMessage{TicketID: tk.ID, AuthorID: uuid.New(), FromStaff: true, Body: "on its way"}
	require.NoError(t, r.AddTicketMessage(ctx, msg, models.TicketStatusAnswered))

	got, err := r.GetTicket(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusAnswered, got.Status)
	assert.Len(t, got.Messages, 2)

	require.NoError(t, r.SetTicketStatus(ctx, tk.ID, models.TicketStatusClosed))
	err = r.AddTicketMessage(ctx, &models.TicketMessage{TicketID: tk.ID, AuthorID: userID, Body: "hello?"}, models.TicketStatusOpen)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	total, _, err := r.ListTickets(ctx, TicketFilter{UserID: &userID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestLiveSessionAndSweep(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live := &models.CheckoutSession{UserID: uuid.New(), TotalPrice: decimal.NewFromInt(100), GatewayAuthority: "A-live", ExpiresAt: now.Add(time.Hour)}
	dead := &models.CheckoutSession{UserID: uuid.New(), TotalPrice: decimal.NewFromInt(100), GatewayAuthority: "A-dead", ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, r.CreateCheckoutSession(ctx, live))
	require.NoError(t, r.CreateCheckoutSession(ctx, dead))

	_, err := r.GetLiveSession(ctx, "A-live", now)
	require.NoError(t, err)
	_, err = r.GetLiveSession(ctx, "A-dead", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	n, err := r.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOrderAuthorityIsUnique(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	o := &models.Order{
		UserID:           userID,
		GatewayAuthority: "A1",
		TotalPrice:       decimal.NewFromInt(10),
		Status:           models.OrderStatusProcessing,
		Items:            []models.OrderItem{{ProductID: uuid.New(), Name: "w", Quantity: 1, Price: decimal.NewFromInt(10)}},
	}
	require.NoError(t, r.CreateOrder(ctx, o))

	exists, err := r.OrderExistsByAuthority(ctx, "A1")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &models.Order{UserID: userID, GatewayAuthority: "A1", TotalPrice: decimal.NewFromInt(10), Status: models.OrderStatusProcessing}
	err = r.CreateOrder(ctx, dup)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	total, _, err := r.ListOrders(ctx, OrderFilter{UserID: &userID, Status: models.OrderStatusProcessing}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestTransactionRollsBackOutbox(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.Transaction(ctx, func(tx *GormRepo) error {
		if err := tx.AddOutbox(ctx, models.TopicOrderEvents, "order_created", "o1", map[string]string{"id": "o1"}); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	events, err := r.PendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, r.AddOutbox(ctx, models.TopicOrderEvents, "order_created", "o2", map[string]string{"id": "o2"}))
	events, err = r.PendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, r.MarkOutboxProcessed(ctx, []string{events[0].ID.String()}, time.Now().UTC()))
	events, err = r.PendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
