package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/journal"
	"github.com/Skotchmaster/storefront/internal/lock"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type fakeGateway struct {
	mu sync.Mutex

	authorizeErr error
	verifyErr    error
	verifyCode   int
	// beforeVerify runs ahead of each Verify, outside the lock.
	beforeVerify func()

	authorizeCalls int
	verifyCalls    int
	lastAmount     int64
	lastContact    string
	seq            int
}

func (g *fakeGateway) Authorize(_ context.Context, amount int64, _, contact string) (*payment.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authorizeCalls++
	g.lastAmount = amount
	g.lastContact = contact
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	g.seq++
	authority := fmt.Sprintf("A%035d", g.seq)
	return &payment.Authorization{Authority: authority, RedirectURL: "https://pay.test/StartPay/" + authority}, nil
}

func (g *fakeGateway) Verify(_ context.Context, _ string, amount int64) (*payment.Verification, error) {
	if g.beforeVerify != nil {
		g.beforeVerify()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	g.lastAmount = amount
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	code := g.verifyCode
	if code == 0 {
		code = payment.CodeSuccess
	}
	return &payment.Verification{Code: code, RefID: "REF-1", Raw: []byte(`{"code":` + fmt.Sprint(code) + `}`)}, nil
}

func (g *fakeGateway) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authorizeCalls, g.verifyCalls
}

type memJournal struct {
	mu       sync.Mutex
	attempts []journal.Attempt
}

func (j *memJournal) Record(_ context.Context, a journal.Attempt) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = append(j.attempts, a)
	return nil
}

type testEnv struct {
	repo     *repo.GormRepo
	gw       *fakeGateway
	journal  *memJournal
	locker   *lock.RedisLocker
	checkout *CheckoutService
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := &testEnv{
		repo:    repo.New(dbtest.Open(t)),
		gw:      &fakeGateway{},
		journal: &memJournal{},
		locker:  lock.NewRedisLocker(rdb, time.Minute),
		now:     time.Now().UTC(),
	}
	e.checkout = &CheckoutService{
		Repo:       e.repo,
		Gateway:    e.gw,
		Locker:     e.locker,
		Journal:    e.journal,
		Policy:     StockPolicyReject,
		SessionTTL: 30 * time.Minute,
		Now:        func() time.Time { return e.now },
	}
	return e
}

func (e *testEnv) seedUser(t *testing.T, phone string) *models.User {
	t.Helper()
	u, _, err := e.repo.FindOrCreateUserByPhone(context.Background(), phone)
	require.NoError(t, err)
	return u
}

func (e *testEnv) seedAdmin(t *testing.T, phone string) *models.User {
	t.Helper()
	u := e.seedUser(t, phone)
	u, err := e.repo.UpdateUser(context.Background(), u.ID, map[string]any{"role": models.RoleAdmin})
	require.NoError(t, err)
	return u
}

func (e *testEnv) seedAddress(t *testing.T, u *models.User) *models.Address {
	t.Helper()
	a := &models.Address{
		UserID:        u.ID,
		Province:      "Tehran",
		City:          "Tehran",
		Street:        "Valiasr 12",
		PostalCode:    "1234567890",
		ReceiverName:  "Sara",
		ReceiverPhone: u.Phone,
	}
	require.NoError(t, e.repo.CreateAddress(context.Background(), a))
	return a
}

func (e *testEnv) seedProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, e.repo.CreateProduct(context.Background(), p))
	return p
}

func (e *testEnv) addToCart(t *testing.T, u *models.User, p *models.Product, qty int) {
	t.Helper()
	_, err := e.repo.AddCartItem(context.Background(), u.ID, p.ID, qty, p.Price)
	require.NoError(t, err)
}

func (e *testEnv) stock(t *testing.T, p *models.Product) int {
	t.Helper()
	got, err := e.repo.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	return got.Stock
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.repo.DB.Model(&models.Order{}).Count(&n).Error)
	return n
}

func callerOf(u *models.User) Caller {
	return Caller{ID: u.ID, Role: u.Role}
}
