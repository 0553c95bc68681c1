package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/journal"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type StockPolicy string

const (
	// StockPolicyReject refuses confirmation before verify when any line
	// cannot be fulfilled. Stock lost between that check and the commit is
	// recorded on the order as with StockPolicySkip.
	StockPolicyReject StockPolicy = "reject"
	// StockPolicySkip confirms anyway and flags the order for review.
	StockPolicySkip StockPolicy = "skip"
)

const (
	DefaultSessionTTL = 30 * time.Minute
	lockScope         = "checkout"
)

// Locker grants a single writer per key. A nil release with a nil error
// means someone else holds the lock.
type Locker interface {
	TryLock(ctx context.Context, scope, key string) (func(context.Context) error, error)
}

type ProductInvalidator interface {
	InvalidateProducts(ctx context.Context, ids ...uuid.UUID)
}

type CheckoutService struct {
	Repo       *repo.GormRepo
	Gateway    payment.Gateway
	Locker     Locker
	Journal    journal.Journal
	Products   ProductInvalidator
	Policy     StockPolicy
	SessionTTL time.Duration
	Now        func() time.Time
}

func (s *CheckoutService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CheckoutService) ttl() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return DefaultSessionTTL
}

func (s *CheckoutService) policy() StockPolicy {
	if s.Policy == StockPolicySkip {
		return StockPolicySkip
	}
	return StockPolicyReject
}

// StartCheckout snapshots the caller's cart at current prices, asks the
// gateway for an authority and stores a session. Neither the cart nor stock
// is touched.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID, addressID uuid.UUID) (*models.CheckoutSession, string, error) {
	session, url, err := s.startCheckout(ctx, userID, addressID)
	metrics.CheckoutStarted.WithLabelValues(resultLabel(err)).Inc()
	return session, url, err
}

func (s *CheckoutService) startCheckout(ctx context.Context, userID, addressID uuid.UUID) (*models.CheckoutSession, string, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.start", "user_id", userID)

	cart, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrEmptyCart
		}
		return nil, "", err
	}
	if len(cart.Items) == 0 {
		return nil, "", ErrEmptyCart
	}

	addr, err := s.Repo.GetAddress(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidAddress
		}
		return nil, "", err
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, "", err
	}

	items := make([]models.LineItem, 0, len(cart.Items))
	total := decimal.Zero
	for _, it := range cart.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, "", fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
		}
		line := models.LineItem{ProductID: p.ID, Name: p.Name, Quantity: it.Quantity, Price: p.Price}
		items = append(items, line)
		total = total.Add(line.Total())
	}

	user, err := s.Repo.GetUser(ctx, userID)
	if err != nil {
		return nil, "", notFound(err, "user")
	}

	if !total.IsInteger() {
		return nil, "", fmt.Errorf("%w: total %s is not a whole amount", ErrValidation, total)
	}
	amount := total.IntPart()
	auth, err := s.Gateway.Authorize(ctx, amount, "order for "+user.Phone, user.Phone)
	s.record(ctx, journal.Attempt{
		Authority: authorityOf(auth),
		UserID:    userID.String(),
		Operation: "authorize",
		Amount:    amount,
		Outcome:   outcomeOf(err),
	})
	if err != nil {
		l.Warn("authorize_error", "amount", amount, "error", err)
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			return nil, "", fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
		}
		return nil, "", fmt.Errorf("%w: %w", ErrPaymentInitFailed, err)
	}
	if auth == nil || auth.Authority == "" {
		return nil, "", ErrPaymentInitFailed
	}

	now := s.now()
	session := models.CheckoutSession{
		UserID:           userID,
		Items:            items,
		ShippingAddress:  addr.Snapshot(),
		TotalPrice:       total,
		GatewayAuthority: auth.Authority,
		ExpiresAt:        now.Add(s.ttl()),
	}
	if err := s.Repo.CreateCheckoutSession(ctx, &session); err != nil {
		return nil, "", conflict(err, "authority already used")
	}

	l.Info("checkout_started", "authority", auth.Authority, "amount", amount)
	return &session, auth.RedirectURL, nil
}

// ConfirmCheckout turns a paid session into an order. Only one caller per
// authority runs at a time, and the order, stock decrements, cart clear,
// session delete and order_created event commit together or not at all.
func (s *CheckoutService) ConfirmCheckout(ctx context.Context, caller Caller, authority string) (*models.Order, error) {
	order, err := s.confirmCheckout(ctx, caller, authority)
	metrics.CheckoutConfirmed.WithLabelValues(resultLabel(err)).Inc()
	return order, err
}

func (s *CheckoutService) confirmCheckout(ctx context.Context, caller Caller, authority string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.confirm", "authority", authority)

	if authority == "" {
		return nil, fmt.Errorf("%w: authority is required", ErrValidation)
	}

	release, err := s.Locker.TryLock(ctx, lockScope, authority)
	if err != nil {
		return nil, fmt.Errorf("acquire checkout lock: %w", err)
	}
	if release == nil {
		return nil, ErrConfirmInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			l.Warn("release_lock_error", "error", err)
		}
	}()

	exists, err := s.Repo.OrderExistsByAuthority(ctx, authority)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyProcessed
	}

	session, err := s.Repo.GetLiveSession(ctx, authority, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !caller.CanAccess(session.UserID) {
		return nil, ErrForbidden
	}

	if s.policy() == StockPolicyReject {
		shortages, err := s.shortages(ctx, s.Repo, session.Items)
		if err != nil {
			return nil, err
		}
		if len(shortages) > 0 {
			l.Warn("confirm_rejected_stock", "shortages", len(shortages))
			return nil, fmt.Errorf("%w: %d line(s) cannot be fulfilled", ErrInsufficientStock, len(shortages))
		}
	}

	amount := session.Amount()
	v, err := s.Gateway.Verify(ctx, authority, amount)
	s.record(ctx, verifyAttempt(session, amount, v, err))
	if err != nil {
		l.Warn("verify_error", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}
	if !payment.Accepted(v.Code) {
		l.Warn("verify_rejected", "code", v.Code)
		return nil, fmt.Errorf("%w: code %d", ErrPaymentRejected, v.Code)
	}

	order := newOrder(session, v.RefID)
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyProcessed
			}
			return err
		}

		for _, it := range session.Items {
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			// Verify already succeeded: stock lost since the pre-verify check
			// is recorded on the order, never aborts it.
			if s.policy() == StockPolicyReject {
				l.Warn("stock_lost_after_verify", "product_id", it.ProductID, "quantity", it.Quantity)
			}
			order.StockShortages = append(order.StockShortages, s.shortageFor(ctx, tx, it))
		}
		if len(order.StockShortages) > 0 {
			order.NeedsReview = true
			if err := tx.FlagOrderForReview(ctx, order); err != nil {
				return err
			}
		}

		if err := tx.ClearCart(ctx, session.UserID); err != nil {
			return err
		}
		if err := tx.DeleteCheckoutSession(ctx, session.ID); err != nil {
			return err
		}
		return tx.AddOutbox(ctx, models.TopicOrderEvents, "order_created", order.ID.String(), orderCreatedEvent(order))
	})
	if err != nil {
		// Money was captured but nothing was written; the journal keeps the
		// verify result for reconciliation.
		l.Error("confirm_commit_error", "ref_id", v.RefID, "error", err)
		return nil, err
	}

	if s.Products != nil {
		ids := make([]uuid.UUID, 0, len(order.Items))
		for _, it := range order.Items {
			ids = append(ids, it.ProductID)
		}
		s.Products.InvalidateProducts(ctx, ids...)
	}

	l.Info("checkout_confirmed", "order_id", order.ID, "needs_review", order.NeedsReview)
	return order, nil
}

// shortages lists lines whose product is gone or has less stock than the
// line asks for. Quantities of repeated products are summed.
func (s *CheckoutService) shortages(ctx context.Context, r *repo.GormRepo, items []models.LineItem) ([]models.StockShortage, error) {
	want := make(map[uuid.UUID]int, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, ok := want[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		want[it.ProductID] += it.Quantity
	}

	products, err := r.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var out []models.StockShortage
	for _, id := range ids {
		available := 0
		if p, ok := products[id]; ok {
			available = p.Stock
		}
		if available < want[id] {
			out = append(out, models.StockShortage{ProductID: id, Requested: want[id], Available: available})
		}
	}
	return out, nil
}

func (s *CheckoutService) shortageFor(ctx context.Context, r *repo.GormRepo, it models.LineItem) models.StockShortage {
	short := models.StockShortage{ProductID: it.ProductID, Requested: it.Quantity}
	if p, err := r.GetProduct(ctx, it.ProductID); err == nil {
		short.Available = p.Stock
	}
	return short
}

func (s *CheckoutService) record(ctx context.Context, a journal.Attempt) {
	if s.Journal == nil {
		return
	}
	a.CreatedAt = s.now()
	if err := s.Journal.Record(ctx, a); err != nil {
		logging.FromContext(ctx).Warn("journal_record_error", "operation", a.Operation, "authority", a.Authority, "error", err)
	}
}

// SweepExpired deletes sessions whose TTL has passed.
func (s *CheckoutService) SweepExpired(ctx context.Context) (int64, error) {
	return s.Repo.DeleteExpiredSessions(ctx, s.now())
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *CheckoutService) RunSweeper(ctx context.Context, interval time.Duration) {
	l := logging.FromContext(ctx).With("component", "session_sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := s.SweepExpired(ctx)
			if err != nil {
				l.Error("sweep_sessions_error", "error", err)
				continue
			}
			if n > 0 {
				l.Info("expired_sessions_deleted", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func newOrder(s *models.CheckoutSession, refID string) *models.Order {
	items := make([]models.OrderItem, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return &models.Order{
		ID:               uuid.New(),
		UserID:           s.UserID,
		Items:            items,
		ShippingAddress:  s.ShippingAddress,
		GatewayAuthority: s.GatewayAuthority,
		PaymentRefID:     refID,
		TotalPrice:       s.TotalPrice,
		Status:           models.OrderStatusProcessing,
	}
}

func orderCreatedEvent(o *models.Order) map[string]any {
	return map[string]any{
		"order_id":     o.ID,
		"user_id":      o.UserID,
		"total_price":  o.TotalPrice.String(),
		"authority":    o.GatewayAuthority,
		"needs_review": o.NeedsReview,
		"items":        o.Items,
	}
}

func verifyAttempt(s *models.CheckoutSession, amount int64, v *payment.Verification, err error) journal.Attempt {
	a := journal.Attempt{
		Authority: s.GatewayAuthority,
		UserID:    s.UserID.String(),
		Operation: "verify",
		Amount:    amount,
		Outcome:   outcomeOf(err),
	}
	if v != nil {
		a.Code = v.Code
		a.RefID = v.RefID
		a.Raw = string(v.Raw)
		if err == nil && !payment.Accepted(v.Code) {
			a.Outcome = "rejected"
		}
	}
	return a
}

func authorityOf(a *payment.Authorization) string {
	if a == nil {
		return ""
	}
	return a.Authority
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, ErrConfirmInProgress):
		return "in_progress"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrPaymentRejected):
		return "payment_rejected"
	case errors.Is(err, ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, ErrPaymentInitFailed):
		return "payment_init_failed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
