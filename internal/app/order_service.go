package app

import (
	"context"
	"fmt"

	"github.com/faxed-bot/sharkv1/internal/clock"
	"github.com/faxed-bot/sharkv1/internal/domain"
	"github.com/faxed-bot/sharkv1/internal/metrics"
	"go.uber.org/zap"
)

type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (int64, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	SetStatusIfPending(ctx context.Context, id int64, status domain.Status) (bool, error)
	ListByBuyer(ctx context.Context, buyerID int64, limit int) ([]domain.Order, error)
	CountByBuyer(ctx context.Context, buyerID int64) (domain.BuyerStats, error)
}

// Notifier delivers lifecycle events to chat recipients. Delivery is
// best-effort: the persisted status is authoritative whether or not
// the message arrives.
type Notifier interface {
	NotifyAdmin(ctx context.Context, order domain.Order) error
	NotifyBuyer(ctx context.Context, buyerID, orderID int64, status domain.Status) error
}

// OrderService mediates the order lifecycle: a buyer submit turns a
// completed draft into a PENDING row, an admin decide moves it exactly
// once to APPROVED or REJECTED.
type OrderService struct {
	repo     OrderRepository
	tokens   *SubmitTokens
	notifier Notifier
	clock    clock.Clock
	adminID  int64
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewOrderService(
	repo OrderRepository,
	tokens *SubmitTokens,
	notifier Notifier,
	clk clock.Clock,
	adminID int64,
	logger *zap.Logger,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		clock:    clk,
		adminID:  adminID,
		logger:   logger,
		metrics:  m,
	}
}

type SubmitResult struct {
	OrderID int64
	Created bool
}

// Submit commits a completed draft as a PENDING order and alerts the
// admin. The draft's submission token makes duplicate presses no-ops:
// the second call returns the order the first one created. A storage
// failure releases the token so the same draft can be retried, and no
// notification is sent.
func (s *OrderService) Submit(ctx context.Context, d Draft) (SubmitResult, error) {
	if d.SubmitToken == "" {
		return SubmitResult{}, domain.ErrSubmitTokenRequired
	}

	order := domain.Order{
		BuyerID:     d.BuyerID,
		BuyerName:   d.BuyerName,
		Product:     d.Product,
		Duration:    d.Duration,
		Price:       d.Price,
		AccountType: d.AccountType,
		Email:       d.Email,
		Password:    d.Password,
		Status:      domain.StatusPending,
		PaymentTxn:  d.PaymentTxn,
		CreatedAt:   s.clock.Now(),
	}
	if err := order.ValidateCredentials(); err != nil {
		return SubmitResult{}, err
	}

	switch outcome, existingID := s.tokens.Claim(d.SubmitToken); outcome {
	case ClaimDuplicate:
		return SubmitResult{OrderID: existingID, Created: false}, nil
	case ClaimInFlight:
		return SubmitResult{}, domain.ErrSubmitInFlight
	}

	id, err := s.repo.Insert(ctx, order)
	if err != nil {
		s.tokens.Release(d.SubmitToken)
		return SubmitResult{}, fmt.Errorf("submit order: %w", err)
	}
	s.tokens.Bind(d.SubmitToken, id)
	order.ID = id

	s.metrics.OrdersSubmitted.Inc()
	s.logger.Info("order submitted",
		zap.Int64("order_id", id),
		zap.Int64("buyer_id", d.BuyerID),
		zap.String("product", d.Product),
	)

	if err := s.notifier.NotifyAdmin(ctx, order); err != nil {
		s.metrics.NotificationFailures.WithLabelValues("admin").Inc()
		s.logger.Warn("admin notification failed", zap.Int64("order_id", id), zap.Error(err))
	}

	return SubmitResult{OrderID: id, Created: true}, nil
}

type DecideInput struct {
	OrderID  int64
	Decision domain.Decision
	AdminID  int64
}

type DecideResult struct {
	Status domain.Status
	// Changed is false when the order was already terminal and this
	// call was an idempotent no-op.
	Changed bool
}

// Decide applies an admin decision to a PENDING order. Only the
// configured admin may decide. Repeated or concurrent calls for the
// same order serialize on the store's compare-and-set: exactly one
// transitions the row and notifies the buyer, the rest observe the
// terminal status unchanged.
func (s *OrderService) Decide(ctx context.Context, in DecideInput) (DecideResult, error) {
	if in.AdminID != s.adminID {
		s.logger.Warn("unauthorized decision attempt",
			zap.Int64("order_id", in.OrderID),
			zap.Int64("caller_id", in.AdminID),
		)
		return DecideResult{}, domain.ErrUnauthorized
	}

	target, ok := in.Decision.Status()
	if !ok {
		return DecideResult{}, domain.ErrUnknownDecision
	}

	order, err := s.repo.Get(ctx, in.OrderID)
	if err != nil {
		if err == domain.ErrOrderNotFound {
			return DecideResult{}, err
		}
		return DecideResult{}, fmt.Errorf("decide order: %w", err)
	}
	if order.Status.Terminal() {
		return DecideResult{Status: order.Status, Changed: false}, nil
	}

	changed, err := s.repo.SetStatusIfPending(ctx, in.OrderID, target)
	if err != nil {
		return DecideResult{}, fmt.Errorf("decide order: %w", err)
	}
	if !changed {
		// Lost the race to a concurrent decision; report what won.
		order, err = s.repo.Get(ctx, in.OrderID)
		if err != nil {
			return DecideResult{}, fmt.Errorf("decide order: %w", err)
		}
		return DecideResult{Status: order.Status, Changed: false}, nil
	}

	s.metrics.Decisions.WithLabelValues(string(target)).Inc()
	s.logger.Info("order decided",
		zap.Int64("order_id", in.OrderID),
		zap.String("status", string(target)),
	)

	if err := s.notifier.NotifyBuyer(ctx, order.BuyerID, in.OrderID, target); err != nil {
		s.metrics.NotificationFailures.WithLabelValues("buyer").Inc()
		s.logger.Warn("buyer notification failed", zap.Int64("order_id", in.OrderID), zap.Error(err))
	}

	return DecideResult{Status: target, Changed: true}, nil
}

const buyerOrderListLimit = 20

// OrdersFor returns the buyer's recent orders for the My Orders view.
func (s *OrderService) OrdersFor(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	orders, err := s.repo.ListByBuyer(ctx, buyerID, buyerOrderListLimit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ProfileFor returns the buyer's order counts for the profile view.
func (s *OrderService) ProfileFor(ctx context.Context, buyerID int64) (domain.BuyerStats, error) {
	stats, err := s.repo.CountByBuyer(ctx, buyerID)
	if err != nil {
		return domain.BuyerStats{}, fmt.Errorf("profile counts: %w", err)
	}
	return stats, nil
}
