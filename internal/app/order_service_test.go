package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/faxed-bot/sharkv1/internal/clock"
	"github.com/faxed-bot/sharkv1/internal/domain"
	"github.com/faxed-bot/sharkv1/internal/metrics"
)

const testAdminID int64 = 999

func newTestService(repo OrderRepository, notifier Notifier) *OrderService {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewOrderService(
		repo,
		NewSubmitTokens(),
		notifier,
		clock.NewFixed(now),
		testAdminID,
		zap.NewNop(),
		metrics.New(prometheus.NewRegistry()),
	)
}

func pendingDraft(token string) Draft {
	txn := "TXN123"
	return Draft{
		BuyerID:     10,
		BuyerName:   "alice",
		Stage:       StageComplete,
		Product:     "YT",
		Duration:    "1M",
		Price:       25,
		AccountType: domain.AccountOurAccount,
		PaymentTxn:  &txn,
		SubmitToken: token,
	}
}

func TestOrderService_Submit(t *testing.T) {
	t.Parallel()

	t.Run("creates pending order and notifies admin", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &fakeNotifier{}
		svc := newTestService(repo, notifier)

		res, err := svc.Submit(context.Background(), pendingDraft("tok-1"))
		require.NoError(t, err)
		assert.True(t, res.Created)

		order, err := repo.Get(context.Background(), res.OrderID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, order.Status)
		assert.Nil(t, order.Email)
		assert.Nil(t, order.Password)
		require.NotNil(t, order.PaymentTxn)
		assert.Equal(t, "TXN123", *order.PaymentTxn)
		assert.Len(t, notifier.adminOrders, 1)
	})

	t.Run("duplicate token returns the first order", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &fakeNotifier{}
		svc := newTestService(repo, notifier)

		first, err := svc.Submit(context.Background(), pendingDraft("tok-dup"))
		require.NoError(t, err)
		second, err := svc.Submit(context.Background(), pendingDraft("tok-dup"))
		require.NoError(t, err)

		assert.True(t, first.Created)
		assert.False(t, second.Created)
		assert.Equal(t, first.OrderID, second.OrderID)
		assert.Equal(t, 1, repo.count(), "one stored order per token")
		assert.Len(t, notifier.adminOrders, 1, "admin notified once")
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), &fakeNotifier{})
		_, err := svc.Submit(context.Background(), pendingDraft(""))
		assert.ErrorIs(t, err, domain.ErrSubmitTokenRequired)
	})

	t.Run("credential invariant is enforced", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, &fakeNotifier{})

		d := pendingDraft("tok-2")
		d.AccountType = domain.AccountUserProvided
		_, err := svc.Submit(context.Background(), d)
		assert.ErrorIs(t, err, domain.ErrCredentialsMismatch)

		email := "a@b.c"
		d = pendingDraft("tok-3")
		d.Email = &email
		_, err = svc.Submit(context.Background(), d)
		assert.ErrorIs(t, err, domain.ErrCredentialsMismatch)
		assert.Equal(t, 0, repo.count())
	})

	t.Run("storage failure releases the token for retry", func(t *testing.T) {
		repo := newFakeOrderRepo()
		repo.insertErr = errors.New("db down")
		notifier := &fakeNotifier{}
		svc := newTestService(repo, notifier)

		_, err := svc.Submit(context.Background(), pendingDraft("tok-retry"))
		require.Error(t, err)
		assert.Empty(t, notifier.adminOrders, "no notification for a failed write")
		assert.Equal(t, 0, repo.count())

		repo.insertErr = nil
		res, err := svc.Submit(context.Background(), pendingDraft("tok-retry"))
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, 1, repo.count())
	})

	t.Run("notification failure does not fail the submit", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &fakeNotifier{adminErr: errors.New("blocked")}
		svc := newTestService(repo, notifier)

		res, err := svc.Submit(context.Background(), pendingDraft("tok-4"))
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.Equal(t, 1, repo.count())
	})
}

func TestOrderService_Decide(t *testing.T) {
	t.Parallel()

	submitOne := func(t *testing.T, svc *OrderService) int64 {
		t.Helper()
		res, err := svc.Submit(context.Background(), pendingDraft("tok-seed"))
		require.NoError(t, err)
		return res.OrderID
	}

	t.Run("approve transitions and notifies the buyer once", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &fakeNotifier{}
		svc := newTestService(repo, notifier)
		id := submitOne(t, svc)

		res, err := svc.Decide(context.Background(), DecideInput{OrderID: id, Decision: domain.DecisionApprove, AdminID: testAdminID})
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, domain.StatusApproved, res.Status)

		order, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusApproved, order.Status)
		assert.Len(t, notifier.buyerOutcomes, 1)
	})

	t.Run("reject transitions", func(t *testing.T) {
		repo := newFakeOrderRepo()
		svc := newTestService(repo, &fakeNotifier{})
		id := submitOne(t, svc)

		res, err := svc.Decide(context.Background(), DecideInput{OrderID: id, Decision: domain.DecisionReject, AdminID: testAdminID})
		require.NoError(t, err)
		assert.True(t, res.Changed)
		assert.Equal(t, domain.StatusRejected, res.Status)
	})

	t.Run("non-admin cannot decide", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &fakeNotifier{}
		svc := newTestService(repo, notifier)
		id := submitOne(t, svc)

		_, err := svc.Decide(context.Background(), DecideInput{OrderID: id, Decision: domain.DecisionApprove, AdminID: testAdminID + 1})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		order, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, order.Status)
		assert.Empty(t, notifier.buyerOutcomes)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), &fakeNotifier{})
		_, err := svc.Decide(context.Background(), DecideInput{OrderID: 404, Decision: domain.DecisionApprove, AdminID: testAdminID})
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("unknown decision", func(t *testing.T) {
		svc := newTestService(newFakeOrderRepo(), &fakeNotifier{})
		_, err := svc.Decide(context.Background(), DecideInput{OrderID: 1, Decision: "MAYBE", AdminID: testAdminID})
		assert.ErrorIs(t, err, domain.ErrUnknownDecision)
	})

	t.Run("second decision is an idempotent no-op", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &fakeNotifier{}
		svc := newTestService(repo, notifier)
		id := submitOne(t, svc)

		first, err := svc.Decide(context.Background(), DecideInput{OrderID: id, Decision: domain.DecisionApprove, AdminID: testAdminID})
		require.NoError(t, err)
		require.True(t, first.Changed)

		second, err := svc.Decide(context.Background(), DecideInput{OrderID: id, Decision: domain.DecisionReject, AdminID: testAdminID})
		require.NoError(t, err)
		assert.False(t, second.Changed)
		assert.Equal(t, domain.StatusApproved, second.Status, "no-op reports the winning outcome")
		assert.Len(t, notifier.buyerOutcomes, 1, "buyer notified exactly once")
	})

	t.Run("concurrent opposite decisions transition exactly once", func(t *testing.T) {
		repo := newFakeOrderRepo()
		notifier := &fakeNotifier{}
		svc := newTestService(repo, notifier)
		id := submitOne(t, svc)

		var wg sync.WaitGroup
		results := make([]DecideResult, 2)
		errs := make([]error, 2)
		decisions := []domain.Decision{domain.DecisionApprove, domain.DecisionReject}
		for i := range decisions {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = svc.Decide(context.Background(), DecideInput{OrderID: id, Decision: decisions[i], AdminID: testAdminID})
			}(i)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		changed := 0
		for _, res := range results {
			if res.Changed {
				changed++
			}
		}
		assert.Equal(t, 1, changed, "exactly one decision takes effect")

		order, err := repo.Get(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, order.Status.Terminal())
		assert.Equal(t, order.Status, results[0].Status)
		assert.Equal(t, order.Status, results[1].Status, "loser observes the winning status")
		assert.Len(t, notifier.buyerOutcomes, 1, "no duplicate notification")
	})
}

// fakeOrderRepo is an in-memory OrderRepository whose SetStatusIfPending
// has the same compare-and-set semantics as the Postgres one.
type fakeOrderRepo struct {
	mu        sync.Mutex
	nextID    int64
	orders    map[int64]domain.Order
	insertErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]domain.Order)}
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeOrderRepo) Insert(_ context.Context, order domain.Order) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	order.ID = f.nextID
	f.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeOrderRepo) Get(_ context.Context, id int64) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeOrderRepo) SetStatusIfPending(_ context.Context, id int64, status domain.Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok || order.Status != domain.StatusPending {
		return false, nil
	}
	order.Status = status
	f.orders[id] = order
	return true, nil
}

func (f *fakeOrderRepo) ListByBuyer(_ context.Context, buyerID int64, limit int) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for id := f.nextID; id > 0 && len(out) < limit; id-- {
		if order, ok := f.orders[id]; ok && order.BuyerID == buyerID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) CountByBuyer(_ context.Context, buyerID int64) (domain.BuyerStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats domain.BuyerStats
	for _, order := range f.orders {
		if order.BuyerID != buyerID {
			continue
		}
		stats.Total++
		if order.Status == domain.StatusApproved {
			stats.Approved++
		}
	}
	return stats, nil
}

type buyerOutcome struct {
	buyerID int64
	orderID int64
	status  domain.Status
}

type fakeNotifier struct {
	mu            sync.Mutex
	adminOrders   []domain.Order
	buyerOutcomes []buyerOutcome
	adminErr      error
	buyerErr      error
}

func (f *fakeNotifier) NotifyAdmin(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adminErr != nil {
		return f.adminErr
	}
	f.adminOrders = append(f.adminOrders, order)
	return nil
}

func (f *fakeNotifier) NotifyBuyer(_ context.Context, buyerID, orderID int64, status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.buyerErr != nil {
		return f.buyerErr
	}
	f.buyerOutcomes = append(f.buyerOutcomes, buyerOutcome{buyerID: buyerID, orderID: orderID, status: status})
	return nil
}
