package app

import (
	"sync"

	"github.com/faxed-bot/sharkv1/internal/domain"
	"github.com/google/uuid"
)

type Stage string

const (
	StageSelectProduct     Stage = "SELECT_PRODUCT"
	StageSelectDuration    Stage = "SELECT_DURATION"
	StageSelectAccountType Stage = "SELECT_ACCOUNT_TYPE"
	StageCredentials       Stage = "CREDENTIALS"
	StageAwaitPayment      Stage = "AWAIT_PAYMENT_EVIDENCE"
	StageComplete          Stage = "COMPLETE"
)

// Draft accumulates order fields while a buyer walks the dialog. It is
// ephemeral: a restart clears every draft and buyers start over.
type Draft struct {
	BuyerID     int64
	BuyerName   string
	Stage       Stage
	Product     string
	Duration    string
	Price       int
	AccountType domain.AccountType
	Email       *string
	Password    *string
	PaymentTxn  *string
	SubmitToken string
}

type InputKind string

const (
	InputProduct     InputKind = "product"
	InputDuration    InputKind = "duration"
	InputAccountType InputKind = "account_type"
	InputCredentials InputKind = "credentials"
	InputEvidence    InputKind = "payment_evidence"
)

// Input is one decoded buyer action. Only the fields matching Kind are
// meaningful; the transport fills them from callback data or text.
type Input struct {
	Kind        InputKind
	Product     string
	Duration    string
	AccountType domain.AccountType
	Email       string
	Password    string
	Evidence    string
}

// AdvanceResult reports the draft after one input. Completed is non-nil
// exactly when the draft reached COMPLETE; the tracker's copy is
// destroyed at that point and the caller owns the finished draft.
type AdvanceResult struct {
	Stage     Stage
	Draft     Draft
	Completed *Draft
}

// DraftTracker holds at most one live draft per buyer. Drafts for
// different buyers never contend beyond the map lock.
type DraftTracker struct {
	mu       sync.Mutex
	drafts   map[int64]*Draft
	newToken func() string
}

func NewDraftTracker() *DraftTracker {
	return &DraftTracker{
		drafts:   make(map[int64]*Draft),
		newToken: uuid.NewString,
	}
}

// Start opens a fresh draft for the buyer. An incomplete draft blocks a
// new one unless discard is set, in which case it is thrown away.
func (t *DraftTracker) Start(buyerID int64, buyerName string, discard bool) (Draft, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.drafts[buyerID]; exists && !discard {
		return Draft{}, domain.ErrDraftInProgress
	}

	d := &Draft{
		BuyerID:   buyerID,
		BuyerName: buyerName,
		Stage:     StageSelectProduct,
	}
	t.drafts[buyerID] = d
	return *d, nil
}

// Abandon drops the buyer's draft, if any. Nothing durable was written,
// so there is nothing else to undo.
func (t *DraftTracker) Abandon(buyerID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.drafts, buyerID)
}

// Active returns a snapshot of the buyer's current draft.
func (t *DraftTracker) Active(buyerID int64) (Draft, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.drafts[buyerID]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// Advance applies one buyer input to the buyer's draft. Inputs that do
// not fit the current stage return an error the transport turns into a
// re-prompt; the draft itself is left untouched in that case.
func (t *DraftTracker) Advance(buyerID int64, in Input) (AdvanceResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.drafts[buyerID]
	if !ok {
		return AdvanceResult{}, domain.ErrNoActiveDraft
	}

	switch d.Stage {
	case StageSelectProduct:
		if in.Kind != InputProduct {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnexpectedInput
		}
		product, found := domain.FindProduct(in.Product)
		if !found {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnknownProduct
		}
		d.Product = product.Name
		d.Stage = StageSelectDuration

	case StageSelectDuration:
		if in.Kind != InputDuration {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnexpectedInput
		}
		product, found := domain.FindProduct(d.Product)
		if !found {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnknownProduct
		}
		price, found := product.Price(in.Duration)
		if !found {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnknownDuration
		}
		d.Duration = in.Duration
		d.Price = price
		if product.RequiresLogin {
			d.Stage = StageSelectAccountType
		} else {
			// No login handover possible, so the account type is
			// decided for the buyer.
			d.AccountType = domain.AccountOurAccount
			d.Stage = StageAwaitPayment
		}

	case StageSelectAccountType:
		if in.Kind != InputAccountType {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnexpectedInput
		}
		switch in.AccountType {
		case domain.AccountUserProvided:
			d.AccountType = domain.AccountUserProvided
			d.Stage = StageCredentials
		case domain.AccountOurAccount:
			d.AccountType = domain.AccountOurAccount
			d.Email = nil
			d.Password = nil
			d.Stage = StageAwaitPayment
		default:
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnknownAccountType
		}

	case StageCredentials:
		if in.Kind != InputCredentials {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnexpectedInput
		}
		if in.Email == "" || in.Password == "" {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrInvalidCredentials
		}
		email, password := in.Email, in.Password
		d.Email = &email
		d.Password = &password
		d.Stage = StageAwaitPayment

	case StageAwaitPayment:
		if in.Kind != InputEvidence {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnexpectedInput
		}
		if in.Evidence == "" {
			return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrEvidenceRequired
		}
		evidence := in.Evidence
		d.PaymentTxn = &evidence
		if d.SubmitToken == "" {
			d.SubmitToken = t.newToken()
		}
		d.Stage = StageComplete

		completed := *d
		delete(t.drafts, buyerID)
		return AdvanceResult{Stage: StageComplete, Draft: completed, Completed: &completed}, nil

	default:
		return AdvanceResult{Stage: d.Stage, Draft: *d}, domain.ErrUnexpectedInput
	}

	return AdvanceResult{Stage: d.Stage, Draft: *d}, nil
}

// Restore reinstates a draft after a failed submit, rewound to the
// payment stage. The submission token is kept so the retried submit is
// the same logical attempt.
func (t *DraftTracker) Restore(d Draft) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d.Stage = StageAwaitPayment
	restored := d
	t.drafts[d.BuyerID] = &restored
}
