package domain

import "time"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether no further status transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type AccountType string

const (
	AccountUserProvided AccountType = "USER_PROVIDED"
	AccountOurAccount   AccountType = "OUR_ACCOUNT"
)

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Status returns the terminal status a decision maps to.
func (d Decision) Status() (Status, bool) {
	switch d {
	case DecisionApprove:
		return StatusApproved, true
	case DecisionReject:
		return StatusRejected, true
	}
	return "", false
}

// Order is a buyer's durable purchase request. Email, Password and
// PaymentTxn are pointers so that an absent value is distinguishable
// from an empty one: credentials are present exactly when AccountType
// is USER_PROVIDED.
type Order struct {
	ID          int64
	BuyerID     int64
	BuyerName   string
	Product     string
	Duration    string
	Price       int
	AccountType AccountType
	Email       *string
	Password    *string
	Status      Status
	PaymentTxn  *string
	CreatedAt   time.Time
}

// ValidateCredentials checks the account-type/credential presence invariant.
func (o Order) ValidateCredentials() error {
	switch o.AccountType {
	case AccountUserProvided:
		if o.Email == nil || *o.Email == "" || o.Password == nil || *o.Password == "" {
			return ErrCredentialsMismatch
		}
	case AccountOurAccount:
		if o.Email != nil || o.Password != nil {
			return ErrCredentialsMismatch
		}
	default:
		return ErrUnknownAccountType
	}
	return nil
}

// BuyerStats summarizes a buyer's order history for the profile view.
type BuyerStats struct {
	Total    int
	Approved int
}
