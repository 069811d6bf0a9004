package domain

import "errors"

var (
	ErrUnknownProduct      = errors.New("unknown product")
	ErrUnknownDuration     = errors.New("unknown duration for product")
	ErrUnknownAccountType  = errors.New("unknown account type")
	ErrUnknownDecision     = errors.New("unknown decision")
	ErrUnexpectedInput     = errors.New("unexpected input for current stage")
	ErrDraftInProgress     = errors.New("draft already in progress")
	ErrNoActiveDraft       = errors.New("no active draft")
	ErrInvalidCredentials  = errors.New("invalid credentials format")
	ErrCredentialsMismatch = errors.New("credentials do not match account type")
	ErrEvidenceRequired    = errors.New("payment evidence required")
	ErrSubmitTokenRequired = errors.New("submission token required")
	ErrSubmitInFlight      = errors.New("submission already in flight")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrOrderNotFound       = errors.New("order not found")
)
