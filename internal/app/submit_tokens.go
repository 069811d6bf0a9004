package app

import "sync"

// ClaimOutcome describes what happened to a submission token on claim.
type ClaimOutcome int

const (
	// ClaimFirst means this caller consumed the token and must perform
	// the submit.
	ClaimFirst ClaimOutcome = iota
	// ClaimDuplicate means an earlier submit with this token already
	// produced an order; OrderID carries it.
	ClaimDuplicate
	// ClaimInFlight means another submit with this token is still
	// running and has not bound an order id yet.
	ClaimInFlight
)

type tokenState struct {
	orderID int64
	bound   bool
}

// SubmitTokens tracks single-use submission tokens in process. A token
// is consumed atomically on first claim; later claims observe the order
// id the first submit produced. Like drafts, tokens do not survive a
// restart.
type SubmitTokens struct {
	mu     sync.Mutex
	states map[string]*tokenState
}

func NewSubmitTokens() *SubmitTokens {
	return &SubmitTokens{states: make(map[string]*tokenState)}
}

// Claim consumes the token. Exactly one caller ever sees ClaimFirst.
func (s *SubmitTokens) Claim(token string) (ClaimOutcome, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.states[token]
	if !exists {
		s.states[token] = &tokenState{}
		return ClaimFirst, 0
	}
	if state.bound {
		return ClaimDuplicate, state.orderID
	}
	return ClaimInFlight, 0
}

// Bind records the order id a consumed token produced, so duplicate
// presses can return it.
func (s *SubmitTokens) Bind(token string, orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, exists := s.states[token]; exists {
		state.orderID = orderID
		state.bound = true
	}
}

// Release frees a claimed token after a failed submit so the same
// draft can be retried.
func (s *SubmitTokens) Release(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, exists := s.states[token]; exists && !state.bound {
		delete(s.states, token)
	}
}
