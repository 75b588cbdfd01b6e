package session

import (
	"sync"
	"time"

	"github.com/finadigital/wifipass/internal/domain/catalog"
	"github.com/finadigital/wifipass/internal/domain/customer"
	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
	"github.com/google/uuid"
)

// Status is the visitor-facing view state.
type Status string

const (
	StatusBrowsing        Status = "browsing"
	StatusCheckoutActive  Status = "checkout_active"
	StatusRetrievalAuto   Status = "retrieval_auto"
	StatusRetrievalManual Status = "retrieval_manual"
	StatusDone            Status = "done"
)

// Transaction is the opaque result of a completed widget checkout. The id is
// a bearer token for code retrieval; this service neither validates nor
// stores transaction records.
type Transaction struct {
	ID     string
	Status string
}

// Session tracks one visitor's journey from catalog to access code. Handler
// goroutines share sessions by pointer, so all mutable state sits behind an
// internal lock: transitions are critical sections and readers take a
// Snapshot.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu          sync.Mutex
	status      Status
	pass        *catalog.Pass
	customer    *customer.Info
	transaction *Transaction
	manualEntry bool
	updatedAt   time.Time
}

// Snapshot is a point-in-time copy of a session, safe to read after the
// originating call returns.
type Snapshot struct {
	ID          uuid.UUID
	Status      Status
	Pass        *catalog.Pass
	Customer    *customer.Info
	Transaction *Transaction
	ManualEntry bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New creates a session in the browsing state.
func New() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		status:    StatusBrowsing,
		updatedAt: now,
	}
}

var transitions = map[Status][]Status{
	StatusBrowsing: {
		StatusCheckoutActive,
		StatusRetrievalManual,
		StatusDone,
	},
	StatusCheckoutActive: {
		StatusRetrievalAuto,
		StatusBrowsing, // explicit cancel/close
		StatusDone,
	},
	StatusRetrievalAuto:   {StatusDone},
	StatusRetrievalManual: {StatusDone},
	StatusDone:            {},
}

func canTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the session may move to the given status.
func (s *Session) CanTransitionTo(next Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return canTransition(s.status, next)
}

// transitionTo must be called with s.mu held.
func (s *Session) transitionTo(next Status) error {
	if !canTransition(s.status, next) {
		return domainErrors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(s.status)+" to "+string(next),
			domainErrors.ErrInvalidStateTransition,
		)
	}
	s.status = next
	s.updatedAt = time.Now()
	return nil
}

// Snapshot copies the current state. Nested pointers are copied too, so the
// caller never aliases session-owned memory.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.ID,
		Status:      s.status,
		ManualEntry: s.manualEntry,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.pass != nil {
		p := *s.pass
		snap.Pass = &p
	}
	if s.customer != nil {
		c := *s.customer
		snap.Customer = &c
	}
	if s.transaction != nil {
		tx := *s.transaction
		snap.Transaction = &tx
	}
	return snap
}

// SelectPass records the chosen pass and activates checkout.
func (s *Session) SelectPass(p catalog.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionTo(StatusCheckoutActive); err != nil {
		return err
	}
	s.pass = &p
	return nil
}

// BeginCheckout attaches the visitor's billing identity to the active
// checkout. The widget configuration is only issued once this passes.
func (s *Session) BeginCheckout(info customer.Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusCheckoutActive {
		return domainErrors.NewDomainError(
			"invalid_transition",
			"no active checkout on this session",
			domainErrors.ErrInvalidStateTransition,
		)
	}
	if err := info.Validate(); err != nil {
		return err
	}
	s.customer = &info
	s.updatedAt = time.Now()
	return nil
}

// RecordSuccess stores the approved transaction and moves the session to
// automatic retrieval. Exactly one call per checkout can succeed; the check
// and the write happen under the session lock, so concurrent completion
// callbacks cannot both pass the guard. With no pass selected it is a silent
// no-op (recorded=false); that state is unreachable through the normal flow.
func (s *Session) RecordSuccess(tx Transaction) (recorded bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pass == nil {
		return false, nil
	}
	if s.transaction != nil {
		return false, domainErrors.NewDomainError(
			"already_completed",
			"checkout already completed for this session",
			domainErrors.ErrCheckoutAlreadyDone,
		)
	}
	if err := s.transitionTo(StatusRetrievalAuto); err != nil {
		return false, err
	}
	s.transaction = &tx
	return true, nil
}

// CancelCheckout returns an active checkout to browsing. Visitor-initiated,
// not an error.
func (s *Session) CancelCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionTo(StatusBrowsing); err != nil {
		return err
	}
	s.pass = nil
	s.customer = nil
	return nil
}

// EnterManualMode switches to retrieval decoupled from any purchase. The
// placeholder pass is for display only; the retrieval key is typed by the
// visitor.
func (s *Session) EnterManualMode(placeholder catalog.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionTo(StatusRetrievalManual); err != nil {
		return err
	}
	s.pass = &placeholder
	s.manualEntry = true
	return nil
}

// Reset clears selection, transaction and flags, ending the journey.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transitionTo(StatusDone); err != nil {
		return err
	}
	s.pass = nil
	s.customer = nil
	s.transaction = nil
	s.manualEntry = false
	return nil
}

// DiscardCustomer drops the billing identity once it is no longer needed.
// Called after the persistence forward has a copy.
func (s *Session) DiscardCustomer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer = nil
	s.updatedAt = time.Now()
}
