package service

import (
	"context"
	"time"

	"github.com/finadigital/wifipass/internal/checkout"
	"github.com/finadigital/wifipass/internal/domain/catalog"
	"github.com/finadigital/wifipass/internal/domain/customer"
	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
	"github.com/finadigital/wifipass/internal/domain/session"
	"github.com/finadigital/wifipass/internal/infrastructure/observability"
	"github.com/finadigital/wifipass/internal/retrieval"
	"github.com/finadigital/wifipass/internal/store"
	"github.com/finadigital/wifipass/internal/webhook"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const forwardTimeout = 15 * time.Second

// Recorder is the best-effort persistence boundary.
type Recorder interface {
	Record(ctx context.Context, rec webhook.PurchaseRecord) error
}

// Storefront drives the purchase journey: catalog, checkout sessions, the
// widget completion callback, the persistence forward and code retrieval.
// Sessions cross handler goroutines, so every method hands back a
// session.Snapshot rather than the shared entity.
type Storefront struct {
	catalog  *catalog.Catalog
	sessions *store.SessionStore
	builder  *checkout.Builder
	engine   *retrieval.Engine
	recorder Recorder
	logger   zerolog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewStorefront(
	cat *catalog.Catalog,
	sessions *store.SessionStore,
	builder *checkout.Builder,
	engine *retrieval.Engine,
	recorder Recorder,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Storefront {
	s := &Storefront{
		catalog:  cat,
		sessions: sessions,
		builder:  builder,
		engine:   engine,
		recorder: recorder,
		logger:   logger.With().Str("component", "storefront").Logger(),
		metrics:  metrics,
		now:      time.Now,
	}
	// Expired sessions take their retrieval lineage with them.
	sessions.OnEvict(engine.Forget)
	return s
}

// Passes lists the catalog in order.
func (s *Storefront) Passes() []catalog.Pass {
	return s.catalog.List()
}

// CreateSession opens a browsing session.
func (s *Storefront) CreateSession() session.Snapshot {
	sess := session.New()
	s.sessions.Put(sess)
	return sess.Snapshot()
}

// GetSession loads a live session.
func (s *Storefront) GetSession(id uuid.UUID) (session.Snapshot, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// SelectPass records the visitor's choice and activates checkout.
func (s *Storefront) SelectPass(sessionID uuid.UUID, passID string) (session.Snapshot, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	pass, err := s.catalog.Get(passID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := sess.SelectPass(pass); err != nil {
		return session.Snapshot{}, err
	}
	s.sessions.Touch(sessionID)
	s.metrics.CheckoutSessionsTotal.WithLabelValues(pass.ID).Inc()
	return sess.Snapshot(), nil
}

// BeginCheckout validates the billing identity and arms the widget.
func (s *Storefront) BeginCheckout(sessionID uuid.UUID, info customer.Info) (checkout.WidgetConfig, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return checkout.WidgetConfig{}, err
	}
	if err := sess.BeginCheckout(info); err != nil {
		return checkout.WidgetConfig{}, err
	}
	s.sessions.Touch(sessionID)

	// Checkout-active implies a selected pass; SelectPass sets both under
	// the session lock. A concurrent cancel can still clear it before the
	// snapshot, in which case there is no checkout left to arm.
	snap := sess.Snapshot()
	if snap.Pass == nil {
		return checkout.WidgetConfig{}, domainErrors.NewDomainError(
			"invalid_transition", "no active checkout on this session",
			domainErrors.ErrInvalidStateTransition)
	}
	return s.builder.Build(*snap.Pass, info)
}

// CompleteCheckout consumes the widget's single completion callback.
// Approved starts the persistence forward and the automatic retrieval
// lineage; canceled silently returns the session to browsing; anything else
// is a recoverable decline that leaves the form editable.
func (s *Storefront) CompleteCheckout(sessionID uuid.UUID, tx session.Transaction) (session.Snapshot, checkout.Result, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.Snapshot{}, "", err
	}

	result := checkout.Classify(tx.Status)
	s.metrics.CheckoutCompletionsTotal.WithLabelValues(string(result)).Inc()

	switch result {
	case checkout.ResultApproved:
		recorded, err := sess.RecordSuccess(tx)
		if err != nil {
			return session.Snapshot{}, result, err
		}
		if !recorded {
			// The no-pass guard left the session untouched; nothing to do.
			return sess.Snapshot(), result, nil
		}
		// Snapshot before discarding the billing identity; the forward
		// needs its own copy.
		s.forwardRecord(sess.Snapshot())
		sess.DiscardCustomer()
		s.engine.StartAutomatic(sess.ID, tx.ID)

	case checkout.ResultCanceled:
		if err := sess.CancelCheckout(); err != nil {
			return session.Snapshot{}, result, err
		}

	default:
		return sess.Snapshot(), result, domainErrors.NewDomainError(
			"checkout_declined", "the payment could not be validated",
			domainErrors.ErrCheckoutDeclined)
	}

	s.sessions.Touch(sessionID)
	return sess.Snapshot(), result, nil
}

// forwardRecord posts the purchase without gating the success path.
func (s *Storefront) forwardRecord(snap session.Snapshot) {
	if snap.Customer == nil || snap.Pass == nil || snap.Transaction == nil {
		return
	}
	rec := webhook.PurchaseRecord{
		FirstName:      snap.Customer.FirstName,
		LastName:       snap.Customer.LastName,
		Email:          snap.Customer.Email,
		Phone:          snap.Customer.Phone,
		IDReference:    snap.Customer.IDReference,
		WhatsAppNumber: snap.Customer.WhatsAppNumber,
		TransactionID:  snap.Transaction.ID,
		Amount:         snap.Pass.Price,
		Plan:           snap.Pass.Label,
		Date:           s.now().UTC().Format(time.RFC3339),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
		defer cancel()
		// Best-effort; the recorder logs its own failures.
		_ = s.recorder.Record(ctx, rec)
	}()
}

// CancelCheckout closes an active checkout without payment.
func (s *Storefront) CancelCheckout(sessionID uuid.UUID) (session.Snapshot, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := sess.CancelCheckout(); err != nil {
		return session.Snapshot{}, err
	}
	s.sessions.Touch(sessionID)
	return sess.Snapshot(), nil
}

// EnterManualMode switches the session to visitor-keyed retrieval.
func (s *Storefront) EnterManualMode(sessionID uuid.UUID) (session.Snapshot, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := sess.EnterManualMode(s.catalog.Placeholder()); err != nil {
		return session.Snapshot{}, err
	}
	s.sessions.Touch(sessionID)
	return sess.Snapshot(), nil
}

// ResetSession ends the journey. Any in-flight retrieval lineage becomes a
// no-op against the discarded slot.
func (s *Storefront) ResetSession(sessionID uuid.UUID) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	s.engine.Forget(sessionID)
	if err := sess.Reset(); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	return nil
}

// CodeOutcome reports the session's retrieval outcome.
func (s *Storefront) CodeOutcome(sessionID uuid.UUID) (session.Snapshot, retrieval.Outcome, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return session.Snapshot{}, retrieval.Outcome{}, err
	}
	snap := sess.Snapshot()
	out, ok := s.engine.Outcome(sessionID)
	if !ok {
		// Manual mode has no lineage until the visitor submits an id.
		if snap.Status == session.StatusRetrievalManual {
			return snap, retrieval.Outcome{
				State:       retrieval.StatePending,
				Reason:      "enter your transaction id to retrieve your WiFi code",
				MaxAttempts: 1,
			}, nil
		}
		return session.Snapshot{}, retrieval.Outcome{}, domainErrors.NewDomainError(
			"no_retrieval", "no retrieval in progress for this session",
			domainErrors.ErrInvalidStateTransition)
	}
	return snap, out, nil
}

// ManualLookup is a single-shot code retrieval for a visitor-supplied
// transaction id. Needs no session; the footer link reaches it directly.
func (s *Storefront) ManualLookup(ctx context.Context, transactionID string) (retrieval.Outcome, error) {
	return s.engine.Manual(ctx, transactionID)
}
