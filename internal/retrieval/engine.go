package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
	"github.com/finadigital/wifipass/internal/infrastructure/observability"
	"github.com/finadigital/wifipass/pkg/retry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Response is what a code-issuance request came back with. A non-2xx status
// is not a transport error; the engine decides what to do with it.
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher issues one request to a code-issuance endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, url, transactionID string) (*Response, error)
}

// Config carries the engine knobs. Auto and manual endpoints default equal
// upstream but are configured independently.
type Config struct {
	AutoURL     string
	ManualURL   string
	MaxAttempts int
	RetryDelay  time.Duration
}

const errorBodyExcerptLen = 100

var errSuperseded = errors.New("retrieval lineage superseded")

// Engine resolves transaction identifiers to access codes. Automatic
// lineages run as background attempt loops writing a per-session outcome
// slot; manual lookups are synchronous single shots. Generation tokens keep
// a superseded lineage from ever touching current state.
type Engine struct {
	fetcher Fetcher
	cfg     Config
	logger  zerolog.Logger
	metrics *observability.Metrics
	sf      singleflight.Group

	mu       sync.Mutex
	gen      uint64
	lineages map[uuid.UUID]*lineage
}

type lineage struct {
	gen     uint64
	outcome Outcome
}

func NewEngine(fetcher Fetcher, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		fetcher:  fetcher,
		cfg:      cfg,
		logger:   logger.With().Str("component", "retrieval").Logger(),
		metrics:  metrics,
		lineages: make(map[uuid.UUID]*lineage),
	}
}

// StartAutomatic begins a fresh retrieval lineage for the session. Any prior
// lineage for the same session is superseded. Without a transaction id no
// request is issued and the lineage finishes immediately with no result.
func (e *Engine) StartAutomatic(sessionID uuid.UUID, transactionID string) {
	transactionID = strings.TrimSpace(transactionID)

	e.mu.Lock()
	e.gen++
	gen := e.gen
	l := &lineage{gen: gen}
	e.lineages[sessionID] = l

	if transactionID == "" {
		l.outcome = Outcome{
			State:       StateFailed,
			Reason:      "no transaction attached to this session",
			MaxAttempts: e.cfg.MaxAttempts,
		}
		e.mu.Unlock()
		e.metrics.RetrievalOutcomesTotal.WithLabelValues("auto", "no_transaction").Inc()
		return
	}

	l.outcome = Outcome{State: StatePending, Attempt: 1, MaxAttempts: e.cfg.MaxAttempts}
	e.mu.Unlock()

	e.metrics.ActiveRetrievals.Inc()
	go e.runAutomatic(sessionID, gen, transactionID)
}

func (e *Engine) runAutomatic(sessionID uuid.UUID, gen uint64, transactionID string) {
	defer e.metrics.ActiveRetrievals.Dec()

	log := e.logger.With().
		Stringer("session_id", sessionID).
		Str("transaction_id", transactionID).
		Logger()

	start := time.Now()
	var code string

	cfg := retry.FixedConfig(uint(e.cfg.MaxAttempts), e.cfg.RetryDelay)
	cfg.OnRetry = func(n uint, err error) {
		next := int(n) + 2
		if next > e.cfg.MaxAttempts {
			return
		}
		log.Debug().Err(err).Int("next_attempt", next).Msg("code not available yet, retrying")
		e.apply(sessionID, gen, Outcome{
			State:       StatePending,
			Attempt:     next,
			MaxAttempts: e.cfg.MaxAttempts,
		})
	}

	err := retry.Do(context.Background(), cfg, func() error {
		if e.superseded(sessionID, gen) {
			return retry.Unrecoverable(errSuperseded)
		}
		c, attemptErr := e.attempt(context.Background(), e.cfg.AutoURL, transactionID, "auto")
		if attemptErr != nil {
			return attemptErr
		}
		code = c
		return nil
	})

	e.metrics.RetrievalDuration.WithLabelValues("auto").Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		log.Info().Msg("access code resolved")
		e.metrics.RetrievalOutcomesTotal.WithLabelValues("auto", "resolved").Inc()
		e.apply(sessionID, gen, Outcome{
			State:       StateResolved,
			Code:        code,
			MaxAttempts: e.cfg.MaxAttempts,
		})
	case errors.Is(err, errSuperseded):
		log.Debug().Msg("lineage superseded, result discarded")
	default:
		log.Warn().Err(err).Msg("retrieval budget exhausted")
		e.metrics.RetrievalOutcomesTotal.WithLabelValues("auto", "failed").Inc()
		e.apply(sessionID, gen, Outcome{
			State:       StateFailed,
			Reason:      terminalReason(err),
			Attempt:     e.cfg.MaxAttempts,
			MaxAttempts: e.cfg.MaxAttempts,
		})
	}
}

// attempt issues one request and classifies the result. All failure classes
// are retryable for the automatic path.
func (e *Engine) attempt(ctx context.Context, url, transactionID, mode string) (string, error) {
	resp, err := e.fetcher.Fetch(ctx, url, transactionID)
	if err != nil {
		e.metrics.RetrievalAttemptsTotal.WithLabelValues(mode, "transport_error").Inc()
		return "", fmt.Errorf("%w: %v", domainErrors.ErrRetrievalTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.metrics.RetrievalAttemptsTotal.WithLabelValues(mode, "server_error").Inc()
		return "", fmt.Errorf("%w (%d): %s",
			domainErrors.ErrRetrievalServer, resp.StatusCode, excerpt(resp.Body))
	}

	code, ok := ExtractCode(Decode(resp.Body))
	if !ok {
		e.metrics.RetrievalAttemptsTotal.WithLabelValues(mode, "no_code").Inc()
		return "", domainErrors.ErrCodeNotFound
	}

	e.metrics.RetrievalAttemptsTotal.WithLabelValues(mode, "ok").Inc()
	return code, nil
}

// Manual performs a single-shot lookup for a visitor-supplied transaction
// id. No scheduling, no retry; each call is a complete lineage. Concurrent
// lookups for the same id share one request.
func (e *Engine) Manual(ctx context.Context, transactionID string) (Outcome, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return Outcome{}, domainErrors.NewValidationError("transaction_id", "is required")
	}

	v, err, _ := e.sf.Do(transactionID, func() (any, error) {
		start := time.Now()
		defer func() {
			e.metrics.RetrievalDuration.WithLabelValues("manual").Observe(time.Since(start).Seconds())
		}()

		code, attemptErr := e.attempt(ctx, e.cfg.ManualURL, transactionID, "manual")
		if attemptErr == nil {
			e.metrics.RetrievalOutcomesTotal.WithLabelValues("manual", "resolved").Inc()
			return Outcome{State: StateResolved, Code: code, Attempt: 1, MaxAttempts: 1}, nil
		}

		e.metrics.RetrievalOutcomesTotal.WithLabelValues("manual", "failed").Inc()
		reason := terminalReason(attemptErr)
		if errors.Is(attemptErr, domainErrors.ErrCodeNotFound) {
			reason = "no WiFi code found for this transaction id; check the id or wait a moment if the payment is recent"
		}
		return Outcome{State: StateFailed, Reason: reason, Attempt: 1, MaxAttempts: 1}, nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}

// Outcome returns the current outcome for the session's lineage.
func (e *Engine) Outcome(sessionID uuid.UUID) (Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lineages[sessionID]
	if !ok {
		return Outcome{}, false
	}
	return l.outcome, true
}

// Forget discards the session's lineage. An in-flight attempt loop becomes a
// no-op against the discarded slot.
func (e *Engine) Forget(sessionID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	delete(e.lineages, sessionID)
}

func (e *Engine) superseded(sessionID uuid.UUID, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lineages[sessionID]
	return !ok || l.gen != gen
}

// apply writes the outcome slot unless the lineage has been superseded by a
// reset or a newer start. This generation check is what keeps a resolved
// code from ever being overwritten by a stale attempt from another lineage.
func (e *Engine) apply(sessionID uuid.UUID, gen uint64, o Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lineages[sessionID]
	if !ok || l.gen != gen {
		return
	}
	l.outcome = o
}

func terminalReason(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrRetrievalTransport):
		return fmt.Sprintf("connection error: %v; check your connection or try manual retrieval", err)
	case errors.Is(err, domainErrors.ErrRetrievalServer):
		return fmt.Sprintf("%v; try manual retrieval", err)
	case errors.Is(err, domainErrors.ErrCodeNotFound):
		return "the server could not generate a WiFi code yet; try manual retrieval in a moment"
	default:
		return err.Error()
	}
}

// excerpt truncates an error body for inclusion in a reason string.
func excerpt(body []byte) string {
	s := string(body)
	if utf8.RuneCountInString(s) <= errorBodyExcerptLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:errorBodyExcerptLen])
}
