package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finadigital/wifipass/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// PurchaseRecord is the flat row forwarded to the record-keeping webhook
// after an approved payment. Field names follow the sink's sheet columns.
type PurchaseRecord struct {
	FirstName      string `json:"firstname"`
	LastName       string `json:"lastname"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	IDReference    string `json:"id_reference"`
	WhatsAppNumber string `json:"whatsapp_number"`
	TransactionID  string `json:"transaction_id"`
	Amount         int64  `json:"amount"`
	Plan           string `json:"plan"`
	Date           string `json:"date"`
}

// Recorder forwards purchase records to the persistence webhook. Strictly
// best-effort: one call per approved transaction, failures logged and
// swallowed by the caller. The breaker keeps a dead sink from tying up
// sockets.
type Recorder struct {
	client  *http.Client
	url     string
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewRecorder(url string, timeout time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *Recorder {
	r := &Recorder{
		client:  &http.Client{Timeout: timeout},
		url:     url,
		logger:  logger.With().Str("component", "recorder").Logger(),
		metrics: metrics,
	}

	r.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "persistence-webhook",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			r.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("breaker state changed")
		},
	})

	return r
}

// Record sends one purchase record. The response body is discarded; only
// the status matters, and even that is advisory.
func (r *Recorder) Record(ctx context.Context, rec PurchaseRecord) error {
	_, err := r.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, r.post(ctx, rec)
	})
	if err != nil {
		r.metrics.PersistenceForwardsTotal.WithLabelValues("error").Inc()
		r.logger.Warn().Err(err).Str("transaction_id", rec.TransactionID).Msg("persistence forward failed")
		return err
	}
	r.metrics.PersistenceForwardsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (r *Recorder) post(ctx context.Context, rec PurchaseRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("persistence webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
