package testutil

import (
	"context"
	"sync"

	"github.com/finadigital/wifipass/internal/retrieval"
	"github.com/finadigital/wifipass/internal/webhook"
)

// MockFetcher is a code-issuance fetcher with a settable behavior and
// thread-safe call recording.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, url, transactionID string) (*retrieval.Response, error)

	mu    sync.Mutex
	calls []FetchCall
}

type FetchCall struct {
	URL           string
	TransactionID string
}

func (m *MockFetcher) Fetch(ctx context.Context, url, transactionID string) (*retrieval.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, FetchCall{URL: url, TransactionID: transactionID})
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url, transactionID)
	}
	return &retrieval.Response{StatusCode: 200}, nil
}

func (m *MockFetcher) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FetchCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockRecorder captures best-effort persistence forwards.
type MockRecorder struct {
	RecordFunc func(ctx context.Context, rec webhook.PurchaseRecord) error

	mu      sync.Mutex
	records []webhook.PurchaseRecord
}

func (m *MockRecorder) Record(ctx context.Context, rec webhook.PurchaseRecord) error {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()

	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, rec)
	}
	return nil
}

func (m *MockRecorder) Records() []webhook.PurchaseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]webhook.PurchaseRecord, len(m.records))
	copy(out, m.records)
	return out
}
