package retrieval_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	domainErrors "github.com/finadigital/wifipass/internal/domain/errors"
	"github.com/finadigital/wifipass/internal/retrieval"
	"github.com/finadigital/wifipass/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(fetcher retrieval.Fetcher) *retrieval.Engine {
	return retrieval.NewEngine(fetcher, retrieval.Config{
		AutoURL:     "https://hooks.test/auto",
		ManualURL:   "https://hooks.test/manual",
		MaxAttempts: 3,
		RetryDelay:  20 * time.Millisecond,
	}, zerolog.Nop(), testutil.NewTestMetrics())
}

func respond(status int, body string) func(context.Context, string, string) (*retrieval.Response, error) {
	return func(context.Context, string, string) (*retrieval.Response, error) {
		return &retrieval.Response{StatusCode: status, Body: []byte(body)}, nil
	}
}

func waitTerminal(t *testing.T, e *retrieval.Engine, id uuid.UUID) retrieval.Outcome {
	t.Helper()
	var out retrieval.Outcome
	require.Eventually(t, func() bool {
		o, ok := e.Outcome(id)
		if ok && o.Terminal() {
			out = o
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return out
}

func TestAutomatic_ResolvesOnFirstAttempt(t *testing.T) {
	fetcher := &testutil.MockFetcher{FetchFunc: respond(200, `{"code_wifi":"A1B2C3"}`)}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	out := waitTerminal(t, e, id)

	assert.Equal(t, retrieval.StateResolved, out.State)
	assert.Equal(t, "A1B2C3", out.Code)
	assert.Equal(t, 1, fetcher.CallCount())

	calls := fetcher.Calls()
	assert.Equal(t, "https://hooks.test/auto", calls[0].URL)
	assert.Equal(t, "TX1", calls[0].TransactionID)
}

func TestAutomatic_EmptyBodyRetriesThenResolves(t *testing.T) {
	var n atomic.Int32
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(context.Context, string, string) (*retrieval.Response, error) {
			if n.Add(1) < 3 {
				return &retrieval.Response{StatusCode: 200}, nil
			}
			return &retrieval.Response{StatusCode: 200, Body: []byte(`{"wifi_code":"Z9Z9"}`)}, nil
		},
	}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	out := waitTerminal(t, e, id)

	assert.Equal(t, retrieval.StateResolved, out.State)
	assert.Equal(t, "Z9Z9", out.Code)
	assert.Equal(t, 3, fetcher.CallCount())
}

func TestAutomatic_ServerErrorExhaustsBudget(t *testing.T) {
	fetcher := &testutil.MockFetcher{FetchFunc: respond(500, "workflow crashed")}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	out := waitTerminal(t, e, id)

	assert.Equal(t, retrieval.StateFailed, out.State)
	assert.Contains(t, out.Reason, "500")
	assert.Contains(t, out.Reason, "workflow crashed")
	assert.Equal(t, 3, fetcher.CallCount())

	// Terminal failure stays terminal; no further requests are issued.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, fetcher.CallCount())
	again, ok := e.Outcome(id)
	require.True(t, ok)
	assert.Equal(t, retrieval.StateFailed, again.State)
}

func TestAutomatic_TransportErrorExhaustsBudget(t *testing.T) {
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(context.Context, string, string) (*retrieval.Response, error) {
			return nil, errors.New("connection refused")
		},
	}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	out := waitTerminal(t, e, id)

	assert.Equal(t, retrieval.StateFailed, out.State)
	assert.Contains(t, out.Reason, "connection error")
	assert.Equal(t, 3, fetcher.CallCount())
}

func TestAutomatic_PlaceholderNeverResolves(t *testing.T) {
	fetcher := &testutil.MockFetcher{FetchFunc: respond(200, retrieval.PlaceholderSentinel)}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	out := waitTerminal(t, e, id)

	assert.Equal(t, retrieval.StateFailed, out.State)
	assert.Contains(t, out.Reason, "could not generate")
	assert.Equal(t, 3, fetcher.CallCount())
}

func TestAutomatic_NoRetryAfterResolve(t *testing.T) {
	fetcher := &testutil.MockFetcher{FetchFunc: respond(200, `"A1B2C3"`)}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	waitTerminal(t, e, id)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestAutomatic_MissingTransactionIDFinishesWithoutRequest(t *testing.T) {
	fetcher := &testutil.MockFetcher{}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "   ")

	out, ok := e.Outcome(id)
	require.True(t, ok)
	assert.Equal(t, retrieval.StateFailed, out.State)
	assert.Contains(t, out.Reason, "no transaction")
	assert.Equal(t, 0, fetcher.CallCount())
}

func TestAutomatic_PendingExposesAttemptCounter(t *testing.T) {
	release := make(chan struct{})
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(context.Context, string, string) (*retrieval.Response, error) {
			<-release
			return &retrieval.Response{StatusCode: 200, Body: []byte(`"A1"`)}, nil
		},
	}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")

	out, ok := e.Outcome(id)
	require.True(t, ok)
	assert.Equal(t, retrieval.StatePending, out.State)
	assert.Equal(t, 1, out.Attempt)
	assert.Equal(t, 3, out.MaxAttempts)

	close(release)
	waitTerminal(t, e, id)
}

func TestAutomatic_ForgetDiscardsInFlightLineage(t *testing.T) {
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(context.Context, string, string) (*retrieval.Response, error) {
			time.Sleep(50 * time.Millisecond)
			return &retrieval.Response{StatusCode: 200, Body: []byte(`"STALE"`)}, nil
		},
	}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	e.Forget(id)

	time.Sleep(150 * time.Millisecond)
	_, ok := e.Outcome(id)
	assert.False(t, ok, "forgotten lineage must not resurface")
}

func TestAutomatic_NewLineageSupersedesSlowOldOne(t *testing.T) {
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(_ context.Context, _, txID string) (*retrieval.Response, error) {
			if txID == "OLD" {
				time.Sleep(80 * time.Millisecond)
				return &retrieval.Response{StatusCode: 200, Body: []byte(`"OLD-CODE"`)}, nil
			}
			return &retrieval.Response{StatusCode: 200, Body: []byte(`"NEW-CODE"`)}, nil
		},
	}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "OLD")
	e.StartAutomatic(id, "NEW")

	out := waitTerminal(t, e, id)
	assert.Equal(t, "NEW-CODE", out.Code)

	// The slow first lineage concludes later; it must not overwrite.
	time.Sleep(150 * time.Millisecond)
	out, ok := e.Outcome(id)
	require.True(t, ok)
	assert.Equal(t, "NEW-CODE", out.Code)
}

func TestManual_EmptyIDIssuesNoRequest(t *testing.T) {
	fetcher := &testutil.MockFetcher{}
	e := newEngine(fetcher)

	_, err := e.Manual(context.Background(), "   ")
	var ve *domainErrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "transaction_id", ve.Field)
	assert.Equal(t, 0, fetcher.CallCount())
}

func TestManual_SingleRequestResolved(t *testing.T) {
	fetcher := &testutil.MockFetcher{FetchFunc: respond(200, `{"code":"C0DE"}`)}
	e := newEngine(fetcher)

	out, err := e.Manual(context.Background(), " TX2 ")
	require.NoError(t, err)

	assert.Equal(t, retrieval.StateResolved, out.State)
	assert.Equal(t, "C0DE", out.Code)
	assert.Equal(t, 1, fetcher.CallCount())

	calls := fetcher.Calls()
	assert.Equal(t, "https://hooks.test/manual", calls[0].URL)
	assert.Equal(t, "TX2", calls[0].TransactionID, "identifier is trimmed before sending")
}

func TestManual_PlaceholderReportsNotFound(t *testing.T) {
	fetcher := &testutil.MockFetcher{FetchFunc: respond(200, retrieval.PlaceholderSentinel)}
	e := newEngine(fetcher)

	out, err := e.Manual(context.Background(), "TX2")
	require.NoError(t, err)

	assert.Equal(t, retrieval.StateFailed, out.State)
	assert.Contains(t, out.Reason, "no WiFi code found")
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestManual_ServerErrorReportedWithoutRetry(t *testing.T) {
	fetcher := &testutil.MockFetcher{FetchFunc: respond(503, "down")}
	e := newEngine(fetcher)

	out, err := e.Manual(context.Background(), "TX2")
	require.NoError(t, err)

	assert.Equal(t, retrieval.StateFailed, out.State)
	assert.Contains(t, out.Reason, "503")
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestManual_EachInvocationIsFresh(t *testing.T) {
	var n atomic.Int32
	fetcher := &testutil.MockFetcher{
		FetchFunc: func(context.Context, string, string) (*retrieval.Response, error) {
			if n.Add(1) == 1 {
				return &retrieval.Response{StatusCode: 200}, nil
			}
			return &retrieval.Response{StatusCode: 200, Body: []byte(`"LATE"`)}, nil
		},
	}
	e := newEngine(fetcher)

	first, err := e.Manual(context.Background(), "TX2")
	require.NoError(t, err)
	assert.Equal(t, retrieval.StateFailed, first.State)

	second, err := e.Manual(context.Background(), "TX2")
	require.NoError(t, err)
	assert.Equal(t, retrieval.StateResolved, second.State)
	assert.Equal(t, "LATE", second.Code)
	assert.Equal(t, 2, fetcher.CallCount())
}

func TestAutomatic_ErrorBodyExcerptTruncated(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	fetcher := &testutil.MockFetcher{FetchFunc: respond(500, string(long))}
	e := newEngine(fetcher)
	id := uuid.New()

	e.StartAutomatic(id, "TX1")
	out := waitTerminal(t, e, id)

	assert.Less(t, len(out.Reason), 250, "error body must be truncated in the reason")
}
