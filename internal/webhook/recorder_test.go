package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/finadigital/wifipass/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetrics("test", prometheus.NewRegistry())
}

func testRecord() PurchaseRecord {
	return PurchaseRecord{
		FirstName:      "Jean",
		LastName:       "Dupont",
		Email:          "jean@exemple.com",
		Phone:          "97000000",
		IDReference:    "1029384756",
		WhatsAppNumber: "97000000",
		TransactionID:  "TX1",
		Amount:         150,
		Plan:           "Social Pass",
		Date:           time.Now().UTC().Format(time.RFC3339),
	}
}

func TestRecorder_Record_SendsFlatRecord(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	rec := NewRecorder(srv.URL, 5*time.Second, zerolog.Nop(), testMetrics())
	require.NoError(t, rec.Record(context.Background(), testRecord()))

	assert.Equal(t, "Jean", got["firstname"])
	assert.Equal(t, "1029384756", got["id_reference"])
	assert.Equal(t, "TX1", got["transaction_id"])
	assert.Equal(t, float64(150), got["amount"])
	assert.Equal(t, "Social Pass", got["plan"])
	assert.NotEmpty(t, got["date"])
}

func TestRecorder_Record_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rec := NewRecorder(srv.URL, 5*time.Second, zerolog.Nop(), testMetrics())
	assert.Error(t, rec.Record(context.Background(), testRecord()))
}

func TestRecorder_Record_BreakerOpensOnRepeatedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rec := NewRecorder(srv.URL, 5*time.Second, zerolog.Nop(), testMetrics())
	for i := 0; i < 10; i++ {
		rec.Record(context.Background(), testRecord())
	}

	// Once open, calls fail fast without reaching the sink.
	err := rec.Record(context.Background(), testRecord())
	assert.Error(t, err)
}
