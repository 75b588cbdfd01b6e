package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finadigital/wifipass/internal/retrieval"
)

const maxResponseBody = 1 << 20

// Issuer is the HTTP client for the code-issuance webhook. One call, one
// request; retry policy belongs to the engine.
type Issuer struct {
	client *http.Client
}

func NewIssuer(timeout time.Duration) *Issuer {
	return &Issuer{
		client: &http.Client{Timeout: timeout},
	}
}

func (i *Issuer) Fetch(ctx context.Context, url, transactionID string) (*retrieval.Response, error) {
	payload, err := json.Marshal(map[string]string{"transaction_id": transactionID})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &retrieval.Response{StatusCode: resp.StatusCode, Body: body}, nil
}
