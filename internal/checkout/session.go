package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotConfigured is returned when no payment session endpoint is set.
var ErrNotConfigured = errors.New("checkout session provider not configured")

// SessionItem is one cart line handed to the payment provider.
type SessionItem struct {
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int             `json:"qty"`
	Image string          `json:"image,omitempty"`
}

// SessionRequest is the payload sent to the payment provider.
type SessionRequest struct {
	Items      []SessionItem `json:"items"`
	CouponCode string        `json:"couponCode,omitempty"`
}

// Session is the hosted payment page the shopper is sent to.
type Session struct {
	URL string `json:"url"`
}

// SessionProvider creates hosted payment sessions.
type SessionProvider interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

// HTTPProvider posts session requests as JSON to a session endpoint.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider returns a provider for endpoint. An empty endpoint yields a
// provider that always fails with ErrNotConfigured.
func NewHTTPProvider(endpoint string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		endpoint: strings.TrimSpace(endpoint),
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if p == nil || p.endpoint == "" {
		return Session{}, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Session{}, fmt.Errorf("encode session request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return Session{}, fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("call session endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, fmt.Errorf("read session response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Session{}, fmt.Errorf("session endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return Session{}, fmt.Errorf("decode session response: %w", err)
	}
	if strings.TrimSpace(session.URL) == "" {
		return Session{}, errors.New("session endpoint returned no url")
	}
	return session, nil
}
