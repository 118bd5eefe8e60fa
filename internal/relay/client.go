// Package relay forwards chat payloads to an external completion endpoint.
// It is stateless: no business logic, no inspection of the payload beyond
// relaying it verbatim.
package relay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shaikwasi806/bank-app/internal/metrics"
)

// ErrUpstreamUnavailable indicates the completion endpoint could not be
// reached, timed out, or failed server-side.
var ErrUpstreamUnavailable = errors.New("upstream AI service unavailable")

// HTTP client timeouts for upstream calls.
const (
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
	maxResponseBytes      = 4 << 20 // 4MB
)

// Client relays chat payloads to the configured upstream.
type Client struct {
	httpClient  *http.Client
	upstreamURL string
	apiKey      string
	metrics     metrics.Recorder
}

// NewClient creates a relay client with a bounded total timeout so a slow
// upstream never hangs the caller.
func NewClient(upstreamURL, apiKey string, timeout time.Duration, recorder metrics.Recorder) *Client {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
			// Don't follow redirects - the upstream URL is the contract
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		upstreamURL: upstreamURL,
		apiKey:      apiKey,
		metrics:     recorder,
	}
}

// Relay posts the payload to the upstream and returns the response body.
// Upstream responses below 500 are relayed as-is, provider-shaped error
// bodies included; connection failures, timeouts and 5xx responses surface
// as ErrUpstreamUnavailable.
func (c *Client) Relay(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.upstreamURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncChatRelay(metrics.OutcomeUpstreamError)
		return nil, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		c.metrics.IncChatRelay(metrics.OutcomeUpstreamError)
		return nil, fmt.Errorf("%w: upstream returned %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.IncChatRelay(metrics.OutcomeUpstreamError)
		return nil, fmt.Errorf("%w: read response: %s", ErrUpstreamUnavailable, err)
	}

	c.metrics.IncChatRelay(metrics.OutcomeOK)
	return body, nil
}
