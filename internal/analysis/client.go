package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reportcard-analyzer/internal/shared/telemetry"
)

const maxErrorBodyBytes = 512

// Analyzer performs one analysis round trip.
type Analyzer interface {
	Analyze(ctx context.Context, enc Encoder, in Input) (*Feedback, error)
}

// Client posts encoded input to the analysis endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a Client for an absolute endpoint URL. A zero timeout
// leaves the request bounded only by ctx.
func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q must be an absolute URL", endpoint)
	}
	return &Client{
		endpoint: u.String(),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Endpoint returns the configured analysis URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Analyze encodes in with enc and issues exactly one POST.
func (c *Client) Analyze(ctx context.Context, enc Encoder, in Input) (*Feedback, error) {
	payload, contentType, err := enc.Encode(ctx, in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, &RequestError{Err: fmt.Errorf("analysis request timeout: %w", err)}
		}
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", truncate(body, maxErrorBodyBytes))}
	}

	telemetry.Debug("analysis.response.received", map[string]any{
		"endpoint":     c.endpoint,
		"status":       resp.StatusCode,
		"content_type": resp.Header.Get("Content-Type"),
		"body":         truncate(body, 4096),
	})

	return ParseFeedback(resp.Header.Get("Content-Type"), body)
}

func truncate(body []byte, limit int) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

var _ Analyzer = (*Client)(nil)
