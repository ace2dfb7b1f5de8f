// Package backend talks to the external analysis service that turns a founder
// profile into a startup report.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/startup-navigator/internal/domain"
)

// Defaults for Config fields left zero.
const (
	DefaultBaseURL       = "http://211.188.62.28:8080"
	DefaultSubmitTimeout = 600 * time.Second
	DefaultHealthTimeout = 5 * time.Second
)

// ErrTimeout is returned when the analysis does not finish within the submit timeout.
// Its text is shown to the founder as is.
var ErrTimeout = errors.New("요청 시간이 초과되었습니다 (10분). 다시 시도해주세요.")

// RequestIDHeader carries the submission id for log correlation on both sides.
const RequestIDHeader = "X-Request-ID"

// APIError is a non-2xx answer from the analysis service.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return e.Detail
}

// HealthStatus is the body of the service's health endpoint.
type HealthStatus struct {
	Status string `json:"status"`
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	SubmitTimeout time.Duration
	HealthTimeout time.Duration
	HTTPClient    *http.Client
}

// Client submits analysis requests. It never retries.
type Client struct {
	baseURL       string
	submitTimeout time.Duration
	healthTimeout time.Duration
	http          *http.Client
}

// NewClient creates a client, filling defaults for zero config fields.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		submitTimeout: cfg.SubmitTimeout,
		healthTimeout: cfg.HealthTimeout,
		http:          cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.submitTimeout <= 0 {
		c.submitTimeout = DefaultSubmitTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = DefaultHealthTimeout
	}
	if c.http == nil {
		// Deadlines come from the per-call context.
		c.http = &http.Client{}
	}
	return c
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SubmitTimeout returns the bound applied to each submission.
func (c *Client) SubmitTimeout() time.Duration {
	return c.submitTimeout
}

// HealthCheck calls GET /health. Any non-2xx status is a failure.
func (c *Client) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return &status, nil
}

// Submit sends exactly one analysis request and waits for the report.
// Expiry of the submit timeout yields ErrTimeout; a non-2xx answer yields *APIError;
// transport failures are returned wrapped.
func (c *Client) Submit(ctx context.Context, payload domain.SubmitRequest, requestID string) (*domain.Report, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	slog.Info("Submitting analysis request",
		"request_id", requestID,
		"food_sector", payload.ProjectInfo.FoodSector,
		"region", payload.ProjectInfo.Region)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Warn("Analysis request timed out", "request_id", requestID, "timeout", c.submitTimeout)
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("submit analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: errorDetail(resp)}
		slog.Warn("Analysis request rejected",
			"request_id", requestID,
			"status", resp.StatusCode,
			"detail", apiErr.Detail)
		return nil, apiErr
	}

	var report domain.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("decode report: %w", err)
	}

	slog.Info("Analysis report received",
		"request_id", requestID,
		"roadmaps", len(report.Roadmaps),
		"duration", time.Since(start))
	return &report, nil
}

// errorDetail extracts the human-readable reason from an error body.
func errorDetail(resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "Unknown error"
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return "Unknown error"
	}

	raw, ok := body["detail"]
	if ok {
		var s string
		switch {
		case json.Unmarshal(raw, &s) == nil:
			if s != "" {
				return s
			}
		case string(raw) != "null":
			var buf bytes.Buffer
			if json.Compact(&buf, raw) == nil {
				return buf.String()
			}
			return string(raw)
		}
	}
	return fmt.Sprintf("API request failed with status %d", resp.StatusCode)
}
