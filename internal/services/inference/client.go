package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	xhttp "TradePilot/pkg/http"
	xlogger "TradePilot/pkg/logger"
)

// DefaultTimeout bounds every remote inference call.
const DefaultTimeout = 18 * time.Second

// Monitor receives one record per inference attempt plus the capability's
// rolling connection health. The performance tracker implements it.
type Monitor interface {
	RecordAttempt(rec models.InferenceRecord)
	SetHealth(h models.ConnectionHealth)
}

// Client invokes named remote analysis capabilities over HTTP. Every call,
// regardless of outcome, updates the capability's connection health and
// appends a record to the monitor. All failures are typed *Error values; the
// client never panics past its boundary.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *xhttp.Client
	monitor Monitor
	metrics domrepo.Metrics
	logger  *xlogger.Logger
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMonitor attaches a performance monitor.
func WithMonitor(m Monitor) ClientOption {
	return func(c *Client) { c.monitor = m }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m domrepo.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates an inference client for the given service URL.
func NewClient(baseURL, apiKey string, logger *xlogger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: DefaultTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = xhttp.NewClient(xhttp.WithTimeout(c.timeout))
	return c
}

type invokeRequest struct {
	CapabilityID string `json:"capability_id"`
	Model        string `json:"model,omitempty"`
	Payload      any    `json:"payload"`
}

type invokeResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// Invoke posts payload to the named capability and decodes the result into
// dest. When complete is non-nil it is consulted after a successful decode;
// a false return marks the capability degraded and fails the call with a
// malformed-response error.
func (c *Client) Invoke(ctx context.Context, cap models.Capability, model string, payload, dest any, complete func() bool) error {
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.http.SendRequest(callCtx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/v1/invoke",
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + c.apiKey,
		},
		Body: invokeRequest{CapabilityID: string(cap), Model: model, Payload: payload},
	})
	if err != nil {
		kind := KindUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return c.fail(cap, model, start, models.StatusDisconnected, newErr(kind, cap, model, err))
	}
	defer resp.Body.Close()

	if ierr := c.classifyStatus(resp, cap, model); ierr != nil {
		status := models.StatusDisconnected
		if ierr.Kind == KindRateLimited {
			status = models.StatusDegraded
		}
		return c.fail(cap, model, start, status, ierr)
	}

	var env invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return c.fail(cap, model, start, models.StatusDisconnected, newErr(KindMalformed, cap, model, err))
	}
	if env.Error != "" {
		return c.fail(cap, model, start, models.StatusDegraded, newErr(KindMalformed, cap, model, errors.New(env.Error)))
	}
	if dest != nil {
		if err := json.Unmarshal(env.Result, dest); err != nil {
			return c.fail(cap, model, start, models.StatusDisconnected, newErr(KindMalformed, cap, model, err))
		}
	}
	if complete != nil && !complete() {
		return c.fail(cap, model, start, models.StatusDegraded,
			newErr(KindMalformed, cap, model, errors.New("semantically incomplete response")))
	}

	c.record(cap, model, start, true, "")
	c.setHealth(cap, models.StatusConnected, start, "")
	if c.metrics != nil {
		c.metrics.RecordInference(string(cap), "ok", time.Since(start).Seconds())
	}
	return nil
}

// classifyStatus maps a non-2xx response to a typed failure.
func (c *Client) classifyStatus(resp *http.Response, cap models.Capability, model string) *Error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
			return newErr(KindUnavailable, cap, model, fmt.Errorf("non-JSON content type %q", ct))
		}
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return newErr(KindUnauthorized, cap, model, err)
	case resp.StatusCode == http.StatusTooManyRequests:
		return newErr(KindRateLimited, cap, model, err)
	default:
		return newErr(KindUnavailable, cap, model, err)
	}
}

func (c *Client) fail(cap models.Capability, model string, start time.Time, status models.ConnectionStatus, ierr *Error) error {
	c.record(cap, model, start, false, ierr.Error())
	c.setHealth(cap, status, start, ierr.Error())
	if c.metrics != nil {
		c.metrics.RecordInference(string(cap), string(ierr.Kind), time.Since(start).Seconds())
	}
	if c.logger != nil {
		c.logger.Warn("inference call failed",
			xlogger.String("capability", string(cap)),
			xlogger.String("model", model),
			xlogger.String("kind", string(ierr.Kind)),
		)
	}
	return ierr
}

func (c *Client) record(cap models.Capability, model string, start time.Time, ok bool, errMsg string) {
	if c.monitor == nil {
		return
	}
	c.monitor.RecordAttempt(models.InferenceRecord{
		Capability: cap,
		Model:      model,
		Timestamp:  start,
		Latency:    time.Since(start),
		Success:    ok,
		Error:      errMsg,
	})
}

func (c *Client) setHealth(cap models.Capability, status models.ConnectionStatus, start time.Time, errMsg string) {
	if c.monitor == nil {
		return
	}
	c.monitor.SetHealth(models.ConnectionHealth{
		Capability:  cap,
		Status:      status,
		LastChecked: time.Now(),
		LastLatency: time.Since(start),
		LastError:   errMsg,
	})
}
