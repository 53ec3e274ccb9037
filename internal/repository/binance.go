package repository

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"TradePilot/internal/service/ratelimit"
	xhttp "TradePilot/pkg/http"
	xlogger "TradePilot/pkg/logger"
)

const (
	recvWindow = "5000"

	// Token-bucket parameters for order placement. Binance allows far more,
	// this bot has no business placing orders faster than this.
	orderBucketCapacity = 10
	orderRefillPerSec   = 2
)

// apiError is the error envelope Binance returns on non-2xx responses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("exchange error %d: %s", e.Code, e.Msg)
}

// binanceCore is the signed REST plumbing shared by the spot and futures
// clients. Signed calls carry a strictly increasing millisecond timestamp and
// an HMAC-SHA256 signature over the exact query string sent.
type binanceCore struct {
	baseURL string
	apiKey  string
	secret  string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	logger  *xlogger.Logger

	tsMu   sync.Mutex
	lastTS int64
}

func newBinanceCore(baseURL, apiKey, secret string, client *xhttp.Client, limiter *ratelimit.Limiter, logger *xlogger.Logger) *binanceCore {
	return &binanceCore{
		baseURL: baseURL,
		apiKey:  apiKey,
		secret:  secret,
		http:    client,
		limiter: limiter,
		logger:  logger,
	}
}

// timestamp returns the current time in milliseconds, bumped by one when the
// clock has not advanced since the previous call.
func (c *binanceCore) timestamp() int64 {
	c.tsMu.Lock()
	defer c.tsMu.Unlock()
	ts := time.Now().UnixMilli()
	if ts <= c.lastTS {
		ts = c.lastTS + 1
	}
	c.lastTS = ts
	return ts
}

func (c *binanceCore) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalQuery encodes params sorted by key so the signed string and the
// sent string are byte-identical.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := make(url.Values, len(params))
	for _, k := range keys {
		q.Set(k, params[k])
	}
	return q.Encode()
}

// call performs one REST call. Signed calls append timestamp, recvWindow and
// the signature to the query string. dest may be nil when the response body
// is irrelevant.
func (c *binanceCore) call(ctx context.Context, method, path string, params map[string]string, signed bool, dest interface{}) error {
	if params == nil {
		params = map[string]string{}
	}
	if signed {
		params["timestamp"] = strconv.FormatInt(c.timestamp(), 10)
		params["recvWindow"] = recvWindow
	}

	query := canonicalQuery(params)
	if signed {
		query += "&signature=" + c.sign(query)
	}

	reqURL := c.baseURL + path
	if query != "" {
		reqURL += "?" + query
	}

	headers := map[string]string{}
	if signed || c.apiKey != "" {
		headers["X-MBX-APIKEY"] = c.apiKey
	}

	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  method,
		URL:     reqURL,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr == nil && apiErr.Msg != "" {
			return apiErr
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// allowOrder consumes an order-placement token.
func (c *binanceCore) allowOrder() error {
	if c.limiter == nil {
		return nil
	}
	if !c.limiter.Allow("orders", orderBucketCapacity, orderRefillPerSec) {
		return fmt.Errorf("order rate limit exceeded")
	}
	return nil
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
