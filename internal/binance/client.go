// Package binance is a minimal REST client for a Binance-compatible
// exchange API. It covers the two calls the tracker consumes: the
// current ticker price and historical klines.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coin-tracker/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.binance.com"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0

	// klinesPageLimit is the maximum candles per upstream request.
	klinesPageLimit = 1000
)

// Client talks to the exchange REST API with retries and exponential backoff.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new exchange API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiError is a non-2xx response from the exchange.
type apiError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// retryable reports whether the request may succeed on a later attempt.
// Rate limiting and server-side failures are retried, other client
// errors are not.
func (e *apiError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// get performs a GET request with retries and exponential backoff,
// decoding the JSON response into result.
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		lastErr = c.doGet(ctx, endpoint, result)
		if lastErr == nil {
			return nil
		}

		var apiErr *apiError
		if errors.As(lastErr, &apiErr) && !apiErr.retryable() {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// doGet performs a single GET request.
func (c *Client) doGet(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &apiError{Status: resp.StatusCode}
		// Error bodies carry {"code": ..., "msg": ...}; a body that
		// fails to parse still yields a usable status-only error.
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// tickerPriceResponse is the /api/v3/ticker/price payload.
type tickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// TickerPrice returns the current quote price for a symbol.
func (c *Client) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var resp tickerPriceResponse
	if err := c.get(ctx, "/api/v3/ticker/price", query, &resp); err != nil {
		return 0, fmt.Errorf("get ticker price for %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q for %s: %w", resp.Price, symbol, err)
	}

	return price, nil
}

// rawKline is the upstream kline row: a mixed array of numbers and
// numeric strings, e.g. [openTime, "open", "high", "low", "close",
// "volume", closeTime, ...].
type rawKline []json.RawMessage

// Klines returns all candles for a symbol/interval within
// [startMs, endMs] inclusive. Pagination against the upstream page
// limit happens here, so callers see one logical fetch for the whole
// window.
func (c *Client) Klines(ctx context.Context, symbol, interval string, startMs, endMs int64) ([]*domain.Candle, error) {
	var candles []*domain.Candle

	cursor := startMs
	for cursor <= endMs {
		page, err := c.klinesPage(ctx, symbol, interval, cursor, endMs)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		candles = append(candles, page...)

		if len(page) < klinesPageLimit {
			break
		}
		cursor = page[len(page)-1].CloseTimeMs + 1
	}

	return candles, nil
}

// klinesPage fetches a single page of klines.
func (c *Client) klinesPage(ctx context.Context, symbol, interval string, startMs, endMs int64) ([]*domain.Candle, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("startTime", strconv.FormatInt(startMs, 10))
	query.Set("endTime", strconv.FormatInt(endMs, 10))
	query.Set("limit", strconv.Itoa(klinesPageLimit))

	var rows []rawKline
	if err := c.get(ctx, "/api/v3/klines", query, &rows); err != nil {
		return nil, fmt.Errorf("get klines for %s %s: %w", symbol, interval, err)
	}

	candles := make([]*domain.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKline(symbol, interval, row)
		if err != nil {
			return nil, fmt.Errorf("parse kline for %s %s: %w", symbol, interval, err)
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

// parseKline converts one raw kline row into a Candle.
func parseKline(symbol, interval string, row rawKline) (*domain.Candle, error) {
	if len(row) < 7 {
		return nil, fmt.Errorf("kline row has %d fields, want at least 7", len(row))
	}

	openTime, err := klineInt(row[0])
	if err != nil {
		return nil, fmt.Errorf("open time: %w", err)
	}
	closeTime, err := klineInt(row[6])
	if err != nil {
		return nil, fmt.Errorf("close time: %w", err)
	}

	prices := make([]float64, 5)
	for i, idx := range []int{1, 2, 3, 4, 5} {
		v, err := klineFloat(row[idx])
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", idx, err)
		}
		prices[i] = v
	}

	return &domain.Candle{
		Symbol:      symbol,
		Interval:    interval,
		OpenTimeMs:  openTime,
		CloseTimeMs: closeTime,
		Open:        prices[0],
		High:        prices[1],
		Low:         prices[2],
		Close:       prices[3],
		Volume:      prices[4],
	}, nil
}

// klineInt decodes a bare JSON number field.
func klineInt(raw json.RawMessage) (int64, error) {
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// klineFloat decodes a numeric-string field.
func klineFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(s, 64)
}
