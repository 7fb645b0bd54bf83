package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/metrics"
	"github.com/sony/gobreaker"
)

const maxResponseBytes = 1 << 20

// Client is the HTTP transport shared by the adapters of one family: every call runs under a
// per-family circuit breaker and timeout, and every failure comes back as an ExternalProviderError.
type Client struct {
	family  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics metrics.Collector
}

func NewClient(family string, timeout time.Duration, collector metrics.Collector) *Client {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}

	c := &Client{
		family:  family,
		http:    &http.Client{},
		timeout: timeout,
		metrics: collector,
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        family,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("[Provider] family:%s circuit %s -> %s", name, from, to)

			var state metrics.CircuitState
			switch to {
			case gobreaker.StateClosed:
				state = metrics.CircuitClosed
			case gobreaker.StateHalfOpen:
				state = metrics.CircuitHalfOpen
			case gobreaker.StateOpen:
				state = metrics.CircuitOpen
			}
			collector.RecordCircuitState(name, state)
		},
	})

	return c
}

func (c *Client) Family() string {
	return c.family
}

// PostJSON sends body as JSON and decodes the JSON answer into out.
func (c *Client) PostJSON(ctx context.Context, op, endpoint string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return c.wrap(op, fmt.Errorf("marshal request: %w", err))
	}
	return c.do(ctx, op, http.MethodPost, endpoint, bytes.NewReader(payload), mergeHeaders(headers, "application/json"), out)
}

// PostRaw sends an already encoded JSON payload.
func (c *Client) PostRaw(ctx context.Context, op, endpoint string, payload []byte, out interface{}) error {
	return c.do(ctx, op, http.MethodPost, endpoint, bytes.NewReader(payload), mergeHeaders(nil, "application/json"), out)
}

func (c *Client) PostForm(ctx context.Context, op, endpoint string, form url.Values, out interface{}) error {
	return c.do(ctx, op, http.MethodPost, endpoint, strings.NewReader(form.Encode()),
		mergeHeaders(nil, "application/x-www-form-urlencoded"), out)
}

func (c *Client) GetJSON(ctx context.Context, op, endpoint string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}
	return c.do(ctx, op, http.MethodGet, endpoint, nil, mergeHeaders(nil, "application/json"), out)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body io.Reader, headers map[string]string, out interface{}) error {
	start := time.Now()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	_, err := c.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(raw))
		}
		if out == nil {
			return nil, nil
		}
		if err := decodeJSON(raw, out); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		return nil, nil
	})

	c.metrics.RecordProviderCall(c.family, op, err == nil, time.Since(start))
	if err != nil {
		log.Errorf("[Provider] family:%s op:%s failed: %v", c.family, op, err)
		return c.wrap(op, err)
	}
	return nil
}

func (c *Client) wrap(op string, err error) error {
	return &entity.ExternalProviderError{Family: c.family, Op: op, Err: err}
}

// decodeJSON also accepts a JSON document that was encoded a second time as a JSON string.
func decodeJSON(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return err
		}
		trimmed = []byte(inner)
	}
	return json.Unmarshal(trimmed, out)
}

func mergeHeaders(headers map[string]string, contentType string) map[string]string {
	merged := map[string]string{"Content-Type": contentType, "Accept": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	return merged
}

func truncate(raw []byte) string {
	if len(raw) > 256 {
		return string(raw[:256]) + "..."
	}
	return string(raw)
}
