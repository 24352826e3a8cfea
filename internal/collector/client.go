package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"DashSync/internal/model"
)

// ErrProtocolMismatch marks a response whose shape is missing required fields.
// Callers treat it like a transient failure and keep their prior state.
var ErrProtocolMismatch = errors.New("protocol mismatch")

// RemoteError is a non-2xx response. Message is the service's error text, verbatim.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote status %d", e.Status)
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Client implements Fetcher and the write endpoints against the trading service REST API.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewClient creates a client with optional proxy support. A cookie jar keeps the
// dashboard session so heartbeats refresh the same presence entry.
func NewClient(baseURL, apiKey string, timeout time.Duration, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			Jar:       jar,
		},
	}
}

func (c *Client) Name() string { return "remote" }

func (c *Client) Status(ctx context.Context) (*StatusPayload, error) {
	var out StatusPayload
	if err := c.Get(ctx, "/api/status", &out); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	return &out, nil
}

func (c *Client) ChartData(ctx context.Context, timeframe string) (*ChartPayload, error) {
	var out ChartPayload
	if err := c.Get(ctx, "/api/chart_data?timeframe="+url.QueryEscape(timeframe), &out); err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", timeframe, err)
	}
	return &out, nil
}

func (c *Client) TopGainers(ctx context.Context) (*GainersPayload, error) {
	var out GainersPayload
	if err := c.Get(ctx, "/api/top_gainers", &out); err != nil {
		return nil, fmt.Errorf("fetch top gainers: %w", err)
	}
	return &out, nil
}

func (c *Client) OnlineUsers(ctx context.Context) (*PresencePayload, error) {
	var out PresencePayload
	if err := c.Get(ctx, "/api/online_users", &out); err != nil {
		return nil, fmt.Errorf("fetch online users: %w", err)
	}
	return &out, nil
}

func (c *Client) Heartbeat(ctx context.Context) error {
	if err := c.Post(ctx, "/api/heartbeat", nil, nil); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

func (c *Client) StrategyConfig(ctx context.Context) (*model.StrategyLevels, error) {
	var out model.StrategyLevels
	if err := c.Get(ctx, "/api/get_strategy_config", &out); err != nil {
		return nil, fmt.Errorf("fetch strategy config: %w", err)
	}
	return &out, nil
}

func (c *Client) Leverage(ctx context.Context) (int, error) {
	var out struct {
		Leverage int `json:"leverage"`
	}
	if err := c.Get(ctx, "/api/get_leverage", &out); err != nil {
		return 0, fmt.Errorf("fetch leverage: %w", err)
	}
	return out.Leverage, nil
}

func (c *Client) TradingMode(ctx context.Context) (model.TradingMode, error) {
	var out struct {
		Mode string `json:"mode"`
	}
	if err := c.Get(ctx, "/api/get_trading_mode", &out); err != nil {
		return "", fmt.Errorf("fetch trading mode: %w", err)
	}
	return model.TradingMode(out.Mode), nil
}

// ModeChange is the service's answer to a mode switch.
type ModeChange struct {
	Mode    model.TradingMode `json:"mode"`
	Balance *float64          `json:"balance"`
}

// SetTradingMode asks the service to switch account mode.
func (c *Client) SetTradingMode(ctx context.Context, mode model.TradingMode) (*ModeChange, error) {
	var out ModeChange
	if err := c.Post(ctx, "/api/set_trading_mode", map[string]string{"mode": string(mode)}, &out); err != nil {
		return nil, fmt.Errorf("set trading mode: %w", err)
	}
	if out.Mode == "" {
		out.Mode = mode
	}
	return &out, nil
}

// Get issues a GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// Post issues a POST with an optional JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if id, ok := req.Context().Value(requestIDKey{}).(string); ok && id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return &RemoteError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrProtocolMismatch, req.URL.Path, err)
	}
	return nil
}
