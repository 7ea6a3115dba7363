package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TradeSentry/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/net/proxy"
)

const (
	// marketUserAgent identifies TradeSentry to the exchange API
	marketUserAgent = "TradeSentry/1.0"

	// defaultMarketTimeout applies when the config leaves the timeout unset
	defaultMarketTimeout = 15 * time.Second
)

// TickerResponse is the exchange ticker endpoint payload.
type TickerResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price,string"`
	Volume float64 `json:"volume,string"`
	Time   int64   `json:"time"` // epoch millis
}

// OrderRequest is the payload for the exchange order endpoint.
type OrderRequest struct {
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
}

// OrderResponse is the exchange order endpoint payload.
type OrderResponse struct {
	OrderID     string  `json:"order_id"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Status      string  `json:"status"`
	FilledPrice float64 `json:"filled_price,string"`
	Quantity    float64 `json:"quantity,string"`
}

// marketErrorResponse is the exchange error payload.
type marketErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MarketAPIError is a non-2xx response from the exchange. Status carries the
// HTTP status so callers can distinguish client faults from outages.
type MarketAPIError struct {
	Status  int
	Code    int
	Message string
}

// Error implements the error interface.
func (e *MarketAPIError) Error() string {
	return fmt.Sprintf("exchange API error (HTTP %d, code %d): %s", e.Status, e.Code, e.Message)
}

// IsClientFault reports whether the error was caused by the request itself
// rather than exchange trouble. Client faults must not trip the breaker or
// be retried.
func (e *MarketAPIError) IsClientFault() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != 429
}

// MarketClient talks to the external exchange REST API. It carries no retry
// or breaker logic of its own; the resilience pipeline wraps every call.
type MarketClient struct {
	baseAPI string
	client  *http.Client
	logger  *log.Helper
}

// NewMarketClient creates the exchange API client from configuration.
// A socks5:// or http(s):// proxy URL routes all exchange traffic.
func NewMarketClient(c *conf.Market, logger log.Logger) (*MarketClient, error) {
	helper := log.NewHelper(logger)

	if c == nil || c.BaseApi == "" {
		return nil, fmt.Errorf("market base API is required")
	}

	timeout := defaultMarketTimeout
	if c.Timeout != nil && c.Timeout.AsDuration() > 0 {
		timeout = c.Timeout.AsDuration()
	}

	client, err := newHTTPClient(c.ProxyUrl, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if c.ProxyUrl != "" {
		helper.Infow("msg", "market client using proxy", "proxy_url", c.ProxyUrl)
	}

	return &MarketClient{
		baseAPI: strings.TrimSuffix(c.BaseApi, "/"),
		client:  client,
		logger:  helper,
	}, nil
}

// GetTicker fetches the current ticker for a symbol.
func (m *MarketClient) GetTicker(ctx context.Context, symbol string) (*TickerResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/ticker?symbol=%s", m.baseAPI, url.QueryEscape(symbol))

	body, err := m.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var ticker TickerResponse
	if err := json.Unmarshal(body, &ticker); err != nil {
		return nil, fmt.Errorf("invalid ticker response: %w", err)
	}

	return &ticker, nil
}

// PlaceOrder submits an order to the exchange.
func (m *MarketClient) PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	endpoint := m.baseAPI + "/api/v1/orders"

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	body, err := m.do(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return nil, err
	}

	var order OrderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("invalid order response: %w", err)
	}

	return &order, nil
}

// do executes a single HTTP request and maps non-2xx responses to
// MarketAPIError.
func (m *MarketClient) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", marketUserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := &MarketAPIError{Status: resp.StatusCode, Message: string(body)}
	var errResp marketErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Message
	}

	return nil, apiErr
}

// newHTTPClient creates an HTTP client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}

		switch parsed.Scheme {
		case "socks5", "socks5h":
			dialer, err := newSOCKS5Dialer(parsed)
			if err != nil {
				return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
			}
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}

		case "http", "https":
			transport.Proxy = func(req *http.Request) (*url.URL, error) {
				return parsed, nil
			}

		default:
			return nil, fmt.Errorf("unsupported proxy scheme: %s (supported: socks5, http, https)", parsed.Scheme)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// newSOCKS5Dialer creates a SOCKS5 proxy dialer.
func newSOCKS5Dialer(parsed *url.URL) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if parsed.User != nil {
		password, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: password,
		}
	}

	host := parsed.Host
	if !strings.Contains(host, ":") {
		host += ":1080" // SOCKS5 default port
	}

	return proxy.SOCKS5("tcp", host, auth, proxy.Direct)
}
