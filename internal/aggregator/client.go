// Package aggregator is a client for the DEX aggregator REST API: spot prices,
// ranked swap routes, and unsigned swap transaction bytes.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/suimomentum/internal/logger"
	"github.com/rewired-gh/suimomentum/internal/models"
)

// Client provides access to the aggregator API.
type Client struct {
	baseURL    string
	apiKey     string
	symbols    []string
	tokens     map[string]string
	httpClient *http.Client
	config     ClientConfig
}

// ClientConfig holds HTTP transport and retry configuration.
type ClientConfig struct {
	Timeout             time.Duration
	MaxRetries          int
	RetryDelayBase      time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// priceResponse is the body of GET /prices.
type priceResponse struct {
	Prices map[string]float64 `json:"prices"`
}

// routeResponse is the body of GET /routes.
type routeResponse struct {
	Routes []models.Route `json:"routes"`
}

type buildRequest struct {
	Route       models.Route `json:"route"`
	Sender      string       `json:"sender"`
	MaxSlippage float64      `json:"maxSlippage"`
}

type buildResponse struct {
	TxBytes string `json:"txBytes"`
}

// APIError is a non-retryable error status from the aggregator.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aggregator returned %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a new aggregator client. symbols is the set of price symbols
// fetched each cycle; tokens maps a symbol to its on-chain coin type.
func NewClient(baseURL, apiKey string, symbols []string, tokens map[string]string, cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 20
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		symbols: symbols,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

// CoinType resolves a symbol to the coin type the aggregator expects.
func (c *Client) CoinType(symbol string) string {
	if ct, ok := c.tokens[symbol]; ok && ct != "" {
		return ct
	}
	return symbol
}

// FetchPrices retrieves the current price of every configured symbol.
// Symbols missing from the response are absent from the returned map.
func (c *Client) FetchPrices(ctx context.Context) (map[string]float64, error) {
	u, err := url.Parse(c.baseURL + "/prices")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	// Key the response back to symbols by coin type.
	bySymbol := make(map[string]string, len(c.symbols))
	ids := make([]string, 0, len(c.symbols))
	for _, sym := range c.symbols {
		ct := c.CoinType(sym)
		bySymbol[ct] = sym
		ids = append(ids, ct)
	}
	sort.Strings(ids)

	q := u.Query()
	q.Set("symbols", strings.Join(ids, ","))
	u.RawQuery = q.Encode()

	var body priceResponse
	if err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	prices := make(map[string]float64, len(body.Prices))
	for id, price := range body.Prices {
		if sym, ok := bySymbol[id]; ok {
			prices[sym] = price
		}
	}
	return prices, nil
}

// GetRoutes returns routes for swapping amount of tokenIn into tokenOut, best first.
func (c *Client) GetRoutes(ctx context.Context, tokenIn, tokenOut string, amount, maxSlippage float64) ([]models.Route, error) {
	u, err := url.Parse(c.baseURL + "/routes")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("tokenIn", c.CoinType(tokenIn))
	q.Set("tokenOut", c.CoinType(tokenOut))
	q.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	q.Set("maxSlippage", strconv.FormatFloat(maxSlippage, 'f', -1, 64))
	u.RawQuery = q.Encode()

	var body routeResponse
	if err := c.doJSON(ctx, http.MethodGet, u.String(), nil, &body); err != nil {
		return nil, fmt.Errorf("failed to fetch routes: %w", err)
	}
	return body.Routes, nil
}

// BuildSwap asks the aggregator for the unsigned transaction bytes executing route
// on behalf of sender. The bytes are returned base64-encoded as received.
func (c *Client) BuildSwap(ctx context.Context, route models.Route, sender string, maxSlippage float64) (string, error) {
	payload, err := json.Marshal(buildRequest{Route: route, Sender: sender, MaxSlippage: maxSlippage})
	if err != nil {
		return "", fmt.Errorf("failed to encode build request: %w", err)
	}

	var body buildResponse
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/swap/build", payload, &body); err != nil {
		return "", fmt.Errorf("failed to build swap: %w", err)
	}
	if body.TxBytes == "" {
		return "", fmt.Errorf("failed to build swap: empty transaction bytes")
	}
	return body.TxBytes, nil
}

func (c *Client) doJSON(ctx context.Context, method, urlStr string, payload []byte, out interface{}) error {
	resp, err := c.doRequest(ctx, method, urlStr, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doRequest performs HTTP request with retry logic
func (c *Client) doRequest(ctx context.Context, method, urlStr string, payload []byte) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.config.MaxRetries; i++ {
		if i > 0 {
			delay := c.config.RetryDelayBase * time.Duration(i)
			logger.Debug("Retrying %s %s in %v (attempt %d/%d): %v", method, urlStr, delay, i+1, c.config.MaxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
