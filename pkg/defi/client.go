// Package defi fetches coin prices, market history and supported tokens
// from CoinGecko and the Mochi API.
package defi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mochibot/pkg/logger"
	"mochibot/pkg/state"
)

const (
	defaultCoinGeckoBase = "https://api.coingecko.com/api/v3"
	defaultMochiBase     = "https://api.mochi.pod.town/api/v1"
	maxResponseBytes     = 4 * 1024 * 1024
)

// ErrNotFound is returned when the upstream API has no such coin.
var ErrNotFound = errors.New("defi: not found")

// APIError is a non-2xx upstream response.
type APIError struct {
	Service string
	Status  int
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api status %d: %s", e.Service, e.Status, e.Body)
}

// Options configures a Client.
type Options struct {
	CoinGeckoBaseURL string
	MochiBaseURL     string
	Timeout          time.Duration
	// Cache stores raw responses for CacheTTL. Nil disables caching.
	Cache    state.KV
	CacheTTL time.Duration
}

// Client talks to CoinGecko and the Mochi token API.
type Client struct {
	log        *logger.Logger
	coingecko  string
	mochi      string
	httpClient *http.Client
	cache      state.KV
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewClient creates a Client.
func NewClient(log *logger.Logger, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if strings.TrimSpace(opts.CoinGeckoBaseURL) == "" {
		opts.CoinGeckoBaseURL = defaultCoinGeckoBase
	}
	if strings.TrimSpace(opts.MochiBaseURL) == "" {
		opts.MochiBaseURL = defaultMochiBase
	}

	return &Client{
		log:       log,
		coingecko: strings.TrimRight(strings.TrimSpace(opts.CoinGeckoBaseURL), "/"),
		mochi:     strings.TrimRight(strings.TrimSpace(opts.MochiBaseURL), "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		now:      time.Now,
	}
}

// getJSON fetches rawURL and decodes it into out, going through the
// response cache when one is configured.
func (c *Client) getJSON(ctx context.Context, service, rawURL string, out any) error {
	cacheKey := service + ":" + rawURL
	if c.cache != nil && c.cacheTTL > 0 {
		data, ok, err := c.cache.Get(ctx, cacheKey)
		if err != nil {
			c.log.Warn("Cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if ok {
			if err := json.Unmarshal(data, out); err == nil {
				return nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s api: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Service: service, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", service, err)
	}

	if c.cache != nil && c.cacheTTL > 0 {
		if err := c.cache.Set(ctx, cacheKey, body, c.cacheTTL); err != nil {
			c.log.Warn("Cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return nil
}

func (c *Client) coingeckoURL(path string, query url.Values) string {
	u := c.coingecko + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
