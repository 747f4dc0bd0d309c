// Package community is the Mochi API client for guild features: NFT
// lookups, stat channels and invite tracking.
package community

import (
	"bytes"
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
)

const defaultBaseURL = "https://api.mochi.pod.town/api/v1"

// APIError is a non-2xx Mochi response. Message is the "error" field of
// the body when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mochi api status %d: %s", e.Status, e.Message)
}

// IsRecordNotFound reports whether err is Mochi's "record not found".
func IsRecordNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "record not found")
}

// Client talks to the Mochi community endpoints.
type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client.
func NewClient(log *logger.Logger, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		log:        log,
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling mochi api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		c.log.Debug("Mochi API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", msg))
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding mochi response: %w", err)
	}
	return nil
}

// CreateStatChannel asks Mochi to create a counter channel in guildID.
// countType is "<type>_<stat>", e.g. "bot_members".
func (c *Client) CreateStatChannel(ctx context.Context, guildID, countType string) error {
	path := "/guilds/" + url.PathEscape(guildID) + "/channels?" + url.Values{"count_type": {countType}}.Encode()
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("create stat channel: %w", err)
	}
	return nil
}

// InviteConfig is the invite tracker setup of a guild.
type InviteConfig struct {
	GuildID    string `json:"guild_id"`
	LogChannel string `json:"log_channel"`
}

// ConfigureInvites sets the channel invite tracker logs go to.
func (c *Client) ConfigureInvites(ctx context.Context, cfg InviteConfig) error {
	if err := c.do(ctx, http.MethodPost, "/configs/invites", cfg, nil); err != nil {
		return fmt.Errorf("configure invites: %w", err)
	}
	return nil
}
