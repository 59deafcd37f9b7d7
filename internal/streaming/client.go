// Package streaming talks to the remote streaming provider that drives
// CONNECT_DEVICE targets.
package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/partyhost/partyhost/internal/logging"
	"golang.org/x/oauth2"
)

const maxErrorBody = 64 << 10

type Config struct {
	BaseURL      string        `envconfig:"STREAMING_API_URL" default:"https://api.spotify.com/v1"`
	TokenURL     string        `envconfig:"STREAMING_TOKEN_URL" default:"https://accounts.spotify.com/api/token"`
	ClientID     string        `envconfig:"STREAMING_CLIENT_ID"`
	ClientSecret string        `envconfig:"STREAMING_CLIENT_SECRET"`
	RefreshToken string        `envconfig:"STREAMING_REFRESH_TOKEN"`
	Timeout      time.Duration `envconfig:"STREAMING_TIMEOUT" default:"10s"`
}

// Enabled reports whether credentials for the provider are configured.
func (c Config) Enabled() bool {
	return c.ClientID != "" && c.RefreshToken != ""
}

// TokenSource returns a bearer token source that refreshes itself from the
// configured refresh token whenever the access token expires.
func (c Config) TokenSource(ctx context.Context) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.TokenURL},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
}

type PlayRequest struct {
	URIs       []string `json:"uris,omitempty"`
	PositionMs int64    `json:"position_ms,omitempty"`
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("streaming api: status %d: %s", e.StatusCode, e.Message)
}

func New(baseURL string, ts oauth2.TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, ts),
				Base:   http.DefaultTransport,
			},
		},
	}
}

func NewFromConfig(ctx context.Context, config Config) *Client {
	return New(config.BaseURL, config.TokenSource(ctx), config.Timeout)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func (c *Client) Play(ctx context.Context, deviceID string, req PlayRequest) error {
	return c.put(ctx, "/me/player/play", deviceID, nil, req)
}

func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.put(ctx, "/me/player/pause", deviceID, nil, nil)
}

func (c *Client) Resume(ctx context.Context, deviceID string) error {
	return c.put(ctx, "/me/player/play", deviceID, nil, nil)
}

func (c *Client) Seek(ctx context.Context, deviceID string, positionMs int64) error {
	q := url.Values{}
	q.Set("position_ms", strconv.FormatInt(positionMs, 10))
	return c.put(ctx, "/me/player/seek", deviceID, q, nil)
}

func (c *Client) SetVolume(ctx context.Context, deviceID string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	q := url.Values{}
	q.Set("volume_percent", strconv.Itoa(percent))
	return c.put(ctx, "/me/player/volume", deviceID, q, nil)
}

func (c *Client) put(ctx context.Context, path, deviceID string, q url.Values, body interface{}) error {
	logger := logging.FromContext(ctx).Named("streaming.Client.put")

	if q == nil {
		q = url.Values{}
	}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
	}

	logger.Warnf("%s device %s: %v", path, deviceID, apiErr)
	return apiErr
}
