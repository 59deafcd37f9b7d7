package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type call struct {
	method string
	path   string
	query  string
	auth   string
	body   string
}

func recordingServer(t *testing.T, status int, reply string) (*httptest.Server, func() []call) {
	t.Helper()

	var (
		mtx   sync.Mutex
		calls []call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mtx.Lock()
		calls = append(calls, call{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
		})
		mtx.Unlock()

		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []call {
		mtx.Lock()
		defer mtx.Unlock()
		return append([]call(nil), calls...)
	}
}

func staticClient(url string) *Client {
	return New(url, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret"}), time.Second)
}

func TestClientVerbs(t *testing.T) {
	t.Parallel()

	srv, calls := recordingServer(t, http.StatusNoContent, "")
	c := staticClient(srv.URL + "/")
	ctx := context.Background()

	require.NoError(t, c.Play(ctx, "dev1", PlayRequest{URIs: []string{"spotify:track:1"}, PositionMs: 1500}))
	require.NoError(t, c.Pause(ctx, "dev1"))
	require.NoError(t, c.Resume(ctx, "dev1"))
	require.NoError(t, c.Seek(ctx, "dev1", 42000))
	require.NoError(t, c.SetVolume(ctx, "dev1", 150))

	got := calls()
	require.Len(t, got, 5)
	for _, c := range got {
		assert.Equal(t, http.MethodPut, c.method)
		assert.Equal(t, "Bearer secret", c.auth)
	}

	assert.Equal(t, "/me/player/play", got[0].path)
	assert.Equal(t, "device_id=dev1", got[0].query)
	var play PlayRequest
	require.NoError(t, json.Unmarshal([]byte(got[0].body), &play))
	assert.Equal(t, []string{"spotify:track:1"}, play.URIs)
	assert.Equal(t, int64(1500), play.PositionMs)

	assert.Equal(t, "/me/player/pause", got[1].path)
	assert.Equal(t, "/me/player/play", got[2].path)
	assert.Empty(t, got[2].body)
	assert.Equal(t, "/me/player/seek", got[3].path)
	assert.Equal(t, "device_id=dev1&position_ms=42000", got[3].query)
	assert.Equal(t, "/me/player/volume", got[4].path)
	assert.Equal(t, "device_id=dev1&volume_percent=100", got[4].query)
}

func TestClientAPIError(t *testing.T) {
	t.Parallel()

	srv, _ := recordingServer(t, http.StatusNotFound, `{"error":{"status":404,"message":"Device not found"}}`)
	err := staticClient(srv.URL).Pause(context.Background(), "gone")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Device not found", apiErr.Message)
}

func TestClientAPIErrorWithoutBody(t *testing.T) {
	t.Parallel()

	srv, _ := recordingServer(t, http.StatusBadGateway, "")
	err := staticClient(srv.URL).Resume(context.Background(), "dev")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestClientRefreshesToken(t *testing.T) {
	t.Parallel()

	var refreshes int
	var mtx sync.Mutex
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mtx.Lock()
		refreshes++
		mtx.Unlock()

		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "r-token", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenSrv.Close()

	apiSrv, calls := recordingServer(t, http.StatusNoContent, "")

	cfg := Config{
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "r-token",
		Timeout:      time.Second,
	}
	require.True(t, cfg.Enabled())

	c := NewFromConfig(context.Background(), cfg)
	require.NoError(t, c.Pause(context.Background(), "dev"))
	require.NoError(t, c.Pause(context.Background(), "dev"))

	for _, call := range calls() {
		assert.Equal(t, "Bearer fresh", call.auth)
	}
	mtx.Lock()
	assert.Equal(t, 1, refreshes)
	mtx.Unlock()
}
