package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/partyhost/partyhost/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(server.HandleHealth(ctx))
	defer srv.Close()

	config := Config{URL: srv.URL, Timeout: time.Second}

	status, err := check(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, "ok", status)

	cancel()
	_, err = check(context.Background(), config)
	assert.Error(t, err)
}
