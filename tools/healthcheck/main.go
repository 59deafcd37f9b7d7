// Command healthcheck probes the /health endpoint of a running partyhost-srv
// and exits non-zero unless it reports ok. Meant for container probes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/partyhost/partyhost/internal/logging"
	"github.com/partyhost/partyhost/internal/shutdown"
)

type Config struct {
	URL     string        `envconfig:"PARTYHOST_HEALTH_URL" default:"http://127.0.0.1:8080/health"`
	Timeout time.Duration `envconfig:"PARTYHOST_HEALTH_TIMEOUT" default:"5s"`
}

type OkResponse struct {
	Status string `json:"status"`
}

func main() {
	ctx, done := shutdown.New()
	defer done()

	config := Config{}
	if err := envconfig.Process("", &config); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	status, err := check(ctx, config)
	if err != nil {
		logging.FromContext(ctx).Errorf("healthcheck: %v", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(os.Stdout, status)
}

func check(ctx context.Context, config Config) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.URL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	client := &http.Client{Transport: &http.Transport{
		DisableCompression:    true,
		TLSHandshakeTimeout:   config.Timeout,
		ResponseHeaderTimeout: config.Timeout,
	}}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("client do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var ok OkResponse
	if err := json.Unmarshal(body, &ok); err != nil {
		return "", fmt.Errorf("body unmarshal: %w", err)
	}
	if resp.StatusCode != http.StatusOK || ok.Status != "ok" {
		return "", fmt.Errorf("unhealthy: %d %s", resp.StatusCode, ok.Status)
	}

	return ok.Status, nil
}
