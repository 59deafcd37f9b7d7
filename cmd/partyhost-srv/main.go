package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/partyhost/partyhost/internal/audio"
	"github.com/partyhost/partyhost/internal/buildinfo"
	"github.com/partyhost/partyhost/internal/cache"
	"github.com/partyhost/partyhost/internal/database"
	targetDb "github.com/partyhost/partyhost/internal/database/audiotarget/database"
	resultDb "github.com/partyhost/partyhost/internal/database/result/database"
	"github.com/partyhost/partyhost/internal/hub"
	"github.com/partyhost/partyhost/internal/logging"
	"github.com/partyhost/partyhost/internal/party"
	"github.com/partyhost/partyhost/internal/server"
	"github.com/partyhost/partyhost/internal/shutdown"
	"github.com/partyhost/partyhost/internal/streaming"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	ctx, done := shutdown.New()
	defer done()

	config := party.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logging.DefaultLogger().Fatalf("processing the config: %v", err)
	}

	logger := logging.NewLogger(config.Debug)
	ctx = logging.WithLogger(ctx, logger)

	if err := realMain(ctx, config, done); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config party.Config, done func()) error {
	logger := logging.FromContext(ctx).Named("main.realMain")

	db, err := database.NewFromEnv(ctx, &config.DB)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	targetCache, err := cache.NewLRU[targetDb.Entry](config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	targets := targetDb.New(db, targetCache, config.Audio.TTL)
	results := resultDb.New(db)

	var provider audio.Provider
	if config.Streaming.Enabled() {
		provider = streaming.NewFromConfig(ctx, config.Streaming)
	} else {
		logger.Info("streaming credentials not set, connect devices are disabled")
	}

	h := hub.New(config.Hub)
	orchestrator := audio.NewOrchestrator(config.Audio, targets, h, provider)
	manager := party.NewManager(&config, h, orchestrator, results, targets)

	srv, err := server.New(config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(os.Stdout, buildinfo.GreetingCLI, buildinfo.ProjectName, version, srv.Addr())

	mux := http.NewServeMux()
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle("/ws", h.Handler(ctx, manager))
	mux.Handle("/sessions/", manager.HandleResults())

	go func() {
		if err := http.ListenAndServe(":"+config.ProfPort, nil); err != nil {
			logger.Errorf("pprof default sever: %v", err)
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer done()
		if err := srv.ServeHTTP(ctx, &http.Server{Handler: mux}); err != nil {
			return fmt.Errorf("srv.ServeHTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := manager.Run(ctx); err != nil {
			return fmt.Errorf("manager.Run: %w", err)
		}
		return nil
	})

	return g.Wait()
}
