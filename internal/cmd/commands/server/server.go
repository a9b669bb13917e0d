package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/damienjburks/ops-seal/internal/api"
	"github.com/damienjburks/ops-seal/internal/cache"
	"github.com/damienjburks/ops-seal/internal/cmd/base"
	"github.com/damienjburks/ops-seal/internal/config"
	"github.com/damienjburks/ops-seal/internal/docstore"
	"github.com/damienjburks/ops-seal/internal/scheduler"
	"github.com/damienjburks/ops-seal/internal/server"
	"github.com/damienjburks/ops-seal/internal/sweep"
	"github.com/damienjburks/ops-seal/pkg/secrets"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the API server and the scheduled destroy-sweep job"
}

func (c *Command) Help() string {
	return `Usage: ops-seal server -config=<config file>

  This command runs the Ops-Seal API server. The destroy-sweep job runs
  on the configured schedule and can also be triggered through the API.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("server", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "config.hcl",
		"Path to the configuration file",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := config.NewConfig(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := secrets.NewFileProvider(cfg.Secrets.Dir, c.Log.Named("secrets"))

	srv := server.Server{
		Config: cfg,
		Logger: c.Log,
		Sweeps: sweep.NewService(cfg, provider, c.Log),
	}

	// A cache or document store that is down at startup does not prevent
	// the server from running; the endpoints that need it respond 503
	// until a restart.
	cachePassword := ""
	if cfg.Cache.PasswordSecret != "" {
		cachePassword, _ = provider.Resolve(cfg.Cache.PasswordSecret)
	}
	cacheClient := cache.New(cache.Config{
		Addr:     cfg.Cache.Addr,
		Password: cachePassword,
		DB:       cfg.Cache.DB,
	}, c.Log.Named("cache"))
	defer cacheClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		c.UI.Warn(fmt.Sprintf("cache is unreachable, cache endpoints disabled: %v", err))
	} else {
		srv.Cache = cacheClient
	}
	cancel()

	docsURI := cfg.Documents.URI
	if cfg.Documents.URISecret != "" {
		if uri, ok := provider.Resolve(cfg.Documents.URISecret); ok {
			docsURI = uri
		}
	}
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	docsClient, err := docstore.Connect(connectCtx, docstore.Config{
		URI:      docsURI,
		Database: cfg.Documents.Database,
	}, c.Log.Named("docstore"))
	cancel()
	if err != nil {
		c.UI.Warn(fmt.Sprintf(
			"document store is unreachable, document endpoints disabled: %v", err))
	} else {
		srv.Documents = docsClient
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = docsClient.Close(closeCtx)
		}()
	}

	interval := time.Duration(cfg.Sweep.IntervalHours) * time.Hour
	sched := scheduler.New("destroy-sweep", interval, func(ctx context.Context) error {
		_, err := srv.Sweeps.Run(ctx)
		if errors.Is(err, sweep.ErrSweepInFlight) {
			// Triggered through the API while the scheduled pass came due.
			return nil
		}
		return err
	}, c.Log.Named("scheduler"))
	sched.Start(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(srv),
	}

	errCh := make(chan error, 1)
	go func() {
		c.UI.Info(fmt.Sprintf("listening on %s...", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		c.UI.Error(fmt.Sprintf("server error: %v", err))
		return 1
	case <-ctx.Done():
	}

	c.UI.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		c.UI.Error(fmt.Sprintf("error shutting down server: %v", err))
		return 1
	}

	return 0
}
