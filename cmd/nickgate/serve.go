// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/nickgate/nickgate/internal/auth"
	authpg "github.com/nickgate/nickgate/internal/auth/postgres"
	"github.com/nickgate/nickgate/internal/config"
	"github.com/nickgate/nickgate/internal/control"
	"github.com/nickgate/nickgate/internal/logging"
	"github.com/nickgate/nickgate/internal/observability"
	"github.com/nickgate/nickgate/internal/session"
	"github.com/nickgate/nickgate/internal/store"
	"github.com/nickgate/nickgate/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication daemon",
		Long: `Start the NickGate daemon: connect to the external user store,
expose the credential-verification pipeline to the services host, and
serve metrics, health probes, and the control socket.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("database.url", "", "external user store connection URL (or DATABASE_URL)")
	cmd.Flags().String("database.engine", "", "backing-store engine for credential lookups")
	cmd.Flags().String("log.format", "", "log format (json or text)")
	cmd.Flags().String("metrics.addr", "", "metrics/health HTTP address")
	cmd.Flags().String("auth.query", "", "credential lookup query template")

	return cmd
}

// loadConfig merges the config file, command-line flags, and the
// DATABASE_URL environment fallback.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		if f := cmd.Flags().Lookup("database.url"); f != nil && !f.Changed {
			_ = f.Value.Set(url) //nolint:errcheck // string flag set cannot fail
			f.Changed = true
		}
	}
	return config.Load(configFile, cmd.Flags())
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault("nickgate", version, cfg.Log.Format)

	slog.Info("starting nickgate",
		"metrics_addr", cfg.Metrics.Addr,
		"log_format", cfg.Log.Format,
	)

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	registry := session.NewRegistry()

	accounts := authpg.NewAccountRepository(pool)
	syncer, err := auth.NewSynchronizerWithLogger(accounts, registry, slog.Default())
	if err != nil {
		return err
	}

	pgExec := resolveExecutor(cfg.Database.Engine, pool, slog.Default())
	var executor auth.QueryExecutor
	if pgExec != nil {
		executor = pgExec
	} else {
		slog.Error("no executor for backing-store engine, credential checks will be refused",
			"engine", cfg.Database.Engine,
		)
	}

	gateway, err := auth.NewGateway(executor, registry, syncer, auth.NewBcryptVerifier(), cfg.Auth.Query, slog.Default())
	if err != nil {
		return err
	}

	ready := func() bool { return pool.Ping(ctx) == nil }
	obs := observability.NewServer(cfg.Metrics.Addr, ready, registry.Count)
	obsErr, err := obs.Start()
	if err != nil {
		return err
	}

	gate := auth.NewCommandGate(cfg.Auth.DisableRegistrationReason, cfg.Auth.DisableEmailReason)

	shutdownCh := make(chan struct{}, 1)
	ctl := control.NewServer(func() {
		select {
		case shutdownCh <- struct{}{}:
		default:
		}
	}, registry.Count, checkFunc(gateway), gate.PreCommand)
	if err := ctl.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig.String())
	case <-shutdownCh:
		slog.Info("shutdown requested via control socket")
	case err := <-obsErr:
		if err != nil {
			errutil.LogError(slog.Default(), "observability server failed", err)
		}
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := ctl.Stop(stopCtx); err != nil {
		errutil.LogError(slog.Default(), "control socket shutdown failed", err)
	}
	if err := obs.Stop(stopCtx); err != nil {
		errutil.LogError(slog.Default(), "observability shutdown failed", err)
	}

	// Let in-flight lookups deliver their completions before the pool
	// closes underneath them.
	if pgExec != nil {
		pgExec.Wait()
	}

	slog.Info("nickgate stopped")
	return nil
}

// resolveExecutor maps the configured engine identifier to a lookup
// executor. An unrecognized engine resolves to nil and the gateway refuses
// credential checks, mirroring an unresolved backing-store service.
func resolveExecutor(engine string, db authpg.DB, logger *slog.Logger) *authpg.Executor {
	switch engine {
	case "postgres", "postgresql", "pgx":
		return authpg.NewExecutor(db, logger)
	default:
		return nil
	}
}

// checkTimeout bounds operator-initiated credential checks; real login
// attempts are bounded by the host's pending-request subsystem instead.
const checkTimeout = 5 * time.Second

// checkFunc adapts the gateway's fire-and-forget pipeline to the control
// socket's synchronous /check endpoint.
func checkFunc(gateway *auth.Gateway) control.CheckFunc {
	return func(ctx context.Context, account, password string) bool {
		done := make(chan bool, 1)
		pending := auth.NewPendingLogin(account, password, auth.CompletionFuncs{
			Success: func(string) { done <- true },
			Fail:    func(string) { done <- false },
		})

		gateway.Authenticate(ctx, ulid.ULID{}, pending)

		select {
		case ok := <-done:
			return ok
		case <-time.After(checkTimeout):
			return false
		case <-ctx.Done():
			return false
		}
	}
}
