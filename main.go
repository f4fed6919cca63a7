// alertdesk: alert ingestion and query service.
// Author: vesaa | License: MIT | https://github.com/vesaa/alertdesk
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vesaa/alertdesk/internal/agent"
	"github.com/vesaa/alertdesk/internal/config"
	"github.com/vesaa/alertdesk/internal/events"
	"github.com/vesaa/alertdesk/internal/logger"
	"github.com/vesaa/alertdesk/internal/server"
	"github.com/vesaa/alertdesk/internal/store"
	"go.uber.org/zap"
)

const version = "v0.1.0"

func printBanner(mode string) {
	fmt.Printf("\n  ► alertdesk %s  |  Mode: %s\n\n", version, mode)
}

// setup loads config and builds the logger every subcommand shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func main() {
	root := &cobra.Command{
		Use:   "alertdesk",
		Short: "alertdesk: alert ingestion and query service",
		Long: `alertdesk accepts alert records (hostname, metric, value, message) over HTTP,
stores them in SQLite or Postgres, and serves list/search queries to a small web UI.`,
		SilenceUsage: true,
	}

	// ── server subcommand ─────────────────────────────────────────────────────
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP API and web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("SERVER")

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Fail fast: never serve against a store we could not open.
			openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			st, err := store.Open(openCtx, cfg, log)
			cancel()
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer st.Close()

			var pub server.Publisher
			if cfg.RedisAddr != "" {
				rp, err := events.NewRedisPublisher(ctx, &redis.Options{
					Addr:     cfg.RedisAddr,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, cfg.RedisChannel)
				if err != nil {
					return fmt.Errorf("initializing event publisher: %w", err)
				}
				defer rp.Close()
				pub = rp
				log.Info("publishing alerts", zap.String("redis", cfg.RedisAddr), zap.String("channel", cfg.RedisChannel))
			}

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(server.Options{
				Store:          st,
				Logger:         log,
				Publisher:      pub,
				IngestToken:    cfg.IngestToken,
				RequestTimeout: cfg.RequestTimeout,
			})

			httpSrv := &http.Server{
				Addr:              cfg.Addr(),
				Handler:           srv.Engine(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			fmt.Printf("  ✓ Web UI + API → http://%s\n", cfg.Addr())
			if cfg.DatabaseURL == "" {
				fmt.Printf("  ✓ Store:         sqlite (%s)\n\n", cfg.DBPath)
			} else {
				fmt.Printf("  ✓ Store:         postgres\n\n")
			}

			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				fmt.Println("\n  → Shutting down gracefully…")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			}
		},
	}

	// ── migrate subcommand ────────────────────────────────────────────────────
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the alerts table if it does not exist, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := store.Open(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			fmt.Println("  ✓ schema ready")
			return st.Close()
		},
	}

	// ── agent subcommand ──────────────────────────────────────────────────────
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Watch this host and report threshold breaches to a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("AGENT")

			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			// CLI flags override config values.
			if addr, _ := cmd.Flags().GetString("server"); addr != "" {
				cfg.AgentServerAddr = addr
			}
			if token, _ := cmd.Flags().GetString("token"); token != "" {
				cfg.AgentToken = token
			}
			if interval, _ := cmd.Flags().GetInt("interval"); interval > 0 {
				cfg.AgentInterval = interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return agent.New(cfg, agent.NewCollector(), log).Run(ctx)
		},
	}
	agentCmd.Flags().String("server", "", "Server address, e.g. 192.168.1.10:8000")
	agentCmd.Flags().String("token", "", "Ingest token sent as a Bearer credential (overrides config)")
	agentCmd.Flags().Int("interval", 0, "Sampling interval in seconds (overrides config)")

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print alertdesk version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("alertdesk %s\n", version)
		},
	}

	root.AddCommand(serverCmd, migrateCmd, agentCmd, versionCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
