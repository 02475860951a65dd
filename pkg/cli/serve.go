package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/cli/config"
	httpctrl "github.com/secmon-lab/materiality/pkg/controller/http"
	"github.com/secmon-lab/materiality/pkg/service/worker"
	"github.com/secmon-lab/materiality/pkg/usecase"
	"github.com/secmon-lab/materiality/pkg/utils/async"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
	"github.com/secmon-lab/materiality/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var sessionIdle time.Duration
	var sessionReapInterval time.Duration
	var catalogCfg config.Catalog
	var repoCfg config.Repository
	var narrativeCfg config.Narrative
	var reportCfg config.Report

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MATERIALITY_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "session-idle-timeout",
			Usage:       "Editing sessions not accessed for this long are closed. Unsaved edits are lost",
			Value:       24 * time.Hour,
			Sources:     cli.EnvVars("MATERIALITY_SESSION_IDLE_TIMEOUT"),
			Destination: &sessionIdle,
		},
		&cli.DurationFlag{
			Name:        "session-reap-interval",
			Usage:       "Interval of the idle session check",
			Value:       10 * time.Minute,
			Sources:     cli.EnvVars("MATERIALITY_SESSION_REAP_INTERVAL"),
			Destination: &sessionReapInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, catalogCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, narrativeCfg.Flags()...)
	flags = append(flags, reportCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			catalog, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load catalog")
			}
			thresholds, err := catalogCfg.Thresholds()
			if err != nil {
				return goerr.Wrap(err, "failed to load thresholds")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo, "repository")

			reportSvc, closeReport, err := reportCfg.Configure(ctx, catalog)
			if err != nil {
				return goerr.Wrap(err, "failed to configure report service")
			}
			defer closeReport()

			jobs := async.New()
			ucOpts := []usecase.Option{
				usecase.WithCatalog(catalog),
				usecase.WithReportService(reportSvc),
				usecase.WithNarrativeTimeout(narrativeCfg.Timeout()),
				usecase.WithDispatcher(jobs.Dispatch),
			}
			if thresholds != nil {
				ucOpts = append(ucOpts, usecase.WithDefaultThresholds(*thresholds))
			}

			narrativeSvc, err := narrativeCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure narrative service")
			}
			if narrativeSvc != nil {
				ucOpts = append(ucOpts, usecase.WithNarrativeService(narrativeSvc))
				logging.Default().LogAttrs(ctx, slog.LevelInfo, "Narrative suggestions enabled", narrativeCfg.LogAttrs()...)
			} else {
				logging.Default().Info("Gemini project not configured, narrative suggestions return a fixed message")
			}

			if reportSvc.CanUpload() {
				logging.Default().LogAttrs(ctx, slog.LevelInfo, "Report upload enabled", reportCfg.LogAttrs()...)
			}

			uc := usecase.New(repo, ucOpts...)

			reaper, err := worker.NewSessionReaper(uc.Session, sessionIdle, sessionReapInterval)
			if err != nil {
				return goerr.Wrap(err, "failed to configure session reaper")
			}
			if err := reaper.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start session reaper")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server",
					"addr", addr,
					"industries", len(catalog.Industries()),
					"topics", len(catalog.Topics()),
				)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				reaper.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				reaper.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				if err := jobs.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("pending narrative suggestions were abandoned", "error", err)
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
