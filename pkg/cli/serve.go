package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/finderslab/toolscout/pkg/cli/config"
	httpctrl "github.com/finderslab/toolscout/pkg/controller/http"
	"github.com/finderslab/toolscout/pkg/service/worker"
	"github.com/finderslab/toolscout/pkg/usecase"
	"github.com/finderslab/toolscout/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var ingestInterval time.Duration
	var repoCfg config.Repository
	var embedCfg config.Embedding
	var sourceCfg config.Sources

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TOOLSCOUT_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "ingest-interval",
			Usage:       "Run ingestion periodically at this interval (disabled when 0)",
			Sources:     cli.EnvVars("TOOLSCOUT_INGEST_INTERVAL"),
			Destination: &ingestInterval,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, embedCfg.Flags()...)
	flags = append(flags, sourceCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			embedder, err := embedCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure embedding provider")
			}
			if embedder == nil {
				logging.Default().Warn("No embedding provider configured, search runs lexical-only")
			}

			adapters, err := sourceCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure sources")
			}
			logging.Default().Info("Sources configured", "count", len(adapters))

			uc := usecase.New(repo, embedder, usecase.WithSources(adapters...))

			var ingestWorker *worker.IngestWorker
			if ingestInterval > 0 {
				if len(adapters) == 0 {
					return goerr.New("ingest-interval requires at least one configured source")
				}
				ingestWorker = worker.NewIngestWorker(uc, ingestInterval)
				if err := ingestWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start ingest worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if ingestWorker != nil {
					ingestWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
