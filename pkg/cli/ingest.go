package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/finderslab/toolscout/pkg/cli/config"
	"github.com/finderslab/toolscout/pkg/usecase"
	"github.com/finderslab/toolscout/pkg/utils/logging"
)

func cmdIngest() *cli.Command {
	var repoCfg config.Repository
	var embedCfg config.Embedding
	var sourceCfg config.Sources

	flags := []cli.Flag{}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, embedCfg.Flags()...)
	flags = append(flags, sourceCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Run one ingestion pass over all configured sources",
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

			adapters, err := sourceCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure sources")
			}

			uc := usecase.New(repo, embedder, usecase.WithSources(adapters...))

			summary := uc.Ingest(ctx)
			logging.Default().Info("Ingestion summary",
				"runID", summary.RunID,
				"success", summary.Success,
				"sources", summary.SourceCount,
				"processed", summary.ProcessedCount,
				"embedded", summary.EmbeddedCount,
				"committed", summary.CommittedCount,
				"duration", summary.Duration.String(),
			)

			if !summary.Success {
				return goerr.Wrap(summary.Err, "ingestion failed")
			}
			return nil
		},
	}
}
