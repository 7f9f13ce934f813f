package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/finderslab/toolscout/pkg/cli/config"
	"github.com/finderslab/toolscout/pkg/usecase"
	"github.com/finderslab/toolscout/pkg/utils/logging"
)

func cmdSearch() *cli.Command {
	var limit int
	var repoCfg config.Repository
	var embedCfg config.Embedding

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of results",
			Value:       usecase.DefaultSearchLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, embedCfg.Flags()...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search the tool catalog from the terminal",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.New("query is required")
			}

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

			uc := usecase.New(repo, embedder)
			tools := uc.Search(ctx, query, limit)

			if len(tools) == 0 {
				fmt.Println("no tools found")
				return nil
			}

			title := color.New(color.FgCyan, color.Bold)
			meta := color.New(color.FgYellow)
			for _, tool := range tools {
				title.Printf("%s", tool.Name)
				if tool.Category != "" {
					meta.Printf("  [%s]", tool.Category)
				}
				fmt.Println()
				if tool.Description != "" {
					fmt.Printf("  %s\n", tool.Description)
				}
				if tool.WebsiteURL != "" {
					fmt.Printf("  %s\n", tool.WebsiteURL)
				}
				fmt.Println()
			}
			return nil
		},
	}
}
