package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"

	"github.com/finderslab/toolscout/pkg/service/embedding"
)

// Embedding holds CLI flags for the embedding provider
type Embedding struct {
	provider  string
	projectID string
	location  string
	apiKey    string
}

// Flags returns CLI flags for embedding configuration
func (e *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (gemini, openai or none)",
			Value:       "gemini",
			Sources:     cli.EnvVars("TOOLSCOUT_EMBEDDING_PROVIDER"),
			Destination: &e.provider,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("TOOLSCOUT_GEMINI_PROJECT"),
			Destination: &e.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("TOOLSCOUT_GEMINI_LOCATION"),
			Destination: &e.location,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key (required for openai provider)",
			Sources:     cli.EnvVars("TOOLSCOUT_OPENAI_API_KEY"),
			Destination: &e.apiKey,
		},
	}
}

// LogAttrs returns log attributes for the embedding configuration
func (e *Embedding) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", e.provider),
		slog.String("project_id", e.projectID),
		slog.String("location", e.location),
	}
}

// Configure creates the embedding service from the configured provider.
// Returns nil when the provider is "none": the catalog then runs with
// lexical search only.
func (e *Embedding) Configure(ctx context.Context) (*embedding.Service, error) {
	client, err := e.newClient(ctx)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	return embedding.New(client), nil
}

func (e *Embedding) newClient(ctx context.Context) (gollem.LLMClient, error) {
	switch e.provider {
	case "gemini":
		if e.projectID == "" {
			return nil, goerr.New("gemini-project is required for the gemini provider")
		}
		client, err := gemini.New(ctx, e.projectID, e.location)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	case "openai":
		if e.apiKey == "" {
			return nil, goerr.New("openai-api-key is required for the openai provider")
		}
		client, err := openai.New(ctx, e.apiKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	case "none", "":
		return nil, nil

	default:
		return nil, goerr.New("invalid embedding provider", goerr.V("provider", e.provider))
	}
}
