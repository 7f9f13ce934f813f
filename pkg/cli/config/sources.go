package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/finderslab/toolscout/pkg/domain/interfaces"
	"github.com/finderslab/toolscout/pkg/domain/types"
	"github.com/finderslab/toolscout/pkg/service/source"
)

// Sources holds CLI flags for source adapter configuration. Adapters are
// declared in a TOML file; the Notion token comes from its own flag so
// it never lands in a config file.
type Sources struct {
	path        string
	notionToken string
}

// SourceEntry is one [[source]] block in the config file
type SourceEntry struct {
	Kind       string `toml:"kind"` // "feed" or "notion"
	Tag        string `toml:"tag"`
	URL        string `toml:"url"`         // feed only
	DatabaseID string `toml:"database_id"` // notion only

	// Liveness filter for notion sources. Defaults to the Status
	// property equalling "Live"; status_type accepts "status" or
	// "select" to match the database's column type.
	StatusProperty string `toml:"status_property"`
	StatusValue    string `toml:"status_value"`
	StatusType     string `toml:"status_type"`
}

// Validate checks if the SourceEntry is valid
func (s *SourceEntry) Validate() error {
	if s.Tag == "" {
		return goerr.New("source tag is required", goerr.V("kind", s.Kind))
	}
	switch s.Kind {
	case "feed":
		if s.URL == "" {
			return goerr.New("feed source requires url", goerr.V("tag", s.Tag))
		}
	case "notion":
		if s.DatabaseID == "" {
			return goerr.New("notion source requires database_id", goerr.V("tag", s.Tag))
		}
		switch s.StatusType {
		case "", "status", "select":
		default:
			return goerr.New("invalid status_type, must be status or select",
				goerr.V("tag", s.Tag), goerr.V("status_type", s.StatusType))
		}
	default:
		return goerr.New("invalid source kind", goerr.V("kind", s.Kind), goerr.V("tag", s.Tag))
	}
	return nil
}

type sourcesFile struct {
	Sources []SourceEntry `toml:"source"`
}

// Flags returns CLI flags for source configuration
func (s *Sources) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sources",
			Usage:       "Path to TOML file declaring content sources",
			Sources:     cli.EnvVars("TOOLSCOUT_SOURCES"),
			Destination: &s.path,
		},
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token (required when a notion source is declared)",
			Sources:     cli.EnvVars("TOOLSCOUT_NOTION_API_TOKEN"),
			Destination: &s.notionToken,
		},
	}
}

// Configure loads the source file and builds one adapter per entry.
// An empty path yields no adapters; ingestion then fails its
// precondition check rather than silently doing nothing.
func (s *Sources) Configure() ([]interfaces.SourceAdapter, error) {
	if s.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read sources file",
			goerr.V("path", s.path), goerr.T(types.ErrTagConfig))
	}

	var file sourcesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse sources file",
			goerr.V("path", s.path), goerr.T(types.ErrTagConfig))
	}

	tags := make(map[string]bool)
	adapters := make([]interfaces.SourceAdapter, 0, len(file.Sources))
	for _, entry := range file.Sources {
		if err := entry.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid source entry", goerr.T(types.ErrTagConfig))
		}
		if tags[entry.Tag] {
			return nil, goerr.New("duplicate source tag",
				goerr.V("tag", entry.Tag), goerr.T(types.ErrTagConfig))
		}
		tags[entry.Tag] = true

		switch entry.Kind {
		case "feed":
			adapter, err := source.NewFeed(entry.Tag, entry.URL)
			if err != nil {
				return nil, err
			}
			adapters = append(adapters, adapter)

		case "notion":
			opts := []source.NotionOption{
				source.WithStatusFilter(entry.StatusProperty, entry.StatusValue),
			}
			if entry.StatusType == "select" {
				opts = append(opts, source.WithSelectStatus())
			}
			adapter, err := source.NewNotion(entry.Tag, s.notionToken, entry.DatabaseID, opts...)
			if err != nil {
				return nil, err
			}
			adapters = append(adapters, adapter)
		}
	}

	return adapters, nil
}
