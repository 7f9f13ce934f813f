package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/finderslab/toolscout/pkg/domain/model"
)

// Latest lists the most recently launched tools in the catalog.
func (uc *UseCases) Latest(ctx context.Context, limit int) ([]*model.Tool, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	tools, err := uc.repo.Latest(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list latest tools", goerr.V("limit", limit))
	}
	return tools, nil
}
