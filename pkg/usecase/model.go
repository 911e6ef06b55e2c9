package usecase

import (
	"context"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

// ModelUseCase serves the catalog of selectable chat models
type ModelUseCase struct {
	lister   interfaces.ModelLister
	allowAll bool

	mu     sync.RWMutex
	models []model.LLMModel
}

// NewModelUseCase starts from catalog, or the default catalog when it is
// empty. allowAll lets Refresh adopt every upstream model instead of only
// those already in the catalog.
func NewModelUseCase(lister interfaces.ModelLister, catalog []model.LLMModel, allowAll bool) *ModelUseCase {
	if len(catalog) == 0 {
		catalog = model.DefaultLLMModels()
	}
	return &ModelUseCase{
		lister:   lister,
		allowAll: allowAll,
		models:   slices.Clone(catalog),
	}
}

// ListModels returns a snapshot of the catalog
func (uc *ModelUseCase) ListModels(ctx context.Context) []model.LLMModel {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return slices.Clone(uc.models)
}

// Refresh replaces the catalog with the upstream listing. Without allowAll
// only models already in the catalog are kept, with upstream names and
// descriptions. An empty result leaves the catalog unchanged.
func (uc *ModelUseCase) Refresh(ctx context.Context) error {
	if uc.lister == nil {
		return nil
	}

	upstream, err := uc.lister.ListModels(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list upstream models")
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	var next []model.LLMModel
	if uc.allowAll {
		next = upstream
	} else {
		byID := make(map[string]model.LLMModel, len(upstream))
		for _, m := range upstream {
			byID[m.ID] = m
		}
		for _, current := range uc.models {
			if m, ok := byID[current.ID]; ok {
				next = append(next, m)
			}
		}
	}

	if len(next) == 0 {
		logging.From(ctx).Warn("upstream model listing matched no catalog entry, keeping catalog",
			"upstream", len(upstream), "catalog", len(uc.models))
		return nil
	}

	uc.models = next
	logging.From(ctx).Info("model catalog refreshed", "models", len(next))
	return nil
}
