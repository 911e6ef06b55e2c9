package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// ItemUseCase manages the public demo items. No principal is required.
type ItemUseCase struct {
	repo interfaces.Repository
}

func NewItemUseCase(repo interfaces.Repository) *ItemUseCase {
	return &ItemUseCase{repo: repo}
}

// ListItems returns every item, newest first
func (uc *ItemUseCase) ListItems(ctx context.Context) ([]*model.Item, error) {
	items, err := uc.repo.Item().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list items")
	}
	return items, nil
}

func (uc *ItemUseCase) CreateItem(ctx context.Context, name string, description *string) (*model.Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "item name is required")
	}

	created, err := uc.repo.Item().Create(ctx, &model.Item{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create item")
	}
	return created, nil
}

// UpdateItemInput carries the fields to change. A nil or empty Name keeps
// the current name. Description replaces the current one when non-nil;
// ClearDescription sets it to null.
type UpdateItemInput struct {
	Name             *string
	Description      *string
	ClearDescription bool
}

func (uc *ItemUseCase) UpdateItem(ctx context.Context, id types.ItemID, input UpdateItemInput) (*model.Item, error) {
	existing, err := uc.getItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item := &model.Item{
		ID:          existing.ID,
		Name:        existing.Name,
		Description: existing.Description,
		CreatedAt:   existing.CreatedAt,
	}

	if input.Name != nil && *input.Name != "" {
		item.Name = *input.Name
	}
	if input.Description != nil {
		desc := *input.Description
		item.Description = &desc
	}
	if input.ClearDescription {
		item.Description = nil
	}

	updated, err := uc.repo.Item().Update(ctx, item)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrItemNotFound, "item not found", goerr.V(ItemIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to update item", goerr.V(ItemIDKey, id))
	}
	return updated, nil
}

func (uc *ItemUseCase) DeleteItem(ctx context.Context, id types.ItemID) error {
	if err := uc.repo.Item().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrItemNotFound, "item not found", goerr.V(ItemIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete item", goerr.V(ItemIDKey, id))
	}
	return nil
}

func (uc *ItemUseCase) getItem(ctx context.Context, id types.ItemID) (*model.Item, error) {
	item, err := uc.repo.Item().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrItemNotFound, "item not found", goerr.V(ItemIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get item", goerr.V(ItemIDKey, id))
	}
	return item, nil
}
