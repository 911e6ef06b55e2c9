package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type itemRepository struct {
	mu    sync.RWMutex
	items map[types.ItemID]*model.Item
}

func newItemRepository() *itemRepository {
	return &itemRepository{
		items: make(map[types.ItemID]*model.Item),
	}
}

// copyItem creates a deep copy of an item
func copyItem(i *model.Item) *model.Item {
	c := *i
	if i.Description != nil {
		desc := *i.Description
		c.Description = &desc
	}
	return &c
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyItem(item)
	if created.ID == "" {
		created.ID = types.NewItemID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.items[created.ID] = created
	return copyItem(created), nil
}

func (r *itemRepository) Get(ctx context.Context, id types.ItemID) (*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V("item_id", id))
	}
	return copyItem(item), nil
}

func (r *itemRepository) List(ctx context.Context) ([]*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*model.Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, copyItem(item))
	}
	sortNewestFirst(items,
		func(i *model.Item) time.Time { return i.CreatedAt },
		func(i *model.Item) string { return i.ID.String() },
	)
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V("item_id", item.ID))
	}

	updated := copyItem(item)
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.items[updated.ID] = updated
	return copyItem(updated), nil
}

func (r *itemRepository) Delete(ctx context.Context, id types.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return goerr.Wrap(ErrNotFound, "item not found", goerr.V("item_id", id))
	}
	delete(r.items, id)
	return nil
}
