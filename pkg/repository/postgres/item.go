package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	now := time.Now().UTC()
	rec := newItemRecord(item)
	if rec.ID == "" {
		rec.ID = types.NewItemID().String()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create item", goerr.V("item_id", rec.ID))
	}
	return rec.toModel(), nil
}

func (r *itemRepository) Get(ctx context.Context, id types.ItemID) (*model.Item, error) {
	var rec itemRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&rec).Error; err != nil {
		return nil, wrapErr(err, "failed to get item", goerr.V("item_id", id))
	}
	return rec.toModel(), nil
}

func (r *itemRepository) List(ctx context.Context) ([]*model.Item, error) {
	var recs []itemRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list items")
	}

	items := make([]*model.Item, 0, len(recs))
	for i := range recs {
		items = append(items, recs[i].toModel())
	}
	return items, nil
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item) (*model.Item, error) {
	res := r.db.WithContext(ctx).
		Model(&itemRecord{}).
		Where("id = ?", item.ID.String()).
		Updates(map[string]any{
			"name":        item.Name,
			"description": item.Description,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, goerr.Wrap(res.Error, "failed to update item", goerr.V("item_id", item.ID))
	}
	if res.RowsAffected == 0 {
		return nil, goerr.Wrap(ErrNotFound, "item not found", goerr.V("item_id", item.ID))
	}
	return r.Get(ctx, item.ID)
}

func (r *itemRepository) Delete(ctx context.Context, id types.ItemID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&itemRecord{})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to delete item", goerr.V("item_id", id))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "item not found", goerr.V("item_id", id))
	}
	return nil
}
