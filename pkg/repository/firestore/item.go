package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type itemRepository struct {
	client *firestore.Client
	col    collections
}

func (r *itemRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.col.name(CollectionItems))
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	now := time.Now().UTC()
	created := *item
	if created.ID == "" {
		created.ID = types.NewItemID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, &created); err != nil {
		return nil, goerr.Wrap(err, "failed to create item", goerr.V("item_id", created.ID))
	}
	return &created, nil
}

func (r *itemRepository) Get(ctx context.Context, id types.ItemID) (*model.Item, error) {
	return getDoc[model.Item](ctx, r.collection().Doc(id.String()), "item")
}

func (r *itemRepository) List(ctx context.Context) ([]*model.Item, error) {
	return queryDocs[model.Item](ctx, r.collection().OrderBy("CreatedAt", firestore.Desc), "items")
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item) (*model.Item, error) {
	docRef := r.collection().Doc(item.ID.String())
	existing, err := getDoc[model.Item](ctx, docRef, "item")
	if err != nil {
		return nil, err
	}

	updated := *item
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, &updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update item", goerr.V("item_id", item.ID))
	}
	return &updated, nil
}

func (r *itemRepository) Delete(ctx context.Context, id types.ItemID) error {
	docRef := r.collection().Doc(id.String())
	if err := existDoc(ctx, docRef, "item"); err != nil {
		return err
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete item", goerr.V("item_id", id))
	}
	return nil
}
