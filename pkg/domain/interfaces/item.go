package interfaces

import (
	"context"

	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// ItemRepository defines the interface for Item data access
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) (*model.Item, error)
	Get(ctx context.Context, id types.ItemID) (*model.Item, error)

	// List returns all items, newest first
	List(ctx context.Context) ([]*model.Item, error)

	Update(ctx context.Context, item *model.Item) (*model.Item, error)
	Delete(ctx context.Context, id types.ItemID) error
}
