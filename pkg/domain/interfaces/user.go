package interfaces

import (
	"context"

	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// UserRepository defines the interface for User data access
type UserRepository interface {
	// Upsert creates the user or refreshes email and name. CreatedAt of an
	// existing user is preserved.
	Upsert(ctx context.Context, user *model.User) (*model.User, error)

	// Get retrieves a user by ID
	Get(ctx context.Context, id types.UserID) (*model.User, error)
}
