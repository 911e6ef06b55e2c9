package interfaces

import (
	"context"

	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// AgentRepository defines the interface for Agent data access. Ownership is
// checked by the caller.
type AgentRepository interface {
	Create(ctx context.Context, agent *model.Agent) (*model.Agent, error)
	Get(ctx context.Context, id types.AgentID) (*model.Agent, error)

	// ListByUser returns the agents owned by userID, newest first
	ListByUser(ctx context.Context, userID types.UserID) ([]*model.Agent, error)

	Update(ctx context.Context, agent *model.Agent) (*model.Agent, error)
	Delete(ctx context.Context, id types.AgentID) error
}
