package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type agentRepository struct {
	mu     sync.RWMutex
	agents map[types.AgentID]*model.Agent
}

func newAgentRepository() *agentRepository {
	return &agentRepository{
		agents: make(map[types.AgentID]*model.Agent),
	}
}

func copyAgent(a *model.Agent) *model.Agent {
	c := *a
	return &c
}

func (r *agentRepository) Create(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyAgent(agent)
	if created.ID == "" {
		created.ID = types.NewAgentID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.agents[created.ID] = created
	return copyAgent(created), nil
}

func (r *agentRepository) Get(ctx context.Context, id types.AgentID) (*model.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
	}
	return copyAgent(agent), nil
}

func (r *agentRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := make([]*model.Agent, 0)
	for _, agent := range r.agents {
		if agent.UserID == userID {
			agents = append(agents, copyAgent(agent))
		}
	}
	sortNewestFirst(agents,
		func(a *model.Agent) time.Time { return a.CreatedAt },
		func(a *model.Agent) string { return a.ID.String() },
	)
	return agents, nil
}

func (r *agentRepository) Update(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.agents[agent.ID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", agent.ID))
	}

	updated := copyAgent(agent)
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.agents[updated.ID] = updated
	return copyAgent(updated), nil
}

func (r *agentRepository) Delete(ctx context.Context, id types.AgentID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[id]; !ok {
		return goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
	}
	delete(r.agents, id)
	return nil
}
