package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

// AgentUseCase manages the agents of the signed in user
type AgentUseCase struct {
	repo interfaces.Repository
}

func NewAgentUseCase(repo interfaces.Repository) *AgentUseCase {
	return &AgentUseCase{repo: repo}
}

// ListAgents returns the caller's agents, newest first
func (uc *AgentUseCase) ListAgents(ctx context.Context) ([]*model.Agent, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	agents, err := uc.repo.Agent().ListByUser(ctx, userID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agents", goerr.V(UserIDKey, userID))
	}
	return agents, nil
}

// GetAgent returns the agent when the caller owns it. Missing and foreign
// agents both yield ErrAgentNotFound.
func (uc *AgentUseCase) GetAgent(ctx context.Context, id types.AgentID) (*model.Agent, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return uc.getOwnedAgent(ctx, userID, id)
}

func (uc *AgentUseCase) CreateAgent(ctx context.Context, name, instructions string) (*model.Agent, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(name) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "Agent name is required")
	}
	if strings.TrimSpace(instructions) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "Agent instructions are required")
	}

	created, err := uc.repo.Agent().Create(ctx, &model.Agent{
		UserID:       userID,
		Name:         name,
		Instructions: instructions,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create agent", goerr.V(UserIDKey, userID))
	}

	logging.From(ctx).Info("agent created", "agent_id", created.ID, "user_id", userID)
	return created, nil
}

// UpdateAgent changes only the supplied fields. A supplied field must not be
// empty.
func (uc *AgentUseCase) UpdateAgent(ctx context.Context, id types.AgentID, name, instructions *string) (*model.Agent, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "Agent name is required", goerr.V(AgentIDKey, id))
	}
	if instructions != nil && strings.TrimSpace(*instructions) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "Agent instructions are required", goerr.V(AgentIDKey, id))
	}

	existing, err := uc.getOwnedAgent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	agent := &model.Agent{
		ID:           existing.ID,
		UserID:       existing.UserID,
		Name:         existing.Name,
		Instructions: existing.Instructions,
		CreatedAt:    existing.CreatedAt,
	}
	if name != nil {
		agent.Name = *name
	}
	if instructions != nil {
		agent.Instructions = *instructions
	}

	updated, err := uc.repo.Agent().Update(ctx, agent)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update agent", goerr.V(AgentIDKey, id))
	}
	return updated, nil
}

// DeleteAgent removes the agent and the meetings held with it
func (uc *AgentUseCase) DeleteAgent(ctx context.Context, id types.AgentID) error {
	userID, err := principal(ctx)
	if err != nil {
		return err
	}

	if _, err := uc.getOwnedAgent(ctx, userID, id); err != nil {
		return err
	}

	meetings, err := uc.repo.Meeting().ListByAgent(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list meetings of agent", goerr.V(AgentIDKey, id))
	}
	for _, m := range meetings {
		if err := uc.repo.Meeting().Delete(ctx, m.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(err, "failed to delete meeting of agent",
				goerr.V(AgentIDKey, id), goerr.V(MeetingIDKey, m.ID))
		}
	}

	if err := uc.repo.Agent().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrAgentNotFound, "agent not found", goerr.V(AgentIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete agent", goerr.V(AgentIDKey, id))
	}

	logging.From(ctx).Info("agent deleted", "agent_id", id, "user_id", userID, "meetings", len(meetings))
	return nil
}

func (uc *AgentUseCase) getOwnedAgent(ctx context.Context, userID types.UserID, id types.AgentID) (*model.Agent, error) {
	agent, err := uc.repo.Agent().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrAgentNotFound, "agent not found", goerr.V(AgentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get agent", goerr.V(AgentIDKey, id))
	}

	if !agent.IsOwnedBy(userID) {
		return nil, goerr.Wrap(ErrAgentNotFound, "agent owned by another user",
			goerr.V(AgentIDKey, id), goerr.V(UserIDKey, userID))
	}
	return agent, nil
}
