package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type agentRepository struct {
	db *gorm.DB
}

func (r *agentRepository) Create(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	now := time.Now().UTC()
	rec := newAgentRecord(agent)
	if rec.ID == "" {
		rec.ID = types.NewAgentID().String()
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rec).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create agent", goerr.V("agent_id", rec.ID))
	}
	return rec.toModel(), nil
}

func (r *agentRepository) Get(ctx context.Context, id types.AgentID) (*model.Agent, error) {
	var rec agentRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id.String()).Take(&rec).Error; err != nil {
		return nil, wrapErr(err, "failed to get agent", goerr.V("agent_id", id))
	}
	return rec.toModel(), nil
}

func (r *agentRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Agent, error) {
	var recs []agentRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("created_at DESC, id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agents", goerr.V("user_id", userID))
	}

	agents := make([]*model.Agent, 0, len(recs))
	for i := range recs {
		agents = append(agents, recs[i].toModel())
	}
	return agents, nil
}

func (r *agentRepository) Update(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	res := r.db.WithContext(ctx).
		Model(&agentRecord{}).
		Where("id = ?", agent.ID.String()).
		Updates(map[string]any{
			"name":         agent.Name,
			"instructions": agent.Instructions,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, goerr.Wrap(res.Error, "failed to update agent", goerr.V("agent_id", agent.ID))
	}
	if res.RowsAffected == 0 {
		return nil, goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", agent.ID))
	}
	return r.Get(ctx, agent.ID)
}

// Delete removes the agent. Meetings held with it are removed by the
// cascading foreign key.
func (r *agentRepository) Delete(ctx context.Context, id types.AgentID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&agentRecord{})
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to delete agent", goerr.V("agent_id", id))
	}
	if res.RowsAffected == 0 {
		return goerr.Wrap(ErrNotFound, "agent not found", goerr.V("agent_id", id))
	}
	return nil
}
