package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type agentRepository struct {
	client *firestore.Client
	col    collections
}

func (r *agentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.col.name(CollectionAgents))
}

func (r *agentRepository) Create(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	now := time.Now().UTC()
	created := *agent
	if created.ID == "" {
		created.ID = types.NewAgentID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, &created); err != nil {
		return nil, goerr.Wrap(err, "failed to create agent", goerr.V("agent_id", created.ID))
	}
	return &created, nil
}

func (r *agentRepository) Get(ctx context.Context, id types.AgentID) (*model.Agent, error) {
	return getDoc[model.Agent](ctx, r.collection().Doc(id.String()), "agent")
}

// ListByUser requires the (UserID ASC, CreatedAt DESC) index created by migrate
func (r *agentRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Agent, error) {
	q := r.collection().
		Where("UserID", "==", userID.String()).
		OrderBy("CreatedAt", firestore.Desc)
	return queryDocs[model.Agent](ctx, q, "agents")
}

func (r *agentRepository) Update(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	docRef := r.collection().Doc(agent.ID.String())
	existing, err := getDoc[model.Agent](ctx, docRef, "agent")
	if err != nil {
		return nil, err
	}

	updated := *agent
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	if _, err := docRef.Set(ctx, &updated); err != nil {
		return nil, goerr.Wrap(err, "failed to update agent", goerr.V("agent_id", agent.ID))
	}
	return &updated, nil
}

func (r *agentRepository) Delete(ctx context.Context, id types.AgentID) error {
	docRef := r.collection().Doc(id.String())
	if err := existDoc(ctx, docRef, "agent"); err != nil {
		return err
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete agent", goerr.V("agent_id", id))
	}
	return nil
}
