package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/repository/firestore"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
	"github.com/secmon-lab/agentdesk/pkg/repository/postgres"
)

type repoFactory struct {
	name    string
	newRepo func(t *testing.T) interfaces.Repository
}

// factories returns every backend available in the environment. Memory is
// always tested; Firestore and Postgres need TEST_FIRESTORE_PROJECT_ID and
// TEST_POSTGRES_DSN.
func factories(t *testing.T) []repoFactory {
	t.Helper()

	list := []repoFactory{
		{
			name: "Memory",
			newRepo: func(t *testing.T) interfaces.Repository {
				return memory.New()
			},
		},
	}

	if projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID"); projectID != "" {
		databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
		list = append(list, repoFactory{
			name: "Firestore",
			newRepo: func(t *testing.T) interfaces.Repository {
				ctx := context.Background()
				prefix := "test_" + uuid.NewString()[:8]
				repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
				gt.NoError(t, err).Required()
				t.Cleanup(func() {
					gt.NoError(t, repo.Close())
				})
				return repo
			},
		})
	}

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		list = append(list, repoFactory{
			name: "Postgres",
			newRepo: func(t *testing.T) interfaces.Repository {
				ctx := context.Background()
				repo, err := postgres.New(ctx, dsn)
				gt.NoError(t, err).Required()
				gt.NoError(t, repo.Migrate(ctx)).Required()
				t.Cleanup(func() {
					gt.NoError(t, repo.Close())
				})
				return repo
			},
		})
	}

	return list
}

func runWithFactories(t *testing.T, run func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository)) {
	for _, f := range factories(t) {
		t.Run(f.name, func(t *testing.T) {
			run(t, f.newRepo)
		})
	}
}

// newUser stores a user with a unique ID so that rows owned by it can be
// created on backends enforcing foreign keys
func newUser(t *testing.T, repo interfaces.Repository) *model.User {
	t.Helper()
	id := uuid.NewString()
	user, err := repo.User().Upsert(context.Background(), &model.User{
		ID:    types.UserID("test|" + id),
		Email: id + "@example.com",
		Name:  "Test User",
	})
	gt.NoError(t, err).Required()
	return user
}

func newAgent(t *testing.T, repo interfaces.Repository, owner *model.User, name string) *model.Agent {
	t.Helper()
	agent, err := repo.Agent().Create(context.Background(), &model.Agent{
		UserID:       owner.ID,
		Name:         name,
		Instructions: "Be helpful",
	})
	gt.NoError(t, err).Required()
	return agent
}
