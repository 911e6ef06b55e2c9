package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/cli/config"
)

func TestRepository_Configure(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "", "").Configure(t.Context())
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Close())
	})

	t.Run("postgres requires database url", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendPostgres, "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("firestore requires project id", func(t *testing.T) {
		_, err := config.NewRepositoryForTest(config.BackendFirestore, "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := config.NewRepositoryForTest("mysql", "", "").Configure(t.Context())
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}
