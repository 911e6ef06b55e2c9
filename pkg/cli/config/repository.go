package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/repository/firestore"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
	"github.com/secmon-lab/agentdesk/pkg/repository/postgres"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend     string
	databaseURL string
	projectID   string
	databaseID  string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (postgres, firestore or memory)",
			Category:    "Repository",
			Value:       BackendPostgres,
			Sources:     cli.EnvVars("AGENTDESK_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "database-url",
			Usage:       "PostgreSQL connection URL (required when using postgres backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("AGENTDESK_DATABASE_URL", "DATABASE_URL"),
			Destination: &r.databaseURL,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("AGENTDESK_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Value:       "(default)",
			Sources:     cli.EnvVars("AGENTDESK_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.Int("database-url.len", len(r.databaseURL)),
		slog.String("firestore-project-id", r.projectID),
		slog.String("firestore-database-id", r.databaseID),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendPostgres:
		repo, err := r.Postgres(ctx)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingOption, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}

// Postgres connects to the configured PostgreSQL database
func (r *Repository) Postgres(ctx context.Context) (*postgres.Postgres, error) {
	if r.databaseURL == "" {
		return nil, goerr.Wrap(ErrMissingOption, "database-url is required when using postgres backend")
	}

	repo, err := postgres.New(ctx, r.databaseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize postgres repository")
	}
	logging.Default().Info("Using PostgreSQL repository")
	return repo, nil
}
