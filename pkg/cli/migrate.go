package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/cli/config"
	"github.com/secmon-lab/agentdesk/pkg/repository/firestore"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := append(repoCfg.Flags(), &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Preview changes without applying (firestore only)",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate PostgreSQL schema or Firestore indexes",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Migrate configuration",
				"repository", repoCfg,
				"dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendPostgres:
				return migratePostgres(ctx, &repoCfg, dryRun)
			case config.BackendFirestore:
				return migrateFirestore(ctx, &repoCfg, dryRun)
			default:
				return goerr.Wrap(config.ErrInvalidConfig, "backend has nothing to migrate",
					goerr.V(config.BackendKey, repoCfg.Backend()))
			}
		},
	}
}

func migratePostgres(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()
	if dryRun {
		logger.Warn("Dry run is not supported for postgres, nothing applied")
		return nil
	}

	repo, err := repoCfg.Postgres(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close postgres", "error", err.Error())
		}
	}()

	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("PostgreSQL schema migrated")
	return nil
}

func migrateFirestore(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()
	if repoCfg.ProjectID() == "" {
		return goerr.Wrap(config.ErrMissingOption, "firestore-project-id is required")
	}

	client, err := fireconf.New(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), getIndexConfig(),
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		if err := client.Migrate(ctx); err != nil {
			return goerr.Wrap(err, "failed to preview migrations")
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

// getIndexConfig returns the composite indexes used by the owner and agent
// listings
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionAgents,
				Indexes: []fireconf.Index{
					// ListByUser: UserID ASC, CreatedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "UserID", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: firestore.CollectionMeetings,
				Indexes: []fireconf.Index{
					// ListByUser: UserID ASC, CreatedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "UserID", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderDescending},
						},
					},
					// ListByAgent: AgentID ASC, CreatedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "AgentID", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
