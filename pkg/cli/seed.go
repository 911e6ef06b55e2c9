package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/cli/config"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdSeed() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:  "seed",
		Usage: "Create sample users, agents and meetings. Sign in with --no-auth=alice or --no-auth=bob to see them",
		Flags: repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			logging.Default().Info("Start seeding")
			if err := seed(ctx, repo, time.Now().UTC()); err != nil {
				return err
			}
			logging.Default().Info("Seeding finished")
			return nil
		},
	}
}

type seedMeeting struct {
	name       string
	status     types.MeetingStatus
	startedAt  *time.Time
	endedAt    *time.Time
	transcript string
	summary    string
}

type seedSet struct {
	user    model.User
	agent   model.Agent
	meeting seedMeeting
}

func seedSets(now time.Time) []seedSet {
	startedAt := now.Add(-2 * time.Hour)
	endedAt := now.Add(-1 * time.Hour)

	return []seedSet{
		{
			user: model.User{ID: "alice", Email: "alice@example.com", Name: "Alice"},
			agent: model.Agent{
				Name:         "Helpful Assistant",
				Instructions: "You are a helpful assistant. Be concise and polite.",
			},
			meeting: seedMeeting{
				name:       "Project Kickoff",
				status:     types.MeetingStatusCompleted,
				startedAt:  &startedAt,
				endedAt:    &endedAt,
				transcript: "Alice: Hello Bob, welcome to the kickoff meeting. Bob: Thanks Alice! ...",
				summary:    "The meeting was a project kickoff. Alice welcomed Bob. They discussed project goals.",
			},
		},
		{
			user: model.User{ID: "bob", Email: "bob@example.com", Name: "Bob"},
			agent: model.Agent{
				Name:         "Sarcastic Bot",
				Instructions: "You are a sarcastic bot. Make jokes and be slightly unhelpful.",
			},
			meeting: seedMeeting{
				name:   "Weekly Sync",
				status: types.MeetingStatusPending,
			},
		},
	}
}

// seed writes each user's records in its own goroutine
func seed(ctx context.Context, repo interfaces.Repository, now time.Time) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, set := range seedSets(now) {
		eg.Go(func() error {
			return seedOne(ctx, repo, set)
		})
	}
	return eg.Wait()
}

func seedOne(ctx context.Context, repo interfaces.Repository, set seedSet) error {
	logger := logging.From(ctx)

	user, err := repo.User().Upsert(ctx, &set.user)
	if err != nil {
		return goerr.Wrap(err, "failed to seed user", goerr.V("user_id", set.user.ID))
	}

	set.agent.UserID = user.ID
	agent, err := repo.Agent().Create(ctx, &set.agent)
	if err != nil {
		return goerr.Wrap(err, "failed to seed agent", goerr.V("user_id", user.ID))
	}

	meeting, err := repo.Meeting().Create(ctx, &model.Meeting{
		UserID:    user.ID,
		AgentID:   agent.ID,
		Name:      set.meeting.name,
		Status:    set.meeting.status,
		StartedAt: set.meeting.startedAt,
		EndedAt:   set.meeting.endedAt,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to seed meeting", goerr.V("agent_id", agent.ID))
	}

	if set.meeting.transcript != "" {
		if err := repo.Transcript().Put(ctx, &model.Transcript{
			MeetingID: meeting.ID,
			Content:   set.meeting.transcript,
		}); err != nil {
			return goerr.Wrap(err, "failed to seed transcript", goerr.V("meeting_id", meeting.ID))
		}
	}

	if set.meeting.summary != "" {
		if err := repo.Summary().Put(ctx, &model.Summary{
			MeetingID: meeting.ID,
			Content:   set.meeting.summary,
		}); err != nil {
			return goerr.Wrap(err, "failed to seed summary", goerr.V("meeting_id", meeting.ID))
		}
	}

	logger.Info("Seeded",
		"user", user.Email,
		"agent", agent.Name,
		"meeting", meeting.Name)
	return nil
}
