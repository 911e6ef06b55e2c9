package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

func runMeetingRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Run("Create defaults status to pending", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		alice := newUser(t, repo)
		agent := newAgent(t, repo, alice, "Helpful Assistant")

		created, err := repo.Meeting().Create(ctx, &model.Meeting{
			UserID:  alice.ID,
			AgentID: agent.ID,
			Name:    "Weekly Sync",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.Status).Equal(types.MeetingStatusPending)

		byUser, err := repo.Meeting().ListByUser(ctx, alice.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, byUser).Length(1)

		byAgent, err := repo.Meeting().ListByAgent(ctx, agent.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, byAgent).Length(1)
	})

	t.Run("Update changes status and times", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		alice := newUser(t, repo)
		agent := newAgent(t, repo, alice, "Helpful Assistant")
		created, err := repo.Meeting().Create(ctx, &model.Meeting{UserID: alice.ID, AgentID: agent.ID, Name: "Kickoff"})
		gt.NoError(t, err).Required()

		started := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
		ended := started.Add(30 * time.Minute)
		created.Status = types.MeetingStatusCompleted
		created.StartedAt = &started
		created.EndedAt = &ended

		updated, err := repo.Meeting().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Status).Equal(types.MeetingStatusCompleted)
		gt.Value(t, updated.StartedAt).NotNil()
		gt.Bool(t, updated.StartedAt.Equal(started)).True()
		gt.Bool(t, updated.EndedAt.Equal(ended)).True()
	})

	t.Run("Transcript and summary are one per meeting", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		alice := newUser(t, repo)
		agent := newAgent(t, repo, alice, "Helpful Assistant")
		meeting, err := repo.Meeting().Create(ctx, &model.Meeting{UserID: alice.ID, AgentID: agent.ID, Name: "Kickoff"})
		gt.NoError(t, err).Required()

		_, err = repo.Transcript().GetByMeeting(ctx, meeting.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()

		gt.NoError(t, repo.Transcript().Put(ctx, &model.Transcript{MeetingID: meeting.ID, Content: "first"})).Required()
		gt.NoError(t, repo.Transcript().Put(ctx, &model.Transcript{MeetingID: meeting.ID, Content: "second"})).Required()

		transcript, err := repo.Transcript().GetByMeeting(ctx, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, transcript.Content).Equal("second")

		gt.NoError(t, repo.Summary().Put(ctx, &model.Summary{MeetingID: meeting.ID, Content: "summary"})).Required()
		summary, err := repo.Summary().GetByMeeting(ctx, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, summary.Content).Equal("summary")
	})

	t.Run("Delete removes transcript and summary", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		alice := newUser(t, repo)
		agent := newAgent(t, repo, alice, "Helpful Assistant")
		meeting, err := repo.Meeting().Create(ctx, &model.Meeting{UserID: alice.ID, AgentID: agent.ID, Name: "Kickoff"})
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Transcript().Put(ctx, &model.Transcript{MeetingID: meeting.ID, Content: "text"})).Required()
		gt.NoError(t, repo.Summary().Put(ctx, &model.Summary{MeetingID: meeting.ID, Content: "sum"})).Required()

		gt.NoError(t, repo.Meeting().Delete(ctx, meeting.ID)).Required()

		_, err = repo.Meeting().Get(ctx, meeting.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
		_, err = repo.Transcript().GetByMeeting(ctx, meeting.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
		_, err = repo.Summary().GetByMeeting(ctx, meeting.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()

		err = repo.Meeting().Delete(ctx, meeting.ID)
		gt.Bool(t, errors.Is(err, interfaces.ErrNotFound)).True()
	})
}

func TestMeetingRepository(t *testing.T) {
	runWithFactories(t, runMeetingRepositoryTest)
}
