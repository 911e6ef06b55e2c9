package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
)

func TestAgentUseCase_CreateAgent(t *testing.T) {
	t.Run("create agent owned by caller", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewAgentUseCase(repo)
		ctx := signIn(t, repo, "alice")

		created, err := uc.CreateAgent(ctx, "Helpful Assistant", "Be helpful.")
		gt.NoError(t, err).Required()

		gt.Value(t, created.UserID).Equal(types.UserID("alice"))
		gt.Value(t, created.Name).Equal("Helpful Assistant")
		gt.Value(t, created.Instructions).Equal("Be helpful.")
	})

	t.Run("missing fields fail before persisting", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewAgentUseCase(repo)
		ctx := signIn(t, repo, "alice")

		_, err := uc.CreateAgent(ctx, "", "Be helpful.")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
		_, err = uc.CreateAgent(ctx, "Bot", "")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)

		agents, err := uc.ListAgents(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, agents).Length(0)
	})

	t.Run("anonymous caller is rejected", func(t *testing.T) {
		uc := usecase.NewAgentUseCase(memory.New())

		_, err := uc.CreateAgent(context.Background(), "Bot", "Be brief.")
		gt.Error(t, err).Is(usecase.ErrUnauthenticated)
	})
}

func TestAgentUseCase_ListAgents(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewAgentUseCase(repo)
	alice := signIn(t, repo, "alice")
	bob := signIn(t, repo, "bob")

	first, err := uc.CreateAgent(alice, "First", "one")
	gt.NoError(t, err).Required()
	second, err := uc.CreateAgent(alice, "Second", "two")
	gt.NoError(t, err).Required()
	_, err = uc.CreateAgent(bob, "Bob's", "three")
	gt.NoError(t, err).Required()

	agents, err := uc.ListAgents(alice)
	gt.NoError(t, err).Required()
	gt.Array(t, agents).Length(2).Required()
	gt.Value(t, agents[0].ID).Equal(second.ID)
	gt.Value(t, agents[1].ID).Equal(first.ID)
}

func TestAgentUseCase_UpdateAgent(t *testing.T) {
	t.Run("update instructions only", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewAgentUseCase(repo)
		ctx := signIn(t, repo, "alice")

		created, err := uc.CreateAgent(ctx, "Bot", "Be brief.")
		gt.NoError(t, err).Required()

		updated, err := uc.UpdateAgent(ctx, created.ID, nil, ptr("Be verbose."))
		gt.NoError(t, err).Required()

		gt.Value(t, updated.Name).Equal("Bot")
		gt.Value(t, updated.Instructions).Equal("Be verbose.")
		gt.Value(t, updated.UserID).Equal(types.UserID("alice"))
	})

	t.Run("empty supplied field fails", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewAgentUseCase(repo)
		ctx := signIn(t, repo, "alice")

		created, err := uc.CreateAgent(ctx, "Bot", "Be brief.")
		gt.NoError(t, err).Required()

		_, err = uc.UpdateAgent(ctx, created.ID, ptr(""), nil)
		gt.Error(t, err).Is(usecase.ErrInvalidInput)

		got, err := uc.GetAgent(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Bot")
	})

	t.Run("foreign agent is not found and unchanged", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewAgentUseCase(repo)
		alice := signIn(t, repo, "alice")
		bob := signIn(t, repo, "bob")

		created, err := uc.CreateAgent(alice, "Bot", "Be brief.")
		gt.NoError(t, err).Required()

		_, err = uc.UpdateAgent(bob, created.ID, ptr("Hijacked"), nil)
		gt.Error(t, err).Is(usecase.ErrAgentNotFound)

		got, err := uc.GetAgent(alice, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Bot")
	})
}

func TestAgentUseCase_DeleteAgent(t *testing.T) {
	t.Run("delete removes meetings of the agent", func(t *testing.T) {
		repo := memory.New()
		agentUC := usecase.NewAgentUseCase(repo)
		meetingUC := usecase.NewMeetingUseCase(repo, nil)
		ctx := signIn(t, repo, "alice")

		agent, err := agentUC.CreateAgent(ctx, "Bot", "Be brief.")
		gt.NoError(t, err).Required()
		meeting, err := meetingUC.CreateMeeting(ctx, usecase.CreateMeetingInput{Name: "Sync", AgentID: agent.ID})
		gt.NoError(t, err).Required()

		gt.NoError(t, agentUC.DeleteAgent(ctx, agent.ID)).Required()

		_, err = agentUC.GetAgent(ctx, agent.ID)
		gt.Error(t, err).Is(usecase.ErrAgentNotFound)
		_, err = meetingUC.GetMeeting(ctx, meeting.ID)
		gt.Error(t, err).Is(usecase.ErrMeetingNotFound)
	})

	t.Run("foreign agent cannot be deleted", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewAgentUseCase(repo)
		alice := signIn(t, repo, "alice")
		bob := signIn(t, repo, "bob")

		created, err := uc.CreateAgent(alice, "Bot", "Be brief.")
		gt.NoError(t, err).Required()

		err = uc.DeleteAgent(bob, created.ID)
		gt.Error(t, err).Is(usecase.ErrAgentNotFound)

		_, err = uc.GetAgent(alice, created.ID)
		gt.NoError(t, err)
	})
}
