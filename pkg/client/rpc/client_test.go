package rpc_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	client "github.com/secmon-lab/agentdesk/pkg/client/rpc"
	server "github.com/secmon-lab/agentdesk/pkg/controller/http"
	"github.com/secmon-lab/agentdesk/pkg/controller/rpc"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	repo := memory.New()
	authUC := usecase.NewNoAuthnUseCase(repo, "dev", "dev@example.com", "Dev")
	uc := usecase.New(repo, usecase.WithAuth(authUC))
	ts := httptest.NewServer(server.New(rpc.New(uc), server.WithAuth(authUC)))
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestClient(t *testing.T) {
	c := client.New(newTestServer(t))
	ctx := context.Background()

	t.Run("hello", func(t *testing.T) {
		greeting, err := c.Hello(ctx, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, greeting).Equal("Hello World!")
	})

	t.Run("items", func(t *testing.T) {
		created, err := c.CreateItem(ctx, "Notebook", nil)
		gt.NoError(t, err).Required()

		items, err := c.ListItems(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, items).Length(1).Required()
		gt.Value(t, items[0].ID).Equal(created.ID)

		gt.NoError(t, c.DeleteItem(ctx, types.ItemID(created.ID))).Required()
	})

	t.Run("agents", func(t *testing.T) {
		created, err := c.CreateAgent(ctx, "Bot", "Be brief.")
		gt.NoError(t, err).Required()

		name := "Renamed"
		updated, err := c.UpdateAgent(ctx, types.AgentID(created.ID), &name, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Name).Equal("Renamed")
		gt.Value(t, updated.Instructions).Equal("Be brief.")

		got, err := c.GetAgent(ctx, types.AgentID(created.ID))
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Renamed")

		gt.NoError(t, c.DeleteAgent(ctx, types.AgentID(created.ID))).Required()

		_, err = c.GetAgent(ctx, types.AgentID(created.ID))
		var rpcErr *client.Error
		gt.Bool(t, errors.As(err, &rpcErr)).True()
		gt.Value(t, rpcErr.Code).Equal(rpc.CodeNotFound)
	})

	t.Run("validation error", func(t *testing.T) {
		_, err := c.CreateAgent(ctx, "", "x")
		var rpcErr *client.Error
		gt.Bool(t, errors.As(err, &rpcErr)).True()
		gt.Value(t, rpcErr.Code).Equal(rpc.CodeBadRequest)
	})

	t.Run("meetings", func(t *testing.T) {
		agent, err := c.CreateAgent(ctx, "Helpful Assistant", "Be polite.")
		gt.NoError(t, err).Required()
		agentID := types.AgentID(agent.ID)

		meeting, err := c.CreateMeeting(ctx, rpc.MeetingCreateInput{Name: "Weekly Sync", AgentID: agentID})
		gt.NoError(t, err).Required()
		gt.Value(t, meeting.Status).Equal("pending")
		meetingID := types.MeetingID(meeting.ID)

		status := types.MeetingStatusActive
		updated, err := c.UpdateMeeting(ctx, rpc.MeetingUpdateInput{ID: meetingID, Status: &status})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.StartedAt).NotNil()

		transcript, err := c.PutTranscript(ctx, meetingID, "Alice: hello")
		gt.NoError(t, err).Required()
		gt.Value(t, transcript.Content).Equal("Alice: hello")

		meetings, err := c.ListMeetings(ctx, agentID)
		gt.NoError(t, err).Required()
		gt.Array(t, meetings).Length(1)

		// no LLM is configured for this server
		_, err = c.Summarize(ctx, meetingID)
		var rpcErr *client.Error
		gt.Bool(t, errors.As(err, &rpcErr)).True()
		gt.Value(t, rpcErr.Code).Equal(rpc.CodeInternal)

		_, err = c.GetSummary(ctx, meetingID)
		gt.Bool(t, errors.As(err, &rpcErr)).True()
		gt.Value(t, rpcErr.Code).Equal(rpc.CodeNotFound)

		gt.NoError(t, c.DeleteMeeting(ctx, meetingID)).Required()
		meetings, err = c.ListMeetings(ctx, "")
		gt.NoError(t, err).Required()
		gt.Array(t, meetings).Length(0)
	})

	t.Run("models and me", func(t *testing.T) {
		models, err := c.ListModels(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, models).Length(3)

		me, err := c.Me(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, me.ID).Equal("dev")
	})
}
