package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/controller/rpc"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
)

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *rpc.Error `json:"error"`
}

type client struct {
	t       *testing.T
	handler http.Handler
	token   *auth.Token
}

func newClient(t *testing.T, router *rpc.Router, sub string) *client {
	c := &client{t: t, handler: router}
	if sub != "" {
		c.token = auth.NewToken(sub, sub+"@example.com", sub)
	}
	return c
}

func (c *client) do(method, procedure string, input any) (int, *envelope) {
	c.t.Helper()

	target := "/api/trpc/" + procedure
	var body *bytes.Reader
	raw, err := json.Marshal(input)
	gt.NoError(c.t, err).Required()
	if method == http.MethodGet {
		if input != nil {
			target += "?input=" + url.QueryEscape(string(raw))
		}
		body = bytes.NewReader(nil)
	} else {
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	if c.token != nil {
		req = req.WithContext(auth.ContextWithToken(req.Context(), c.token))
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	gt.Value(c.t, w.Header().Get("Content-Type")).Equal("application/json")
	var env envelope
	gt.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env)).Required()
	return w.Code, &env
}

func (c *client) query(procedure string, input any, out any) *rpc.Error {
	c.t.Helper()
	return c.decode(c.do(http.MethodGet, procedure, input))(out)
}

func (c *client) mutate(procedure string, input any, out any) *rpc.Error {
	c.t.Helper()
	return c.decode(c.do(http.MethodPost, procedure, input))(out)
}

func (c *client) decode(status int, env *envelope) func(out any) *rpc.Error {
	return func(out any) *rpc.Error {
		if env.Error != nil {
			gt.Number(c.t, status).Equal(env.Error.HTTPStatus)
			return env.Error
		}
		gt.Number(c.t, status).Equal(http.StatusOK)
		if out != nil {
			gt.NoError(c.t, json.Unmarshal(env.Result.Data, out)).Required()
		}
		return nil
	}
}

func newRouter(t *testing.T) *rpc.Router {
	repo := memory.New()
	for _, sub := range []string{"alice", "bob"} {
		_, err := repo.User().Upsert(context.Background(), &model.User{ID: types.UserID(sub), Email: sub + "@example.com", Name: sub})
		gt.NoError(t, err).Required()
	}
	return rpc.New(usecase.New(repo))
}

func TestRouter_Hello(t *testing.T) {
	c := newClient(t, newRouter(t), "")

	var out rpc.Greeting
	gt.Value(t, c.query("hello", nil, &out)).Nil()
	gt.Value(t, out.Greeting).Equal("Hello World!")

	gt.Value(t, c.query("hello", map[string]string{"name": "Alice"}, &out)).Nil()
	gt.Value(t, out.Greeting).Equal("Hello Alice!")
}

func TestRouter_UnknownProcedure(t *testing.T) {
	c := newClient(t, newRouter(t), "")

	status, env := c.do(http.MethodGet, "nope.list", nil)
	gt.Number(t, status).Equal(http.StatusNotFound)
	gt.Value(t, env.Error.Code).Equal(rpc.CodeNotFound)
	gt.Value(t, env.Error.Path).Equal("nope.list")
}

func TestRouter_MutationRequiresPost(t *testing.T) {
	c := newClient(t, newRouter(t), "")

	status, env := c.do(http.MethodGet, "item.create", map[string]string{"name": "x"})
	gt.Number(t, status).Equal(http.StatusMethodNotAllowed)
	gt.Value(t, env.Error.Code).Equal(rpc.CodeMethodNotSupported)
}

func TestRouter_Items(t *testing.T) {
	c := newClient(t, newRouter(t), "")

	var created rpc.Item
	gt.Value(t, c.mutate("item.create", map[string]any{"name": "Notebook", "description": "A5"}, &created)).Nil()
	gt.Value(t, created.Name).Equal("Notebook")

	var items []rpc.Item
	gt.Value(t, c.query("item.list", nil, &items)).Nil()
	gt.Array(t, items).Length(1).Required()
	gt.Value(t, items[0].ID).Equal(created.ID)

	t.Run("update name keeps description", func(t *testing.T) {
		var updated rpc.Item
		gt.Value(t, c.mutate("item.update", map[string]any{"id": created.ID, "name": "Sketchbook"}, &updated)).Nil()
		gt.Value(t, updated.Name).Equal("Sketchbook")
		gt.Value(t, *updated.Description).Equal("A5")
	})

	t.Run("null description clears it", func(t *testing.T) {
		var updated rpc.Item
		gt.Value(t, c.mutate("item.update", map[string]any{"id": created.ID, "description": nil}, &updated)).Nil()
		gt.Value(t, updated.Description).Nil()
		gt.Value(t, updated.Name).Equal("Sketchbook")
	})

	t.Run("invalid input", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "item.create", "not an object")
		gt.Number(t, status).Equal(http.StatusBadRequest)
		gt.Value(t, env.Error.Code).Equal(rpc.CodeBadRequest)
	})

	t.Run("delete", func(t *testing.T) {
		var ok bool
		gt.Value(t, c.mutate("item.delete", map[string]any{"id": created.ID}, &ok)).Nil()
		gt.Bool(t, ok).True()

		gt.Value(t, c.query("item.list", nil, &items)).Nil()
		gt.Array(t, items).Length(0)

		e := c.mutate("item.delete", map[string]any{"id": created.ID}, nil)
		gt.Value(t, e).NotNil().Required()
		gt.Value(t, e.Code).Equal(rpc.CodeNotFound)
	})
}

func TestRouter_Agents(t *testing.T) {
	router := newRouter(t)
	alice := newClient(t, router, "alice")
	bob := newClient(t, router, "bob")
	anonymous := newClient(t, router, "")

	t.Run("protected procedures reject anonymous callers", func(t *testing.T) {
		e := anonymous.query("agent.list", nil, nil)
		gt.Value(t, e).NotNil().Required()
		gt.Value(t, e.Code).Equal(rpc.CodeUnauthorized)
		gt.Number(t, e.HTTPStatus).Equal(http.StatusUnauthorized)
	})

	var created rpc.Agent
	gt.Value(t, alice.mutate("agent.create", map[string]string{"name": "Bot", "instructions": "Be brief."}, &created)).Nil()
	gt.Value(t, created.UserID).Equal("alice")

	t.Run("validation message reaches the caller", func(t *testing.T) {
		e := alice.mutate("agent.create", map[string]string{"name": "", "instructions": "x"}, nil)
		gt.Value(t, e).NotNil().Required()
		gt.Value(t, e.Code).Equal(rpc.CodeBadRequest)
		gt.Value(t, e.Message).Equal("Agent name is required")
	})

	t.Run("list is owner scoped", func(t *testing.T) {
		var agents []rpc.Agent
		gt.Value(t, alice.query("agent.list", nil, &agents)).Nil()
		gt.Array(t, agents).Length(1)

		gt.Value(t, bob.query("agent.list", nil, &agents)).Nil()
		gt.Array(t, agents).Length(0)
	})

	t.Run("foreign agent is not found", func(t *testing.T) {
		for _, call := range []func() *rpc.Error{
			func() *rpc.Error { return bob.query("agent.getById", map[string]string{"id": created.ID}, nil) },
			func() *rpc.Error {
				return bob.mutate("agent.update", map[string]string{"id": created.ID, "name": "Mine"}, nil)
			},
			func() *rpc.Error { return bob.mutate("agent.delete", map[string]string{"id": created.ID}, nil) },
		} {
			e := call()
			gt.Value(t, e).NotNil().Required()
			gt.Value(t, e.Code).Equal(rpc.CodeNotFound)
			gt.Value(t, e.Message).Equal("AI agent not found or access denied")
		}

		var got rpc.Agent
		gt.Value(t, alice.query("agent.getById", map[string]string{"id": created.ID}, &got)).Nil()
		gt.Value(t, got.Name).Equal("Bot")
	})

	t.Run("update only supplied fields", func(t *testing.T) {
		var updated rpc.Agent
		gt.Value(t, alice.mutate("agent.update", map[string]string{"id": created.ID, "instructions": "Be verbose."}, &updated)).Nil()
		gt.Value(t, updated.Name).Equal("Bot")
		gt.Value(t, updated.Instructions).Equal("Be verbose.")
	})

	t.Run("delete", func(t *testing.T) {
		var ok bool
		gt.Value(t, alice.mutate("agent.delete", map[string]string{"id": created.ID}, &ok)).Nil()
		gt.Bool(t, ok).True()

		e := alice.query("agent.getById", map[string]string{"id": created.ID}, nil)
		gt.Value(t, e).NotNil().Required()
		gt.Value(t, e.Code).Equal(rpc.CodeNotFound)
	})
}

func TestRouter_Meetings(t *testing.T) {
	router := newRouter(t)
	alice := newClient(t, router, "alice")

	var agent rpc.Agent
	gt.Value(t, alice.mutate("agent.create", map[string]string{"name": "Bot", "instructions": "Be brief."}, &agent)).Nil()

	var meeting rpc.Meeting
	gt.Value(t, alice.mutate("meeting.create", map[string]string{"name": "Kickoff", "agentId": agent.ID}, &meeting)).Nil()
	gt.Value(t, meeting.Status).Equal("pending")

	var updated rpc.Meeting
	gt.Value(t, alice.mutate("meeting.update", map[string]string{"id": meeting.ID, "status": "completed"}, &updated)).Nil()
	gt.Value(t, updated.Status).Equal("completed")
	gt.Value(t, updated.EndedAt).NotNil()

	var transcript rpc.Transcript
	gt.Value(t, alice.mutate("meeting.putTranscript", map[string]string{"meetingId": meeting.ID, "content": "hello"}, &transcript)).Nil()
	gt.Value(t, alice.query("meeting.transcript", map[string]string{"meetingId": meeting.ID}, &transcript)).Nil()
	gt.Value(t, transcript.Content).Equal("hello")

	e := alice.query("meeting.summary", map[string]string{"meetingId": meeting.ID}, nil)
	gt.Value(t, e).NotNil().Required()
	gt.Value(t, e.Code).Equal(rpc.CodeNotFound)

	e = alice.mutate("meeting.summarize", map[string]string{"meetingId": meeting.ID}, nil)
	gt.Value(t, e).NotNil().Required()
	gt.Value(t, e.Code).Equal(rpc.CodeInternal)

	var meetings []rpc.Meeting
	gt.Value(t, alice.query("meeting.list", map[string]string{"agentId": agent.ID}, &meetings)).Nil()
	gt.Array(t, meetings).Length(1)

	var ok bool
	gt.Value(t, alice.mutate("meeting.delete", map[string]string{"id": meeting.ID}, &ok)).Nil()
	gt.Value(t, alice.query("meeting.list", nil, &meetings)).Nil()
	gt.Array(t, meetings).Length(0)
}

func TestRouter_ModelsAndUser(t *testing.T) {
	router := newRouter(t)

	var models []model.LLMModel
	gt.Value(t, newClient(t, router, "").query("model.list", nil, &models)).Nil()
	gt.Array(t, models).Length(3)

	var me rpc.User
	gt.Value(t, newClient(t, router, "alice").query("user.me", nil, &me)).Nil()
	gt.Value(t, me.ID).Equal("alice")
	gt.Value(t, me.Email).Equal("alice@example.com")
}

func TestRouter_Procedures(t *testing.T) {
	procs := newRouter(t).Procedures()

	gt.Value(t, procs["agent.getById"]).Equal(rpc.Query)
	gt.Value(t, procs["agent.create"]).Equal(rpc.Mutation)
	gt.Value(t, procs["meeting.summarize"]).Equal(rpc.Mutation)
}
