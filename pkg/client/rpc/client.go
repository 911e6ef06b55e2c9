// Package rpc is a typed client of the /api/trpc procedures
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/controller/rpc"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/utils/safe"
)

// Error is the failure answered by a procedure
type Error = rpc.Error

type Client struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBearerToken authenticates calls with a provider issued JWT
func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.header.Set("Authorization", "Bearer "+token)
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *rpc.Error `json:"error"`
}

// Query calls a query procedure. input may be nil.
func (c *Client) Query(ctx context.Context, procedure string, input, out any) error {
	target := c.baseURL + "/api/trpc/" + procedure
	if input != nil {
		raw, err := json.Marshal(input)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal input", goerr.V("procedure", procedure))
		}
		target += "?input=" + url.QueryEscape(string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("procedure", procedure))
	}
	return c.do(req, procedure, out)
}

// Mutate calls a mutation procedure
func (c *Client) Mutate(ctx context.Context, procedure string, input, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal input", goerr.V("procedure", procedure))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/trpc/"+procedure, bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("procedure", procedure))
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, procedure, out)
}

func (c *Client) do(req *http.Request, procedure string, out any) error {
	for k, v := range c.header {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call procedure", goerr.V("procedure", procedure))
	}
	defer safe.Close(req.Context(), resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerr.Wrap(err, "failed to read response", goerr.V("procedure", procedure))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return goerr.Wrap(err, "unexpected response",
			goerr.V("procedure", procedure), goerr.V("status", resp.StatusCode))
	}
	if env.Error != nil {
		return env.Error
	}
	if env.Result == nil {
		return goerr.New("response has no result", goerr.V("procedure", procedure))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result.Data, out); err != nil {
		return goerr.Wrap(err, "failed to decode result", goerr.V("procedure", procedure))
	}
	return nil
}

func (c *Client) Hello(ctx context.Context, name *string) (string, error) {
	var out rpc.Greeting
	if err := c.Query(ctx, "hello", rpc.HelloInput{Name: name}, &out); err != nil {
		return "", err
	}
	return out.Greeting, nil
}

func (c *Client) ListItems(ctx context.Context) ([]*rpc.Item, error) {
	var out []*rpc.Item
	if err := c.Query(ctx, "item.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateItem(ctx context.Context, name string, description *string) (*rpc.Item, error) {
	var out rpc.Item
	if err := c.Mutate(ctx, "item.create", rpc.ItemCreateInput{Name: name, Description: description}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteItem(ctx context.Context, id types.ItemID) error {
	return c.Mutate(ctx, "item.delete", rpc.IDInput[types.ItemID]{ID: id}, nil)
}

func (c *Client) ListAgents(ctx context.Context) ([]*rpc.Agent, error) {
	var out []*rpc.Agent
	if err := c.Query(ctx, "agent.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAgent(ctx context.Context, id types.AgentID) (*rpc.Agent, error) {
	var out rpc.Agent
	if err := c.Query(ctx, "agent.getById", rpc.IDInput[types.AgentID]{ID: id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateAgent(ctx context.Context, name, instructions string) (*rpc.Agent, error) {
	var out rpc.Agent
	if err := c.Mutate(ctx, "agent.create", rpc.AgentCreateInput{Name: name, Instructions: instructions}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateAgent(ctx context.Context, id types.AgentID, name, instructions *string) (*rpc.Agent, error) {
	var out rpc.Agent
	input := rpc.AgentUpdateInput{ID: id, Name: name, Instructions: instructions}
	if err := c.Mutate(ctx, "agent.update", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAgent(ctx context.Context, id types.AgentID) error {
	return c.Mutate(ctx, "agent.delete", rpc.IDInput[types.AgentID]{ID: id}, nil)
}

func (c *Client) ListModels(ctx context.Context) ([]model.LLMModel, error) {
	var out []model.LLMModel
	if err := c.Query(ctx, "model.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Me(ctx context.Context) (*rpc.User, error) {
	var out rpc.User
	if err := c.Query(ctx, "user.me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMeetings returns the caller's meetings. An empty agentID lists all.
func (c *Client) ListMeetings(ctx context.Context, agentID types.AgentID) ([]*rpc.Meeting, error) {
	var out []*rpc.Meeting
	if err := c.Query(ctx, "meeting.list", rpc.MeetingListInput{AgentID: agentID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateMeeting(ctx context.Context, input rpc.MeetingCreateInput) (*rpc.Meeting, error) {
	var out rpc.Meeting
	if err := c.Mutate(ctx, "meeting.create", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMeeting(ctx context.Context, input rpc.MeetingUpdateInput) (*rpc.Meeting, error) {
	var out rpc.Meeting
	if err := c.Mutate(ctx, "meeting.update", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMeeting(ctx context.Context, id types.MeetingID) error {
	return c.Mutate(ctx, "meeting.delete", rpc.IDInput[types.MeetingID]{ID: id}, nil)
}

func (c *Client) PutTranscript(ctx context.Context, meetingID types.MeetingID, content string) (*rpc.Transcript, error) {
	var out rpc.Transcript
	input := rpc.TranscriptPutInput{MeetingID: meetingID, Content: content}
	if err := c.Mutate(ctx, "meeting.putTranscript", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSummary(ctx context.Context, meetingID types.MeetingID) (*rpc.Summary, error) {
	var out rpc.Summary
	if err := c.Query(ctx, "meeting.summary", rpc.MeetingIDInput{MeetingID: meetingID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summarize generates the meeting summary now
func (c *Client) Summarize(ctx context.Context, meetingID types.MeetingID) (*rpc.Summary, error) {
	var out rpc.Summary
	if err := c.Mutate(ctx, "meeting.summarize", rpc.MeetingIDInput{MeetingID: meetingID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
