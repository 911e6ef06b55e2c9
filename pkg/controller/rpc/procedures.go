package rpc

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
)

const (
	public    = false
	protected = true
)

type HelloInput struct {
	Name *string `json:"name,omitempty"`
}

type ItemCreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// ItemUpdateInput distinguishes an absent description from an explicit
// null, which clears it
type ItemUpdateInput struct {
	ID               types.ItemID    `json:"id"`
	Name             *string         `json:"name,omitempty"`
	Description      json.RawMessage `json:"description,omitempty"`
	ClearDescription bool            `json:"clearDescription,omitempty"`
}

type IDInput[T ~string] struct {
	ID T `json:"id"`
}

type AgentCreateInput struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

type AgentUpdateInput struct {
	ID           types.AgentID `json:"id"`
	Name         *string       `json:"name,omitempty"`
	Instructions *string       `json:"instructions,omitempty"`
}

type MeetingListInput struct {
	AgentID types.AgentID `json:"agentId,omitempty"`
}

type MeetingCreateInput struct {
	Name    string              `json:"name"`
	AgentID types.AgentID       `json:"agentId"`
	Status  types.MeetingStatus `json:"status,omitempty"`
}

type MeetingUpdateInput struct {
	ID        types.MeetingID      `json:"id"`
	Name      *string              `json:"name,omitempty"`
	Status    *types.MeetingStatus `json:"status,omitempty"`
	StartedAt *string              `json:"startedAt,omitempty"`
	EndedAt   *string              `json:"endedAt,omitempty"`
}

type TranscriptPutInput struct {
	MeetingID types.MeetingID `json:"meetingId"`
	Content   string          `json:"content"`
}

type MeetingIDInput struct {
	MeetingID types.MeetingID `json:"meetingId"`
}

func (r *Router) register() {
	r.query("hello", public, handle(r.hello))

	r.query("item.list", public, handle(r.itemList))
	r.mutation("item.create", public, handle(r.itemCreate))
	r.mutation("item.update", public, handle(r.itemUpdate))
	r.mutation("item.delete", public, handle(r.itemDelete))

	r.query("agent.list", protected, handle(r.agentList))
	r.query("agent.getById", protected, handle(r.agentGet))
	r.mutation("agent.create", protected, handle(r.agentCreate))
	r.mutation("agent.update", protected, handle(r.agentUpdate))
	r.mutation("agent.delete", protected, handle(r.agentDelete))

	r.query("meeting.list", protected, handle(r.meetingList))
	r.query("meeting.get", protected, handle(r.meetingGet))
	r.mutation("meeting.create", protected, handle(r.meetingCreate))
	r.mutation("meeting.update", protected, handle(r.meetingUpdate))
	r.mutation("meeting.delete", protected, handle(r.meetingDelete))
	r.mutation("meeting.putTranscript", protected, handle(r.meetingPutTranscript))
	r.query("meeting.transcript", protected, handle(r.meetingTranscript))
	r.query("meeting.summary", protected, handle(r.meetingSummary))
	r.mutation("meeting.summarize", protected, handle(r.meetingSummarize))

	r.query("model.list", public, handle(r.modelList))
	r.query("user.me", protected, handle(r.userMe))
}

func (r *Router) hello(ctx context.Context, in HelloInput) (*Greeting, error) {
	name := "World"
	if in.Name != nil {
		name = *in.Name
	}
	return &Greeting{Greeting: "Hello " + name + "!"}, nil
}

func (r *Router) itemList(ctx context.Context, _ struct{}) ([]*Item, error) {
	items, err := r.uc.Item.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	return mapSlice(items, toItem), nil
}

func (r *Router) itemCreate(ctx context.Context, in ItemCreateInput) (*Item, error) {
	item, err := r.uc.Item.CreateItem(ctx, in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	return toItem(item), nil
}

func (r *Router) itemUpdate(ctx context.Context, in ItemUpdateInput) (*Item, error) {
	if err := in.ID.Validate(); err != nil {
		return nil, goerr.Wrap(errBadInput, "Invalid item id", goerr.V("error", err.Error()))
	}

	input := usecase.UpdateItemInput{
		Name:             in.Name,
		ClearDescription: in.ClearDescription,
	}
	switch {
	case len(in.Description) == 0:
	case string(in.Description) == "null":
		input.ClearDescription = true
	default:
		var desc string
		if err := json.Unmarshal(in.Description, &desc); err != nil {
			return nil, goerr.Wrap(errBadInput, "Invalid description", goerr.V("error", err.Error()))
		}
		input.Description = &desc
	}

	item, err := r.uc.Item.UpdateItem(ctx, in.ID, input)
	if err != nil {
		return nil, err
	}
	return toItem(item), nil
}

func (r *Router) itemDelete(ctx context.Context, in IDInput[types.ItemID]) (bool, error) {
	if err := in.ID.Validate(); err != nil {
		return false, goerr.Wrap(errBadInput, "Invalid item id", goerr.V("error", err.Error()))
	}
	if err := r.uc.Item.DeleteItem(ctx, in.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Router) agentList(ctx context.Context, _ struct{}) ([]*Agent, error) {
	agents, err := r.uc.Agent.ListAgents(ctx)
	if err != nil {
		return nil, err
	}
	return mapSlice(agents, toAgent), nil
}

func (r *Router) agentGet(ctx context.Context, in IDInput[types.AgentID]) (*Agent, error) {
	if err := in.ID.Validate(); err != nil {
		return nil, goerr.Wrap(usecase.ErrAgentNotFound, "malformed agent id", goerr.V("error", err.Error()))
	}
	agent, err := r.uc.Agent.GetAgent(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return toAgent(agent), nil
}

func (r *Router) agentCreate(ctx context.Context, in AgentCreateInput) (*Agent, error) {
	agent, err := r.uc.Agent.CreateAgent(ctx, in.Name, in.Instructions)
	if err != nil {
		return nil, err
	}
	return toAgent(agent), nil
}

func (r *Router) agentUpdate(ctx context.Context, in AgentUpdateInput) (*Agent, error) {
	if err := in.ID.Validate(); err != nil {
		return nil, goerr.Wrap(usecase.ErrAgentNotFound, "malformed agent id", goerr.V("error", err.Error()))
	}
	agent, err := r.uc.Agent.UpdateAgent(ctx, in.ID, in.Name, in.Instructions)
	if err != nil {
		return nil, err
	}
	return toAgent(agent), nil
}

func (r *Router) agentDelete(ctx context.Context, in IDInput[types.AgentID]) (bool, error) {
	if err := in.ID.Validate(); err != nil {
		return false, goerr.Wrap(usecase.ErrAgentNotFound, "malformed agent id", goerr.V("error", err.Error()))
	}
	if err := r.uc.Agent.DeleteAgent(ctx, in.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Router) meetingList(ctx context.Context, in MeetingListInput) ([]*Meeting, error) {
	if in.AgentID != "" {
		if err := in.AgentID.Validate(); err != nil {
			return nil, goerr.Wrap(usecase.ErrAgentNotFound, "malformed agent id", goerr.V("error", err.Error()))
		}
	}
	meetings, err := r.uc.Meeting.ListMeetings(ctx, in.AgentID)
	if err != nil {
		return nil, err
	}
	return mapSlice(meetings, toMeeting), nil
}

func (r *Router) meetingGet(ctx context.Context, in IDInput[types.MeetingID]) (*Meeting, error) {
	if err := validMeetingID(in.ID); err != nil {
		return nil, err
	}
	meeting, err := r.uc.Meeting.GetMeeting(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return toMeeting(meeting), nil
}

func (r *Router) meetingCreate(ctx context.Context, in MeetingCreateInput) (*Meeting, error) {
	if err := in.AgentID.Validate(); err != nil {
		return nil, goerr.Wrap(usecase.ErrAgentNotFound, "malformed agent id", goerr.V("error", err.Error()))
	}
	meeting, err := r.uc.Meeting.CreateMeeting(ctx, usecase.CreateMeetingInput{
		Name:    in.Name,
		AgentID: in.AgentID,
		Status:  in.Status,
	})
	if err != nil {
		return nil, err
	}
	return toMeeting(meeting), nil
}

func (r *Router) meetingUpdate(ctx context.Context, in MeetingUpdateInput) (*Meeting, error) {
	if err := validMeetingID(in.ID); err != nil {
		return nil, err
	}

	input := usecase.UpdateMeetingInput{
		Name:   in.Name,
		Status: in.Status,
	}
	var err error
	if input.StartedAt, err = parseTime(in.StartedAt); err != nil {
		return nil, err
	}
	if input.EndedAt, err = parseTime(in.EndedAt); err != nil {
		return nil, err
	}

	meeting, err := r.uc.Meeting.UpdateMeeting(ctx, in.ID, input)
	if err != nil {
		return nil, err
	}
	return toMeeting(meeting), nil
}

func (r *Router) meetingDelete(ctx context.Context, in IDInput[types.MeetingID]) (bool, error) {
	if err := validMeetingID(in.ID); err != nil {
		return false, err
	}
	if err := r.uc.Meeting.DeleteMeeting(ctx, in.ID); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Router) meetingPutTranscript(ctx context.Context, in TranscriptPutInput) (*Transcript, error) {
	if err := validMeetingID(in.MeetingID); err != nil {
		return nil, err
	}
	transcript, err := r.uc.Meeting.PutTranscript(ctx, in.MeetingID, in.Content)
	if err != nil {
		return nil, err
	}
	return toTranscript(transcript), nil
}

func (r *Router) meetingTranscript(ctx context.Context, in MeetingIDInput) (*Transcript, error) {
	if err := validMeetingID(in.MeetingID); err != nil {
		return nil, err
	}
	transcript, err := r.uc.Meeting.GetTranscript(ctx, in.MeetingID)
	if err != nil {
		return nil, err
	}
	return toTranscript(transcript), nil
}

func (r *Router) meetingSummary(ctx context.Context, in MeetingIDInput) (*Summary, error) {
	if err := validMeetingID(in.MeetingID); err != nil {
		return nil, err
	}
	summary, err := r.uc.Meeting.GetSummary(ctx, in.MeetingID)
	if err != nil {
		return nil, err
	}
	return toSummary(summary), nil
}

func (r *Router) meetingSummarize(ctx context.Context, in MeetingIDInput) (*Summary, error) {
	if err := validMeetingID(in.MeetingID); err != nil {
		return nil, err
	}
	summary, err := r.uc.Meeting.Summarize(ctx, in.MeetingID)
	if err != nil {
		return nil, err
	}
	return toSummary(summary), nil
}

func (r *Router) modelList(ctx context.Context, _ struct{}) ([]model.LLMModel, error) {
	return r.uc.Model.ListModels(ctx), nil
}

func (r *Router) userMe(ctx context.Context, _ struct{}) (*User, error) {
	user, err := r.uc.User.Me(ctx)
	if err != nil {
		return nil, err
	}
	return toUser(user), nil
}

// validMeetingID reports malformed ids as missing meetings
func validMeetingID(id types.MeetingID) error {
	if err := id.Validate(); err != nil {
		return goerr.Wrap(usecase.ErrMeetingNotFound, "malformed meeting id", goerr.V("error", err.Error()))
	}
	return nil
}
