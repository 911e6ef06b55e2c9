package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/utils/async"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

//go:embed prompt/meeting_summary.md
var meetingSummaryPromptTmpl string

var meetingSummaryPrompt = template.Must(template.New("meeting_summary").Parse(meetingSummaryPromptTmpl))

const summarizeTimeout = 2 * time.Minute

// meetingSummaryPromptData holds the values rendered into the summary prompt
type meetingSummaryPromptData struct {
	Instructions string
	MeetingName  string
	StartedAt    string
	Transcript   string
}

// MeetingUseCase manages meetings of the signed in user with their
// transcripts and summaries
type MeetingUseCase struct {
	repo      interfaces.Repository
	llmClient gollem.LLMClient
	now       func() time.Time
}

func NewMeetingUseCase(repo interfaces.Repository, llmClient gollem.LLMClient) *MeetingUseCase {
	return &MeetingUseCase{
		repo:      repo,
		llmClient: llmClient,
		now:       time.Now,
	}
}

// ListMeetings returns the caller's meetings, newest first. A non-empty
// agentID narrows the list to meetings held with that agent.
func (uc *MeetingUseCase) ListMeetings(ctx context.Context, agentID types.AgentID) ([]*model.Meeting, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if agentID == "" {
		meetings, err := uc.repo.Meeting().ListByUser(ctx, userID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list meetings", goerr.V(UserIDKey, userID))
		}
		return meetings, nil
	}

	if _, err := uc.ownedAgent(ctx, userID, agentID); err != nil {
		return nil, err
	}
	meetings, err := uc.repo.Meeting().ListByAgent(ctx, agentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list meetings", goerr.V(AgentIDKey, agentID))
	}
	return meetings, nil
}

func (uc *MeetingUseCase) GetMeeting(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return uc.ownedMeeting(ctx, userID, id)
}

// CreateMeetingInput describes a new meeting. An empty Status means pending.
type CreateMeetingInput struct {
	Name    string
	AgentID types.AgentID
	Status  types.MeetingStatus
}

func (uc *MeetingUseCase) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*model.Meeting, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "Meeting name is required")
	}
	status := input.Status.Normalize()
	if !status.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid meeting status", goerr.V("status", input.Status))
	}

	if _, err := uc.ownedAgent(ctx, userID, input.AgentID); err != nil {
		return nil, err
	}

	meeting := &model.Meeting{
		UserID:  userID,
		AgentID: input.AgentID,
		Name:    input.Name,
		Status:  status,
	}
	uc.stampStatus(meeting)

	created, err := uc.repo.Meeting().Create(ctx, meeting)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create meeting", goerr.V(AgentIDKey, input.AgentID))
	}
	return created, nil
}

// UpdateMeetingInput carries the fields to change. Nil fields are kept.
type UpdateMeetingInput struct {
	Name      *string
	Status    *types.MeetingStatus
	StartedAt *time.Time
	EndedAt   *time.Time
}

// UpdateMeeting applies the supplied fields. Moving to active or completed
// stamps StartedAt or EndedAt when they are unset.
func (uc *MeetingUseCase) UpdateMeeting(ctx context.Context, id types.MeetingID, input UpdateMeetingInput) (*model.Meeting, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "Meeting name is required", goerr.V(MeetingIDKey, id))
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, goerr.Wrap(ErrInvalidInput, "invalid meeting status",
			goerr.V(MeetingIDKey, id), goerr.V("status", *input.Status))
	}

	existing, err := uc.ownedMeeting(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	meeting := *existing
	if input.Name != nil {
		meeting.Name = *input.Name
	}
	if input.Status != nil {
		meeting.Status = *input.Status
	}
	if input.StartedAt != nil {
		meeting.StartedAt = input.StartedAt
	}
	if input.EndedAt != nil {
		meeting.EndedAt = input.EndedAt
	}
	uc.stampStatus(&meeting)

	updated, err := uc.repo.Meeting().Update(ctx, &meeting)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update meeting", goerr.V(MeetingIDKey, id))
	}

	if existing.Status != types.MeetingStatusCompleted && updated.Status == types.MeetingStatusCompleted {
		uc.summarizeAsync(ctx, id)
	}
	return updated, nil
}

// summarizeAsync writes the summary of a meeting that just completed. A
// meeting without transcript is skipped.
func (uc *MeetingUseCase) summarizeAsync(ctx context.Context, id types.MeetingID) {
	if uc.llmClient == nil {
		return
	}
	token, err := auth.TokenFromContext(ctx)
	if err != nil {
		return
	}

	async.Dispatch(ctx, "meeting.summarize", summarizeTimeout, func(ctx context.Context) error {
		_, err := uc.Summarize(auth.ContextWithToken(ctx, token), id)
		if errors.Is(err, ErrInvalidInput) {
			return nil
		}
		return err
	})
}

func (uc *MeetingUseCase) DeleteMeeting(ctx context.Context, id types.MeetingID) error {
	userID, err := principal(ctx)
	if err != nil {
		return err
	}

	if _, err := uc.ownedMeeting(ctx, userID, id); err != nil {
		return err
	}

	if err := uc.repo.Meeting().Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrMeetingNotFound, "meeting not found", goerr.V(MeetingIDKey, id))
		}
		return goerr.Wrap(err, "failed to delete meeting", goerr.V(MeetingIDKey, id))
	}
	return nil
}

// PutTranscript stores the transcript of the meeting, replacing an existing one
func (uc *MeetingUseCase) PutTranscript(ctx context.Context, id types.MeetingID, content string) (*model.Transcript, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(content) == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "Transcript content is required", goerr.V(MeetingIDKey, id))
	}
	if _, err := uc.ownedMeeting(ctx, userID, id); err != nil {
		return nil, err
	}

	transcript := &model.Transcript{
		ID:        types.NewTranscriptID(),
		MeetingID: id,
		Content:   content,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.Transcript().Put(ctx, transcript); err != nil {
		return nil, goerr.Wrap(err, "failed to store transcript", goerr.V(MeetingIDKey, id))
	}
	return transcript, nil
}

func (uc *MeetingUseCase) GetTranscript(ctx context.Context, id types.MeetingID) (*model.Transcript, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uc.ownedMeeting(ctx, userID, id); err != nil {
		return nil, err
	}
	return uc.getTranscript(ctx, id)
}

func (uc *MeetingUseCase) GetSummary(ctx context.Context, id types.MeetingID) (*model.Summary, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uc.ownedMeeting(ctx, userID, id); err != nil {
		return nil, err
	}

	summary, err := uc.repo.Summary().GetByMeeting(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrSummaryNotFound, "summary not found", goerr.V(MeetingIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get summary", goerr.V(MeetingIDKey, id))
	}
	return summary, nil
}

// Summarize generates a summary of the meeting transcript with the LLM and
// stores it, replacing an existing summary
func (uc *MeetingUseCase) Summarize(ctx context.Context, id types.MeetingID) (*model.Summary, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}

	if uc.llmClient == nil {
		return nil, goerr.Wrap(ErrLLMNotConfigured, "cannot summarize meeting", goerr.V(MeetingIDKey, id))
	}

	meeting, err := uc.ownedMeeting(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	transcript, err := uc.getTranscript(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTranscriptNotFound) {
			return nil, goerr.Wrap(ErrInvalidInput, "Meeting has no transcript", goerr.V(MeetingIDKey, id))
		}
		return nil, err
	}

	agent, err := uc.repo.Agent().Get(ctx, meeting.AgentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent of meeting",
			goerr.V(MeetingIDKey, id), goerr.V(AgentIDKey, meeting.AgentID))
	}

	prompt, err := buildMeetingSummaryPrompt(meeting, agent, transcript)
	if err != nil {
		return nil, err
	}

	session, err := uc.llmClient.NewSession(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session for meeting summary")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(prompt)})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate meeting summary", goerr.V(MeetingIDKey, id))
	}

	content := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if content == "" {
		return nil, goerr.New("meeting summary generation returned empty result", goerr.V(MeetingIDKey, id))
	}

	summary := &model.Summary{
		ID:        types.NewSummaryID(),
		MeetingID: id,
		Content:   content,
		CreatedAt: uc.now(),
	}
	if err := uc.repo.Summary().Put(ctx, summary); err != nil {
		return nil, goerr.Wrap(err, "failed to store summary", goerr.V(MeetingIDKey, id))
	}

	logging.From(ctx).Info("meeting summarized", "meeting_id", id, "length", len(content))
	return summary, nil
}

func buildMeetingSummaryPrompt(meeting *model.Meeting, agent *model.Agent, transcript *model.Transcript) (string, error) {
	data := meetingSummaryPromptData{
		Instructions: agent.Instructions,
		MeetingName:  meeting.Name,
		Transcript:   transcript.Content,
	}
	if meeting.StartedAt != nil {
		data.StartedAt = meeting.StartedAt.Format(time.RFC3339)
	}

	var buf bytes.Buffer
	if err := meetingSummaryPrompt.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute meeting summary prompt template")
	}
	return buf.String(), nil
}

func (uc *MeetingUseCase) stampStatus(m *model.Meeting) {
	now := uc.now()
	switch m.Status {
	case types.MeetingStatusActive:
		if m.StartedAt == nil {
			m.StartedAt = &now
		}
	case types.MeetingStatusCompleted:
		if m.StartedAt == nil {
			m.StartedAt = &now
		}
		if m.EndedAt == nil {
			m.EndedAt = &now
		}
	}
}

func (uc *MeetingUseCase) getTranscript(ctx context.Context, id types.MeetingID) (*model.Transcript, error) {
	transcript, err := uc.repo.Transcript().GetByMeeting(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrTranscriptNotFound, "transcript not found", goerr.V(MeetingIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V(MeetingIDKey, id))
	}
	return transcript, nil
}

func (uc *MeetingUseCase) ownedMeeting(ctx context.Context, userID types.UserID, id types.MeetingID) (*model.Meeting, error) {
	meeting, err := uc.repo.Meeting().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrMeetingNotFound, "meeting not found", goerr.V(MeetingIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get meeting", goerr.V(MeetingIDKey, id))
	}
	if !meeting.IsOwnedBy(userID) {
		return nil, goerr.Wrap(ErrMeetingNotFound, "meeting owned by another user",
			goerr.V(MeetingIDKey, id), goerr.V(UserIDKey, userID))
	}
	return meeting, nil
}

func (uc *MeetingUseCase) ownedAgent(ctx context.Context, userID types.UserID, id types.AgentID) (*model.Agent, error) {
	agent, err := uc.repo.Agent().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrAgentNotFound, "agent not found", goerr.V(AgentIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get agent", goerr.V(AgentIDKey, id))
	}
	if !agent.IsOwnedBy(userID) {
		return nil, goerr.Wrap(ErrAgentNotFound, "agent owned by another user", goerr.V(AgentIDKey, id))
	}
	return agent, nil
}
