package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

type meetingRepository struct {
	mu         sync.RWMutex
	meetings   map[types.MeetingID]*model.Meeting
	transcript *transcriptRepository
	summary    *summaryRepository
}

func newMeetingRepository(transcript *transcriptRepository, summary *summaryRepository) *meetingRepository {
	return &meetingRepository{
		meetings:   make(map[types.MeetingID]*model.Meeting),
		transcript: transcript,
		summary:    summary,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// copyMeeting creates a deep copy of a meeting
func copyMeeting(m *model.Meeting) *model.Meeting {
	c := *m
	c.StartedAt = copyTime(m.StartedAt)
	c.EndedAt = copyTime(m.EndedAt)
	return &c
}

func (r *meetingRepository) Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyMeeting(meeting)
	if created.ID == "" {
		created.ID = types.NewMeetingID()
	}
	created.Status = created.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.meetings[created.ID] = created
	return copyMeeting(created), nil
}

func (r *meetingRepository) Get(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meeting, ok := r.meetings[id]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "meeting not found", goerr.V("meeting_id", id))
	}
	return copyMeeting(meeting), nil
}

func (r *meetingRepository) list(match func(*model.Meeting) bool) []*model.Meeting {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meetings := make([]*model.Meeting, 0)
	for _, meeting := range r.meetings {
		if match(meeting) {
			meetings = append(meetings, copyMeeting(meeting))
		}
	}
	sortNewestFirst(meetings,
		func(m *model.Meeting) time.Time { return m.CreatedAt },
		func(m *model.Meeting) string { return m.ID.String() },
	)
	return meetings
}

func (r *meetingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error) {
	return r.list(func(m *model.Meeting) bool { return m.UserID == userID }), nil
}

func (r *meetingRepository) ListByAgent(ctx context.Context, agentID types.AgentID) ([]*model.Meeting, error) {
	return r.list(func(m *model.Meeting) bool { return m.AgentID == agentID }), nil
}

func (r *meetingRepository) Update(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.meetings[meeting.ID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "meeting not found", goerr.V("meeting_id", meeting.ID))
	}

	updated := copyMeeting(meeting)
	updated.UserID = existing.UserID
	updated.Status = updated.Status.Normalize()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.meetings[updated.ID] = updated
	return copyMeeting(updated), nil
}

func (r *meetingRepository) Delete(ctx context.Context, id types.MeetingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.meetings[id]; !ok {
		return goerr.Wrap(ErrNotFound, "meeting not found", goerr.V("meeting_id", id))
	}
	delete(r.meetings, id)
	r.transcript.deleteByMeeting(id)
	r.summary.deleteByMeeting(id)
	return nil
}

type transcriptRepository struct {
	mu          sync.RWMutex
	transcripts map[types.MeetingID]*model.Transcript
}

func newTranscriptRepository() *transcriptRepository {
	return &transcriptRepository{
		transcripts: make(map[types.MeetingID]*model.Transcript),
	}
}

func (r *transcriptRepository) Put(ctx context.Context, transcript *model.Transcript) error {
	if err := transcript.MeetingID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid transcript")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *transcript
	if saved.ID == "" {
		saved.ID = types.NewTranscriptID()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	r.transcripts[saved.MeetingID] = &saved
	return nil
}

func (r *transcriptRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Transcript, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transcript, ok := r.transcripts[meetingID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "transcript not found", goerr.V("meeting_id", meetingID))
	}
	found := *transcript
	return &found, nil
}

func (r *transcriptRepository) deleteByMeeting(meetingID types.MeetingID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transcripts, meetingID)
}

type summaryRepository struct {
	mu        sync.RWMutex
	summaries map[types.MeetingID]*model.Summary
}

func newSummaryRepository() *summaryRepository {
	return &summaryRepository{
		summaries: make(map[types.MeetingID]*model.Summary),
	}
}

func (r *summaryRepository) Put(ctx context.Context, summary *model.Summary) error {
	if err := summary.MeetingID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid summary")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := *summary
	if saved.ID == "" {
		saved.ID = types.NewSummaryID()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}
	r.summaries[saved.MeetingID] = &saved
	return nil
}

func (r *summaryRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary, ok := r.summaries[meetingID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "summary not found", goerr.V("meeting_id", meetingID))
	}
	found := *summary
	return &found, nil
}

func (r *summaryRepository) deleteByMeeting(meetingID types.MeetingID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.summaries, meetingID)
}
