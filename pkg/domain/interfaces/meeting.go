package interfaces

import (
	"context"

	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// MeetingRepository defines the interface for Meeting data access
type MeetingRepository interface {
	Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error)
	Get(ctx context.Context, id types.MeetingID) (*model.Meeting, error)

	// ListByUser returns the meetings owned by userID, newest first
	ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error)

	// ListByAgent returns the meetings held with agentID, newest first
	ListByAgent(ctx context.Context, agentID types.AgentID) ([]*model.Meeting, error)

	Update(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error)

	// Delete removes the meeting with its transcript and summary
	Delete(ctx context.Context, id types.MeetingID) error
}

// TranscriptRepository stores at most one transcript per meeting
type TranscriptRepository interface {
	// Put creates or replaces the transcript of transcript.MeetingID
	Put(ctx context.Context, transcript *model.Transcript) error
	GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Transcript, error)
}

// SummaryRepository stores at most one summary per meeting
type SummaryRepository interface {
	// Put creates or replaces the summary of summary.MeetingID
	Put(ctx context.Context, summary *model.Summary) error
	GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Summary, error)
}
