package model

import (
	"time"

	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// Meeting is a session between a user and one of their agents
type Meeting struct {
	ID        types.MeetingID
	UserID    types.UserID
	AgentID   types.AgentID
	Name      string
	Status    types.MeetingStatus
	StartedAt *time.Time
	EndedAt   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy reports whether userID owns the meeting
func (m *Meeting) IsOwnedBy(userID types.UserID) bool {
	return m != nil && m.UserID == userID
}

// Transcript is the recorded text of a meeting. A meeting has at most one.
type Transcript struct {
	ID        types.TranscriptID
	MeetingID types.MeetingID
	Content   string
	CreatedAt time.Time
}

// Summary is the generated digest of a meeting. A meeting has at most one.
type Summary struct {
	ID        types.SummaryID
	MeetingID types.MeetingID
	Content   string
	CreatedAt time.Time
}
