package types

import "github.com/m-mizutani/goerr/v2"

// MeetingStatus represents the lifecycle state of a meeting
type MeetingStatus string

const (
	MeetingStatusPending   MeetingStatus = "pending"
	MeetingStatusActive    MeetingStatus = "active"
	MeetingStatusCompleted MeetingStatus = "completed"
	MeetingStatusCancelled MeetingStatus = "cancelled"
)

// AllMeetingStatuses returns all valid meeting statuses
func AllMeetingStatuses() []MeetingStatus {
	return []MeetingStatus{
		MeetingStatusPending,
		MeetingStatusActive,
		MeetingStatusCompleted,
		MeetingStatusCancelled,
	}
}

// IsValid checks if the meeting status is valid
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusPending,
		MeetingStatusActive,
		MeetingStatusCompleted,
		MeetingStatusCancelled:
		return true
	default:
		return false
	}
}

// Normalize treats empty as MeetingStatusPending
func (s MeetingStatus) Normalize() MeetingStatus {
	if s == "" {
		return MeetingStatusPending
	}
	return s
}

func (s MeetingStatus) String() string {
	return string(s)
}

// ParseMeetingStatus parses a string into a MeetingStatus
func ParseMeetingStatus(s string) (MeetingStatus, error) {
	status := MeetingStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid meeting status", goerr.V("status", s))
	}
	return status, nil
}
