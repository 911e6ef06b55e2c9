package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// UserID identifies a principal. It is the subject claim issued by the
// identity provider.
type UserID string

func (x UserID) String() string { return string(x) }

// Validate checks the ID is present
func (x UserID) Validate() error {
	if x == "" {
		return goerr.New("user ID cannot be empty")
	}
	return nil
}

// ItemID identifies an Item record
type ItemID string

func NewItemID() ItemID { return ItemID(newUUID()) }
func (x ItemID) String() string { return string(x) }
func (x ItemID) Validate() error { return validateUUID("item", string(x)) }

// AgentID identifies an Agent record
type AgentID string

func NewAgentID() AgentID { return AgentID(newUUID()) }
func (x AgentID) String() string { return string(x) }
func (x AgentID) Validate() error { return validateUUID("agent", string(x)) }

// MeetingID identifies a Meeting record
type MeetingID string

func NewMeetingID() MeetingID { return MeetingID(newUUID()) }
func (x MeetingID) String() string { return string(x) }
func (x MeetingID) Validate() error { return validateUUID("meeting", string(x)) }

// TranscriptID identifies a Transcript record
type TranscriptID string

func NewTranscriptID() TranscriptID { return TranscriptID(newUUID()) }
func (x TranscriptID) String() string { return string(x) }

// SummaryID identifies a Summary record
type SummaryID string

func NewSummaryID() SummaryID { return SummaryID(newUUID()) }
func (x SummaryID) String() string { return string(x) }

func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func validateUUID(kind, id string) error {
	if id == "" {
		return goerr.New(kind+" ID cannot be empty", goerr.V("kind", kind))
	}
	if _, err := uuid.Parse(id); err != nil {
		return goerr.Wrap(err, kind+" ID must be a UUID", goerr.V("id", id))
	}
	return nil
}
