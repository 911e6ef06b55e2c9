package memory

import (
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
)

// ErrNotFound is returned (wrapped) when a record does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps every record in process memory. It is meant for local
// development and tests.
type Memory struct {
	user       *userRepository
	item       *itemRepository
	agent      *agentRepository
	meeting    *meetingRepository
	transcript *transcriptRepository
	summary    *summaryRepository
	tokens     *tokenStore
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	transcriptRepo := newTranscriptRepository()
	summaryRepo := newSummaryRepository()

	return &Memory{
		user:       newUserRepository(),
		item:       newItemRepository(),
		agent:      newAgentRepository(),
		meeting:    newMeetingRepository(transcriptRepo, summaryRepo),
		transcript: transcriptRepo,
		summary:    summaryRepo,
		tokens:     newTokenStore(),
	}
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Item() interfaces.ItemRepository {
	return m.item
}

func (m *Memory) Agent() interfaces.AgentRepository {
	return m.agent
}

func (m *Memory) Meeting() interfaces.MeetingRepository {
	return m.meeting
}

func (m *Memory) Transcript() interfaces.TranscriptRepository {
	return m.transcript
}

func (m *Memory) Summary() interfaces.SummaryRepository {
	return m.summary
}

func (m *Memory) Close() error {
	return nil
}
