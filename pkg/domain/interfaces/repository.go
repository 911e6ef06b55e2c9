package interfaces

import (
	"context"

	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
)

// Repository defines the interface for data persistence
type Repository interface {
	User() UserRepository
	Item() ItemRepository
	Agent() AgentRepository
	Meeting() MeetingRepository
	Transcript() TranscriptRepository
	Summary() SummaryRepository

	// Auth methods
	PutToken(ctx context.Context, token *auth.Token) error
	GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error)
	DeleteToken(ctx context.Context, tokenID auth.TokenID) error

	Close() error
}
