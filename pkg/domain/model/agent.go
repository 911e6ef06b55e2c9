package model

import (
	"time"

	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// Agent is a named instruction text that seeds the system prompt of a chat
type Agent struct {
	ID           types.AgentID
	UserID       types.UserID // owner
	Name         string
	Instructions string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOwnedBy reports whether userID owns the agent
func (a *Agent) IsOwnedBy(userID types.UserID) bool {
	return a != nil && a.UserID == userID
}
