package model

import (
	"time"

	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// User is a principal known to the platform. It is created or refreshed
// when the principal signs in.
type User struct {
	ID        types.UserID
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
