package model

import (
	"time"

	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// Item is a public demo record without an owner
type Item struct {
	ID          types.ItemID
	Name        string
	Description *string // nil means no description
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
