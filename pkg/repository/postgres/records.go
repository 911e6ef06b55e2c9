package postgres

import (
	"time"

	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

func allRecords() []any {
	return []any{
		&userRecord{},
		&tokenRecord{},
		&itemRecord{},
		&agentRecord{},
		&meetingRecord{},
		&transcriptRecord{},
		&summaryRecord{},
	}
}

type userRecord struct {
	ID        string    `gorm:"primaryKey;size:255"`
	Email     string    `gorm:"size:320;index"`
	Name      string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

func (r *userRecord) toModel() *model.User {
	return &model.User{
		ID:        types.UserID(r.ID),
		Email:     r.Email,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type tokenRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Secret    string    `gorm:"size:128;not null"`
	Sub       string    `gorm:"size:255;not null;index"`
	Email     string    `gorm:"size:320"`
	Name      string    `gorm:"size:255"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (tokenRecord) TableName() string { return "sessions" }

func newTokenRecord(t *auth.Token) *tokenRecord {
	return &tokenRecord{
		ID:        t.ID.String(),
		Secret:    t.Secret.String(),
		Sub:       t.Sub,
		Email:     t.Email,
		Name:      t.Name,
		ExpiresAt: t.ExpiresAt,
		CreatedAt: t.CreatedAt,
	}
}

func (r *tokenRecord) toModel() *auth.Token {
	return &auth.Token{
		ID:        auth.TokenID(r.ID),
		Secret:    auth.TokenSecret(r.Secret),
		Sub:       r.Sub,
		Email:     r.Email,
		Name:      r.Name,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

type itemRecord struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:text;not null"`
	Description *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;index:idx_items_created_at,sort:desc"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (itemRecord) TableName() string { return "items" }

func newItemRecord(i *model.Item) *itemRecord {
	return &itemRecord{
		ID:          i.ID.String(),
		Name:        i.Name,
		Description: i.Description,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func (r *itemRecord) toModel() *model.Item {
	return &model.Item{
		ID:          types.ItemID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type agentRecord struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	UserID       string     `gorm:"size:255;not null;index:idx_agents_user_created,priority:1"`
	User         userRecord `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Name         string     `gorm:"type:text;not null"`
	Instructions string     `gorm:"type:text;not null"`
	CreatedAt    time.Time  `gorm:"not null;index:idx_agents_user_created,priority:2,sort:desc"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

func (agentRecord) TableName() string { return "agents" }

func newAgentRecord(a *model.Agent) *agentRecord {
	return &agentRecord{
		ID:           a.ID.String(),
		UserID:       a.UserID.String(),
		Name:         a.Name,
		Instructions: a.Instructions,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r *agentRecord) toModel() *model.Agent {
	return &model.Agent{
		ID:           types.AgentID(r.ID),
		UserID:       types.UserID(r.UserID),
		Name:         r.Name,
		Instructions: r.Instructions,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type meetingRecord struct {
	ID        string      `gorm:"type:uuid;primaryKey"`
	UserID    string      `gorm:"size:255;not null;index:idx_meetings_user_created,priority:1"`
	User      userRecord  `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	AgentID   string      `gorm:"type:uuid;not null;index"`
	Agent     agentRecord `gorm:"foreignKey:AgentID;references:ID;constraint:OnDelete:CASCADE"`
	Name      string      `gorm:"type:text;not null"`
	Status    string      `gorm:"size:16;not null;default:pending"`
	StartedAt *time.Time
	EndedAt   *time.Time
	CreatedAt time.Time `gorm:"not null;index:idx_meetings_user_created,priority:2,sort:desc"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (meetingRecord) TableName() string { return "meetings" }

func newMeetingRecord(m *model.Meeting) *meetingRecord {
	return &meetingRecord{
		ID:        m.ID.String(),
		UserID:    m.UserID.String(),
		AgentID:   m.AgentID.String(),
		Name:      m.Name,
		Status:    m.Status.Normalize().String(),
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *meetingRecord) toModel() *model.Meeting {
	return &model.Meeting{
		ID:        types.MeetingID(r.ID),
		UserID:    types.UserID(r.UserID),
		AgentID:   types.AgentID(r.AgentID),
		Name:      r.Name,
		Status:    types.MeetingStatus(r.Status),
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type transcriptRecord struct {
	ID        string        `gorm:"type:uuid;primaryKey"`
	MeetingID string        `gorm:"type:uuid;not null;uniqueIndex"`
	Meeting   meetingRecord `gorm:"foreignKey:MeetingID;references:ID;constraint:OnDelete:CASCADE"`
	Content   string        `gorm:"type:text;not null"`
	CreatedAt time.Time     `gorm:"not null"`
}

func (transcriptRecord) TableName() string { return "transcripts" }

func (r *transcriptRecord) toModel() *model.Transcript {
	return &model.Transcript{
		ID:        types.TranscriptID(r.ID),
		MeetingID: types.MeetingID(r.MeetingID),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}

type summaryRecord struct {
	ID        string        `gorm:"type:uuid;primaryKey"`
	MeetingID string        `gorm:"type:uuid;not null;uniqueIndex"`
	Meeting   meetingRecord `gorm:"foreignKey:MeetingID;references:ID;constraint:OnDelete:CASCADE"`
	Content   string        `gorm:"type:text;not null"`
	CreatedAt time.Time     `gorm:"not null"`
}

func (summaryRecord) TableName() string { return "summaries" }

func (r *summaryRecord) toModel() *model.Summary {
	return &model.Summary{
		ID:        types.SummaryID(r.ID),
		MeetingID: types.MeetingID(r.MeetingID),
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
}
