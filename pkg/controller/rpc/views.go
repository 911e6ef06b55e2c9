package rpc

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
)

// Item is the wire form of model.Item
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Agent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Meeting struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	AgentID   string     `json:"agentId"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Transcript struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meetingId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Summary struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meetingId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Greeting struct {
	Greeting string `json:"greeting"`
}

func toItem(i *model.Item) *Item {
	return &Item{
		ID:          i.ID.String(),
		Name:        i.Name,
		Description: i.Description,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func toAgent(a *model.Agent) *Agent {
	return &Agent{
		ID:           a.ID.String(),
		UserID:       string(a.UserID),
		Name:         a.Name,
		Instructions: a.Instructions,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toMeeting(m *model.Meeting) *Meeting {
	return &Meeting{
		ID:        m.ID.String(),
		UserID:    string(m.UserID),
		AgentID:   m.AgentID.String(),
		Name:      m.Name,
		Status:    m.Status.String(),
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toTranscript(t *model.Transcript) *Transcript {
	return &Transcript{
		ID:        t.ID.String(),
		MeetingID: t.MeetingID.String(),
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
	}
}

func toSummary(s *model.Summary) *Summary {
	return &Summary{
		ID:        s.ID.String(),
		MeetingID: s.MeetingID.String(),
		Content:   s.Content,
		CreatedAt: s.CreatedAt,
	}
}

func toUser(u *model.User) *User {
	return &User{
		ID:        string(u.ID),
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

func mapSlice[T, V any](src []T, fn func(T) V) []V {
	out := make([]V, len(src))
	for i, v := range src {
		out[i] = fn(v)
	}
	return out
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, goerr.Wrap(errBadInput, "Invalid timestamp", goerr.V("value", *s))
	}
	return &t, nil
}
