package types

// Sender is the author of a chat message
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Role returns the chat completion role for the sender
func (s Sender) Role() string {
	if s == SenderAI {
		return "assistant"
	}
	return "user"
}
