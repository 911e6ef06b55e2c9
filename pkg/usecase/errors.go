package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors. Records owned by another principal are reported the
	// same way as missing ones.
	ErrItemNotFound       = errors.New("item not found")
	ErrAgentNotFound      = errors.New("AI agent not found or access denied")
	ErrMeetingNotFound    = errors.New("meeting not found or access denied")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrSummaryNotFound    = errors.New("summary not found")
	ErrUserNotFound       = errors.New("user not found")

	// Access control errors
	ErrUnauthenticated = errors.New("authentication required")

	// Input errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidChatRequest = errors.New("Message and agent instructions are required")

	// Configuration errors
	ErrUpstreamNotConfigured = errors.New("OpenRouter API key not configured")
	ErrLLMNotConfigured      = errors.New("LLM client not configured")
)

// Context keys for error values
const (
	ItemIDKey    = "item_id"
	AgentIDKey   = "agent_id"
	MeetingIDKey = "meeting_id"
	UserIDKey    = "user_id"
	ModelKey     = "model"
)
