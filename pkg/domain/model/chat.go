package model

import (
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

// DefaultChatModel is used when a chat request names no model
const DefaultChatModel = "deepseek/deepseek-r1-0528:free"

// ChatTurn is one earlier message of a conversation
type ChatTurn struct {
	Sender types.Sender `json:"sender"`
	Text   string       `json:"text"`
}

// ChatRequest is what a client asks the relay to forward
type ChatRequest struct {
	Message           string        `json:"message"`
	History           []ChatTurn    `json:"history,omitempty"`
	AgentInstructions string        `json:"agentInstructions"`
	AgentID           types.AgentID `json:"agentId,omitempty"`
	Model             string        `json:"model,omitempty"`
}

// ChatMessage is a role tagged message sent to the completion API
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is a normalized upstream completion request
type Completion struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// ChatEventType distinguishes relay events
type ChatEventType int

const (
	ChatEventContent ChatEventType = iota + 1
	ChatEventDone
)

// ChatEvent is one unit of relay output: a text fragment or the end mark
type ChatEvent struct {
	Type    ChatEventType
	Content string
}

// LLMModel is an entry of the selectable chat model catalog
type LLMModel struct {
	ID          string `json:"id" toml:"id"`
	Name        string `json:"name" toml:"name"`
	Description string `json:"description" toml:"description"`
	Free        bool   `json:"free" toml:"free"`
}

// DefaultLLMModels is the catalog offered before any refresh from upstream
func DefaultLLMModels() []LLMModel {
	return []LLMModel{
		{ID: "deepseek/deepseek-r1-0528:free", Name: "DeepSeek: R1 0528", Description: "Reasoning model, free tier", Free: true},
		{ID: "meta-llama/llama-3.1-8b-instruct:free", Name: "Llama 3.1 8B", Description: "Small instruction tuned model, free tier", Free: true},
		{ID: "google/gemini-flash-1.5", Name: "Gemini Flash 1.5", Description: "Fast multimodal model", Free: false},
	}
}
