package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

const (
	defaultChatTemperature = 0.7
	defaultChatMaxTokens   = 10000
)

const chatSystemPromptFormat = "You are an AI assistant with the following persona and instructions:\n\n%s\n\nPlease respond to the user's message according to these instructions."

// ChatUseCase relays chat requests to the upstream completion service
type ChatUseCase struct {
	repo        interfaces.Repository
	completer   interfaces.ChatCompleter
	temperature float64
	maxTokens   int
}

func NewChatUseCase(repo interfaces.Repository, completer interfaces.ChatCompleter) *ChatUseCase {
	return &ChatUseCase{
		repo:        repo,
		completer:   completer,
		temperature: defaultChatTemperature,
		maxTokens:   defaultChatMaxTokens,
	}
}

// Relay forwards req upstream and calls emit once per text fragment followed
// by one ChatEventDone. Validation and configuration errors are returned
// before anything is emitted or sent upstream. Cancelling ctx aborts the
// upstream request.
func (uc *ChatUseCase) Relay(ctx context.Context, req *model.ChatRequest, emit func(model.ChatEvent) error) error {
	completion, err := uc.buildCompletion(ctx, req)
	if err != nil {
		return err
	}

	if uc.completer == nil {
		return goerr.Wrap(ErrUpstreamNotConfigured, "chat relay unavailable")
	}

	logger := logging.From(ctx)
	logger.Debug("relaying chat", "model", completion.Model, "messages", len(completion.Messages))

	var fragments int
	err = uc.completer.Stream(ctx, completion, func(fragment string) error {
		fragments++
		return emit(model.ChatEvent{Type: model.ChatEventContent, Content: fragment})
	})
	if err != nil {
		return goerr.Wrap(err, "chat stream failed",
			goerr.V(ModelKey, completion.Model), goerr.V("fragments", fragments))
	}

	logger.Debug("chat relay finished", "model", completion.Model, "fragments", fragments)
	return emit(model.ChatEvent{Type: model.ChatEventDone})
}

func (uc *ChatUseCase) buildCompletion(ctx context.Context, req *model.ChatRequest) (*model.Completion, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, goerr.Wrap(ErrInvalidChatRequest, "message is empty")
	}

	instructions := req.AgentInstructions
	if instructions == "" && req.AgentID != "" {
		agent, err := uc.agentOf(ctx, req.AgentID)
		if err != nil {
			return nil, err
		}
		instructions = agent.Instructions
	}
	if strings.TrimSpace(instructions) == "" {
		return nil, goerr.Wrap(ErrInvalidChatRequest, "agent instructions are empty")
	}

	modelID := req.Model
	if modelID == "" {
		modelID = model.DefaultChatModel
	}

	messages := make([]model.ChatMessage, 0, len(req.History)+2)
	messages = append(messages, model.ChatMessage{
		Role:    "system",
		Content: fmt.Sprintf(chatSystemPromptFormat, instructions),
	})
	for _, turn := range req.History {
		if turn.Text == "" {
			continue
		}
		messages = append(messages, model.ChatMessage{Role: turn.Sender.Role(), Content: turn.Text})
	}
	messages = append(messages, model.ChatMessage{Role: types.SenderUser.Role(), Content: req.Message})

	return &model.Completion{
		Model:       modelID,
		Messages:    messages,
		Temperature: uc.temperature,
		MaxTokens:   uc.maxTokens,
	}, nil
}

// agentOf resolves instructions of a stored agent owned by the caller
func (uc *ChatUseCase) agentOf(ctx context.Context, id types.AgentID) (*model.Agent, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return (&AgentUseCase{repo: uc.repo}).getOwnedAgent(ctx, userID, id)
}
