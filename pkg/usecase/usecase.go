package usecase

import (
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
)

type UseCases struct {
	repo         interfaces.Repository
	completer    interfaces.ChatCompleter
	modelLister  interfaces.ModelLister
	modelCatalog []model.LLMModel
	allModels    bool
	llmClient    gollem.LLMClient

	Item    *ItemUseCase
	Agent   *AgentUseCase
	Meeting *MeetingUseCase
	Chat    *ChatUseCase
	Model   *ModelUseCase
	User    *UserUseCase
	Auth    AuthUseCaseInterface
}

type Option func(*UseCases)

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

// WithChatCompleter sets the upstream of the chat relay. Without it the
// relay answers ErrUpstreamNotConfigured.
func WithChatCompleter(completer interfaces.ChatCompleter) Option {
	return func(uc *UseCases) {
		uc.completer = completer
	}
}

func WithModelLister(lister interfaces.ModelLister) Option {
	return func(uc *UseCases) {
		uc.modelLister = lister
	}
}

// WithModelCatalog replaces the default model catalog
func WithModelCatalog(models []model.LLMModel) Option {
	return func(uc *UseCases) {
		uc.modelCatalog = models
	}
}

// WithAllModels lets catalog refreshes adopt every upstream model
func WithAllModels(all bool) Option {
	return func(uc *UseCases) {
		uc.allModels = all
	}
}

// WithLLMClient sets the LLM used for meeting summaries
func WithLLMClient(client gollem.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llmClient = client
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Item = NewItemUseCase(repo)
	uc.Agent = NewAgentUseCase(repo)
	uc.Meeting = NewMeetingUseCase(repo, uc.llmClient)
	uc.Chat = NewChatUseCase(repo, uc.completer)
	uc.Model = NewModelUseCase(uc.modelLister, uc.modelCatalog, uc.allModels)
	uc.User = NewUserUseCase(repo)

	return uc
}
