package interfaces

import (
	"context"

	"github.com/secmon-lab/agentdesk/pkg/domain/model"
)

// ChatCompleter streams a completion from the upstream model gateway. emit
// is called for every non-empty text fragment in order. Stream returns nil
// when the upstream signals the end of the stream or closes it.
type ChatCompleter interface {
	Stream(ctx context.Context, req *model.Completion, emit func(fragment string) error) error
}

// ModelLister lists the models the upstream gateway serves
type ModelLister interface {
	ListModels(ctx context.Context) ([]model.LLMModel, error)
}
