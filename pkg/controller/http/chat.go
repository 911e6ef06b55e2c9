package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/service/openrouter"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
	"github.com/secmon-lab/agentdesk/pkg/utils/errutil"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/secmon-lab/agentdesk/pkg/utils/sse"
)

const (
	chatEventDone = "done"

	msgInvalidBody       = "Invalid request body"
	msgMissingFields     = "Message and agent instructions are required"
	msgUpstreamFailed    = "Failed to get response from AI model"
	msgStreamFailed      = "Stream processing error"
	msgInternalError     = "Internal server error"
	maxChatRequestLength = 1 << 20
)

// ChatUseCase relays a chat request as a sequence of events
type ChatUseCase interface {
	Relay(ctx context.Context, req *model.ChatRequest, emit func(model.ChatEvent) error) error
}

type chatContent struct {
	Content string `json:"content"`
}

type chatError struct {
	Error string `json:"error"`
}

// chatHandler re-frames the relay output as server-sent events. Errors
// raised before the first event are answered as JSON; later ones end the
// stream with an error event.
func chatHandler(chatUC ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		req, err := parseChatRequest(r)
		if err != nil {
			logging.From(ctx).Info("invalid chat request body", "error", err.Error())
			writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
			return
		}

		stream, err := sse.NewWriter(w)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		err = chatUC.Relay(ctx, req, func(ev model.ChatEvent) error {
			switch ev.Type {
			case model.ChatEventContent:
				return stream.Data(chatContent{Content: ev.Content})
			case model.ChatEventDone:
				return stream.Event(chatEventDone, struct{}{})
			}
			return nil
		})
		if err == nil {
			return
		}

		if ctx.Err() != nil {
			logging.From(ctx).Debug("chat client went away", "error", err.Error())
			return
		}

		var streamErr *openrouter.StreamError
		if stream.Started() || errors.As(err, &streamErr) {
			errutil.Handle(ctx, err, "chat stream failed")
			if werr := stream.Data(chatError{Error: msgStreamFailed}); werr != nil {
				logging.From(ctx).Debug("failed to write chat error event", "error", werr.Error())
			}
			return
		}

		writeChatError(ctx, w, err)
	}
}

func writeChatError(ctx context.Context, w http.ResponseWriter, err error) {
	var upstreamErr *openrouter.UpstreamError

	switch {
	case errors.Is(err, usecase.ErrInvalidChatRequest):
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: msgMissingFields})

	case errors.Is(err, usecase.ErrAgentNotFound):
		writeJSON(ctx, w, http.StatusNotFound, errorResponse{Error: usecase.ErrAgentNotFound.Error()})

	case errors.Is(err, usecase.ErrUnauthenticated):
		writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{Error: "Authentication required"})

	case errors.Is(err, usecase.ErrUpstreamNotConfigured), errors.Is(err, openrouter.ErrNotConfigured):
		errutil.Handle(ctx, err, "chat relay not configured")
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: usecase.ErrUpstreamNotConfigured.Error()})

	case errors.As(err, &upstreamErr):
		errutil.Handle(ctx, goerr.Wrap(err, "upstream rejected chat request",
			goerr.V("status", upstreamErr.StatusCode),
			goerr.V("body", upstreamErr.Body)), "upstream rejected chat request")
		writeJSON(ctx, w, upstreamErr.StatusCode, errorResponse{Error: msgUpstreamFailed})

	default:
		errutil.Handle(ctx, err, "chat relay failed")
		writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: msgInternalError})
	}
}

// parseChatRequest reads query parameters for GET, as sent by EventSource,
// and a JSON body for POST
func parseChatRequest(r *http.Request) (*model.ChatRequest, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		return &model.ChatRequest{
			Message:           q.Get("message"),
			AgentInstructions: q.Get("agentInstructions"),
			AgentID:           types.AgentID(q.Get("agentId")),
			Model:             q.Get("model"),
		}, nil
	}

	var req model.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatRequestLength)).Decode(&req); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat request")
	}
	return &req, nil
}
