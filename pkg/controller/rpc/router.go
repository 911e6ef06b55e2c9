// Package rpc serves the use cases as named procedures under a single
// endpoint, /api/trpc/{procedure}. Queries take their input from the
// "input" query parameter, mutations from the JSON request body.
package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
	"github.com/secmon-lab/agentdesk/pkg/utils/errutil"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

// maxInputSize bounds the JSON input of a procedure call
const maxInputSize = 1 << 20

// Kind tells queries from mutations
type Kind int

const (
	Query Kind = iota + 1
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

type handlerFunc func(ctx context.Context, input json.RawMessage) (any, error)

type procedure struct {
	kind      Kind
	protected bool
	handler   handlerFunc
}

// Router dispatches procedure calls to the use cases
type Router struct {
	uc    *usecase.UseCases
	procs map[string]procedure
}

type result struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type failure struct {
	Error *Error `json:"error"`
}

func New(uc *usecase.UseCases) *Router {
	r := &Router{
		uc:    uc,
		procs: make(map[string]procedure),
	}
	r.register()
	return r
}

// Procedures returns the registered procedure names with their kind
func (r *Router) Procedures() map[string]Kind {
	out := make(map[string]Kind, len(r.procs))
	for name, p := range r.procs {
		out[name] = p.kind
	}
	return out
}

func (r *Router) query(name string, protected bool, h handlerFunc) {
	r.procs[name] = procedure{kind: Query, protected: protected, handler: h}
}

func (r *Router) mutation(name string, protected bool, h handlerFunc) {
	r.procs[name] = procedure{kind: Mutation, protected: protected, handler: h}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	name := chi.URLParam(req, "procedure")
	if name == "" {
		name = path.Base(req.URL.Path)
	}

	proc, ok := r.procs[name]
	if !ok {
		writeError(ctx, w, &Error{
			Code:       CodeNotFound,
			Message:    "No procedure found on path \"" + name + "\"",
			HTTPStatus: http.StatusNotFound,
			Path:       name,
		})
		return
	}

	if proc.kind == Mutation && req.Method != http.MethodPost ||
		proc.kind == Query && req.Method != http.MethodGet && req.Method != http.MethodPost {
		writeError(ctx, w, &Error{
			Code:       CodeMethodNotSupported,
			Message:    "Unsupported " + req.Method + " for " + proc.kind.String() + " procedure",
			HTTPStatus: http.StatusMethodNotAllowed,
			Path:       name,
		})
		return
	}

	if proc.protected {
		token, err := auth.TokenFromContext(ctx)
		if err != nil || token.IsAnonymous() {
			writeError(ctx, w, toError(ctx, name, goerr.Wrap(usecase.ErrUnauthenticated, "protected procedure")))
			return
		}
	}

	input, err := readInput(req)
	if err != nil {
		writeError(ctx, w, toError(ctx, name, err))
		return
	}

	logging.From(ctx).Debug("rpc call", "procedure", name, "kind", proc.kind.String())

	data, err := proc.handler(ctx, input)
	if err != nil {
		writeError(ctx, w, toError(ctx, name, err))
		return
	}

	var resp result
	resp.Result.Data = data
	writeJSON(ctx, w, http.StatusOK, resp)
}

func readInput(req *http.Request) (json.RawMessage, error) {
	if req.Method == http.MethodGet {
		raw := req.URL.Query().Get("input")
		if raw == "" {
			return nil, nil
		}
		return json.RawMessage(raw), nil
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxInputSize))
	if err != nil {
		return nil, goerr.Wrap(errBadInput, "failed to read request body", goerr.V("error", err.Error()))
	}
	return json.RawMessage(body), nil
}

// handle adapts a typed procedure to a handlerFunc. Empty and null input
// decode to the zero value of In.
func handle[In any, Out any](fn func(ctx context.Context, in In) (Out, error)) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var in In
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &in); err != nil {
				return nil, goerr.Wrap(errBadInput, "Invalid input", goerr.V("error", err.Error()))
			}
		}
		return fn(ctx, in)
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errutil.Handle(ctx, err, "failed to encode rpc response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, e *Error) {
	writeJSON(ctx, w, e.HTTPStatus, failure{Error: e})
}
