package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	server "github.com/secmon-lab/agentdesk/pkg/controller/http"
	"github.com/secmon-lab/agentdesk/pkg/controller/rpc"
	"github.com/secmon-lab/agentdesk/pkg/domain/model/auth"
	"github.com/secmon-lab/agentdesk/pkg/repository/memory"
	"github.com/secmon-lab/agentdesk/pkg/service/openrouter"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
)

// fakeUpstream serves the given SSE lines as a chat completion stream
func fakeUpstream(t *testing.T, status int, lines ...string) *openrouter.Client {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			_, _ = fmt.Fprintf(w, "%s\n\n", line)
		}
	}))
	t.Cleanup(ts.Close)
	return openrouter.New("test-key", openrouter.WithBaseURL(ts.URL))
}

func newServer(t *testing.T, opts ...usecase.Option) *server.Server {
	t.Helper()
	uc := usecase.New(memory.New(), opts...)
	return server.New(rpc.New(uc), server.WithChat(uc.Chat))
}

func postChat(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv := newServer(t)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains(`"status":"ok"`)
}

func TestChat_Relay(t *testing.T) {
	t.Run("fragments are re-framed and terminated by done", func(t *testing.T) {
		completer := fakeUpstream(t, http.StatusOK,
			`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
			`data: {"choices":[{"delta":{"content":"lo"}}]}`,
			`data: [DONE]`,
		)
		srv := newServer(t, usecase.WithChatCompleter(completer))

		w := postChat(t, srv, `{"message":"Hi","agentInstructions":"Be brief."}`)

		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Header().Get("Content-Type")).Equal("text/event-stream")
		gt.Value(t, w.Header().Get("Cache-Control")).Equal("no-cache")
		gt.Value(t, w.Body.String()).Equal(
			"data: {\"content\":\"Hel\"}\n\n" +
				"data: {\"content\":\"lo\"}\n\n" +
				"event: done\ndata: {}\n\n")
	})

	t.Run("GET reads query parameters", func(t *testing.T) {
		completer := fakeUpstream(t, http.StatusOK, `data: {"choices":[{"delta":{"content":"ok"}}]}`)
		srv := newServer(t, usecase.WithChatCompleter(completer))

		q := url.Values{}
		q.Set("message", "Hi")
		q.Set("agentInstructions", "Be brief.")
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chat?"+q.Encode(), nil))

		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Body.String()).Equal("data: {\"content\":\"ok\"}\n\nevent: done\ndata: {}\n\n")
	})

	t.Run("malformed upstream fragments are skipped", func(t *testing.T) {
		completer := fakeUpstream(t, http.StatusOK,
			`data: {not json`,
			`data: {"choices":[{"delta":{}}]}`,
			`data: {"choices":[{"delta":{"content":"A"}}]}`,
			`data: [DONE]`,
		)
		srv := newServer(t, usecase.WithChatCompleter(completer))

		w := postChat(t, srv, `{"message":"Hi","agentInstructions":"x"}`)
		gt.Value(t, w.Body.String()).Equal("data: {\"content\":\"A\"}\n\nevent: done\ndata: {}\n\n")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := newServer(t, usecase.WithChatCompleter(fakeUpstream(t, http.StatusOK)))

		w := postChat(t, srv, `{"message":`)
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decodeError(t, w.Body)).Equal("Invalid request body")
	})

	t.Run("missing instructions", func(t *testing.T) {
		srv := newServer(t, usecase.WithChatCompleter(fakeUpstream(t, http.StatusOK)))

		w := postChat(t, srv, `{"message":"Hi"}`)
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
		gt.Value(t, decodeError(t, w.Body)).Equal("Message and agent instructions are required")
	})

	t.Run("upstream not configured", func(t *testing.T) {
		srv := newServer(t)

		w := postChat(t, srv, `{"message":"Hi","agentInstructions":"x"}`)
		gt.Number(t, w.Code).Equal(http.StatusInternalServerError)
		gt.Value(t, decodeError(t, w.Body)).Equal("OpenRouter API key not configured")
	})

	t.Run("upstream status is passed through", func(t *testing.T) {
		srv := newServer(t, usecase.WithChatCompleter(fakeUpstream(t, http.StatusTooManyRequests)))

		w := postChat(t, srv, `{"message":"Hi","agentInstructions":"x"}`)
		gt.Number(t, w.Code).Equal(http.StatusTooManyRequests)
		gt.Value(t, decodeError(t, w.Body)).Equal("Failed to get response from AI model")
	})

	t.Run("error inside the stream", func(t *testing.T) {
		completer := fakeUpstream(t, http.StatusOK,
			`data: {"choices":[{"delta":{"content":"par"}}]}`,
			`data: {"error":{"code":"502","message":"provider down"}}`,
		)
		srv := newServer(t, usecase.WithChatCompleter(completer))

		w := postChat(t, srv, `{"message":"Hi","agentInstructions":"x"}`)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Body.String()).Equal(
			"data: {\"content\":\"par\"}\n\n" +
				"data: {\"error\":\"Stream processing error\"}\n\n")
	})

	t.Run("upstream body cut before the first fragment", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = w.Write([]byte(": keepalive\n\n"))
			w.(http.Flusher).Flush()
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
		}))
		t.Cleanup(ts.Close)
		completer := openrouter.New("test-key", openrouter.WithBaseURL(ts.URL))
		srv := newServer(t, usecase.WithChatCompleter(completer))

		w := postChat(t, srv, `{"message":"Hi","agentInstructions":"x"}`)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Header().Get("Content-Type")).Equal("text/event-stream")
		gt.Value(t, w.Body.String()).Equal("data: {\"error\":\"Stream processing error\"}\n\n")
	})
}

func decodeError(t *testing.T, r io.Reader) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	gt.NoError(t, json.NewDecoder(r).Decode(&body)).Required()
	return body.Error
}

type fakeAuth struct {
	tokens map[string]*auth.Token
}

func (f *fakeAuth) GetAuthURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (f *fakeAuth) HandleCallback(ctx context.Context, code string) (*auth.Token, error) {
	return nil, errors.New("not used")
}

func (f *fakeAuth) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	if token, ok := f.tokens[string(tokenID)+":"+string(tokenSecret)]; ok {
		return token, nil
	}
	return nil, usecase.ErrUnauthenticated
}

func (f *fakeAuth) ValidateBearer(ctx context.Context, rawJWT string) (*auth.Token, error) {
	if token, ok := f.tokens[rawJWT]; ok {
		return token, nil
	}
	return nil, usecase.ErrUnauthenticated
}

func (f *fakeAuth) Logout(ctx context.Context, tokenID auth.TokenID) error { return nil }
func (f *fakeAuth) IsNoAuthn() bool                                       { return false }

func TestAuthMiddleware(t *testing.T) {
	alice := auth.NewToken("alice", "alice@example.com", "Alice")
	authUC := &fakeAuth{tokens: map[string]*auth.Token{
		"jwt-alice":   alice,
		"tid:tsecret": alice,
	}}
	uc := usecase.New(memory.New(), usecase.WithAuth(authUC))
	srv := server.New(rpc.New(uc), server.WithAuth(authUC))

	call := func(modify func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/trpc/agent.list", nil)
		modify(req)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		return w
	}

	t.Run("no credentials reach public procedures only", func(t *testing.T) {
		w := call(func(r *http.Request) {})
		gt.Number(t, w.Code).Equal(http.StatusUnauthorized)
		gt.String(t, w.Body.String()).Contains(`"UNAUTHORIZED"`)

		w = httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trpc/item.list", nil))
		gt.Number(t, w.Code).Equal(http.StatusOK)
	})

	t.Run("bearer token", func(t *testing.T) {
		w := call(func(r *http.Request) { r.Header.Set("Authorization", "Bearer jwt-alice") })
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Contains(`"result"`)
	})

	t.Run("session cookies", func(t *testing.T) {
		w := call(func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token_id", Value: "tid"})
			r.AddCookie(&http.Cookie{Name: "token_secret", Value: "tsecret"})
		})
		gt.Number(t, w.Code).Equal(http.StatusOK)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		w := call(func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") })
		gt.Number(t, w.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, decodeError(t, w.Body)).Equal("Invalid authentication token")
	})

	t.Run("login redirects with state cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))

		gt.Number(t, w.Code).Equal(http.StatusTemporaryRedirect)
		gt.String(t, w.Header().Get("Location")).Contains("https://idp.example.com/authorize?state=")
		gt.String(t, w.Header().Get("Set-Cookie")).Contains("oauth_state=")
	})

	t.Run("callback rejects state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?state=a&code=c", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "b"})
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("me", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer jwt-alice")
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)

		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Contains(`"sub":"alice"`)
	})
}

func TestNoAuthnServer(t *testing.T) {
	repo := memory.New()
	authUC := usecase.NewNoAuthnUseCase(repo, "dev", "dev@example.com", "Dev")
	uc := usecase.New(repo, usecase.WithAuth(authUC))
	srv := server.New(rpc.New(uc), server.WithAuth(authUC))

	req := httptest.NewRequest(http.MethodPost, "/api/trpc/agent.create",
		strings.NewReader(`{"name":"Bot","instructions":"Be brief."}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	gt.Number(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains(`"userId":"dev"`)
}

func TestCORS(t *testing.T) {
	srv := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/trpc/item.list", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	gt.Value(t, w.Header().Get("Access-Control-Allow-Origin")).Equal("http://localhost:3000")
	gt.Value(t, w.Header().Get("Access-Control-Allow-Credentials")).Equal("true")
}
