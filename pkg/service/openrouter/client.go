package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/secmon-lab/agentdesk/pkg/utils/safe"
	"github.com/secmon-lab/agentdesk/pkg/utils/sse"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL  = "https://openrouter.ai/api/v1"
	DefaultSiteURL  = "http://localhost:3000"
	DefaultAppTitle = "AI Agent Platform"
)

var (
	// ErrNotConfigured is returned when no API key is set
	ErrNotConfigured = goerr.New("OpenRouter API key not configured")
)

// UpstreamError is returned when the gateway answers with a non 2xx status
// before any fragment was streamed
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return "upstream returned status " + http.StatusText(e.StatusCode)
}

// StreamError is an error reported by the gateway inside the event stream,
// or a failure reading the body after the gateway accepted the request
type StreamError struct {
	Code    string
	Message string
}

func (e *StreamError) Error() string {
	return "upstream stream error: " + e.Message
}

// Client talks to an OpenAI compatible chat completion gateway
type Client struct {
	apiKey     string
	baseURL    string
	siteURL    string
	appTitle   string
	httpClient *http.Client
}

var (
	_ interfaces.ChatCompleter = &Client{}
	_ interfaces.ModelLister   = &Client{}
)

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithSiteURL sets the HTTP-Referer header used for gateway attribution
func WithSiteURL(siteURL string) Option {
	return func(c *Client) { c.siteURL = siteURL }
}

// WithAppTitle sets the X-Title header used for gateway attribution
func WithAppTitle(title string) Option {
	return func(c *Client) { c.appTitle = title }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		siteURL:  DefaultSiteURL,
		appTitle: DefaultAppTitle,
		// No overall timeout: a stream lasts as long as the model generates.
		// Cancellation comes from the request context.
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 2 * time.Minute,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConnsPerHost:   16,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// Stream posts a streaming chat completion and calls emit with every text
// fragment. Payloads that are not valid JSON or carry no text are skipped.
// It returns nil on "[DONE]" or when the upstream closes the stream.
func (c *Client) Stream(ctx context.Context, req *model.Completion, emit func(fragment string) error) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	wire := wireRequest{
		Model:       req.Model,
		Messages:    make([]wireMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}
	for _, m := range req.Messages {
		wire.Messages = append(wire.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.post(ctx, "/chat/completions", wire)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, resp.Body)

	logger := logging.From(ctx)
	reader := sse.NewReader(resp.Body)
	for reader.Next() {
		data := strings.TrimSpace(reader.Event().Data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		if !gjson.Valid(data) {
			logger.Debug("skip malformed stream payload", "data", data)
			continue
		}

		chunk := gjson.Parse(data)
		if msg := chunk.Get("error.message"); msg.Exists() {
			return goerr.Wrap(&StreamError{
				Code:    chunk.Get("error.code").String(),
				Message: msg.String(),
			}, "upstream reported error in stream", goerr.V("model", req.Model))
		}

		fragment := chunk.Get("choices.0.delta.content").String()
		if fragment == "" {
			continue
		}
		if err := emit(fragment); err != nil {
			return err
		}
	}

	if err := reader.Err(); err != nil {
		if ctx.Err() != nil {
			return goerr.Wrap(ctx.Err(), "stream cancelled")
		}
		return goerr.Wrap(&StreamError{Code: "read_error", Message: err.Error()},
			"failed to read upstream stream", goerr.V("model", req.Model))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal upstream request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create upstream request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", c.siteURL)
	httpReq.Header.Set("X-Title", c.appTitle)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send upstream request", goerr.V("url", c.baseURL+path))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer safe.Close(ctx, resp.Body)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, goerr.Wrap(&UpstreamError{StatusCode: resp.StatusCode, Body: string(body)},
			"upstream rejected request",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	return resp, nil
}
