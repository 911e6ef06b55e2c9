// Package chat consumes the streaming chat relay. A Conversation keeps the
// ordered messages of one chat and grows the reply of the agent while its
// fragments arrive.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
	"github.com/secmon-lab/agentdesk/pkg/utils/safe"
	"github.com/secmon-lab/agentdesk/pkg/utils/sse"
	"github.com/tidwall/gjson"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrAborted      = errors.New("stream aborted")
)

// HTTPError is returned when the relay rejects a request before streaming
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return "chat relay returned " + http.StatusText(e.StatusCode) + ": " + e.Message
}

// StreamError is an error event received inside the stream
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "chat stream error: " + e.Message
}

// Message is one entry of a conversation. Loading is true while the reply is
// still streaming.
type Message struct {
	ID        string
	Sender    types.Sender
	Text      string
	Timestamp time.Time
	Loading   bool
	Err       error
}

// Conversation holds the messages of one chat. At most one reply streams at
// a time; sending while a reply streams cancels it.
type Conversation struct {
	baseURL      string
	httpClient   *http.Client
	header       http.Header
	instructions string
	agentID      types.AgentID
	model        string
	withHistory  bool

	mu       sync.Mutex
	messages []Message
	cancel   context.CancelCauseFunc
	activeID string
	onUpdate func(Message)
}

type Option func(*Conversation)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Conversation) {
		c.httpClient = client
	}
}

// WithInstructions sets the agent instructions sent with every message
func WithInstructions(instructions string) Option {
	return func(c *Conversation) {
		c.instructions = instructions
	}
}

// WithAgent lets the relay load instructions of a stored agent
func WithAgent(id types.AgentID) Option {
	return func(c *Conversation) {
		c.agentID = id
	}
}

func WithModel(modelID string) Option {
	return func(c *Conversation) {
		c.model = modelID
	}
}

// WithHistory sends earlier messages along with each new one
func WithHistory(enabled bool) Option {
	return func(c *Conversation) {
		c.withHistory = enabled
	}
}

// WithBearerToken authenticates requests with a provider issued JWT
func WithBearerToken(token string) Option {
	return func(c *Conversation) {
		c.header.Set("Authorization", "Bearer "+token)
	}
}

// WithOnUpdate registers a hook called with a copy of every changed message
func WithOnUpdate(fn func(Message)) Option {
	return func(c *Conversation) {
		c.onUpdate = fn
	}
}

// New creates a conversation against the relay served at baseURL
func New(baseURL string, opts ...Option) *Conversation {
	c := &Conversation{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUpdate replaces the update hook
func (c *Conversation) OnUpdate(fn func(Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Messages returns a copy of the messages in order
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages)
}

// Abort cancels the streaming reply. Text received so far is kept.
func (c *Conversation) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel(ErrAborted)
		c.cancel = nil
		c.activeID = ""
	}
}

// Send appends text as a user message and streams the reply into a new agent
// message. It returns the final state of the reply. An aborted reply is
// returned without error.
func (c *Conversation) Send(ctx context.Context, text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	history := c.history()
	streamCtx, cancel, replyID := c.begin(ctx, text)
	defer cancel(nil)

	err := c.stream(streamCtx, text, history, replyID)
	if err != nil && errors.Is(context.Cause(streamCtx), ErrAborted) {
		err = nil
	}

	return c.finish(replyID, err), err
}

// begin appends the user message and a loading reply, and cancels any reply
// still streaming
func (c *Conversation) begin(ctx context.Context, text string) (context.Context, context.CancelCauseFunc, string) {
	streamCtx, cancel := context.WithCancelCause(ctx)
	now := time.Now()

	user := Message{ID: uuid.NewString(), Sender: types.SenderUser, Text: text, Timestamp: now}
	reply := Message{ID: uuid.NewString(), Sender: types.SenderAI, Timestamp: now, Loading: true}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel(ErrAborted)
	}
	c.cancel = cancel
	c.activeID = reply.ID
	c.messages = append(c.messages, user, reply)
	hook := c.onUpdate
	c.mu.Unlock()

	if hook != nil {
		hook(user)
		hook(reply)
	}
	return streamCtx, cancel, reply.ID
}

// history returns settled messages to send as context
func (c *Conversation) history() []model.ChatTurn {
	if !c.withHistory {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var turns []model.ChatTurn
	for _, m := range c.messages {
		if m.Loading || m.Err != nil || m.Text == "" {
			continue
		}
		turns = append(turns, model.ChatTurn{Sender: m.Sender, Text: m.Text})
	}
	return turns
}

// update applies fn to the message with id and notifies the hook
func (c *Conversation) update(id string, fn func(*Message)) *Message {
	c.mu.Lock()
	idx := slices.IndexFunc(c.messages, func(m Message) bool { return m.ID == id })
	if idx < 0 {
		c.mu.Unlock()
		return nil
	}
	fn(&c.messages[idx])
	msg := c.messages[idx]
	hook := c.onUpdate
	c.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
	return &msg
}

func (c *Conversation) finish(id string, err error) *Message {
	c.mu.Lock()
	if c.activeID == id {
		c.cancel = nil
		c.activeID = ""
	}
	c.mu.Unlock()

	return c.update(id, func(m *Message) {
		m.Loading = false
		m.Err = err
	})
}

func (c *Conversation) stream(ctx context.Context, text string, history []model.ChatTurn, replyID string) error {
	body, err := json.Marshal(model.ChatRequest{
		Message:           text,
		History:           history,
		AgentInstructions: c.instructions,
		AgentID:           c.agentID,
		Model:             c.model,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create chat request")
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send chat request")
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		msg := gjson.GetBytes(raw, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	reader := sse.NewReader(resp.Body)
	for reader.Next() {
		ev := reader.Event()
		if ev.Type == "done" {
			return nil
		}
		if !gjson.Valid(ev.Data) {
			logging.From(ctx).Debug("skip malformed chat event", "data", ev.Data)
			continue
		}

		data := gjson.Parse(ev.Data)
		if e := data.Get("error"); e.Exists() {
			return &StreamError{Message: e.String()}
		}
		if fragment := data.Get("content").String(); fragment != "" {
			c.update(replyID, func(m *Message) { m.Text += fragment })
		}
	}

	if err := reader.Err(); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		}
		return err
	}
	return nil
}
