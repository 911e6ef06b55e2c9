package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/client/chat"
	"github.com/secmon-lab/agentdesk/pkg/client/rpc"
	"github.com/secmon-lab/agentdesk/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdChat() *cli.Command {
	var serverURL string
	var token string
	var agentID string
	var instructions string
	var modelID string
	var noHistory bool

	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with an agent from the terminal. Ctrl-C stops the current answer, /quit exits",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Usage:       "Base URL of a running agentdesk server",
				Value:       "http://localhost:8080",
				Sources:     cli.EnvVars("AGENTDESK_SERVER_URL"),
				Destination: &serverURL,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "Bearer token issued by the OIDC provider (not needed in no-auth mode)",
				Sources:     cli.EnvVars("AGENTDESK_TOKEN"),
				Destination: &token,
			},
			&cli.StringFlag{
				Name:        "agent",
				Usage:       "ID of a stored agent to chat with",
				Destination: &agentID,
			},
			&cli.StringFlag{
				Name:        "instructions",
				Usage:       "Ad hoc agent instructions, used when --agent is not set",
				Destination: &instructions,
			},
			&cli.StringFlag{
				Name:        "model",
				Usage:       "Model ID (see model.list)",
				Destination: &modelID,
			},
			&cli.BoolFlag{
				Name:        "no-history",
				Usage:       "Send each message without the earlier conversation",
				Destination: &noHistory,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			s := &chatSession{
				serverURL:    serverURL,
				token:        token,
				agentID:      types.AgentID(agentID),
				instructions: instructions,
				modelID:      modelID,
				history:      !noHistory,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt)
			defer signal.Stop(sigCh)

			return s.run(ctx, os.Stdin, os.Stdout, sigCh)
		},
	}
}

type chatSession struct {
	serverURL    string
	token        string
	agentID      types.AgentID
	instructions string
	modelID      string
	history      bool

	mu        sync.Mutex
	printed   map[string]int
	streaming bool
	aborted   bool
}

var (
	colorPrompt = color.New(color.FgGreen, color.Bold)
	colorAgent  = color.New(color.FgCyan)
	colorInfo   = color.New(color.FgHiBlack)
	colorError  = color.New(color.FgRed)
)

// run reads one message per line from in until EOF or /quit. A value on
// interrupt aborts the streaming answer, or ends the session when idle.
func (s *chatSession) run(ctx context.Context, in io.Reader, out io.Writer, interrupt <-chan os.Signal) error {
	agentName, opts, err := s.setup(ctx)
	if err != nil {
		return err
	}

	s.printed = make(map[string]int)
	conv := chat.New(s.serverURL, append(opts, chat.WithOnUpdate(func(m chat.Message) {
		s.print(out, m)
	}))...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-interrupt:
				s.mu.Lock()
				streaming := s.streaming
				s.aborted = streaming
				s.mu.Unlock()
				if !streaming {
					cancel()
					return
				}
				conv.Abort()
			}
		}
	}()

	_, _ = colorInfo.Fprintf(out, "Chatting with %s. Type /quit to exit.\n", agentName)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, _ = colorPrompt.Fprint(out, "> ")

		var line string
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(out)
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		s.setStreaming(true)
		reply, err := conv.Send(ctx, line)
		aborted := s.setStreaming(false)

		if err != nil {
			_, _ = colorError.Fprintf(out, "\n%s\n", describeChatError(err))
			continue
		}
		switch {
		case aborted:
			_, _ = colorInfo.Fprint(out, " (stopped)")
		case reply != nil && reply.Text == "":
			_, _ = colorInfo.Fprint(out, "(no answer)")
		}
		_, _ = fmt.Fprintln(out)
	}
}

// setup resolves the agent to chat with and returns its display name
func (s *chatSession) setup(ctx context.Context) (string, []chat.Option, error) {
	var opts []chat.Option
	var rpcOpts []rpc.Option
	if s.token != "" {
		opts = append(opts, chat.WithBearerToken(s.token))
		rpcOpts = append(rpcOpts, rpc.WithBearerToken(s.token))
	}
	if s.modelID != "" {
		opts = append(opts, chat.WithModel(s.modelID))
	}
	opts = append(opts, chat.WithHistory(s.history))

	if s.agentID != "" {
		agent, err := rpc.New(s.serverURL, rpcOpts...).GetAgent(ctx, s.agentID)
		if err != nil {
			return "", nil, goerr.Wrap(err, "failed to load agent", goerr.V("agent_id", s.agentID))
		}
		return agent.Name, append(opts, chat.WithAgent(s.agentID)), nil
	}

	if s.instructions == "" {
		return "", nil, goerr.New("either --agent or --instructions is required")
	}
	return "ad hoc agent", append(opts, chat.WithInstructions(s.instructions)), nil
}

// setStreaming returns whether the answer that just ended was aborted
func (s *chatSession) setStreaming(v bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	aborted := s.aborted
	s.streaming = v
	s.aborted = false
	return aborted
}

// print writes the part of an agent reply not printed yet
func (s *chatSession) print(out io.Writer, m chat.Message) {
	if m.Sender != types.SenderAI {
		return
	}

	s.mu.Lock()
	done := s.printed[m.ID]
	if len(m.Text) > done {
		s.printed[m.ID] = len(m.Text)
	}
	s.mu.Unlock()

	if len(m.Text) > done {
		_, _ = colorAgent.Fprint(out, m.Text[done:])
	}
}

func describeChatError(err error) string {
	var httpErr *chat.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	var streamErr *chat.StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Message
	}
	return err.Error()
}
