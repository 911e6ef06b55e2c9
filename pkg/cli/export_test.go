package cli

import (
	"context"
	"io"
	"os"

	"github.com/secmon-lab/agentdesk/pkg/domain/types"
)

var (
	Seed           = seed
	GetIndexConfig = getIndexConfig
)

func RunChat(ctx context.Context, serverURL, agentID, instructions string, in io.Reader, out io.Writer, interrupt <-chan os.Signal) error {
	s := &chatSession{
		serverURL:    serverURL,
		agentID:      types.AgentID(agentID),
		instructions: instructions,
		history:      true,
	}
	return s.run(ctx, in, out, interrupt)
}
