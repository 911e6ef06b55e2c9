package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

// Close closes closer and logs a failure. A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", slog.Any("error", err))
	}
}

// Write writes data to w and logs a failure. Write errors on HTTP responses
// usually mean the peer went away, so they are not returned.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write", slog.Any("error", err), slog.Int("size", len(data)))
	}
}

// Drain discards the rest of r so the underlying connection can be reused,
// then closes it.
func Drain(ctx context.Context, r io.ReadCloser) {
	if r == nil {
		return
	}
	if _, err := io.Copy(io.Discard, io.LimitReader(r, 64*1024)); err != nil {
		logging.From(ctx).Debug("failed to drain body", slog.Any("error", err))
	}
	Close(ctx, r)
}
