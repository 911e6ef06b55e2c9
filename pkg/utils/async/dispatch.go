package async

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine with a background context that
// keeps the caller's logger. Errors and panics are logged, never returned.
// A positive timeout bounds the handler's context.
func Dispatch(ctx context.Context, name string, timeout time.Duration, handler func(ctx context.Context) error) {
	logger := logging.From(ctx).With("task", name)
	bgCtx := logging.With(context.Background(), logger)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in async task", "panic", r)
			}
		}()

		runCtx := bgCtx
		if timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(bgCtx, timeout)
			defer cancel()
		}

		if err := handler(runCtx); err != nil {
			logger.Error("async task failed", "error", goerr.Unwrap(err))
		}
	}()
}
