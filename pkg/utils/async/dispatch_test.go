package async_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/utils/async"
)

func TestDispatch(t *testing.T) {
	t.Run("runs handler detached from caller context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		async.Dispatch(ctx, "test", 0, func(ctx context.Context) error {
			done <- ctx.Err()
			return nil
		})
		cancel()

		select {
		case err := <-done:
			gt.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("handler was not called")
		}
	})

	t.Run("timeout bounds the handler", func(t *testing.T) {
		done := make(chan error, 1)
		async.Dispatch(context.Background(), "slow", 10*time.Millisecond, func(ctx context.Context) error {
			<-ctx.Done()
			done <- ctx.Err()
			return goerr.New("timed out")
		})

		select {
		case err := <-done:
			gt.Error(t, err).Is(context.DeadlineExceeded)
		case <-time.After(time.Second):
			t.Fatal("handler did not time out")
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		done := make(chan struct{})
		async.Dispatch(context.Background(), "panic", 0, func(ctx context.Context) error {
			defer close(done)
			panic("boom")
		})
		<-done
	})
}
