package worker

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/agentdesk/pkg/utils/logging"
)

// ModelRefresher replaces the model catalog with the upstream listing
type ModelRefresher interface {
	Refresh(ctx context.Context) error
}

// ModelRefreshWorker keeps the model catalog in sync with the gateway.
//
// Each server instance refreshes its own in-process catalog, so no
// coordination between instances is needed.
type ModelRefreshWorker struct {
	refresher ModelRefresher
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
}

// NewModelRefreshWorker creates a new worker for refreshing the model catalog
func NewModelRefreshWorker(refresher ModelRefresher, interval time.Duration) *ModelRefreshWorker {
	return &ModelRefreshWorker{
		refresher: refresher,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop. The initial refresh also runs in
// the background and does not block server startup.
func (w *ModelRefreshWorker) Start(ctx context.Context) {
	logging.Default().Info("Model refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)
}

// Stop signals the worker to stop and waits for completion
func (w *ModelRefreshWorker) Stop() {
	w.stopOnce.Do(func() {
		logging.Default().Info("Model refresh worker stopping")
		close(w.stopCh)
	})
	<-w.doneCh
	logging.Default().Info("Model refresh worker stopped")
}

func (w *ModelRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.refresh(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Model refresh worker context cancelled")
			return
		}
	}
}

// refresh logs failures and keeps the previous catalog
func (w *ModelRefreshWorker) refresh(ctx context.Context) {
	startTime := time.Now()
	if err := w.refresher.Refresh(ctx); err != nil {
		logging.Default().Error("Model refresh failed (will retry next interval)",
			"error", err.Error())
		return
	}

	logging.Default().Debug("Model refresh completed",
		"duration", time.Since(startTime).String())
}
