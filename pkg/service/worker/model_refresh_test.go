package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/agentdesk/pkg/domain/model"
	"github.com/secmon-lab/agentdesk/pkg/service/worker"
	"github.com/secmon-lab/agentdesk/pkg/usecase"
)

// mockRefresher counts Refresh calls and can be told to fail
type mockRefresher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockRefresher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestModelRefreshWorker_ImmediateInitialRefresh(t *testing.T) {
	refresher := &mockRefresher{}
	w := worker.NewModelRefreshWorker(refresher, time.Hour)

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return refresher.count() == 1 })
}

func TestModelRefreshWorker_PeriodicRefresh(t *testing.T) {
	refresher := &mockRefresher{}
	w := worker.NewModelRefreshWorker(refresher, 10*time.Millisecond)

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return refresher.count() >= 3 })
}

func TestModelRefreshWorker_KeepsRunningOnError(t *testing.T) {
	refresher := &mockRefresher{err: errors.New("gateway down")}
	w := worker.NewModelRefreshWorker(refresher, 10*time.Millisecond)

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return refresher.count() >= 2 })
}

func TestModelRefreshWorker_StopsCleanly(t *testing.T) {
	refresher := &mockRefresher{}
	w := worker.NewModelRefreshWorker(refresher, time.Hour)
	w.Start(context.Background())
	waitFor(t, func() bool { return refresher.count() == 1 })

	stopStart := time.Now()
	w.Stop()
	gt.True(t, time.Since(stopStart) < time.Second)

	// second Stop returns without blocking
	w.Stop()
}

func TestModelRefreshWorker_StopsOnContextCancel(t *testing.T) {
	refresher := &mockRefresher{}
	w := worker.NewModelRefreshWorker(refresher, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	w.Stop()
}

type staticLister []model.LLMModel

func (s staticLister) ListModels(ctx context.Context) ([]model.LLMModel, error) {
	return s, nil
}

func TestModelRefreshWorker_RefreshesModelUseCase(t *testing.T) {
	upstream := staticLister{
		{ID: "a/one", Name: "One"},
		{ID: "b/two", Name: "Two"},
	}
	uc := usecase.NewModelUseCase(upstream, nil, true)

	w := worker.NewModelRefreshWorker(uc, time.Hour)
	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, func() bool { return len(uc.ListModels(context.Background())) == 2 })
	gt.Value(t, uc.ListModels(context.Background())[0].ID).Equal("a/one")
}
