// LogLens - Log Security and Performance Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/cache"
	"github.com/tomtom215/loglens/internal/logging"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestNewSupervisorTree(t *testing.T) {
	t.Run("applies defaults for zero config", func(t *testing.T) {
		tree := NewSupervisorTree(quietLogger(), TreeConfig{})
		if got, want := tree.Config(), DefaultTreeConfig(); got != want {
			t.Errorf("Config() = %+v, want %+v", got, want)
		}
		if tree.Root() == nil {
			t.Error("Root() = nil")
		}
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		tree := NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
		if got := tree.Config().FailureBackoff; got != time.Second {
			t.Errorf("FailureBackoff = %v, want 1s", got)
		}
		if got := tree.Config().FailureThreshold; got != 5 {
			t.Errorf("FailureThreshold = %v, want 5", got)
		}
	})
}

func TestSupervisorTree_Lifecycle(t *testing.T) {
	tree := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	maint := newMockService("maint")
	api := newMockService("api")
	tree.AddMaintenanceService(maint)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	if !eventually(t, time.Second, func() bool { return maint.StartCount() > 0 && api.StartCount() > 0 }) {
		t.Fatalf("starts = %d/%d, want both started", maint.StartCount(), api.StartCount())
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}

	unstopped, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(unstopped) != 0 {
		t.Errorf("unstopped = %v, want none", unstopped)
	}
}

func TestSupervisorTree_RestartsFailedService(t *testing.T) {
	tree := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	flaky := newMockService("flaky")
	flaky.failFirst = 2
	stable := newMockService("stable")
	tree.AddMaintenanceService(flaky)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	if !eventually(t, 2*time.Second, func() bool { return flaky.StartCount() >= 3 }) {
		t.Errorf("flaky starts = %d, want at least 3", flaky.StartCount())
	}
	if got := stable.StartCount(); got != 1 {
		t.Errorf("stable starts = %d, want 1 (isolated from maintenance failures)", got)
	}
}

func TestSupervisorTree_RemoveMaintenanceService(t *testing.T) {
	tree := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := newMockService("removable")
	token := tree.AddMaintenanceService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	if !eventually(t, time.Second, func() bool { return svc.StartCount() > 0 }) {
		t.Fatal("service not started")
	}
	if err := tree.RemoveMaintenanceService(token); err != nil {
		t.Errorf("RemoveMaintenanceService() error = %v", err)
	}
}

func TestSupervisorTree_CacheJanitor(t *testing.T) {
	now := time.Now()
	lru := cache.NewLRU[int]("reports", 8, time.Minute).WithClock(func() time.Time { return now })
	lru.Add("run-1", 1)
	now = now.Add(2 * time.Minute)

	tree := NewSupervisorTree(logging.NewSlogLogger("supervisor"), TreeConfig{ShutdownTimeout: time.Second})
	tree.AddMaintenanceService(lru.Janitor(10 * time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	if !eventually(t, 2*time.Second, func() bool { return lru.Stats().Size == 0 }) {
		t.Errorf("Size = %d after janitor, want 0", lru.Stats().Size)
	}
}
