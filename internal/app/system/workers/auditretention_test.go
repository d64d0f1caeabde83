package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (f *fakePruner) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, f.err
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestAuditRetention_PruneCutoff(t *testing.T) {
	p := &fakePruner{}
	w := NewAuditRetention(p, zap.NewNop(), time.Hour, 90*24*time.Hour)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.prune()

	if p.calls() != 1 {
		t.Fatalf("expected one prune call, got %d", p.calls())
	}
	if want := now.Add(-90 * 24 * time.Hour); !p.cutoffs[0].Equal(want) {
		t.Errorf("cutoff: got %v, want %v", p.cutoffs[0], want)
	}
}

func TestAuditRetention_StartRunsImmediatelyAndStops(t *testing.T) {
	p := &fakePruner{}
	w := NewAuditRetention(p, zap.NewNop(), time.Hour, time.Hour)

	w.Start()
	deadline := time.Now().Add(2 * time.Second)
	for p.calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop()

	if p.calls() == 0 {
		t.Error("expected an immediate prune on Start")
	}
}

func TestAuditRetention_LogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := &fakePruner{err: errors.New("not primary")}
	w := NewAuditRetention(p, zap.New(core), time.Hour, time.Hour)

	w.prune()

	if logs.FilterMessage("failed to prune audit events").Len() != 1 {
		t.Error("expected the failure to be logged")
	}
}
