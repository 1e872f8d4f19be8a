package model

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/store"
)

// 足以成功分解的交互集：4 用户 × 4 电影的分离品味矩阵。
func seedInteractions() *store.MemInteractions {
	now := time.Now()
	mk := func(user, movie int64, rating float64) core.Interaction {
		return core.Interaction{UserID: user, MovieID: movie, Kind: core.InteractionRating, Strength: rating, Timestamp: now}
	}
	return store.NewMemInteractions(
		mk(1, 10, 5.0), mk(1, 11, 4.5), mk(1, 12, 1.0),
		mk(2, 10, 4.5), mk(2, 11, 5.0), mk(2, 13, 1.5),
		mk(3, 12, 5.0), mk(3, 13, 4.5), mk(3, 10, 1.0),
		mk(4, 12, 4.5), mk(4, 13, 5.0), mk(4, 11, 1.0),
	)
}

func newTestManager(interactions core.InteractionStore, telemetry core.TelemetryStore, threshold int) *Manager {
	return NewManager(interactions, telemetry, 3, 4, threshold, zerolog.Nop())
}

func TestManager_CurrentCachesUntilInvalidated(t *testing.T) {
	m := newTestManager(seedInteractions(), nil, 50)
	ctx := context.Background()

	f1, err := m.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	f2, err := m.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if f1 != f2 {
		t.Fatal("second Current() rebuilt despite clean cache")
	}

	m.Invalidate()
	f3, err := m.Current(ctx)
	if err != nil {
		t.Fatalf("Current() after Invalidate error = %v", err)
	}
	if f3 == f1 {
		t.Fatal("Current() returned stale model after Invalidate")
	}
}

func TestManager_NotReadyWithTooFewRatings(t *testing.T) {
	interactions := store.NewMemInteractions(
		core.Interaction{UserID: 1, MovieID: 10, Kind: core.InteractionRating, Strength: 5.0, Timestamp: time.Now()},
	)
	m := newTestManager(interactions, nil, 50)

	if _, err := m.Current(context.Background()); !core.IsModelNotReady(err) {
		t.Fatalf("Current() error = %v, want model-not-ready", err)
	}
}

func TestManager_ThresholdTriggersEagerRebuildAndLog(t *testing.T) {
	telemetry := store.NewMemTelemetry()
	m := newTestManager(seedInteractions(), telemetry, 3)
	ctx := context.Background()

	m.NotifyRatingAdded(ctx)
	m.NotifyRatingAdded(ctx)
	if got := len(telemetry.ModelUpdateLogs()); got != 0 {
		t.Fatalf("logs before threshold = %d, want 0", got)
	}

	m.NotifyRatingAdded(ctx)
	logs := telemetry.ModelUpdateLogs()
	if len(logs) != 1 {
		t.Fatalf("logs after threshold = %d, want 1", len(logs))
	}
	entry := logs[0]
	if entry.UpdateTrigger != "threshold_reached_3" {
		t.Fatalf("UpdateTrigger = %q, want threshold_reached_3", entry.UpdateTrigger)
	}
	if entry.UpdateType != "incremental" || !entry.Success {
		t.Fatalf("entry = %+v, want successful incremental", entry)
	}
	if entry.Metrics["rank"] < 2 {
		t.Fatalf("Metrics[rank] = %v, want >= 2", entry.Metrics["rank"])
	}

	// 计数已清零：再加一条新评分不应再触发
	m.NotifyRatingAdded(ctx)
	if got := len(telemetry.ModelUpdateLogs()); got != 1 {
		t.Fatalf("logs after counter reset = %d, want 1", got)
	}
}

func TestManager_ForceUpdate(t *testing.T) {
	telemetry := store.NewMemTelemetry()
	m := newTestManager(seedInteractions(), telemetry, 50)

	metrics, err := m.ForceUpdate(context.Background(), "")
	if err != nil {
		t.Fatalf("ForceUpdate() error = %v", err)
	}
	if metrics.Rank < 2 {
		t.Fatalf("metrics.Rank = %d, want >= 2", metrics.Rank)
	}

	logs := telemetry.ModelUpdateLogs()
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	if logs[0].UpdateType != "full" || logs[0].UpdateTrigger != "manual" {
		t.Fatalf("log = %+v, want full/manual", logs[0])
	}
}

func TestManager_FailedBuildLogged(t *testing.T) {
	telemetry := store.NewMemTelemetry()
	interactions := store.NewMemInteractions()
	m := newTestManager(interactions, telemetry, 50)

	if _, err := m.ForceUpdate(context.Background(), "full"); !core.IsModelNotReady(err) {
		t.Fatalf("ForceUpdate() error = %v, want model-not-ready", err)
	}
	logs := telemetry.ModelUpdateLogs()
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	if logs[0].Success || logs[0].ErrorMessage == "" {
		t.Fatalf("log = %+v, want failed entry with error message", logs[0])
	}
}
