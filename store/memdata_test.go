package store

import (
	"context"
	"testing"
	"time"

	"github.com/reelrank/reelrank/core"
)

func TestMemInteractions_ListRecent(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemInteractions(
		core.Interaction{UserID: 1, MovieID: 10, Kind: core.InteractionRating, Strength: 4.0, Timestamp: base},
		core.Interaction{UserID: 1, MovieID: 11, Kind: core.InteractionRating, Strength: 5.0, Timestamp: base.Add(2 * time.Hour)},
		core.Interaction{UserID: 1, MovieID: 12, Kind: core.InteractionFavorite, Timestamp: base.Add(time.Hour)},
		core.Interaction{UserID: 2, MovieID: 13, Kind: core.InteractionRating, Strength: 3.0, Timestamp: base.Add(3 * time.Hour)},
	)

	recent, err := s.ListRecentInteractions(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ListRecentInteractions() error = %v", err)
	}
	// 时间倒序，窗口 2
	if len(recent) != 2 || recent[0].MovieID != 11 || recent[1].MovieID != 12 {
		t.Fatalf("recent = %v, want [11 12]", recent)
	}

	n, err := s.CountUserInteractions(context.Background(), 1)
	if err != nil || n != 3 {
		t.Fatalf("CountUserInteractions() = %d, %v, want 3", n, err)
	}
}

func TestMemTelemetry_ApplyFeedbackLatestUnacted(t *testing.T) {
	ts := NewMemTelemetry()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 2; i++ {
		_ = ts.InsertEvent(ctx, &core.RecommendationEvent{
			UserID: 1, MovieID: 10, Algorithm: "mf",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	// 第一次点击落在最近的事件上
	if err := ts.ApplyFeedback(ctx, 1, 10, core.FeedbackUpdate{Clicked: true}); err != nil {
		t.Fatalf("ApplyFeedback() error = %v", err)
	}
	// 第二次点击落在更早的那条（最近的已被命中）
	if err := ts.ApplyFeedback(ctx, 1, 10, core.FeedbackUpdate{Clicked: true}); err != nil {
		t.Fatalf("ApplyFeedback() error = %v", err)
	}

	events, _ := ts.ListEventsSince(ctx, base.Add(-time.Minute))
	if !events[0].Clicked || !events[1].Clicked {
		t.Fatalf("events = %+v, want both clicked", events)
	}

	// 没有任何可更新事件：静默成功
	if err := ts.ApplyFeedback(ctx, 9, 99, core.FeedbackUpdate{Rated: true, RatingValue: 5}); err != nil {
		t.Fatalf("ApplyFeedback(no target) error = %v", err)
	}
}

func TestMemTelemetry_RatingFeedback(t *testing.T) {
	ts := NewMemTelemetry()
	ctx := context.Background()

	_ = ts.InsertEvent(ctx, &core.RecommendationEvent{UserID: 1, MovieID: 10, Algorithm: "content"})
	if err := ts.ApplyFeedback(ctx, 1, 10, core.FeedbackUpdate{Rated: true, RatingValue: 4.5}); err != nil {
		t.Fatalf("ApplyFeedback() error = %v", err)
	}

	events, _ := ts.ListEventsSince(ctx, time.Time{})
	ev := events[0]
	if !ev.Rated || ev.RatingValue != 4.5 || ev.RatedAt.IsZero() {
		t.Fatalf("event = %+v, want rated with value and timestamp", ev)
	}
}
