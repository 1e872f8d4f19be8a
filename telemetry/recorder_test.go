package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pkg/utils"
	"github.com/reelrank/reelrank/store"
)

func servedItem(id int64, source string, score float64) *core.Item {
	it := core.NewItem(&core.Movie{ID: id})
	it.Score = score
	it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
	return it
}

func TestRecorder_RecordServedAndPerformance(t *testing.T) {
	ts := store.NewMemTelemetry()
	rec := NewRecorder(ts, zerolog.Nop())
	ctx := context.Background()
	since := time.Now().Add(-time.Minute)

	rctx := &core.RecommendContext{
		UserID:  1,
		Viewing: &core.ViewingContext{TimeOfDay: core.TimeEvening, Weekend: true},
	}
	rec.RecordServed(ctx, rctx, []*core.Item{
		servedItem(10, "mf", 0.9),
		servedItem(11, "mf", 0.8),
		servedItem(12, "popular", 0.5),
	})

	rec.TrackClick(ctx, 1, 10)
	rec.TrackRating(ctx, 1, 10, 4.5)
	rec.TrackFavorite(ctx, 1, 12)

	stats, err := rec.Performance(ctx, since)
	if err != nil {
		t.Fatalf("Performance() error = %v", err)
	}
	byAlgo := make(map[string]AlgorithmStats)
	for _, st := range stats {
		byAlgo[st.Algorithm] = st
	}

	mf := byAlgo["mf"]
	if mf.Impressions != 2 || mf.Clicks != 1 || mf.Ratings != 1 {
		t.Fatalf("mf stats = %+v, want 2 impressions / 1 click / 1 rating", mf)
	}
	if mf.CTR != 0.5 {
		t.Fatalf("mf CTR = %v, want 0.5", mf.CTR)
	}
	if mf.AvgRating != 4.5 {
		t.Fatalf("mf AvgRating = %v, want 4.5", mf.AvgRating)
	}

	pop := byAlgo["popular"]
	if pop.Impressions != 1 || pop.Favorites != 1 {
		t.Fatalf("popular stats = %+v, want 1 impression / 1 favorite", pop)
	}

	top, err := rec.TopPerforming(ctx, since)
	if err != nil {
		t.Fatalf("TopPerforming() error = %v", err)
	}
	if top != "mf" {
		t.Fatalf("TopPerforming() = %q, want mf", top)
	}
}

func TestRecorder_FeedbackTargetsLatestUnactedEvent(t *testing.T) {
	ts := store.NewMemTelemetry()
	rec := NewRecorder(ts, zerolog.Nop())
	ctx := context.Background()
	since := time.Now().Add(-time.Minute)
	rctx := &core.RecommendContext{UserID: 1}

	// 同一部电影被服务两次
	rec.RecordServed(ctx, rctx, []*core.Item{servedItem(10, "mf", 0.9)})
	rec.RecordServed(ctx, rctx, []*core.Item{servedItem(10, "itemcf", 0.7)})

	rec.TrackClick(ctx, 1, 10)

	events, err := ts.ListEventsSince(ctx, since)
	if err != nil {
		t.Fatalf("ListEventsSince() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	// 最近的事件吃到点击，更早的保持不变
	if !events[1].Clicked {
		t.Fatal("latest event not clicked")
	}
	if events[0].Clicked {
		t.Fatal("older event mutated")
	}
}

func TestRecorder_FeedbackBeforeServeIsSilent(t *testing.T) {
	rec := NewRecorder(store.NewMemTelemetry(), zerolog.Nop())
	// 没有任何事件时的反馈不应 panic，也不应报错
	rec.TrackClick(context.Background(), 1, 999)
}
