package telemetry

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelrank/reelrank/core"
)

// Recorder 是推荐埋点的门面：服务记录、反馈归因、效果聚合。
//
// 所有写入都是 fire-and-forget：存储失败只记日志，绝不上抛，
// 埋点故障不能拖垮推荐主链路。
type Recorder struct {
	store core.TelemetryStore
	log   zerolog.Logger
}

func NewRecorder(store core.TelemetryStore, log zerolog.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// RecordServed 为本次服务出去的每个条目追加一条推荐事件。
// 算法归因取条目的 recall_source 标签；position 从 1 开始。
func (r *Recorder) RecordServed(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) {
	if r == nil || r.store == nil || rctx == nil {
		return
	}
	evCtx := map[string]any{}
	if rctx != nil && rctx.Viewing != nil {
		evCtx["time_of_day"] = string(rctx.Viewing.TimeOfDay)
		evCtx["weekend"] = rctx.Viewing.Weekend
	}
	now := time.Now()
	for i, it := range items {
		ev := &core.RecommendationEvent{
			UserID:    rctx.UserID,
			MovieID:   it.ID,
			Algorithm: it.Source(),
			Score:     it.Score,
			Position:  i + 1,
			Context:   evCtx,
			CreatedAt: now,
		}
		if err := r.store.InsertEvent(ctx, ev); err != nil {
			r.log.Error().Err(err).
				Int64("user_id", rctx.UserID).
				Int64("movie_id", it.ID).
				Msg("telemetry: insert event failed")
		}
	}
}

// TrackClick 归因一次点击。
func (r *Recorder) TrackClick(ctx context.Context, userID, movieID int64) {
	r.applyFeedback(ctx, userID, movieID, core.FeedbackUpdate{Clicked: true})
}

// TrackRating 归因一次评分。
func (r *Recorder) TrackRating(ctx context.Context, userID, movieID int64, value float64) {
	r.applyFeedback(ctx, userID, movieID, core.FeedbackUpdate{Rated: true, RatingValue: value})
}

// TrackFavorite 归因一次收藏。
func (r *Recorder) TrackFavorite(ctx context.Context, userID, movieID int64) {
	r.applyFeedback(ctx, userID, movieID, core.FeedbackUpdate{Favorited: true})
}

// TrackWatchlist 归因一次加待看。
func (r *Recorder) TrackWatchlist(ctx context.Context, userID, movieID int64) {
	r.applyFeedback(ctx, userID, movieID, core.FeedbackUpdate{Watchlisted: true})
}

func (r *Recorder) applyFeedback(ctx context.Context, userID, movieID int64, fb core.FeedbackUpdate) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.ApplyFeedback(ctx, userID, movieID, fb); err != nil {
		r.log.Error().Err(err).
			Int64("user_id", userID).
			Int64("movie_id", movieID).
			Msg("telemetry: apply feedback failed")
	}
}

// RecordModelUpdate 追加一条模型更新审计日志。
func (r *Recorder) RecordModelUpdate(ctx context.Context, entry *core.ModelUpdateLog) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.InsertModelUpdateLog(ctx, entry); err != nil {
		r.log.Error().Err(err).
			Str("model_type", entry.ModelType).
			Msg("telemetry: insert model update log failed")
	}
}

// AlgorithmStats 是单个召回算法在统计窗口内的效果汇总。
type AlgorithmStats struct {
	Algorithm   string
	Impressions int
	Clicks      int
	Ratings     int
	Favorites   int
	Watchlists  int
	AvgRating   float64
	CTR         float64 // clicks / impressions
	Conversion  float64 // (ratings + favorites + watchlists) / impressions
}

// Performance 按算法聚合 since 之后的推荐事件。
// 结果按 CTR 降序、同分按算法名升序。
func (r *Recorder) Performance(ctx context.Context, since time.Time) ([]AlgorithmStats, error) {
	events, err := r.store.ListEventsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	byAlgo := make(map[string]*AlgorithmStats)
	ratingSums := make(map[string]float64)
	for _, ev := range events {
		algo := ev.Algorithm
		if algo == "" {
			algo = "unknown"
		}
		st, ok := byAlgo[algo]
		if !ok {
			st = &AlgorithmStats{Algorithm: algo}
			byAlgo[algo] = st
		}
		st.Impressions++
		if ev.Clicked {
			st.Clicks++
		}
		if ev.Rated {
			st.Ratings++
			ratingSums[algo] += ev.RatingValue
		}
		if ev.Favorited {
			st.Favorites++
		}
		if ev.Watchlisted {
			st.Watchlists++
		}
	}

	out := make([]AlgorithmStats, 0, len(byAlgo))
	for algo, st := range byAlgo {
		if st.Impressions > 0 {
			st.CTR = float64(st.Clicks) / float64(st.Impressions)
			st.Conversion = float64(st.Ratings+st.Favorites+st.Watchlists) / float64(st.Impressions)
		}
		if st.Ratings > 0 {
			st.AvgRating = ratingSums[algo] / float64(st.Ratings)
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CTR != out[j].CTR {
			return out[i].CTR > out[j].CTR
		}
		return out[i].Algorithm < out[j].Algorithm
	})
	return out, nil
}

// TopPerforming 返回窗口内 CTR 最高的算法；没有任何事件时返回空串。
func (r *Recorder) TopPerforming(ctx context.Context, since time.Time) (string, error) {
	stats, err := r.Performance(ctx, since)
	if err != nil {
		return "", err
	}
	if len(stats) == 0 {
		return "", nil
	}
	return stats[0].Algorithm, nil
}
