package engine

import (
	"context"
	"time"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/model"
	"github.com/reelrank/reelrank/telemetry"
)

// FeedbackAction 是用户对推荐条目的行为类型。
type FeedbackAction string

const (
	ActionClick     FeedbackAction = "click"
	ActionRating    FeedbackAction = "rating"
	ActionFavorite  FeedbackAction = "favorite"
	ActionWatchlist FeedbackAction = "watchlist"
)

// RecordFeedback 归因一次用户反馈。
//
// 交互数据本身由应用侧写入关系存储，这里只做三件事：
// 埋点归因（fire-and-forget）、评分触发模型失效/阈值重建、
// bump 用户缓存版本让旧结果即刻过期。
func (e *Engine) RecordFeedback(ctx context.Context, userID, movieID int64, action FeedbackAction, value float64) error {
	switch action {
	case ActionClick:
		e.recorder.TrackClick(ctx, userID, movieID)
	case ActionRating:
		e.recorder.TrackRating(ctx, userID, movieID, value)
		e.models.NotifyRatingAdded(ctx)
	case ActionFavorite:
		e.recorder.TrackFavorite(ctx, userID, movieID)
		e.models.Invalidate()
	case ActionWatchlist:
		e.recorder.TrackWatchlist(ctx, userID, movieID)
		e.models.Invalidate()
	default:
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: unknown feedback action")
	}

	e.bumpCacheVersion(ctx, userID)
	return nil
}

// ForceModelUpdate 管理/定时入口：无条件重建隐因子模型并写审计日志。
// mode 为空时按 "full" 处理。
func (e *Engine) ForceModelUpdate(ctx context.Context, mode string) (model.UpdateMetrics, error) {
	return e.models.ForceUpdate(ctx, mode)
}

// AlgorithmPerformance 按召回算法聚合 since 之后的推荐效果。
func (e *Engine) AlgorithmPerformance(ctx context.Context, since time.Time) ([]telemetry.AlgorithmStats, error) {
	return e.recorder.Performance(ctx, since)
}
