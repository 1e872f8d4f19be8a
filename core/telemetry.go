package core

import (
	"context"
	"time"
)

// RecommendationEvent 记录一次被服务出去的推荐条目。
//
// 生命周期：
//   - 服务时创建一次（userID/movieID/algorithm/score/position/context）
//   - 用户后续行为（点击/评分/收藏/加待看）只更新该 (user, movie) 对
//     最近一条"未被该行为命中"的事件；更早的事件保持不变，作为不可变历史
type RecommendationEvent struct {
	ID        int64
	UserID    int64
	MovieID   int64
	Algorithm string  // 召回来源归因：mf / itemcf / content / demographic / popular / ...
	Score     float64 // 服务时的排序分
	Position  int     // 列表内位置，从 1 开始
	Context   map[string]any

	Clicked     bool
	ClickedAt   time.Time
	Rated       bool
	RatedAt     time.Time
	RatingValue float64
	Favorited   bool
	Watchlisted bool

	CreatedAt time.Time
}

// FeedbackUpdate 是对已有事件的有界就地更新。
// 只更新置位的字段；At 为空时由存储侧填当前时间。
type FeedbackUpdate struct {
	Clicked     bool
	Rated       bool
	RatingValue float64
	Favorited   bool
	Watchlisted bool
	At          time.Time
}

// ModelUpdateLog 是模型更新审计日志，只追加、创建后不再变更。
type ModelUpdateLog struct {
	ID               int64
	ModelType        string // 如 "svd"
	UpdateType       string // full / incremental
	RatingsProcessed int
	UpdateTrigger    string // manual / scheduled / threshold_reached_<N>
	Metrics          map[string]float64
	Duration         time.Duration
	Success          bool
	ErrorMessage     string
	CreatedAt        time.Time
}

// TelemetryStore 是埋点数据的领域接口。
//
// 写入均为 fire-and-forget 语义的简单追加/条件更新；
// 实现失败不应阻塞推荐服务（调用方 catch + log，绝不上抛）。
type TelemetryStore interface {
	// InsertEvent 追加一条推荐事件
	InsertEvent(ctx context.Context, ev *RecommendationEvent) error

	// ApplyFeedback 更新 (user, movie) 对最近一条未命中对应行为的事件；
	// 找不到可更新的事件时静默返回 nil（反馈先于服务到达是合法时序）
	ApplyFeedback(ctx context.Context, userID, movieID int64, fb FeedbackUpdate) error

	// ListEventsSince 读取 since 之后创建的全部事件（算法效果对比用）
	ListEventsSince(ctx context.Context, since time.Time) ([]*RecommendationEvent, error)

	// InsertModelUpdateLog 追加一条模型更新日志
	InsertModelUpdateLog(ctx context.Context, entry *ModelUpdateLog) error
}
