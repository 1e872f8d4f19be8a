package model

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/reelrank/reelrank/core"
)

// ModelType 是写入更新日志的模型标识。
const ModelType = "svd"

// UpdateMetrics 是一次模型重建的摘要，
// 在没有离线留出集评估的情况下，解释方差占比是主要的质量信号。
type UpdateMetrics struct {
	Rank              int
	Rows              int
	Cols              int
	RatingsProcessed  int
	ExplainedVariance float64
	Duration          time.Duration
}

// Manager 拥有进程内唯一的隐因子模型缓存。
//
// 生命周期规则：
//   - 任何新评分写入都立即把缓存标记失效（Invalidate / NotifyRatingAdded）
//   - 失效后的首次读取惰性重建（Current）；并发读取用 singleflight 合并成一次构建
//   - 失效优先于在途构建：构建基于某一代快照，发布时如果代号已前进，
//     发布结果立即再次视为失效，下次读取重新构建（数据源永远是关系存储）
//   - 新增评分计数跨过阈值时主动重建（而非仅标记失效），让下一个请求零等待，
//     并写入 trigger 为 threshold_reached_<N> 的审计日志
type Manager struct {
	interactions core.InteractionStore
	telemetry    core.TelemetryStore
	log          zerolog.Logger

	components      int
	minRatings      int
	updateThreshold int

	mu              sync.Mutex
	cur             *Factorization
	gen             uint64 // 单调递增的写代号
	builtGen        uint64 // 当前缓存对应的代号
	ratingsSinceLog int    // 自上次成功日志以来的新增评分数

	sf singleflight.Group
}

// NewManager 创建模型生命周期管理器。
// telemetry 可为 nil（不写审计日志，只维护缓存）。
func NewManager(
	interactions core.InteractionStore,
	telemetry core.TelemetryStore,
	components, minRatings, updateThreshold int,
	log zerolog.Logger,
) *Manager {
	return &Manager{
		interactions:    interactions,
		telemetry:       telemetry,
		log:             log,
		components:      components,
		minRatings:      minRatings,
		updateThreshold: updateThreshold,
		gen:             1,
	}
}

// Generation 返回当前写代号（观测用）。
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Invalidate 显式失效缓存；下一次 Current 会触发重建。
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.gen++
	m.mu.Unlock()
}

// Current 返回可用的模型，必要时惰性重建。
// 数据不足时返回 ErrModelNotReady；调用方按回退链处理，不应上抛。
func (m *Manager) Current(ctx context.Context) (*Factorization, error) {
	m.mu.Lock()
	if m.cur != nil && m.builtGen == m.gen {
		f := m.cur
		m.mu.Unlock()
		return f, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sf.Do("rebuild", func() (any, error) {
		f, _, err := m.rebuild(ctx)
		return f, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*Factorization), nil
}

// NotifyRatingAdded 在新评分写入后调用：失效缓存、累加计数，
// 跨过阈值时主动重建并写审计日志。
func (m *Manager) NotifyRatingAdded(ctx context.Context) {
	m.mu.Lock()
	m.gen++
	m.ratingsSinceLog++
	reached := m.ratingsSinceLog >= m.updateThreshold
	m.mu.Unlock()

	if !reached {
		return
	}

	trigger := fmt.Sprintf("threshold_reached_%d", m.updateThreshold)
	metrics, err := m.rebuildAndLog(ctx, "incremental", trigger)
	if err != nil {
		m.log.Warn().Err(err).Str("trigger", trigger).Msg("incremental model rebuild failed")
		return
	}
	m.log.Info().
		Int("rank", metrics.Rank).
		Float64("explained_variance", metrics.ExplainedVariance).
		Str("trigger", trigger).
		Msg("incremental model rebuild complete")
}

// ForceUpdate 管理/定时入口：无条件重建并写审计日志。
// mode 写入日志的 update_type，空串按 "full" 处理。
func (m *Manager) ForceUpdate(ctx context.Context, mode string) (UpdateMetrics, error) {
	if mode == "" {
		mode = "full"
	}
	return m.rebuildAndLog(ctx, mode, "manual")
}

// rebuild 基于当前代号的快照重建缓存。
// 发布遵循"失效优先"：构建期间代号前进时，发布的缓存立即视为过期。
func (m *Manager) rebuild(ctx context.Context) (*Factorization, UpdateMetrics, error) {
	m.mu.Lock()
	snapshotGen := m.gen
	m.mu.Unlock()

	started := time.Now()

	all, err := m.interactions.ListAllInteractions(ctx)
	if err != nil {
		return nil, UpdateMetrics{}, err
	}
	var ratingCount int
	for _, it := range all {
		if it.Kind == core.InteractionRating {
			ratingCount++
		}
	}

	strengths := core.BuildStrengths(all)
	f, err := Factorize(strengths, m.components, m.minRatings)
	if err != nil {
		return nil, UpdateMetrics{RatingsProcessed: ratingCount, Duration: time.Since(started)}, err
	}

	m.mu.Lock()
	m.cur = f
	m.builtGen = snapshotGen
	m.mu.Unlock()

	return f, UpdateMetrics{
		Rank:              f.Rank,
		Rows:              len(f.UserIDs),
		Cols:              len(f.ItemIDs),
		RatingsProcessed:  ratingCount,
		ExplainedVariance: f.ExplainedVariance,
		Duration:          time.Since(started),
	}, nil
}

// rebuildAndLog 重建并写一条 ModelUpdateLog；日志写失败只记 log，不上抛。
func (m *Manager) rebuildAndLog(ctx context.Context, updateType, trigger string) (UpdateMetrics, error) {
	_, metrics, buildErr := m.rebuild(ctx)

	entry := &core.ModelUpdateLog{
		ModelType:        ModelType,
		UpdateType:       updateType,
		RatingsProcessed: metrics.RatingsProcessed,
		UpdateTrigger:    trigger,
		Metrics: map[string]float64{
			"explained_variance": metrics.ExplainedVariance,
			"rank":               float64(metrics.Rank),
			"rows":               float64(metrics.Rows),
			"cols":               float64(metrics.Cols),
		},
		Duration:  metrics.Duration,
		Success:   buildErr == nil,
		CreatedAt: time.Now(),
	}
	if buildErr != nil {
		entry.ErrorMessage = buildErr.Error()
	}

	if m.telemetry != nil {
		if err := m.telemetry.InsertModelUpdateLog(ctx, entry); err != nil {
			m.log.Error().Err(err).Msg("model update log write dropped")
		} else if buildErr == nil {
			m.mu.Lock()
			m.ratingsSinceLog = 0
			m.mu.Unlock()
		}
	}

	return metrics, buildErr
}
