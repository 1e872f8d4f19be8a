// Package engine 是推荐引擎的组合根：冷启动判定、候选生成、混合排序、
// 上下文重排、负偏好过滤、结果缓存与埋点，全部在这里编排。
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelrank/reelrank/config"
	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/filter"
	"github.com/reelrank/reelrank/model"
	"github.com/reelrank/reelrank/pipeline"
	"github.com/reelrank/reelrank/pkg/utils"
	"github.com/reelrank/reelrank/recall"
	"github.com/reelrank/reelrank/rerank"
	"github.com/reelrank/reelrank/telemetry"
)

// Deps 是引擎的外部依赖。
// Catalog / Interactions / Profiles / Telemetry 必填；
// Cache 与 Embedding 可选（nil 即关闭对应能力）。
type Deps struct {
	Catalog      core.CatalogStore
	Interactions core.InteractionStore
	Profiles     core.ProfileStore
	Telemetry    core.TelemetryStore

	// Cache 推荐结果缓存（memory / redis）；nil 表示不缓存
	Cache core.Store

	// Embedding 可选的深度嵌入召回源；nil 时 UseEmbeddings 静默降级
	Embedding recall.EmbeddingSource

	Logger zerolog.Logger
}

// Engine 是推荐服务的门面。
type Engine struct {
	cfg  *config.Config
	deps Deps
	log  zerolog.Logger

	models   *model.Manager
	recorder *telemetry.Recorder

	popular     *recall.Popular
	content     *recall.Content
	itemcf      *recall.ItemCF
	demographic *recall.Demographic
	mf          *recall.MF

	rules []*filter.RuleFilter

	// now 可注入，测试用
	now func() time.Time
}

// New 创建引擎；cfg 为 nil 时使用默认配置。
// 配置里的 CEL 规则在这里一次性编译，表达式非法立即报错。
func New(cfg *config.Config, deps Deps) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if deps.Catalog == nil || deps.Interactions == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: catalog and interactions are required")
	}

	models := model.NewManager(
		deps.Interactions,
		deps.Telemetry,
		cfg.MFComponents,
		cfg.MinRatingsForModel,
		cfg.IncrementalUpdateThreshold,
		deps.Logger,
	)

	e := &Engine{
		cfg:      cfg,
		deps:     deps,
		log:      deps.Logger,
		models:   models,
		recorder: telemetry.NewRecorder(deps.Telemetry, deps.Logger),

		popular: &recall.Popular{Catalog: deps.Catalog, MinVoteCount: cfg.PopularMinVoteCount},
		content: &recall.Content{
			Interactions:   deps.Interactions,
			Catalog:        deps.Catalog,
			LikedThreshold: cfg.LikedThreshold,
			MinVoteCount:   cfg.ContentMinVoteCount,
			TopGenres:      cfg.TopGenres,
		},
		itemcf: &recall.ItemCF{
			Interactions:     deps.Interactions,
			Catalog:          deps.Catalog,
			LikedThreshold:   cfg.LikedThreshold,
			MinSystemRatings: cfg.MinSystemRatings,
			TopKSimilar:      cfg.TopKSimilarItems,
		},
		demographic: &recall.Demographic{
			Interactions: deps.Interactions,
			Profiles:     deps.Profiles,
			Catalog:      deps.Catalog,
			AgeBand:      cfg.DemographicAgeBand,
			MinRating:    cfg.DemographicMinRating,
		},

		now: time.Now,
	}
	e.mf = &recall.MF{Models: models, Catalog: deps.Catalog}

	for _, expr := range cfg.Rules {
		rf, err := filter.NewRuleFilter(expr)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", expr, err)
		}
		e.rules = append(e.rules, rf)
	}
	return e, nil
}

// Models 暴露模型生命周期管理器（管理面/定时任务用）。
func (e *Engine) Models() *model.Manager { return e.models }

// Recorder 暴露埋点记录器。
func (e *Engine) Recorder() *telemetry.Recorder { return e.recorder }

// Recommend 为用户生成 Top-count 推荐。
//
// 链路：缓存命中短路 -> 冷启动判定 -> 候选生成与混排 ->
// 上下文重排 -> 负偏好过滤 -> 截断 -> 回填缓存 -> 埋点。
// 候选不足时返回少于 count 的列表（best-effort），这不是错误。
func (e *Engine) Recommend(ctx context.Context, userID int64, count int, opts core.Options) ([]*core.Item, error) {
	if count <= 0 {
		return nil, core.ErrInvalidCount
	}

	if items, ok := e.cachedResult(ctx, userID, count, opts); ok {
		e.recorderServe(ctx, userID, nil, items)
		return items, nil
	}

	rctx, history, err := e.buildContext(ctx, userID, opts)
	if err != nil {
		return nil, err
	}

	var items []*core.Item
	cold := len(history) < e.cfg.ColdStartThreshold
	if cold {
		items, err = e.composeCold(ctx, rctx, count, opts)
	} else {
		items, err = e.composeWarm(ctx, rctx, count, opts)
	}
	if err != nil {
		return nil, err
	}

	items, err = e.postProcess(ctx, rctx, items, count, opts, cold)
	if err != nil {
		return nil, err
	}

	e.storeResult(ctx, userID, count, opts, items)
	e.recorderServe(ctx, userID, rctx, items)
	return items, nil
}

// buildContext 组装贯穿整条链路的 RecommendContext。
// 画像缺失不是错误；排除集 = 用户交互过的全部电影。
func (e *Engine) buildContext(ctx context.Context, userID int64, opts core.Options) (*core.RecommendContext, []core.Interaction, error) {
	rctx := &core.RecommendContext{
		UserID: userID,
		Now:    e.now(),
	}

	if e.deps.Profiles != nil {
		profile, err := e.deps.Profiles.GetProfile(ctx, userID)
		if err != nil && !core.IsStoreNotFound(err) {
			return nil, nil, err
		}
		rctx.Profile = profile
	}

	history, err := e.deps.Interactions.ListUserInteractions(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	rctx.Excluded = core.ExcludedMovieIDs(history)

	if opts.UseContext {
		vc, err := rerank.ExtractViewingContext(ctx, e.deps.Interactions, e.deps.Catalog, rctx, e.cfg.RecentWindow)
		if err != nil {
			e.log.Warn().Err(err).Int64("user_id", userID).Msg("viewing context extraction failed, skipping rerank")
		} else {
			rctx.Viewing = vc
		}
	}
	return rctx, history, nil
}

// postProcess 对混排后的候选执行重排 -> 过滤 -> 截断。
// 负偏好过滤放在所有重排之后：这是硬约束，重排不能把被过滤的条目救回来。
// 冷启动用户没有稳定的近期口味画像，只做时段重排，不做多样性提升。
func (e *Engine) postProcess(ctx context.Context, rctx *core.RecommendContext, items []*core.Item, count int, opts core.Options, cold bool) ([]*core.Item, error) {
	var nodes []pipeline.Node
	if opts.UseContext {
		nodes = append(nodes, &rerank.Temporal{})
		if !cold {
			nodes = append(nodes, &rerank.Diversity{Boost: e.cfg.DiversityBoost})
		}
	}
	nodes = append(nodes, &filter.DislikedGenres{})
	if len(e.rules) > 0 {
		chain := &filter.Node{Filters: make([]filter.Filter, 0, len(e.rules))}
		for _, rf := range e.rules {
			chain.Filters = append(chain.Filters, rf)
		}
		nodes = append(nodes, chain)
	}
	nodes = append(nodes, &rerank.TopN{N: count})

	p := &pipeline.Pipeline{Nodes: nodes}
	return p.Run(ctx, rctx, items)
}

func (e *Engine) recorderServe(ctx context.Context, userID int64, rctx *core.RecommendContext, items []*core.Item) {
	if rctx == nil {
		rctx = &core.RecommendContext{UserID: userID, Now: e.now()}
	}
	e.recorder.RecordServed(ctx, rctx, items)
}

// --- 结果缓存 ---

// cachedEntry 是缓存里的精简条目；电影元数据命中时重新水合。
type cachedEntry struct {
	ID     int64   `json:"id"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// cacheKey 按 user + count + 选项 维度区分缓存；
// 键里带用户级版本号，反馈到达时 bump 版本即可让旧键自然过期。
func (e *Engine) cacheKey(ctx context.Context, userID int64, count int, opts core.Options) string {
	return fmt.Sprintf("rec:u:%d:v:%d:k:%d:ctx:%t:emb:%t",
		userID, e.cacheVersion(ctx, userID), count, opts.UseContext, opts.UseEmbeddings)
}

func (e *Engine) cacheVersion(ctx context.Context, userID int64) uint64 {
	raw, err := e.deps.Cache.Get(ctx, fmt.Sprintf("rec:u:%d:ver", userID))
	if err != nil || len(raw) == 0 {
		return 1
	}
	var v uint64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 1
	}
	return v
}

// bumpCacheVersion 让该用户的全部结果缓存立即失效。
func (e *Engine) bumpCacheVersion(ctx context.Context, userID int64) {
	if e.deps.Cache == nil {
		return
	}
	v := e.cacheVersion(ctx, userID) + 1
	raw, _ := json.Marshal(v)
	if err := e.deps.Cache.Set(ctx, fmt.Sprintf("rec:u:%d:ver", userID), raw); err != nil {
		e.log.Warn().Err(err).Int64("user_id", userID).Msg("cache version bump failed")
	}
}

func (e *Engine) cachedResult(ctx context.Context, userID int64, count int, opts core.Options) ([]*core.Item, bool) {
	if e.deps.Cache == nil || e.cfg.CacheTTLSeconds <= 0 || opts.Refresh {
		return nil, false
	}
	raw, err := e.deps.Cache.Get(ctx, e.cacheKey(ctx, userID, count, opts))
	if err != nil {
		if !core.IsStoreNotFound(err) {
			e.log.Warn().Err(err).Int64("user_id", userID).Msg("result cache read failed")
		}
		return nil, false
	}

	var entries []cachedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	ids := make([]int64, 0, len(entries))
	for _, en := range entries {
		ids = append(ids, en.ID)
	}
	movies, err := e.deps.Catalog.GetMovies(ctx, ids)
	if err != nil {
		return nil, false
	}

	items := make([]*core.Item, 0, len(entries))
	for _, en := range entries {
		movie, ok := movies[en.ID]
		if !ok {
			continue
		}
		it := core.NewItem(movie)
		it.Score = en.Score
		if en.Source != "" {
			it.PutLabel("recall_source", utils.Label{Value: en.Source, Source: "cache"})
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		return nil, false
	}
	return items, true
}

func (e *Engine) storeResult(ctx context.Context, userID int64, count int, opts core.Options, items []*core.Item) {
	if e.deps.Cache == nil || e.cfg.CacheTTLSeconds <= 0 || len(items) == 0 {
		return
	}
	entries := make([]cachedEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, cachedEntry{ID: it.ID, Score: it.Score, Source: it.Source()})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := e.deps.Cache.Set(ctx, e.cacheKey(ctx, userID, count, opts), raw, e.cfg.CacheTTLSeconds); err != nil {
		e.log.Warn().Err(err).Int64("user_id", userID).Msg("result cache write failed")
	}
}
