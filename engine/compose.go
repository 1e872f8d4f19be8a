package engine

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/recall"
)

// composeCold 是冷用户（交互数低于阈值）的候选组装：
// 内容（显式偏好兜底）-> 人口学 -> 热门，逐级补齐到 count。
// 每一级只补前面没出现过的条目；数据不足是降级信号，不是错误。
func (e *Engine) composeCold(ctx context.Context, rctx *core.RecommendContext, count int, _ core.Options) ([]*core.Item, error) {
	sources := []recall.Source{e.content, e.demographic, e.popular}

	var out []*core.Item
	seen := make(map[int64]struct{})
	for _, src := range sources {
		if len(out) >= count {
			break
		}
		items, err := src.Recall(ctx, rctx, count)
		if err != nil {
			if !isDegradable(err) {
				return nil, err
			}
			e.log.Debug().Str("source", src.Name()).Err(err).Msg("cold source degraded")
			continue
		}
		for _, it := range items {
			if len(out) >= count {
				break
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out, nil
}

// composeWarm 是热用户的混合组装。
//
// 配额按权重切分（默认 MF 60 / Item-CF 25 / 内容 15；
// 启用嵌入源时 40/30/20/10）。MF 先同步执行：模型不可用时
// 其配额整体改道给 Item-CF，其余源用 errgroup 并发召回。
// 合并按优先级去重、轮转补齐，最后热门兜底到 count。
func (e *Engine) composeWarm(ctx context.Context, rctx *core.RecommendContext, count int, opts core.Options) ([]*core.Item, error) {
	weights := e.cfg.WarmWeights
	useEmbedding := opts.UseEmbeddings && e.deps.Embedding != nil
	if useEmbedding {
		weights = e.cfg.EmbeddingWeights
	}

	quota := func(w float64) int {
		return int(math.Ceil(float64(count) * w))
	}
	mfQuota := quota(weights.MF)
	itemcfQuota := quota(weights.ItemCF)
	contentQuota := quota(weights.Content)
	embeddingQuota := 0
	if useEmbedding {
		embeddingQuota = quota(weights.Embedding)
	}

	// MF 先行：失败改道，不并发抢跑
	var mfItems []*core.Item
	if mfQuota > 0 {
		items, err := e.mf.Recall(ctx, rctx, mfQuota)
		switch {
		case err == nil:
			mfItems = items
		case isDegradable(err):
			e.log.Warn().Err(err).Int64("user_id", rctx.UserID).
				Msg("latent factor model unavailable, rerouting quota to item-cf")
			itemcfQuota += mfQuota
		default:
			return nil, err
		}
	}

	var (
		embeddingItems []*core.Item
		itemcfItems    []*core.Item
		contentItems   []*core.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	if embeddingQuota > 0 {
		g.Go(func() error {
			items, err := e.deps.Embedding.Recall(gctx, rctx, embeddingQuota)
			if err != nil {
				if isDegradable(err) {
					e.log.Debug().Err(err).Msg("embedding source degraded")
					return nil
				}
				return err
			}
			embeddingItems = items
			return nil
		})
	}
	g.Go(func() error {
		items, err := e.itemcf.Recall(gctx, rctx, itemcfQuota)
		if err != nil {
			if isDegradable(err) {
				e.log.Debug().Err(err).Msg("item-cf source degraded")
				return nil
			}
			return err
		}
		itemcfItems = items
		return nil
	})
	g.Go(func() error {
		items, err := e.content.Recall(gctx, rctx, contentQuota)
		if err != nil {
			if isDegradable(err) {
				e.log.Debug().Err(err).Msg("content source degraded")
				return nil
			}
			return err
		}
		contentItems = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 优先级顺序：嵌入 > MF > Item-CF > 内容
	slices := [][]*core.Item{embeddingItems, mfItems, itemcfItems, contentItems}
	quotas := []int{embeddingQuota, mfQuota, itemcfQuota, contentQuota}

	out, seen := mergeByQuota(slices, quotas, count)

	// 热门兜底
	if len(out) < count {
		popular, err := e.popular.Recall(ctx, rctx, count)
		if err == nil {
			for _, it := range popular {
				if len(out) >= count {
					break
				}
				if _, dup := seen[it.ID]; dup {
					continue
				}
				seen[it.ID] = struct{}{}
				out = append(out, it)
			}
		}
	}
	return out, nil
}

// mergeByQuota 按优先级合并各源的候选：
// 第一轮各源取自己配额内的条目（跨源按 ID 去重，先到先得）；
// 还不够 count 时第二轮按优先级轮转吃剩余条目。
func mergeByQuota(slices [][]*core.Item, quotas []int, count int) ([]*core.Item, map[int64]struct{}) {
	out := make([]*core.Item, 0, count)
	seen := make(map[int64]struct{})

	// 第一轮：各源配额内
	rests := make([][]*core.Item, len(slices))
	for i, items := range slices {
		taken := 0
		for j, it := range items {
			if taken >= quotas[i] || len(out) >= count {
				rests[i] = items[j:]
				break
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
			taken++
		}
	}

	// 第二轮：轮转补齐
	for len(out) < count {
		progressed := false
		for i := range rests {
			for len(rests[i]) > 0 {
				it := rests[i][0]
				rests[i] = rests[i][1:]
				if _, dup := seen[it.ID]; dup {
					continue
				}
				seen[it.ID] = struct{}{}
				out = append(out, it)
				progressed = true
				break
			}
			if len(out) >= count {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out, seen
}

// isDegradable 判断召回错误是否属于"换下一个源"的降级信号。
func isDegradable(err error) bool {
	if err == nil {
		return false
	}
	if core.IsModelNotReady(err) {
		return true
	}
	de := core.GetDomainError(err)
	return de != nil && de.Module == "recall" && de.Code == "INSUFFICIENT_DATA"
}
