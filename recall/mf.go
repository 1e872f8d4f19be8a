package recall

import (
	"context"
	"sort"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/model"
	"github.com/reelrank/reelrank/pkg/utils"
)

// MF 是基于隐因子模型（矩阵分解）的召回源。
//
// 预测分数 = 用户隐向量 · 电影隐向量（模型由 model.Manager 统一持有与重建）。
//
// 两类不可用情形都以 core.ErrModelNotReady 上报，调用方把对应配额
// 让给 Item-CF：
//   - 模型本身构建失败（评分太少 / 秩过低）
//   - 用户在上次构建之后才出现，不在训练索引内
type MF struct {
	Models  *model.Manager
	Catalog core.CatalogStore
}

func (r *MF) Name() string { return "recall.mf" }

func (r *MF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	n int,
) ([]*core.Item, error) {
	f, err := r.Models.Current(ctx)
	if err != nil {
		return nil, err
	}

	scores, ok := f.Predict(rctx.UserID)
	if !ok {
		return nil, core.ErrModelNotReady
	}

	type scored struct {
		movieID int64
		score   float64
	}
	ranked := make([]scored, 0, len(scores))
	for i, s := range scores {
		movieID := f.ItemIDs[i]
		if rctx.IsExcluded(movieID) {
			continue
		}
		ranked = append(ranked, scored{movieID: movieID, score: s})
	}
	// 稳定排序：同分保持 ItemIDs 的既有索引顺序
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	ids := make([]int64, 0, len(ranked))
	for _, e := range ranked {
		ids = append(ids, e.movieID)
	}
	movies, err := r.Catalog.GetMovies(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, e := range ranked {
		m, ok := movies[e.movieID]
		if !ok {
			continue
		}
		it := core.NewItem(m)
		it.Score = e.score
		it.PutLabel("recall_source", utils.Label{Value: "mf", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
