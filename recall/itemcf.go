package recall

import (
	"context"
	"sort"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pkg/utils"
)

// ItemCF 是基于物品相似度的协同召回源（Item-based CF, i2i）。
//
// 流程：
//  1. 用全系统评分（不只是当前用户的）构建 电影×用户 强度倒排表
//  2. 计算种子电影与其余电影的两两余弦相似度
//  3. 种子 = 用户评分 >= 喜欢阈值的电影；没有合格评分时退用收藏
//  4. 对每个种子取 TopK 相似电影，按 相似度 × 种子强度 加权累加
//
// 相似度计算对片库规模是平方级的 —— 可接受：结果在引擎层按请求维度缓存，
// 热路径内不会逐条重复计算。
//
// 保证：同一份评分快照产出确定的结果；
// 全系统评分少于 MinSystemRatings 时返回 ErrInsufficientData（调用方转热门兜底）。
type ItemCF struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore

	// LikedThreshold 种子评分下限，默认 4.0
	LikedThreshold float64

	// MinSystemRatings 全系统评分下限，默认 3
	MinSystemRatings int

	// TopKSimilar 每个种子保留的相似电影数，默认 20
	TopKSimilar int
}

func (r *ItemCF) Name() string { return "recall.itemcf" }

func (r *ItemCF) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	n int,
) ([]*core.Item, error) {
	liked := r.LikedThreshold
	if liked <= 0 {
		liked = 4.0
	}
	minRatings := r.MinSystemRatings
	if minRatings <= 0 {
		minRatings = 3
	}
	topK := r.TopKSimilar
	if topK <= 0 {
		topK = 20
	}

	all, err := r.Interactions.ListAllInteractions(ctx)
	if err != nil {
		return nil, err
	}

	// 电影 -> 用户 -> 评分 倒排表（只用显式评分）
	itemVectors := make(map[int64]map[int64]float64)
	var ratingCount int
	for _, it := range all {
		if it.Kind != core.InteractionRating {
			continue
		}
		ratingCount++
		vec, ok := itemVectors[it.MovieID]
		if !ok {
			vec = make(map[int64]float64)
			itemVectors[it.MovieID] = vec
		}
		vec[it.UserID] = it.Strength
	}
	if ratingCount < minRatings {
		return nil, ErrInsufficientData
	}

	seeds := r.collectSeeds(all, rctx.UserID, liked)
	if len(seeds) == 0 {
		return nil, ErrInsufficientData
	}

	// 范数预计算，摊还两两相似度的开销
	norms := make(map[int64]float64, len(itemVectors))
	for id, vec := range itemVectors {
		norms[id] = sparseNorm(vec)
	}
	// 确定性遍历顺序
	candidateIDs := make([]int64, 0, len(itemVectors))
	for id := range itemVectors {
		candidateIDs = append(candidateIDs, id)
	}
	sort.Slice(candidateIDs, func(i, j int) bool { return candidateIDs[i] < candidateIDs[j] })

	type simEntry struct {
		movieID int64
		sim     float64
	}
	scores := make(map[int64]float64)

	for _, seed := range seeds {
		seedVec, ok := itemVectors[seed.movieID]
		if !ok {
			continue // 种子只有隐式信号、没有评分向量
		}
		sims := make([]simEntry, 0, len(candidateIDs))
		for _, candID := range candidateIDs {
			if candID == seed.movieID || rctx.IsExcluded(candID) {
				continue
			}
			sim := cosineSparse(seedVec, itemVectors[candID], norms[seed.movieID], norms[candID])
			if sim > 0 {
				sims = append(sims, simEntry{movieID: candID, sim: sim})
			}
		}
		sort.SliceStable(sims, func(i, j int) bool { return sims[i].sim > sims[j].sim })
		if len(sims) > topK {
			sims = sims[:topK]
		}
		for _, se := range sims {
			scores[se.movieID] += se.sim * seed.strength
		}
	}
	if len(scores) == 0 {
		return nil, ErrInsufficientData
	}

	ranked := make([]simEntry, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, simEntry{movieID: id, sim: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].sim != ranked[j].sim {
			return ranked[i].sim > ranked[j].sim
		}
		return ranked[i].movieID < ranked[j].movieID
	})
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
		it.Score = e.sim
		it.PutLabel("recall_source", utils.Label{Value: "itemcf", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

type seedEntry struct {
	movieID  int64
	strength float64
}

// collectSeeds 取用户的喜欢种子：评分 >= liked 的电影；
// 没有合格评分时退用收藏（隐式强度）。
func (r *ItemCF) collectSeeds(all []core.Interaction, userID int64, liked float64) []seedEntry {
	var seeds []seedEntry
	for _, it := range all {
		if it.UserID == userID && it.Kind == core.InteractionRating && it.Strength >= liked {
			seeds = append(seeds, seedEntry{movieID: it.MovieID, strength: it.Strength})
		}
	}
	if len(seeds) > 0 {
		return seeds
	}
	for _, it := range all {
		if it.UserID == userID && it.Kind == core.InteractionFavorite {
			seeds = append(seeds, seedEntry{movieID: it.MovieID, strength: core.StrengthFavorite})
		}
	}
	return seeds
}
