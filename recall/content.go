package recall

import (
	"context"
	"sort"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pkg/utils"
)

// 构建类型亲和画像时各交互的权重
const (
	genreWeightRating    = 1.0 // 高分评分
	genreWeightFavorite  = 0.8 // 收藏
	genreWeightWatchlist = 0.5 // 待看清单
)

// Content 是基于类型重合的内容召回源。
//
// 流程：
//  1. 从用户的高分评分（权重 1.0）、收藏（0.8）、待看（0.5）构建类型亲和画像
//  2. 取聚合权重 Top-3 的类型
//  3. 对票数达标的全量片库按 (类型重合数 × 2 + 均分 / 2) 打分
//
// 冷用户没有合格交互时，回退到 onboarding 声明的类型偏好作为种子；
// 两者都没有时返回 ErrInsufficientData，调用方转热门兜底。
type Content struct {
	Interactions core.InteractionStore
	Catalog      core.CatalogStore

	// LikedThreshold 评分种子的下限，默认 4.0
	LikedThreshold float64

	// MinVoteCount 候选片的票数下限，默认 50
	MinVoteCount int

	// TopGenres 画像保留的类型数，默认 3
	TopGenres int
}

func (r *Content) Name() string { return "recall.content" }

func (r *Content) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	n int,
) ([]*core.Item, error) {
	liked := r.LikedThreshold
	if liked <= 0 {
		liked = 4.0
	}
	minVotes := r.MinVoteCount
	if minVotes <= 0 {
		minVotes = 50
	}
	topGenres := r.TopGenres
	if topGenres <= 0 {
		topGenres = 3
	}

	genreScores, err := r.buildGenreAffinity(ctx, rctx, liked)
	if err != nil {
		return nil, err
	}

	// 无合格交互：用 onboarding 声明的偏好兜底
	if len(genreScores) == 0 && rctx.Profile != nil {
		genreScores = make(map[string]float64)
		for g, score := range rctx.Profile.GenrePreferences {
			if score > 0 {
				genreScores[g] = score
			}
		}
	}
	if len(genreScores) == 0 {
		return nil, ErrInsufficientData
	}

	target := topGenreSet(genreScores, topGenres)
	if len(target) == 0 {
		return nil, ErrInsufficientData
	}

	movies, err := r.Catalog.ListMovies(ctx, minVotes)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(movies))
	for _, m := range movies {
		if rctx.IsExcluded(m.ID) {
			continue
		}
		overlap := 0
		for _, g := range m.Genres {
			if _, ok := target[g]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		it := core.NewItem(m)
		it.Score = float64(overlap)*2 + m.VoteAverage/2
		it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// buildGenreAffinity 从用户交互聚合类型权重。
// 同一部电影出现在多种交互里时，按 评分 > 收藏 > 待看 的优先级只记一次。
func (r *Content) buildGenreAffinity(
	ctx context.Context,
	rctx *core.RecommendContext,
	liked float64,
) (map[string]float64, error) {
	interactions, err := r.Interactions.ListUserInteractions(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}

	seedWeights := make(map[int64]float64)
	for _, it := range interactions {
		if it.Kind == core.InteractionRating && it.Strength >= liked {
			seedWeights[it.MovieID] = genreWeightRating
		}
	}
	for _, it := range interactions {
		if it.Kind == core.InteractionFavorite {
			if _, ok := seedWeights[it.MovieID]; !ok {
				seedWeights[it.MovieID] = genreWeightFavorite
			}
		}
	}
	for _, it := range interactions {
		if it.Kind == core.InteractionWatchlist {
			if _, ok := seedWeights[it.MovieID]; !ok {
				seedWeights[it.MovieID] = genreWeightWatchlist
			}
		}
	}
	if len(seedWeights) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(seedWeights))
	for id := range seedWeights {
		ids = append(ids, id)
	}
	movies, err := r.Catalog.GetMovies(ctx, ids)
	if err != nil {
		return nil, err
	}

	genreScores := make(map[string]float64)
	for id, weight := range seedWeights {
		m, ok := movies[id]
		if !ok {
			continue
		}
		for _, g := range m.Genres {
			genreScores[g] += weight
		}
	}
	return genreScores, nil
}

// topGenreSet 取聚合权重最高的 k 个类型（同分按名字序，保证确定性）。
func topGenreSet(scores map[string]float64, k int) map[string]struct{} {
	type genreScore struct {
		genre string
		score float64
	}
	ranked := make([]genreScore, 0, len(scores))
	for g, s := range scores {
		ranked = append(ranked, genreScore{genre: g, score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].genre < ranked[j].genre
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make(map[string]struct{}, len(ranked))
	for _, gs := range ranked {
		out[gs.genre] = struct{}{}
	}
	return out
}
