package recall

import (
	"context"
	"sort"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pkg/utils"
)

// Popular 是热门兜底召回源：票数达标的电影按均分降序。
//
// 它是所有其他召回源回退链的终点 —— 对非空片库绝不返回错误；
// 唯一可能的"空结果"是用户已经看过全部达标电影。
type Popular struct {
	Catalog core.CatalogStore

	// MinVoteCount 票数下限，默认 100
	MinVoteCount int
}

func (r *Popular) Name() string { return "recall.popular" }

func (r *Popular) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	n int,
) ([]*core.Item, error) {
	minVotes := r.MinVoteCount
	if minVotes <= 0 {
		minVotes = 100
	}

	movies, err := r.Catalog.ListMovies(ctx, minVotes)
	if err != nil {
		return nil, err
	}

	// 均分降序；同分按 ID 升序，保证确定性
	sort.Slice(movies, func(i, j int) bool {
		if movies[i].VoteAverage != movies[j].VoteAverage {
			return movies[i].VoteAverage > movies[j].VoteAverage
		}
		return movies[i].ID < movies[j].ID
	})

	out := make([]*core.Item, 0, n)
	for _, m := range movies {
		if rctx.IsExcluded(m.ID) {
			continue
		}
		it := core.NewItem(m)
		it.Score = m.VoteAverage
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
		if len(out) >= n {
			break
		}
	}
	return out, nil
}
