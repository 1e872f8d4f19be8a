package rerank

import (
	"context"
	"time"

	"github.com/reelrank/reelrank/core"
)

// ExtractViewingContext 从用户最近 N 条交互（时间倒序）提炼短期观影上下文：
// 时段分桶、周末标记、近期类型集合、以及每个类型的饱和度（出现次数 / N）。
//
// 没有近期历史时返回的上下文 HasHistory() == false，两个重排器整体跳过。
func ExtractViewingContext(
	ctx context.Context,
	interactions core.InteractionStore,
	catalog core.CatalogStore,
	rctx *core.RecommendContext,
	window int,
) (*core.ViewingContext, error) {
	if window <= 0 {
		window = 10
	}

	vc := &core.ViewingContext{
		TimeOfDay:       core.BucketHour(rctx.Now.Hour()),
		Weekend:         isWeekend(rctx.Now),
		RecentGenres:    make(map[string]struct{}),
		GenreSaturation: make(map[string]float64),
	}

	recent, err := interactions.ListRecentInteractions(ctx, rctx.UserID, window)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return vc, nil
	}

	ids := make([]int64, 0, len(recent))
	for _, it := range recent {
		ids = append(ids, it.MovieID)
	}
	movies, err := catalog.GetMovies(ctx, ids)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, it := range recent {
		m, ok := movies[it.MovieID]
		if !ok {
			continue
		}
		for _, g := range m.Genres {
			counts[g]++
		}
	}
	for g, c := range counts {
		vc.RecentGenres[g] = struct{}{}
		vc.GenreSaturation[g] = float64(c) / float64(window)
	}
	return vc, nil
}

func isWeekend(t time.Time) bool {
	w := t.Weekday()
	return w == time.Saturday || w == time.Sunday
}
