package recall

import (
	"context"
	"sort"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pkg/utils"
)

// Demographic 是冷启动用的人口学召回源。
//
// 对填写了年龄和/或地域的用户：找年龄带宽内或同地域的其他用户，
// 收集他们的高分评分（>= MinRating），按 交互数 × 平均分 给候选打分。
// 只在冷启动分支需要补充候选时使用。
type Demographic struct {
	Interactions core.InteractionStore
	Profiles     core.ProfileStore
	Catalog      core.CatalogStore

	// AgeBand 年龄带宽（± 岁），默认 5
	AgeBand int

	// MinRating 相似用户评分的下限，默认 4.0
	MinRating float64
}

func (r *Demographic) Name() string { return "recall.demographic" }

func (r *Demographic) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	n int,
) ([]*core.Item, error) {
	profile := rctx.Profile
	if !profile.HasDemographics() {
		return nil, ErrInsufficientData
	}

	ageBand := r.AgeBand
	if ageBand <= 0 {
		ageBand = 5
	}
	minRating := r.MinRating
	if minRating <= 0 {
		minRating = 4.0
	}

	profiles, err := r.Profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	similar := make(map[int64]struct{})
	for _, p := range profiles {
		if p.UserID == rctx.UserID {
			continue
		}
		ageMatch := profile.Age > 0 && p.Age > 0 &&
			p.Age >= profile.Age-ageBand && p.Age <= profile.Age+ageBand
		locMatch := profile.Location != "" && p.Location == profile.Location
		if ageMatch || locMatch {
			similar[p.UserID] = struct{}{}
		}
	}
	if len(similar) == 0 {
		return nil, ErrInsufficientData
	}

	all, err := r.Interactions.ListAllInteractions(ctx)
	if err != nil {
		return nil, err
	}

	type agg struct {
		count int
		sum   float64
	}
	byMovie := make(map[int64]*agg)
	for _, it := range all {
		if it.Kind != core.InteractionRating || it.Strength < minRating {
			continue
		}
		if _, ok := similar[it.UserID]; !ok {
			continue
		}
		if rctx.IsExcluded(it.MovieID) {
			continue
		}
		a, ok := byMovie[it.MovieID]
		if !ok {
			a = &agg{}
			byMovie[it.MovieID] = a
		}
		a.count++
		a.sum += it.Strength
	}
	if len(byMovie) == 0 {
		return nil, ErrInsufficientData
	}

	type scored struct {
		movieID int64
		score   float64
	}
	ranked := make([]scored, 0, len(byMovie))
	for id, a := range byMovie {
		avg := a.sum / float64(a.count)
		ranked = append(ranked, scored{movieID: id, score: float64(a.count) * avg})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
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
		it.Score = e.score
		it.PutLabel("recall_source", utils.Label{Value: "demographic", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
