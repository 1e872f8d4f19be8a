package rerank

import (
	"context"
	"sort"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pipeline"
)

// 各时段的类型亲和表（固定表，来自观影习惯的先验）
var timeOfDayGenres = map[core.TimeOfDay][]string{
	core.TimeMorning:   {"Animation", "Family", "Comedy", "Adventure"},
	core.TimeAfternoon: {"Action", "Adventure", "Comedy", "Science Fiction"},
	core.TimeEvening:   {"Drama", "Thriller", "Mystery", "Crime"},
	core.TimeNight:     {"Horror", "Thriller", "Mystery", "Science Fiction"},
}

// 周末 / 工作日的类型亲和表
var (
	weekendGenres = []string{"Action", "Adventure", "Comedy", "Family", "Animation"}
	weekdayGenres = []string{"Drama", "Documentary", "Thriller", "Crime"}
)

// 时序打分权重
const (
	timeOfDayWeight = 1.0
	weekendWeight   = 0.5

	// 片长调节：周末适合长片，工作日惩罚超长片
	longRuntimeMin    = 120
	veryLongRuntime   = 150
	runtimeBonus      = 0.3
	runtimePenalty    = 0.3
)

// Temporal 是时序亲和重排 Node。
//
// 每个候选的时序分 = 与当前时段类型表的重合数 × 1.0
//   + 与周末/工作日类型表的重合数 × 0.5
//   + 片长调节（周末 >= 120 分钟 +0.3；工作日 > 150 分钟 -0.3）
//
// 按时序分稳定降序排序（原始顺序即同分判据）。
// 用户没有近期历史时整体跳过（no-op）。
type Temporal struct{}

func (n *Temporal) Name() string        { return "rerank.temporal" }
func (n *Temporal) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Temporal) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil || !rctx.Viewing.HasHistory() {
		return items, nil
	}
	vc := rctx.Viewing

	dayTable := toSet(timeOfDayGenres[vc.TimeOfDay])
	var weekTable map[string]struct{}
	if vc.Weekend {
		weekTable = toSet(weekendGenres)
	} else {
		weekTable = toSet(weekdayGenres)
	}

	scores := make(map[*core.Item]float64, len(items))
	for _, it := range items {
		var score float64
		for _, g := range it.Genres() {
			if _, ok := dayTable[g]; ok {
				score += timeOfDayWeight
			}
			if _, ok := weekTable[g]; ok {
				score += weekendWeight
			}
		}
		if it.Movie != nil {
			if vc.Weekend && it.Movie.Runtime >= longRuntimeMin {
				score += runtimeBonus
			}
			if !vc.Weekend && it.Movie.Runtime > veryLongRuntime {
				score -= runtimePenalty
			}
		}
		scores[it] = score
	}

	out := append([]*core.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return scores[out[i]] > scores[out[j]] })
	return out, nil
}

func toSet(genres []string) map[string]struct{} {
	out := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		out[g] = struct{}{}
	}
	return out
}
