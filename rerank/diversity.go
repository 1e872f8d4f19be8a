package rerank

import (
	"context"
	"sort"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pipeline"
)

// 引入全新类型的一次性奖励
const noveltyBonus = 0.3

// Diversity 是多样性提升重排 Node：偏向近期历史里未出现的类型。
//
// 每个候选的多样性分 = 未出现在近期类型集合里的类型数 × Boost
//   - 已出现类型的饱和度之和
//   + 引入任何全新类型时的一次性奖励
//
// 按多样性分稳定降序排序；用户没有近期历史时整体跳过（no-op）。
type Diversity struct {
	// Boost 提升系数，默认 0.2
	Boost float64
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil || !rctx.Viewing.HasHistory() {
		return items, nil
	}
	vc := rctx.Viewing

	boost := n.Boost
	if boost <= 0 {
		boost = 0.2
	}

	scores := make(map[*core.Item]float64, len(items))
	for _, it := range items {
		var novel int
		var saturation float64
		for _, g := range it.Genres() {
			if _, seen := vc.RecentGenres[g]; seen {
				saturation += vc.GenreSaturation[g]
			} else {
				novel++
			}
		}
		score := float64(novel)*boost - saturation
		if novel > 0 {
			score += noveltyBonus
		}
		scores[it] = score
	}

	out := append([]*core.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return scores[out[i]] > scores[out[j]] })
	return out, nil
}
