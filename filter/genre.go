package filter

import (
	"context"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pipeline"
	"github.com/reelrank/reelrank/pkg/utils"
)

// DislikedGenres 是负偏好类型过滤 Node。
//
// 它剔除类型集合与用户负偏好（偏好分 < 0）相交的条目。作为硬性偏好约束，
// 它排在全部重排之后执行，重排无法把被过滤的条目"救回来"。
//
// 两条宽容规则：
//   - 如果过滤会清空整个列表，则本次调用整体放行（宁可展示次优结果也不给空页）
//   - 条目类型元数据缺失（Genres 为 nil）时一律保留（疑罪从无）
type DislikedGenres struct{}

func (n *DislikedGenres) Name() string        { return "filter.disliked_genres" }
func (n *DislikedGenres) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *DislikedGenres) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil {
		return items, nil
	}
	disliked := rctx.Profile.DislikedGenres()
	if len(disliked) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		genres := it.Genres()
		if genres == nil {
			// 元数据缺失：保留
			out = append(out, it)
			continue
		}
		hit := false
		for _, g := range genres {
			if _, ok := disliked[g]; ok {
				hit = true
				break
			}
		}
		if hit {
			it.PutLabel("filtered", utils.Label{Value: "disliked_genre", Source: n.Name()})
			continue
		}
		out = append(out, it)
	}

	// 过滤会清空列表时整体放行
	if len(out) == 0 {
		return items, nil
	}
	return out, nil
}
