package core

import "github.com/reelrank/reelrank/pkg/utils"

// Item 是推荐链路中的统一承载结构：电影元数据、分数、标签。
// Labels 用于解释与埋点归因；Score 用于排序决策。
type Item struct {
	ID     int64
	Score  float64
	Movie  *Movie // 候选生成时即完成水合；过滤/重排直接读元数据
	Labels map[string]utils.Label
}

func NewItem(movie *Movie) *Item {
	return &Item{
		ID:     movie.ID,
		Score:  0,
		Movie:  movie,
		Labels: make(map[string]utils.Label),
	}
}

// Genres 返回电影的类型标签；元数据缺失时返回 nil。
func (it *Item) Genres() []string {
	if it.Movie == nil {
		return nil
	}
	return it.Movie.Genres
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Source 返回物品的召回来源标签（第一来源）；没有时返回空串。
func (it *Item) Source() string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels["recall_source"].Value
}
