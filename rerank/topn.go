package rerank

import (
	"context"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pipeline"
)

// TopN 是截断 Node：保留前 N 个条目。
// N <= 0 时不截断。
type TopN struct {
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *TopN) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
