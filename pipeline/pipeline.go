package pipeline

import (
	"context"

	"github.com/reelrank/reelrank/core"
)

// Pipeline 把推荐后处理逻辑拆成可组合的 Node 链：
// 冷/热分支产出候选集后，按序流经重排与过滤节点。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
