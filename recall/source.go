package recall

import (
	"context"

	"github.com/reelrank/reelrank/core"
)

// Source 表示一个可复用的召回源（热门/Item-CF/内容/人口学/隐因子/...）。
// 你可以把它理解为"可按配额组合的策略单元"。
//
// 约定：
//   - n 是期望的候选数量；返回可以少于 n，调用方按回退链补齐
//   - 实现必须尊重 rctx.Excluded（已看过/低分的条目不得出现在结果里）
//   - 实现必须给每个条目打 recall_source 标签（埋点归因用）
//   - 数据不足时返回 ErrInsufficientData，由调用方静默降级，绝不上抛
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext, n int) ([]*core.Item, error)
}

// ErrInsufficientData 表示召回源缺少足够数据，调用方应换下一个回退源。
// 这是回退链的控制信号，不是故障。
var ErrInsufficientData = core.NewDomainError("recall", "INSUFFICIENT_DATA", "recall: not enough data for this source")

// EmbeddingSource 是可选的深度嵌入召回源需要满足的契约。
//
// 引擎本身不实现嵌入模型；外部子系统（依赖模型权重）实现该接口后，
// 即可在启用 UseEmbeddings 时按 40/30/20/10 的权重参与混合排序。
// 契约与 Source 一致：尊重排除集、打 recall_source 标签、
// 不可用时返回 ErrInsufficientData。
type EmbeddingSource interface {
	Source
}
