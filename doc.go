// Package reelrank 是一个混合电影推荐引擎（Reel Ranking Engine）。
//
// 设计要点：
// - Hybrid-first: 隐因子 / Item-CF / 内容 / 人口学 / 热门多路召回，按权重配额混排
// - Pipeline-first: 重排与过滤通过 Node 串联（Recall → Filter → ReRank → PostProcess）
// - Labels-first: recall_source 标签全链路透传，支撑 explain 与算法效果归因
// - 冷启动友好: 交互不足的用户走 内容 → 人口学 → 热门 的降级链
package reelrank

import "github.com/reelrank/reelrank/pipeline"

// 轻量 facade：便于用户直接 import "reelrank" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
