package filter

import (
	"context"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pkg/dsl"
)

// RuleFilter 是 CEL 规则过滤器：表达式命中即剔除。
// 规则由运营侧配置（config.Rules），表达式语法见 pkg/dsl。
//
// 求值出错按"不匹配"处理（宽容策略：规则坏了不应该吞掉推荐结果）。
type RuleFilter struct {
	rule *dsl.Rule
}

// NewRuleFilter 编译一条规则表达式；表达式非法时返回错误。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	rule, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{rule: rule}, nil
}

func (f *RuleFilter) Name() string { return "filter.rule" }

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	matched, err := f.rule.Match(item, rctx)
	if err != nil {
		return false, nil
	}
	return matched, nil
}
