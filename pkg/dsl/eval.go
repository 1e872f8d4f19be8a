package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/reelrank/reelrank/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义可用变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("user", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Rule 是一条编译后的 CEL (Common Expression Language) 规则。
// 表达式编译一次，之后可对任意数量的候选条目复用求值。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.vote_count < 100 / item.score >= 0.5
//   - 类型："Documentary" in item.genres
//   - 归因：label.recall_source == "popular"
//   - 逻辑：item.runtime > 180 && !user.weekend
//
// 示例：
//   - `item.vote_count < 100 && label.recall_source == "content"`
//     → 过滤内容召回里的低票数条目
//   - `"Documentary" in item.genres && item.runtime > 150`
//     → 过滤超长纪录片
type Rule struct {
	expr string
	prg  cel.Program
}

// Compile 编译一条规则表达式。
func Compile(expr string) (*Rule, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env error: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %w", err)
	}
	return &Rule{expr: expr, prg: prg}, nil
}

// Expr 返回规则原始表达式（日志 / 观测用）。
func (r *Rule) Expr() string { return r.expr }

// Match 对单个候选条目求值，返回布尔结果。
// 访问不存在的 key 会返回错误；调用方可把错误视为"不匹配"以保证宽容语义。
func (r *Rule) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := r.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	// label.recall_source 直接访问 Label 的 value
	labels := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}

	genres := []string{}
	runtime := 0
	voteAverage := 0.0
	voteCount := 0
	if it.Movie != nil {
		if it.Movie.Genres != nil {
			genres = it.Movie.Genres
		}
		runtime = it.Movie.Runtime
		voteAverage = it.Movie.VoteAverage
		voteCount = it.Movie.VoteCount
	}

	item := map[string]any{
		"id":           it.ID,
		"score":        it.Score,
		"genres":       genres,
		"runtime":      runtime,
		"vote_average": voteAverage,
		"vote_count":   voteCount,
	}

	user := map[string]any{"id": int64(0), "weekend": false}
	if rctx != nil {
		user["id"] = rctx.UserID
		if rctx.Viewing != nil {
			user["weekend"] = rctx.Viewing.Weekend
		}
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"user":  user,
	}
}
