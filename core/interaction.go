package core

import (
	"context"
	"time"
)

// InteractionKind 是交互类型：显式评分 / 收藏 / 待看清单。
type InteractionKind string

const (
	InteractionRating    InteractionKind = "rating"    // 显式评分（0.5 - 5.0）
	InteractionFavorite  InteractionKind = "favorite"  // 收藏（隐式信号）
	InteractionWatchlist InteractionKind = "watchlist" // 待看清单（隐式信号）
)

// 隐式强度常量：仅在该 (user, movie) 对没有显式评分时生效。
// 显式评分永远优先（收藏 > 待看）。
const (
	StrengthFavorite  = 4.5
	StrengthWatchlist = 3.5
)

// Interaction 是三种交互共享的统一形态。
// 对 rating 来说 Strength 是评分本身；对 favorite/watchlist 来说是合成的隐式强度。
type Interaction struct {
	UserID    int64
	MovieID   int64
	Kind      InteractionKind
	Strength  float64
	Timestamp time.Time
}

// InteractionStore 是交互数据的领域接口。
//
// 实现方是应用的关系存储；本引擎只读交互，不拥有其 schema。
type InteractionStore interface {
	// ListAllInteractions 读取全量三类交互（构建强度矩阵用）
	ListAllInteractions(ctx context.Context) ([]Interaction, error)

	// ListUserInteractions 读取某个用户的全量三类交互
	ListUserInteractions(ctx context.Context, userID int64) ([]Interaction, error)

	// CountUserInteractions 统计用户交互总数（冷启动判定用，评分+收藏+待看）
	CountUserInteractions(ctx context.Context, userID int64) (int, error)

	// ListRecentInteractions 读取用户最近 n 条交互，按时间倒序（最近的在前）
	ListRecentInteractions(ctx context.Context, userID int64, n int) ([]Interaction, error)
}

// BuildStrengths 把全量交互折叠成 user -> movie -> strength 矩阵。
//
// 规则：
//   - 显式评分直接作为强度，且对同一 (user, movie) 对永远优先
//   - 收藏：无评分时记 StrengthFavorite
//   - 待看：无评分时记 StrengthWatchlist
func BuildStrengths(interactions []Interaction) map[int64]map[int64]float64 {
	out := make(map[int64]map[int64]float64)
	put := func(userID, movieID int64, v float64, overwrite bool) {
		row, ok := out[userID]
		if !ok {
			row = make(map[int64]float64)
			out[userID] = row
		}
		if _, exists := row[movieID]; exists && !overwrite {
			return
		}
		row[movieID] = v
	}

	// 先落显式评分
	for _, it := range interactions {
		if it.Kind == InteractionRating {
			put(it.UserID, it.MovieID, it.Strength, true)
		}
	}
	// 收藏先于待看（强度更高的隐式信号优先占位）
	for _, it := range interactions {
		if it.Kind == InteractionFavorite {
			put(it.UserID, it.MovieID, StrengthFavorite, false)
		}
	}
	for _, it := range interactions {
		if it.Kind == InteractionWatchlist {
			put(it.UserID, it.MovieID, StrengthWatchlist, false)
		}
	}
	return out
}

// ExcludedMovieIDs 计算某个用户的候选排除集：
// 已评分 / 已收藏 / 已加待看的全部电影（低分电影天然包含在已评分集合内）。
// 排除集在召回端（排序前）统一生效。
func ExcludedMovieIDs(interactions []Interaction) map[int64]struct{} {
	excluded := make(map[int64]struct{}, len(interactions))
	for _, it := range interactions {
		excluded[it.MovieID] = struct{}{}
	}
	return excluded
}

// LowRatedMovieIDs 单独取出评分 <= ceiling 的电影集合，
// 供需要区分"看过"与"明确不喜欢"的调用方使用。
func LowRatedMovieIDs(interactions []Interaction, ceiling float64) map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, it := range interactions {
		if it.Kind == InteractionRating && it.Strength <= ceiling {
			out[it.MovieID] = struct{}{}
		}
	}
	return out
}
