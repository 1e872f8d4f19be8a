package core

import (
	"context"
	"encoding/json"
	"strings"
)

// Movie 是片库中的一个条目。
//
// 目录身份（ID/Title/Genres/Runtime）在入库后不可变；
// 热度统计（VoteAverage/VoteCount/Popularity）由 ETL 管线持续刷新。
// Genres 在入库边界统一解析为 []string，读取侧不再做二次解析。
type Movie struct {
	ID          int64
	Title       string
	Genres      []string // 入库时解析；解析失败时为 nil（宽容处理，见 filter 包）
	VoteAverage float64  // 0-10
	VoteCount   int
	Popularity  float64
	Runtime     int // 分钟
}

// HasGenre 检查电影是否带有某个类型标签。
func (m *Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// CatalogStore 是片库的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store 或外部 DB 仓储）实现
//   - 召回源只消费这三个读操作，不感知底层 schema
type CatalogStore interface {
	// GetMovie 读取单部电影；不存在时返回 ErrStoreNotFound
	GetMovie(ctx context.Context, movieID int64) (*Movie, error)

	// ListMovies 读取所有 VoteCount >= minVoteCount 的电影（minVoteCount <= 0 表示全量）
	ListMovies(ctx context.Context, minVoteCount int) ([]*Movie, error)

	// GetMovies 批量读取（推荐链路常用，减少往返）；缺失的 ID 直接跳过
	GetMovies(ctx context.Context, movieIDs []int64) (map[int64]*Movie, error)
}

// ParseGenres 宽容地解析类型字段：JSON 数组、逗号分隔串均可。
// 解析失败返回 nil；缺失类型的条目在过滤链路中享受"疑罪从无"，永远不会因此被过滤。
func ParseGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var parsed []string
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			return parsed
		}
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
