package core

import (
	"context"
	"sort"
)

// UserProfile 是用户画像。
//
// 维度          作用
// 人口属性      冷启动的人口学召回（年龄段 / 地域）
// 类型偏好      内容召回的种子 + 硬性负偏好过滤
// 引导完成标记  决定画像是否可信
//
// 画像由 onboarding / 设置页写入；对推荐引擎而言是只读的。
type UserProfile struct {
	UserID   int64
	Age      int    // 0 表示未填写
	Location string // 空串表示未填写

	// GenrePreferences 是类型 -> 偏好分的映射。
	// 正数 = 喜欢，负数 = 不喜欢；负偏好是硬性约束，在重排之后仍然生效。
	GenrePreferences map[string]float64

	// OnboardingCompleted 标记用户是否完成引导
	OnboardingCompleted bool
}

// DislikedGenres 返回偏好分 < 0 的类型集合。
func (p *UserProfile) DislikedGenres() map[string]struct{} {
	if p == nil || len(p.GenrePreferences) == 0 {
		return nil
	}
	out := make(map[string]struct{})
	for g, score := range p.GenrePreferences {
		if score < 0 {
			out[g] = struct{}{}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// LikedGenres 返回偏好分 > 0 的类型及其权重，按权重降序（同分按名字序，保证确定性）。
func (p *UserProfile) LikedGenres() []string {
	if p == nil || len(p.GenrePreferences) == 0 {
		return nil
	}
	type genreScore struct {
		genre string
		score float64
	}
	liked := make([]genreScore, 0, len(p.GenrePreferences))
	for g, score := range p.GenrePreferences {
		if score > 0 {
			liked = append(liked, genreScore{genre: g, score: score})
		}
	}
	sort.Slice(liked, func(i, j int) bool {
		if liked[i].score != liked[j].score {
			return liked[i].score > liked[j].score
		}
		return liked[i].genre < liked[j].genre
	})
	out := make([]string, 0, len(liked))
	for _, gs := range liked {
		out = append(out, gs.genre)
	}
	return out
}

// HasDemographics 检查画像是否携带可用的人口属性（年龄或地域任一即可）。
func (p *UserProfile) HasDemographics() bool {
	return p != nil && (p.Age > 0 || p.Location != "")
}

// ProfileStore 是用户画像的领域接口。
type ProfileStore interface {
	// GetProfile 读取单个用户画像；不存在时返回 ErrStoreNotFound
	GetProfile(ctx context.Context, userID int64) (*UserProfile, error)

	// ListProfiles 读取全量画像（人口学召回遍历相似用户用）
	ListProfiles(ctx context.Context) ([]*UserProfile, error)
}
