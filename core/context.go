package core

import "time"

// Options 是单次推荐请求的配置开关。
type Options struct {
	// UseContext 启用时序/多样性重排（默认开启）
	UseContext bool

	// UseEmbeddings 启用可选的深度嵌入召回源（默认关闭）
	UseEmbeddings bool

	// Refresh 跳过结果缓存，强制重新计算
	Refresh bool
}

// DefaultOptions 返回默认请求配置。
func DefaultOptions() Options {
	return Options{UseContext: true}
}

// TimeOfDay 是时段分桶。
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"   // 5 - 11 点
	TimeAfternoon TimeOfDay = "afternoon" // 12 - 16 点
	TimeEvening   TimeOfDay = "evening"   // 17 - 21 点
	TimeNight     TimeOfDay = "night"     // 22 - 4 点
)

// BucketHour 把小时映射到时段分桶。
func BucketHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour <= 11:
		return TimeMorning
	case hour >= 12 && hour <= 16:
		return TimeAfternoon
	case hour >= 17 && hour <= 21:
		return TimeEvening
	default:
		return TimeNight
	}
}

// ViewingContext 是从最近交互提炼出的短期观影上下文。
type ViewingContext struct {
	TimeOfDay TimeOfDay
	Weekend   bool

	// RecentGenres 是最近交互条目携带的类型集合
	RecentGenres map[string]struct{}

	// GenreSaturation 是类型 -> 出现占比（出现次数 / 窗口大小）
	GenreSaturation map[string]float64
}

// HasHistory 检查是否存在可用的近期历史；没有历史时重排器应整体跳过。
func (vc *ViewingContext) HasHistory() bool {
	return vc != nil && len(vc.RecentGenres) > 0
}

// RecommendContext 承载用户/画像/短期上下文，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID int64

	// Profile 是用户画像；可能为 nil（画像缺失的用户仍可被推荐）
	Profile *UserProfile

	// Excluded 是本次请求的候选排除集（已看过 + 低分），召回端排序前统一生效
	Excluded map[int64]struct{}

	// Viewing 是短期观影上下文；nil 或无历史时重排器为 no-op
	Viewing *ViewingContext

	// Now 是请求时刻（时段分桶 / 周末判定的基准，测试可注入）
	Now time.Time

	// Params 请求级上下文参数（scene、设备等，埋点透传用）
	Params map[string]any
}

// IsExcluded 检查电影是否在排除集内。
func (rctx *RecommendContext) IsExcluded(movieID int64) bool {
	if rctx == nil || rctx.Excluded == nil {
		return false
	}
	_, ok := rctx.Excluded[movieID]
	return ok
}
