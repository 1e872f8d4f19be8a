// Package config 提供引擎的 YAML 配置加载与默认值。
// 零值字段在 normalize 阶段回填默认值，调用方拿到的配置总是完整的。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Weights 是热路径各召回源的配额占比，总和应为 1.0。
type Weights struct {
	MF        float64 `yaml:"mf"`
	ItemCF    float64 `yaml:"itemcf"`
	Content   float64 `yaml:"content"`
	Embedding float64 `yaml:"embedding"` // 仅在启用嵌入源的权重组里非零
}

// Config 是推荐引擎的全量配置。
type Config struct {
	// 冷启动判定：评分+收藏+待看总数低于该阈值即视为冷用户
	ColdStartThreshold int `yaml:"cold_start_threshold"`

	// 喜欢阈值：评分 >= 该值的条目作为召回种子
	LikedThreshold float64 `yaml:"liked_threshold"`

	// 排除上限：评分 <= 该值的条目视为明确不喜欢
	LowRatingCeiling float64 `yaml:"low_rating_ceiling"`

	// 内容召回的票数下限
	ContentMinVoteCount int `yaml:"content_min_vote_count"`

	// 热门兜底的票数下限
	PopularMinVoteCount int `yaml:"popular_min_vote_count"`

	// 内容召回取 Top 几个类型构建亲和画像
	TopGenres int `yaml:"top_genres"`

	// Item-CF：全系统评分少于该值时直接走热门兜底
	MinSystemRatings int `yaml:"min_system_ratings"`

	// Item-CF：每个种子条目取 TopK 个相似条目
	TopKSimilarItems int `yaml:"top_k_similar_items"`

	// 人口学召回的年龄带宽（± 岁）
	DemographicAgeBand int `yaml:"demographic_age_band"`

	// 人口学召回的高分阈值
	DemographicMinRating float64 `yaml:"demographic_min_rating"`

	// 隐因子模型的目标分量数（实际秩 = min(该值, 矩阵短边-1)）
	MFComponents int `yaml:"mf_components"`

	// 隐因子模型构建所需的最少评分数
	MinRatingsForModel int `yaml:"min_ratings_for_model"`

	// 增量更新阈值：自上次成功日志以来新增评分达到该值时主动重建
	IncrementalUpdateThreshold int `yaml:"incremental_update_threshold"`

	// 短期上下文窗口：取最近 N 条交互
	RecentWindow int `yaml:"recent_window"`

	// 多样性提升系数
	DiversityBoost float64 `yaml:"diversity_boost"`

	// 热路径权重（默认 60/25/15）
	WarmWeights Weights `yaml:"warm_weights"`

	// 启用嵌入源时的权重（40/30/20/10）
	EmbeddingWeights Weights `yaml:"embedding_weights"`

	// 结果缓存 TTL（秒）；<= 0 表示不缓存
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// 运营侧 CEL 过滤规则（命中即剔除），详见 pkg/dsl
	Rules []string `yaml:"rules"`
}

// Default 返回默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

// LoadFromYAML 从 YAML 文件加载配置，未出现的字段回填默认值。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// normalize 把零值字段回填为默认值。
func (c *Config) normalize() {
	if c.ColdStartThreshold <= 0 {
		c.ColdStartThreshold = 3
	}
	if c.LikedThreshold <= 0 {
		c.LikedThreshold = 4.0
	}
	if c.LowRatingCeiling <= 0 {
		c.LowRatingCeiling = 2.0
	}
	if c.ContentMinVoteCount <= 0 {
		c.ContentMinVoteCount = 50
	}
	if c.PopularMinVoteCount <= 0 {
		c.PopularMinVoteCount = 100
	}
	if c.TopGenres <= 0 {
		c.TopGenres = 3
	}
	if c.MinSystemRatings <= 0 {
		c.MinSystemRatings = 3
	}
	if c.TopKSimilarItems <= 0 {
		c.TopKSimilarItems = 20
	}
	if c.DemographicAgeBand <= 0 {
		c.DemographicAgeBand = 5
	}
	if c.DemographicMinRating <= 0 {
		c.DemographicMinRating = 4.0
	}
	if c.MFComponents <= 0 {
		c.MFComponents = 20
	}
	if c.MinRatingsForModel <= 0 {
		c.MinRatingsForModel = 10
	}
	if c.IncrementalUpdateThreshold <= 0 {
		c.IncrementalUpdateThreshold = 50
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = 10
	}
	if c.DiversityBoost <= 0 {
		c.DiversityBoost = 0.2
	}
	if c.WarmWeights == (Weights{}) {
		c.WarmWeights = Weights{MF: 0.60, ItemCF: 0.25, Content: 0.15}
	}
	if c.EmbeddingWeights == (Weights{}) {
		c.EmbeddingWeights = Weights{Embedding: 0.40, MF: 0.30, ItemCF: 0.20, Content: 0.10}
	}
	if c.CacheTTLSeconds == 0 {
		c.CacheTTLSeconds = 3600
	}
}
