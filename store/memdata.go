package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/reelrank/reelrank/core"
)

// 本文件是领域数据接口的内存实现：电影目录、交互、用户画像、埋点。
// 用于测试、示例和原型；生产环境应替换为数据库实现。

// MemCatalog 是内存实现的 core.CatalogStore。
type MemCatalog struct {
	mu     sync.RWMutex
	movies map[int64]*core.Movie
}

func NewMemCatalog(movies ...*core.Movie) *MemCatalog {
	c := &MemCatalog{movies: make(map[int64]*core.Movie, len(movies))}
	for _, m := range movies {
		c.movies[m.ID] = m
	}
	return c
}

func (c *MemCatalog) Put(m *core.Movie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.movies[m.ID] = m
}

func (c *MemCatalog) GetMovie(ctx context.Context, movieID int64) (*core.Movie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.movies[movieID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return m, nil
}

func (c *MemCatalog) ListMovies(ctx context.Context, minVoteCount int) ([]*core.Movie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*core.Movie, 0, len(c.movies))
	for _, m := range c.movies {
		if minVoteCount > 0 && m.VoteCount < minVoteCount {
			continue
		}
		out = append(out, m)
	}
	// 固定顺序，方便上层做确定性排序
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemCatalog) GetMovies(ctx context.Context, movieIDs []int64) (map[int64]*core.Movie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]*core.Movie, len(movieIDs))
	for _, id := range movieIDs {
		if m, ok := c.movies[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

var _ core.CatalogStore = (*MemCatalog)(nil)

// MemInteractions 是内存实现的 core.InteractionStore。
// 交互按 Add 顺序追加；ListRecentInteractions 按 Timestamp 倒序返回。
type MemInteractions struct {
	mu   sync.RWMutex
	rows []core.Interaction
}

func NewMemInteractions(rows ...core.Interaction) *MemInteractions {
	return &MemInteractions{rows: rows}
}

func (s *MemInteractions) Add(rows ...core.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, rows...)
}

func (s *MemInteractions) ListAllInteractions(ctx context.Context) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Interaction(nil), s.rows...), nil
}

func (s *MemInteractions) ListUserInteractions(ctx context.Context, userID int64) ([]core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Interaction
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemInteractions) CountUserInteractions(ctx context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	for _, r := range s.rows {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *MemInteractions) ListRecentInteractions(ctx context.Context, userID int64, n int) ([]core.Interaction, error) {
	rows, err := s.ListUserInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Timestamp.After(rows[j].Timestamp)
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

var _ core.InteractionStore = (*MemInteractions)(nil)

// MemProfiles 是内存实现的 core.ProfileStore。
type MemProfiles struct {
	mu       sync.RWMutex
	profiles map[int64]*core.UserProfile
}

func NewMemProfiles(profiles ...*core.UserProfile) *MemProfiles {
	p := &MemProfiles{profiles: make(map[int64]*core.UserProfile, len(profiles))}
	for _, pr := range profiles {
		p.profiles[pr.UserID] = pr
	}
	return p
}

func (p *MemProfiles) Put(pr *core.UserProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[pr.UserID] = pr
}

func (p *MemProfiles) GetProfile(ctx context.Context, userID int64) (*core.UserProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pr, ok := p.profiles[userID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return pr, nil
}

func (p *MemProfiles) ListProfiles(ctx context.Context) ([]*core.UserProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*core.UserProfile, 0, len(p.profiles))
	for _, pr := range p.profiles {
		out = append(out, pr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

var _ core.ProfileStore = (*MemProfiles)(nil)

// MemTelemetry 是内存实现的 core.TelemetryStore。
//
// ApplyFeedback 遵循"最近一条未命中"语义：按创建顺序从后往前找
// (user, movie) 对第一条该行为尚未置位的事件并就地更新，
// 更早的事件保持不变。
type MemTelemetry struct {
	mu     sync.RWMutex
	nextID int64
	events []*core.RecommendationEvent
	logs   []*core.ModelUpdateLog
}

func NewMemTelemetry() *MemTelemetry {
	return &MemTelemetry{nextID: 1}
}

func (t *MemTelemetry) InsertEvent(ctx context.Context, ev *core.RecommendationEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *ev
	cp.ID = t.nextID
	t.nextID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.events = append(t.events, &cp)
	return nil
}

func (t *MemTelemetry) ApplyFeedback(ctx context.Context, userID, movieID int64, fb core.FeedbackUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	at := fb.At
	if at.IsZero() {
		at = time.Now()
	}
	for i := len(t.events) - 1; i >= 0; i-- {
		ev := t.events[i]
		if ev.UserID != userID || ev.MovieID != movieID {
			continue
		}
		if acted(ev, fb) {
			continue
		}
		if fb.Clicked && !ev.Clicked {
			ev.Clicked = true
			ev.ClickedAt = at
		}
		if fb.Rated && !ev.Rated {
			ev.Rated = true
			ev.RatedAt = at
			ev.RatingValue = fb.RatingValue
		}
		if fb.Favorited {
			ev.Favorited = true
		}
		if fb.Watchlisted {
			ev.Watchlisted = true
		}
		return nil
	}
	// 没有可更新的事件：反馈先于服务到达，静默忽略
	return nil
}

// acted 判断事件是否已经被该反馈里的全部行为命中过
func acted(ev *core.RecommendationEvent, fb core.FeedbackUpdate) bool {
	if fb.Clicked && !ev.Clicked {
		return false
	}
	if fb.Rated && !ev.Rated {
		return false
	}
	if fb.Favorited && !ev.Favorited {
		return false
	}
	if fb.Watchlisted && !ev.Watchlisted {
		return false
	}
	return true
}

func (t *MemTelemetry) ListEventsSince(ctx context.Context, since time.Time) ([]*core.RecommendationEvent, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*core.RecommendationEvent
	for _, ev := range t.events {
		if ev.CreatedAt.Before(since) {
			continue
		}
		cp := *ev
		out = append(out, &cp)
	}
	return out, nil
}

func (t *MemTelemetry) InsertModelUpdateLog(ctx context.Context, entry *core.ModelUpdateLog) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := *entry
	cp.ID = int64(len(t.logs) + 1)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	t.logs = append(t.logs, &cp)
	return nil
}

// ModelUpdateLogs 返回全部模型更新日志（测试/示例用）
func (t *MemTelemetry) ModelUpdateLogs() []*core.ModelUpdateLog {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*core.ModelUpdateLog(nil), t.logs...)
}

var _ core.TelemetryStore = (*MemTelemetry)(nil)
