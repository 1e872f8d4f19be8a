package rerank

import (
	"context"
	"testing"

	"github.com/reelrank/reelrank/core"
)

func itemWithGenres(id int64, runtime int, genres ...string) *core.Item {
	return core.NewItem(&core.Movie{ID: id, Genres: genres, Runtime: runtime})
}

func historyContext(timeOfDay core.TimeOfDay, weekend bool) *core.RecommendContext {
	return &core.RecommendContext{
		UserID: 1,
		Viewing: &core.ViewingContext{
			TimeOfDay:       timeOfDay,
			Weekend:         weekend,
			RecentGenres:    map[string]struct{}{"Drama": {}},
			GenreSaturation: map[string]float64{"Drama": 0.3},
		},
	}
}

func TestTemporal_EveningWeekdayFavorsDrama(t *testing.T) {
	items := []*core.Item{
		itemWithGenres(1, 100, "Animation", "Family"),
		itemWithGenres(2, 100, "Drama", "Thriller"), // 晚间表 ×2 + 工作日表 ×1
		itemWithGenres(3, 100, "Comedy"),
	}
	node := &Temporal{}

	out, err := node.Process(context.Background(), historyContext(core.TimeEvening, false), items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out[0].ID != 2 {
		t.Fatalf("out[0].ID = %d, want drama/thriller movie 2", out[0].ID)
	}
}

func TestTemporal_RuntimeAdjustment(t *testing.T) {
	tests := []struct {
		name    string
		weekend bool
		items   []*core.Item
		wantTop int64
	}{
		{
			name:    "weekend rewards long movies",
			weekend: true,
			items: []*core.Item{
				itemWithGenres(1, 95, "Documentary"),
				itemWithGenres(2, 150, "Documentary"),
			},
			wantTop: 2,
		},
		{
			name:    "weekday penalizes very long movies",
			weekend: false,
			items: []*core.Item{
				itemWithGenres(1, 180, "Romance"),
				itemWithGenres(2, 95, "Romance"),
			},
			wantTop: 2,
		},
	}
	node := &Temporal{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := node.Process(context.Background(), historyContext(core.TimeEvening, tt.weekend), tt.items)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if out[0].ID != tt.wantTop {
				t.Fatalf("out[0].ID = %d, want %d", out[0].ID, tt.wantTop)
			}
		})
	}
}

func TestTemporal_NoopWithoutHistory(t *testing.T) {
	items := []*core.Item{
		itemWithGenres(1, 100, "Animation"),
		itemWithGenres(2, 100, "Drama"),
	}
	rctx := &core.RecommendContext{UserID: 1, Viewing: &core.ViewingContext{TimeOfDay: core.TimeEvening}}
	node := &Temporal{}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	for i := range items {
		if out[i] != items[i] {
			t.Fatal("order changed despite missing history")
		}
	}
}

func TestTemporal_StableOnTies(t *testing.T) {
	// 同分条目必须保持进入时的顺序
	items := []*core.Item{
		itemWithGenres(3, 100, "Western"),
		itemWithGenres(1, 100, "Western"),
		itemWithGenres(2, 100, "Western"),
	}
	node := &Temporal{}

	out, err := node.Process(context.Background(), historyContext(core.TimeEvening, false), items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []int64{3, 1, 2}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("out[%d].ID = %d, want %d", i, out[i].ID, id)
		}
	}
}
