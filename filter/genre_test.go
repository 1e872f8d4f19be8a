package filter

import (
	"context"
	"testing"

	"github.com/reelrank/reelrank/core"
)

func movieItem(id int64, genres []string) *core.Item {
	return core.NewItem(&core.Movie{ID: id, Genres: genres})
}

func TestDislikedGenres_Process(t *testing.T) {
	node := &DislikedGenres{}
	rctx := &core.RecommendContext{
		UserID: 1,
		Profile: &core.UserProfile{
			UserID:           1,
			GenrePreferences: map[string]float64{"Action": 1.0, "Horror": -1.0},
		},
	}

	items := []*core.Item{
		movieItem(1, []string{"Action"}),
		movieItem(2, []string{"Horror", "Thriller"}), // 命中负偏好
		movieItem(3, nil),                            // 元数据缺失：保留
		movieItem(4, []string{"Comedy"}),
	}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := []int64{1, 3, 4}
	if len(out) != len(want) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(want))
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("out[%d].ID = %d, want %d", i, out[i].ID, id)
		}
	}
}

func TestDislikedGenres_AllFilteredReturnsOriginal(t *testing.T) {
	node := &DislikedGenres{}
	rctx := &core.RecommendContext{
		UserID: 1,
		Profile: &core.UserProfile{
			UserID:           1,
			GenrePreferences: map[string]float64{"Horror": -1.0},
		},
	}
	items := []*core.Item{
		movieItem(1, []string{"Horror"}),
		movieItem(2, []string{"Horror", "Thriller"}),
	}

	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	// 过滤会清空列表：整体放行
	if len(out) != len(items) {
		t.Fatalf("len(out) = %d, want all %d items back", len(out), len(items))
	}
}

func TestDislikedGenres_NoNegativePreferences(t *testing.T) {
	node := &DislikedGenres{}
	tests := []struct {
		name string
		rctx *core.RecommendContext
	}{
		{name: "nil profile", rctx: &core.RecommendContext{UserID: 1}},
		{
			name: "only positive preferences",
			rctx: &core.RecommendContext{
				UserID:  1,
				Profile: &core.UserProfile{UserID: 1, GenrePreferences: map[string]float64{"Action": 1.0}},
			},
		},
	}
	items := []*core.Item{movieItem(1, []string{"Horror"})}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := node.Process(context.Background(), tt.rctx, items)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(out) != 1 {
				t.Fatalf("len(out) = %d, want 1", len(out))
			}
		})
	}
}
