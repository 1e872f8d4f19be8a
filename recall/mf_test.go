package recall

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/model"
	"github.com/reelrank/reelrank/store"
)

func mfFixture() (*store.MemInteractions, *store.MemCatalog) {
	now := time.Now()
	mk := func(user, movie int64, rating float64) core.Interaction {
		return core.Interaction{UserID: user, MovieID: movie, Kind: core.InteractionRating, Strength: rating, Timestamp: now}
	}
	interactions := store.NewMemInteractions(
		mk(1, 10, 5.0), mk(1, 11, 4.5), mk(1, 12, 1.0),
		mk(2, 10, 4.5), mk(2, 11, 5.0), mk(2, 13, 1.5),
		mk(3, 12, 5.0), mk(3, 13, 4.5), mk(3, 10, 1.0),
		mk(4, 12, 4.5), mk(4, 13, 5.0), mk(4, 11, 1.0),
	)
	catalog := store.NewMemCatalog(
		&core.Movie{ID: 10, Title: "A", VoteCount: 100},
		&core.Movie{ID: 11, Title: "B", VoteCount: 100},
		&core.Movie{ID: 12, Title: "C", VoteCount: 100},
		&core.Movie{ID: 13, Title: "D", VoteCount: 100},
	)
	return interactions, catalog
}

func TestMF_Recall(t *testing.T) {
	interactions, catalog := mfFixture()
	models := model.NewManager(interactions, nil, 2, 4, 50, zerolog.Nop())
	src := &MF{Models: models, Catalog: catalog}
	rctx := &core.RecommendContext{
		UserID:   1,
		Excluded: map[int64]struct{}{10: {}, 11: {}, 12: {}},
	}

	items, err := src.Recall(context.Background(), rctx, 10)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	// 用户 1 只剩电影 13 可推
	if len(items) != 1 || items[0].ID != 13 {
		t.Fatalf("items = %v, want [13]", ids(items))
	}
	if items[0].Source() != "mf" {
		t.Fatalf("source = %q, want mf", items[0].Source())
	}
}

func TestMF_ModelNotReady(t *testing.T) {
	catalog := store.NewMemCatalog()
	tests := []struct {
		name         string
		interactions *store.MemInteractions
		userID       int64
	}{
		{name: "too few ratings", interactions: store.NewMemInteractions(), userID: 1},
		{name: "user outside training index", interactions: func() *store.MemInteractions { m, _ := mfFixture(); return m }(), userID: 999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			models := model.NewManager(tt.interactions, nil, 2, 4, 50, zerolog.Nop())
			src := &MF{Models: models, Catalog: catalog}
			rctx := &core.RecommendContext{UserID: tt.userID}

			if _, err := src.Recall(context.Background(), rctx, 10); !core.IsModelNotReady(err) {
				t.Fatalf("Recall() error = %v, want model-not-ready", err)
			}
		})
	}
}
