package dsl

import (
	"testing"

	"github.com/reelrank/reelrank/core"
	"github.com/reelrank/reelrank/pkg/utils"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "numeric comparison", expr: `item.vote_count < 100`},
		{name: "genre membership", expr: `"Horror" in item.genres`},
		{name: "label attribution", expr: `label.recall_source == "popular"`},
		{name: "user context", expr: `item.runtime > 180 && !user.weekend`},
		{name: "empty expression", expr: ``, wantErr: true},
		{name: "syntax error", expr: `item.score >=`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compile(%q) error = %v, wantErr %t", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestRule_Match(t *testing.T) {
	it := core.NewItem(&core.Movie{
		ID:          42,
		Genres:      []string{"Horror", "Thriller"},
		Runtime:     190,
		VoteAverage: 6.5,
		VoteCount:   80,
	})
	it.Score = 0.7
	it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
	rctx := &core.RecommendContext{
		UserID:  7,
		Viewing: &core.ViewingContext{Weekend: false},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "vote count hit", expr: `item.vote_count < 100`, want: true},
		{name: "vote count miss", expr: `item.vote_count < 50`, want: false},
		{name: "genre hit", expr: `"Horror" in item.genres`, want: true},
		{name: "label hit", expr: `label.recall_source == "popular"`, want: true},
		{name: "combined weekday long movie", expr: `item.runtime > 180 && !user.weekend`, want: true},
		{name: "user id", expr: `user.id == 7`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.expr, err)
			}
			got, err := rule.Match(it, rctx)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Match(%q) = %t, want %t", tt.expr, got, tt.want)
			}
		})
	}
}

func TestRule_MatchMissingLabel(t *testing.T) {
	rule, err := Compile(`label.recall_source == "mf"`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	it := core.NewItem(&core.Movie{ID: 1})

	if _, err := rule.Match(it, nil); err == nil {
		t.Fatal("Match() error = nil, want eval error on missing label key")
	}
}
