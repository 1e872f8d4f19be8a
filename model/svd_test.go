package model

import (
	"math"
	"testing"

	"github.com/reelrank/reelrank/core"
)

// 两组品味分离的评分矩阵：用户 1/2 偏爱电影 10/11，用户 3/4 偏爱电影 12/13。
func blockStrengths() map[int64]map[int64]float64 {
	return map[int64]map[int64]float64{
		1: {10: 5.0, 11: 4.5, 12: 1.0},
		2: {10: 4.5, 11: 5.0, 13: 1.5},
		3: {12: 5.0, 13: 4.5, 10: 1.0},
		4: {12: 4.5, 13: 5.0, 11: 1.0},
	}
}

func TestFactorize_Deterministic(t *testing.T) {
	f1, err := Factorize(blockStrengths(), 3, 4)
	if err != nil {
		t.Fatalf("Factorize() error = %v", err)
	}
	f2, err := Factorize(blockStrengths(), 3, 4)
	if err != nil {
		t.Fatalf("Factorize() error = %v", err)
	}

	if f1.Rank != f2.Rank {
		t.Fatalf("rank mismatch: %d vs %d", f1.Rank, f2.Rank)
	}
	for r := range f1.UserFactors {
		for k := range f1.UserFactors[r] {
			if f1.UserFactors[r][k] != f2.UserFactors[r][k] {
				t.Fatalf("user factor [%d][%d] differs: %v vs %v", r, k, f1.UserFactors[r][k], f2.UserFactors[r][k])
			}
		}
	}
	for r := range f1.ItemFactors {
		for k := range f1.ItemFactors[r] {
			if f1.ItemFactors[r][k] != f2.ItemFactors[r][k] {
				t.Fatalf("item factor [%d][%d] differs: %v vs %v", r, k, f1.ItemFactors[r][k], f2.ItemFactors[r][k])
			}
		}
	}
}

func TestFactorize_NotReady(t *testing.T) {
	tests := []struct {
		name       string
		strengths  map[int64]map[int64]float64
		components int
		minRatings int
	}{
		{
			name:       "too few ratings",
			strengths:  map[int64]map[int64]float64{1: {10: 5.0}},
			components: 20,
			minRatings: 10,
		},
		{
			name: "rank below 2",
			strengths: map[int64]map[int64]float64{
				1: {10: 5.0, 11: 4.0},
				2: {10: 4.0, 11: 3.0},
			},
			components: 20,
			minRatings: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Factorize(tt.strengths, tt.components, tt.minRatings)
			if !core.IsModelNotReady(err) {
				t.Fatalf("Factorize() error = %v, want model-not-ready", err)
			}
		})
	}
}

func TestFactorize_RankClamped(t *testing.T) {
	f, err := Factorize(blockStrengths(), 20, 4)
	if err != nil {
		t.Fatalf("Factorize() error = %v", err)
	}
	// 4 用户 × 4 电影，短边 4，秩被压到 3
	if f.Rank != 3 {
		t.Fatalf("Rank = %d, want 3", f.Rank)
	}
	if f.ExplainedVariance <= 0 || f.ExplainedVariance > 1.0001 {
		t.Fatalf("ExplainedVariance = %v, want (0, 1]", f.ExplainedVariance)
	}
}

func TestFactorization_Predict(t *testing.T) {
	f, err := Factorize(blockStrengths(), 2, 4)
	if err != nil {
		t.Fatalf("Factorize() error = %v", err)
	}

	if f.Predictable(99) {
		t.Fatal("Predictable(99) = true, want false for unseen user")
	}
	if _, ok := f.Predict(99); ok {
		t.Fatal("Predict(99) ok = true, want false")
	}

	scores, ok := f.Predict(1)
	if !ok {
		t.Fatal("Predict(1) ok = false")
	}
	if len(scores) != len(f.ItemIDs) {
		t.Fatalf("len(scores) = %d, want %d", len(scores), len(f.ItemIDs))
	}

	// 用户 1 的重建分数应偏向自己的品味组（电影 11 高于电影 13）
	idx := make(map[int64]int, len(f.ItemIDs))
	for i, id := range f.ItemIDs {
		idx[id] = i
	}
	if scores[idx[11]] <= scores[idx[13]] {
		t.Fatalf("Predict(1): score(11)=%v <= score(13)=%v, want taste cluster to dominate", scores[idx[11]], scores[idx[13]])
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("scores[%d] = %v, want finite", i, s)
		}
	}
}
