package model

import (
	"math"
	"sort"

	"github.com/reelrank/reelrank/core"
)

// Factorization 是隐因子模型状态：派生数据、进程内缓存、从不持久化。
//
// 组成：
//   - UserFactors / ItemFactors：两个稠密因子矩阵（用户因子已吸收奇异值）
//   - UserIDs / ItemIDs：把行/列位置映射回用户/电影标识的有序索引
//
// 预测分数 = 用户因子行 · 电影因子行。
// 模型只在"自构建以来没有新增评分"时有效；失效靠显式 invalidate，
// 而不是悄悄用旧数据（见 Manager）。
type Factorization struct {
	UserFactors [][]float64
	ItemFactors [][]float64
	UserIDs     []int64
	ItemIDs     []int64

	Rank              int
	ExplainedVariance float64 // 所选秩解释的方差占比（0-1）

	userIndex map[int64]int
}

// Predictable 检查用户是否在训练索引内。
// 构建之后才写入的用户不可预测，调用方应回退到 Item-CF。
func (f *Factorization) Predictable(userID int64) bool {
	_, ok := f.userIndex[userID]
	return ok
}

// Predict 返回用户对全部电影的预测分数，按 ItemIDs 的既有索引顺序对齐。
// 用户不在索引内时返回 (nil, false)。
func (f *Factorization) Predict(userID int64) ([]float64, bool) {
	row, ok := f.userIndex[userID]
	if !ok {
		return nil, false
	}
	uf := f.UserFactors[row]
	scores := make([]float64, len(f.ItemIDs))
	for i, vf := range f.ItemFactors {
		var dot float64
		for k := range uf {
			dot += uf[k] * vf[k]
		}
		scores[i] = dot
	}
	return scores, true
}

// Factorize 对 user×item 强度矩阵做固定秩的截断 SVD。
//
// 约束：
//   - 矩阵条目数 < minRatings 时直接报 ErrModelNotReady，跳过构建
//   - 实际秩 = min(components, 矩阵短边 - 1)；秩 < 2 同样报 ErrModelNotReady
//
// 确定性：幂迭代从固定的初始向量出发（按坐标线性扰动的单位向量），
// 不含任何随机源；同一份评分快照重复构建产出完全一致的因子。
func Factorize(strengths map[int64]map[int64]float64, components, minRatings int) (*Factorization, error) {
	var entries int
	itemSet := make(map[int64]struct{})
	for _, row := range strengths {
		entries += len(row)
		for movieID := range row {
			itemSet[movieID] = struct{}{}
		}
	}
	if entries < minRatings {
		return nil, core.ErrModelNotReady
	}

	userIDs := make([]int64, 0, len(strengths))
	for userID := range strengths {
		userIDs = append(userIDs, userID)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	itemIDs := make([]int64, 0, len(itemSet))
	for movieID := range itemSet {
		itemIDs = append(itemIDs, movieID)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	rows, cols := len(userIDs), len(itemIDs)
	minDim := rows
	if cols < minDim {
		minDim = cols
	}
	rank := components
	if rank > minDim-1 {
		rank = minDim - 1
	}
	if rank < 2 {
		return nil, core.ErrModelNotReady
	}

	itemIndex := make(map[int64]int, cols)
	for i, id := range itemIDs {
		itemIndex[id] = i
	}

	// 稠密矩阵 A（行 = 用户，列 = 电影）
	a := make([][]float64, rows)
	var total float64 // ||A||_F^2
	for r, userID := range userIDs {
		a[r] = make([]float64, cols)
		for movieID, strength := range strengths[userID] {
			a[r][itemIndex[movieID]] = strength
			total += strength * strength
		}
	}

	sigmas, us, vs := truncatedSVD(a, rank)

	var explained float64
	for _, s := range sigmas {
		explained += s * s
	}
	variance := 0.0
	if total > 0 {
		variance = explained / total
	}

	// 用户因子吸收奇异值：UserFactors = U·Σ，ItemFactors = V
	userFactors := make([][]float64, rows)
	for r := range userFactors {
		userFactors[r] = make([]float64, len(sigmas))
		for k := range sigmas {
			userFactors[r][k] = us[k][r] * sigmas[k]
		}
	}
	itemFactors := make([][]float64, cols)
	for c := range itemFactors {
		itemFactors[c] = make([]float64, len(sigmas))
		for k := range sigmas {
			itemFactors[c][k] = vs[k][c]
		}
	}

	userIdx := make(map[int64]int, rows)
	for r, id := range userIDs {
		userIdx[id] = r
	}

	return &Factorization{
		UserFactors:       userFactors,
		ItemFactors:       itemFactors,
		UserIDs:           userIDs,
		ItemIDs:           itemIDs,
		Rank:              len(sigmas),
		ExplainedVariance: variance,
		userIndex:         userIdx,
	}, nil
}

const (
	powerIterations = 100
	powerTolerance  = 1e-10
)

// truncatedSVD 通过幂迭代 + 降阶（deflation）求前 rank 个奇异三元组。
// 返回的奇异值按降序排列；全程无随机源。
func truncatedSVD(a [][]float64, rank int) (sigmas []float64, us, vs [][]float64) {
	rows := len(a)
	if rows == 0 {
		return nil, nil, nil
	}
	cols := len(a[0])

	// 工作副本，逐分量降阶
	work := make([][]float64, rows)
	for r := range a {
		work[r] = append([]float64(nil), a[r]...)
	}

	for k := 0; k < rank; k++ {
		v := deterministicStart(cols, k)
		var prev float64
		for iter := 0; iter < powerIterations; iter++ {
			// v <- normalize(Aᵀ (A v))
			av := matVec(work, v)
			atav := matTVec(work, av)
			norm := vecNorm(atav)
			if norm == 0 {
				break
			}
			for i := range atav {
				atav[i] /= norm
			}
			v = atav
			if math.Abs(norm-prev) < powerTolerance {
				break
			}
			prev = norm
		}

		av := matVec(work, v)
		sigma := vecNorm(av)
		if sigma < powerTolerance {
			break // 剩余能量耗尽，提前停止
		}
		u := make([]float64, rows)
		for i := range av {
			u[i] = av[i] / sigma
		}

		sigmas = append(sigmas, sigma)
		us = append(us, u)
		vs = append(vs, v)

		// 降阶：A <- A - σ·u·vᵀ
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				work[r][c] -= sigma * u[r] * v[c]
			}
		}
	}
	return sigmas, us, vs
}

// deterministicStart 生成固定的初始向量：单位化的线性扰动坐标，
// 分量间互不相等以避免与特征子空间正交。k 参与偏移，保证各分量起点不同。
func deterministicStart(n, k int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1.0 + float64((i+k*7)%n)*1e-3
	}
	norm := vecNorm(v)
	for i := range v {
		v[i] /= norm
	}
	return v
}

func matVec(a [][]float64, v []float64) []float64 {
	out := make([]float64, len(a))
	for r := range a {
		var sum float64
		row := a[r]
		for c := range row {
			sum += row[c] * v[c]
		}
		out[r] = sum
	}
	return out
}

func matTVec(a [][]float64, u []float64) []float64 {
	if len(a) == 0 {
		return nil
	}
	out := make([]float64, len(a[0]))
	for r := range a {
		row := a[r]
		ur := u[r]
		for c := range row {
			out[c] += row[c] * ur
		}
	}
	return out
}

func vecNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
