package recall

import "math"

// cosineSparse 计算两个稀疏向量（map 形式）的余弦相似度。
// 预先传入各自的 L2 范数以摊还热路径上的重复计算。
func cosineSparse(a, b map[int64]float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	// 遍历较小的一侧
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	return dot / (normA * normB)
}

func sparseNorm(v map[int64]float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
