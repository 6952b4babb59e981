package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Softmax возвращает распределение вероятностей по строке логитов.
func Softmax(logits []float64) []float64 {
	out := append([]float64(nil), logits...)
	softmaxInPlace(out)
	return out
}

// softmaxCrossEntropy возвращает вероятности и среднюю кросс-энтропию батча.
func softmaxCrossEntropy(logits *mat.Dense, labels []int) (*mat.Dense, float64) {
	probs := mat.DenseCopyOf(logits)
	var loss float64
	for i, y := range labels {
		row := probs.RawRowView(i)
		softmaxInPlace(row)
		loss -= math.Log(math.Max(row[y], 1e-12))
	}
	return probs, loss / float64(len(labels))
}
