package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"leaf-vision/internal/domain/entity"
)

// affine возвращает x*w + b, где b строка-смещение.
func affine(x *mat.Dense, w, b *Param) *mat.Dense {
	var out mat.Dense
	out.Mul(x, w.W)
	bias := b.W.RawRowView(0)
	r, _ := out.Dims()
	for i := 0; i < r; i++ {
		floats.Add(out.RawRowView(i), bias)
	}
	return &out
}

func relu(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, m)
}

func sigmoid(m *mat.Dense) {
	m.Apply(func(_, _ int, v float64) float64 { return 1 / (1 + math.Exp(-v)) }, m)
}

// colMeans среднее по строкам для каждого столбца (глобальный пулинг).
func colMeans(m *mat.Dense) []float64 {
	r, c := m.Dims()
	out := make([]float64, c)
	for i := 0; i < r; i++ {
		floats.Add(out, m.RawRowView(i))
	}
	floats.Scale(1/float64(r), out)
	return out
}

// setColSums записывает в dst (1 x c) суммы столбцов src.
func setColSums(dst, src *mat.Dense) {
	row := dst.RawRowView(0)
	for i := range row {
		row[i] = 0
	}
	r, _ := src.Dims()
	for i := 0; i < r; i++ {
		floats.Add(row, src.RawRowView(i))
	}
}

func softmaxInPlace(row []float64) {
	hi := floats.Max(row)
	for i, v := range row {
		row[i] = math.Exp(v - hi)
	}
	floats.Scale(1/floats.Sum(row), row)
}

// layerNorm нормирует каждую строку к нулевому среднему и единичной дисперсии.
func layerNorm(m *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(m)
	r, c := out.Dims()
	for i := 0; i < r; i++ {
		row := out.RawRowView(i)
		mean := floats.Sum(row) / float64(c)
		var variance float64
		for _, v := range row {
			variance += (v - mean) * (v - mean)
		}
		inv := 1 / math.Sqrt(variance/float64(c)+1e-6)
		for j := range row {
			row[j] = (row[j] - mean) * inv
		}
	}
	return out
}

// im2col раскладывает непересекающиеся окна k x k тензора CHW в строки
// (позиции) с признаками в порядке (канал, y, x).
func im2col(t *entity.Tensor, k int) *mat.Dense {
	oh, ow := t.Height/k, t.Width/k
	out := mat.NewDense(oh*ow, t.Channels*k*k, nil)
	for py := 0; py < oh; py++ {
		for px := 0; px < ow; px++ {
			row := out.RawRowView(py*ow + px)
			j := 0
			for c := 0; c < t.Channels; c++ {
				for ky := 0; ky < k; ky++ {
					for kx := 0; kx < k; kx++ {
						row[j] = t.At(c, py*k+ky, px*k+kx)
						j++
					}
				}
			}
		}
	}
	return out
}

// im2colHWC то же для карты признаков (позиции x каналы) размера h x w.
func im2colHWC(m *mat.Dense, h, w, k int) *mat.Dense {
	_, cin := m.Dims()
	oh, ow := h/k, w/k
	out := mat.NewDense(oh*ow, k*k*cin, nil)
	for py := 0; py < oh; py++ {
		for px := 0; px < ow; px++ {
			row := out.RawRowView(py*ow + px)
			for ky := 0; ky < k; ky++ {
				for kx := 0; kx < k; kx++ {
					src := m.RawRowView((py*k+ky)*w + px*k + kx)
					copy(row[(ky*k+kx)*cin:], src)
				}
			}
		}
	}
	return out
}
