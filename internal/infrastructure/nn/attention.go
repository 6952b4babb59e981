package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SpectralAttention канальный гейт: пулинг -> C/4 -> C -> sigmoid,
// затем перевзвешивание каналов исходной карты. Пространственного внимания нет.
type SpectralAttention struct {
	channels int
	fc1w     *Param
	fc1b     *Param
	fc2w     *Param
	fc2b     *Param
}

type gateCache struct {
	z      *mat.Dense // пулинг исходных карт, B x C
	hidden *mat.Dense // после ReLU, B x C/4
	gate   *mat.Dense // веса каналов в (0,1), B x C
}

// NewSpectralAttention создаёт обучаемый гейт для карты с channels каналами.
func NewSpectralAttention(channels int, rnd *rand.Rand) *SpectralAttention {
	reduced := channels / 4
	return &SpectralAttention{
		channels: channels,
		fc1w:     newParam("attn.fc1.weight", channels, reduced, heStd(channels), rnd).trainable(),
		fc1b:     zeroParam("attn.fc1.bias", 1, reduced).trainable(),
		fc2w:     newParam("attn.fc2.weight", reduced, channels, xavierStd(reduced), rnd).trainable(),
		fc2b:     zeroParam("attn.fc2.bias", 1, channels).trainable(),
	}
}

// forward перевзвешивает карты и возвращает их глобальный пулинг, B x C.
func (a *SpectralAttention) forward(maps []*mat.Dense) (*mat.Dense, gateCache) {
	z := mat.NewDense(len(maps), a.channels, nil)
	for i, fm := range maps {
		z.SetRow(i, colMeans(fm))
	}

	hidden := affine(z, a.fc1w, a.fc1b)
	relu(hidden)
	gate := affine(hidden, a.fc2w, a.fc2b)
	sigmoid(gate)

	pooled := mat.NewDense(len(maps), a.channels, nil)
	for i, fm := range maps {
		scaled := mat.DenseCopyOf(fm)
		w := gate.RawRowView(i)
		rows, _ := scaled.Dims()
		for r := 0; r < rows; r++ {
			floats.Mul(scaled.RawRowView(r), w)
		}
		pooled.SetRow(i, colMeans(scaled))
	}
	return pooled, gateCache{z: z, hidden: hidden, gate: gate}
}

// backward заполняет градиенты гейта. pooled = gate * z поканально.
func (a *SpectralAttention) backward(dPooled *mat.Dense, c gateCache) {
	var dPre mat.Dense
	dPre.MulElem(dPooled, c.z)
	dPre.Apply(func(i, j int, v float64) float64 {
		s := c.gate.At(i, j)
		return v * s * (1 - s)
	}, &dPre)

	a.fc2w.Grad.Mul(c.hidden.T(), &dPre)
	setColSums(a.fc2b.Grad, &dPre)

	var dHidden mat.Dense
	dHidden.Mul(&dPre, a.fc2w.W.T())
	dHidden.Apply(func(i, j int, v float64) float64 {
		if c.hidden.At(i, j) <= 0 {
			return 0
		}
		return v
	}, &dHidden)

	a.fc1w.Grad.Mul(c.z.T(), &dHidden)
	setColSums(a.fc1b.Grad, &dHidden)
}

func (a *SpectralAttention) params() []*Param {
	return []*Param{a.fc1w, a.fc1b, a.fc2w, a.fc2b}
}
