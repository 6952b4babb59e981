package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param именованная матрица весов. Grad равен nil у замороженных весов.
type Param struct {
	Name string
	W    *mat.Dense
	Grad *mat.Dense
}

func newParam(name string, rows, cols int, std float64, rnd *rand.Rand) *Param {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rnd.NormFloat64() * std
	}
	return &Param{Name: name, W: mat.NewDense(rows, cols, data)}
}

func zeroParam(name string, rows, cols int) *Param {
	return &Param{Name: name, W: mat.NewDense(rows, cols, nil)}
}

// trainable выделяет буфер градиента.
func (p *Param) trainable() *Param {
	r, c := p.W.Dims()
	p.Grad = mat.NewDense(r, c, nil)
	return p
}

func heStd(fanIn int) float64 { return math.Sqrt(2 / float64(fanIn)) }

func xavierStd(fanIn int) float64 { return math.Sqrt(1 / float64(fanIn)) }
