package nn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAdam_LiteralConfig(t *testing.T) {
	p := zeroParam("w", 1, 2).trainable()
	p.W.Set(0, 0, 1)
	p.W.Set(0, 1, -1)
	p.Grad.Set(0, 0, 0.5)
	p.Grad.Set(0, 1, -0.5)

	opt := &Adam{LR: 0.1, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
	require.NotPanics(t, func() { opt.Step([]*Param{p}) })

	// первый шаг Adam сдвигает каждый вес на ~LR против знака градиента
	require.InDelta(t, 0.9, p.W.At(0, 0), 1e-6)
	require.InDelta(t, -0.9, p.W.At(0, 1), 1e-6)
}

func TestAdam_SkipsFrozen(t *testing.T) {
	frozen := &Param{Name: "frozen", W: mat.NewDense(1, 1, []float64{3})}
	NewAdam(0.1).Step([]*Param{frozen})
	require.Equal(t, 3.0, frozen.W.At(0, 0))
}
