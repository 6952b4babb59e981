package nn

import "math"

// Adam оптимизатор с поправкой смещения моментов.
type Adam struct {
	LR    float64
	Beta1 float64
	Beta2 float64
	Eps   float64

	step    int
	moments map[*Param]*moment
}

type moment struct {
	m, v []float64
}

// NewAdam создаёт оптимизатор со стандартными beta.
func NewAdam(lr float64) *Adam {
	return &Adam{
		LR:      lr,
		Beta1:   0.9,
		Beta2:   0.999,
		Eps:     1e-8,
		moments: make(map[*Param]*moment),
	}
}

// Step обновляет веса по накопленным градиентам. Замороженные пропускаются.
func (a *Adam) Step(params []*Param) {
	if a.moments == nil {
		a.moments = make(map[*Param]*moment)
	}
	a.step++
	bc1 := 1 - math.Pow(a.Beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.Beta2, float64(a.step))

	for _, p := range params {
		if p.Grad == nil {
			continue
		}
		w := p.W.RawMatrix().Data
		g := p.Grad.RawMatrix().Data

		mo, ok := a.moments[p]
		if !ok {
			mo = &moment{m: make([]float64, len(w)), v: make([]float64, len(w))}
			a.moments[p] = mo
		}
		for i := range w {
			mo.m[i] = a.Beta1*mo.m[i] + (1-a.Beta1)*g[i]
			mo.v[i] = a.Beta2*mo.v[i] + (1-a.Beta2)*g[i]*g[i]
			w[i] -= a.LR * (mo.m[i] / bc1) / (math.Sqrt(mo.v[i]/bc2) + a.Eps)
		}
	}
}
