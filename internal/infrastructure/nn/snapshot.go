package nn

import (
	"fmt"

	"leaf-vision/internal/domain/entity"
)

// Snapshot копия всех весов модели вместе с архитектурой.
func (m *HybridNet) Snapshot() entity.ModelParameters {
	m.mu.RLock()
	defer m.mu.RUnlock()

	weights := make(map[string]entity.WeightMatrix)
	for _, p := range m.params() {
		r, c := p.W.Dims()
		weights[p.Name] = entity.WeightMatrix{
			Rows: r,
			Cols: c,
			Data: append([]float64(nil), p.W.RawMatrix().Data...),
		}
	}
	return entity.ModelParameters{Shape: m.shape, Weights: weights}
}

// FromSnapshot собирает модель заданной архитектуры и загружает в неё веса.
// Каждая матрица должна совпасть по имени и размеру.
func FromSnapshot(params entity.ModelParameters) (*HybridNet, error) {
	m, err := New(params.Shape, 0)
	if err != nil {
		return nil, err
	}

	for _, p := range m.params() {
		w, ok := params.Weights[p.Name]
		if !ok {
			return nil, fmt.Errorf("weight %s is missing", p.Name)
		}
		r, c := p.W.Dims()
		if w.Rows != r || w.Cols != c || len(w.Data) != r*c {
			return nil, fmt.Errorf("weight %s: shape %dx%d, want %dx%d", p.Name, w.Rows, w.Cols, r, c)
		}
		copy(p.W.RawMatrix().Data, w.Data)
	}
	return m, nil
}
