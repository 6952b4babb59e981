package entity

import (
	"fmt"
	"time"
)

// ModelShape архитектурные размеры гибридной модели.
type ModelShape struct {
	NumClasses int     // число классов в выходном слое
	Channels   int     // ширина карты признаков CNN-ветки
	EmbedDim   int     // ширина эмбеддинга трансформерной ветки
	Hidden     int     // ширина скрытого слоя головы
	Dropout    float64 // вероятность dropout в режиме обучения
}

// WeightMatrix плотная матрица весов в построчной раскладке.
type WeightMatrix struct {
	Rows int
	Cols int
	Data []float64
}

// ModelParameters веса модели вместе с формой, под которую они обучены.
type ModelParameters struct {
	Shape   ModelShape
	Weights map[string]WeightMatrix
}

// Artifact сохраняемый результат обучения: веса и реестр классов одним файлом.
type Artifact struct {
	ID        string
	CreatedAt time.Time
	Classes   []string
	Params    ModelParameters
}

// Validate проверяет согласованность реестра классов и выходного слоя.
func (a *Artifact) Validate() error {
	if len(a.Classes) == 0 {
		return fmt.Errorf("artifact %s has no classes", a.ID)
	}
	if len(a.Classes) != a.Params.Shape.NumClasses {
		return fmt.Errorf("artifact %s: %d classes but model has %d outputs",
			a.ID, len(a.Classes), a.Params.Shape.NumClasses)
	}
	return nil
}
