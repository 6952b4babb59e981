package entity

// ClassScore вероятность одного класса.
type ClassScore struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// Prediction результат классификации одного изображения.
type Prediction struct {
	Label      string       `json:"prediction"`
	Index      int          `json:"-"`
	Confidence float64      `json:"confidence"`
	Top        []ClassScore `json:"top3"`
}

// Health состояние сервиса классификации.
type Health struct {
	ModelLoaded bool
	Device      string
	NumClasses  int
	Outcome     LoadOutcome
}
