package entity

// Sample пара (путь к изображению, индекс класса). Не меняется после создания.
type Sample struct {
	Path  string
	Class string
	Label int
}
