package port

import (
	"image"
	"math/rand"
)

// Augmenter преобразование изображения для обучения, сохраняющее размеры.
type Augmenter interface {
	// Apply возвращает новое изображение; исходное не меняется
	Apply(img image.Image, rnd *rand.Rand) image.Image
}
