package entity

import "fmt"

const (
	// ImageSize сторона квадратного входа модели в пикселях
	ImageSize = 224
	// ImageChannels число цветовых каналов входа (RGB)
	ImageChannels = 3
)

// Tensor нормализованное изображение в раскладке CHW со значениями в [0,1].
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float64 // len = Channels*Height*Width
}

// NewTensor создаёт нулевой тензор заданной формы.
func NewTensor(channels, height, width int) *Tensor {
	return &Tensor{
		Channels: channels,
		Height:   height,
		Width:    width,
		Data:     make([]float64, channels*height*width),
	}
}

// At возвращает значение канала c в точке (y, x).
func (t *Tensor) At(c, y, x int) float64 {
	return t.Data[(c*t.Height+y)*t.Width+x]
}

// Set записывает значение канала c в точке (y, x).
func (t *Tensor) Set(c, y, x int, v float64) {
	t.Data[(c*t.Height+y)*t.Width+x] = v
}

// CheckShape проверяет, что тензор имеет ожидаемую форму входа модели.
func (t *Tensor) CheckShape(channels, height, width int) error {
	if t == nil {
		return fmt.Errorf("nil tensor")
	}
	if t.Channels != channels || t.Height != height || t.Width != width {
		return fmt.Errorf("unexpected tensor shape %dx%dx%d, want %dx%dx%d",
			t.Channels, t.Height, t.Width, channels, height, width)
	}
	if len(t.Data) != channels*height*width {
		return fmt.Errorf("tensor data length %d does not match shape", len(t.Data))
	}
	return nil
}
