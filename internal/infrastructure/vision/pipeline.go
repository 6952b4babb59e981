package vision

import (
	"image"
	"math/rand"

	"golang.org/x/image/draw"

	"leaf-vision/internal/domain/entity"
)

// Step один шаг предобработки. rnd равен nil для детерминированного пути.
type Step interface {
	Apply(img image.Image, rnd *rand.Rand) image.Image
}

// StepFunc адаптер функции к Step.
type StepFunc func(img image.Image, rnd *rand.Rand) image.Image

func (f StepFunc) Apply(img image.Image, rnd *rand.Rand) image.Image { return f(img, rnd) }

// Pipeline упорядоченные шаги, завершающиеся переводом в тензор.
type Pipeline struct {
	steps []Step
}

// NewPipeline собирает конвейер из шагов.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Run применяет шаги и возвращает тензор CHW.
func (p *Pipeline) Run(img image.Image, rnd *rand.Rand) *entity.Tensor {
	for _, s := range p.steps {
		img = s.Apply(img, rnd)
	}
	return ToTensor(img)
}

// EvalPipeline предобработка для инференса: только resize.
// Используется и HTTP, и камерой, и CLI.
func EvalPipeline() *Pipeline {
	return NewPipeline(Resize(entity.ImageSize))
}

// TrainPipeline предобработка для обучения: resize и случайное отражение.
func TrainPipeline() *Pipeline {
	return NewPipeline(Resize(entity.ImageSize), RandomHorizontalFlip(0.5))
}

// Resize масштабирует изображение до size x size билинейной интерполяцией.
func Resize(size int) Step {
	return StepFunc(func(img image.Image, _ *rand.Rand) image.Image {
		b := img.Bounds()
		if b.Dx() == size && b.Dy() == size {
			return img
		}
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	})
}

// RandomHorizontalFlip отражает изображение с вероятностью p.
func RandomHorizontalFlip(p float64) Step {
	return StepFunc(func(img image.Image, rnd *rand.Rand) image.Image {
		if rnd == nil || rnd.Float64() >= p {
			return img
		}
		return FlipHorizontal(img)
	})
}

// FlipHorizontal зеркалит изображение по горизонтали.
func FlipHorizontal(img image.Image) *image.RGBA {
	src := ToRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow, drow := y*src.Stride, y*dst.Stride
		for x := 0; x < w; x++ {
			d := drow + (w-1-x)*4
			copy(dst.Pix[d:d+4], src.Pix[srow+x*4:srow+x*4+4])
		}
	}
	return dst
}

// ToTensor переводит изображение в тензор 3xHxW со значениями в [0,1].
func ToTensor(img image.Image) *entity.Tensor {
	src := ToRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	t := entity.NewTensor(entity.ImageChannels, h, w)
	plane := h * w
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*src.Stride + x*4
			p := y*w + x
			t.Data[p] = float64(src.Pix[i]) / 255
			t.Data[plane+p] = float64(src.Pix[i+1]) / 255
			t.Data[2*plane+p] = float64(src.Pix[i+2]) / 255
		}
	}
	return t
}
