package vision

import (
	"image"
	"math/rand"

	"golang.org/x/image/draw"

	"leaf-vision/internal/domain/port"
)

// SpectralStress имитирует раннюю стадию болезни: падение насыщенности
// (потеря хлорофилла) и сдвиг тона к жёлтому (дефицит азота).
type SpectralStress struct {
	SaturationMin float64
	SaturationMax float64
	HueShiftMin   float64
	HueShiftMax   float64
}

// NewSpectralStress создаёт аугментатор с диапазонами по умолчанию.
func NewSpectralStress() *SpectralStress {
	return &SpectralStress{
		SaturationMin: 0.6,
		SaturationMax: 0.8,
		HueShiftMin:   2,
		HueShiftMax:   8,
	}
}

// Apply возвращает стрессированную копию изображения тех же размеров.
func (s *SpectralStress) Apply(img image.Image, rnd *rand.Rand) image.Image {
	sat, hue := s.draw(rnd)
	return s.stress(img, sat, hue)
}

func (s *SpectralStress) draw(rnd *rand.Rand) (sat, hue float64) {
	sat = s.SaturationMin + (s.SaturationMax-s.SaturationMin)*rnd.Float64()
	hue = s.HueShiftMin + (s.HueShiftMax-s.HueShiftMin)*rnd.Float64()
	return sat, hue
}

// stressPixels применяет сдвиг к каждому пикселю без OpenCV.
// Результат имеет те же границы, что и img.
func stressPixels(img image.Image, sat, hue float64) *image.RGBA {
	src := ToRGBA(img)
	out := image.NewRGBA(img.Bounds())
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si, di := y*src.Stride+x*4, y*out.Stride+x*4
			hv, sv, v := rgbToHSV(src.Pix[si], src.Pix[si+1], src.Pix[si+2])
			// float -> uint8 усечением, как astype после clip
			nh := uint8(clip(float64(hv)+hue, 0, 255))
			ns := uint8(clip(float64(sv)*sat, 0, 255))
			out.Pix[di], out.Pix[di+1], out.Pix[di+2] = hsvToRGB(nh, ns, v)
			out.Pix[di+3] = 0xff
		}
	}
	return out
}

// rebase переносит img в прямоугольник bounds того же размера.
func rebase(img image.Image, bounds image.Rectangle) image.Image {
	if img.Bounds() == bounds {
		return img
	}
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, img.Bounds().Min, draw.Src)
	return dst
}

var _ port.Augmenter = (*SpectralStress)(nil)
