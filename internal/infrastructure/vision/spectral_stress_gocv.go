//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

func (s *SpectralStress) stress(img image.Image, sat, hue float64) image.Image {
	out, err := stressMat(img, sat, hue)
	if err != nil {
		return stressPixels(img, sat, hue)
	}
	// Mat не хранит смещение границ
	return rebase(out, img.Bounds())
}

// stressMat выполняет преобразование через OpenCV.
func stressMat(img image.Image, sat, hue float64) (image.Image, error) {
	// ImageToMatRGB кладёт пиксели в порядке BGR
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	if src.Empty() {
		return nil, errors.New("empty image")
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorBGRToHSV)

	hsvF := gocv.NewMat()
	defer hsvF.Close()
	hsv.ConvertTo(&hsvF, gocv.MatTypeCV32FC3)

	channels := gocv.Split(hsvF)
	for i := range channels {
		defer channels[i].Close()
	}
	if len(channels) < 3 {
		return nil, errors.New("invalid hsv channels")
	}
	channels[1].MultiplyFloat(float32(sat))
	channels[0].AddFloat(float32(hue))

	merged := gocv.NewMat()
	defer merged.Close()
	gocv.Merge(channels, &merged)

	// Перевод в 8 бит насыщает значения в [0,255].
	clipped := gocv.NewMat()
	defer clipped.Close()
	merged.ConvertTo(&clipped, gocv.MatTypeCV8UC3)

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(clipped, &bgr, gocv.ColorHSVToBGR)

	return bgr.ToImage()
}
