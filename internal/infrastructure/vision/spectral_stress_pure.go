//go:build !gocv
// +build !gocv

package vision

import "image"

func (s *SpectralStress) stress(img image.Image, sat, hue float64) image.Image {
	return stressPixels(img, sat, hue)
}
