//go:build !gocv
// +build !gocv

package api

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Camera заглушка цикла камеры (без OpenCV).
type Camera struct {
	device    int
	predictor Predictor
	logger    *zap.Logger
}

// NewCamera создаёт заглушку.
func NewCamera(device int, predictor Predictor, logger *zap.Logger) *Camera {
	return &Camera{device: device, predictor: predictor, logger: logger}
}

// Run всегда возвращает ошибку: захват кадров требует OpenCV.
func (c *Camera) Run(ctx context.Context) error {
	return errors.New("camera capture requires the gocv build tag")
}
