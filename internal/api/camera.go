//go:build gocv
// +build gocv

package api

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"go.uber.org/zap"
)

// Camera классифицирует кадры с устройства захвата и выводит метку в окне.
type Camera struct {
	device    int
	predictor Predictor
	logger    *zap.Logger
}

// NewCamera создаёт цикл камеры для устройства device.
func NewCamera(device int, predictor Predictor, logger *zap.Logger) *Camera {
	return &Camera{device: device, predictor: predictor, logger: logger}
}

// Run читает кадры до отмены ctx, закрытия окна или клавиши Esc.
func (c *Camera) Run(ctx context.Context) error {
	capture, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return fmt.Errorf("open capture device %d: %w", c.device, err)
	}
	defer capture.Close()

	window := gocv.NewWindow("leaf-vision")
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	c.logger.Info("Camera loop started", zap.Int("device", c.device))

	for ctx.Err() == nil {
		if ok := capture.Read(&frame); !ok {
			return fmt.Errorf("capture device %d closed", c.device)
		}
		if frame.Empty() {
			continue
		}

		img, err := frame.ToImage()
		if err != nil {
			c.logger.Warn("Frame conversion failed", zap.Error(err))
			continue
		}

		label := "model not loaded"
		if pred, err := c.predictor.PredictImage(ctx, img); err == nil {
			label = fmt.Sprintf("%s %.1f%%", pred.Label, pred.Confidence*100)
		} else {
			c.logger.Debug("Frame prediction failed", zap.Error(err))
		}

		gocv.PutText(&frame, label, image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, color.RGBA{G: 255, A: 255}, 2)
		window.IMShow(frame)
		if key := window.WaitKey(1); key == 27 || window.GetWindowProperty(gocv.WindowPropertyVisible) < 1 {
			break
		}
	}

	c.logger.Info("Camera loop stopped")
	return nil
}
