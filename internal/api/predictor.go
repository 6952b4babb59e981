package api

import (
	"context"
	"image"

	"leaf-vision/internal/domain/entity"
)

// Predictor сервис классификации, общий для всех драйверов.
type Predictor interface {
	Predict(ctx context.Context, imageData []byte) (*entity.Prediction, error)
	PredictImage(ctx context.Context, img image.Image) (*entity.Prediction, error)
	Health() entity.Health
	Classes() []string
}
