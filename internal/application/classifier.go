package app

import (
	"context"
	"fmt"
	"image"
	"sort"

	"go.uber.org/zap"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/infrastructure/nn"
	"leaf-vision/internal/infrastructure/vision"
)

// DefaultTopK сколько лучших классов возвращается вместе с предсказанием.
const DefaultTopK = 3

// Classifier сервис инференса. Один и тот же путь предобработки
// для HTTP, бота, камеры и CLI.
type Classifier struct {
	sc       *ServingContext
	pipeline *vision.Pipeline
	topK     int
	logger   *zap.Logger
}

// NewClassifier создаёт сервис поверх загруженного контекста.
func NewClassifier(sc *ServingContext, logger *zap.Logger) *Classifier {
	return &Classifier{
		sc:       sc,
		pipeline: vision.EvalPipeline(),
		topK:     DefaultTopK,
		logger:   logger,
	}
}

// Predict декодирует байты изображения и классифицирует его.
func (c *Classifier) Predict(ctx context.Context, imageData []byte) (*entity.Prediction, error) {
	if c.sc.Model == nil {
		return nil, entity.ErrModelNotLoaded
	}
	if len(imageData) == 0 {
		return nil, entity.ErrNoImage
	}

	img, err := vision.Decode(imageData)
	if err != nil {
		return nil, err
	}
	return c.PredictImage(ctx, img)
}

// PredictImage классифицирует уже декодированное изображение.
func (c *Classifier) PredictImage(ctx context.Context, img image.Image) (*entity.Prediction, error) {
	if c.sc.Model == nil {
		return nil, entity.ErrModelNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := c.pipeline.Run(img, nil)
	logits, err := c.sc.Model.Forward([]*entity.Tensor{t}, nn.Eval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInference, err)
	}

	probs := nn.Softmax(logits.RawRowView(0))
	pred := buildPrediction(probs, c.sc.Classes, c.topK)
	c.logger.Debug("Prediction",
		zap.String("label", pred.Label),
		zap.Float64("confidence", pred.Confidence))
	return pred, nil
}

// Health состояние загрузки, не зависящее от предсказаний.
func (c *Classifier) Health() entity.Health {
	return entity.Health{
		ModelLoaded: c.sc.Model != nil,
		Device:      c.sc.Device,
		NumClasses:  len(c.sc.Classes),
		Outcome:     c.sc.Outcome,
	}
}

// Classes активный упорядоченный реестр классов.
func (c *Classifier) Classes() []string {
	return append([]string(nil), c.sc.Classes...)
}

// buildPrediction arg-max и top-k (k ограничено числом классов), по убыванию.
func buildPrediction(probs []float64, classes []string, k int) *entity.Prediction {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] > probs[order[b]] })

	if k > len(probs) {
		k = len(probs)
	}
	top := make([]entity.ClassScore, 0, k)
	for _, idx := range order[:k] {
		top = append(top, entity.ClassScore{Class: labelFor(classes, idx), Confidence: probs[idx]})
	}

	best := order[0]
	return &entity.Prediction{
		Label:      labelFor(classes, best),
		Index:      best,
		Confidence: probs[best],
		Top:        top,
	}
}

func labelFor(classes []string, idx int) string {
	if idx < len(classes) {
		return classes[idx]
	}
	return fmt.Sprintf("Class %d", idx)
}
