package api

import (
	"bytes"
	"context"
	"image"
	"mime/multipart"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-vision/internal/domain/entity"
)

// fakePredictor подменяет Classifier в тестах драйверов.
type fakePredictor struct {
	mu      sync.Mutex
	loaded  bool
	classes []string
	pred    *entity.Prediction
	err     error
	calls   int
}

func (f *fakePredictor) Predict(ctx context.Context, data []byte) (*entity.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.loaded {
		return nil, entity.ErrModelNotLoaded
	}
	if len(data) == 0 {
		return nil, entity.ErrNoImage
	}
	return f.pred, f.err
}

func (f *fakePredictor) PredictImage(ctx context.Context, img image.Image) (*entity.Prediction, error) {
	return f.Predict(ctx, []byte{1})
}

func (f *fakePredictor) Health() entity.Health {
	outcome := entity.OutcomeReady()
	if !f.loaded {
		outcome = entity.OutcomeUnavailable("model file not found")
	}
	return entity.Health{ModelLoaded: f.loaded, Device: "cpu", NumClasses: len(f.classes), Outcome: outcome}
}

func (f *fakePredictor) Classes() []string {
	return f.classes
}

func samplePrediction() *entity.Prediction {
	return &entity.Prediction{
		Label:      "Tomato_Late_blight",
		Index:      1,
		Confidence: 0.7,
		Top: []entity.ClassScore{
			{Class: "Tomato_Late_blight", Confidence: 0.7},
			{Class: "Tomato_healthy", Confidence: 0.2},
			{Class: "Potato_Early_blight", Confidence: 0.1},
		},
	}
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
