package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app "leaf-vision/internal/application"
	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/infrastructure/storage"
)

func doRequest(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth_FallbackWithoutModel(t *testing.T) {
	s := NewServer(&fakePredictor{classes: entity.FallbackClasses}, zap.NewNop())

	rec, body := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, false, body["model_loaded"])
	require.Equal(t, "cpu", body["device"])
	require.EqualValues(t, 3, body["num_classes"])
	require.Equal(t, "unavailable", body["state"])
}

func TestClasses(t *testing.T) {
	s := NewServer(&fakePredictor{classes: entity.FallbackClasses}, zap.NewNop())

	rec, body := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/classes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"Healthy", "Early Disease", "Disease"}, body["classes"])
	require.EqualValues(t, 3, body["num_classes"])
}

func TestPredict_NoModel(t *testing.T) {
	f := &fakePredictor{classes: entity.FallbackClasses}
	s := NewServer(f, zap.NewNop())

	payload, ct := multipartBody(t, "image", "leaf.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/predict", payload)
	req.Header.Set("Content-Type", ct)

	rec, body := doRequest(t, s, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, body["error"], "Model not loaded")
	require.Zero(t, f.calls)
}

func TestPredict_MissingImage(t *testing.T) {
	s := NewServer(&fakePredictor{loaded: true, classes: []string{"a"}}, zap.NewNop())

	payload, ct := multipartBody(t, "file", "leaf.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/predict", payload)
	req.Header.Set("Content-Type", ct)

	rec, body := doRequest(t, s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No image file provided", body["error"])
}

func TestPredict_EmptyFile(t *testing.T) {
	s := NewServer(&fakePredictor{loaded: true, classes: []string{"a"}}, zap.NewNop())

	payload, ct := multipartBody(t, "image", "leaf.png", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/predict", payload)
	req.Header.Set("Content-Type", ct)

	rec, _ := doRequest(t, s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredict_TooLarge(t *testing.T) {
	f := &fakePredictor{loaded: true, classes: []string{"a"}, pred: samplePrediction()}
	s := NewServer(f, zap.NewNop())
	s.maxUpload = 64

	payload, ct := multipartBody(t, "image", "leaf.png", make([]byte, 65))
	req := httptest.NewRequest(http.MethodPost, "/api/predict", payload)
	req.Header.Set("Content-Type", ct)

	rec, body := doRequest(t, s, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, body["error"], "too large")
	require.Zero(t, f.calls)
}

func TestPredict_DecodeFailure(t *testing.T) {
	f := &fakePredictor{
		loaded:  true,
		classes: []string{"a"},
		err:     fmt.Errorf("%w: unknown format", entity.ErrDecode),
	}
	s := NewServer(f, zap.NewNop())

	payload, ct := multipartBody(t, "image", "leaf.txt", []byte("not an image"))
	req := httptest.NewRequest(http.MethodPost, "/api/predict", payload)
	req.Header.Set("Content-Type", ct)

	rec, body := doRequest(t, s, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, body["error"], "Prediction failed")
}

func TestPredict_Success(t *testing.T) {
	f := &fakePredictor{loaded: true, classes: []string{"a", "b", "c"}, pred: samplePrediction()}
	s := NewServer(f, zap.NewNop())

	payload, ct := multipartBody(t, "image", "leaf.png", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/predict", payload)
	req.Header.Set("Content-Type", ct)

	rec, body := doRequest(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Tomato_Late_blight", body["prediction"])
	require.InDelta(t, 0.7, body["confidence"], 1e-9)

	top, ok := body["top3"].([]any)
	require.True(t, ok)
	require.Len(t, top, 3)
	require.Equal(t, "Tomato_healthy", top[1].(map[string]any)["class"])
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestPredictError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{entity.ErrModelNotLoaded, http.StatusServiceUnavailable},
		{entity.ErrNoImage, http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", entity.ErrDecode), http.StatusInternalServerError},
		{fmt.Errorf("%w: shape", entity.ErrInference), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := predictError(tc.err)
		require.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(&fakePredictor{}, zap.NewNop())

	rec, _ := doRequest(t, s, httptest.NewRequest(http.MethodOptions, "/api/predict", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	s := NewServer(&fakePredictor{classes: []string{"a"}}, zap.NewNop())
	doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/classes", nil))

	rec, _ := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/classes",status="200"} 1`)
}

func TestServer_MissingDatasetServesFallback(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewFileModelStore(filepath.Join(dir, "model.gob"))
	sc := app.LoadServingContext(context.Background(), filepath.Join(dir, "absent"), store, zap.NewNop())
	s := NewServer(app.NewClassifier(sc, zap.NewNop()), zap.NewNop())

	rec, body := doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/classes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"Healthy", "Early Disease", "Disease"}, body["classes"])
	require.EqualValues(t, 3, body["num_classes"])

	rec, body = doRequest(t, s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["model_loaded"])
	require.EqualValues(t, 3, body["num_classes"])
	require.Equal(t, "unavailable", body["state"])
}
