package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"leaf-vision/internal/domain/entity"
)

// MaxUploadSize предельный размер загружаемого изображения.
const MaxUploadSize = 16 << 20

const requestIDHeader = "X-Request-ID"

// Server HTTP API классификатора.
type Server struct {
	predictor Predictor
	logger    *zap.Logger
	engine    *gin.Engine
	registry  *prometheus.Registry
	maxUpload int64

	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
}

// NewServer собирает маршруты /api/* и /metrics.
func NewServer(predictor Predictor, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		predictor: predictor,
		logger:    logger,
		engine:    gin.New(),
		maxUpload: MaxUploadSize,
		registry:  prometheus.NewRegistry(),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"path", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"path"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leaf_predictions_total",
				Help: "Predictions served, by predicted class",
			}, []string{"class"},
		),
	}
	s.registry.MustRegister(
		s.requestCount,
		s.requestDuration,
		s.predictions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s.engine.Use(gin.Recovery(), s.requestID(), s.cors(), s.observe())

	api := s.engine.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/classes", s.classes)
		api.POST("/predict", s.predict)
	}
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	return s
}

// Handler возвращает http.Handler для тестов и встраивания.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run слушает addr до отмены ctx.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP API server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP API server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	h := s.predictor.Health()
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"model_loaded": h.ModelLoaded,
		"device":       h.Device,
		"num_classes":  h.NumClasses,
		"state":        h.Outcome.State,
		"reason":       h.Outcome.Reason,
	})
}

func (s *Server) classes(c *gin.Context) {
	classes := s.predictor.Classes()
	c.JSON(http.StatusOK, gin.H{
		"classes":     classes,
		"num_classes": len(classes),
	})
}

func (s *Server) predict(c *gin.Context) {
	if !s.predictor.Health().ModelLoaded {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Model not loaded. Please train the model first."})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}
	if file.Filename == "" || file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	if file.Size > s.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("Image too large: %d bytes, limit %d", file.Size, s.maxUpload),
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed: " + err.Error()})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed: " + err.Error()})
		return
	}

	pred, err := s.predictor.Predict(c.Request.Context(), data)
	if err != nil {
		status, body := predictError(err)
		s.logger.Warn("Prediction failed",
			zap.String("request_id", c.GetString(requestIDHeader)),
			zap.Error(err))
		c.JSON(status, body)
		return
	}

	s.predictions.WithLabelValues(pred.Label).Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"prediction": pred.Label,
		"confidence": pred.Confidence,
		"top3":       pred.Top,
	})
}

// predictError переводит ошибку сервиса в HTTP-статус.
func predictError(err error) (int, gin.H) {
	switch {
	case errors.Is(err, entity.ErrModelNotLoaded):
		return http.StatusServiceUnavailable, gin.H{"error": "Model not loaded. Please train the model first."}
	case errors.Is(err, entity.ErrNoImage):
		return http.StatusBadRequest, gin.H{"error": "No image file provided"}
	default:
		return http.StatusInternalServerError, gin.H{"error": "Prediction failed: " + err.Error()}
	}
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// cors открывает API для веб-интерфейса на другом origin.
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		s.requestCount.WithLabelValues(path, c.Request.Method, status).Inc()
		s.requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

		s.logger.Debug("HTTP request",
			zap.String("request_id", c.GetString(requestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("status", status),
			zap.Duration("elapsed", time.Since(start)))
	}
}
