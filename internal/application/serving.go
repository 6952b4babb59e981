package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/domain/port"
	"leaf-vision/internal/infrastructure/dataset"
	"leaf-vision/internal/infrastructure/nn"
)

// DeviceCPU вычисления выполняются на CPU; ускорителя нет.
const DeviceCPU = "cpu"

// ServingContext неизменяемое состояние сервиса, собранное один раз при старте
// и разделяемое всеми обработчиками.
type ServingContext struct {
	Model      *nn.HybridNet // nil, если модель недоступна
	Classes    []string
	Device     string
	Outcome    entity.LoadOutcome
	ArtifactID string
}

// LoadServingContext загружает модель и реестр классов.
// Классы берутся из артефакта модели; без модели - из каталога датасета,
// без датасета - entity.FallbackClasses. Ошибки не прерывают запуск.
func LoadServingContext(ctx context.Context, dataDir string, store port.ModelStore, logger *zap.Logger) *ServingContext {
	classes, reason := dataset.ClassesOrFallback(dataDir, logger)
	sc := &ServingContext{Classes: classes, Device: DeviceCPU}

	artifact, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, entity.ErrModelNotFound) {
			logger.Warn("Model file not found. Please train the model first.", zap.Error(err))
		} else {
			logger.Error("Error loading model", zap.Error(err))
		}
		sc.Outcome = entity.OutcomeUnavailable(err.Error())
		return sc
	}

	model, err := nn.FromSnapshot(artifact.Params)
	if err != nil {
		logger.Error("Error restoring model weights", zap.Error(err))
		sc.Outcome = entity.OutcomeUnavailable(err.Error())
		return sc
	}

	sc.Model = model
	sc.Classes = artifact.Classes
	sc.ArtifactID = artifact.ID
	sc.Outcome = entity.OutcomeReady()

	// Датасет есть, но его листинг разошёлся с реестром, сохранённым при обучении.
	if reason == "" && !slices.Equal(classes, artifact.Classes) {
		msg := fmt.Sprintf("dataset %s lists %d classes, model was trained on %d; serving the trained registry",
			dataDir, len(classes), len(artifact.Classes))
		logger.Warn("Class registry mismatch", zap.String("detail", msg))
		sc.Outcome = entity.OutcomeDegraded(msg)
	}

	logger.Info("Model loaded successfully",
		zap.String("device", sc.Device),
		zap.String("artifact", artifact.ID),
		zap.Int("num_classes", len(sc.Classes)),
		zap.String("state", string(sc.Outcome.State)))
	return sc
}
