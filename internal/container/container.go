package container

import (
	"context"

	"go.uber.org/zap"

	"leaf-vision/config"
	app "leaf-vision/internal/application"
	"leaf-vision/internal/domain/port"
	"leaf-vision/internal/infrastructure/storage"
)

type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	ModelStore port.ModelStore
	History    port.DiagnosisRepository
}

func New(cfg *config.Config, logger *zap.Logger) *Container {
	return &Container{
		Config:     cfg,
		Logger:     logger,
		ModelStore: storage.NewFileModelStore(cfg.ModelPath),
		History:    storage.NewMemoryDiagnosisRepository(storage.DefaultHistorySize),
	}
}

// Classifier загружает модель и реестр классов один раз и возвращает сервис инференса.
func (c *Container) Classifier(ctx context.Context) *app.Classifier {
	sc := app.LoadServingContext(ctx, c.Config.DataDir, c.ModelStore, c.Logger)
	return app.NewClassifier(sc, c.Logger)
}

func (c *Container) Trainer() *app.Trainer {
	return app.NewTrainer(app.TrainConfig{
		DataDir:            c.Config.DataDir,
		Epochs:             c.Config.Epochs,
		BatchSize:          c.Config.BatchSize,
		LearningRate:       c.Config.LearningRate,
		MaxSamplesPerClass: c.Config.MaxSamplesPerClass,
		AugmentProbability: c.Config.AugmentProbability,
		Workers:            c.Config.Workers,
		Seed:               c.Config.Seed,
	}, c.ModelStore, c.Logger)
}
