package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/domain/port"
	"leaf-vision/internal/infrastructure/dataset"
	"leaf-vision/internal/infrastructure/nn"
	"leaf-vision/internal/infrastructure/vision"
)

// TrainConfig параметры обучения. Нулевые размеры архитектуры берутся из nn.DefaultShape.
type TrainConfig struct {
	DataDir            string
	Epochs             int
	BatchSize          int
	LearningRate       float64
	MaxSamplesPerClass int
	AugmentProbability float64
	Workers            int
	Seed               int64

	Channels int
	EmbedDim int
	Hidden   int
	Dropout  float64
}

// EpochReport средний loss эпохи.
type EpochReport struct {
	Epoch    int
	MeanLoss float64
	Batches  int
}

// TrainReport итог обучения.
type TrainReport struct {
	ArtifactID string
	Samples    int
	Classes    []string
	Epochs     []EpochReport
}

// Trainer цикл обучения гибридной модели по выборке датасета.
type Trainer struct {
	cfg    TrainConfig
	store  port.ModelStore
	logger *zap.Logger
}

// NewTrainer создаёт тренер, сохраняющий результат в store.
func NewTrainer(cfg TrainConfig, store port.ModelStore, logger *zap.Logger) *Trainer {
	return &Trainer{cfg: cfg, store: store, logger: logger}
}

func (t *Trainer) validate() error {
	switch {
	case t.cfg.Epochs < 1:
		return fmt.Errorf("epochs must be positive, got %d", t.cfg.Epochs)
	case t.cfg.BatchSize < 1:
		return fmt.Errorf("batch size must be positive, got %d", t.cfg.BatchSize)
	case t.cfg.LearningRate <= 0:
		return fmt.Errorf("learning rate must be positive, got %g", t.cfg.LearningRate)
	}
	return nil
}

func (t *Trainer) shape(numClasses int) entity.ModelShape {
	s := nn.DefaultShape(numClasses)
	if t.cfg.Channels > 0 {
		s.Channels = t.cfg.Channels
	}
	if t.cfg.EmbedDim > 0 {
		s.EmbedDim = t.cfg.EmbedDim
	}
	if t.cfg.Hidden > 0 {
		s.Hidden = t.cfg.Hidden
	}
	if t.cfg.Dropout > 0 {
		s.Dropout = t.cfg.Dropout
	}
	return s
}

// Run обучает модель заданное число эпох и безусловно сохраняет артефакт.
// Отсутствие датасета прерывает обучение до первой эпохи.
func (t *Trainer) Run(ctx context.Context) (*TrainReport, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	opts := []dataset.Option{
		dataset.WithSeed(t.cfg.Seed),
		dataset.WithTransform(vision.TrainPipeline()),
	}
	if t.cfg.MaxSamplesPerClass > 0 {
		opts = append(opts, dataset.WithMaxPerClass(t.cfg.MaxSamplesPerClass))
	}
	if t.cfg.AugmentProbability > 0 {
		opts = append(opts, dataset.WithAugmentProbability(t.cfg.AugmentProbability))
	}

	ds, err := dataset.New(t.cfg.DataDir, opts...)
	if err != nil {
		return nil, err
	}
	classes := ds.Classes()
	if len(classes) == 0 {
		return nil, fmt.Errorf("no class folders in %s", t.cfg.DataDir)
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("no images in %s", t.cfg.DataDir)
	}
	t.logger.Info("Dataset loaded",
		zap.Int("images", ds.Len()),
		zap.Int("classes", len(classes)),
		zap.Any("per_class", ds.CountByClass()))

	model, err := nn.New(t.shape(len(classes)), t.cfg.Seed)
	if err != nil {
		return nil, err
	}
	opt := nn.NewAdam(t.cfg.LearningRate)
	rnd := rand.New(rand.NewSource(t.cfg.Seed))

	report := &TrainReport{Samples: ds.Len(), Classes: classes}
	t.logger.Info("Starting training",
		zap.String("device", DeviceCPU),
		zap.Int("epochs", t.cfg.Epochs),
		zap.Int("batch_size", t.cfg.BatchSize))

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		er, err := t.runEpoch(ctx, ds, model, opt, rnd.Perm(ds.Len()))
		if err != nil {
			return nil, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		er.Epoch = epoch
		report.Epochs = append(report.Epochs, er)
		t.logger.Info("Epoch finished",
			zap.Int("epoch", epoch),
			zap.Int("epochs", t.cfg.Epochs),
			zap.Float64("loss", er.MeanLoss))
	}

	artifact := &entity.Artifact{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Classes:   classes,
		Params:    model.Snapshot(),
	}
	if err := t.store.Save(ctx, artifact); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	report.ArtifactID = artifact.ID
	t.logger.Info("Model trained and saved", zap.String("artifact", artifact.ID))

	return report, nil
}

func (t *Trainer) runEpoch(ctx context.Context, ds *dataset.Dataset, model *nn.HybridNet, opt *nn.Adam, order []int) (EpochReport, error) {
	var total float64
	batches := 0
	for start := 0; start < len(order); start += t.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return EpochReport{}, err
		}

		end := min(start+t.cfg.BatchSize, len(order))
		tensors, labels, err := loadBatch(ctx, ds, order[start:end], t.cfg.Workers)
		if err != nil {
			return EpochReport{}, err
		}

		loss, err := model.TrainStep(tensors, labels, opt)
		if err != nil {
			return EpochReport{}, err
		}
		total += loss
		batches++
	}
	return EpochReport{MeanLoss: total / float64(batches), Batches: batches}, nil
}

// loadBatch читает образцы батча параллельно; индексы у воркеров не пересекаются.
func loadBatch(ctx context.Context, ds *dataset.Dataset, indices []int, workers int) ([]*entity.Tensor, []int, error) {
	tensors := make([]*entity.Tensor, len(indices))
	labels := make([]int, len(indices))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, idx := range indices {
		i, idx := i, idx
		g.Go(func() error {
			tn, label, err := ds.Get(idx)
			if err != nil {
				return err
			}
			tensors[i], labels[i] = tn, label
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tensors, labels, nil
}
