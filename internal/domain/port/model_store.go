package port

import (
	"context"

	"leaf-vision/internal/domain/entity"
)

// ModelStore хранилище обученных артефактов модели
type ModelStore interface {
	// Save сохраняет артефакт целиком, перезаписывая предыдущий
	Save(ctx context.Context, artifact *entity.Artifact) error

	// Load читает артефакт; entity.ErrModelNotFound если его нет
	Load(ctx context.Context) (*entity.Artifact, error)
}
