package port

import (
	"context"

	"leaf-vision/internal/domain/entity"
)

// DiagnosisRepository история диагнозов по чатам
type DiagnosisRepository interface {
	// Append добавляет запись в историю чата
	Append(ctx context.Context, d entity.Diagnosis) error

	// Recent возвращает последние записи чата, новые первыми
	Recent(ctx context.Context, chatID int64, limit int) ([]entity.Diagnosis, error)
}
