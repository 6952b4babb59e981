package storage

import (
	"context"
	"sync"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/domain/port"
)

// DefaultHistorySize сколько последних диагнозов хранится на чат
const DefaultHistorySize = 10

// MemoryDiagnosisRepository in-memory история диагнозов
type MemoryDiagnosisRepository struct {
	mu      sync.RWMutex
	limit   int
	history map[int64][]entity.Diagnosis
}

// NewMemoryDiagnosisRepository создаёт хранилище, держащее limit записей на чат
func NewMemoryDiagnosisRepository(limit int) *MemoryDiagnosisRepository {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &MemoryDiagnosisRepository{
		limit:   limit,
		history: make(map[int64][]entity.Diagnosis),
	}
}

// Append добавляет запись, вытесняя самые старые сверх лимита
func (r *MemoryDiagnosisRepository) Append(ctx context.Context, d entity.Diagnosis) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := append(r.history[d.ChatID], d)
	if len(items) > r.limit {
		items = items[len(items)-r.limit:]
	}
	r.history[d.ChatID] = items

	return nil
}

// Recent возвращает до limit последних записей, новые первыми
func (r *MemoryDiagnosisRepository) Recent(ctx context.Context, chatID int64, limit int) ([]entity.Diagnosis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.history[chatID]
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	out := make([]entity.Diagnosis, 0, limit)
	for i := len(items) - 1; i >= len(items)-limit; i-- {
		out = append(out, items[i])
	}

	return out, nil
}

// Проверка реализации интерфейса
var _ port.DiagnosisRepository = (*MemoryDiagnosisRepository)(nil)
