package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"leaf-vision/internal/domain/entity"
)

// ListClasses возвращает отсортированные имена подкаталогов root.
// Один и тот же root всегда даёт один и тот же порядок индексов.
func ListClasses(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entity.ErrDatasetNotFound, root)
		}
		return nil, fmt.Errorf("list classes in %s: %w", root, err)
	}

	classes := make([]string, 0, len(entries))
	for _, e := range entries {
		if entryMode(filepath.Join(root, e.Name()), e).IsDir() {
			classes = append(classes, e.Name())
		}
	}
	sort.Strings(classes)
	return classes, nil
}

// ClassesOrFallback читает реестр классов, при ошибке возвращает
// entity.FallbackClasses и причину деградации.
func ClassesOrFallback(root string, logger *zap.Logger) (classes []string, reason string) {
	classes, err := ListClasses(root)
	if err == nil && len(classes) > 0 {
		return classes, ""
	}
	if err == nil {
		err = fmt.Errorf("no class folders in %s", root)
	}

	logger.Warn("Could not determine classes, using fallback classes",
		zap.String("root", root), zap.Error(err))
	fallback := append([]string(nil), entity.FallbackClasses...)
	return fallback, err.Error()
}

// Index строит отображение имя -> индекс по упорядоченному реестру.
func Index(classes []string) map[string]int {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return idx
}
