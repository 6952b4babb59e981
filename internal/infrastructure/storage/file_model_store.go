package storage

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/domain/port"
)

// FileModelStore хранит артефакт модели одним gob-файлом.
type FileModelStore struct {
	path string
}

// NewFileModelStore создаёт хранилище по пути к файлу весов.
func NewFileModelStore(path string) *FileModelStore {
	return &FileModelStore{path: path}
}

// Path путь к файлу артефакта.
func (s *FileModelStore) Path() string { return s.path }

// Save атомарно записывает артефакт: временный файл и переименование.
func (s *FileModelStore) Save(ctx context.Context, artifact *entity.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := artifact.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(artifact); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename model file: %w", err)
	}
	return nil
}

// Load читает артефакт и проверяет согласованность классов и выходного слоя.
func (s *FileModelStore) Load(ctx context.Context) (*entity.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", entity.ErrModelNotFound, s.path)
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	var artifact entity.Artifact
	if err := gob.NewDecoder(f).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", s.path, err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	return &artifact, nil
}

var _ port.ModelStore = (*FileModelStore)(nil)
