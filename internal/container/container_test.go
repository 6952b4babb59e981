package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leaf-vision/config"
	"leaf-vision/internal/domain/entity"
)

func TestContainer_ClassifierWithoutArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:   filepath.Join(dir, "data"),
		ModelPath: filepath.Join(dir, "model.gob"),
	}
	c := New(cfg, zap.NewNop())

	cl := c.Classifier(context.Background())
	require.Equal(t, entity.FallbackClasses, cl.Classes())
	require.False(t, cl.Health().ModelLoaded)

	_, err := c.Trainer().Run(context.Background())
	require.Error(t, err)
}
