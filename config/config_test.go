package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEAF_DATA_DIR", "")
	t.Setenv("LEAF_EPOCHS", "")
	t.Setenv("LEAF_SEED", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "data/PlantVillage", cfg.DataDir)
	require.Equal(t, 10, cfg.Epochs)
	require.Equal(t, 16, cfg.BatchSize)
	require.Equal(t, 1e-4, cfg.LearningRate)
	require.Equal(t, 250, cfg.MaxSamplesPerClass)
	require.Equal(t, 0.25, cfg.AugmentProbability)
	require.Positive(t, cfg.Seed)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEAF_DATA_DIR", "/srv/leaves")
	t.Setenv("LEAF_EPOCHS", "3")
	t.Setenv("LEAF_LEARNING_RATE", "0.01")
	t.Setenv("LEAF_SEED", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/srv/leaves", cfg.DataDir)
	require.Equal(t, 3, cfg.Epochs)
	require.Equal(t, 0.01, cfg.LearningRate)
	require.Zero(t, cfg.Seed)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("LEAF_BATCH_SIZE", "sixteen")

	_, err := Load()
	require.ErrorContains(t, err, "LEAF_BATCH_SIZE")
}
