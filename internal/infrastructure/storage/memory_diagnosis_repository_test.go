package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-vision/internal/domain/entity"
)

func TestMemoryDiagnosisRepository_RecentNewestFirst(t *testing.T) {
	repo := NewMemoryDiagnosisRepository(3)
	ctx := context.Background()

	for _, label := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Append(ctx, entity.Diagnosis{ChatID: 10, Label: label}))
	}
	require.NoError(t, repo.Append(ctx, entity.Diagnosis{ChatID: 20, Label: "x"}))

	got, err := repo.Recent(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "d", got[0].Label)
	require.Equal(t, "b", got[2].Label)

	got, err = repo.Recent(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = repo.Recent(ctx, 99, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}
