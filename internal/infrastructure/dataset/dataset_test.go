package dataset

import (
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/infrastructure/vision"
)

type countingAugmenter struct {
	calls atomic.Int64
}

func (a *countingAugmenter) Apply(img image.Image, _ *rand.Rand) image.Image {
	a.calls.Add(1)
	return img
}

func TestNew_SamplingBoundPerClass(t *testing.T) {
	root := makeDataset(t, map[string]int{"Blight": 7, "Healthy": 3, "Rust": 0})

	ds, err := New(root, WithMaxPerClass(5), WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, []string{"Blight", "Healthy", "Rust"}, ds.Classes())
	require.Equal(t, 8, ds.Len())
	require.Equal(t, map[string]int{"Blight": 5, "Healthy": 3, "Rust": 0}, ds.CountByClass())

	seen := make(map[string]bool)
	for _, s := range ds.Samples() {
		require.False(t, seen[s.Path])
		seen[s.Path] = true
		require.Equal(t, ds.Classes()[s.Label], s.Class)
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New("/definitely/not/here")
	require.ErrorIs(t, err, entity.ErrDatasetNotFound)
}

func TestGet_ShapeAndLabel(t *testing.T) {
	root := makeDataset(t, map[string]int{"Blight": 2, "Healthy": 2})
	ds, err := New(root, WithSeed(3))
	require.NoError(t, err)

	for i := 0; i < ds.Len(); i++ {
		tn, label, err := ds.Get(i)
		require.NoError(t, err)
		require.NoError(t, tn.CheckShape(entity.ImageChannels, entity.ImageSize, entity.ImageSize))
		require.Equal(t, ds.Samples()[i].Label, label)
	}

	_, _, err = ds.Get(ds.Len())
	require.Error(t, err)
}

func TestGet_HealthyNeverAugmented(t *testing.T) {
	root := makeDataset(t, map[string]int{"Tomato_HEALTHY": 4, "healthy": 2})
	aug := &countingAugmenter{}
	ds, err := New(root, WithAugmenter(aug), WithAugmentProbability(1), WithSeed(5))
	require.NoError(t, err)

	for i := 0; i < ds.Len(); i++ {
		_, _, err := ds.Get(i)
		require.NoError(t, err)
	}
	require.Zero(t, aug.calls.Load())
}

func TestGet_DiseasedAugmentedAtProbabilityOne(t *testing.T) {
	root := makeDataset(t, map[string]int{"Blight": 3})
	aug := &countingAugmenter{}
	ds, err := New(root, WithAugmenter(aug), WithAugmentProbability(1), WithSeed(5))
	require.NoError(t, err)

	for i := 0; i < ds.Len(); i++ {
		_, _, err := ds.Get(i)
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), aug.calls.Load())
}

func TestGet_ConcurrentReaders(t *testing.T) {
	root := makeDataset(t, map[string]int{"Blight": 4, "Healthy": 4})
	ds, err := New(root, WithSeed(8), WithTransform(vision.EvalPipeline()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < ds.Len(); i += 4 {
				_, _, err := ds.Get(i)
				require.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()
}

func TestShouldAugment(t *testing.T) {
	require.False(t, ShouldAugment("Potato___healthy", 0, 1))
	require.False(t, ShouldAugment("HealthyLeaf", 0.01, 0.25))
	require.True(t, ShouldAugment("Potato___Early_blight", 0.1, 0.25))
	require.False(t, ShouldAugment("Potato___Early_blight", 0.3, 0.25))
}

func TestNew_FollowsSymlinks(t *testing.T) {
	src := makeDataset(t, map[string]int{"Tomato_healthy": 2, "Blight": 2})
	root := t.TempDir()

	// папка класса ссылкой и отдельный файл ссылкой
	require.NoError(t, os.Symlink(filepath.Join(src, "Tomato_healthy"), filepath.Join(root, "Tomato_healthy")))
	blight := filepath.Join(root, "Blight")
	require.NoError(t, os.MkdirAll(blight, 0o755))
	require.NoError(t, os.Symlink(filepath.Join(src, "Blight", "img_000.png"), filepath.Join(blight, "linked.png")))
	require.NoError(t, os.Symlink(filepath.Join(src, "missing.png"), filepath.Join(blight, "broken.png")))

	ds, err := New(root, WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, []string{"Blight", "Tomato_healthy"}, ds.Classes())
	require.Equal(t, map[string]int{"Blight": 1, "Tomato_healthy": 2}, ds.CountByClass())
}
