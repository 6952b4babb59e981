package app

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-vision/internal/domain/entity"
	"leaf-vision/internal/infrastructure/nn"
)

func leafPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 48; x++ {
			img.SetRGBA(x, y, color.RGBA{R: shade + uint8(x), G: 140 + uint8(y), B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// makeDataset создаёт root/<class>/leaf_N.png.
func makeDataset(t *testing.T, classes []string, perClass int) string {
	t.Helper()
	root := t.TempDir()
	for ci, class := range classes {
		dir := filepath.Join(root, class)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for i := 0; i < perClass; i++ {
			data := leafPNG(t, uint8(ci*90+i*5))
			require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("leaf_%d.png", i)), data, 0o644))
		}
	}
	return root
}

func smallTrainConfig(dataDir string) TrainConfig {
	return TrainConfig{
		DataDir:      dataDir,
		Epochs:       1,
		BatchSize:    16,
		LearningRate: 1e-3,
		Workers:      2,
		Seed:         1,
		Channels:     8,
		EmbedDim:     8,
		Hidden:       16,
	}
}

func readyContext(t *testing.T, classes []string) *ServingContext {
	t.Helper()
	model, err := nn.New(entity.ModelShape{NumClasses: len(classes), Channels: 8, EmbedDim: 8, Hidden: 16}, 3)
	require.NoError(t, err)
	return &ServingContext{Model: model, Classes: classes, Device: DeviceCPU, Outcome: entity.OutcomeReady()}
}

func decodeForTest(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}
