package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-vision/internal/domain/entity"
)

func smallShape(numClasses int) entity.ModelShape {
	return entity.ModelShape{NumClasses: numClasses, Channels: 8, EmbedDim: 8, Hidden: 16, Dropout: 0}
}

// patternTensor детерминированный вход с разной структурой для разных seed.
func patternTensor(seed int) *entity.Tensor {
	t := entity.NewTensor(entity.ImageChannels, entity.ImageSize, entity.ImageSize)
	for c := 0; c < t.Channels; c++ {
		for y := 0; y < t.Height; y++ {
			for x := 0; x < t.Width; x++ {
				v := 0.5 + 0.5*math.Sin(float64((c+1)*(seed+1))*0.05*float64(x)+float64(seed)*0.07*float64(y))
				t.Set(c, y, x, v)
			}
		}
	}
	return t
}

func newSmallNet(t *testing.T, numClasses int) *HybridNet {
	t.Helper()
	m, err := New(smallShape(numClasses), 1)
	require.NoError(t, err)
	return m
}
