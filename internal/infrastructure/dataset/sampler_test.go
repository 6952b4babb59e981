package dataset

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleFiles_Bound(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 5, 250, 251, 600} {
		files := make([]string, n)
		for i := range files {
			files[i] = fmt.Sprintf("f%d.jpg", i)
		}

		got := SampleFiles(files, MaxSamplesPerClass, rnd)
		want := n
		if want > MaxSamplesPerClass {
			want = MaxSamplesPerClass
		}
		require.Len(t, got, want)

		seen := make(map[string]bool, len(got))
		for _, f := range got {
			require.False(t, seen[f], "duplicate %s", f)
			seen[f] = true
		}
	}
}

func TestSampleFiles_DoesNotMutateInput(t *testing.T) {
	files := []string{"a", "b", "c", "d"}
	SampleFiles(files, 2, rand.New(rand.NewSource(1)))
	require.Equal(t, []string{"a", "b", "c", "d"}, files)
}

func TestSampleFiles_SameSeedSameChoice(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e", "f"}
	a := SampleFiles(files, 3, rand.New(rand.NewSource(9)))
	b := SampleFiles(files, 3, rand.New(rand.NewSource(9)))
	require.Equal(t, a, b)
}
