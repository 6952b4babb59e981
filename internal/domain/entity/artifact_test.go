package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArtifactValidate(t *testing.T) {
	a := &Artifact{
		ID:      "a1",
		Classes: []string{"Blight", "Healthy"},
		Params:  ModelParameters{Shape: ModelShape{NumClasses: 2}},
	}
	require.NoError(t, a.Validate())

	a.Params.Shape.NumClasses = 3
	require.Error(t, a.Validate())

	a.Classes = nil
	require.Error(t, a.Validate())
}
