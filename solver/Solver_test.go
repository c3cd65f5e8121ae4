package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolverJSON(t *testing.T) {
	adam, err := NewDefaultAdam(0.01, 4)
	require.NoError(t, err)
	rms, err := NewDefaultRMSProp(0.001, 1)
	require.NoError(t, err)
	vanilla, err := NewVanilla(0.1, 1, 5)
	require.NoError(t, err)

	for _, s := range []*Solver{adam, rms, vanilla} {
		t.Run(string(s.Type), func(t *testing.T) {
			data, err := json.Marshal(s)
			require.NoError(t, err)

			var out Solver
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, s.Type, out.Type)
			assert.Equal(t, s.Config, out.Config)
			assert.NotNil(t, out.Create())
		})
	}
}

func TestSolverInvalid(t *testing.T) {
	_, err := NewDefaultAdam(-1, 1)
	assert.Error(t, err)

	_, err = NewVanilla(0.1, 0, 0)
	assert.Error(t, err)

	var s Solver
	assert.Error(t, json.Unmarshal([]byte(`{"Type":"SGD","Config":{}}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"Type":"Adam","Config":`+
		`{"StepSize":0.1,"Epsilon":1e-8,"Beta1":0.9,"Beta2":0.999,`+
		`"Batch":0}}`), &s))
}
