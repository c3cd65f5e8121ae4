package policy

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/batchlearn/approximator"
	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// newQ returns a QRegressor over 3 actions whose values in state s are
// (0, s, 0)
func newQ(t *testing.T) approximator.QRegressor {
	t.Helper()
	q, err := approximator.NewActionRegressor(3,
		func() (approximator.Model, error) {
			return approximator.NewLinear(approximator.LinearConfig{
				Features: 1,
			})
		})
	require.NoError(t, err)

	states := mat.NewDense(1, 1, []float64{1})
	require.NoError(t, q.Fit(states, []int{1}, []float64{1}))
	return q
}

func TestEGreedyProbabilities(t *testing.T) {
	p, err := NewEGreedy(0.3, 1)
	require.NoError(t, err)

	_, err = p.SelectAction(mat.NewVecDense(1, []float64{1}))
	assert.Error(t, err)

	p.SetQ(newQ(t))
	probs, err := p.Probabilities(mat.NewVecDense(1, []float64{2}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.8, 0.1}, probs, 1e-12)

	// All actions are greedy in state 0
	probs, err = p.Probabilities(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1. / 3, 1. / 3, 1. / 3}, probs, 1e-12)

	p.Eval()
	assert.True(t, p.IsEval())
	probs, err = p.Probabilities(mat.NewVecDense(1, []float64{2}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 0}, probs, 1e-12)

	for i := 0; i < 20; i++ {
		a, err := p.SelectAction(mat.NewVecDense(1, []float64{2}))
		require.NoError(t, err)
		assert.Equal(t, 1, a)
	}
	p.Train()
	assert.False(t, p.IsEval())

	_, err = p.Probabilities(mat.NewVecDense(2, nil))
	assert.Error(t, err)
}

func TestEGreedyInvalid(t *testing.T) {
	_, err := NewEGreedy(1.5, 0)
	assert.Error(t, err)

	p, err := NewEGreedy(0.1, 0)
	require.NoError(t, err)
	assert.Error(t, p.SetEpsilon(-0.1))
	require.NoError(t, p.SetEpsilon(0.5))
	assert.Equal(t, 0.5, p.Epsilon())
}

func TestEGreedySaveLoad(t *testing.T) {
	q := newQ(t)
	p, err := NewEGreedy(0.5, 42)
	require.NoError(t, err)
	p.SetQ(q)

	state := mat.NewVecDense(1, []float64{1})
	want := make([]int, 50)
	for i := range want {
		want[i], err = p.SelectAction(state)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "policy.zip")
	require.NoError(t, serial.Save(path, p, false))
	loaded, err := serial.LoadAs[*EGreedy](path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, loaded.Epsilon())
	assert.Nil(t, loaded.Q())

	// The random number generator restarts from the seed
	loaded.SetQ(q)
	for i := range want {
		a, err := loaded.SelectAction(state)
		require.NoError(t, err)
		assert.Equal(t, want[i], a)
	}
}
