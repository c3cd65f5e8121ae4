package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func chain(n int) Dataset {
	d := make(Dataset, n)
	for i := 0; i < n; i++ {
		state := mat.NewVecDense(2, []float64{float64(i), 1})
		next := mat.NewVecDense(2, []float64{float64(i + 1), 1})
		d[i] = New(state, i%2, float64(i), next, i == n-1, false)
	}
	return d
}

func TestParse(t *testing.T) {
	d := chain(4)
	b, err := d.Parse()
	require.NoError(t, err)

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 2, b.Features())
	assert.Equal(t, []int{0, 1, 0, 1}, b.Actions)
	assert.Equal(t, []float64{0, 1, 2, 3}, b.Rewards)
	assert.Equal(t, []bool{false, false, false, true}, b.Absorbing)
	assert.Equal(t, []bool{false, false, false, true}, b.Last)
	assert.Equal(t, 2.0, b.States.At(2, 0))
	assert.Equal(t, 3.0, b.NextStates.At(2, 0))
}

func TestParseInvalid(t *testing.T) {
	_, err := Dataset{}.Parse()
	assert.Error(t, err)

	d := chain(2)
	d[1].NextState = mat.NewVecDense(3, nil)
	_, err = d.Parse()
	assert.Error(t, err)

	d = chain(2)
	d[0].Action = -1
	_, err = d.Parse()
	assert.Error(t, err)
}

func TestHalves(t *testing.T) {
	first, second := chain(5).Halves()
	assert.Len(t, first, 2)
	assert.Len(t, second, 3)
	assert.Equal(t, 2.0, second[0].Reward)
}

func TestShuffle(t *testing.T) {
	d := chain(20)
	a := d.Shuffle(1)
	b := d.Shuffle(1)
	assert.Equal(t, a, b)
	assert.Len(t, a, 20)

	// The original Dataset is left untouched
	for i := range d {
		assert.Equal(t, float64(i), d[i].Reward)
	}
}

func TestEpisodes(t *testing.T) {
	d := append(chain(3), chain(2)...)
	assert.Equal(t, 2, d.Episodes())
	assert.Equal(t, 2, d[:4].Episodes())
	assert.Equal(t, 1, d[:2].Episodes())
}
