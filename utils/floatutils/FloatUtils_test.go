package floatutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(3, -1, 1))
	assert.Equal(t, -1.0, Clip(-3, -1, 1))
	assert.Equal(t, 0.5, Clip(0.5, -1, 1))
}

func TestMaxSlice(t *testing.T) {
	tests := []struct {
		values  []float64
		max     float64
		indices []int
	}{
		{[]float64{1}, 1, []int{0}},
		{[]float64{1, 3, 2}, 3, []int{1}},
		{[]float64{2, 1, 2}, 2, []int{0, 2}},
		{[]float64{0, 0, 0}, 0, []int{0, 1, 2}},
	}

	for _, test := range tests {
		max, indices := MaxSlice(test.values)
		assert.Equal(t, test.max, max)
		assert.Equal(t, test.indices, indices)
	}
}
