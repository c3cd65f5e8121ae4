package serial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	a := newAgentA(t)
	dup, err := CopyAs(a)
	require.NoError(t, err)

	assert.Equal(t, a.weights.Data(), dup.weights.Data())
	assert.Equal(t, a.buffer.Data(), dup.buffer.Data())
	assert.Equal(t, a.config, dup.config)
	assert.Equal(t, 1, dup.postLoads)
	assert.Equal(t, 0, a.postLoads)

	// Mutating the original must not change the copy
	a.weights.Data().([]float64)[0] = 100
	a.buffer.Data().([]float64)[0] = 100
	a.config["lr"] = 1.0
	assert.Equal(t, 0.1, dup.weights.Data().([]float64)[0])
	assert.Equal(t, 1.0, dup.buffer.Data().([]float64)[0])
	assert.Equal(t, 0.01, dup.config["lr"])

	// Declarations are independent
	require.NoError(t, a.Declare("extra", Config.Spec()))
	_, ok := dup.Attributes().Spec("extra")
	assert.False(t, ok)
}

func TestCopyNested(t *testing.T) {
	b := newParentB(t)
	obj, err := Copy(b)
	require.NoError(t, err)

	dup := obj.(*parentB)
	require.NotSame(t, b.child, dup.child)
	assert.Equal(t, b.child.values.Data(), dup.child.values.Data())

	b.child.values.Data().([]int64)[0] = -1
	assert.Equal(t, int64(1), dup.child.values.Data().([]int64)[0])
}

func TestCopyAbsent(t *testing.T) {
	a := newAgentA(t)
	a.buffer = nil
	dup, err := CopyAs(a)
	require.NoError(t, err)
	assert.Nil(t, dup.buffer)

	b := newParentB(t)
	b.child = nil
	_, err = Copy(b)
	assert.True(t, errors.Is(err, ErrEncoding))
}

func TestCopyUnregistered(t *testing.T) {
	_, err := Copy(&unregistered{})
	assert.True(t, errors.Is(err, ErrUnknownType))
}
