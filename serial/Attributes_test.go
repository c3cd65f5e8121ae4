package serial

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclare(t *testing.T) {
	var a Attributes
	require.NoError(t, a.Declare("weights", Tensor.Spec()))
	require.NoError(t, a.Merge(map[string]Spec{
		"buffer":  Array.FullSaveOnly(),
		"weights": Array.Spec(),
	}))

	assert.Equal(t, []string{"buffer", "weights"}, a.Names())
	assert.Equal(t, 2, a.Len())

	spec, ok := a.Spec("weights")
	require.True(t, ok)
	assert.Equal(t, Array.Spec(), spec, "last declaration must win")

	_, ok = a.Spec("missing")
	assert.False(t, ok)
}

func TestDeclareInvalid(t *testing.T) {
	tests := map[string]struct {
		name string
		spec Spec
	}{
		"EmptyName":  {"", Config.Spec()},
		"SlashName":  {"a/b", Config.Spec()},
		"EmptyCodec": {"a", Spec{}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a := NewAttributes()
			err := a.Declare(test.name, test.spec)
			assert.True(t, errors.Is(err, ErrDeclaration))
			assert.Zero(t, a.Len())
		})
	}
}

func TestAttributesJSON(t *testing.T) {
	a := NewAttributes()
	require.NoError(t, a.Merge(map[string]Spec{
		"target": Array.FullSaveOnly(),
		"policy": Object.Spec(),
	}))

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"policy": {"codec": "object"},
		"target": {"codec": "npy", "full_save_only": true}
	}`, string(data))

	var b Attributes
	require.NoError(t, json.Unmarshal(data, &b))
	assert.Equal(t, a.Names(), b.Names())
	spec, _ := b.Spec("target")
	assert.True(t, spec.FullSaveOnly)
}

func TestCodecs(t *testing.T) {
	kinds := Codecs()
	for _, k := range []Kind{Config, Array, Tensor, Object} {
		assert.Contains(t, kinds, k)
	}

	assert.Panics(t, func() { RegisterCodec("", Codec{}) })
	assert.Panics(t, func() { RegisterCodec("broken", Codec{}) })
}

func TestRegister(t *testing.T) {
	assert.Contains(t, Registered(), "serial.agentA")

	id, err := TypeID(&childC{})
	require.NoError(t, err)
	assert.Equal(t, "serial.childC", id)

	_, err = TypeID(&unregistered{})
	assert.True(t, errors.Is(err, ErrUnknownType))

	assert.NotPanics(t, func() {
		Register("serial.childC", func() Serializable { return &childC{} })
	})
	assert.Panics(t, func() {
		Register("serial.agentA", func() Serializable { return &childC{} })
	})
	assert.Panics(t, func() {
		Register("serial.other", func() Serializable { return &agentA{} })
	})
	assert.Panics(t, func() { Register("", nil) })
}
