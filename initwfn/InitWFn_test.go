package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWFnJSON(t *testing.T) {
	constructors := map[string]func() (*InitWFn, error){
		"GlorotU":  func() (*InitWFn, error) { return NewGlorotU(1.0) },
		"GlorotN":  func() (*InitWFn, error) { return NewGlorotN(1.0) },
		"HeU":      func() (*InitWFn, error) { return NewHeU(2.0) },
		"HeN":      func() (*InitWFn, error) { return NewHeN(2.0) },
		"Zeroes":   NewZeroes,
		"Ones":     NewOnes,
		"Constant": func() (*InitWFn, error) { return NewConstant(0.5) },
		"Gaussian": func() (*InitWFn, error) { return NewGaussian(0, 0.1) },
		"Uniform":  func() (*InitWFn, error) { return NewUniform(-1, 1) },
	}

	for name, create := range constructors {
		t.Run(name, func(t *testing.T) {
			w, err := create()
			require.NoError(t, err)
			assert.Equal(t, Type(name), w.Type)

			data, err := json.Marshal(w)
			require.NoError(t, err)

			var out InitWFn
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, w.Type, out.Type)
			assert.Equal(t, w.Config, out.Config)
			assert.NotNil(t, out.InitWFn())
		})
	}
}

func TestInitWFnInvalid(t *testing.T) {
	_, err := NewUniform(1, -1)
	assert.Error(t, err)

	_, err = NewGaussian(0, 0)
	assert.Error(t, err)

	var i InitWFn
	assert.Error(t, json.Unmarshal([]byte(`{"Type":"Orthogonal"}`), &i))
}
