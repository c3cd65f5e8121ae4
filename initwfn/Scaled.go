package initwfn

import G "gorgonia.org/gorgonia"

// Variance scaling initializers. Each scales the variance of the
// weights of a layer by its fan in and fan out, multiplied by Gain.

// GlorotUConfig configures Glorot uniform initialization
type GlorotUConfig struct {
	Gain float64 `validate:"gt=0"`
}

// NewGlorotU returns a new Glorot uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotUConfig{Gain: gain})
}

func (GlorotUConfig) Type() Type { return GlorotU }

func (c GlorotUConfig) Create() G.InitWFn { return G.GlorotU(c.Gain) }

// GlorotNConfig configures Glorot normal initialization
type GlorotNConfig struct {
	Gain float64 `validate:"gt=0"`
}

// NewGlorotN returns a new Glorot normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotNConfig{Gain: gain})
}

func (GlorotNConfig) Type() Type { return GlorotN }

func (c GlorotNConfig) Create() G.InitWFn { return G.GlorotN(c.Gain) }

// HeUConfig configures He uniform initialization
type HeUConfig struct {
	Gain float64 `validate:"gt=0"`
}

// NewHeU returns a new He uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeUConfig{Gain: gain})
}

func (HeUConfig) Type() Type { return HeU }

func (c HeUConfig) Create() G.InitWFn { return G.HeU(c.Gain) }

// HeNConfig configures He normal initialization
type HeNConfig struct {
	Gain float64 `validate:"gt=0"`
}

// NewHeN returns a new He normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeNConfig{Gain: gain})
}

func (HeNConfig) Type() Type { return HeN }

func (c HeNConfig) Create() G.InitWFn { return G.HeN(c.Gain) }
