package initwfn

import G "gorgonia.org/gorgonia"

// GaussianConfig configures weights drawn independently from a
// Gaussian distribution
type GaussianConfig struct {
	Mean   float64
	StdDev float64 `validate:"gt=0"`
}

// NewGaussian returns a new Gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	return newInitWFn(GaussianConfig{Mean: mean, StdDev: stddev})
}

func (GaussianConfig) Type() Type { return Gaussian }

func (c GaussianConfig) Create() G.InitWFn {
	return G.Gaussian(c.Mean, c.StdDev)
}

// UniformConfig configures weights drawn independently from the
// interval [Low, High)
type UniformConfig struct {
	Low  float64 `validate:"ltfield=High"`
	High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	return newInitWFn(UniformConfig{Low: low, High: high})
}

func (UniformConfig) Type() Type { return Uniform }

func (c UniformConfig) Create() G.InitWFn { return G.Uniform(c.Low, c.High) }

// ZeroesConfig configures all weights to be zero
type ZeroesConfig struct{}

// NewZeroes returns a new zero weight initializer
func NewZeroes() (*InitWFn, error) { return newInitWFn(ZeroesConfig{}) }

func (ZeroesConfig) Type() Type { return Zeroes }

func (ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }

// OnesConfig configures all weights to be one
type OnesConfig struct{}

// NewOnes returns a new ones weight initializer
func NewOnes() (*InitWFn, error) { return newInitWFn(OnesConfig{}) }

func (OnesConfig) Type() Type { return Ones }

func (OnesConfig) Create() G.InitWFn { return G.Ones() }

// ConstantConfig configures all weights to be Value
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight initializer
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{Value: value})
}

func (ConstantConfig) Type() Type { return Constant }

func (c ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }
