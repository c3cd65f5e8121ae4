package solver

import G "gorgonia.org/gorgonia"

// Default hyperparameters
const (
	DefaultEpsilon = 1e-8
	DefaultBeta1   = 0.9
	DefaultBeta2   = 0.999
	DefaultRho     = 0.999
)

// baseOpts returns the options shared by all Gorgonia Solvers. Gradients
// are clipped to [-clip, clip] if clip > 0.
func baseOpts(stepSize float64, batch int, clip float64) []G.SolverOpt {
	opts := []G.SolverOpt{
		G.WithLearnRate(stepSize),
		G.WithBatchSize(float64(batch)),
	}
	if clip > 0 {
		opts = append(opts, G.WithClip(clip))
	}
	return opts
}

// AdamConfig configures the Adam solver
type AdamConfig struct {
	StepSize float64 `validate:"gt=0"`
	Epsilon  float64 `validate:"gt=0"` // Smoothing factor
	Beta1    float64 `validate:"gte=0,lt=1"`
	Beta2    float64 `validate:"gte=0,lt=1"`
	Batch    int     `validate:"gte=1"`
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
func NewDefaultAdam(stepSize float64, batchSize int) (*Solver, error) {
	return NewAdam(stepSize, DefaultEpsilon, DefaultBeta1, DefaultBeta2,
		batchSize)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64,
	batchSize int) (*Solver, error) {
	return newSolver(Adam, AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Batch:    batchSize,
	})
}

func (a AdamConfig) Create() G.Solver {
	opts := append(baseOpts(a.StepSize, a.Batch, 0), G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1), G.WithBeta2(a.Beta2))
	return G.NewAdamSolver(opts...)
}

func (AdamConfig) ValidType(t Type) bool { return t == Adam }

// RMSPropConfig configures the RMSProp solver
type RMSPropConfig struct {
	StepSize float64 `validate:"gt=0"`
	Epsilon  float64 `validate:"gt=0"`
	Rho      float64 `validate:"gt=0,lt=1"`
	Batch    int     `validate:"gte=1"`
	Clip     float64 // <= 0 if no clipping
}

// NewDefaultRMSProp returns a new RMSProp Solver with default
// hyperparameters and no clipping
func NewDefaultRMSProp(stepSize float64, batchSize int) (*Solver, error) {
	return NewRMSProp(stepSize, DefaultEpsilon, DefaultRho, batchSize, 0)
}

// NewRMSProp returns a new RMSProp Solver
func NewRMSProp(stepSize, epsilon, rho float64, batchSize int,
	clip float64) (*Solver, error) {
	return newSolver(RMSProp, RMSPropConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
		Batch:    batchSize,
		Clip:     clip,
	})
}

func (r RMSPropConfig) Create() G.Solver {
	opts := append(baseOpts(r.StepSize, r.Batch, r.Clip),
		G.WithEps(r.Epsilon), G.WithRho(r.Rho))
	return G.NewRMSPropSolver(opts...)
}

func (RMSPropConfig) ValidType(t Type) bool { return t == RMSProp }

// VanillaConfig configures stochastic gradient descent
type VanillaConfig struct {
	StepSize float64 `validate:"gt=0"`
	Batch    int     `validate:"gte=1"`
	Clip     float64 // <= 0 if no clipping
}

// NewVanilla returns a new Vanilla Solver
func NewVanilla(stepSize float64, batchSize int,
	clip float64) (*Solver, error) {
	return newSolver(Vanilla, VanillaConfig{
		StepSize: stepSize,
		Batch:    batchSize,
		Clip:     clip,
	})
}

func (v VanillaConfig) Create() G.Solver {
	return G.NewVanillaSolver(baseOpts(v.StepSize, v.Batch, v.Clip)...)
}

func (VanillaConfig) ValidType(t Type) bool { return t == Vanilla }
