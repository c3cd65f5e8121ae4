package approximator

import (
	"errors"
	"fmt"
	"math"

	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/samuelfneumann/batchlearn/utils/tensorutils"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

func init() {
	serial.Register("approximator.Linear", func() serial.Serializable {
		return &Linear{}
	})
}

// LinearConfig describes a Linear regressor
type LinearConfig struct {
	Features int `validate:"gte=1"`

	// Regularization is the L2 penalty on the weights. The bias unit is
	// not regularized.
	Regularization float64 `validate:"gte=0"`
	Bias           bool
}

// Validate returns an error if the config is invalid
func (c LinearConfig) Validate() error {
	return approxValidate.Struct(c)
}

// Linear implements ridge regression of a single output. Fitting solves
// the regularized least squares problem exactly.
type Linear struct {
	serial.Base
	config LinearConfig

	// weights holds one weight per feature followed by the bias weight if
	// the config requests a bias unit
	weights *tensor.Dense
}

// NewLinear returns a new Linear regressor with zero weights
func NewLinear(c LinearConfig) (*Linear, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newLinear: %w", err)
	}

	size := c.Features
	if c.Bias {
		size++
	}
	l := &Linear{
		config:  c,
		weights: tensorutils.FromFloat64s(make([]float64, size), size),
	}

	err := l.DeclareAll(map[string]serial.Spec{
		"config":  serial.Config.Spec(),
		"weights": serial.Array.Spec(),
	})
	if err != nil {
		return nil, fmt.Errorf("newLinear: %w", err)
	}
	return l, nil
}

// Fields implements the serial.Serializable interface
func (l *Linear) Fields() serial.Fields {
	return serial.Fields{
		"config":  &l.config,
		"weights": &l.weights,
	}
}

// PostLoad implements the serial.Serializable interface
func (l *Linear) PostLoad() error {
	if l.weights == nil {
		return fmt.Errorf("postLoad: no weights")
	}
	want := l.config.Features
	if l.config.Bias {
		want++
	}
	if l.weights.Size() != want {
		return fmt.Errorf("postLoad: have %d weights\n\twant(%d)",
			l.weights.Size(), want)
	}
	return nil
}

// Features returns the number of features of each state
func (l *Linear) Features() int {
	return l.config.Features
}

// Weights returns a copy of the weights of the regressor
func (l *Linear) Weights() []float64 {
	return tensorutils.Float64s(l.weights)
}

// design returns the design matrix of states, with a column of ones
// appended if the regressor has a bias unit
func (l *Linear) design(states *mat.Dense) *mat.Dense {
	if !l.config.Bias {
		return states
	}

	rows, cols := states.Dims()
	x := mat.NewDense(rows, cols+1, nil)
	x.Slice(0, rows, 0, cols).(*mat.Dense).Copy(states)
	for i := 0; i < rows; i++ {
		x.Set(i, cols, 1.0)
	}
	return x
}

// Predict returns one prediction per row of states
func (l *Linear) Predict(states *mat.Dense) ([]float64, error) {
	if states == nil || states.IsEmpty() {
		return []float64{}, nil
	}
	rows, cols := states.Dims()
	if cols != l.config.Features {
		return nil, fmt.Errorf("predict: states have %d features\n\t"+
			"want(%d)", cols, l.config.Features)
	}

	w := mat.NewVecDense(l.weights.Size(), l.Weights())
	out := mat.NewVecDense(rows, nil)
	out.MulVec(l.design(states), w)
	return out.RawVector().Data, nil
}

// Fit fits the weights by regularized least squares
func (l *Linear) Fit(states *mat.Dense, targets []float64) error {
	if err := checkFit(states, l.config.Features, targets); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	x := l.design(states)
	_, size := x.Dims()

	// Solve (XᵀX + λI)w = Xᵀy
	var a mat.Dense
	a.Mul(x.T(), x)
	for i := 0; i < l.config.Features; i++ {
		a.Set(i, i, a.At(i, i)+l.config.Regularization)
	}

	var b mat.VecDense
	b.MulVec(x.T(), mat.NewVecDense(len(targets), targets))

	var w mat.VecDense
	if err := w.SolveVec(&a, &b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return fmt.Errorf("fit: %w", err)
		}
		logrus.WithField("condition", float64(cond)).Warn("fit: " +
			"least squares problem is ill-conditioned")
	}

	l.weights = tensorutils.FromFloat64s(w.RawVector().Data, size)
	return nil
}
