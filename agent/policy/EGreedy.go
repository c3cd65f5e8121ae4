// Package policy implements policies derived from action value
// approximators
package policy

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samuelfneumann/batchlearn/approximator"
	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/samuelfneumann/batchlearn/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var policyValidate = validator.New()

func init() {
	serial.Register("policy.EGreedy", func() serial.Serializable {
		return &EGreedy{}
	})
}

// EGreedyConfig describes an EGreedy policy
type EGreedyConfig struct {
	Epsilon float64 `validate:"gte=0,lte=1"`
	Seed    uint64
}

// EGreedy implements an ε-greedy policy over the action values of a
// QRegressor. Ties between greedy actions are broken uniformly at
// random. In evaluation mode the policy acts greedily.
//
// The QRegressor is not saved with the policy, it must be set with SetQ
// by the owner of the QRegressor after loading.
type EGreedy struct {
	serial.Base
	config EGreedyConfig

	q      approximator.QRegressor
	source rand.Source
	eval   bool
}

// NewEGreedy returns a new EGreedy policy, where e=epsilon is the
// probability with which a random action is selected
func NewEGreedy(e float64, seed uint64) (*EGreedy, error) {
	config := EGreedyConfig{Epsilon: e, Seed: seed}
	if err := policyValidate.Struct(config); err != nil {
		return nil, fmt.Errorf("newEGreedy: %w", err)
	}

	p := &EGreedy{
		config: config,
		source: rand.NewSource(seed),
	}
	if err := p.Declare("config", serial.Config.Spec()); err != nil {
		return nil, fmt.Errorf("newEGreedy: %w", err)
	}
	return p, nil
}

// Fields implements the serial.Serializable interface
func (e *EGreedy) Fields() serial.Fields {
	return serial.Fields{"config": &e.config}
}

// PostLoad implements the serial.Serializable interface. The random
// number generator restarts from the seed.
func (e *EGreedy) PostLoad() error {
	e.source = rand.NewSource(e.config.Seed)
	return nil
}

// SetQ sets the QRegressor whose action values the policy acts on
func (e *EGreedy) SetQ(q approximator.QRegressor) {
	e.q = q
}

// Q returns the QRegressor whose action values the policy acts on
func (e *EGreedy) Q() approximator.QRegressor {
	return e.q
}

// Epsilon returns the probability of selecting a random action
func (e *EGreedy) Epsilon() float64 {
	return e.config.Epsilon
}

// SetEpsilon sets the probability of selecting a random action
func (e *EGreedy) SetEpsilon(epsilon float64) error {
	if epsilon < 0 || epsilon > 1 {
		return fmt.Errorf("setEpsilon: epsilon must be in [0, 1], have %v",
			epsilon)
	}
	e.config.Epsilon = epsilon
	return nil
}

// Probabilities returns the probability of selecting each action in a
// state
func (e *EGreedy) Probabilities(state mat.Vector) ([]float64, error) {
	if e.q == nil {
		return nil, fmt.Errorf("probabilities: no action values set")
	}
	if state.Len() != e.q.Features() {
		return nil, fmt.Errorf("probabilities: state has %d features\n\t"+
			"want(%d)", state.Len(), e.q.Features())
	}

	values, err := e.q.Predict(mat.DenseCopyOf(state.T()))
	if err != nil {
		return nil, fmt.Errorf("probabilities: %w", err)
	}
	_, greedy := floatutils.MaxSlice(values.RawRowView(0))

	epsilon := e.config.Epsilon
	if e.eval {
		epsilon = 0
	}

	numActions := e.q.Actions()
	probs := make([]float64, numActions)
	for i := range probs {
		probs[i] = epsilon / float64(numActions)
	}
	for _, i := range greedy {
		probs[i] += (1.0 - epsilon) / float64(len(greedy))
	}
	return probs, nil
}

// SelectAction samples an action in a state
func (e *EGreedy) SelectAction(state mat.Vector) (int, error) {
	probs, err := e.Probabilities(state)
	if err != nil {
		return 0, fmt.Errorf("selectAction: %w", err)
	}

	dist := distuv.NewCategorical(probs, e.source)
	return int(dist.Rand()), nil
}

// Eval sets the policy to evaluation mode
func (e *EGreedy) Eval() {
	e.eval = true
}

// Train sets the policy to training mode
func (e *EGreedy) Train() {
	e.eval = false
}

// IsEval indicates if the policy is in evaluation mode
func (e *EGreedy) IsEval() bool {
	return e.eval
}
