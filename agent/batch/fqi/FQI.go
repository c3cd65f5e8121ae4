// Package fqi implements the Fitted Q-Iteration family of batch
// reinforcement learning algorithms:
//
//	Tree-Based Batch Mode Reinforcement Learning. Ernst D. et al. 2005.
//	Boosted Fitted Q-Iteration. Tosatto S. et al. 2017.
//	Estimating the Maximum Expected Value in Continuous Reinforcement
//	Learning Problems. D'Eramo C. et al. 2017.
package fqi

import (
	"fmt"
	"io"
	"os"

	"github.com/samuelfneumann/batchlearn/agent"
	"github.com/samuelfneumann/batchlearn/agent/policy"
	"github.com/samuelfneumann/batchlearn/approximator"
	"github.com/samuelfneumann/batchlearn/dataset"
	"github.com/samuelfneumann/batchlearn/experiment/checkpointer"
	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/samuelfneumann/batchlearn/utils/matutils"
	"github.com/samuelfneumann/batchlearn/utils/progressbar"
	"github.com/samuelfneumann/batchlearn/utils/tensorutils"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

func init() {
	serial.Register("fqi.FQI", func() serial.Serializable {
		return &FQI{}
	})
}

var (
	_ agent.Agent = &FQI{}
	_ agent.Agent = &DoubleFQI{}
)

// progressWidth is the width of the progress bar printed by Fit
const progressWidth = 40

// Config describes the variant of the algorithm
type Config struct {
	// Boosted fits one member of an approximator.Ensemble with
	// approximator.Sum reduction to the residual of each iteration
	Boosted bool

	// Quiet disables the progress bar
	Quiet bool
}

// FQI implements Fitted Q-Iteration. On each iteration, the approximator
// is fit to the one-step bootstrapped targets computed with the
// approximator of the previous iteration. The first iteration fits the
// rewards.
//
// The approximator is shared with an ε-greedy policy which is used to
// select actions.
type FQI struct {
	serial.Base
	info   agent.Info
	config Config

	approximator approximator.QRegressor
	policy       *policy.EGreedy

	// target is the target of the last iteration, or nil if no iteration
	// has been performed
	target *tensor.Dense

	// Boosted state. prediction is the sum of the targets fit so far and
	// nextQ the sum of the predictions of the fit ensemble members in
	// the next states. idx is the index of the next member to fit.
	prediction *tensor.Dense
	nextQ      *tensor.Dense
	idx        int

	iteration int

	progress     io.Writer
	checkpointer checkpointer.Checkpointer
}

// New returns a new FQI agent. If the config is Boosted, q must be an
// *approximator.Ensemble with approximator.Sum reduction, and each
// iteration fits the next member of the ensemble.
func New(info agent.Info, q approximator.QRegressor, p *policy.EGreedy,
	c Config) (*FQI, error) {
	f := &FQI{}
	if err := f.setup(info, q, p, c); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if c.Boosted {
		if err := checkBoosted(q); err != nil {
			return nil, fmt.Errorf("new: %w", err)
		}
	}
	return f, nil
}

// setup validates and declares the attributes of a new agent
func (f *FQI) setup(info agent.Info, q approximator.QRegressor,
	p *policy.EGreedy, c Config) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if q == nil || p == nil {
		return fmt.Errorf("approximator and policy must be set")
	}
	if err := checkApproximator(info, q); err != nil {
		return err
	}

	f.info = info
	f.config = c
	f.approximator = q
	f.policy = p
	f.policy.SetQ(q)

	return f.DeclareAll(map[string]serial.Spec{
		"info":         serial.Config.Spec(),
		"config":       serial.Config.Spec(),
		"approximator": serial.Object.Spec(),
		"policy":       serial.Object.Spec(),
		"target":       serial.Array.FullSaveOnly(),
		"prediction":   serial.Array.FullSaveOnly(),
		"next_q":       serial.Array.FullSaveOnly(),
		"idx":          serial.Config.Spec(),
		"iteration":    serial.Config.Spec(),
	})
}

// checkApproximator returns an error if q does not match info
func checkApproximator(info agent.Info, q approximator.QRegressor) error {
	if q.Actions() != info.Actions || q.Features() != info.Features {
		return fmt.Errorf("approximator has %d actions and %d features"+
			"\n\twant(%d, %d)", q.Actions(), q.Features(), info.Actions,
			info.Features)
	}
	return nil
}

// checkBoosted returns an error if q cannot be used by boosted FQI
func checkBoosted(q approximator.QRegressor) error {
	e, ok := q.(*approximator.Ensemble)
	if !ok {
		return fmt.Errorf("boosted FQI needs an ensemble, have %T", q)
	}
	if e.Reduce() != approximator.Sum {
		return fmt.Errorf("boosted FQI needs an ensemble with %v "+
			"reduction, have %v", approximator.Sum, e.Reduce())
	}
	return nil
}

// Fields implements the serial.Serializable interface
func (f *FQI) Fields() serial.Fields {
	return serial.Fields{
		"info":         &f.info,
		"config":       &f.config,
		"approximator": &f.approximator,
		"policy":       &f.policy,
		"target":       &f.target,
		"prediction":   &f.prediction,
		"next_q":       &f.nextQ,
		"idx":          &f.idx,
		"iteration":    &f.iteration,
	}
}

// PostLoad implements the serial.Serializable interface. It shares the
// restored approximator with the restored policy.
func (f *FQI) PostLoad() error {
	if err := checkApproximator(f.info, f.approximator); err != nil {
		return fmt.Errorf("postLoad: %w", err)
	}
	if f.config.Boosted {
		if err := checkBoosted(f.approximator); err != nil {
			return fmt.Errorf("postLoad: %w", err)
		}
	}
	f.policy.SetQ(f.approximator)
	return nil
}

// Info returns the description of the problem the agent solves
func (f *FQI) Info() agent.Info {
	return f.info
}

// Approximator returns the action value approximator of the agent
func (f *FQI) Approximator() approximator.QRegressor {
	return f.approximator
}

// Policy returns the policy of the agent
func (f *FQI) Policy() *policy.EGreedy {
	return f.policy
}

// Iteration returns the number of iterations performed
func (f *FQI) Iteration() int {
	return f.iteration
}

// Target returns a copy of the target of the last iteration, or nil if
// no iteration has been performed since the agent was created or loaded
// without its target
func (f *FQI) Target() []float64 {
	if f.target == nil {
		return nil
	}
	return tensorutils.Float64s(f.target)
}

// SetProgressOutput sets where the progress bar is printed. By default
// it is printed to os.Stderr.
func (f *FQI) SetProgressOutput(w io.Writer) {
	f.progress = w
}

// SetCheckpointer sets a checkpointer that is called after each
// iteration
func (f *FQI) SetCheckpointer(c checkpointer.Checkpointer) {
	f.checkpointer = c
}

// Predict returns the values of each action in each state
func (f *FQI) Predict(states *mat.Dense) (*mat.Dense, error) {
	return f.approximator.Predict(states)
}

// SelectAction selects an action in a state with the agent's policy
func (f *FQI) SelectAction(state mat.Vector) (int, error) {
	return f.policy.SelectAction(state)
}

// Eval sets the agent to evaluation mode
func (f *FQI) Eval() {
	f.policy.Eval()
}

// Train sets the agent to training mode
func (f *FQI) Train() {
	f.policy.Train()
}

// IsEval indicates if the agent is in evaluation mode
func (f *FQI) IsEval() bool {
	return f.policy.IsEval()
}

// Fit performs iterations iterations of FQI on a dataset. Each call may
// use a different dataset. With boosting, the dataset must have the same
// number of transitions on every call until the boosting state is reset
// by loading the agent from a partial save.
func (f *FQI) Fit(d dataset.Dataset, iterations int) error {
	step := f.step
	if f.config.Boosted {
		step = f.stepBoosted
	}
	if err := f.fit(d, iterations, step); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	return nil
}

// fit runs the fit loop with the given iteration step
func (f *FQI) fit(d dataset.Dataset, iterations int,
	step func(dataset.Dataset) error) error {
	if iterations < 0 {
		return fmt.Errorf("cannot perform %d iterations", iterations)
	}
	var bar *progressbar.ManualProgressBar
	if !f.config.Quiet {
		out := f.progress
		if out == nil {
			out = os.Stderr
		}
		bar = progressbar.NewManualProgressBar(out, progressWidth, iterations)
		bar.Display()
		defer bar.Clear()
	}

	for i := 0; i < iterations; i++ {
		if err := step(d); err != nil {
			return fmt.Errorf("iteration %d: %w", f.iteration, err)
		}
		f.iteration++

		logrus.WithFields(logrus.Fields{
			"iteration": f.iteration,
			"idx":       f.idx,
		}).Debug("fit: iteration complete")

		if f.checkpointer != nil {
			if err := f.checkpointer.Checkpoint(f.iteration); err != nil {
				return err
			}
		}
		if bar != nil {
			bar.Increment()
			bar.Display()
		}
	}
	return nil
}

// parse returns the dataset in matrix form, checking it against the
// agent's info
func (f *FQI) parse(d dataset.Dataset) (dataset.Batch, error) {
	b, err := d.Parse()
	if err != nil {
		return dataset.Batch{}, err
	}
	if b.Features() != f.info.Features {
		return dataset.Batch{}, fmt.Errorf("dataset has %d features\n\t"+
			"want(%d)", b.Features(), f.info.Features)
	}
	return b, nil
}

// bootstrap returns reward + γ max_a q[i, a], where rows of q for
// absorbing transitions are zeroed in place
func (f *FQI) bootstrap(b dataset.Batch, q *mat.Dense) []float64 {
	matutils.ZeroRows(q, b.Absorbing)
	maxQ, _ := matutils.RowMax(q)

	target := make([]float64, b.Len())
	for i := range target {
		target[i] = b.Rewards[i] + f.info.Gamma*maxQ[i]
	}
	return target
}

// step performs a single iteration of FQI
func (f *FQI) step(d dataset.Dataset) error {
	b, err := f.parse(d)
	if err != nil {
		return err
	}

	target := b.Rewards
	if f.target != nil {
		q, err := f.approximator.Predict(b.NextStates)
		if err != nil {
			return err
		}
		target = f.bootstrap(b, q)
	}

	f.target = tensorutils.FromFloat64s(target, len(target))
	return f.approximator.Fit(b.States, b.Actions, target)
}

// stepBoosted performs a single iteration of boosted FQI, fitting the
// next ensemble member to the difference between the target and the
// sum of the targets fit so far
func (f *FQI) stepBoosted(d dataset.Dataset) error {
	b, err := f.parse(d)
	if err != nil {
		return err
	}
	ensemble := f.approximator.(*approximator.Ensemble)
	if f.idx >= ensemble.Len() {
		return fmt.Errorf("all %d ensemble members have been fit",
			ensemble.Len())
	}

	if f.target == nil || f.prediction == nil || f.nextQ == nil {
		f.prediction = tensorutils.FromFloat64s(make([]float64, b.Len()),
			b.Len())
		f.nextQ = tensorutils.FromFloat64s(
			make([]float64, b.Len()*f.info.Actions), b.Len(), f.info.Actions)
		f.idx = 0
		ensemble.Reset()
	} else if f.prediction.Size() != b.Len() {
		return fmt.Errorf("dataset has %d transitions, boosted "+
			"predictions have %d", b.Len(), f.prediction.Size())
	}

	target := append([]float64{}, b.Rewards...)
	if f.idx > 0 {
		nextQ, err := tensorutils.ToDense(f.nextQ)
		if err != nil {
			return err
		}
		q, err := ensemble.PredictMember(f.idx-1, b.NextStates)
		if err != nil {
			return err
		}
		nextQ.Add(nextQ, q)

		target = f.bootstrap(b, nextQ)
		f.nextQ = tensorutils.FromDense(nextQ)
	}

	prediction := tensorutils.Float64s(f.prediction)
	for i := range target {
		target[i] -= prediction[i]
		prediction[i] += target[i]
	}

	err = ensemble.FitMember(f.idx, b.States, b.Actions, target)
	if err != nil {
		return err
	}

	f.target = tensorutils.FromFloat64s(target, len(target))
	f.prediction = tensorutils.FromFloat64s(prediction, len(prediction))
	f.idx++
	return nil
}
