package fqi

import (
	"fmt"

	"github.com/samuelfneumann/batchlearn/agent"
	"github.com/samuelfneumann/batchlearn/agent/policy"
	"github.com/samuelfneumann/batchlearn/approximator"
	"github.com/samuelfneumann/batchlearn/dataset"
	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/samuelfneumann/batchlearn/utils/matutils"
	"github.com/samuelfneumann/batchlearn/utils/tensorutils"
)

func init() {
	serial.Register("fqi.DoubleFQI", func() serial.Serializable {
		return &DoubleFQI{}
	})
}

// DoubleFQI implements Double Fitted Q-Iteration. The dataset is split
// in halves and each half is used to fit one of the two members of an
// approximator.Ensemble. The target of each member selects the greedy
// action in the next state with its own values and evaluates it with
// the values of the other member.
type DoubleFQI struct {
	FQI
}

// NewDouble returns a new DoubleFQI agent. The approximator must be an
// *approximator.Ensemble with two members. Boosting is not supported.
func NewDouble(info agent.Info, q approximator.QRegressor,
	p *policy.EGreedy, c Config) (*DoubleFQI, error) {
	if c.Boosted {
		return nil, fmt.Errorf("newDouble: boosting is not supported")
	}
	if err := checkDouble(q); err != nil {
		return nil, fmt.Errorf("newDouble: %w", err)
	}

	f := &DoubleFQI{}
	if err := f.setup(info, q, p, c); err != nil {
		return nil, fmt.Errorf("newDouble: %w", err)
	}
	return f, nil
}

// checkDouble returns an error if q cannot be used by DoubleFQI
func checkDouble(q approximator.QRegressor) error {
	e, ok := q.(*approximator.Ensemble)
	if !ok {
		return fmt.Errorf("double FQI needs an ensemble, have %T", q)
	}
	if e.Len() != 2 {
		return fmt.Errorf("double FQI needs an ensemble of 2 members, "+
			"have %d", e.Len())
	}
	return nil
}

// PostLoad implements the serial.Serializable interface
func (d *DoubleFQI) PostLoad() error {
	if d.config.Boosted {
		return fmt.Errorf("postLoad: boosting is not supported")
	}
	if err := checkDouble(d.approximator); err != nil {
		return fmt.Errorf("postLoad: %w", err)
	}
	return d.FQI.PostLoad()
}

// Fit performs iterations iterations of DoubleFQI on a dataset
func (d *DoubleFQI) Fit(data dataset.Dataset, iterations int) error {
	if err := d.fit(data, iterations, d.stepDouble); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	return nil
}

// stepDouble performs a single iteration of DoubleFQI. The target of
// the agent holds the targets of both halves of the dataset in order.
func (d *DoubleFQI) stepDouble(data dataset.Dataset) error {
	if len(data) < 2 {
		return fmt.Errorf("need at least 2 transitions, have %d", len(data))
	}
	ensemble := d.approximator.(*approximator.Ensemble)

	first, second := data.Halves()
	var halves [2]dataset.Batch
	for i, h := range []dataset.Dataset{first, second} {
		b, err := d.parse(h)
		if err != nil {
			return fmt.Errorf("half %d: %w", i, err)
		}
		halves[i] = b
	}

	var targets [2][]float64
	for i, b := range halves {
		if d.target == nil {
			targets[i] = b.Rewards
			continue
		}

		// Select with member i and evaluate with member 1 - i
		q, err := ensemble.PredictMember(i, b.NextStates)
		if err != nil {
			return err
		}
		matutils.ZeroRows(q, b.Absorbing)
		_, greedy := matutils.RowMax(q)

		values, err := ensemble.Member(1-i).PredictActions(b.NextStates,
			greedy)
		if err != nil {
			return err
		}

		targets[i] = make([]float64, b.Len())
		for j := range targets[i] {
			if b.Absorbing[j] {
				values[j] = 0
			}
			targets[i][j] = b.Rewards[j] + d.info.Gamma*values[j]
		}
	}

	for i, b := range halves {
		err := ensemble.FitMember(i, b.States, b.Actions, targets[i])
		if err != nil {
			return err
		}
	}

	target := append(append([]float64{}, targets[0]...), targets[1]...)
	d.target = tensorutils.FromFloat64s(target, len(target))
	return nil
}
