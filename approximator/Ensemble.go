package approximator

import (
	"fmt"

	"github.com/samuelfneumann/batchlearn/serial"
	"gonum.org/v1/gonum/mat"
)

func init() {
	serial.Register("approximator.Ensemble", func() serial.Serializable {
		return &Ensemble{}
	})
}

// Reduce determines how the predictions of the members of an Ensemble
// are combined
type Reduce string

const (
	Mean Reduce = "mean"
	Sum  Reduce = "sum"
)

// EnsembleConfig describes an Ensemble
type EnsembleConfig struct {
	Reduce Reduce `validate:"oneof=mean sum"`
}

// Ensemble implements a QRegressor that combines the predictions of a
// number of member QRegressors. Only members that have been fit take
// part in predictions, an Ensemble with no fit members predicts zero.
type Ensemble struct {
	serial.Base
	config  EnsembleConfig
	members []QRegressor
	fitted  []bool
}

// NewEnsemble returns a new Ensemble with n members, each created by
// calling newMember
func NewEnsemble(n int, reduce Reduce,
	newMember func() (QRegressor, error)) (*Ensemble, error) {
	config := EnsembleConfig{Reduce: reduce}
	if err := approxValidate.Struct(config); err != nil {
		return nil, fmt.Errorf("newEnsemble: %w", err)
	}
	if n < 1 {
		return nil, fmt.Errorf("newEnsemble: need at least one member, "+
			"have %d", n)
	}

	e := &Ensemble{
		config:  config,
		members: make([]QRegressor, n),
		fitted:  make([]bool, n),
	}
	specs := map[string]serial.Spec{
		"config": serial.Config.Spec(),
		"fitted": serial.Config.Spec(),
	}

	for i := range e.members {
		member, err := newMember()
		if err != nil {
			return nil, fmt.Errorf("newEnsemble: could not create member "+
				"%d: %w", i, err)
		}
		if i > 0 && (member.Actions() != e.members[0].Actions() ||
			member.Features() != e.members[0].Features()) {
			return nil, fmt.Errorf("newEnsemble: member %d does not match "+
				"member 0", i)
		}
		e.members[i] = member
		specs[indexedName("member", i)] = serial.Object.Spec()
	}

	if err := e.DeclareAll(specs); err != nil {
		return nil, fmt.Errorf("newEnsemble: %w", err)
	}
	return e, nil
}

// Fields implements the serial.Serializable interface
func (e *Ensemble) Fields() serial.Fields {
	n := countIndexed(e.Attributes(), "member")
	if len(e.members) != n {
		e.members = make([]QRegressor, n)
	}

	fields := serial.Fields{
		"config": &e.config,
		"fitted": &e.fitted,
	}
	for i := range e.members {
		fields[indexedName("member", i)] = &e.members[i]
	}
	return fields
}

// PostLoad implements the serial.Serializable interface
func (e *Ensemble) PostLoad() error {
	if len(e.fitted) != len(e.members) {
		return fmt.Errorf("postLoad: have %d fitted flags for %d members",
			len(e.fitted), len(e.members))
	}
	return nil
}

// Reset marks every member as not fit
func (e *Ensemble) Reset() {
	for i := range e.fitted {
		e.fitted[i] = false
	}
}

// Reduce returns how the predictions of the members are combined
func (e *Ensemble) Reduce() Reduce {
	return e.config.Reduce
}

// Len returns the number of members
func (e *Ensemble) Len() int {
	return len(e.members)
}

// Member returns member i
func (e *Ensemble) Member(i int) QRegressor {
	return e.members[i]
}

// Fitted returns whether member i has been fit
func (e *Ensemble) Fitted(i int) bool {
	return e.fitted[i]
}

// Actions returns the number of actions
func (e *Ensemble) Actions() int {
	return e.members[0].Actions()
}

// Features returns the number of features of each state
func (e *Ensemble) Features() int {
	return e.members[0].Features()
}

// Predict returns the combined predictions of all fit members
func (e *Ensemble) Predict(states *mat.Dense) (*mat.Dense, error) {
	if states == nil || states.IsEmpty() {
		return nil, fmt.Errorf("predict: no states")
	}
	rows, _ := states.Dims()

	values := mat.NewDense(rows, e.Actions(), nil)
	n := 0
	for i, member := range e.members {
		if !e.fitted[i] {
			continue
		}

		pred, err := member.Predict(states)
		if err != nil {
			return nil, fmt.Errorf("predict: member %d: %w", i, err)
		}
		values.Add(values, pred)
		n++
	}

	if e.config.Reduce == Mean && n > 0 {
		values.Scale(1/float64(n), values)
	}
	return values, nil
}

// PredictMember returns the predictions of a single member
func (e *Ensemble) PredictMember(i int, states *mat.Dense) (*mat.Dense,
	error) {
	if i < 0 || i >= len(e.members) {
		return nil, fmt.Errorf("predictMember: no member %d", i)
	}
	return e.members[i].Predict(states)
}

// PredictActions returns the value of actions[i] in row i of states
func (e *Ensemble) PredictActions(states *mat.Dense,
	actions []int) ([]float64, error) {
	return predictActions(e, states, actions)
}

// Fit fits every member on the same data
func (e *Ensemble) Fit(states *mat.Dense, actions []int,
	targets []float64) error {
	for i := range e.members {
		if err := e.FitMember(i, states, actions, targets); err != nil {
			return err
		}
	}
	return nil
}

// FitMember fits a single member and marks it as fit
func (e *Ensemble) FitMember(i int, states *mat.Dense, actions []int,
	targets []float64) error {
	if i < 0 || i >= len(e.members) {
		return fmt.Errorf("fitMember: no member %d", i)
	}
	if err := e.members[i].Fit(states, actions, targets); err != nil {
		return fmt.Errorf("fitMember: member %d: %w", i, err)
	}
	e.fitted[i] = true
	return nil
}
