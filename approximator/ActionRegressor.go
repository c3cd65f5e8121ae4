package approximator

import (
	"fmt"

	"github.com/samuelfneumann/batchlearn/serial"
	"gonum.org/v1/gonum/mat"
)

func init() {
	serial.Register("approximator.ActionRegressor", func() serial.Serializable {
		return &ActionRegressor{}
	})
}

// ActionRegressor implements a QRegressor with one Model per action. The
// Model of each action is fit only on the states in which the action was
// taken.
type ActionRegressor struct {
	serial.Base
	actions int
	models  []Model
}

// NewActionRegressor returns a new ActionRegressor whose Models are
// created by calling newModel once per action
func NewActionRegressor(actions int,
	newModel func() (Model, error)) (*ActionRegressor, error) {
	if actions < 1 {
		return nil, fmt.Errorf("newActionRegressor: need at least one "+
			"action, have %d", actions)
	}

	a := &ActionRegressor{
		actions: actions,
		models:  make([]Model, actions),
	}
	specs := map[string]serial.Spec{"actions": serial.Config.Spec()}

	for i := range a.models {
		model, err := newModel()
		if err != nil {
			return nil, fmt.Errorf("newActionRegressor: could not create "+
				"model %d: %w", i, err)
		}
		if i > 0 && model.Features() != a.models[0].Features() {
			return nil, fmt.Errorf("newActionRegressor: model %d has %d "+
				"features\n\twant(%d)", i, model.Features(),
				a.models[0].Features())
		}
		a.models[i] = model
		specs[indexedName("model", i)] = serial.Object.Spec()
	}

	if err := a.DeclareAll(specs); err != nil {
		return nil, fmt.Errorf("newActionRegressor: %w", err)
	}
	return a, nil
}

// Fields implements the serial.Serializable interface
func (a *ActionRegressor) Fields() serial.Fields {
	n := countIndexed(a.Attributes(), "model")
	if len(a.models) != n {
		a.models = make([]Model, n)
	}

	fields := serial.Fields{"actions": &a.actions}
	for i := range a.models {
		fields[indexedName("model", i)] = &a.models[i]
	}
	return fields
}

// PostLoad implements the serial.Serializable interface
func (a *ActionRegressor) PostLoad() error {
	if len(a.models) != a.actions {
		return fmt.Errorf("postLoad: have %d models for %d actions",
			len(a.models), a.actions)
	}
	return nil
}

// Actions returns the number of actions
func (a *ActionRegressor) Actions() int {
	return a.actions
}

// Features returns the number of features of each state
func (a *ActionRegressor) Features() int {
	return a.models[0].Features()
}

// Model returns the Model of an action
func (a *ActionRegressor) Model(action int) Model {
	return a.models[action]
}

// Predict returns the value of each action in each state
func (a *ActionRegressor) Predict(states *mat.Dense) (*mat.Dense, error) {
	if states == nil || states.IsEmpty() {
		return nil, fmt.Errorf("predict: no states")
	}
	rows, _ := states.Dims()

	values := mat.NewDense(rows, a.actions, nil)
	for action, model := range a.models {
		pred, err := model.Predict(states)
		if err != nil {
			return nil, fmt.Errorf("predict: action %d: %w", action, err)
		}
		values.SetCol(action, pred)
	}
	return values, nil
}

// PredictActions returns the value of actions[i] in row i of states
func (a *ActionRegressor) PredictActions(states *mat.Dense,
	actions []int) ([]float64, error) {
	return predictActions(a, states, actions)
}

// Fit fits the Model of each action to the targets of the states in
// which the action was taken. Models of actions that were never taken
// are left unchanged.
func (a *ActionRegressor) Fit(states *mat.Dense, actions []int,
	targets []float64) error {
	if err := checkFit(states, a.Features(), targets); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if len(actions) != len(targets) {
		return fmt.Errorf("fit: have %d actions for %d targets",
			len(actions), len(targets))
	}

	rows := make([][]int, a.actions)
	for i, action := range actions {
		if action < 0 || action >= a.actions {
			return fmt.Errorf("fit: action %d out of range [0, %d)", action,
				a.actions)
		}
		rows[action] = append(rows[action], i)
	}

	_, cols := states.Dims()
	for action, idx := range rows {
		if len(idx) == 0 {
			continue
		}

		x := mat.NewDense(len(idx), cols, nil)
		y := make([]float64, len(idx))
		for j, row := range idx {
			x.SetRow(j, states.RawRowView(row))
			y[j] = targets[row]
		}

		if err := a.models[action].Fit(x, y); err != nil {
			return fmt.Errorf("fit: action %d: %w", action, err)
		}
	}
	return nil
}
