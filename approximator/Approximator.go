// Package approximator implements the regressors that batch learning
// algorithms fit to bootstrapped targets.
//
// A Model regresses a single output from a matrix of states, one state
// per row. A QRegressor regresses one value per action. ActionRegressor
// builds a QRegressor from one Model per action, and Ensemble combines
// several QRegressors. All regressors are serial.Serializable.
package approximator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samuelfneumann/batchlearn/serial"
	"gonum.org/v1/gonum/mat"
)

var approxValidate = validator.New()

// Model is a regressor with a single output
type Model interface {
	serial.Serializable

	// Features returns the number of features of each state
	Features() int

	// Predict returns one prediction per row of states
	Predict(states *mat.Dense) ([]float64, error)

	// Fit fits the Model so that it predicts targets[i] for row i of
	// states
	Fit(states *mat.Dense, targets []float64) error
}

// QRegressor is a regressor of action values
type QRegressor interface {
	serial.Serializable

	// Actions returns the number of actions
	Actions() int

	// Features returns the number of features of each state
	Features() int

	// Predict returns the value of each action in each state as an
	// n × Actions() matrix, where n is the number of rows of states
	Predict(states *mat.Dense) (*mat.Dense, error)

	// PredictActions returns the value of actions[i] in row i of states
	PredictActions(states *mat.Dense, actions []int) ([]float64, error)

	// Fit fits the regressor so that the value of actions[i] in row i of
	// states is targets[i]
	Fit(states *mat.Dense, actions []int, targets []float64) error
}

// predictActions selects the value of actions[i] from row i of the
// action values predicted by q
func predictActions(q QRegressor, states *mat.Dense,
	actions []int) ([]float64, error) {
	values, err := q.Predict(states)
	if err != nil {
		return nil, err
	}

	rows, cols := values.Dims()
	if len(actions) != rows {
		return nil, fmt.Errorf("predictActions: have %d actions for %d "+
			"states", len(actions), rows)
	}

	out := make([]float64, rows)
	for i, a := range actions {
		if a < 0 || a >= cols {
			return nil, fmt.Errorf("predictActions: action %d out of "+
				"range [0, %d)", a, cols)
		}
		out[i] = values.At(i, a)
	}
	return out, nil
}

// checkFit returns an error if the arguments to Fit have inconsistent
// dimensions
func checkFit(states *mat.Dense, features int, targets []float64) error {
	if states == nil || states.IsEmpty() {
		return fmt.Errorf("no states to fit")
	}

	rows, cols := states.Dims()
	if cols != features {
		return fmt.Errorf("states have %d features\n\twant(%d)", cols,
			features)
	}
	if rows != len(targets) {
		return fmt.Errorf("have %d targets for %d states", len(targets),
			rows)
	}
	return nil
}

// indexedName returns the name of attribute i of an indexed family of
// attributes
func indexedName(prefix string, i int) string {
	return fmt.Sprintf("%v_%d", prefix, i)
}

// countIndexed returns the number of declared attributes of an indexed
// family of attributes
func countIndexed(attrs *serial.Attributes, prefix string) int {
	n := 0
	for _, name := range attrs.Names() {
		if strings.HasPrefix(name, prefix+"_") {
			n++
		}
	}
	return n
}

// rawRows returns the elements of m in row major order
func rawRows(m *mat.Dense) []float64 {
	r, c := m.Dims()
	raw := m.RawMatrix()
	if raw.Stride == c {
		return append([]float64{}, raw.Data[:r*c]...)
	}

	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return data
}
