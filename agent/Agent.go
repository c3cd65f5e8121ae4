// Package agent defines the interface of batch learning agents
package agent

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/samuelfneumann/batchlearn/dataset"
	"github.com/samuelfneumann/batchlearn/serial"
	"gonum.org/v1/gonum/mat"
)

var infoValidate = validator.New()

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which fits the agent to a dataset,
// and a Policy which chooses actions in each state. The Learner and
// Policy share the same approximator so that fitting the Learner changes
// the actions the Policy chooses. Agents are serial.Serializable.
type Agent interface {
	serial.Serializable
	Learner
	Policy
}

// Learner implements a batch learning algorithm
type Learner interface {
	// Fit performs iterations steps of the algorithm on a dataset
	Fit(d dataset.Dataset, iterations int) error
}

// Policy represents a policy over a discrete set of actions
type Policy interface {
	SelectAction(state mat.Vector) (int, error)
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Info describes the problem an agent is solving
type Info struct {
	Gamma    float64 `validate:"gte=0,lte=1"` // Discount factor
	Actions  int     `validate:"gte=1"`
	Features int     `validate:"gte=1"`
}

// Validate returns an error if the Info is invalid
func (i Info) Validate() error {
	if err := infoValidate.Struct(i); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
