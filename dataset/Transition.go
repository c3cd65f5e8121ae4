// Package dataset implements offline datasets of agent-environment
// interactions used by batch learning algorithms.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a Transition ends in, either a
// middle step or the last step of an episode
type StepType int

const (
	Mid StepType = iota
	Last
)

func (s StepType) String() string {
	switch s {
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// Transition packages together a single step of interaction with an
// environment. Absorbing transitions end in a state from which no
// further reward can be obtained, so that their bootstrapped value is
// zero. Every absorbing transition is also the last of its episode, but
// episodes may be cut off without reaching an absorbing state.
type Transition struct {
	State     mat.Vector
	Action    int
	Reward    float64
	NextState mat.Vector
	Absorbing bool
	StepType
}

// New returns a new Transition
func New(state mat.Vector, action int, reward float64, next mat.Vector,
	absorbing, last bool) Transition {
	t := Transition{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: next,
		Absorbing: absorbing,
		StepType:  Mid,
	}
	if last || absorbing {
		t.StepType = Last
	}
	return t
}

// Last returns whether a Transition is the last step in an episode
func (t Transition) Last() bool {
	return t.StepType == Last
}

func (t Transition) String() string {
	str := "Transition | Type: %v  |  Action: %v  |  Reward:  %.2f  |  " +
		"Absorbing: %v"

	return fmt.Sprintf(str, t.StepType, t.Action, t.Reward, t.Absorbing)
}
