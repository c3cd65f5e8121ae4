package dataset

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Dataset is an ordered collection of Transitions
type Dataset []Transition

// Batch holds the Transitions of a Dataset in matrix form. Row i of
// States and NextStates and index i of every slice describe Transition i.
type Batch struct {
	States     *mat.Dense
	Actions    []int
	Rewards    []float64
	NextStates *mat.Dense
	Absorbing  []bool
	Last       []bool
}

// Len returns the number of Transitions in the Batch
func (b Batch) Len() int {
	return len(b.Actions)
}

// Features returns the number of features of each state
func (b Batch) Features() int {
	_, c := b.States.Dims()
	return c
}

// Parse returns the Dataset in matrix form. All states must have the
// same number of features and all actions must be non-negative.
func (d Dataset) Parse() (Batch, error) {
	if len(d) == 0 {
		return Batch{}, fmt.Errorf("parse: empty dataset")
	}

	features := d[0].State.Len()
	b := Batch{
		States:     mat.NewDense(len(d), features, nil),
		Actions:    make([]int, len(d)),
		Rewards:    make([]float64, len(d)),
		NextStates: mat.NewDense(len(d), features, nil),
		Absorbing:  make([]bool, len(d)),
		Last:       make([]bool, len(d)),
	}

	for i, t := range d {
		if t.State == nil || t.NextState == nil {
			return Batch{}, fmt.Errorf("parse: transition %d has no state", i)
		}
		if t.State.Len() != features || t.NextState.Len() != features {
			return Batch{}, fmt.Errorf("parse: transition %d has %d "+
				"features\n\twant(%d)", i, t.State.Len(), features)
		}
		if t.Action < 0 {
			return Batch{}, fmt.Errorf("parse: transition %d has "+
				"negative action %d", i, t.Action)
		}

		for j := 0; j < features; j++ {
			b.States.Set(i, j, t.State.AtVec(j))
			b.NextStates.Set(i, j, t.NextState.AtVec(j))
		}
		b.Actions[i] = t.Action
		b.Rewards[i] = t.Reward
		b.Absorbing[i] = t.Absorbing
		b.Last[i] = t.Last()
	}
	return b, nil
}

// Halves splits the Dataset into its first and second half. If the
// Dataset has odd length, the second half holds the extra Transition.
func (d Dataset) Halves() (Dataset, Dataset) {
	mid := len(d) / 2
	return d[:mid], d[mid:]
}

// Shuffle returns a copy of the Dataset with its Transitions in a random
// order determined by seed
func (d Dataset) Shuffle(seed uint64) Dataset {
	shuffled := make(Dataset, len(d))
	copy(shuffled, d)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Episodes returns the number of episodes in the Dataset. An unfinished
// trailing episode is counted.
func (d Dataset) Episodes() int {
	episodes := 0
	for i, t := range d {
		if t.Last() || i == len(d)-1 {
			episodes++
		}
	}
	return episodes
}
