package approximator

import (
	"fmt"

	"github.com/samuelfneumann/batchlearn/initwfn"
	"github.com/samuelfneumann/batchlearn/network"
	"github.com/samuelfneumann/batchlearn/serial"
	"github.com/samuelfneumann/batchlearn/solver"
	"github.com/samuelfneumann/batchlearn/utils/tensorutils"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func init() {
	serial.Register("approximator.MLP", func() serial.Serializable {
		return &MLP{}
	})
}

// MLPConfig describes an MLP regressor
type MLPConfig struct {
	Features int `validate:"gte=1"`

	// For index i, Hidden[i] is the number of units in hidden layer i,
	// Biases[i] whether the layer has bias units, and Activations[i] its
	// activation function
	Hidden      []int `validate:"dive,gte=1"`
	Biases      []bool
	Activations []*network.Activation

	InitWFn *initwfn.InitWFn `validate:"required"`
	Solver  *solver.Solver   `validate:"required"`

	// Epochs is the number of full batch gradient steps taken by each
	// call to Fit
	Epochs int `validate:"gte=1"`
}

// Validate returns an error if the config is invalid
func (c MLPConfig) Validate() error {
	if err := approxValidate.Struct(c); err != nil {
		return err
	}
	if len(c.Hidden) != len(c.Biases) || len(c.Hidden) != len(c.Activations) {
		return fmt.Errorf("need one bias and activation per hidden layer"+
			"\n\thidden(%d)\n\tbiases(%d)\n\tactivations(%d)", len(c.Hidden),
			len(c.Biases), len(c.Activations))
	}
	if err := c.Solver.Validate(); err != nil {
		return err
	}
	return nil
}

// MLP implements a multi-layered perceptron regressor with a single
// output, trained on the mean squared error
type MLP struct {
	serial.Base
	config MLPConfig
	net    network.NeuralNet
}

// NewMLP returns a new MLP regressor with weights initialized by the
// config's InitWFn
func NewMLP(c MLPConfig) (*MLP, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}

	net, err := network.NewMultiHeadMLP(c.Features, 1, 1, G.NewGraph(),
		c.Hidden, c.Biases, c.InitWFn.InitWFn(), c.Activations)
	if err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}

	m := &MLP{config: c, net: net}
	err = m.DeclareAll(map[string]serial.Spec{
		"config": serial.Config.Spec(),
		"net":    serial.Tensor.Spec(),
	})
	if err != nil {
		return nil, fmt.Errorf("newMLP: %w", err)
	}
	return m, nil
}

// Fields implements the serial.Serializable interface
func (m *MLP) Fields() serial.Fields {
	return serial.Fields{
		"config": &m.config,
		"net":    &m.net,
	}
}

// PostLoad implements the serial.Serializable interface
func (m *MLP) PostLoad() error {
	if m.net == nil {
		return fmt.Errorf("postLoad: no network")
	}
	if m.net.Features() != m.config.Features || m.net.Outputs() != 1 {
		return fmt.Errorf("postLoad: network has %d features and %d "+
			"outputs\n\twant(%d, 1)", m.net.Features(), m.net.Outputs(),
			m.config.Features)
	}
	return nil
}

// Features returns the number of features of each state
func (m *MLP) Features() int {
	return m.config.Features
}

// Network returns the network of the regressor
func (m *MLP) Network() network.NeuralNet {
	return m.net
}

// Predict returns one prediction per row of states
func (m *MLP) Predict(states *mat.Dense) ([]float64, error) {
	if states == nil || states.IsEmpty() {
		return []float64{}, nil
	}
	rows, cols := states.Dims()
	if cols != m.config.Features {
		return nil, fmt.Errorf("predict: states have %d features\n\t"+
			"want(%d)", cols, m.config.Features)
	}

	net, err := m.net.CloneWithBatch(rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	if err := net.SetInput(rawRows(states)); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	out, ok := net.Output().(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("predict: network output has type %T",
			net.Output())
	}
	return tensorutils.Float64s(out), nil
}

// Fit takes Epochs full batch gradient steps on the mean squared error
// between the predictions and targets. A new solver is created for each
// call to Fit.
func (m *MLP) Fit(states *mat.Dense, targets []float64) error {
	if err := checkFit(states, m.config.Features, targets); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	rows, _ := states.Dims()

	net, err := m.net.CloneWithBatch(rows)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	g := net.Graph()

	target := G.NewMatrix(g, tensor.Float64, G.WithShape(rows, 1),
		G.WithName("target"), G.WithInit(G.Zeroes()))
	diff, err := G.Sub(net.Prediction(), target)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	loss := G.Must(G.Mean(G.Must(G.Square(diff))))
	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return fmt.Errorf("fit: could not compute gradient: %w", err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))
	defer vm.Close()
	opt := m.config.Solver.Create()

	if err := net.SetInput(rawRows(states)); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	err = G.Let(target, tensorutils.FromFloat64s(targets, rows, 1))
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	for epoch := 0; epoch < m.config.Epochs; epoch++ {
		if err := vm.RunAll(); err != nil {
			return fmt.Errorf("fit: epoch %d: %w", epoch, err)
		}
		if err := opt.Step(net.Model()); err != nil {
			return fmt.Errorf("fit: epoch %d: %w", epoch, err)
		}
		vm.Reset()
	}

	return m.net.Set(net)
}
