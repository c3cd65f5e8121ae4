package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func init() {
	gob.Register(&MultiHeadMLP{})
}

// MultiHeadMLP implements a multi-layered perceptron with multiple
// output nodes, one for each value that should be predicted.
type MultiHeadMLP struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    *G.Value
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// that has multiple output nodes, The number of outputs nodes is equal
// to outputs. The graph parameter g is populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// layer is always added such that given any input, the output will
// be outputs. The final layer also contains a bias unit, and bias units
// for each additional hidden layer is specified by biases. The final
// layer will contain no activations, and the activations of additional
// hidden layers is specified by activations. The parameter init
// determines the weight initialization scheme.
//
// The function works such that for index i, hiddenSizes[i] is the
// number of nodes in hidden layer i; biases[i] is true if the
// hidden layer will contain a bias unit and false otherwise; and
// activations[i] is the activation function for hidden layer i.
func NewMultiHeadMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (*MultiHeadMLP, error) {
	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newMultiHeadMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newMultiHeadMLP: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	if features < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newMultiHeadMLP: features, batch, and " +
			"outputs must be positive")
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Add a final linear layer with no activation to ensure that
	// outputs heads are predicted by the network
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	b := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	network := &MultiHeadMLP{
		g:           g,
		layers:      addfcLayers(g, sizes, b, acts, init, features, ""),
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}

	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newMultiHeadMLP: could not compute "+
			"forward pass: %v", err)
	}

	return network, nil
}

// Graph returns the computational graph of the MultiHeadMLP.
func (e *MultiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones a MultiHeadMLP
func (e *MultiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones a MultiHeadMLP to a new computational graph
// with a new input batch size.
func (e *MultiHeadMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("cloneWithBatch: batch size must be "+
			"positive, have %v", batchSize)
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	// Copy fully connected layers
	l := make([]Layer, len(e.layers))
	for i := range e.layers {
		var err error
		if l[i], err = e.layers[i].CloneTo(graph); err != nil {
			return nil, fmt.Errorf("cloneWithBatch: could not clone "+
				"layer %d: %v", i, err)
		}
	}

	network := &MultiHeadMLP{
		g:           graph,
		layers:      l,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if _, err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not compute "+
			"forward pass: %v", err)
	}

	return network, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *MultiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *MultiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *MultiHeadMLP) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *MultiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of a MultiHeadMLP to be equal to the
// weights of another MultiHeadMLP
func (dest *MultiHeadMLP) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: source has %d learnables, destination %d",
			len(sourceNodes), len(nodes))
	}

	for i, destLearnable := range nodes {
		weights, ok := sourceNodes[i].Value().(*tensor.Dense)
		if !ok {
			return fmt.Errorf("set: source learnable %d has no weights", i)
		}
		if err := G.Let(destLearnable, weights.Clone()); err != nil {
			return fmt.Errorf("set: %w", err)
		}
	}
	return nil
}

// Learnables returns the learnable nodes in a MultiHeadMLP
func (m *MultiHeadMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if m.learnables == nil {
		m.learnables = m.computeLearnables()
	}
	return m.learnables
}

// computeLearnables computes all the learnables for the network
func (e *MultiHeadMLP) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))

	for i := range e.layers {
		learnables = append(learnables, e.layers[i].Weights())
		if bias := e.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnables nodes with their gradients.
func (m *MultiHeadMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if m.model == nil {
		m.model = G.NodesToValueGrads(m.Learnables())
	}
	return m.model
}

// Weights returns copies of the weights of each learnable node in the
// order of Learnables()
func (m *MultiHeadMLP) Weights() []*tensor.Dense {
	learnables := m.Learnables()
	weights := make([]*tensor.Dense, len(learnables))
	for i, node := range learnables {
		weights[i] = node.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	}
	return weights
}

// fwd performs the forward pass of the MultiHeadMLP on the input
// node
func (e *MultiHeadMLP) fwd(input *G.Node) (*G.Node, error) {
	inputShape := input.Shape()[len(input.Shape())-1]
	if inputShape%e.numInputs != 0 {
		return nil, fmt.Errorf("fwd: invalid shape for input to neural net:"+
			" \n\twant(%v) \n\thave(%v)", e.numInputs, inputShape)
	}

	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return nil, fmt.Errorf(msg, i, err)
		}
	}

	e.prediction = pred
	e.predVal = new(G.Value)
	G.Read(e.prediction, e.predVal)

	return pred, nil
}

// Output returns the output of the MultiHeadMLP computed by the last run
// of a machine over its graph.
func (e *MultiHeadMLP) Output() G.Value {
	if e.predVal == nil {
		return nil
	}
	return *e.predVal
}

// Prediction returns the node of the computational graph the stores
// the output of the MultiHeadMLP
func (e *MultiHeadMLP) Prediction() *G.Node {
	return e.prediction
}

// mlpState is the gobbed representation of a MultiHeadMLP
type mlpState struct {
	Features    int
	Outputs     int
	Batch       int
	Hidden      []int
	Biases      []bool
	Activations []string
	Weights     []*tensor.Dense
}

// GobEncode implements the gob.GobEncoder interface
func (e *MultiHeadMLP) GobEncode() ([]byte, error) {
	activations := make([]string, len(e.activations))
	for i, act := range e.activations {
		activations[i] = act.String()
	}

	state := mlpState{
		Features:    e.numInputs,
		Outputs:     e.numOutputs,
		Batch:       e.batchSize,
		Hidden:      e.hiddenSizes,
		Biases:      e.biases,
		Activations: activations,
		Weights:     e.Weights(),
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode network: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *MultiHeadMLP) GobDecode(in []byte) error {
	var state mlpState
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&state); err != nil {
		return fmt.Errorf("gobdecode: could not decode network: %v", err)
	}

	activations := make([]*Activation, len(state.Activations))
	for i, name := range state.Activations {
		act, err := ActivationByName(name)
		if err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
		activations[i] = act
	}

	// Create a new MLP and fill its layers with the decoded weights
	net, err := NewMultiHeadMLP(state.Features, state.Batch, state.Outputs,
		G.NewGraph(), state.Hidden, state.Biases, G.Zeroes(), activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new MLP: %v", err)
	}

	learnables := net.Learnables()
	if len(learnables) != len(state.Weights) {
		return fmt.Errorf("gobdecode: have %d weights for %d learnables",
			len(state.Weights), len(learnables))
	}
	for i, node := range learnables {
		if !node.Shape().Eq(state.Weights[i].Shape()) {
			return fmt.Errorf("gobdecode: learnable %d has shape %v, "+
				"decoded weights have shape %v", i, node.Shape(),
				state.Weights[i].Shape())
		}
		if err := G.Let(node, state.Weights[i]); err != nil {
			return fmt.Errorf("gobdecode: %v", err)
		}
	}

	*e = *net
	return nil
}
