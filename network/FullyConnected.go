package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer is a single layer of a feed forward neural network
type Layer interface {
	fwd(*G.Node) (*G.Node, error)
	CloneTo(g *G.ExprGraph) (Layer, error)
	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds the weights of a new fully connected layer to the
// graph g. Bias units are initialized to zero.
func newFCLayer(g *G.ExprGraph, inputs, outputs int, bias bool,
	init G.InitWFn, act *Activation, name string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(inputs, outputs),
		G.WithName(name+"W"),
		G.WithInit(init),
	)

	var b *G.Node
	if bias {
		b = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, outputs),
			G.WithName(name+"B"),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{weights: weights, bias: b, act: act}
}

// addfcLayers adds a fully connected layer to g for each hidden layer
// size. The first layer takes features inputs.
func addfcLayers(g *G.ExprGraph, hiddenSizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int,
	prefix string) []Layer {
	layers := make([]Layer, 0, len(hiddenSizes))

	inputs := features
	for i, size := range hiddenSizes {
		name := fmt.Sprintf("%vL%d", prefix, i)
		layers = append(layers, newFCLayer(g, inputs, size, biases[i], init,
			activations[i], name))
		inputs = size
	}
	return layers
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	var err error
	if x, err = G.Mul(x, f.Weights()); err != nil {
		return nil, fmt.Errorf("fwd: %w", err)
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		if x, err = G.BroadcastAdd(x, f.Bias(), nil, []byte{0}); err != nil {
			return nil, fmt.Errorf("fwd: %w", err)
		}
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph. The clone
// holds copies of the weights of the fcLayer.
func (f *fcLayer) CloneTo(g *G.ExprGraph) (Layer, error) {
	weights, err := cloneNode(g, f.Weights())
	if err != nil {
		return nil, err
	}

	var bias *G.Node
	if f.Bias() != nil {
		if bias, err = cloneNode(g, f.Bias()); err != nil {
			return nil, err
		}
	}

	return &fcLayer{
		weights: weights,
		bias:    bias,
		act:     f.act,
	}, nil
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}

// cloneNode adds a copy of a weight matrix node to g
func cloneNode(g *G.ExprGraph, n *G.Node) (*G.Node, error) {
	value, ok := n.Value().(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("cloneNode: node %v has no weights", n.Name())
	}

	return G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(n.Shape()...),
		G.WithName(n.Name()),
		G.WithValue(value.Clone().(*tensor.Dense)),
	), nil
}
