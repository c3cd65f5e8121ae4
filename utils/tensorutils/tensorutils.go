// Package tensorutils implements conversions between float64 tensors,
// slices, and gonum matrices
package tensorutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Float64s returns a copy of the elements of a float64 tensor in row
// major order
func Float64s(t *tensor.Dense) []float64 {
	switch data := t.Data().(type) {
	case []float64:
		return append([]float64{}, data...)
	case float64:
		return []float64{data}
	default:
		panic(fmt.Sprintf("float64s: tensor has dtype %v", t.Dtype()))
	}
}

// FromFloat64s returns a tensor of the given shape backed by a copy of
// data
func FromFloat64s(data []float64, shape ...int) *tensor.Dense {
	return tensor.New(
		tensor.WithShape(shape...),
		tensor.WithBacking(append([]float64{}, data...)),
	)
}

// FromDense returns a tensor with the same shape and elements as m
func FromDense(m *mat.Dense) *tensor.Dense {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		data = append(data, m.RawRowView(i)...)
	}
	return FromFloat64s(data, r, c)
}

// ToDense returns a matrix with the same shape and elements as a 2D
// tensor
func ToDense(t *tensor.Dense) (*mat.Dense, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("toDense: tensor has shape %v, want a "+
			"matrix", shape)
	}
	return mat.NewDense(shape[0], shape[1], Float64s(t)), nil
}
