// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// MaxVec finds and returns the index of the maximum value in a vector.
// If multiple equal max values exist, only the first one is returned.
func MaxVec(values mat.Vector) int {
	max, idx := values.AtVec(0), 0

	for i := 1; i < values.Len(); i++ {
		if values.AtVec(i) > max {
			max = values.AtVec(i)
			idx = i
		}
	}
	return idx
}

// RowMax returns the maximum value of each row of a matrix along with
// the column at which it occurs. Ties are broken by the first column.
func RowMax(matrix mat.Matrix) (max []float64, argmax []int) {
	r, _ := matrix.Dims()
	max = make([]float64, r)
	argmax = make([]int, r)

	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, matrix)
		argmax[i] = MaxVec(mat.NewVecDense(len(row), row))
		max[i] = row[argmax[i]]
	}
	return max, argmax
}

// ZeroRows sets to zero every row i of matrix for which mask[i] is true
func ZeroRows(matrix *mat.Dense, mask []bool) {
	r, c := matrix.Dims()
	if len(mask) != r {
		panic(fmt.Sprintf("zeroRows: have %d mask values for %d rows",
			len(mask), r))
	}

	zeros := make([]float64, c)
	for i, zero := range mask {
		if zero {
			matrix.SetRow(i, zeros)
		}
	}
}
