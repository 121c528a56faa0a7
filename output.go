/*
Copyright © 2019 the Dispersim authors.
This file is part of Dispersim.

Dispersim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Dispersim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Dispersim.  If not, see <http://www.gnu.org/licenses/>.
*/

package dispersim

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// WriteCSV writes a 2-d concentration field to w as comma-separated
// records of the form "step,row,col,value", with values in scientific
// notation. A header record is written first.
func WriteCSV(w io.Writer, step int, data *sparse.DenseArray) error {
	if len(data.Shape) != 2 {
		return fmt.Errorf("dispersim: cannot write %d-dimensional array as a grid CSV", len(data.Shape))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "row", "col", "value"}); err != nil {
		return fmt.Errorf("dispersim: writing CSV header: %v", err)
	}
	for i := 0; i < data.Shape[0]; i++ {
		for j := 0; j < data.Shape[1]; j++ {
			rec := []string{
				strconv.Itoa(step),
				strconv.Itoa(i),
				strconv.Itoa(j),
				strconv.FormatFloat(data.Get(i, j), 'e', 6, 64),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("dispersim: writing CSV record: %v", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Outputter derives output fields from model fields by evaluating
// arithmetic expressions cell-by-cell.
type Outputter struct {
	outputVariables map[string]string
	outputFunctions map[string]govaluate.ExpressionFunction
	expressions     map[string]*govaluate.EvaluableExpression
}

// defaultOutputFuncs are the functions available to output variable
// expressions in addition to basic arithmetic.
var defaultOutputFuncs = map[string]govaluate.ExpressionFunction{
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("dispersim: got %d arguments for 'exp', but need 1", len(arg))
		}
		return math.Exp(arg[0].(float64)), nil
	},
	"log": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("dispersim: got %d arguments for 'log', but need 1", len(arg))
		}
		return math.Log(arg[0].(float64)), nil
	},
	"sqrt": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("dispersim: got %d arguments for 'sqrt', but need 1", len(arg))
		}
		return math.Sqrt(arg[0].(float64)), nil
	},
	"sum": func(arg ...interface{}) (interface{}, error) {
		vals := make([]float64, len(arg))
		for i, a := range arg {
			vals[i] = a.(float64)
		}
		return floats.Sum(vals), nil
	},
}

// NewOutputter creates an Outputter for the given output variables,
// mapping output names to expressions over model field names, such as
// {"logPollution": "log(Pollution + 1)"}. outputFunctions optionally
// adds to or overrides the default expression functions.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	o := &Outputter{
		outputVariables: make(map[string]string, len(outputVariables)),
		outputFunctions: make(map[string]govaluate.ExpressionFunction, len(defaultOutputFuncs)),
		expressions:     make(map[string]*govaluate.EvaluableExpression, len(outputVariables)),
	}
	for name, f := range defaultOutputFuncs {
		o.outputFunctions[name] = f
	}
	for name, f := range outputFunctions {
		o.outputFunctions[name] = f
	}
	for name, expr := range outputVariables {
		o.outputVariables[name] = expr
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("dispersim o.outputVariables: %v", err)
		}
		o.expressions[name] = e
	}
	return o, nil
}

// OutputNames returns the output variable names in sorted order.
func (o *Outputter) OutputNames() []string {
	names := make([]string, 0, len(o.outputVariables))
	for name := range o.outputVariables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Output evaluates every output expression against the given model
// fields, which must all have the same shape, and returns one derived
// field per output variable.
func (o *Outputter) Output(fields map[string]*sparse.DenseArray) (map[string]*sparse.DenseArray, error) {
	var shape []int
	for name, f := range fields {
		if shape == nil {
			shape = f.Shape
			continue
		}
		if len(f.Shape) != len(shape) {
			return nil, fmt.Errorf("dispersim: field %s shape mismatch", name)
		}
		for dim, n := range f.Shape {
			if n != shape[dim] {
				return nil, fmt.Errorf("dispersim: field %s shape mismatch", name)
			}
		}
	}
	if shape == nil {
		return nil, fmt.Errorf("dispersim: no input fields to evaluate output variables against")
	}
	out := make(map[string]*sparse.DenseArray, len(o.expressions))
	params := make(map[string]interface{}, len(fields))
	for name, e := range o.expressions {
		result := sparse.ZerosDense(shape...)
		for i := range result.Elements {
			for fname, f := range fields {
				params[fname] = f.Elements[i]
			}
			v, err := e.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("dispersim: evaluating output variable %s: %v", name, err)
			}
			vf, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("dispersim: output variable %s is not numeric", name)
			}
			result.Elements[i] = vf
		}
		out[name] = result
	}
	return out, nil
}
