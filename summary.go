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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GridSummary holds summary statistics of a concentration field after
// one update.
type GridSummary struct {
	// Step is the update the summary was taken after.
	Step int

	// Total is the sum of concentration over all cells.
	Total float64

	// Mean is the average cell concentration.
	Mean float64

	// Max is the largest cell concentration.
	Max float64
}

func summarize(step int, data *sparse.DenseArray) GridSummary {
	return GridSummary{
		Step:  step,
		Total: data.Sum(),
		Mean:  stat.Mean(data.Elements, nil),
		Max:   floats.Max(data.Elements),
	}
}
