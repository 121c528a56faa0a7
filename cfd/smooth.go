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

package cfd

import (
	"math"

	"github.com/ctessum/sparse"
)

// smoothFields applies a light Gaussian filter to the turbulence and
// concentration fields. The explicit updates leave small-wavelength
// noise that would otherwise grow over many steps.
func (s *Solver) smoothFields() {
	gaussianSmooth(s.tke, sigmaSmoothTurb)
	gaussianSmooth(s.eps, sigmaSmoothTurb)
	for _, sp := range s.cfg.Species {
		gaussianSmooth(s.conc[sp], sigmaSmoothSpecies)
	}
}

// gaussianSmooth filters a 3-d array in place with a separable
// three-point Gaussian kernel, one pass per axis. Edges are mirrored,
// so the filter conserves the array total.
func gaussianSmooth(a *sparse.DenseArray, sigma float64) {
	side := math.Exp(-0.5 / (sigma * sigma))
	norm := 1 + 2*side
	center, side := 1/norm, side/norm

	nz, ny, nx := a.Shape[0], a.Shape[1], a.Shape[2]
	buf := make([]float64, nz*ny*nx)

	// x axis
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				buf[a.Index1d(k, j, i)] = center*a.Get(k, j, i) +
					side*(a.Get(k, j, reflect(i-1, nx))+a.Get(k, j, reflect(i+1, nx)))
			}
		}
	}
	copy(a.Elements, buf)

	// y axis
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				buf[a.Index1d(k, j, i)] = center*a.Get(k, j, i) +
					side*(a.Get(k, reflect(j-1, ny), i)+a.Get(k, reflect(j+1, ny), i))
			}
		}
	}
	copy(a.Elements, buf)

	// z axis
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				buf[a.Index1d(k, j, i)] = center*a.Get(k, j, i) +
					side*(a.Get(reflect(k-1, nz), j, i)+a.Get(reflect(k+1, nz), j, i))
			}
		}
	}
	copy(a.Elements, buf)
}

// reflect mirrors an out-of-range index back into [0, n).
func reflect(i, n int) int {
	if i < 0 {
		return -i - 1
	}
	if i >= n {
		return 2*n - i - 1
	}
	return i
}
