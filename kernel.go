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
	"math"

	"github.com/ctessum/sparse"
)

// KernelParams describes the contribution of a single emitter during
// one step.
type KernelParams struct {
	// X and Y are the emitter position [m].
	X, Y float64

	// EmissionRate is the pollutant release rate after speed and
	// scenario scaling.
	EmissionRate float64

	// PlumeHeight is the effective release height [m].
	PlumeHeight float64

	// IMin, IMax, JMin, and JMax bound the half-open row and column
	// ranges of cells that may receive concentration.
	IMin, IMax, JMin, JMax int
}

// Kernel is a computational backend for plume accumulation. The
// built-in ScalarKernel is always available; alternative
// implementations may offload the window loop to accelerated
// hardware. If a Kernel returns an error, the caller falls back to
// the scalar implementation for the same emitter.
type Kernel interface {
	// Accumulate adds the concentration contribution of one emitter
	// to grid over the cell window in p.
	Accumulate(grid *sparse.DenseArray, geom GridGeometry, met Meteorology, p KernelParams) error
}

// ScalarKernel is the pure in-process plume accumulation backend.
type ScalarKernel struct{}

// Accumulate implements the Kernel interface using a per-cell scalar
// loop over the emitter's window.
func (ScalarKernel) Accumulate(grid *sparse.DenseArray, geom GridGeometry, met Meteorology, p KernelParams) error {
	// Calm conditions produce no transport; the Gaussian plume
	// equation is singular at zero wind speed.
	if met.WindSpeed < minWindSpeed {
		return nil
	}
	for i := p.IMin; i < p.IMax; i++ {
		for j := p.JMin; j < p.JMax; j++ {
			rx, ry := geom.CellCenter(i, j)
			dx := rx - p.X
			dy := ry - p.Y
			d := math.Sqrt(dx*dx + dy*dy)
			if d < minPlumeDistance || d > maxPlumeDistance {
				continue
			}
			sigmaY, sigmaZ := DispersionCoefficients(d, met.Stability)
			theta := angleDiff(math.Atan2(dy, dx), met.WindDirection)
			c := p.EmissionRate / (2 * math.Pi * met.WindSpeed * sigmaY * sigmaZ) *
				math.Exp(-0.5*math.Pow(theta/sigmaY, 2)) *
				2 * math.Exp(-0.5*math.Pow(p.PlumeHeight/sigmaZ, 2))
			grid.AddVal(c, i, j)
		}
	}
	return nil
}

// angleDiff returns a-b wrapped to [-π, π].
func angleDiff(a, b float64) float64 {
	d := a - b
	return math.Atan2(math.Sin(d), math.Cos(d))
}
