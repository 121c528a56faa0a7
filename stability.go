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

import "math"

// StabilityClass is a Pasquill-Gifford atmospheric stability class,
// ranging from "A" (very unstable) to "F" (very stable).
type StabilityClass string

// The Pasquill-Gifford stability classes.
const (
	StabilityA StabilityClass = "A"
	StabilityB StabilityClass = "B"
	StabilityC StabilityClass = "C"
	StabilityD StabilityClass = "D"
	StabilityE StabilityClass = "E"
	StabilityF StabilityClass = "F"
)

type stabilityParams struct {
	ay, az float64
}

// stabilityTable holds empirical open-country coefficients for the
// power-law dispersion parameterization. Unknown classes fall back
// to conservative averaged values.
var stabilityTable = map[StabilityClass]stabilityParams{
	StabilityA: {0.22, 0.20},
	StabilityB: {0.16, 0.12},
	StabilityC: {0.11, 0.08},
	StabilityD: {0.08, 0.06},
	StabilityE: {0.06, 0.03},
	StabilityF: {0.04, 0.016},
}

// fallbackParams is used for unrecognized stability classes.
var fallbackParams = stabilityParams{0.10, 0.05}

func (c StabilityClass) params() stabilityParams {
	if p, ok := stabilityTable[c]; ok {
		return p
	}
	return fallbackParams
}

// DispersionCoefficients returns the horizontal (σy) and vertical (σz)
// Gaussian plume spread [m] at the given downwind distance [m] for
// stability class c. Both coefficients grow monotonically with distance
// and are strictly positive for any positive distance.
func DispersionCoefficients(distance float64, c StabilityClass) (sigmaY, sigmaZ float64) {
	p := c.params()
	f := distance * math.Pow(1+1.0e-4*distance, -0.5)
	return p.ay * f, p.az * f
}

// TurbulenceIntensity returns a dimensionless inflow turbulence
// intensity for stability class c, derived from the horizontal
// dispersion slope. It is used to initialize turbulence quantities in
// the volumetric solver.
func (c StabilityClass) TurbulenceIntensity() float64 {
	return c.params().ay
}
