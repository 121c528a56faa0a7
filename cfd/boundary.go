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
	"fmt"
	"math"
)

// Wind profile names accepted by SetBoundaryConditions.
const (
	ProfileLogarithmic = "logarithmic"
	ProfilePowerLaw    = "powerlaw"
)

// SetBoundaryConditions applies the inflow wind profile on the upwind
// face, no-slip conditions on the lateral walls and the ground, the
// heated-ground temperature condition, and a turbulence state
// consistent with the resulting velocity field. It should be called
// once after construction, before time stepping.
func (s *Solver) SetBoundaryConditions(windProfile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx

	switch windProfile {
	case ProfileLogarithmic:
		for k := 0; k < nz; k++ {
			z := s.height(k) + roughnessLength
			speed := minProfileSpeed
			if z > roughnessLength {
				speed = math.Max(frictionVelocity/vonKarman*math.Log(z/roughnessLength),
					minProfileSpeed)
			}
			for j := 0; j < ny; j++ {
				s.u.Set(speed, k, j, 0)
			}
		}
	case ProfilePowerLaw:
		for k := 0; k < nz; k++ {
			speed := s.cfg.WindSpeed *
				math.Pow((s.height(k)+roughnessLength)/referenceHeight, powerLawExponent)
			for j := 0; j < ny; j++ {
				s.u.Set(speed, k, j, 0)
			}
		}
	default:
		return fmt.Errorf("cfd: unknown wind profile %q", windProfile)
	}

	// No-slip walls: the lateral faces and the ground.
	for k := 0; k < nz; k++ {
		for i := 0; i < nx; i++ {
			s.u.Set(0, k, 0, i)
			s.u.Set(0, k, ny-1, i)
			s.v.Set(0, k, 0, i)
			s.v.Set(0, k, ny-1, i)
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			s.u.Set(0, 0, j, i)
			s.v.Set(0, 0, j, i)
			s.w.Set(0, 0, j, i)
			s.temp.Set(groundTemperature, 0, j, i)
		}
	}

	s.initTurbulence()
	return nil
}

// initTurbulence sets k and epsilon from the local wind speed using
// the stability-dependent turbulence intensity and a mixing length
// proportional to height.
func (s *Solver) initTurbulence() {
	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx
	intensity := s.cfg.Stability.TurbulenceIntensity()
	for k := 0; k < nz; k++ {
		length := 0.1
		if z := s.height(k); z > 1 {
			length = 0.1 * z
		}
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				u := s.u.Get(k, j, i)
				v := s.v.Get(k, j, i)
				w := s.w.Get(k, j, i)
				speed := math.Sqrt(u*u + v*v + w*w)
				if speed <= 0 {
					continue
				}
				tke := 1.5 * math.Pow(intensity*speed, 2)
				s.tke.Set(math.Max(tke, turbFloor), k, j, i)
				s.eps.Set(math.Max(math.Pow(cMu, 0.75)*math.Pow(tke, 1.5)/length,
					turbFloor), k, j, i)
			}
		}
	}
}
