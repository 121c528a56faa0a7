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

	"github.com/ctessum/atmos/plumerise"
	"github.com/ctessum/unit"
)

// minStabilityParam bounds the stable-conditions stability parameter
// away from zero.
const minStabilityParam = 1.e-6

// AddStackSource registers a continuous release from an elevated
// stack at horizontal position (x, y) [m]. The release height is the
// stack height plus ASME buoyant plume rise computed against the
// current temperature and wind profiles. Plumes that rise above the
// model top are released in the top layer. It returns the registered
// source and the effective release height [m].
func (s *Solver) AddStackSource(x, y, stackHeight, stackDiam, stackTemp, stackVel float64, rates map[string]*unit.Unit) (*Source, float64, error) {
	if stackHeight < 0 || stackHeight > s.cfg.Lz {
		return nil, 0, fmt.Errorf("cfd: stack height %g is outside the domain", stackHeight)
	}

	layerHeights, temperature, windSpeed, sClass, s1 := s.columnProfiles()
	_, plumeHeight, err := plumerise.ASME(stackHeight, stackDiam, stackTemp,
		stackVel, layerHeights, temperature, windSpeed, sClass, s1)
	if err == plumerise.ErrAboveModelTop {
		plumeHeight = s.cfg.Lz
	} else if err != nil {
		return nil, 0, fmt.Errorf("cfd: calculating plume rise: %v", err)
	}

	src, err := s.AddSource(x, y, plumeHeight, rates, stackTemp)
	if err != nil {
		return nil, 0, err
	}
	return src, plumeHeight, nil
}

// columnProfiles returns horizontally averaged profiles of the
// quantities the plume rise calculation needs: staggered layer
// heights, layer temperatures, wind speeds, stability classes (1 for
// stable, 0 for unstable), and the stable-conditions stability
// parameter.
func (s *Solver) columnProfiles() (layerHeights, temperature, windSpeed, sClass, s1 []float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx
	layerHeights = make([]float64, nz+1)
	for k := 0; k <= nz; k++ {
		layerHeights[k] = float64(k) * s.dz
	}

	temperature = make([]float64, nz)
	windSpeed = make([]float64, nz)
	for k := 0; k < nz; k++ {
		var tSum, uSum float64
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				tSum += s.temp.Get(k, j, i)
				u := s.u.Get(k, j, i)
				v := s.v.Get(k, j, i)
				w := s.w.Get(k, j, i)
				uSum += math.Sqrt(u*u + v*v + w*w)
			}
		}
		n := float64(ny * nx)
		temperature[k] = tSum / n
		windSpeed[k] = math.Max(uSum/n, minProfileSpeed)
	}

	sClass = make([]float64, nz)
	s1 = make([]float64, nz)
	for k := 0; k < nz; k++ {
		kUp := k + 1
		if kUp >= nz {
			kUp = nz - 1
		}
		dTdz := 0.
		if kUp != k {
			dTdz = (temperature[kUp] - temperature[k]) / s.dz
		}
		if dTdz > 0 {
			sClass[k] = 1
		}
		s1[k] = math.Max(gravity/temperature[k]*dTdz, minStabilityParam)
	}
	return
}
