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

	"github.com/ctessum/unit"
	"github.com/spatialmodel/dispersim"
)

// emissionDims are the dimensions pollutant release rates must have:
// mass per time.
var emissionDims = unit.Dimensions{
	unit.MassDim: 1,
	unit.TimeDim: -1,
}

// Source is a continuous pollutant release at a fixed grid cell, such
// as a chimney outlet or a street-level vent.
type Source struct {
	rates       map[string]float64 // kg/s per species
	temperature float64            // K
	k, j, i     int
}

// Cell returns the grid indices (k, j, i) the source releases into.
func (src *Source) Cell() (k, j, i int) {
	return src.k, src.j, src.i
}

// Temperature returns the release temperature [K].
func (src *Source) Temperature() float64 {
	return src.temperature
}

// AddSource registers a continuous release at physical position
// (x, y, z) [m] with release temperature [K]. Rates must have
// dimensions of mass per time and every species must be tracked by
// the solver. A temperature of zero means the ambient 288.15 K. The
// position is mapped to the nearest grid node; positions outside the
// domain are handled according to the configured bounds policy,
// returning a nil Source when the release is ignored.
func (s *Solver) AddSource(x, y, z float64, rates map[string]*unit.Unit, temperature float64) (*Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if temperature < 0 {
		return nil, fmt.Errorf("cfd: source temperature %g K is negative", temperature)
	}
	if temperature == 0 {
		temperature = ambientTemperature
	}

	r := make(map[string]float64, len(rates))
	for sp, rate := range rates {
		if _, ok := s.conc[sp]; !ok {
			return nil, fmt.Errorf("cfd: source species %s is not tracked", sp)
		}
		if !rate.Dimensions().Matches(emissionDims) {
			return nil, fmt.Errorf("cfd: source rate for %s has dimensions %v; expected %v",
				sp, rate.Dimensions(), emissionDims)
		}
		if rate.Value() < 0 {
			return nil, fmt.Errorf("cfd: source rate for %s is negative", sp)
		}
		r[sp] = rate.Value()
	}

	inside := x >= 0 && x <= s.cfg.Lx && y >= 0 && y <= s.cfg.Ly && z >= 0 && z <= s.cfg.Lz
	if !inside {
		switch s.cfg.OutOfBounds {
		case dispersim.IgnoreOutOfBounds:
			return nil, nil
		case dispersim.ClampOutOfBounds:
			x = math.Min(math.Max(x, 0), s.cfg.Lx)
			y = math.Min(math.Max(y, 0), s.cfg.Ly)
			z = math.Min(math.Max(z, 0), s.cfg.Lz)
		case dispersim.ErrorOutOfBounds:
			return nil, fmt.Errorf("cfd: source position (%g, %g, %g) is outside the domain",
				x, y, z)
		}
	}

	src := &Source{
		rates:       r,
		temperature: temperature,
		i:           nearestNode(x, s.dx, s.cfg.Nx),
		j:           nearestNode(y, s.dy, s.cfg.Ny),
		k:           nearestNode(z, s.dz, s.cfg.Nz),
	}
	s.sources = append(s.sources, src)
	return src, nil
}

// RemoveSource unregisters a source previously returned by AddSource.
// Removing a nil or unknown source is a no-op.
func (s *Solver) RemoveSource(src *Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for idx, other := range s.sources {
		if other == src {
			s.sources = append(s.sources[:idx], s.sources[idx+1:]...)
			return
		}
	}
}

// NumSources returns the number of registered sources.
func (s *Solver) NumSources() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// nearestNode returns the grid node index closest to coordinate x,
// clipped to the grid.
func nearestNode(x, d float64, n int) int {
	i := int(math.Round(x / d))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
