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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// shearFloor is the squared shear below which the Richardson number
// is left at zero rather than dividing by a vanishing denominator.
const shearFloor = 1.e-10

// ReynoldsNumber returns a bulk Reynolds number of the current flow,
// based on the mean streamwise velocity and a characteristic length
// of one tenth of the domain.
func (s *Solver) ReynoldsNumber() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meanU := stat.Mean(s.u.Elements, nil)
	return meanU * (s.cfg.Lx / 10) / s.nu
}

// RichardsonField returns the pointwise gradient Richardson number
// Ri = (g/T)·(∂T/∂z) / shear², a measure of the relative importance
// of buoyancy and shear in turbulence production. Boundary nodes and
// nodes with negligible shear are zero.
func (s *Solver) RichardsonField() *sparse.DenseArray {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx
	ri := sparse.ZerosDense(nz, ny, nx)
	for k := 1; k < nz-1; k++ {
		for j := 1; j < ny-1; j++ {
			for i := 1; i < nx-1; i++ {
				dTdz := (s.temp.Get(k+1, j, i) - s.temp.Get(k, j, i)) / s.dz
				dudz := (s.u.Get(k+1, j, i) - s.u.Get(k, j, i)) / s.dz
				dvdz := (s.v.Get(k+1, j, i) - s.v.Get(k, j, i)) / s.dz
				shear := dudz*dudz + dvdz*dvdz
				if shear > shearFloor {
					ri.Set(gravity/s.temp.Get(k, j, i)*dTdz/shear, k, j, i)
				}
			}
		}
	}
	return ri
}

// RichardsonNumber returns the domain-mean gradient Richardson
// number.
func (s *Solver) RichardsonNumber() float64 {
	ri := s.RichardsonField()
	return stat.Mean(ri.Elements, nil)
}
