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

	"github.com/ctessum/atmos/advect"
	"github.com/ctessum/sparse"
)

// eddyViscosity returns the turbulent viscosity field
// μt = ρ·Cμ·k²/ε.
func (s *Solver) eddyViscosity() *sparse.DenseArray {
	mut := sparse.ZerosDense(s.cfg.Nz, s.cfg.Ny, s.cfg.Nx)
	for i, k := range s.tke.Elements {
		eps := math.Max(s.eps.Elements[i], turbFloor)
		mut.Elements[i] = airDensity * cMu * k * k / eps
	}
	return mut
}

// solveTurbulence advances the k-epsilon closure by one step. The
// production term uses a simplified strain-rate magnitude built from
// the normal velocity gradients.
func (s *Solver) solveTurbulence() {
	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx
	dt := s.cfg.Dt

	strain := sparse.ZerosDense(nz, ny, nx)
	for k := 1; k < nz-1; k++ {
		for j := 1; j < ny-1; j++ {
			for i := 1; i < nx-1; i++ {
				dudx := (s.u.Get(k, j, i+1) - s.u.Get(k, j, i-1)) / (2 * s.dx)
				dvdy := (s.v.Get(k, j+1, i) - s.v.Get(k, j-1, i)) / (2 * s.dy)
				dwdz := (s.w.Get(k+1, j, i) - s.w.Get(k-1, j, i)) / (2 * s.dz)
				strain.Set(math.Sqrt(2*(dudx*dudx+dvdy*dvdy+dwdz*dwdz)), k, j, i)
			}
		}
	}

	mut := s.eddyViscosity()
	production := mut.Copy()
	for i, m := range production.Elements {
		sv := strain.Elements[i]
		production.Elements[i] = m * sv * sv
	}

	for k := 1; k < nz-1; k++ {
		for j := 1; j < ny-1; j++ {
			for i := 1; i < nx-1; i++ {
				diffusion := mut.Get(k, j, i) / sigmaK * s.laplacian(s.tke, k, j, i)
				kNew := s.tke.Get(k, j, i) +
					dt*(production.Get(k, j, i)-s.eps.Get(k, j, i)+diffusion)
				s.tke.Set(math.Max(kNew, turbFloor), k, j, i)
			}
		}
	}

	for k := 1; k < nz-1; k++ {
		for j := 1; j < ny-1; j++ {
			for i := 1; i < nx-1; i++ {
				eps := s.eps.Get(k, j, i)
				tke := s.tke.Get(k, j, i)
				diffusion := mut.Get(k, j, i) / sigmaEps * s.laplacian(s.eps, k, j, i)
				epsNew := eps + dt*(c1Eps*eps/tke*production.Get(k, j, i)-
					c2Eps*eps*eps/tke+diffusion)
				s.eps.Set(math.Max(epsNew, turbFloor), k, j, i)
			}
		}
	}
}

// solveMomentum applies the buoyancy force to the vertical velocity.
// Horizontal momentum is prescribed by the boundary conditions, so
// thermal effects are the only interior momentum source.
func (s *Solver) solveMomentum() {
	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx
	dt := s.cfg.Dt
	for k := 1; k < nz-1; k++ {
		for j := 1; j < ny-1; j++ {
			for i := 1; i < nx-1; i++ {
				accel := -gravity * thermalExpansion * (s.temp.Get(k, j, i) - ambientTemperature)
				w := s.w.Get(k, j, i) + dt*accel
				if w > wClamp {
					w = wClamp
				} else if w < -wClamp {
					w = -wClamp
				}
				s.w.Set(w, k, j, i)
			}
		}
	}
}

// solveTemperature transports heat with the turbulent thermal
// diffusivity αt = μt/(ρ·cp·Prt).
func (s *Solver) solveTemperature() {
	mut := s.eddyViscosity()
	alpha := mut
	for i, m := range alpha.Elements {
		alpha.Elements[i] = m / (airDensity * specificHeat * turbulentPrandtl)
	}
	s.temp = s.advectDiffuse(s.temp, alpha)
}

// solveSpecies transports every tracked species with the turbulent
// mass diffusivity Dt = μt/(ρ·Sct), then applies sources, first-order
// decay, and the inflow/outflow boundary conditions.
func (s *Solver) solveSpecies() {
	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx
	dt := s.cfg.Dt

	mut := s.eddyViscosity()
	dTurb := mut
	for i, m := range dTurb.Elements {
		dTurb.Elements[i] = m / (airDensity * turbulentSchmidt)
	}

	cellVolume := s.CellVolume()
	for _, sp := range s.cfg.Species {
		c := s.advectDiffuse(s.conc[sp], dTurb)

		for _, src := range s.sources {
			if rate, ok := src.rates[sp]; ok {
				c.AddVal(dt*rate/cellVolume, src.k, src.j, src.i)
			}
		}

		if rate := s.cfg.ReactionRates[sp]; rate > 0 {
			c.Scale(1 - rate*dt)
		}

		// Clean air enters at the upwind face; the downwind face is
		// zero-gradient.
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				c.Set(0, k, j, 0)
				c.Set(c.Get(k, j, nx-2), k, j, nx-1)
			}
		}

		for i, v := range c.Elements {
			if v < 0 {
				c.Elements[i] = 0
			}
		}
		s.conc[sp] = c
	}
}

// advectDiffuse returns an updated copy of c after one explicit
// upwind-advection and central-difference-diffusion step with the
// given diffusivity field. Boundary values are left unchanged.
func (s *Solver) advectDiffuse(c, diff *sparse.DenseArray) *sparse.DenseArray {
	nz, ny, nx := s.cfg.Nz, s.cfg.Ny, s.cfg.Nx
	dt := s.cfg.Dt
	out := c.Copy()
	for k := 1; k < nz-1; k++ {
		for j := 1; j < ny-1; j++ {
			for i := 1; i < nx-1; i++ {
				cc := c.Get(k, j, i)
				u := s.u.Get(k, j, i)
				v := s.v.Get(k, j, i)
				w := s.w.Get(k, j, i)

				advection := advect.UpwindFlux(u, c.Get(k, j, i-1), cc, s.dx) -
					advect.UpwindFlux(u, cc, c.Get(k, j, i+1), s.dx) +
					advect.UpwindFlux(v, c.Get(k, j-1, i), cc, s.dy) -
					advect.UpwindFlux(v, cc, c.Get(k, j+1, i), s.dy) +
					advect.UpwindFlux(w, c.Get(k-1, j, i), cc, s.dz) -
					advect.UpwindFlux(w, cc, c.Get(k+1, j, i), s.dz)

				diffusion := diff.Get(k, j, i) * s.laplacian(c, k, j, i)

				out.Set(cc+dt*(advection+diffusion), k, j, i)
			}
		}
	}
	return out
}

// laplacian returns the central-difference Laplacian of c at interior
// node (k, j, i).
func (s *Solver) laplacian(c *sparse.DenseArray, k, j, i int) float64 {
	cc := c.Get(k, j, i)
	return (c.Get(k, j, i+1)-2*cc+c.Get(k, j, i-1))/(s.dx*s.dx) +
		(c.Get(k, j+1, i)-2*cc+c.Get(k, j-1, i))/(s.dy*s.dy) +
		(c.Get(k+1, j, i)-2*cc+c.Get(k-1, j, i))/(s.dz*s.dz)
}
