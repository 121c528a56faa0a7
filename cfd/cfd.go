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

// Package cfd implements a 3-d volumetric pollutant transport solver
// with a k-epsilon turbulence closure. It complements the Gaussian
// plume accumulator in the parent package for studies where vertical
// structure, buoyancy, and turbulence matter.
package cfd

import (
	"fmt"
	"sync"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/dispersim"
)

// Physical and model constants.
const (
	airDensity       = 1.225    // kg/m³ at standard conditions
	dynamicViscosity = 1.81e-5  // Pa·s
	gravity          = 9.81     // m/s²
	specificHeat     = 1005.    // J/(kg·K) for air
	thermalExpansion = 3.4e-3   // 1/K

	ambientTemperature = 288.15 // K
	groundTemperature  = 291.15 // K

	// Standard k-epsilon closure coefficients.
	cMu      = 0.09
	c1Eps    = 1.44
	c2Eps    = 1.92
	sigmaK   = 1.0
	sigmaEps = 1.3

	turbulentPrandtl = 0.9
	turbulentSchmidt = 0.7

	// turbFloor keeps k and epsilon strictly positive so the eddy
	// viscosity ratio k²/ε stays finite.
	turbFloor = 1.e-10

	// wClamp bounds the vertical velocity [m/s] to keep the explicit
	// buoyancy update stable.
	wClamp = 10.

	// Wall-function constants for the logarithmic inflow profile.
	vonKarman        = 0.41
	roughnessLength  = 0.1 // m
	frictionVelocity = 0.5 // m/s
	minProfileSpeed  = 0.1 // m/s

	// Power-law inflow profile constants.
	referenceHeight  = 10. // m
	powerLawExponent = 0.15

	// Smoothing widths for the stabilization filter.
	sigmaSmoothTurb    = 0.5
	sigmaSmoothSpecies = 0.3

	// Initial turbulence state.
	initialTKE         = 0.1  // m²/s²
	initialDissipation = 0.01 // m²/s³

	// First-order NOx photolysis rate.
	defaultNOxDecay = 1.e-5 // 1/s
)

// Config holds the configuration for a volumetric solver.
type Config struct {
	// Nx, Ny, and Nz are the grid node counts along each axis. Each
	// must be at least 2.
	Nx, Ny, Nz int

	// Lx, Ly, and Lz are the physical domain dimensions [m].
	Lx, Ly, Lz float64

	// Dt is the time step [s].
	Dt float64

	// Species are the names of the pollutant species to transport.
	// If empty, NOx, CO, and PM2.5 are tracked.
	Species []string

	// ReactionRates maps species names to first-order decay rates
	// [1/s], representing simple photolysis. If nil, NOx decays at
	// the default rate and other species are inert.
	ReactionRates map[string]float64

	// WindSpeed is the reference inflow wind speed [m/s], used by
	// the power-law boundary profile.
	WindSpeed float64

	// Stability sets the inflow turbulence intensity.
	Stability dispersim.StabilityClass

	// OutOfBounds selects how source positions outside the domain
	// are handled. The default is to ignore them.
	OutOfBounds dispersim.BoundsPolicy
}

func (c *Config) validate() error {
	if c.Nx < 2 || c.Ny < 2 || c.Nz < 2 {
		return fmt.Errorf("cfd: grid size (%d, %d, %d) must be at least 2 nodes per axis",
			c.Nx, c.Ny, c.Nz)
	}
	if c.Lx <= 0 || c.Ly <= 0 || c.Lz <= 0 {
		return fmt.Errorf("cfd: domain size (%g, %g, %g) must be positive",
			c.Lx, c.Ly, c.Lz)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("cfd: time step %g must be positive", c.Dt)
	}
	if c.WindSpeed < 0 {
		return fmt.Errorf("cfd: wind speed %g is negative", c.WindSpeed)
	}
	for sp, rate := range c.ReactionRates {
		if rate < 0 {
			return fmt.Errorf("cfd: reaction rate %g for %s is negative", rate, sp)
		}
	}
	return nil
}

// Solver is a 3-d advection-diffusion pollutant transport solver with
// a k-epsilon turbulence closure and buoyancy-driven vertical motion.
// Horizontal momentum is prescribed through boundary conditions rather
// than solved, which is sufficient for the weakly-coupled street-scale
// flows the model targets. Solver is safe for concurrent use.
type Solver struct {
	cfg        Config
	dx, dy, dz float64
	nu         float64 // kinematic viscosity

	mu      sync.RWMutex
	u, v, w *sparse.DenseArray // velocity components
	p       *sparse.DenseArray // pressure
	tke     *sparse.DenseArray // turbulent kinetic energy
	eps     *sparse.DenseArray // turbulent dissipation rate
	temp    *sparse.DenseArray // temperature
	conc    map[string]*sparse.DenseArray
	sources []*Source
	time    float64
}

// NewSolver creates a volumetric solver from cfg, returning an error
// if the configuration is invalid. All fields start at rest: zero
// velocity, ambient temperature, and a small background turbulence
// level.
func NewSolver(cfg Config) (*Solver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(cfg.Species) == 0 {
		cfg.Species = []string{"NOx", "CO", "PM2.5"}
	}
	if cfg.ReactionRates == nil {
		cfg.ReactionRates = map[string]float64{"NOx": defaultNOxDecay}
	}
	s := &Solver{
		cfg: cfg,
		dx:  cfg.Lx / float64(cfg.Nx-1),
		dy:  cfg.Ly / float64(cfg.Ny-1),
		dz:  cfg.Lz / float64(cfg.Nz-1),
		nu:  dynamicViscosity / airDensity,

		u:    sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx),
		v:    sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx),
		w:    sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx),
		p:    sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx),
		tke:  sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx),
		eps:  sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx),
		temp: sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx),
		conc: make(map[string]*sparse.DenseArray, len(cfg.Species)),
	}
	for _, sp := range cfg.Species {
		if _, ok := s.conc[sp]; ok {
			return nil, fmt.Errorf("cfd: species %s is listed more than once", sp)
		}
		s.conc[sp] = sparse.ZerosDense(cfg.Nz, cfg.Ny, cfg.Nx)
	}
	for i := range s.tke.Elements {
		s.tke.Elements[i] = initialTKE
		s.eps.Elements[i] = initialDissipation
		s.temp.Elements[i] = ambientTemperature
	}
	return s, nil
}

// TimeStep advances the solution by one time step, running the
// turbulence closure, the buoyancy momentum update, temperature and
// species transport, and the stabilization filter in a fixed order.
func (s *Solver) TimeStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solveTurbulence()
	s.solveMomentum()
	s.solveTemperature()
	s.solveSpecies()
	s.time += s.cfg.Dt
	s.smoothFields()
}

// Run advances the solution by n time steps.
func (s *Solver) Run(n int) {
	for i := 0; i < n; i++ {
		s.TimeStep()
	}
}

// Time returns the current simulation time [s].
func (s *Solver) Time() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// CellVolume returns the volume of one grid cell [m³].
func (s *Solver) CellVolume() float64 {
	return s.dx * s.dy * s.dz
}

// height returns the physical height [m] of vertical node k.
func (s *Solver) height(k int) float64 {
	return float64(k) * s.dz
}

// fieldLocked returns the named field array. The caller must hold the
// lock.
func (s *Solver) fieldLocked(name string) (*sparse.DenseArray, error) {
	switch name {
	case "u":
		return s.u, nil
	case "v":
		return s.v, nil
	case "w":
		return s.w, nil
	case "p":
		return s.p, nil
	case "k":
		return s.tke, nil
	case "epsilon":
		return s.eps, nil
	case "T":
		return s.temp, nil
	}
	if c, ok := s.conc[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("cfd: unknown field %q", name)
}

// Field returns a copy of the named field. Valid names are "u", "v",
// "w", "p", "k", "epsilon", "T", and the configured species.
func (s *Solver) Field(name string) (*sparse.DenseArray, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.fieldLocked(name)
	if err != nil {
		return nil, err
	}
	return f.Copy(), nil
}

// HorizontalSlice returns a copy of the named field at vertical node
// k as a 2-d array indexed [y][x].
func (s *Solver) HorizontalSlice(name string, k int) (*sparse.DenseArray, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.fieldLocked(name)
	if err != nil {
		return nil, err
	}
	if k < 0 || k >= s.cfg.Nz {
		return nil, fmt.Errorf("cfd: layer %d is outside [0, %d)", k, s.cfg.Nz)
	}
	out := sparse.ZerosDense(s.cfg.Ny, s.cfg.Nx)
	for j := 0; j < s.cfg.Ny; j++ {
		for i := 0; i < s.cfg.Nx; i++ {
			out.Set(f.Get(k, j, i), j, i)
		}
	}
	return out, nil
}

// VerticalProfile returns the values of the named field in the air
// column above horizontal node (j, i), ordered from the ground up.
func (s *Solver) VerticalProfile(name string, j, i int) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, err := s.fieldLocked(name)
	if err != nil {
		return nil, err
	}
	if j < 0 || j >= s.cfg.Ny || i < 0 || i >= s.cfg.Nx {
		return nil, fmt.Errorf("cfd: column (%d, %d) is outside the grid", j, i)
	}
	profile := make([]float64, s.cfg.Nz)
	for k := 0; k < s.cfg.Nz; k++ {
		profile[k] = f.Get(k, j, i)
	}
	return profile, nil
}

// TotalMass returns the total mass of the named species in the
// domain, the concentration sum scaled by cell volume.
func (s *Solver) TotalMass(species string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conc[species]
	if !ok {
		return 0, fmt.Errorf("cfd: species %s is not tracked", species)
	}
	return c.Sum() * s.CellVolume(), nil
}

// Species returns the names of the tracked species in configuration
// order.
func (s *Solver) Species() []string {
	out := make([]string, len(s.cfg.Species))
	copy(out, s.cfg.Species)
	return out
}
