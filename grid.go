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
	"fmt"
	"math"
	"sync"

	"github.com/ctessum/sparse"
)

const (
	// speedThreshold is the speed [km/h] above which emission rates
	// begin to scale with speed.
	speedThreshold = 20.

	// minPlumeHeight is the minimum effective release height [m].
	minPlumeHeight = 2.

	// plumeWindow is the half-width [m] of the region around an
	// emitter within which its plume contribution is accumulated.
	plumeWindow = 100.

	// minPlumeDistance and maxPlumeDistance bound the emitter-to-
	// receptor distances [m] that contribute concentration. Below the
	// minimum the near-field Gaussian approximation breaks down;
	// beyond the maximum the contribution is negligible.
	minPlumeDistance = 1.
	maxPlumeDistance = 300.

	// defaultBaseEmission is the per-emitter base release rate used
	// when GridConfig.BaseEmission is zero.
	defaultBaseEmission = 0.1

	// defaultDecayFactor is the fraction of accumulated concentration
	// retained each step when GridConfig.DecayFactor is nil.
	defaultDecayFactor = 0.99

	// minWindSpeed is the wind speed [m/s] below which plume
	// concentrations are treated as zero to avoid division by zero.
	minWindSpeed = 1.0e-10
)

// BoundsPolicy controls how positions outside the model domain are
// handled.
type BoundsPolicy int

const (
	// IgnoreOutOfBounds silently skips out-of-domain positions.
	IgnoreOutOfBounds BoundsPolicy = iota

	// ClampOutOfBounds moves out-of-domain positions to the nearest
	// point on the domain boundary.
	ClampOutOfBounds

	// ErrorOutOfBounds rejects out-of-domain positions with an error.
	ErrorOutOfBounds
)

// GridConfig holds the configuration for a plume accumulation grid.
type GridConfig struct {
	// Resolution is the number of grid cells along each horizontal
	// axis.
	Resolution int

	// XMin, XMax, YMin, and YMax are the domain extent [m].
	XMin, XMax, YMin, YMax float64

	// WindSpeed is the transport wind speed [m/s].
	WindSpeed float64

	// WindDirection is the direction the wind blows toward
	// [degrees], measured counterclockwise from the +x axis.
	WindDirection float64

	// Stability is the Pasquill-Gifford atmospheric stability class.
	Stability StabilityClass

	// EmissionFactor scales all emitter release rates. It represents
	// scenario-level controls such as fleet emission standards.
	EmissionFactor float64

	// BaseEmission is the per-emitter release rate before speed and
	// scenario scaling. Zero means the default.
	BaseEmission float64

	// DecayFactor is the fraction of accumulated concentration
	// retained at the start of each step, in [0, 1). A value of zero
	// discards the field each step; nil means the default.
	DecayFactor *float64

	// OutOfBounds selects how emitters outside the domain are
	// handled. The default is to ignore them.
	OutOfBounds BoundsPolicy

	// Kernel optionally selects an accelerated computation backend.
	// If nil, or if the backend fails, the built-in scalar kernel is
	// used.
	Kernel Kernel
}

func (c *GridConfig) validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("dispersim: grid resolution %d is not positive", c.Resolution)
	}
	if c.XMax <= c.XMin || c.YMax <= c.YMin {
		return fmt.Errorf("dispersim: invalid domain extent [%g, %g] x [%g, %g]",
			c.XMin, c.XMax, c.YMin, c.YMax)
	}
	if c.WindSpeed < 0 {
		return fmt.Errorf("dispersim: wind speed %g is negative", c.WindSpeed)
	}
	if c.EmissionFactor < 0 {
		return fmt.Errorf("dispersim: emission factor %g is negative", c.EmissionFactor)
	}
	if c.DecayFactor != nil && (*c.DecayFactor < 0 || *c.DecayFactor >= 1) {
		return fmt.Errorf("dispersim: decay factor %g is outside [0, 1)", *c.DecayFactor)
	}
	return nil
}

// PlumeGrid accumulates near-ground pollutant concentrations from
// mobile emitters on a regular 2-d grid using a Gaussian plume
// parameterization. It is safe for concurrent use.
type PlumeGrid struct {
	cfg    GridConfig
	geom   GridGeometry
	met    Meteorology
	kernel Kernel
	scalar Kernel
	decay  float64

	mu      sync.RWMutex
	data    *sparse.DenseArray
	step    int
	history []GridSummary
}

// NewPlumeGrid creates a plume accumulation grid from cfg, returning
// an error if the configuration is invalid.
func NewPlumeGrid(cfg GridConfig) (*PlumeGrid, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.BaseEmission == 0 {
		cfg.BaseEmission = defaultBaseEmission
	}
	decay := defaultDecayFactor
	if cfg.DecayFactor != nil {
		decay = *cfg.DecayFactor
	}
	g := &PlumeGrid{
		cfg:   cfg,
		decay: decay,
		geom: GridGeometry{
			Resolution: cfg.Resolution,
			XMin:       cfg.XMin,
			XMax:       cfg.XMax,
			YMin:       cfg.YMin,
			YMax:       cfg.YMax,
			CellWidth:  (cfg.XMax - cfg.XMin) / float64(cfg.Resolution),
			CellHeight: (cfg.YMax - cfg.YMin) / float64(cfg.Resolution),
		},
		met: Meteorology{
			WindSpeed:     cfg.WindSpeed,
			WindDirection: cfg.WindDirection * math.Pi / 180,
			Stability:     cfg.Stability,
		},
		kernel: cfg.Kernel,
		scalar: ScalarKernel{},
		data:   sparse.ZerosDense(cfg.Resolution, cfg.Resolution),
	}
	return g, nil
}

// Update advances the grid by one step: previously accumulated
// concentrations are decayed, then the plume contribution of every
// emitter in the snapshot is added. Applying the same snapshot again
// gives the same contribution on top of the decayed field.
func (g *PlumeGrid) Update(snapshot EmitterSnapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// With the reject policy, validate before mutating anything so a
	// bad snapshot leaves the grid unchanged.
	if g.cfg.OutOfBounds == ErrorOutOfBounds {
		for _, e := range snapshot {
			if !g.geom.contains(e.X, e.Y) {
				return fmt.Errorf("dispersim: emitter %s at (%g, %g) is outside the domain",
					e.ID, e.X, e.Y)
			}
		}
	}

	g.data.Scale(g.decay)

	for _, e := range snapshot {
		x, y := e.X, e.Y
		if !g.geom.contains(x, y) {
			switch g.cfg.OutOfBounds {
			case IgnoreOutOfBounds:
				continue
			case ClampOutOfBounds:
				x, y = g.geom.clamp(x, y)
			}
		}
		p := KernelParams{
			X:            x,
			Y:            y,
			EmissionRate: emissionRate(e.Speed, g.cfg.BaseEmission) * g.cfg.EmissionFactor,
			PlumeHeight:  effectivePlumeHeight(e.Speed),
		}
		p.IMin, p.IMax, p.JMin, p.JMax = g.geom.window(x, y, plumeWindow)

		k := g.kernel
		if k == nil {
			k = g.scalar
		}
		if err := k.Accumulate(g.data, g.geom, g.met, p); err != nil {
			// Accelerated backends can fail at runtime; redo this
			// emitter with the scalar kernel rather than dropping it.
			if err := g.scalar.Accumulate(g.data, g.geom, g.met, p); err != nil {
				return err
			}
		}
	}

	g.step++
	g.history = append(g.history, summarize(g.step, g.data))
	return nil
}

// Run advances the grid by n steps, drawing one emitter snapshot per
// step from src.
func (g *PlumeGrid) Run(src EmitterSource, n int) error {
	for i := 0; i < n; i++ {
		step := g.Step()
		snap, err := src.Snapshot(step)
		if err != nil {
			return fmt.Errorf("dispersim: step %d: %v", step, err)
		}
		if err := g.Update(snap); err != nil {
			return err
		}
	}
	return nil
}

// Step returns the number of updates applied so far.
func (g *PlumeGrid) Step() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.step
}

// Concentrations returns a copy of the accumulated concentration
// field, indexed [row][col] with rows along the y axis.
func (g *PlumeGrid) Concentrations() *sparse.DenseArray {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.data.Copy()
}

// History returns per-step summary statistics for all updates applied
// so far.
func (g *PlumeGrid) History() []GridSummary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h := make([]GridSummary, len(g.history))
	copy(h, g.history)
	return h
}

// GridGeometry describes the cell layout of a plume grid.
type GridGeometry struct {
	// Resolution is the number of cells along each axis.
	Resolution int

	// XMin, XMax, YMin, and YMax are the domain extent [m].
	XMin, XMax, YMin, YMax float64

	// CellWidth and CellHeight are the cell dimensions [m].
	CellWidth, CellHeight float64
}

func (g GridGeometry) contains(x, y float64) bool {
	return x >= g.XMin && x <= g.XMax && y >= g.YMin && y <= g.YMax
}

func (g GridGeometry) clamp(x, y float64) (float64, float64) {
	return math.Min(math.Max(x, g.XMin), g.XMax),
		math.Min(math.Max(y, g.YMin), g.YMax)
}

// CellCenter returns the physical coordinates of the center of cell
// (row, col).
func (g GridGeometry) CellCenter(row, col int) (x, y float64) {
	return g.XMin + (float64(col)+0.5)*g.CellWidth,
		g.YMin + (float64(row)+0.5)*g.CellHeight
}

// window returns the half-open index ranges [iMin, iMax) x [jMin, jMax)
// of rows and columns whose centers may lie within radius r of (x, y).
func (g GridGeometry) window(x, y, r float64) (iMin, iMax, jMin, jMax int) {
	jMin = int(math.Floor((x - r - g.XMin) / g.CellWidth))
	jMax = int(math.Ceil((x+r-g.XMin)/g.CellWidth)) + 1
	iMin = int(math.Floor((y - r - g.YMin) / g.CellHeight))
	iMax = int(math.Ceil((y+r-g.YMin)/g.CellHeight)) + 1
	if jMin < 0 {
		jMin = 0
	}
	if iMin < 0 {
		iMin = 0
	}
	if jMax > g.Resolution {
		jMax = g.Resolution
	}
	if iMax > g.Resolution {
		iMax = g.Resolution
	}
	return
}

// Meteorology holds the steady meteorological conditions a plume grid
// runs under.
type Meteorology struct {
	// WindSpeed is the transport wind speed [m/s].
	WindSpeed float64

	// WindDirection is the direction the wind blows toward [radians].
	WindDirection float64

	// Stability is the atmospheric stability class.
	Stability StabilityClass
}
