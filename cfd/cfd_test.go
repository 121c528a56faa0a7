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
	"bytes"
	"math"
	"testing"

	"github.com/ctessum/unit"
	"github.com/spatialmodel/dispersim"
)

const testTolerance = 1.e-8

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance && math.Abs(a-b) > 1.e-14 {
		return true
	}
	return false
}

func testConfig() Config {
	return Config{
		Nx: 8, Ny: 8, Nz: 4,
		Lx: 50, Ly: 50, Lz: 25,
		Dt:        0.1,
		Species:   []string{"NOx", "CO"},
		WindSpeed: 5,
		Stability: dispersim.StabilityD,
	}
}

func kgPerS(v float64) *unit.Unit {
	return unit.New(v, unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -1})
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero nx", func(c *Config) { c.Nx = 0 }},
		{"single node nz", func(c *Config) { c.Nz = 1 }},
		{"negative ny", func(c *Config) { c.Ny = -4 }},
		{"zero domain", func(c *Config) { c.Lz = 0 }},
		{"negative domain", func(c *Config) { c.Lx = -100 }},
		{"zero time step", func(c *Config) { c.Dt = 0 }},
		{"negative wind", func(c *Config) { c.WindSpeed = -2 }},
		{"negative reaction rate", func(c *Config) { c.ReactionRates = map[string]float64{"NOx": -1} }},
		{"duplicate species", func(c *Config) { c.Species = []string{"NOx", "NOx"} }},
	}
	for _, test := range tests {
		cfg := testConfig()
		test.mutate(&cfg)
		if _, err := NewSolver(cfg); err == nil {
			t.Errorf("%s: expected an error but got none", test.name)
		}
	}
	if _, err := NewSolver(testConfig()); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestDefaultSpecies(t *testing.T) {
	cfg := testConfig()
	cfg.Species = nil
	s, err := NewSolver(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"NOx", "CO", "PM2.5"}
	got := s.Species()
	if len(got) != len(want) {
		t.Fatalf("got %d species; expected %d", len(got), len(want))
	}
	for i, sp := range want {
		if got[i] != sp {
			t.Errorf("species %d is %q; expected %q", i, got[i], sp)
		}
	}
}

// A continuous source in a quiescent domain accumulates mass step
// after step.
func TestSourceAccumulation(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	src, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"NOx": kgPerS(0.01)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if src == nil {
		t.Fatal("in-domain source was not registered")
	}

	var prev float64
	for step := 0; step < 10; step++ {
		s.TimeStep()
		mass, err := s.TotalMass("NOx")
		if err != nil {
			t.Fatal(err)
		}
		if mass <= prev {
			t.Fatalf("step %d: NOx mass %g did not increase from %g", step, mass, prev)
		}
		prev = mass
	}
	if different(s.Time(), 1.0, testTolerance) {
		t.Errorf("time after 10 steps is %g; expected 1.0", s.Time())
	}
}

func TestFieldsStayFinite(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetBoundaryConditions(ProfileLogarithmic); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"NOx": kgPerS(0.01)}, 0); err != nil {
		t.Fatal(err)
	}
	s.Run(20)

	for _, name := range []string{"u", "v", "w", "p", "k", "epsilon", "T", "NOx", "CO"} {
		f, err := s.Field(name)
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range f.Elements {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("field %s element %d is %g after 20 steps", name, i, v)
			}
		}
	}
}

func TestTurbulenceFloors(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetBoundaryConditions(ProfilePowerLaw); err != nil {
		t.Fatal(err)
	}
	s.Run(50)

	tke, err := s.Field("k")
	if err != nil {
		t.Fatal(err)
	}
	eps, err := s.Field("epsilon")
	if err != nil {
		t.Fatal(err)
	}
	for i := range tke.Elements {
		if tke.Elements[i] < turbFloor {
			t.Fatalf("k element %d fell to %g, below the floor", i, tke.Elements[i])
		}
		if eps.Elements[i] < turbFloor {
			t.Fatalf("epsilon element %d fell to %g, below the floor", i, eps.Elements[i])
		}
	}
	nox, err := s.Field("NOx")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range nox.Elements {
		if v < 0 {
			t.Fatalf("NOx element %d is negative: %g", i, v)
		}
	}
}

func TestBoundaryProfiles(t *testing.T) {
	for _, profile := range []string{ProfileLogarithmic, ProfilePowerLaw} {
		s, err := NewSolver(testConfig())
		if err != nil {
			t.Fatal(err)
		}
		if err := s.SetBoundaryConditions(profile); err != nil {
			t.Fatal(err)
		}
		u, err := s.Field("u")
		if err != nil {
			t.Fatal(err)
		}
		// Inflow wind speed increases with height away from the wall
		// rows.
		var prevSpeed float64
		for k := 1; k < s.cfg.Nz; k++ {
			speed := u.Get(k, s.cfg.Ny/2, 0)
			if speed <= prevSpeed {
				t.Errorf("%s profile: speed %g at level %d does not exceed %g below it",
					profile, speed, k, prevSpeed)
			}
			prevSpeed = speed
		}
		// No-slip walls.
		if v := u.Get(0, s.cfg.Ny/2, 2); v != 0 {
			t.Errorf("%s profile: ground u is %g; expected 0", profile, v)
		}
		if v := u.Get(1, 0, 0); v != 0 {
			t.Errorf("%s profile: lateral wall u is %g; expected 0", profile, v)
		}
		// Heated ground.
		temp, err := s.Field("T")
		if err != nil {
			t.Fatal(err)
		}
		if v := temp.Get(0, 3, 3); v != groundTemperature {
			t.Errorf("%s profile: ground temperature is %g; expected %g",
				profile, v, groundTemperature)
		}
		// Turbulence reflects the inflow.
		tke, err := s.Field("k")
		if err != nil {
			t.Fatal(err)
		}
		if v := tke.Get(2, s.cfg.Ny/2, 0); v <= initialTKE {
			t.Errorf("%s profile: inflow k is %g; expected above background %g",
				profile, v, initialTKE)
		}
	}

	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetBoundaryConditions("solid-body"); err == nil {
		t.Error("unknown wind profile accepted")
	}
}

// Ground heating warms the air above it, which the buoyancy term then
// accelerates vertically.
func TestBuoyancy(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetBoundaryConditions(ProfileLogarithmic); err != nil {
		t.Fatal(err)
	}
	s.Run(5)

	w, err := s.Field("w")
	if err != nil {
		t.Fatal(err)
	}
	var moved bool
	for _, v := range w.Elements {
		if v != 0 {
			moved = true
		}
		if math.Abs(v) > wClamp {
			t.Fatalf("vertical velocity %g exceeds the clamp", v)
		}
	}
	if !moved {
		t.Error("ground heating produced no vertical motion")
	}
}

func TestReactionDecay(t *testing.T) {
	inert := testConfig()
	inert.ReactionRates = map[string]float64{}
	reactive := testConfig()

	s1, err := NewSolver(inert)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := NewSolver(reactive)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []*Solver{s1, s2} {
		if _, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"NOx": kgPerS(0.01)}, 0); err != nil {
			t.Fatal(err)
		}
		s.Run(10)
	}
	m1, err := s1.TotalMass("NOx")
	if err != nil {
		t.Fatal(err)
	}
	m2, err := s2.TotalMass("NOx")
	if err != nil {
		t.Fatal(err)
	}
	if m2 >= m1 {
		t.Errorf("reactive NOx mass %g is not less than inert mass %g", m2, m1)
	}
}

func TestAddSourceValidation(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"SO2": kgPerS(0.01)}, 0); err == nil {
		t.Error("untracked species accepted")
	}
	badUnits := unit.New(0.01, unit.Dimensions{unit.MassDim: 1})
	if _, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"NOx": badUnits}, 0); err == nil {
		t.Error("rate without time dimension accepted")
	}
	if _, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"NOx": kgPerS(-0.01)}, 0); err == nil {
		t.Error("negative rate accepted")
	}
}

func TestSourceTemperature(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	rates := map[string]*unit.Unit{"NOx": kgPerS(0.01)}

	src, err := s.AddSource(25, 25, 12.5, rates, 0)
	if err != nil {
		t.Fatal(err)
	}
	if src.Temperature() != ambientTemperature {
		t.Errorf("default source temperature is %g K; expected %g K",
			src.Temperature(), ambientTemperature)
	}

	src, err = s.AddSource(25, 25, 12.5, rates, 320)
	if err != nil {
		t.Fatal(err)
	}
	if src.Temperature() != 320 {
		t.Errorf("source temperature is %g K; expected 320 K", src.Temperature())
	}

	if _, err := s.AddSource(25, 25, 12.5, rates, -10); err == nil {
		t.Error("negative source temperature accepted")
	}

	stkSrc, _, err := s.AddStackSource(25, 25, 10, 1, 350, 15, rates)
	if err != nil {
		t.Fatal(err)
	}
	if stkSrc.Temperature() != 350 {
		t.Errorf("stack source temperature is %g K; expected 350 K", stkSrc.Temperature())
	}
}

func TestSourceBoundsPolicies(t *testing.T) {
	rates := map[string]*unit.Unit{"NOx": kgPerS(0.01)}

	cfg := testConfig()
	cfg.OutOfBounds = dispersim.IgnoreOutOfBounds
	s, err := NewSolver(cfg)
	if err != nil {
		t.Fatal(err)
	}
	src, err := s.AddSource(-10, 25, 12.5, rates, 0)
	if err != nil {
		t.Fatal(err)
	}
	if src != nil || s.NumSources() != 0 {
		t.Error("ignore policy registered an out-of-domain source")
	}

	cfg.OutOfBounds = dispersim.ClampOutOfBounds
	s, err = NewSolver(cfg)
	if err != nil {
		t.Fatal(err)
	}
	src, err = s.AddSource(-10, 25, 12.5, rates, 0)
	if err != nil {
		t.Fatal(err)
	}
	if src == nil {
		t.Fatal("clamp policy dropped the source")
	}
	if _, _, i := src.Cell(); i != 0 {
		t.Errorf("clamped source is at x node %d; expected 0", i)
	}

	cfg.OutOfBounds = dispersim.ErrorOutOfBounds
	s, err = NewSolver(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSource(-10, 25, 12.5, rates, 0); err == nil {
		t.Error("error policy accepted an out-of-domain source")
	}
}

func TestRemoveSource(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	src, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"NOx": kgPerS(0.01)}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.NumSources() != 1 {
		t.Fatalf("have %d sources; expected 1", s.NumSources())
	}
	s.RemoveSource(src)
	if s.NumSources() != 0 {
		t.Fatalf("have %d sources after removal; expected 0", s.NumSources())
	}
	s.RemoveSource(nil) // no-op
}

func TestStackSource(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetBoundaryConditions(ProfileLogarithmic); err != nil {
		t.Fatal(err)
	}
	src, height, err := s.AddStackSource(25, 25, 10, 1, 350, 15,
		map[string]*unit.Unit{"NOx": kgPerS(0.01)})
	if err != nil {
		t.Fatal(err)
	}
	if src == nil {
		t.Fatal("stack source was not registered")
	}
	if height < 10 || height > s.cfg.Lz {
		t.Errorf("effective release height %g is outside [10, %g]", height, s.cfg.Lz)
	}
	k, _, _ := src.Cell()
	if k == 0 {
		t.Error("buoyant stack released at ground level")
	}

	if _, _, err := s.AddStackSource(25, 25, 100, 1, 350, 15,
		map[string]*unit.Unit{"NOx": kgPerS(0.01)}); err == nil {
		t.Error("stack taller than the domain accepted")
	}
}

// Exporting a field twice without an intervening time step returns
// identical results, both as arrays and as serialized output.
func TestFieldExportIdempotent(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetBoundaryConditions(ProfileLogarithmic); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddSource(25, 25, 12.5, map[string]*unit.Unit{"NOx": kgPerS(0.01)}, 0); err != nil {
		t.Fatal(err)
	}
	s.Run(5)

	a, err := s.Field("NOx")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Field("NOx")
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range a.Elements {
		if b.Elements[i] != v {
			t.Fatalf("element %d changed between reads: %g != %g", i, v, b.Elements[i])
		}
	}

	var buf1, buf2 bytes.Buffer
	if err := s.WriteVTK(&buf1, "NOx"); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteVTK(&buf2, "NOx"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf1.Bytes(), buf2.Bytes()) {
		t.Error("repeated exports produced different output")
	}
}

func TestSlicesAndProfiles(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	slice, err := s.HorizontalSlice("T", 0)
	if err != nil {
		t.Fatal(err)
	}
	if slice.Shape[0] != s.cfg.Ny || slice.Shape[1] != s.cfg.Nx {
		t.Errorf("slice shape is %v", slice.Shape)
	}
	if _, err := s.HorizontalSlice("T", 99); err == nil {
		t.Error("out-of-range layer accepted")
	}
	profile, err := s.VerticalProfile("T", 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(profile) != s.cfg.Nz {
		t.Errorf("profile has %d levels; expected %d", len(profile), s.cfg.Nz)
	}
	for _, v := range profile {
		if v != ambientTemperature {
			t.Errorf("initial temperature is %g; expected %g", v, ambientTemperature)
		}
	}
	if _, err := s.VerticalProfile("nope", 0, 0); err == nil {
		t.Error("unknown field accepted")
	}
}

func TestDiagnostics(t *testing.T) {
	s, err := NewSolver(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if re := s.ReynoldsNumber(); re != 0 {
		t.Errorf("Reynolds number of quiescent flow is %g; expected 0", re)
	}
	if err := s.SetBoundaryConditions(ProfileLogarithmic); err != nil {
		t.Fatal(err)
	}
	if re := s.ReynoldsNumber(); re <= 0 {
		t.Errorf("Reynolds number with inflow is %g; expected > 0", re)
	}
	ri := s.RichardsonField()
	if len(ri.Elements) != s.cfg.Nx*s.cfg.Ny*s.cfg.Nz {
		t.Fatalf("Richardson field has %d elements", len(ri.Elements))
	}
	for i, v := range ri.Elements {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("Richardson element %d is %g", i, v)
		}
	}
	if v := s.RichardsonNumber(); math.IsNaN(v) {
		t.Error("mean Richardson number is NaN")
	}
}
