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

package dispersimutil

import (
	"testing"

	"github.com/spatialmodel/dispersim"
	"github.com/spatialmodel/dispersim/cfd"
)

// The default configuration must produce valid model configurations.
func TestDefaultConfigs(t *testing.T) {
	gridCfg, err := GridConfig(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if gridCfg.Resolution != 50 {
		t.Errorf("default resolution is %d; expected 50", gridCfg.Resolution)
	}
	if gridCfg.Stability != dispersim.StabilityD {
		t.Errorf("default stability is %q; expected D", gridCfg.Stability)
	}
	if _, err := dispersim.NewPlumeGrid(gridCfg); err != nil {
		t.Errorf("default plume configuration rejected: %v", err)
	}

	cfdCfg, err := CFDConfig(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if cfdCfg.Nx != 64 || cfdCfg.Ny != 64 || cfdCfg.Nz != 32 {
		t.Errorf("default CFD grid is (%d, %d, %d); expected (64, 64, 32)",
			cfdCfg.Nx, cfdCfg.Ny, cfdCfg.Nz)
	}
	if _, err := cfd.NewSolver(cfdCfg); err != nil {
		t.Errorf("default CFD configuration rejected: %v", err)
	}
}

func TestBoundsPolicy(t *testing.T) {
	for name, want := range map[string]dispersim.BoundsPolicy{
		"":       dispersim.IgnoreOutOfBounds,
		"ignore": dispersim.IgnoreOutOfBounds,
		"Clamp":  dispersim.ClampOutOfBounds,
		"ERROR":  dispersim.ErrorOutOfBounds,
	} {
		got, err := boundsPolicy(name)
		if err != nil {
			t.Errorf("%q: %v", name, err)
		}
		if got != want {
			t.Errorf("%q parsed as %v; expected %v", name, got, want)
		}
	}
	if _, err := boundsPolicy("wrap"); err == nil {
		t.Error("invalid policy accepted")
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile("", ".csv"); err == nil {
		t.Error("empty output file accepted")
	}
	if _, err := checkOutputFile("results.txt", ".csv"); err == nil {
		t.Error("wrong extension accepted")
	}
	if _, err := checkOutputFile("results.csv", ".csv"); err != nil {
		t.Errorf("valid output file rejected: %v", err)
	}
	if _, err := checkOutputFile("no/such/dir/results.csv", ".csv"); err == nil {
		t.Error("missing output directory accepted")
	}
}

func TestGetStringMapString(t *testing.T) {
	Cfg.Set("testMapJSON", `{"a": "b"}`)
	m := GetStringMapString("testMapJSON", Cfg)
	if m["a"] != "b" {
		t.Errorf("JSON map parsed as %v", m)
	}
	Cfg.Set("testMapNative", map[string]interface{}{"c": "d"})
	m = GetStringMapString("testMapNative", Cfg)
	if m["c"] != "d" {
		t.Errorf("native map parsed as %v", m)
	}
}
