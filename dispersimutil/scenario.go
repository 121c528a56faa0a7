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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/sirupsen/logrus"

	"github.com/spatialmodel/dispersim"
	"github.com/spatialmodel/dispersim/cfd"
)

// Scenario describes the emission inputs of a simulation: the emitter
// timeline for the plume grid and the fixed sources for the
// volumetric solver.
type Scenario struct {
	// Emitters is the mobile emitter timeline. Samples with the same
	// step number form one snapshot.
	Emitters []ScenarioEmitter `toml:"emitters"`

	// Sources are fixed volumetric releases.
	Sources []ScenarioSource `toml:"sources"`

	// Stacks are elevated releases subject to plume rise.
	Stacks []ScenarioStack `toml:"stacks"`
}

// ScenarioEmitter is one mobile emitter state at one step.
type ScenarioEmitter struct {
	ID          string  `toml:"id"`
	Step        int     `toml:"step"`
	X, Y, Speed float64
}

// ScenarioSource is a fixed release with rates in kg/s per species.
// A zero temperature means ambient.
type ScenarioSource struct {
	X, Y, Z     float64
	Temperature float64            `toml:"temperature"`
	Rates       map[string]float64 `toml:"rates"`
}

// ScenarioStack is an elevated stack release.
type ScenarioStack struct {
	X, Y        float64
	Height      float64 `toml:"height"`
	Diameter    float64 `toml:"diameter"`
	Temperature float64 `toml:"temperature"`
	Velocity    float64 `toml:"velocity"`
	Rates       map[string]float64 `toml:"rates"`
}

// ReadScenario reads a scenario from a TOML file.
func ReadScenario(filename string) (*Scenario, error) {
	var s Scenario
	if _, err := toml.DecodeFile(filename, &s); err != nil {
		return nil, fmt.Errorf("dispersim: reading scenario file: %v", err)
	}
	for _, e := range s.Emitters {
		if e.Step < 0 {
			return nil, fmt.Errorf("dispersim: emitter %s has negative step %d", e.ID, e.Step)
		}
	}
	return &s, nil
}

// Snapshots groups the scenario's emitter timeline into per-step
// snapshots covering steps [0, n).
func (s *Scenario) Snapshots(n int) []dispersim.EmitterSnapshot {
	snaps := make([]dispersim.EmitterSnapshot, n)
	for _, e := range s.Emitters {
		if e.Step >= n {
			continue
		}
		snaps[e.Step] = append(snaps[e.Step], dispersim.EmitterSample{
			ID:    e.ID,
			X:     e.X,
			Y:     e.Y,
			Speed: e.Speed,
		})
	}
	return snaps
}

// EmitterSource returns a source that replays the scenario's emitter
// timeline, yielding an empty snapshot for steps past its end.
func (s *Scenario) EmitterSource() dispersim.EmitterSource {
	n := 0
	for _, e := range s.Emitters {
		if e.Step >= n {
			n = e.Step + 1
		}
	}
	return &replaySource{snaps: s.Snapshots(n)}
}

type replaySource struct {
	snaps []dispersim.EmitterSnapshot
}

func (r *replaySource) Snapshot(step int) (dispersim.EmitterSnapshot, error) {
	if step < 0 {
		return nil, fmt.Errorf("dispersim: negative step %d", step)
	}
	if step >= len(r.snaps) {
		return nil, nil
	}
	return r.snaps[step], nil
}

// rateUnits converts scenario emission rates [kg/s] to dimensioned
// quantities.
func rateUnits(rates map[string]float64) map[string]*unit.Unit {
	out := make(map[string]*unit.Unit, len(rates))
	for sp, r := range rates {
		out[sp] = unit.New(r, unit.Dimensions{unit.MassDim: 1, unit.TimeDim: -1})
	}
	return out
}

// RunPlume runs the plume grid simulation for the given number of
// steps and writes the accumulated concentrations, plus any derived
// output variables, as CSV.
func RunPlume(gridCfg dispersim.GridConfig, scenarioFile, outputFile string, steps int, outputVars map[string]string) error {
	if steps <= 0 {
		return fmt.Errorf("dispersim: number of steps %d must be positive", steps)
	}
	scenario, err := ReadScenario(scenarioFile)
	if err != nil {
		return err
	}
	grid, err := dispersim.NewPlumeGrid(gridCfg)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"resolution": gridCfg.Resolution,
		"steps":      steps,
		"emitters":   len(scenario.Emitters),
	}).Info("starting plume simulation")

	src := scenario.EmitterSource()
	for step := 0; step < steps; step++ {
		snap, err := src.Snapshot(step)
		if err != nil {
			return err
		}
		if err := grid.Update(snap); err != nil {
			return err
		}
		if (step+1)%50 == 0 {
			h := grid.History()
			logger.WithFields(logrus.Fields{
				"step": step + 1,
				"max":  h[len(h)-1].Max,
			}).Info("plume simulation progress")
		}
	}

	conc := grid.Concentrations()
	if err := writeGridFile(outputFile, grid.Step(), conc); err != nil {
		return err
	}

	if len(outputVars) > 0 {
		o, err := dispersim.NewOutputter(outputVars, nil)
		if err != nil {
			return err
		}
		derived, err := o.Output(map[string]*sparse.DenseArray{"Pollution": conc})
		if err != nil {
			return err
		}
		for _, name := range o.OutputNames() {
			f := derivedFile(outputFile, name)
			if err := writeGridFile(f, grid.Step(), derived[name]); err != nil {
				return err
			}
		}
	}
	logger.Info("plume simulation finished")
	return nil
}

// RunCFD runs the volumetric simulation for the given number of steps
// and writes the selected field in VTK format.
func RunCFD(cfdCfg cfd.Config, scenarioFile, outputFile, windProfile, outputField string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("dispersim: number of steps %d must be positive", steps)
	}
	scenario, err := ReadScenario(scenarioFile)
	if err != nil {
		return err
	}
	solver, err := cfd.NewSolver(cfdCfg)
	if err != nil {
		return err
	}
	if err := solver.SetBoundaryConditions(windProfile); err != nil {
		return err
	}

	for _, src := range scenario.Sources {
		if _, err := solver.AddSource(src.X, src.Y, src.Z, rateUnits(src.Rates), src.Temperature); err != nil {
			return err
		}
	}
	for _, stack := range scenario.Stacks {
		_, height, err := solver.AddStackSource(stack.X, stack.Y, stack.Height,
			stack.Diameter, stack.Temperature, stack.Velocity, rateUnits(stack.Rates))
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"stack":  stack.Height,
			"plume":  height,
		}).Info("added stack source")
	}

	logger.WithFields(logrus.Fields{
		"grid":    fmt.Sprintf("%dx%dx%d", cfdCfg.Nx, cfdCfg.Ny, cfdCfg.Nz),
		"steps":   steps,
		"sources": solver.NumSources(),
	}).Info("starting volumetric simulation")

	for step := 0; step < steps; step++ {
		solver.TimeStep()
		if (step+1)%50 == 0 {
			logger.WithFields(logrus.Fields{
				"step": step + 1,
				"time": solver.Time(),
			}).Info("volumetric simulation progress")
		}
	}

	logger.WithFields(logrus.Fields{
		"reynolds":   solver.ReynoldsNumber(),
		"richardson": solver.RichardsonNumber(),
	}).Info("flow diagnostics")

	w, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("dispersim: creating output file: %v", err)
	}
	if err := solver.WriteVTK(w, outputField); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("dispersim: closing output file: %v", err)
	}
	logger.Info("volumetric simulation finished")
	return nil
}

// writeGridFile writes a concentration grid to a CSV file.
func writeGridFile(filename string, step int, data *sparse.DenseArray) error {
	w, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("dispersim: creating output file: %v", err)
	}
	if err := dispersim.WriteCSV(w, step, data); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("dispersim: closing output file: %v", err)
	}
	return nil
}

// derivedFile inserts a variable name before the output file
// extension, so results.csv becomes results_logPollution.csv.
func derivedFile(outputFile, name string) string {
	ext := filepath.Ext(outputFile)
	return strings.TrimSuffix(outputFile, ext) + "_" + name + ext
}
