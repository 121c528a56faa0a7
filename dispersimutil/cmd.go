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

// Package dispersimutil wires the dispersion model to its command-line
// interface and configuration files.
package dispersimutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is the version of this software.
const Version = "0.1.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

var logger *logrus.Logger

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	logger = logrus.StandardLogger()
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// options are the configuration options available to Dispersim.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ScenarioFile",
			usage: `
              ScenarioFile is the path to a TOML file holding the emitter
              timeline and the fixed pollution sources to simulate.`,
			shorthand:  "s",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the file to write results to.`,
			shorthand:  "o",
			defaultVal: "dispersim_output.csv",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies additional output fields derived from
              the concentration grid by arithmetic expressions, for example
              {"logPollution": "log(Pollution + 1)"}.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Steps",
			usage: `
              Steps is the number of simulation steps to run.`,
			shorthand:  "n",
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Plume.Resolution",
			usage: `
              Plume.Resolution is the number of grid cells along each axis of
              the plume accumulation grid.`,
			defaultVal: 50,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.XMin",
			usage: `
              Plume.XMin is the western edge of the plume grid domain [m].`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.XMax",
			usage: `
              Plume.XMax is the eastern edge of the plume grid domain [m].`,
			defaultVal: 1000.,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.YMin",
			usage: `
              Plume.YMin is the southern edge of the plume grid domain [m].`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.YMax",
			usage: `
              Plume.YMax is the northern edge of the plume grid domain [m].`,
			defaultVal: 1000.,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.WindSpeed",
			usage: `
              Plume.WindSpeed is the transport wind speed [m/s].`,
			defaultVal: 2.,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.WindDirection",
			usage: `
              Plume.WindDirection is the direction the wind blows toward
              [degrees counterclockwise from east].`,
			defaultVal: 0.,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.Stability",
			usage: `
              Plume.Stability is the Pasquill-Gifford stability class, "A"
              through "F".`,
			defaultVal: "D",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.EmissionFactor",
			usage: `
              Plume.EmissionFactor scales all emitter release rates.`,
			defaultVal: 1.,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.DecayFactor",
			usage: `
              Plume.DecayFactor is the fraction of accumulated concentration
              retained each step.`,
			defaultVal: 0.99,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Plume.OutOfBounds",
			usage: `
              Plume.OutOfBounds selects how emitters outside the domain are
              handled: "ignore", "clamp", or "error".`,
			defaultVal: "ignore",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "CFD.Nx",
			usage: `
              CFD.Nx is the number of volumetric grid nodes along the x axis.`,
			defaultVal: 64,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Ny",
			usage: `
              CFD.Ny is the number of volumetric grid nodes along the y axis.`,
			defaultVal: 64,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Nz",
			usage: `
              CFD.Nz is the number of volumetric grid nodes along the z axis.`,
			defaultVal: 32,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Lx",
			usage: `
              CFD.Lx is the domain length along the x axis [m].`,
			defaultVal: 1000.,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Ly",
			usage: `
              CFD.Ly is the domain length along the y axis [m].`,
			defaultVal: 1000.,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Lz",
			usage: `
              CFD.Lz is the domain height [m].`,
			defaultVal: 300.,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Dt",
			usage: `
              CFD.Dt is the solver time step [s].`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Species",
			usage: `
              CFD.Species is the list of pollutant species to transport.`,
			defaultVal: []string{"NOx", "CO", "PM2.5"},
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.WindSpeed",
			usage: `
              CFD.WindSpeed is the reference inflow wind speed [m/s].`,
			defaultVal: 5.,
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.Stability",
			usage: `
              CFD.Stability is the Pasquill-Gifford stability class used to
              set the inflow turbulence intensity.`,
			defaultVal: "D",
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.WindProfile",
			usage: `
              CFD.WindProfile selects the inflow wind profile: "logarithmic"
              or "powerlaw".`,
			defaultVal: "logarithmic",
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.OutputField",
			usage: `
              CFD.OutputField is the field written to the VTK output file,
              one of the velocity components, "p", "k", "epsilon", "T", or a
              species name.`,
			defaultVal: "NOx",
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
		{
			name: "CFD.OutOfBounds",
			usage: `
              CFD.OutOfBounds selects how sources outside the domain are
              handled: "ignore", "clamp", or "error".`,
			defaultVal: "ignore",
			flagsets:   []*pflag.FlagSet{cfdCmd.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DISPERSIM")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(cfdCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("dispersim: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "dispersim",
	Short: "A traffic pollution dispersion model.",
	Long: `Dispersim models the dispersion of traffic-related air pollution.
Use the subcommands specified below to access the model functionality.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setConfig()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Dispersim.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Dispersim v%s\n", Version)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the plume grid simulation.",
	Long: `run accumulates Gaussian plume concentrations from the emitter
timeline in the scenario file onto a 2-d grid and writes the result as CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gridCfg, err := GridConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"), ".csv")
		if err != nil {
			return err
		}
		outputVars := GetStringMapString("OutputVariables", Cfg)
		return RunPlume(gridCfg, Cfg.GetString("ScenarioFile"), outputFile,
			Cfg.GetInt("Steps"), outputVars)
	},
	DisableAutoGenTag: true,
}

var cfdCmd = &cobra.Command{
	Use:   "cfd",
	Short: "Run the volumetric transport simulation.",
	Long: `cfd runs the 3-d advection-diffusion solver with the fixed
pollution sources in the scenario file and writes the selected field in VTK
format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfdCfg, err := CFDConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"), ".vtk")
		if err != nil {
			return err
		}
		return RunCFD(cfdCfg, Cfg.GetString("ScenarioFile"), outputFile,
			Cfg.GetString("CFD.WindProfile"), Cfg.GetString("CFD.OutputField"),
			Cfg.GetInt("Steps"))
	},
	DisableAutoGenTag: true,
}
