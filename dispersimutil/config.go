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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cast"

	"github.com/spatialmodel/dispersim"
	"github.com/spatialmodel/dispersim/cfd"
)

// GridConfig builds a plume grid configuration from the global
// configuration.
func GridConfig(cfg *viper.Viper) (dispersim.GridConfig, error) {
	policy, err := boundsPolicy(cfg.GetString("Plume.OutOfBounds"))
	if err != nil {
		return dispersim.GridConfig{}, err
	}
	decay := cast.ToFloat64(cfg.Get("Plume.DecayFactor"))
	return dispersim.GridConfig{
		Resolution:     cfg.GetInt("Plume.Resolution"),
		XMin:           cast.ToFloat64(cfg.Get("Plume.XMin")),
		XMax:           cast.ToFloat64(cfg.Get("Plume.XMax")),
		YMin:           cast.ToFloat64(cfg.Get("Plume.YMin")),
		YMax:           cast.ToFloat64(cfg.Get("Plume.YMax")),
		WindSpeed:      cast.ToFloat64(cfg.Get("Plume.WindSpeed")),
		WindDirection:  cast.ToFloat64(cfg.Get("Plume.WindDirection")),
		Stability:      dispersim.StabilityClass(strings.ToUpper(cfg.GetString("Plume.Stability"))),
		EmissionFactor: cast.ToFloat64(cfg.Get("Plume.EmissionFactor")),
		DecayFactor:    &decay,
		OutOfBounds:    policy,
	}, nil
}

// CFDConfig builds a volumetric solver configuration from the global
// configuration.
func CFDConfig(cfg *viper.Viper) (cfd.Config, error) {
	policy, err := boundsPolicy(cfg.GetString("CFD.OutOfBounds"))
	if err != nil {
		return cfd.Config{}, err
	}
	return cfd.Config{
		Nx:          cfg.GetInt("CFD.Nx"),
		Ny:          cfg.GetInt("CFD.Ny"),
		Nz:          cfg.GetInt("CFD.Nz"),
		Lx:          cast.ToFloat64(cfg.Get("CFD.Lx")),
		Ly:          cast.ToFloat64(cfg.Get("CFD.Ly")),
		Lz:          cast.ToFloat64(cfg.Get("CFD.Lz")),
		Dt:          cast.ToFloat64(cfg.Get("CFD.Dt")),
		Species:     cfg.GetStringSlice("CFD.Species"),
		WindSpeed:   cast.ToFloat64(cfg.Get("CFD.WindSpeed")),
		Stability:   dispersim.StabilityClass(strings.ToUpper(cfg.GetString("CFD.Stability"))),
		OutOfBounds: policy,
	}, nil
}

// boundsPolicy parses an out-of-bounds policy name.
func boundsPolicy(name string) (dispersim.BoundsPolicy, error) {
	switch strings.ToLower(name) {
	case "", "ignore":
		return dispersim.IgnoreOutOfBounds, nil
	case "clamp":
		return dispersim.ClampOutOfBounds, nil
	case "error":
		return dispersim.ErrorOutOfBounds, nil
	}
	return 0, fmt.Errorf("dispersim: invalid out-of-bounds policy %q; "+
		"the options are \"ignore\", \"clamp\", and \"error\"", name)
}

// checkOutputFile makes sure that the output file has the correct
// extension and that its directory exists.
func checkOutputFile(name, ext string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("dispersim: you need to specify an output file")
	}
	if filepath.Ext(name) != ext {
		return "", fmt.Errorf("dispersim: output file %s does not have the extension %s", name, ext)
	}
	if dir := filepath.Dir(name); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return "", fmt.Errorf("dispersim: output directory: %v", err)
		}
	}
	return name, nil
}

// GetStringMapString returns a map[string]string from a viper
// configuration, accounting for the fact that it might be a json
// object if it was set from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) map[string]string {
	i := cfg.Get(varName)
	switch i.(type) {
	case map[string]string:
		return i.(map[string]string)
	case map[string]interface{}:
		return cast.ToStringMapString(i)
	case string:
		b := bytes.NewBuffer(([]byte)(i.(string)))
		d := json.NewDecoder(b)
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			panic(err)
		}
		return o
	case nil:
		return nil
	default:
		panic(fmt.Errorf("invalid type for GetStringMapString variable %s: %#v", varName, i))
	}
}
