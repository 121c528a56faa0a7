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

import "math"

// EmitterSample is the instantaneous state of one mobile pollution
// source, such as a vehicle, at a given simulation step.
type EmitterSample struct {
	// ID identifies the emitter across snapshots.
	ID string

	// X and Y are the emitter position in domain coordinates [m].
	X, Y float64

	// Speed is the emitter travel speed [km/h]. Faster emitters
	// release pollutant at a higher rate and at a greater effective
	// height.
	Speed float64
}

// EmitterSnapshot is the set of emitter states at one simulation step.
type EmitterSnapshot []EmitterSample

// EmitterSource supplies emitter snapshots to drive a plume grid, one
// snapshot per simulation step. Implementations may replay recorded
// trajectories or couple to a live traffic simulation.
type EmitterSource interface {
	// Snapshot returns the emitter states for the given step. A nil
	// or empty snapshot is valid and means no emitters are active.
	Snapshot(step int) (EmitterSnapshot, error)
}

// emissionRate returns the pollutant release rate for an emitter
// moving at the given speed [km/h], before scenario scaling. The rate
// increases 5% per km/h above the speed threshold.
func emissionRate(speed, baseEmission float64) float64 {
	speedFactor := 1.0
	if speed > speedThreshold {
		speedFactor = 1 + 0.05*(speed-speedThreshold)
	}
	return baseEmission * speedFactor
}

// effectivePlumeHeight returns the effective release height [m] for an
// emitter moving at the given speed [km/h]. Turbulent wake mixing
// lifts the plume of faster emitters.
func effectivePlumeHeight(speed float64) float64 {
	return math.Max(minPlumeHeight, 0.5+0.15*speed)
}
