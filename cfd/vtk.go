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
	"bufio"
	"fmt"
	"io"
)

// WriteVTK writes the named field to w in legacy VTK structured-points
// format for visualization in ParaView or similar tools. Values are
// written with x varying fastest and z slowest, as the format
// requires.
func (s *Solver) WriteVTK(w io.Writer, field string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := s.fieldLocked(field)
	if err != nil {
		return err
	}

	b := bufio.NewWriter(w)
	fmt.Fprintln(b, "# vtk DataFile Version 3.0")
	fmt.Fprintf(b, "dispersim field %s at t=%g s\n", field, s.time)
	fmt.Fprintln(b, "ASCII")
	fmt.Fprintln(b, "DATASET STRUCTURED_POINTS")
	fmt.Fprintf(b, "DIMENSIONS %d %d %d\n", s.cfg.Nx, s.cfg.Ny, s.cfg.Nz)
	fmt.Fprintln(b, "ORIGIN 0 0 0")
	fmt.Fprintf(b, "SPACING %g %g %g\n", s.dx, s.dy, s.dz)
	fmt.Fprintf(b, "POINT_DATA %d\n", len(f.Elements))
	fmt.Fprintf(b, "SCALARS %s float 1\n", vtkName(field))
	fmt.Fprintln(b, "LOOKUP_TABLE default")

	// The field is stored with x varying fastest, so the elements are
	// already in VTK order.
	for _, v := range f.Elements {
		if _, err := fmt.Fprintf(b, "%e\n", v); err != nil {
			return fmt.Errorf("cfd: writing VTK data: %v", err)
		}
	}
	return b.Flush()
}

// vtkName sanitizes a field name for use as a VTK data array name,
// which may not contain spaces or periods.
func vtkName(field string) string {
	out := make([]byte, len(field))
	for i := 0; i < len(field); i++ {
		switch c := field[i]; c {
		case ' ', '.', ',':
			out[i] = '_'
		default:
			out[i] = c
		}
	}
	return string(out)
}
