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
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
)

func TestWriteCSV(t *testing.T) {
	data := sparse.ZerosDense(2, 2)
	data.Set(1.5, 0, 1)
	data.Set(-2.25e-6, 1, 0)

	var b bytes.Buffer
	if err := WriteCSV(&b, 7, data); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines; expected header plus 4 records", len(lines))
	}
	if lines[0] != "step,row,col,value" {
		t.Errorf("header is %q", lines[0])
	}
	if lines[2] != "7,0,1,1.500000e+00" {
		t.Errorf("record for cell (0, 1) is %q", lines[2])
	}
	if lines[3] != "7,1,0,-2.250000e-06" {
		t.Errorf("record for cell (1, 0) is %q", lines[3])
	}

	if err := WriteCSV(&b, 0, sparse.ZerosDense(2, 2, 2)); err == nil {
		t.Error("expected an error for a 3-d array")
	}
}

func TestOutputter(t *testing.T) {
	conc := sparse.ZerosDense(2, 2)
	for i := range conc.Elements {
		conc.Elements[i] = float64(i)
	}
	o, err := NewOutputter(map[string]string{
		"Pollution":    "Pollution",
		"Doubled":      "Pollution * 2",
		"LogPollution": "log(Pollution + 1)",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	wantNames := []string{"Doubled", "LogPollution", "Pollution"}
	names := o.OutputNames()
	if len(names) != len(wantNames) {
		t.Fatalf("got %d output names; expected %d", len(names), len(wantNames))
	}
	for i, n := range wantNames {
		if names[i] != n {
			t.Errorf("output name %d is %q; expected %q", i, names[i], n)
		}
	}

	out, err := o.Output(map[string]*sparse.DenseArray{"Pollution": conc})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range conc.Elements {
		if got := out["Doubled"].Elements[i]; different(got, 2*v, testTolerance) {
			t.Errorf("Doubled element %d is %g; expected %g", i, got, 2*v)
		}
		if got := out["LogPollution"].Elements[i]; different(got, math.Log(v+1), testTolerance) {
			t.Errorf("LogPollution element %d is %g; expected %g", i, got, math.Log(v+1))
		}
	}
}

func TestOutputterErrors(t *testing.T) {
	if _, err := NewOutputter(map[string]string{"bad": "Pollution +* 2"}, nil); err == nil {
		t.Error("expected an error for a malformed expression")
	}

	o, err := NewOutputter(map[string]string{"x": "A + B"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = o.Output(map[string]*sparse.DenseArray{
		"A": sparse.ZerosDense(2, 2),
		"B": sparse.ZerosDense(3, 3),
	})
	if err == nil {
		t.Error("expected an error for mismatched field shapes")
	}
	if _, err := o.Output(nil); err == nil {
		t.Error("expected an error for missing input fields")
	}
}
