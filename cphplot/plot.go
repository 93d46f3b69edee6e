/*
 * plot.go, part of constph
 *
 * Copyright 2023 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 *
*/

/*Package cphplot draws the usual diagnostic figures of a constant-pH run:
titration curves (state populations against pH) and the convergence traces
of the calibrated bias free energies.*/
package cphplot

import (
	"fmt"

	"github.com/rmera/constph/pops"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// TitrationCurve plots the populations of every state of the residue built
// by model over the pH range [start,end] sampled every step units, and
// saves the figure to fname (the extension selects the format). labels
// names each state for the legend; it can be nil.
func TitrationCurve(fname string, start, end, step float64, model func(pH float64) pops.Calculator, labels []string) error {
	if start >= end || step <= 0 {
		return fmt.Errorf("cphplot.TitrationCurve: ill-formed pH range %.2f %.2f %.2f", start, end, step)
	}
	npoints := int((end-start)/step) + 1
	nstates := len(model(start).Populations())
	lines := make([]plotter.XYs, nstates)
	for i := range lines {
		lines[i] = make(plotter.XYs, 0, npoints)
	}
	for i := 0; i < npoints; i++ {
		ph := start + float64(i)*step
		for j, v := range model(ph).Populations() {
			lines[j] = append(lines[j], plotter.XY{X: ph, Y: v})
		}
	}
	p := plot.New()
	p.Title.Text = "Titration curve"
	p.X.Label.Text = "pH"
	p.Y.Label.Text = "Population"
	for j, pts := range lines {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("cphplot.TitrationCurve: %s", err.Error())
		}
		l.Color = plotutil.Color(j)
		p.Add(l)
		if labels != nil && j < len(labels) {
			p.Legend.Add(labels[j], l)
		}
	}
	err := p.Save(5*vg.Inch, 5*vg.Inch, fname)
	if err != nil {
		return fmt.Errorf("cphplot.TitrationCurve: %s", err.Error())
	}
	return nil
}

// ZetaTrace plots the adaptation history of the bias free energies of one
// titratable group: trace[t] holds the zeta of every state after the t-th
// adaptation. The figure is saved to fname.
func ZetaTrace(fname string, trace [][]float64, labels []string) error {
	if len(trace) == 0 {
		return fmt.Errorf("cphplot.ZetaTrace: empty trace")
	}
	nstates := len(trace[0])
	lines := make([]plotter.XYs, nstates)
	for i := range lines {
		lines[i] = make(plotter.XYs, 0, len(trace))
	}
	for t, zetas := range trace {
		if len(zetas) != nstates {
			return fmt.Errorf("cphplot.ZetaTrace: ragged trace at step %d", t)
		}
		for j, z := range zetas {
			lines[j] = append(lines[j], plotter.XY{X: float64(t), Y: z})
		}
	}
	p := plot.New()
	p.Title.Text = "SAMS convergence"
	p.X.Label.Text = "Adaptation"
	p.Y.Label.Text = "zeta"
	for j, pts := range lines {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("cphplot.ZetaTrace: %s", err.Error())
		}
		l.Color = plotutil.Color(j)
		p.Add(l)
		if labels != nil && j < len(labels) {
			p.Legend.Add(labels[j], l)
		}
	}
	err := p.Save(5*vg.Inch, 5*vg.Inch, fname)
	if err != nil {
		return fmt.Errorf("cphplot.ZetaTrace: %s", err.Error())
	}
	return nil
}
