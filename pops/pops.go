/*
 * pops.go, part of constph
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

/*Package pops gives closed-form equilibrium populations of the titration
states of the common titratable amino acids at a given pH, from
Henderson-Hasselbalch-type ratios with the AMBER constant-pH pKa values.
The populations come in the order of the corresponding AMBER cpH residue
states, so they can be used directly as target weights for calibration.
These are pure functions of the pH; nothing here mutates anything.*/
package pops

import "math"

// Calculator returns the population of each state of a residue, in AMBER
// cpH state order. Populations sum to 1.
type Calculator interface {
	Populations() []float64
}

//The pKa values of the AMBER constant-pH residues.
const (
	HistidinePKaD = 6.5
	HistidinePKaE = 7.1
	Aspartic4PKa  = 4.0
	Glutamic4PKa  = 4.4
	LysinePKa     = 10.4
	TyrosinePKa   = 9.6
	CysteinePKa   = 8.5
)

// Histidine holds the state populations of the AMBER cpH HIP residue,
// which titrates on both the delta and the epsilon nitrogen.
type Histidine struct {
	kd, ke float64
}

// NewHistidine returns the Histidine populations at the given pH.
func NewHistidine(pH float64) *Histidine {
	return &Histidine{
		kd: math.Pow(10.0, pH-HistidinePKaD),
		ke: math.Pow(10.0, pH-HistidinePKaE),
	}
}

// HipConcentration returns the population of the doubly protonated form.
func (H *Histidine) HipConcentration() float64 {
	return 1.0 / (H.ke + H.kd + 1.0)
}

// HieConcentration returns the population of the epsilon-protonated form.
func (H *Histidine) HieConcentration() float64 {
	return H.ke / (H.ke + H.kd + 1.0)
}

// HidConcentration returns the population of the delta-protonated form.
func (H *Histidine) HidConcentration() float64 {
	return H.kd / (H.ke + H.kd + 1.0)
}

// Populations returns the state populations in AMBER cpH order:
// HIP, HID, HIE.
func (H *Histidine) Populations() []float64 {
	return []float64{H.HipConcentration(), H.HidConcentration(), H.HieConcentration()}
}

//twoState is the single-site protonation equilibrium every other residue
//here reduces to.
type twoState struct {
	k float64
}

// ProtonatedConcentration returns the total population of the protonated
// form.
func (t *twoState) ProtonatedConcentration() float64 {
	return 1.0 / (t.k + 1.0)
}

// DeprotonatedConcentration returns the population of the deprotonated
// form.
func (t *twoState) DeprotonatedConcentration() float64 {
	return t.k / (t.k + 1.0)
}

// Aspartic4 holds the state populations of the AMBER cpH AS4 residue: one
// deprotonated state and four protonated rotamers that share the
// protonated population equally.
type Aspartic4 struct {
	twoState
}

// NewAspartic4 returns the Aspartic4 populations at the given pH.
func NewAspartic4(pH float64) *Aspartic4 {
	return &Aspartic4{twoState{k: math.Pow(10.0, pH-Aspartic4PKa)}}
}

// Populations returns the state populations in AMBER cpH order: the
// deprotonated state followed by the four protonated rotamers.
func (A *Aspartic4) Populations() []float64 {
	acid := A.ProtonatedConcentration() / 4.0
	return []float64{A.DeprotonatedConcentration(), acid, acid, acid, acid}
}

// Glutamic4 holds the state populations of the AMBER cpH GL4 residue,
// which has the same state layout as AS4.
type Glutamic4 struct {
	Aspartic4
}

// NewGlutamic4 returns the Glutamic4 populations at the given pH.
func NewGlutamic4(pH float64) *Glutamic4 {
	return &Glutamic4{Aspartic4{twoState{k: math.Pow(10.0, pH-Glutamic4PKa)}}}
}

// Lysine holds the state populations of the AMBER cpH LYS residue.
type Lysine struct {
	twoState
}

// NewLysine returns the Lysine populations at the given pH.
func NewLysine(pH float64) *Lysine {
	return &Lysine{twoState{k: math.Pow(10.0, pH-LysinePKa)}}
}

// Populations returns the state populations in AMBER cpH order:
// protonated, deprotonated.
func (L *Lysine) Populations() []float64 {
	return []float64{L.ProtonatedConcentration(), L.DeprotonatedConcentration()}
}

// Tyrosine holds the state populations of the AMBER cpH TYR residue.
type Tyrosine struct {
	Lysine
}

// NewTyrosine returns the Tyrosine populations at the given pH.
func NewTyrosine(pH float64) *Tyrosine {
	return &Tyrosine{Lysine{twoState{k: math.Pow(10.0, pH-TyrosinePKa)}}}
}

// Cysteine holds the state populations of the AMBER cpH CYS residue.
type Cysteine struct {
	Lysine
}

// NewCysteine returns the Cysteine populations at the given pH.
func NewCysteine(pH float64) *Cysteine {
	return &Cysteine{Lysine{twoState{k: math.Pow(10.0, pH-CysteinePKa)}}}
}
