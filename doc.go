/*
 * doc.go, part of constph
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

/*Package constph implements constant-pH molecular dynamics via Monte Carlo
titration on top of an external molecular-dynamics engine. The engine itself
(force evaluation, integration) is not implemented here; it is consumed
through the Engine interface, the same way goChem consumes trajectories
through its Traj interface.

The central type is the Drive, which owns a registry of titratable groups,
each with a set of discrete titration states (protonation/tautomer forms).
On every call to Update, the Drive asks a proposal strategy (package
proposal) for a candidate change of states, coordinates compensating
water/ion swaps (package saltswap) when the net charge changes, runs an
instantaneous or nonequilibrium (NCMC) switching protocol through the
engine, and accepts or rejects the move with a Metropolis criterion. The
per-state bias free energies g_k used in that criterion are calibrated
online by package sams. Package pops provides closed-form reference
populations for the common titratable amino acids.
*/
package constph
