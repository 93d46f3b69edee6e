/*
 * errors.go, part of constph
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

package constph

import "fmt"

// ErrKind classifies the errors produced by this package.
type ErrKind int

const (
	//ErrConfig marks invalid configuration or malformed templates. Raised
	//before any state mutation.
	ErrConfig ErrKind = iota
	//ErrLogic marks a violated internal invariant. Always a defect.
	ErrLogic
	//ErrEngine wraps a failure reported by the physics engine. The attempt
	//that triggered it has been reverted by the time the error is returned.
	ErrEngine
)

// Error is the error type of this package. As in goChem, it carries a
// decoration slice with the calling stack built up as it is passed along.
type Error struct {
	message string
	deco    []string
	kind    ErrKind
}

func (err Error) Error() string {
	return fmt.Sprintf("constph error: %s", err.message)
}

// Decorate adds the given string to the decoration slice of the error, and
// returns the current decoration. An empty string adds nothing.
func (err Error) Decorate(deco string) []string {
	//The receiver is not a pointer, but err.deco is a slice, hence a
	//pointer itself, so this works.
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Kind returns the classification of the error.
func (err Error) Kind() ErrKind { return err.kind }

// errDecorate decorates err with the caller name if err implements the
// chem-style Error interface, and returns it either way.
func errDecorate(err error, caller string) error {
	err2, ok := err.(interface {
		Error() string
		Decorate(string) []string
	})
	if !ok {
		return err
	}
	err2.Decorate(caller)
	return err2.(error)
}
