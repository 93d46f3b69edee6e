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

package proposal

import "fmt"

// ErrKind classifies the errors produced by this package.
type ErrKind int

const (
	//ErrConfig marks an invalid strategy configuration (for instance a
	//categorical distribution that doesn't sum to one).
	ErrConfig ErrKind = iota
	//ErrInsufficientPool marks a request to draw more groups than are
	//eligible. The caller may retry with another strategy.
	ErrInsufficientPool
)

// Error is the error type of this package, in the goChem style.
type Error struct {
	message string
	deco    []string
	kind    ErrKind
}

func (err Error) Error() string {
	return fmt.Sprintf("proposal error: %s", err.message)
}

// Decorate adds the given string to the decoration slice of the error, and
// returns the current decoration. An empty string adds nothing.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Kind returns the classification of the error.
func (err Error) Kind() ErrKind { return err.kind }

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
