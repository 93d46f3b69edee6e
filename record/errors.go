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

package record

import "fmt"

// Error is the error type of this package, in the goChem style.
type Error struct {
	message  string
	filename string
	deco     []string
}

func (err Error) Error() string {
	return fmt.Sprintf("record file %s error: %s", err.filename, err.message)
}

// Decorate adds the given string to the decoration slice of the error, and
// returns the current decoration. An empty string adds nothing.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// FileName returns the file the error refers to.
func (err Error) FileName() string { return err.filename }

// LastRecordError signals the normal end of a record stream. It can be
// filtered in a type switch that looks for this interface.
type LastRecordError interface {
	error
	FileName() string
	NormalLastRecordTermination() //does nothing, just distinguishes the type
}

type lastRecordError struct {
	deco     []string
	fileName string
}

//lastRecordError does nothing
func (E lastRecordError) NormalLastRecordTermination() {}

func (E lastRecordError) FileName() string { return E.fileName }

func (E lastRecordError) Error() string { return "EOF" }

func (E lastRecordError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newLastRecordError(filename string) *lastRecordError {
	e := new(lastRecordError)
	e.fileName = filename
	return e
}
