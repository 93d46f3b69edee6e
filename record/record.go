/*
 * record.go, part of constph
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

/*Package record writes and reads titration records: per-group current
states, per-state bias free energies and acceptance statistics, one record
per titration cycle. Records are zstd-compressed JSON lines with a JSON
header, so long calibration runs stay small on disk. The recorder only
reads from the Drive; it never mutates it.*/
package record

import (
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// A Record is one snapshot of the titration state of a Drive.
type Record struct {
	Cycle     int         `json:"cycle"`
	States    []int       `json:"states"`
	GK        [][]float64 `json:"g_k"`
	Attempted int         `json:"attempted"`
	Accepted  int         `json:"accepted"`
}

// Source is what the recorder reads from a titration drive. The constph
// Drive implements it.
type Source interface {
	Len() int
	TitrationStates() []int
	GK(i int) []float64
	Attempted() int
	Accepted() int
}

// Snapshot builds a Record from the current state of a Source.
func Snapshot(s Source, cycle int) *Record {
	r := new(Record)
	r.Cycle = cycle
	r.States = s.TitrationStates()
	r.GK = make([][]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		r.GK[i] = s.GK(i)
	}
	r.Attempted = s.Attempted()
	r.Accepted = s.Accepted()
	return r
}

// Writer writes a stream of titration records to a zstd-compressed file.
type Writer struct {
	f         *os.File
	h         *zstd.Encoder
	enc       *json.Encoder
	filename  string
	writeable bool
}

// NewWriter opens name for writing and writes the given header (which may
// be nil) as the first entry of the stream. The optional compression level
// is a zstd level (1-22); the default favors speed.
func NewWriter(name string, header map[string]string, compressionLevel ...int) (*Writer, error) {
	level := zstd.SpeedDefault
	if len(compressionLevel) > 0 {
		level = zstd.EncoderLevelFromZstd(compressionLevel[0])
	}
	W := new(Writer)
	var err error
	W.f, err = os.Create(name)
	if err != nil {
		return nil, Error{message: "can't create the record file: " + err.Error(), filename: name}
	}
	W.h, err = zstd.NewWriter(W.f, zstd.WithEncoderLevel(level))
	if err != nil {
		W.f.Close()
		return nil, Error{message: "can't start the compressed stream: " + err.Error(), filename: name}
	}
	W.enc = json.NewEncoder(W.h)
	W.filename = name
	if header == nil {
		header = map[string]string{}
	}
	if err := W.enc.Encode(header); err != nil {
		W.Close()
		return nil, Error{message: "can't write the header: " + err.Error(), filename: name}
	}
	W.writeable = true
	return W, nil
}

// WNext appends one record to the stream.
func (W *Writer) WNext(r *Record) error {
	if !W.writeable {
		return Error{message: "record stream not open for writing", filename: W.filename}
	}
	if err := W.enc.Encode(r); err != nil {
		return Error{message: "can't write the record: " + err.Error(), filename: W.filename}
	}
	return nil
}

// Close flushes and closes the stream. The Writer can not be used after
// this call.
func (W *Writer) Close() error {
	W.writeable = false
	if err := W.h.Close(); err != nil {
		W.f.Close()
		return Error{message: "can't flush the compressed stream: " + err.Error(), filename: W.filename}
	}
	return W.f.Close()
}

// Reader reads back a stream of titration records.
type Reader struct {
	f        *os.File
	h        io.ReadCloser
	dec      *json.Decoder
	header   map[string]string
	filename string
	readable bool
}

// NewReader opens name and reads the stream header.
func NewReader(name string) (*Reader, error) {
	R := new(Reader)
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, Error{message: "can't open the record file: " + err.Error(), filename: name}
	}
	d, err := zstd.NewReader(R.f)
	if err != nil {
		R.f.Close()
		return nil, Error{message: "can't start the decompressed stream: " + err.Error(), filename: name}
	}
	R.h = d.IOReadCloser()
	R.dec = json.NewDecoder(R.h)
	R.filename = name
	R.header = map[string]string{}
	if err := R.dec.Decode(&R.header); err != nil {
		R.Close()
		return nil, Error{message: "can't read the header: " + err.Error(), filename: name}
	}
	R.readable = true
	return R, nil
}

// Header returns the header of the stream.
func (R *Reader) Header() map[string]string {
	return R.header
}

// Next reads the next record. At the end of the stream it returns a
// LastRecordError, which is a normal termination, not a failure.
func (R *Reader) Next() (*Record, error) {
	if !R.readable {
		return nil, Error{message: "record stream not open for reading", filename: R.filename}
	}
	r := new(Record)
	err := R.dec.Decode(r)
	if err == io.EOF {
		return nil, newLastRecordError(R.filename)
	}
	if err != nil {
		return nil, Error{message: "can't read the record: " + err.Error(), filename: R.filename}
	}
	return r, nil
}

// Close closes the stream. The Reader can not be used after this call.
func (R *Reader) Close() error {
	R.readable = false
	R.h.Close()
	return R.f.Close()
}
