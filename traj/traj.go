/*
 * traj.go, part of gocrystal.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 */

//Package traj implements a simple compressed trajectory format for
//relaxation runs: zstd-compressed text, one fixed-point coordinate
//line per atom and a '*' line terminating each frame, optionally
//carrying the cell vectors. A short key=value header precedes the
//frames.
package traj

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	crystal "github.com/gocrystal/gocrystal"
	v3 "github.com/gocrystal/gocrystal/v3"
	"github.com/klauspost/compress/zstd"
)

//Writer writes a compressed trajectory, one frame at a time.
type Writer struct {
	f         *os.File
	h         *zstd.Encoder
	natoms    int
	filename  string
	writeable bool
	prec      int
}

//NewWriter opens name for writing a trajectory of natoms atoms per
//frame. The keys and values in header, if any, are stored before the
//frames. prec, if given, sets the number of decimals kept per
//coordinate (default 3).
func NewWriter(name string, natoms int, header map[string]string, prec ...int) (*Writer, error) {
	if natoms <= 0 {
		return nil, Error{message: "at least one atom per frame needed", filename: name, critical: true}
	}
	W := new(Writer)
	var err error
	W.f, err = os.Create(name)
	if err != nil {
		return nil, err
	}
	W.h, err = zstd.NewWriter(W.f, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		W.f.Close()
		return nil, Error{message: "can't set up compression: " + err.Error(), filename: name, critical: true}
	}
	W.natoms = natoms
	W.filename = name
	W.writeable = true
	W.prec = 3
	if len(prec) > 0 && prec[0] > 0 {
		W.prec = prec[0]
	}
	for k, v := range header {
		fmt.Fprintf(W.h, "%s=%s\n", k, v)
	}
	fmt.Fprintf(W.h, "prec=%d\n", W.prec)
	fmt.Fprintf(W.h, "** %d\n", W.natoms)
	return W, nil
}

//WNext writes the next frame. If a cell is given, its vectors are
//stored with the frame.
func (W *Writer) WNext(coord *v3.Matrix, cell ...*crystal.Cell) error {
	if !W.writeable {
		return Error{message: TrajUnIniWrite, filename: W.filename, deco: []string{"WNext"}, critical: true}
	}
	if coord == nil {
		return Error{message: NilCoordinates, filename: W.filename, deco: []string{"WNext"}, critical: true}
	}
	v := coord.NVecs()
	if v != W.natoms {
		return Error{message: fmt.Sprintf("%d coordinates given, but %d expected", v, W.natoms), filename: W.filename, deco: []string{"WNext"}, critical: true}
	}
	p := math.Pow(10, float64(W.prec))
	for i := 0; i < v; i++ {
		fmt.Fprintf(W.h, "%d %d %d\n",
			int(math.RoundToEven(coord.At(i, 0)*p)),
			int(math.RoundToEven(coord.At(i, 1)*p)),
			int(math.RoundToEven(coord.At(i, 2)*p)))
	}
	if len(cell) > 0 && cell[0] != nil {
		vecs := cell[0].Vectors()
		W.h.Write([]byte("*"))
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				fmt.Fprintf(W.h, " %.4f", vecs.At(i, j))
			}
		}
		W.h.Write([]byte("\n"))
	} else {
		W.h.Write([]byte("*\n"))
	}
	return nil
}

//Len returns the number of atoms per frame.
func (W *Writer) Len() int {
	return W.natoms
}

//Close flushes and closes the trajectory. The Writer is unusable
//afterwards.
func (W *Writer) Close() {
	if W == nil || !W.writeable {
		return
	}
	W.h.Close()
	W.f.Close()
	W.writeable = false
}

//Reader reads a trajectory written by Writer.
type Reader struct {
	f        *os.File
	z        *zstd.Decoder
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	readable bool
}

//New opens a trajectory for reading. It returns the handle, a map
//with the stored header (nil if there was none) and error or nil.
func New(name string) (*Reader, map[string]string, error) {
	R := new(Reader)
	R.natoms = -1
	R.filename = name
	var err error
	R.f, err = os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	R.z, err = zstd.NewReader(bufio.NewReader(R.f))
	if err != nil {
		R.f.Close()
		return nil, nil, Error{message: "can't set up decompression: " + err.Error(), filename: name, critical: true}
	}
	R.h = bufio.NewReader(R.z)
	var m map[string]string
	for {
		str, err := R.h.ReadString('\n')
		if err != nil {
			return nil, nil, Error{message: "can't read header: " + err.Error(), filename: name, deco: []string{"New"}, critical: true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				return nil, nil, Error{message: fmt.Sprintf("can't read atom number from '%s'", str), filename: name, deco: []string{"New"}, critical: true}
			}
			R.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				return nil, nil, Error{message: "can't read atom number: " + err.Error(), filename: name, deco: []string{"New"}, critical: true}
			}
			break
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			return nil, nil, Error{message: "malformed header line: " + str, filename: name, deco: []string{"New"}, critical: true}
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[kv[0]] = kv[1]
	}
	R.prec = 3
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			R.prec = prec
		}
	}
	R.readable = true
	return R, m, nil
}

//Readable returns true if it is possible to call Next on the handle.
func (R *Reader) Readable() bool {
	return R.readable
}

//Len returns the number of atoms in each frame.
func (R *Reader) Len() int {
	return R.natoms
}

//Next puts the coordinates of the next frame in c and, if a non-nil
//slice of at least 9 elements is given, the cell vectors stored with
//the frame in cell. Passing nil for c skips the frame. At the end of
//the trajectory Next closes the handle and returns an error for which
//End returns true.
func (R *Reader) Next(c *v3.Matrix, cell ...[]float64) error {
	if !R.readable {
		return Error{message: TrajUnIniRead, filename: R.filename, deco: []string{"Next"}, critical: true}
	}
	if c != nil && c.NVecs() != R.natoms {
		return Error{message: NotEnoughSpace, filename: R.filename, deco: []string{"Next"}, critical: true}
	}
	p := math.Pow(10, float64(R.prec))
	for i := 0; i < R.natoms; i++ {
		b, err := R.h.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && i == 0 {
				R.Close()
				return newlastFrameError(R.filename, "Next")
			}
			return Error{message: err.Error(), filename: R.filename, deco: []string{"Next"}, critical: true}
		}
		fields := strings.Fields(string(b))
		if len(fields) != 3 {
			return Error{message: WrongFormat + ": " + string(b), filename: R.filename, deco: []string{"Next"}, critical: true}
		}
		for j, v := range fields {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Error{message: "can't parse coordinate: " + err.Error(), filename: R.filename, deco: []string{"Next"}, critical: true}
			}
			if c != nil {
				c.Set(i, j, float64(n)/p)
			}
		}
	}
	s, err := R.h.ReadString('\n')
	if err != nil {
		return Error{message: "can't read the frame termination mark: " + err.Error(), filename: R.filename, deco: []string{"Next"}, critical: true}
	}
	if s[0] != '*' {
		return Error{message: WrongFormat + ": bad frame termination", filename: R.filename, deco: []string{"Next"}, critical: true}
	}
	if len(cell) > 0 && len(cell[0]) >= 9 {
		fields := strings.Fields(strings.TrimSpace(s))
		if len(fields) >= 10 {
			for j, v := range fields[1:10] {
				cell[0][j], err = strconv.ParseFloat(v, 64)
				if err != nil {
					return Error{message: "can't parse cell vectors: " + err.Error(), filename: R.filename, deco: []string{"Next"}, critical: true}
				}
			}
		} else {
			for j := range cell[0][:9] {
				cell[0][j] = 0
			}
		}
	}
	return nil
}

//Close closes the handle and marks it unreadable.
func (R *Reader) Close() {
	if !R.readable {
		return
	}
	R.z.Close()
	R.f.Close()
	R.readable = false
}

//FromXYZ converts a multi-frame XYZ file, as the relaxation engines
//write, into a compressed trajectory at outname. If cell is not nil
//its vectors are stored with every frame. It returns the number of
//frames converted.
func FromXYZ(xyzname, outname string, cell *crystal.Cell) (int, error) {
	f, err := os.Open(xyzname)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var W *Writer
	var coords *v3.Matrix
	frames := 0
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF && strings.TrimSpace(line) == "" {
			break
		}
		if err != nil {
			return frames, Error{message: "truncated XYZ frame: " + err.Error(), filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
		}
		natoms, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return frames, Error{message: "can't read atom count: " + err.Error(), filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
		}
		if _, err := r.ReadString('\n'); err != nil { //comment line
			return frames, Error{message: "truncated XYZ frame", filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
		}
		if W == nil {
			W, err = NewWriter(outname, natoms, nil)
			if err != nil {
				return 0, errDecorate(err, "FromXYZ")
			}
			defer W.Close()
			coords = v3.Zeros(natoms)
		} else if natoms != W.Len() {
			return frames, Error{message: fmt.Sprintf("frame %d has %d atoms, expected %d", frames, natoms, W.Len()), filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
		}
		for i := 0; i < natoms; i++ {
			line, err := r.ReadString('\n')
			if err != nil && strings.TrimSpace(line) == "" {
				return frames, Error{message: fmt.Sprintf("frame %d truncated at atom %d", frames, i), filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
			}
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return frames, Error{message: "ill-formed XYZ line: " + line, filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
			}
			for j := 0; j < 3; j++ {
				v, err := strconv.ParseFloat(fields[j+1], 64)
				if err != nil {
					return frames, Error{message: "can't parse coordinate: " + err.Error(), filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
				}
				coords.Set(i, j, v)
			}
		}
		if err := W.WNext(coords, cell); err != nil {
			return frames, errDecorate(err, "FromXYZ")
		}
		frames++
	}
	if frames == 0 {
		return 0, Error{message: "no frames found", filename: xyzname, deco: []string{"FromXYZ"}, critical: true}
	}
	return frames, nil
}

//errDecorate asserts that err implements crystal.Error, decorates it
//with the caller's name and returns it.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	err2, ok := err.(crystal.Error)
	if !ok {
		return Error{message: err.Error(), deco: []string{caller}, critical: true}
	}
	err2.Decorate(caller)
	return err2
}

//Errors

//Error is the concrete error of this package. It implements
//crystal.Error plus FileName.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("traj file %s error: %s", err.filename, err.message)
}

//Decorate adds new information to the error.
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

//FileName returns the file associated to the error.
func (err Error) FileName() string { return err.filename }

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Trajectory uninitialized for reading"
	TrajUnIniWrite = "Trajectory uninitialized for writing"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in trajectory frame"
	NotEnoughSpace = "Not enough space in passed matrix"
)

//lastFrameError marks the normal end of a trajectory.
type lastFrameError struct {
	deco     []string
	fileName string
}

func (E lastFrameError) NormalLastFrameTermination() {}

func (E lastFrameError) FileName() string { return E.fileName }

func (E lastFrameError) Error() string { return "EOF" }

func (E lastFrameError) Critical() bool { return false }

func (E lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	e := new(lastFrameError)
	e.fileName = filename
	e.deco = []string{caller}
	return e
}

//End returns true if err marks the normal end of a trajectory rather
//than an actual problem.
func End(err error) bool {
	_, ok := err.(interface{ NormalLastFrameTermination() })
	return ok
}
