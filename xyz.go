/*
 * xyz.go, part of gocrystal.
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

package crystal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	v3 "github.com/gocrystal/gocrystal/v3"
)

//XYZ files carry no cell, so they are only used for geometry round
//trips with the external engines; the cell is kept on the Go side.

//XYZRead reads an XYZ-formatted structure from r. It returns the atoms
//and Cartesian coordinates read.
func XYZRead(r io.Reader) ([]*Atom, *v3.Matrix, error) {
	bufr := bufio.NewReader(r)
	line, err := bufr.ReadString('\n')
	if err != nil {
		return nil, nil, CError{msg: "Ill-formatted XYZ input: " + err.Error(), critical: true}
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, nil, CError{msg: "Ill-formatted XYZ input: can't read the number of atoms: " + err.Error(), critical: true}
	}
	if _, err := bufr.ReadString('\n'); err != nil { //comment line
		return nil, nil, CError{msg: "Ill-formatted XYZ input: truncated after the atom count", critical: true}
	}
	atoms := make([]*Atom, natoms)
	coords := make([]float64, natoms*3)
	for i := 0; i < natoms; i++ {
		line, err = bufr.ReadString('\n')
		if err != nil && line == "" {
			return nil, nil, CError{msg: fmt.Sprintf("XYZ input truncated at atom %d", i), critical: true}
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, nil, CError{msg: fmt.Sprintf("Line for atom %d in XYZ input is ill-formed: %s", i, line), critical: true}
		}
		atoms[i] = new(Atom)
		atoms[i].Symbol = fields[0]
		atoms[i].ID = i + 1
		atoms[i].Mass = symbolMass[fields[0]]
		atoms[i].Occupancy = 1.0
		for j := 0; j < 3; j++ {
			coords[i*3+j], err = strconv.ParseFloat(fields[j+1], 64)
			if err != nil {
				return nil, nil, CError{msg: fmt.Sprintf("Can't parse coordinate %d of atom %d: %s", j, i, err.Error()), critical: true}
			}
		}
	}
	mcoords, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, nil, errDecorate(err, "XYZRead")
	}
	return atoms, mcoords, nil
}

//XYZFileRead reads an XYZ file with the given name. See XYZRead.
func XYZFileRead(name string) ([]*Atom, *v3.Matrix, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, CError{msg: err.Error(), filename: name, critical: true}
	}
	defer f.Close()
	atoms, coords, err := XYZRead(f)
	if err != nil {
		return nil, nil, errDecorate(err, "XYZFileRead "+name)
	}
	return atoms, coords, nil
}

//XYZWrite writes the given atoms and coordinates to out in XYZ format.
func XYZWrite(out io.Writer, coords *v3.Matrix, mol Atomer, comment ...string) error {
	c := ""
	if len(comment) > 0 {
		c = comment[0]
	}
	if coords.NVecs() != mol.Len() {
		return CError{msg: fmt.Sprintf("Inconsistent atoms (%d) and coordinates (%d)", mol.Len(), coords.NVecs()), critical: true}
	}
	fmt.Fprintf(out, "%-4d\n%s\n", mol.Len(), c)
	for i := 0; i < mol.Len(); i++ {
		_, err := fmt.Fprintf(out, "%-2s  %12.6f %12.6f %12.6f\n", mol.Atom(i).Symbol, coords.At(i, 0), coords.At(i, 1), coords.At(i, 2))
		if err != nil {
			return CError{msg: err.Error(), critical: true}
		}
	}
	return nil
}

//XYZFileWrite writes the given atoms and coordinates to an XYZ file
//with the given name, creating or overwriting it.
func XYZFileWrite(name string, coords *v3.Matrix, mol Atomer) error {
	out, err := os.Create(name)
	if err != nil {
		return CError{msg: err.Error(), filename: name, critical: true}
	}
	defer out.Close()
	return XYZWrite(out, coords, mol)
}
