/*
 * cif.go, part of gocrystal.
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
	"path/filepath"
	"strconv"
	"strings"

	v3 "github.com/gocrystal/gocrystal/v3"
)

var tl func(string) string = strings.ToLower

//The _atom_site tags understood by the reader. Values are the column
//index of the tag within the loop, or -1 if the tag is absent.
var cifTags map[string]int = map[string]int{
	"_atom_site_label":                 -1,
	"_atom_site_type_symbol":           -1,
	"_atom_site_symmetry_multiplicity": -1,
	"_atom_site_occupancy":             -1,
	"_atom_site_fract_x":               -1,
	"_atom_site_fract_y":               -1,
	"_atom_site_fract_z":               -1,
}

type cifmap map[string]int

//add sets the column index i for the tag s, if the tag is known.
//Unknown tags are counted in the loop but otherwise ignored.
func (m cifmap) add(s string, i int) {
	s = strings.TrimSpace(strings.Replace(s, "\n", "", -1))
	if _, ok := m[s]; ok {
		m[s] = i
	}
}

//get returns the column index for the given tag, or -1 if the tag
//was not seen in the file.
func (m cifmap) get(s string) int {
	if i, ok := m[s]; ok {
		return i
	}
	return -1
}

//cifFloat parses a CIF numeric value, stripping a trailing standard
//uncertainty, e.g. "3.0730(2)" -> 3.0730.
func cifFloat(s string) (float64, error) {
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

//CIFRead reads a crystal structure from a CIF file in r. Only P1-style
//files are supported: the atom site loop must list every atom in the
//cell, as symmetry operations are NOT expanded. Cell parameters may
//appear before or after the atom loop.
func CIFRead(r io.Reader) (*Crystal, error) {
	bufr := bufio.NewReader(r)
	mol, err := cifBufIORead(bufr)
	return mol, errDecorate(err, "CIFRead")
}

//CIFFileRead reads a crystal structure from the CIF file with the
//given name. See CIFRead for the supported subset of the format.
func CIFFileRead(name string) (*Crystal, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, CError{msg: err.Error(), filename: name, critical: true}
	}
	defer f.Close()
	mol, err := CIFRead(f)
	if err != nil {
		if e, ok := err.(CError); ok {
			e.filename = name
			return nil, errDecorate(e, "CIFFileRead")
		}
		return nil, errDecorate(err, "CIFFileRead")
	}
	return mol, nil
}

func cifBufIORead(r *bufio.Reader) (*Crystal, error) {
	m := cifmap{}
	for k := range cifTags {
		m[k] = -1
	}
	cellpar := map[string]float64{}
	atoms := make([]*Atom, 0)
	frac := make([]float64, 0, 3)
	var inheader, indata bool
	var field int
	hp := strings.HasPrefix
	lineno := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			break
		}
		lineno++
		trimmed := strings.TrimSpace(line)
		if hp(trimmed, "#") || hp(trimmed, ";") {
			continue
		}
		if trimmed == "" {
			indata = false
			inheader = false
			continue
		}
		if hp(tl(trimmed), "_cell_length_") || hp(tl(trimmed), "_cell_angle_") {
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				return nil, CError{msg: fmt.Sprintf("Line %d: cell parameter without a value: %s", lineno, trimmed), critical: true}
			}
			v, err2 := cifFloat(fields[1])
			if err2 != nil {
				return nil, CError{msg: fmt.Sprintf("Line %d: can't parse cell parameter %s: %s", lineno, fields[0], err2.Error()), critical: true}
			}
			cellpar[tl(fields[0])] = v
			continue
		}
		if hp(tl(trimmed), "loop_") {
			inheader = true
			indata = false
			field = 0
			continue
		}
		if hp(trimmed, "_") {
			if !inheader {
				continue //a free-standing tag outside any loop
			}
			if !hp(tl(trimmed), "_atom_site") {
				inheader = false //some other loop, skip it entirely
				continue
			}
			m.add(tl(strings.Fields(trimmed)[0]), field)
			field++
			continue
		}
		if inheader {
			inheader = false
			indata = m.get("_atom_site_fract_x") >= 0
		}
		if !indata {
			continue
		}
		fields := strings.Fields(trimmed)
		at := new(Atom)
		if k := m.get("_atom_site_label"); k >= 0 && k < len(fields) {
			at.Name = fields[k]
		}
		if k := m.get("_atom_site_type_symbol"); k >= 0 && k < len(fields) {
			at.Symbol = fields[k]
		} else {
			//no explicit symbol, strip digits from the label, e.g. "Si1"
			at.Symbol = strings.TrimRight(at.Name, "0123456789")
		}
		at.Occupancy = 1.0
		if k := m.get("_atom_site_occupancy"); k >= 0 && k < len(fields) {
			occ, err2 := cifFloat(fields[k])
			if err2 != nil {
				return nil, CError{msg: fmt.Sprintf("Line %d: can't parse occupancy: %s", lineno, err2.Error()), critical: true}
			}
			at.Occupancy = occ
		}
		at.ID = len(atoms) + 1
		at.Mass = symbolMass[at.Symbol] //no error checking, some symbols just aren't in the table
		for _, tag := range []string{"_atom_site_fract_x", "_atom_site_fract_y", "_atom_site_fract_z"} {
			k := m.get(tag)
			if k < 0 || k >= len(fields) {
				return nil, CError{msg: fmt.Sprintf("Line %d: missing %s", lineno, tag), critical: true}
			}
			v, err2 := cifFloat(fields[k])
			if err2 != nil {
				return nil, CError{msg: fmt.Sprintf("Line %d: can't parse %s: %s", lineno, tag, err2.Error()), critical: true}
			}
			frac = append(frac, v)
		}
		atoms = append(atoms, at)
	}
	if len(atoms) == 0 {
		return nil, CError{msg: "No atom sites found in CIF input", critical: true}
	}
	required := []string{"_cell_length_a", "_cell_length_b", "_cell_length_c", "_cell_angle_alpha", "_cell_angle_beta", "_cell_angle_gamma"}
	for _, k := range required {
		if _, ok := cellpar[k]; !ok {
			return nil, CError{msg: "Missing cell parameter " + k, critical: true}
		}
	}
	cell, err := NewCell(cellpar["_cell_length_a"], cellpar["_cell_length_b"], cellpar["_cell_length_c"],
		cellpar["_cell_angle_alpha"], cellpar["_cell_angle_beta"], cellpar["_cell_angle_gamma"])
	if err != nil {
		return nil, errDecorate(err, "cifBufIORead")
	}
	fracm, err := v3.NewMatrix(frac)
	if err != nil {
		return nil, errDecorate(err, "cifBufIORead")
	}
	coords := cell.Cart(fracm, nil)
	return NewCrystal(atoms, coords, cell)
}

//CIFWrite writes the crystal mol to out as a P1 CIF file, with the
//atom sites in their current order. The optional name is used for the
//data_ block header.
func CIFWrite(out io.Writer, mol *Crystal, name ...string) error {
	n := "gocrystal"
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	}
	frac, err := mol.FracCoords()
	if err != nil {
		return errDecorate(err, "CIFWrite")
	}
	lengths := mol.Cell().Lengths()
	angles := mol.Cell().Angles()
	fmt.Fprintf(out, "data_%s\n", n)
	fmt.Fprintf(out, "_cell_length_a       %.6f\n", lengths[0])
	fmt.Fprintf(out, "_cell_length_b       %.6f\n", lengths[1])
	fmt.Fprintf(out, "_cell_length_c       %.6f\n", lengths[2])
	fmt.Fprintf(out, "_cell_angle_alpha    %.6f\n", angles[0])
	fmt.Fprintf(out, "_cell_angle_beta     %.6f\n", angles[1])
	fmt.Fprintf(out, "_cell_angle_gamma    %.6f\n", angles[2])
	fmt.Fprint(out, "_symmetry_space_group_name_H-M    'P 1'\n")
	fmt.Fprint(out, "_symmetry_int_tables_number       1\n\n")
	fmt.Fprint(out, "loop_\n")
	fmt.Fprint(out, " _atom_site_label\n")
	fmt.Fprint(out, " _atom_site_type_symbol\n")
	fmt.Fprint(out, " _atom_site_occupancy\n")
	fmt.Fprint(out, " _atom_site_fract_x\n")
	fmt.Fprint(out, " _atom_site_fract_y\n")
	fmt.Fprint(out, " _atom_site_fract_z\n")
	counts := make(map[string]int)
	for i, at := range mol.Atoms {
		label := at.Name
		if label == "" {
			counts[at.Symbol]++
			label = fmt.Sprintf("%s%d", at.Symbol, counts[at.Symbol])
		}
		_, err := fmt.Fprintf(out, " %-6s %-3s %6.4f %10.6f %10.6f %10.6f\n",
			label, at.Symbol, at.Occupancy, frac.At(i, 0), frac.At(i, 1), frac.At(i, 2))
		if err != nil {
			return CError{msg: err.Error(), critical: true}
		}
	}
	return nil
}

//CIFFileWrite writes the crystal mol to a P1 CIF file with the given
//name, creating or overwriting it.
func CIFFileWrite(name string, mol *Crystal) error {
	out, err := os.Create(name)
	if err != nil {
		return CError{msg: err.Error(), filename: name, critical: true}
	}
	defer out.Close()
	block := strings.TrimSuffix(filepath.Base(name), ".cif")
	return CIFWrite(out, mol, block)
}
