/*
 * crystal.go, part of gocrystal.
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
	"fmt"
	"math"

	v3 "github.com/gocrystal/gocrystal/v3"
	"gonum.org/v1/gonum/mat"
)

/*Note: several functions here panic instead of returning errors. This is
because they are "fundamental" functions: if something goes wrong in them,
the program is way-most likely wrong and should crash. Most panics are
related to calling a method on a nil object or accessing out-of-bounds
fields.*/

//Atom contains the per-site information read from a structure file,
//except for the coordinates, which live in a separate matrix.
type Atom struct {
	Name      string //site label, e.g. "Si1"
	ID        int
	Symbol    string
	Mass      float64
	Occupancy float64
}

//Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("crystal: attempted to copy a nil Atom")
	}
	newat := new(Atom)
	*newat = *A
	return newat
}

//Atomer is the basic interface for a collection of atoms.
type Atomer interface {

	//Atom returns the Atom corresponding to the index i.
	//Should panic if out of range.
	Atom(i int) *Atom

	Len() int
}

/*****Cell type***/

//Cell is a periodic simulation cell: three lattice vectors, in Å,
//as the rows of a 3x3 matrix.
type Cell struct {
	vecs *v3.Matrix
}

//NewCell builds a Cell from the cell lengths (Å) and angles (degrees),
//with the usual crystallographic convention: a along x, b in the xy
//plane.
func NewCell(a, b, c, alpha, beta, gamma float64) (*Cell, error) {
	if a <= 0 || b <= 0 || c <= 0 {
		return nil, CError{msg: fmt.Sprintf("Non-positive cell length: %4.2f %4.2f %4.2f", a, b, c), critical: true}
	}
	d2r := math.Pi / 180.0
	ca, cb := math.Cos(alpha*d2r), math.Cos(beta*d2r)
	cg, sg := math.Cos(gamma*d2r), math.Sin(gamma*d2r)
	if sg == 0 {
		return nil, CError{msg: fmt.Sprintf("Degenerate cell angle gamma: %4.2f", gamma), critical: true}
	}
	cx := cb
	cy := (ca - cb*cg) / sg
	czsq := 1 - cx*cx - cy*cy
	if czsq <= 0 {
		return nil, CError{msg: "Cell angles do not define a valid cell", critical: true}
	}
	cz := math.Sqrt(czsq)
	data := []float64{
		a, 0, 0,
		b * cg, b * sg, 0,
		c * cx, c * cy, c * cz,
	}
	vecs, err := v3.NewMatrix(data)
	if err != nil {
		return nil, errDecorate(err, "NewCell")
	}
	return &Cell{vecs: vecs}, nil
}

//CellFromVectors builds a Cell directly from a 3x3 matrix whose rows
//are the lattice vectors.
func CellFromVectors(vecs *v3.Matrix) (*Cell, error) {
	r, c := vecs.Dims()
	if r != 3 || c != 3 {
		return nil, CError{msg: fmt.Sprintf("Lattice vectors must form a 3x3 matrix, got %dx%d", r, c), critical: true}
	}
	ret := v3.Zeros(3)
	ret.Copy(vecs)
	return &Cell{vecs: ret}, nil
}

//Vectors returns a copy of the lattice vectors of the cell.
func (C *Cell) Vectors() *v3.Matrix {
	ret := v3.Zeros(3)
	ret.Copy(C.vecs)
	return ret
}

//Vector returns a copy of the ith lattice vector.
func (C *Cell) Vector(i int) *v3.Matrix {
	ret := v3.Zeros(1)
	ret.Copy(C.vecs.VecView(i))
	return ret
}

//Lengths returns the lengths of the three lattice vectors, in Å.
func (C *Cell) Lengths() [3]float64 {
	var ret [3]float64
	for i := 0; i < 3; i++ {
		ret[i] = C.vecs.VecView(i).Norm()
	}
	return ret
}

//Angles returns the cell angles alpha, beta, gamma, in degrees.
func (C *Cell) Angles() [3]float64 {
	r2d := 180.0 / math.Pi
	a := C.vecs.VecView(0)
	b := C.vecs.VecView(1)
	c := C.vecs.VecView(2)
	angle := func(u, w *v3.Matrix) float64 {
		arg := u.Dot(w) / (u.Norm() * w.Norm())
		//floating point math can push the argument out of [-1,1]
		if arg > 1 {
			arg = 1
		} else if arg < -1 {
			arg = -1
		}
		return math.Acos(arg) * r2d
	}
	return [3]float64{angle(b, c), angle(a, c), angle(a, b)}
}

//Volume returns the cell volume in Å^3.
func (C *Cell) Volume() float64 {
	return math.Abs(v3.Det3(C.vecs))
}

//Cart puts in dest (allocating it if nil) the Cartesian coordinates
//corresponding to the fractional coordinates frac, and returns dest.
func (C *Cell) Cart(frac, dest *v3.Matrix) *v3.Matrix {
	if dest == nil {
		dest = v3.Zeros(frac.NVecs())
	}
	dest.Mul(frac, C.vecs)
	return dest
}

//Frac puts in dest (allocating it if nil) the fractional coordinates
//corresponding to the Cartesian coordinates cart, and returns dest
//plus an error if the cell matrix is singular.
func (C *Cell) Frac(cart, dest *v3.Matrix) (*v3.Matrix, error) {
	if dest == nil {
		dest = v3.Zeros(cart.NVecs())
	}
	var inv mat.Dense
	if err := inv.Inverse(C.vecs.Dense); err != nil {
		return nil, CError{msg: "Singular cell matrix: " + err.Error(), critical: true}
	}
	dest.Mul(cart, &inv)
	return dest, nil
}

//Copy returns a copy of the cell.
func (C *Cell) Copy() *Cell {
	ret, _ := CellFromVectors(C.vecs) //vecs is always 3x3 here
	return ret
}

/*****Crystal type***/

//Crystal is a periodic structure: a cell, a set of atoms and their
//Cartesian coordinates, in Å.
type Crystal struct {
	Atoms  []*Atom
	Coords *v3.Matrix
	cell   *Cell
}

//NewCrystal builds a Crystal from atoms, Cartesian coordinates and a
//cell. It returns an error if any of the arguments is nil or if the
//number of coordinates doesn't match the number of atoms.
func NewCrystal(atoms []*Atom, coords *v3.Matrix, cell *Cell) (*Crystal, error) {
	if atoms == nil || coords == nil || cell == nil {
		return nil, CError{msg: "NewCrystal: nil atoms, coordinates or cell", critical: true}
	}
	if len(atoms) != coords.NVecs() {
		return nil, CError{msg: fmt.Sprintf("Inconsistent atoms (%d) and coordinates (%d)", len(atoms), coords.NVecs()), critical: true}
	}
	return &Crystal{Atoms: atoms, Coords: coords, cell: cell}, nil
}

//Cell returns the cell of the crystal.
func (M *Crystal) Cell() *Cell {
	return M.cell
}

//Len returns the number of atoms in the crystal.
func (M *Crystal) Len() int {
	return len(M.Atoms)
}

//Atom returns the Atom corresponding to the index i.
//Panics if out of range.
func (M *Crystal) Atom(i int) *Atom {
	if i >= M.Len() {
		panic("crystal: requested Atom out of bounds")
	}
	return M.Atoms[i]
}

//Copy returns a deep copy of the crystal.
func (M *Crystal) Copy() *Crystal {
	atoms := make([]*Atom, M.Len())
	for i, v := range M.Atoms {
		atoms[i] = v.Copy()
	}
	coords := v3.Zeros(M.Len())
	coords.Copy(M.Coords)
	ret, err := NewCrystal(atoms, coords, M.cell.Copy())
	if err != nil {
		panic(err.Error()) //copying a corrupted crystal means the program is wrong
	}
	return ret
}

//FracCoords returns the fractional coordinates of all atoms.
func (M *Crystal) FracCoords() (*v3.Matrix, error) {
	frac, err := M.cell.Frac(M.Coords, nil)
	if err != nil {
		return nil, errDecorate(err, "FracCoords")
	}
	return frac, nil
}

//Wrap folds all atoms back into the cell, i.e. brings all fractional
//coordinates into [0,1).
func (M *Crystal) Wrap() error {
	frac, err := M.FracCoords()
	if err != nil {
		return errDecorate(err, "Wrap")
	}
	for i := 0; i < frac.NVecs(); i++ {
		for j := 0; j < 3; j++ {
			f := frac.At(i, j)
			f -= math.Floor(f)
			frac.Set(i, j, f)
		}
	}
	M.cell.Cart(frac, M.Coords)
	return nil
}

//Masses returns a slice with the masses of all atoms, or an error if
//any of them has not been assigned.
func (M *Crystal) Masses() ([]float64, error) {
	ret := make([]float64, M.Len())
	for i := 0; i < M.Len(); i++ {
		at := M.Atom(i)
		if at.Mass == 0 {
			return nil, CError{msg: fmt.Sprintf("Not all masses have been obtained: %d %v", i, at), critical: true}
		}
		ret[i] = at.Mass
	}
	return ret, nil
}

//Indices returns the indices of all atoms with the given symbol,
//in file order.
func (M *Crystal) Indices(symbol string) []int {
	ret := make([]int, 0, M.Len())
	for i, at := range M.Atoms {
		if at.Symbol == symbol {
			ret = append(ret, i)
		}
	}
	return ret
}

//Formula returns a map from chemical symbol to the number of atoms of
//that element in the crystal.
func (M *Crystal) Formula() map[string]int {
	ret := make(map[string]int)
	for _, at := range M.Atoms {
		ret[at.Symbol]++
	}
	return ret
}
