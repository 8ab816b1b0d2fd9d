/*
 * supercell.go, part of gocrystal.
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
	"math/rand"
	"sort"

	v3 "github.com/gocrystal/gocrystal/v3"
)

//Supercell replicates the crystal n[0] x n[1] x n[2] times along its
//lattice vectors (a diagonal transformation matrix) and returns the
//enlarged crystal. The base atoms keep their order; replicas follow,
//image by image.
func Supercell(cr *Crystal, n [3]int) (*Crystal, error) {
	for _, v := range n {
		if v < 1 {
			return nil, CError{msg: fmt.Sprintf("Supercell factors must be positive: %v", n), critical: true}
		}
	}
	images := n[0] * n[1] * n[2]
	nat := cr.Len()
	atoms := make([]*Atom, 0, nat*images)
	coords := v3.Zeros(nat * images)
	oldvecs := cr.Cell().Vectors()
	shift := v3.Zeros(1)
	block := v3.Zeros(nat)
	next := 0
	for i := 0; i < n[0]; i++ {
		for j := 0; j < n[1]; j++ {
			for k := 0; k < n[2]; k++ {
				for l := 0; l < 3; l++ {
					shift.Set(0, l, float64(i)*oldvecs.At(0, l)+float64(j)*oldvecs.At(1, l)+float64(k)*oldvecs.At(2, l))
				}
				block.AddVec(cr.Coords, shift)
				coords.SetMatrix(next*nat, 0, block)
				for _, at := range cr.Atoms {
					newat := at.Copy()
					newat.ID = len(atoms) + 1
					newat.Name = "" //the base site label would repeat on every image
					atoms = append(atoms, newat)
				}
				next++
			}
		}
	}
	newvecs := v3.Zeros(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			newvecs.Set(i, j, float64(n[i])*oldvecs.At(i, j))
		}
	}
	cell, err := CellFromVectors(newvecs)
	if err != nil {
		return nil, errDecorate(err, "Supercell")
	}
	return NewCrystal(atoms, coords, cell)
}

//Dope substitutes n randomly chosen atoms of the element from with the
//element to, in place. The random source can be given to make the
//choice reproducible; if src is nil, the default shared source is
//used. Dope returns the indices of the substituted atoms, sorted.
func Dope(cr *Crystal, from, to string, n int, src rand.Source) ([]int, error) {
	if _, ok := symbolMass[to]; !ok {
		return nil, CError{msg: fmt.Sprintf("Unknown dopant element: %s", to), critical: true}
	}
	candidates := cr.Indices(from)
	if len(candidates) < n {
		return nil, CError{msg: fmt.Sprintf("Can't substitute %d %s atoms: only %d present", n, from, len(candidates)), critical: true}
	}
	perm := rand.Perm(len(candidates))
	if src != nil {
		perm = rand.New(src).Perm(len(candidates))
	}
	chosen := make([]int, n)
	for i := 0; i < n; i++ {
		chosen[i] = candidates[perm[i]]
	}
	sort.Ints(chosen)
	for _, idx := range chosen {
		at := cr.Atom(idx)
		at.Symbol = to
		at.Mass = symbolMass[to]
		at.Name = "" //the old site label no longer applies
	}
	return chosen, nil
}
