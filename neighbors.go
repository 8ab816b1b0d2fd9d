/*
 * neighbors.go, part of gocrystal.
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
	"gonum.org/v1/gonum/stat"
)

//MinImageDistance returns the distance between the 1x3 vectors a and b
//under the minimum-image convention for the given cell. The search
//spans the -1..1 neighboring images, which is exact as long as the
//cell is not extremely skewed and the distance of interest is below
//half the smallest cell length. Supercells used in practice satisfy
//both conditions.
func MinImageDistance(cell *Cell, a, b *v3.Matrix) float64 {
	diff := v3.Zeros(1)
	diff.SubVec(b, a)
	vecs := cell.Vectors()
	min := math.Inf(1)
	im := v3.Zeros(1)
	for i := -1; i <= 1; i++ {
		for j := -1; j <= 1; j++ {
			for k := -1; k <= 1; k++ {
				for l := 0; l < 3; l++ {
					im.Set(0, l, diff.At(0, l)+
						float64(i)*vecs.At(0, l)+
						float64(j)*vecs.At(1, l)+
						float64(k)*vecs.At(2, l))
				}
				if d := im.Norm(); d < min {
					min = d
				}
			}
		}
	}
	return min
}

//NeighborDistance reports, for the atom with index Index in the parent
//crystal, its nearest neighbor of the same selection and their distance
//in Å.
type NeighborDistance struct {
	Index    int
	Neighbor int
	Distance float64
}

func (n NeighborDistance) String() string {
	return fmt.Sprintf("atom %d: nearest neighbor = %.3f Å", n.Index, n.Distance)
}

//NearestNeighbors returns, for each atom of the given element, the
//nearest atom of the same element and the distance between the two,
//under the minimum-image convention. It returns an error when fewer
//than 2 atoms of the element are present.
func NearestNeighbors(cr *Crystal, symbol string) ([]NeighborDistance, error) {
	sel := cr.Indices(symbol)
	if len(sel) < 2 {
		return nil, CError{msg: fmt.Sprintf("Need at least 2 %s atoms for a distance analysis, have %d", symbol, len(sel)), critical: true}
	}
	//The full pair matrix is computed once; n is small (hundreds) for
	//the supercells this is meant for.
	n := len(sel)
	dm := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := MinImageDistance(cr.Cell(), cr.Coords.VecView(sel[i]), cr.Coords.VecView(sel[j]))
			dm[i*n+j] = d
			dm[j*n+i] = d
		}
	}
	ret := make([]NeighborDistance, n)
	for i := 0; i < n; i++ {
		min := math.Inf(1)
		nearest := -1
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if dm[i*n+j] < min {
				min = dm[i*n+j]
				nearest = j
			}
		}
		ret[i] = NeighborDistance{Index: sel[i], Neighbor: sel[nearest], Distance: min}
	}
	return ret, nil
}

//Clashes returns the pairs of atoms closer, under the minimum-image
//convention, than scale times the sum of their covalent radii. A scale
//around 0.6 flags only overlaps no relaxation can be expected to fix.
//It returns an error if an element has no tabulated radius.
func Clashes(cr *Crystal, scale float64) ([][2]int, error) {
	radii := make([]float64, cr.Len())
	for i := 0; i < cr.Len(); i++ {
		s := cr.Atom(i).Symbol
		r, ok := CovalentRadius(s)
		if !ok {
			return nil, CError{msg: fmt.Sprintf("No covalent radius for element %s", s), critical: true}
		}
		radii[i] = r
	}
	var ret [][2]int
	for i := 0; i < cr.Len(); i++ {
		for j := i + 1; j < cr.Len(); j++ {
			limit := scale * (radii[i] + radii[j])
			if MinImageDistance(cr.Cell(), cr.Coords.VecView(i), cr.Coords.VecView(j)) < limit {
				ret = append(ret, [2]int{i, j})
			}
		}
	}
	return ret, nil
}

//Distances extracts the plain distance values from a NeighborDistance
//slice, for plotting or statistics.
func Distances(nd []NeighborDistance) []float64 {
	ret := make([]float64, len(nd))
	for i, v := range nd {
		ret[i] = v.Distance
	}
	return ret
}

//DistanceStats returns the mean and standard deviation of the
//nearest-neighbor distances in nd.
func DistanceStats(nd []NeighborDistance) (mean, stdev float64) {
	d := Distances(nd)
	mean = stat.Mean(d, nil)
	stdev = stat.StdDev(d, nil)
	return mean, stdev
}
