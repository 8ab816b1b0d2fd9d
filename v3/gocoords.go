/*
 * gocoords.go, part of gocrystal.
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

package v3

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

//NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//SwapVecs swaps the vectors i and j of F, in place.
func (F *Matrix) SwapVecs(i, j int) {
	l := F.NVecs()
	if i >= l || j >= l {
		panic(ErrVectorNotPresent)
	}
	for k := 0; k < 3; k++ {
		vi := F.At(i, k)
		vj := F.At(j, k)
		F.Set(i, k, vj)
		F.Set(j, k, vi)
	}
}

//AddVec adds the vector vec to each vector of A, putting the result
//in the receiver. Panics if shapes mismatch.
func (F *Matrix) AddVec(A, vec *Matrix) {
	ar, ac := A.Dims()
	rr, rc := vec.Dims()
	fr, fc := F.Dims()
	if ac != 3 || rc != 3 || rr != 1 || ar != fr || fc != 3 {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < 3; j++ {
			F.Set(i, j, A.At(i, j)+vec.At(0, j))
		}
	}
}

//SubVec subtracts the vector vec from each vector of A, putting the
//result in the receiver.
func (F *Matrix) SubVec(A, vec *Matrix) {
	neg := Zeros(1)
	neg.Scale(-1, vec.Dense)
	F.AddVec(A, neg)
}

//SetVecs sets the vectors of the receiver whose indexes are given in
//clist to the vectors of A, in order.
func (F *Matrix) SetVecs(A *Matrix, clist []int) {
	ar, _ := A.Dims()
	fr, _ := F.Dims()
	if ar < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		if val >= fr {
			panic(ErrVectorNotPresent)
		}
		for j := 0; j < 3; j++ {
			F.Set(val, j, A.At(key, j))
		}
	}
}

//SomeVecs puts in the receiver the vectors of A with the indexes
//given in clist, in order.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	ar, _ := A.Dims()
	fr, _ := F.Dims()
	if fr < len(clist) {
		panic(ErrShape)
	}
	for key, val := range clist {
		if val >= ar {
			panic(ErrVectorNotPresent)
		}
		for j := 0; j < 3; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

//Cross puts the cross product of a and b in the receiver. All three
//must be 1x3 matrices.
func (F *Matrix) Cross(a, b *Matrix) {
	if a.NVecs() != 1 || b.NVecs() != 1 || F.NVecs() != 1 {
		panic(ErrShape)
	}
	F.Set(0, 0, a.At(0, 1)*b.At(0, 2)-a.At(0, 2)*b.At(0, 1))
	F.Set(0, 1, a.At(0, 2)*b.At(0, 0)-a.At(0, 0)*b.At(0, 2))
	F.Set(0, 2, a.At(0, 0)*b.At(0, 1)-a.At(0, 1)*b.At(0, 0))
}

//Dot returns the dot product between the receiver and the argument,
//both of which must be 1x3.
func (F *Matrix) Dot(B *Matrix) float64 {
	if F.NVecs() != 1 || B.NVecs() != 1 {
		panic(ErrShape)
	}
	return F.At(0, 0)*B.At(0, 0) + F.At(0, 1)*B.At(0, 1) + F.At(0, 2)*B.At(0, 2)
}

//Norm returns the Euclidean norm of the receiver, which must be a
//1x3 vector.
func (F *Matrix) Norm() float64 {
	if F.NVecs() != 1 {
		panic(ErrShape)
	}
	return math.Sqrt(F.Dot(F))
}

//Unit puts in the receiver the unit vector pointing in the direction
//of A, which must be a 1x3 vector.
func (F *Matrix) Unit(A *Matrix) {
	norm := 1.0 / A.Norm()
	F.Scale(norm, A.Dense)
}

//StackVec puts in F a matrix consisting of A over B.
func (F *Matrix) StackVec(A, B *Matrix) {
	ar, _ := A.Dims()
	br, _ := B.Dims()
	if F.NVecs() < ar+br {
		panic(ErrShape)
	}
	F.SetMatrix(0, 0, A)
	F.SetMatrix(ar, 0, B)
}

//String returns a neat string representation of the matrix.
func (F *Matrix) String() string {
	r, c := F.Dims()
	ret := fmt.Sprintf("[ %d x %d ]\n", r, c)
	for i := 0; i < r; i++ {
		ret += fmt.Sprintf("[%8.3f %8.3f %8.3f ]\n", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	return ret
}

//Det3 returns the determinant of a 3x3 matrix. Panics if the matrix
//has a different shape.
func Det3(A mat.Matrix) float64 {
	r, c := A.Dims()
	if r != 3 || c != 3 {
		panic(ErrShape)
	}
	return A.At(0, 0)*(A.At(1, 1)*A.At(2, 2)-A.At(2, 1)*A.At(1, 2)) -
		A.At(1, 0)*(A.At(0, 1)*A.At(2, 2)-A.At(2, 1)*A.At(0, 2)) +
		A.At(2, 0)*(A.At(0, 1)*A.At(1, 2)-A.At(1, 1)*A.At(0, 2))
}
