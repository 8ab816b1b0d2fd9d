/*
 * doc.go, part of gocrystal.
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

//Package v3 implements a set of vectors in 3D space, as a thin layer over
//the gonum mat.Dense type. Within the package a "vector" is a row vector,
//i.e. the cartesian coordinates of a point in 3D space. The name of some
//functions in the package reflect this.
package v3
