/*
 * atomicdata.go, part of gocrystal.
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

//A map for assigning mass to elements.
//Note that just the elements common in semiconductor and ceramic
//structures, plus a few usual dopants, are present.
var symbolMass = map[string]float64{
	"H":  1.0,
	"B":  10.81,
	"C":  12.01,
	"N":  14.01,
	"O":  16.00,
	"F":  18.998,
	"Al": 26.98,
	"Si": 28.08,
	"P":  30.97,
	"S":  32.06,
	"Ti": 47.87,
	"V":  50.94,
	"Cr": 51.996,
	"Mn": 54.94,
	"Fe": 55.84,
	"Co": 58.93,
	"Ni": 58.69,
	"Cu": 63.55,
	"Zn": 65.38,
	"Ga": 69.72,
	"Ge": 72.63,
	"As": 74.92,
	"Mo": 95.95,
	"W":  183.84,
}

//A map for assigning atomic numbers to elements. Multislice
//scattering potentials are parametrized per atomic number, so only
//elements present here can be imaged.
var symbolZ = map[string]int{
	"H":  1,
	"B":  5,
	"C":  6,
	"N":  7,
	"O":  8,
	"F":  9,
	"Al": 13,
	"Si": 14,
	"P":  15,
	"S":  16,
	"Ti": 22,
	"V":  23,
	"Cr": 24,
	"Mn": 25,
	"Fe": 26,
	"Co": 27,
	"Ni": 28,
	"Cu": 29,
	"Zn": 30,
	"Ga": 31,
	"Ge": 32,
	"As": 33,
	"Mo": 42,
	"W":  74,
}

//A map for assigning covalent radii to elements.
//Values from Cordero et al., 2008 (DOI:10.1039/B801115J).
var symbolCovrad = map[string]float64{
	"H":  0.31,
	"B":  0.84,
	"C":  0.76, //the sp3 radius
	"N":  0.71,
	"O":  0.66,
	"F":  0.57,
	"Al": 1.21,
	"Si": 1.11,
	"P":  1.07,
	"S":  1.05,
	"Ti": 1.60,
	"Cr": 1.39,
	"Fe": 1.52, //hs
	"Ni": 1.24,
	"Cu": 1.32,
	"Zn": 1.22,
	"Ga": 1.22,
	"Ge": 1.20,
	"Mo": 1.54,
	"W":  1.62,
}

//Mass returns the mass of the element with the given symbol, or 0.0
//if the symbol is not in the tables.
func Mass(symbol string) float64 {
	return symbolMass[symbol]
}

//AtomicNumber returns the atomic number for the given symbol and true,
//or 0 and false if the symbol is not in the tables.
func AtomicNumber(symbol string) (int, bool) {
	z, ok := symbolZ[symbol]
	return z, ok
}

//CovalentRadius returns the covalent radius, in Å, for the given
//symbol and true, or 0.0 and false if the symbol is not in the tables.
func CovalentRadius(symbol string) (float64, bool) {
	r, ok := symbolCovrad[symbol]
	return r, ok
}
