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

//Package crystal provides atom, cell and crystal structures, facilities for
//reading and writing crystallographic files (CIF, XYZ), and functions for
//building doped supercells and measuring interatomic distances under
//periodic boundary conditions. The heavy electronic-structure and image
//simulation work is delegated to external engines through the dft and stem
//subpackages; this package only owns the structure bookkeeping around them.
package crystal
