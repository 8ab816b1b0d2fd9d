package crystal

import (
	"bytes"
	"fmt"
	"math"
	"testing"
)

//TestCIFIO reads the 4H-SiC test structure, writes it back and reads
//it again, checking that the structure survives the round trip.
func TestCIFIO(Te *testing.T) {
	mol, err := CIFFileRead("test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	fmt.Println("CIF read!", mol.Len(), "atoms")
	if mol.Len() != 8 {
		Te.Errorf("Expected 8 atoms, got %d", mol.Len())
	}
	form := mol.Formula()
	if form["Si"] != 4 || form["C"] != 4 {
		Te.Errorf("Wrong formula: %v", form)
	}
	lengths := mol.Cell().Lengths()
	if math.Abs(lengths[0]-3.073) > 1e-4 || math.Abs(lengths[2]-10.053) > 1e-4 {
		Te.Errorf("Wrong cell lengths: %v", lengths)
	}
	angles := mol.Cell().Angles()
	if math.Abs(angles[2]-120) > 1e-6 {
		Te.Errorf("Wrong gamma angle: %f", angles[2])
	}
	var buf bytes.Buffer
	if err := CIFWrite(&buf, mol, "roundtrip"); err != nil {
		Te.Fatal(err)
	}
	mol2, err := CIFRead(&buf)
	if err != nil {
		Te.Fatal(err)
	}
	if mol2.Len() != mol.Len() {
		Te.Fatalf("Round trip changed the atom count: %d vs %d", mol.Len(), mol2.Len())
	}
	for i := 0; i < mol.Len(); i++ {
		if mol2.Atom(i).Symbol != mol.Atom(i).Symbol {
			Te.Errorf("Atom %d changed symbol on round trip", i)
		}
		for j := 0; j < 3; j++ {
			if math.Abs(mol.Coords.At(i, j)-mol2.Coords.At(i, j)) > 1e-4 {
				Te.Errorf("Atom %d coordinate %d drifted: %f vs %f", i, j, mol.Coords.At(i, j), mol2.Coords.At(i, j))
			}
		}
	}
}

//TestCIFUncertainties checks that cell parameters with standard
//uncertainties, e.g. 3.0730(2), are accepted.
func TestCIFUncertainties(Te *testing.T) {
	cif := `data_t
_cell_length_a 3.0730(2)
_cell_length_b 3.0730(2)
_cell_length_c 10.053(1)
_cell_angle_alpha 90
_cell_angle_beta 90
_cell_angle_gamma 120

loop_
 _atom_site_label
 _atom_site_fract_x
 _atom_site_fract_y
 _atom_site_fract_z
 Si1 0.0 0.0 0.0
`
	mol, err := CIFRead(bytes.NewBufferString(cif))
	if err != nil {
		Te.Fatal(err)
	}
	if mol.Len() != 1 || mol.Atom(0).Symbol != "Si" {
		Te.Errorf("Wrong structure read: %d atoms, first symbol %s", mol.Len(), mol.Atom(0).Symbol)
	}
}

func TestCIFMissingCell(Te *testing.T) {
	cif := `data_t
loop_
 _atom_site_label
 _atom_site_fract_x
 _atom_site_fract_y
 _atom_site_fract_z
 Si1 0.0 0.0 0.0
`
	_, err := CIFRead(bytes.NewBufferString(cif))
	if err == nil {
		Te.Error("A CIF without cell parameters was accepted")
	}
}
