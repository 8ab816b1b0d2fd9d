package crystal

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func TestSupercell(Te *testing.T) {
	mol, err := CIFFileRead("test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	sup, err := Supercell(mol, [3]int{2, 2, 1})
	if err != nil {
		Te.Fatal(err)
	}
	if sup.Len() != mol.Len()*4 {
		Te.Errorf("Expected %d atoms, got %d", mol.Len()*4, sup.Len())
	}
	lengths := sup.Cell().Lengths()
	if math.Abs(lengths[0]-2*3.073) > 1e-6 || math.Abs(lengths[2]-10.053) > 1e-6 {
		Te.Errorf("Wrong supercell lengths: %v", lengths)
	}
	if math.Abs(sup.Cell().Volume()-4*mol.Cell().Volume()) > 1e-6 {
		Te.Errorf("Wrong supercell volume: %f", sup.Cell().Volume())
	}
	form := sup.Formula()
	fmt.Println("supercell formula:", form)
	if form["Si"] != 16 || form["C"] != 16 {
		Te.Errorf("Wrong supercell formula: %v", form)
	}
	_, err = Supercell(mol, [3]int{0, 2, 1})
	if err == nil {
		Te.Error("A supercell factor of 0 was accepted")
	}
}

//every image of a replicated site must get its own label in the CIF,
//not repeat the base cell's.
func TestSupercellSiteLabels(Te *testing.T) {
	mol, err := CIFFileRead("test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	sup, err := Supercell(mol, [3]int{2, 2, 1})
	if err != nil {
		Te.Fatal(err)
	}
	var buf bytes.Buffer
	if err := CIFWrite(&buf, sup, "supercell"); err != nil {
		Te.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, line := range strings.Split(buf.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 6 || strings.HasPrefix(fields[0], "_") {
			continue
		}
		if seen[fields[0]] {
			Te.Errorf("Duplicated site label %s", fields[0])
		}
		seen[fields[0]] = true
	}
	if len(seen) != sup.Len() {
		Te.Errorf("Expected %d site labels, got %d", sup.Len(), len(seen))
	}
}

func TestDope(Te *testing.T) {
	mol, err := CIFFileRead("test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	sup, err := Supercell(mol, [3]int{2, 2, 1})
	if err != nil {
		Te.Fatal(err)
	}
	doped := sup.Copy()
	subs, err := Dope(doped, "C", "O", 2, rand.NewSource(42))
	if err != nil {
		Te.Fatal(err)
	}
	if len(subs) != 2 {
		Te.Fatalf("Expected 2 substitutions, got %d", len(subs))
	}
	form := doped.Formula()
	if form["O"] != 2 || form["C"] != 14 || form["Si"] != 16 {
		Te.Errorf("Wrong doped formula: %v", form)
	}
	for _, idx := range subs {
		if doped.Atom(idx).Symbol != "O" {
			Te.Errorf("Atom %d reported substituted but is %s", idx, doped.Atom(idx).Symbol)
		}
		if doped.Atom(idx).Mass != symbolMass["O"] {
			Te.Errorf("Atom %d kept its old mass", idx)
		}
	}
	//same seed, same sites
	doped2 := sup.Copy()
	subs2, err := Dope(doped2, "C", "O", 2, rand.NewSource(42))
	if err != nil {
		Te.Fatal(err)
	}
	for i := range subs {
		if subs[i] != subs2[i] {
			Te.Errorf("Doping is not deterministic under a fixed seed: %v vs %v", subs, subs2)
		}
	}
}

func TestDopeTooMany(Te *testing.T) {
	mol, err := CIFFileRead("test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	_, err = Dope(mol, "C", "O", 5, rand.NewSource(1))
	if err == nil {
		Te.Error("Substituting more atoms than available was accepted")
	}
	_, err = Dope(mol, "C", "Xx", 1, rand.NewSource(1))
	if err == nil {
		Te.Error("An unknown dopant element was accepted")
	}
}
