package crystal

import (
	"math"
	"testing"

	v3 "github.com/gocrystal/gocrystal/v3"
)

func TestCellRoundTrip(Te *testing.T) {
	cell, err := NewCell(3.073, 3.073, 10.053, 90, 90, 120)
	if err != nil {
		Te.Fatal(err)
	}
	lengths := cell.Lengths()
	angles := cell.Angles()
	want := [3]float64{3.073, 3.073, 10.053}
	wanta := [3]float64{90, 90, 120}
	for i := 0; i < 3; i++ {
		if math.Abs(lengths[i]-want[i]) > 1e-10 {
			Te.Errorf("Length %d: got %f want %f", i, lengths[i], want[i])
		}
		if math.Abs(angles[i]-wanta[i]) > 1e-8 {
			Te.Errorf("Angle %d: got %f want %f", i, angles[i], wanta[i])
		}
	}
	//hexagonal volume: a*a*c*sin(120)
	wantvol := 3.073 * 3.073 * 10.053 * math.Sin(120*math.Pi/180)
	if math.Abs(cell.Volume()-wantvol) > 1e-8 {
		Te.Errorf("Volume: got %f want %f", cell.Volume(), wantvol)
	}
}

func TestFracCart(Te *testing.T) {
	cell, err := NewCell(4, 4, 4, 90, 90, 90)
	if err != nil {
		Te.Fatal(err)
	}
	frac, _ := v3.NewMatrix([]float64{0.5, 0.5, 0.25})
	cart := cell.Cart(frac, nil)
	if cart.At(0, 0) != 2 || cart.At(0, 1) != 2 || cart.At(0, 2) != 1 {
		Te.Errorf("Wrong Cartesian coordinates: %v", cart)
	}
	back, err := cell.Frac(cart, nil)
	if err != nil {
		Te.Fatal(err)
	}
	for j := 0; j < 3; j++ {
		if math.Abs(back.At(0, j)-frac.At(0, j)) > 1e-12 {
			Te.Errorf("Frac/Cart round trip drifted at %d", j)
		}
	}
}

func TestWrap(Te *testing.T) {
	cell, _ := NewCell(4, 4, 4, 90, 90, 90)
	coords, _ := v3.NewMatrix([]float64{5, -1, 2})
	atoms := []*Atom{{Symbol: "Si", ID: 1, Mass: symbolMass["Si"], Occupancy: 1}}
	cr, err := NewCrystal(atoms, coords, cell)
	if err != nil {
		Te.Fatal(err)
	}
	if err := cr.Wrap(); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(cr.Coords.At(0, 0)-1) > 1e-10 || math.Abs(cr.Coords.At(0, 1)-3) > 1e-10 || math.Abs(cr.Coords.At(0, 2)-2) > 1e-10 {
		Te.Errorf("Wrap gave wrong coordinates: %v", cr.Coords)
	}
}

func TestCopyIsDeep(Te *testing.T) {
	mol, err := CIFFileRead("test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	cp := mol.Copy()
	cp.Atom(0).Symbol = "O"
	cp.Coords.Set(0, 0, 99)
	if mol.Atom(0).Symbol == "O" || mol.Coords.At(0, 0) == 99 {
		Te.Error("Copy shares state with the original")
	}
}
