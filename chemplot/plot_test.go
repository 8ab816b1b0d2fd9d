/*
 * plot_test.go, part of gocrystal.
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation, either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 */

package chemplot

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDistanceHisto(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "distances")
	dists := []float64{3.05, 3.07, 3.08, 3.08, 3.07, 3.06, 3.09, 3.05}
	if err := DistanceHisto(dists, 8, "Si-Si nearest neighbors", name); err != nil {
		Te.Fatal(err)
	}
	info, err := os.Stat(name + ".png")
	if err != nil {
		Te.Fatal(err)
	}
	if info.Size() == 0 {
		Te.Error("empty histogram file")
	}
	if err := DistanceHisto(nil, 8, "empty", name); err == nil {
		Te.Error("no distances should be an error")
	}
}

func TestImageMap(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "haadf")
	image := mat.NewDense(4, 6, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 6; j++ {
			image.Set(i, j, float64(i*6+j))
		}
	}
	if err := ImageMap(image, 0.05, "HAADF", name); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(name + ".png"); err != nil {
		Te.Fatal(err)
	}
	if err := ImageMap(nil, 0.05, "nil", name); err == nil {
		Te.Error("nil image should be an error")
	}
}
