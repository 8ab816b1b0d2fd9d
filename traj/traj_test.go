/*
 * traj_test.go, part of gocrystal.
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

package traj

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	crystal "github.com/gocrystal/gocrystal"
	v3 "github.com/gocrystal/gocrystal/v3"
)

func TestWriteRead(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "relax.stz")
	cell, err := crystal.NewCell(4, 4, 4, 90, 90, 90)
	if err != nil {
		Te.Fatal(err)
	}
	W, err := NewWriter(name, 2, map[string]string{"stage": "relax"})
	if err != nil {
		Te.Fatal(err)
	}
	frames := [][]float64{
		{0, 0, 0, 1.5, 1.5, 1.5},
		{0.001, 0, 0, 1.499, 1.5, 1.5},
		{0.002, 0, 0, 1.498, 1.5, 1.5},
	}
	for _, fr := range frames {
		coords, err := v3.NewMatrix(fr)
		if err != nil {
			Te.Fatal(err)
		}
		if err := W.WNext(coords, cell); err != nil {
			Te.Fatal(err)
		}
	}
	W.Close()
	R, header, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	if header["stage"] != "relax" {
		Te.Errorf("header lost: %v", header)
	}
	if R.Len() != 2 {
		Te.Fatalf("wrong atom count %d", R.Len())
	}
	c := v3.Zeros(2)
	box := make([]float64, 9)
	read := 0
	for {
		err := R.Next(c, box)
		if err != nil {
			if End(err) {
				break
			}
			Te.Fatal(err)
		}
		read++
	}
	if read != 3 {
		Te.Fatalf("read %d frames, wrote 3", read)
	}
	//last frame stays in c after the EOF-terminated loop
	if math.Abs(c.At(0, 0)-0.002) > 1e-6 || math.Abs(c.At(1, 0)-1.498) > 1e-6 {
		Te.Errorf("last frame scrambled: %v %v", c.At(0, 0), c.At(1, 0))
	}
	if math.Abs(box[0]-4.0) > 1e-3 || math.Abs(box[4]-4.0) > 1e-3 {
		Te.Errorf("cell vectors scrambled: %v", box)
	}
	fmt.Println("read back", read, "frames")
}

func TestWNextErrors(Te *testing.T) {
	dir := Te.TempDir()
	W, err := NewWriter(filepath.Join(dir, "bad.stz"), 2, nil)
	if err != nil {
		Te.Fatal(err)
	}
	defer W.Close()
	if err := W.WNext(nil); err == nil {
		Te.Error("nil coordinates should be rejected")
	}
	wrong := v3.Zeros(3)
	if err := W.WNext(wrong); err == nil {
		Te.Error("wrong atom count should be rejected")
	}
}

func TestFromXYZ(Te *testing.T) {
	dir := Te.TempDir()
	xyz := filepath.Join(dir, "steps.xyz")
	text := "2\nstep 0\nSi   0.000000 0.000000 0.000000\nC    1.880000 1.880000 1.880000\n" +
		"2\nstep 1\nSi   0.010000 0.000000 0.000000\nC    1.870000 1.880000 1.880000\n"
	if err := os.WriteFile(xyz, []byte(text), 0644); err != nil {
		Te.Fatal(err)
	}
	out := filepath.Join(dir, "steps.stz")
	n, err := FromXYZ(xyz, out, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if n != 2 {
		Te.Fatalf("converted %d frames, expected 2", n)
	}
	R, _, err := New(out)
	if err != nil {
		Te.Fatal(err)
	}
	defer R.Close()
	c := v3.Zeros(2)
	if err := R.Next(c); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(c.At(1, 0)-1.88) > 1e-3 {
		Te.Errorf("first frame scrambled: %f", c.At(1, 0))
	}
}
