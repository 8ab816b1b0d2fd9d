/*
 * stem_test.go, part of gocrystal.
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

package stem

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAbTEMBuildInput(Te *testing.T) {
	dir := Te.TempDir()
	P := new(Probe)
	P.SetDefaults()
	sim := NewAbTEMHandle()
	sim.SetName(filepath.Join(dir, "haadf"))
	if err := sim.BuildInput("relaxed.cif", P); err != nil {
		Te.Fatal(err)
	}
	script, err := os.ReadFile(filepath.Join(dir, "haadf.py"))
	if err != nil {
		Te.Fatal(err)
	}
	text := string(script)
	for _, want := range []string{
		"read(\"relaxed.cif\")",
		"energy=200000",
		"semiangle_cutoff=25",
		"inner=90",
		"outer=200",
		"sampling=0.05",
	} {
		if !strings.Contains(text, want) {
			Te.Errorf("script lacks %q", want)
		}
	}
	if strings.Contains(text, "FrozenPhonons") {
		Te.Error("static lattice script should not import FrozenPhonons")
	}
}

func TestAbTEMImage(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "haadf")
	//a 2x3 fake image
	data := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		Te.Fatal(err)
	}
	if err := os.WriteFile(name+".img", buf.Bytes(), 0644); err != nil {
		Te.Fatal(err)
	}
	if err := os.WriteFile(name+".img.txt", []byte("2 3\n"), 0644); err != nil {
		Te.Fatal(err)
	}
	if err := os.WriteFile(name+".out", []byte("GOCRYSTAL SHAPE 2 3\nGOCRYSTAL TERMINATED NORMALLY\n"), 0644); err != nil {
		Te.Fatal(err)
	}
	sim := NewAbTEMHandle()
	sim.SetName(name)
	image, err := sim.Image()
	if err != nil {
		Te.Fatal(err)
	}
	r, c := image.Dims()
	if r != 2 || c != 3 {
		Te.Fatalf("wrong dimensions %dx%d", r, c)
	}
	if image.At(1, 2) != 0.6 || image.At(0, 0) != 0.1 {
		Te.Error("image values scrambled")
	}
	fmt.Println("read back image", r, "x", c)
}

func TestAbTEMImageUntrusted(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "crashed")
	data := []float64{1, 2, 3, 4}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, data)
	os.WriteFile(name+".img", buf.Bytes(), 0644)
	os.WriteFile(name+".img.txt", []byte("2 2\n"), 0644)
	//no .out file at all
	sim := NewAbTEMHandle()
	sim.SetName(name)
	image, err := sim.Image()
	if err == nil {
		Te.Error("missing termination marker should be flagged")
	}
	if image == nil {
		Te.Error("the image should still be returned")
	}
}
