/*
 * dft_test.go, part of gocrystal.
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

package dft

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	crystal "github.com/gocrystal/gocrystal"
)

func TestGPAWBuildInput(Te *testing.T) {
	cr, err := crystal.CIFFileRead("../test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	dir := Te.TempDir()
	Q := new(Calc)
	Q.SetDefaults()
	gpaw := NewGPAWHandle()
	gpaw.SetName(filepath.Join(dir, "static"))
	if err := gpaw.BuildInput(cr, Q); err != nil {
		Te.Fatal(err)
	}
	script, err := os.ReadFile(filepath.Join(dir, "static.py"))
	if err != nil {
		Te.Fatal(err)
	}
	text := string(script)
	for _, want := range []string{
		"mode=\"lcao\"",
		"basis=\"dzp\"",
		"xc=\"PBE\"",
		"'energy': 1e-05",
		"'density': 0.001",
		"'eigenstates': 1e-08",
		"pbc=True",
		"GOCRYSTAL ENERGY",
	} {
		if !strings.Contains(text, want) {
			Te.Errorf("script lacks %q", want)
		}
	}
	if strings.Contains(text, "BFGS") {
		Te.Error("static script should not set up an optimizer")
	}
	fmt.Println("static driver script built")
}

func TestGPAWBuildInputRestart(Te *testing.T) {
	cr, err := crystal.CIFFileRead("../test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	dir := Te.TempDir()
	Q := new(Calc)
	Q.SetDefaults()
	Q.Optimize = true
	Q.RestartFrom = "preconverged.gpw"
	gpaw := NewGPAWHandle()
	gpaw.SetName(filepath.Join(dir, "relax"))
	if err := gpaw.BuildInput(cr, Q); err != nil {
		Te.Fatal(err)
	}
	script, err := os.ReadFile(filepath.Join(dir, "relax.py"))
	if err != nil {
		Te.Fatal(err)
	}
	text := string(script)
	if !strings.Contains(text, "restart(\"preconverged.gpw\"") {
		Te.Error("relax script does not restart from the checkpoint")
	}
	if !strings.Contains(text, "atoms.wrap()") {
		Te.Error("restarted script does not wrap the atoms back into the cell")
	}
	if strings.Contains(text, "positions = [") {
		Te.Error("restarted script should not embed coordinates")
	}
	if !strings.Contains(text, "fmax=0.05") || !strings.Contains(text, "steps=50") {
		Te.Error("relax script lacks the optimizer settings")
	}
	if !strings.Contains(text, fmt.Sprintf("restart=%q", gpaw.RestartFile())) {
		Te.Error("optimizer is not given its restart file, a rerun would rebuild the Hessian")
	}
	if gpaw.Checkpoint() != filepath.Join(dir, "relax.gpw") {
		Te.Errorf("wrong checkpoint path %s", gpaw.Checkpoint())
	}
}

//a leftover step trajectory must not leak into the next run, since the
//script appends to it frame by frame.
func TestGPAWBuildInputClearsTrajectory(Te *testing.T) {
	cr, err := crystal.CIFFileRead("../test/4H_SiC.cif")
	if err != nil {
		Te.Fatal(err)
	}
	dir := Te.TempDir()
	Q := new(Calc)
	Q.SetDefaults()
	Q.Optimize = true
	Q.RestartFrom = "preconverged.gpw"
	gpaw := NewGPAWHandle()
	gpaw.SetName(filepath.Join(dir, "relax"))
	stale := []byte("1\nleftover frame\nSi 0.0 0.0 0.0\n")
	if err := os.WriteFile(gpaw.TrajectoryFile(), stale, 0644); err != nil {
		Te.Fatal(err)
	}
	if err := gpaw.BuildInput(cr, Q); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(gpaw.TrajectoryFile()); !os.IsNotExist(err) {
		Te.Error("stale trajectory survived BuildInput")
	}
}

//writes a fake engine output and checks the result parsing.
func TestGPAWParseOutput(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "job")
	out := "some engine banner\n" +
		"GOCRYSTAL ENERGY -307.26650100\n" +
		"GOCRYSTAL FMAX 0.04213000\n" +
		"GOCRYSTAL STATUS CONVERGED\n" +
		"GOCRYSTAL TERMINATED NORMALLY\n"
	if err := os.WriteFile(name+".out", []byte(out), 0644); err != nil {
		Te.Fatal(err)
	}
	gpaw := NewGPAWHandle()
	gpaw.SetName(name)
	energy, err := gpaw.Energy()
	if err != nil {
		Te.Fatal(err)
	}
	if energy > -307.26 || energy < -307.27 {
		Te.Errorf("wrong energy %f", energy)
	}
	fmax, err := gpaw.MaxForce()
	if err != nil {
		Te.Fatal(err)
	}
	if fmax > 0.043 || fmax < 0.042 {
		Te.Errorf("wrong fmax %f", fmax)
	}
	conv, err := gpaw.Converged()
	if err != nil {
		Te.Fatal(err)
	}
	if !conv {
		Te.Error("calculation should be reported converged")
	}
	fmt.Println("parsed energy", energy, "fmax", fmax)
}

func TestGPAWAbnormalTermination(Te *testing.T) {
	dir := Te.TempDir()
	name := filepath.Join(dir, "crashed")
	out := "GOCRYSTAL ENERGY -10.5\nTraceback (most recent call last):\n"
	if err := os.WriteFile(name+".out", []byte(out), 0644); err != nil {
		Te.Fatal(err)
	}
	gpaw := NewGPAWHandle()
	gpaw.SetName(name)
	energy, err := gpaw.Energy()
	if err == nil {
		Te.Error("abnormal termination should be flagged")
	}
	if energy != -10.5 {
		Te.Errorf("energy should still be returned, got %f", energy)
	}
	if _, err := gpaw.Converged(); err == nil {
		Te.Error("Converged should not trust a crashed job")
	}
}
