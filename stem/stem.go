/*
 * stem.go, part of gocrystal.
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

//Package stem allows setting up and running STEM image simulations
//with external multislice engines, and recovering the simulated
//images for analysis and plotting.
package stem

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"

	crystal "github.com/gocrystal/gocrystal"
	"gonum.org/v1/gonum/mat"
)

//Probe holds the settings of a HAADF-STEM simulation: the electron
//probe, the annular detector and the multislice discretization.
type Probe struct {
	Voltage        float64 //acceleration voltage, kV
	Semiangle      float64 //probe convergence semiangle, mrad
	HAADFInner     float64 //detector inner collection angle, mrad
	HAADFOuter     float64 //detector outer collection angle, mrad
	Sampling       float64 //real-space scan sampling, Å
	SliceThickness float64 //multislice slice thickness, Å
	FrozenPhonons  int     //thermal configurations; 0 or 1 means a static lattice
	Seed           int64   //seed for the frozen-phonon displacements
}

//SetDefaults sets the usual settings for imaging a thin SiC slab: a
//200 kV probe with a 25 mrad semiangle, a 90-200 mrad HAADF detector
//and a 0.05 Å scan sampling, with a static lattice.
func (P *Probe) SetDefaults() {
	P.Voltage = 200
	P.Semiangle = 25
	P.HAADFInner = 90
	P.HAADFOuter = 200
	P.Sampling = 0.05
	P.SliceThickness = 1.0
	P.FrozenPhonons = 0
}

//Handle is the interface for STEM simulation drivers, mirroring the
//DFT engine handles: set a name, build the input, run it, then fetch
//the image.
type Handle interface {
	SetName(name string)
	SetCommand(name string)
	BuildInput(structfile string, P *Probe) error
	Run(wait bool) error
	Image() (*mat.Dense, error)
}

//AbTEMHandle drives HAADF-STEM simulations with abTEM. Like the DFT
//drivers, it builds a small Python driver script; the simulated image
//comes back as a raw little-endian float64 dump next to a one-line
//text sidecar with the grid dimensions.
type AbTEMHandle struct {
	command   string
	inputname string
}

//NewAbTEMHandle initializes and returns an AbTEMHandle with default
//settings.
func NewAbTEMHandle() *AbTEMHandle {
	run := new(AbTEMHandle)
	run.command = "python3"
	return run
}

//SetName sets the name of the job. The files used are name.py,
//name.out, name.img and name.img.txt.
func (O *AbTEMHandle) SetName(name string) {
	O.inputname = name
}

//SetCommand sets the interpreter command used to run the driver.
func (O *AbTEMHandle) SetCommand(name string) {
	O.command = name
}

//BuildInput writes the driver script for a HAADF simulation of the
//structure in structfile (any format ASE reads, normally the relaxed
//CIF) with the settings in P.
func (O *AbTEMHandle) BuildInput(structfile string, P *Probe) error {
	if structfile == "" {
		return Error{message: "no structure file given", jobname: O.inputname, critical: true}
	}
	if P == nil {
		return Error{message: "no probe settings given", jobname: O.inputname, critical: true}
	}
	if P.Voltage <= 0 || P.Sampling <= 0 {
		return Error{message: "voltage and sampling must be positive", jobname: O.inputname, critical: true}
	}
	var in strings.Builder
	in.WriteString("import numpy as np\n")
	in.WriteString("from ase.io import read\n")
	in.WriteString("from abtem import Probe, Potential, GridScan, AnnularDetector\n")
	if P.FrozenPhonons > 1 {
		in.WriteString("from abtem import FrozenPhonons\n")
	}
	in.WriteString("\n")
	fmt.Fprintf(&in, "atoms = read(%q)\n", structfile)
	if P.FrozenPhonons > 1 {
		fmt.Fprintf(&in, "atoms = FrozenPhonons(atoms, num_configs=%d, sigmas=0.1, seed=%d)\n",
			P.FrozenPhonons, P.Seed)
	}
	fmt.Fprintf(&in, "potential = Potential(atoms, sampling=%g, slice_thickness=%g)\n",
		P.Sampling, P.SliceThickness)
	fmt.Fprintf(&in, "probe = Probe(energy=%g, semiangle_cutoff=%g)\n",
		P.Voltage*1000, P.Semiangle)
	fmt.Fprintf(&in, "detector = AnnularDetector(inner=%g, outer=%g)\n",
		P.HAADFInner, P.HAADFOuter)
	in.WriteString("scan = GridScan(potential=potential)\n")
	in.WriteString("measurement = probe.scan(scan, detector, potential)\n")
	in.WriteString("image = np.asarray(measurement.array, dtype='<f8')\n")
	fmt.Fprintf(&in, "image.tofile(%q)\n", O.inputname+".img")
	fmt.Fprintf(&in, "with open(%q, 'w') as fh:\n", O.inputname+".img.txt")
	in.WriteString("    fh.write('%d %d\\n' % image.shape)\n")
	in.WriteString("print('GOCRYSTAL SHAPE %d %d' % image.shape)\n")
	in.WriteString("print('GOCRYSTAL TERMINATED NORMALLY')\n")
	file, err := os.Create(O.inputname + ".py")
	if err != nil {
		return errDecorate(err, "BuildInput")
	}
	defer file.Close()
	_, err = file.WriteString(in.String())
	return err
}

//Run runs the simulation set up previously, waiting or not for the
//result depending on wait.
func (O *AbTEMHandle) Run(wait bool) (err error) {
	if wait {
		out, err := os.Create(O.inputname + ".out")
		if err != nil {
			return err
		}
		defer out.Close()
		command := exec.Command(O.command, O.inputname+".py")
		command.Stdout = out
		command.Stderr = out
		err = command.Run()
		return err
	}
	command := exec.Command("sh", "-c", "nohup "+O.command+fmt.Sprintf(" %s.py > %s.out 2>&1 &", O.inputname, O.inputname))
	err = command.Start()
	return err
}

//Image reads the simulated image of a previous run into a dense
//matrix, row i being scan row i. It returns the image AND an error if
//the job's normal termination cannot be confirmed.
func (O *AbTEMHandle) Image() (*mat.Dense, error) {
	var rows, cols int
	sidecar, err := os.Open(O.inputname + ".img.txt")
	if err != nil {
		return nil, errDecorate(err, "Image")
	}
	_, err = fmt.Fscan(sidecar, &rows, &cols)
	sidecar.Close()
	if err != nil {
		return nil, errDecorate(err, "Image")
	}
	if rows <= 0 || cols <= 0 {
		return nil, Error{message: fmt.Sprintf("bad image dimensions %dx%d", rows, cols), jobname: O.inputname, critical: true}
	}
	f, err := os.Open(O.inputname + ".img")
	if err != nil {
		return nil, errDecorate(err, "Image")
	}
	defer f.Close()
	data := make([]float64, rows*cols)
	if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, data); err != nil {
		return nil, errDecorate(err, "Image")
	}
	for _, v := range data {
		if math.IsNaN(v) {
			return nil, Error{message: "image contains NaN values", jobname: O.inputname, critical: true}
		}
	}
	image := mat.NewDense(rows, cols, data)
	if !O.normalTermination() {
		return image, Error{message: "probable problem in calculation", jobname: O.inputname}
	}
	return image, nil
}

//normalTermination checks the job's captured output for the normal
//termination marker.
func (O *AbTEMHandle) normalTermination() bool {
	f, err := os.Open(O.inputname + ".out")
	if err != nil {
		return false
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), "GOCRYSTAL TERMINATED NORMALLY") {
			return true
		}
	}
	return false
}

//Error is the concrete error type of this package. It implements
//crystal.Error.
type Error struct {
	message  string
	jobname  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	if err.jobname == "" {
		return "stem: " + err.message
	}
	return "stem: job " + err.jobname + ": " + err.message
}

func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func (err Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	err2, ok := err.(crystal.Error)
	if !ok {
		return Error{message: err.Error(), deco: []string{caller}, critical: true}
	}
	err2.Decorate(caller)
	return err2
}
