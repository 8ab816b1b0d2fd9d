/*
 * gpaw.go, part of gocrystal.
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
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	crystal "github.com/gocrystal/gocrystal"
	v3 "github.com/gocrystal/gocrystal/v3"
)

//GPAWHandle drives periodic DFT calculations with GPAW. GPAW has no
//input-file format of its own; the "input" built here is a small
//driver script fed to the gpaw-bundled Python interpreter, which
//prints the results this package parses in marked lines at the end of
//the job's standard output.
type GPAWHandle struct {
	command   string
	inputname string
	nCPU      int
	optimize  bool //set by BuildInput, used when parsing
}

//NewGPAWHandle initializes and returns a GPAWHandle with the default
//settings.
func NewGPAWHandle() *GPAWHandle {
	run := new(GPAWHandle)
	run.SetDefaults()
	return run
}

//SetDefaults sets the command to "gpaw" (it must be in the PATH) and
//the job to run in serial. These are NOT part of the API and may
//change between versions.
func (O *GPAWHandle) SetDefaults() {
	O.command = "gpaw"
	O.nCPU = 1
}

//SetnCPU sets the number of MPI ranks to be used.
func (O *GPAWHandle) SetnCPU(cpu int) {
	O.nCPU = cpu
}

//SetName sets the name of the job. The files used are name.py,
//name.out, name.txt, name.gpw and, for relaxations, name.xyz,
//name.pckl and name_traj.xyz.
func (O *GPAWHandle) SetName(name string) {
	O.inputname = name
}

//SetCommand sets the launcher command, including any path needed.
func (O *GPAWHandle) SetCommand(name string) {
	O.command = name
}

//Checkpoint returns the path of the binary restart file the job
//writes. The file is opaque to this library; it is only ever handed
//back to GPAW through Calc.RestartFrom.
func (O *GPAWHandle) Checkpoint() string {
	return O.inputname + ".gpw"
}

//TrajectoryFile returns the path of the multi-frame XYZ file written
//during a relaxation, one frame per optimizer step.
func (O *GPAWHandle) TrajectoryFile() string {
	return O.inputname + "_traj.xyz"
}

//RestartFile returns the path of the optimizer's own restart file
//(the approximate Hessian). Like the checkpoint, it is opaque here;
//rerunning a relaxation with the same name picks it up.
func (O *GPAWHandle) RestartFile() string {
	return O.inputname + ".pckl"
}

//BuildInput writes the driver script for a calculation on cr with the
//parameters in Q. If Q.RestartFrom names a checkpoint, the structure
//and converged density are taken from there; otherwise the script
//embeds cr's cell and coordinates.
func (O *GPAWHandle) BuildInput(cr *crystal.Crystal, Q *Calc) error {
	if cr == nil || cr.Len() == 0 {
		return Error{message: "no structure given", jobname: O.inputname, critical: true}
	}
	if Q == nil {
		return Error{message: "no calculation parameters given", jobname: O.inputname, critical: true}
	}
	if Q.Mode == "" {
		fmt.Fprintf(os.Stderr, "no mode assigned for GPAW calculation, will use lcao\n")
		Q.Mode = "lcao"
	}
	if Q.XC == "" {
		fmt.Fprintf(os.Stderr, "no functional assigned for GPAW calculation, will use PBE\n")
		Q.XC = "PBE"
	}
	O.optimize = Q.Optimize
	txt := Q.TxtLog
	if txt == "" {
		txt = O.inputname + ".txt"
	}
	var in strings.Builder
	in.WriteString("import numpy as np\n")
	in.WriteString("from ase.io import write\n")
	if Q.Optimize {
		in.WriteString("from ase.optimize import BFGS\n")
	}
	if Q.RestartFrom != "" {
		in.WriteString("from gpaw import restart\n\n")
		fmt.Fprintf(&in, "atoms, calc = restart(%q, txt=%q)\n", Q.RestartFrom, txt)
		in.WriteString("atoms.wrap()\n")
	} else {
		in.WriteString("from ase import Atoms\n")
		in.WriteString("from gpaw import GPAW\n\n")
		if err := writeAtoms(&in, cr); err != nil {
			return errDecorate(err, "BuildInput")
		}
		fmt.Fprintf(&in, "calc = GPAW(mode=%q,\n", Q.Mode)
		if Q.Basis != "" {
			fmt.Fprintf(&in, "            basis=%q,\n", Q.Basis)
		}
		fmt.Fprintf(&in, "            xc=%q,\n", Q.XC)
		fmt.Fprintf(&in, "            kpts=(%d, %d, %d),\n", Q.Kpts[0], Q.Kpts[1], Q.Kpts[2])
		fmt.Fprintf(&in, "            convergence={'energy': %g, 'density': %g, 'eigenstates': %g},\n",
			Q.ConvEnergy, Q.ConvDensity, Q.ConvEigen)
		fmt.Fprintf(&in, "            txt=%q)\n", txt)
		in.WriteString("atoms.calc = calc\n")
	}
	in.WriteString("\n")
	if Q.Optimize {
		//the attach hook appends, so a leftover trajectory from a
		//previous run would contaminate this one.
		os.Remove(O.TrajectoryFile())
		fmt.Fprintf(&in, "opt = BFGS(atoms, logfile=%q, restart=%q)\n", O.inputname+".opt.log", O.RestartFile())
		fmt.Fprintf(&in, "opt.attach(lambda: write(%q, atoms, append=True))\n", O.TrajectoryFile())
		fmt.Fprintf(&in, "converged = opt.run(fmax=%g, steps=%d)\n", Q.Fmax, Q.MaxSteps)
		fmt.Fprintf(&in, "write(%q, atoms)\n", O.inputname+".xyz")
	} else {
		in.WriteString("atoms.get_potential_energy()\n")
		in.WriteString("converged = True\n")
	}
	fmt.Fprintf(&in, "calc.write(%q, mode='all')\n", O.Checkpoint())
	in.WriteString("e = atoms.get_potential_energy()\n")
	in.WriteString("f = atoms.get_forces()\n")
	in.WriteString("fmax = float(np.sqrt((f**2).sum(axis=1).max()))\n")
	in.WriteString("print('GOCRYSTAL ENERGY %.8f' % e)\n")
	in.WriteString("print('GOCRYSTAL FMAX %.8f' % fmax)\n")
	in.WriteString("print('GOCRYSTAL STATUS %s' % ('CONVERGED' if converged else 'NOTCONVERGED'))\n")
	in.WriteString("print('GOCRYSTAL TERMINATED NORMALLY')\n")
	file, err := os.Create(O.inputname + ".py")
	if err != nil {
		return errDecorate(err, "BuildInput")
	}
	defer file.Close()
	_, err = file.WriteString(in.String())
	return err
}

//writeAtoms embeds the symbols, Cartesian coordinates and cell of cr
//in the script, building a periodic Atoms object.
func writeAtoms(in *strings.Builder, cr *crystal.Crystal) error {
	in.WriteString("symbols = [")
	for i := 0; i < cr.Len(); i++ {
		if i > 0 {
			in.WriteString(", ")
		}
		fmt.Fprintf(in, "%q", cr.Atom(i).Symbol)
	}
	in.WriteString("]\n")
	in.WriteString("positions = [\n")
	for i := 0; i < cr.Len(); i++ {
		v := cr.Coords.VecView(i)
		fmt.Fprintf(in, "    [%.8f, %.8f, %.8f],\n", v.At(0, 0), v.At(0, 1), v.At(0, 2))
	}
	in.WriteString("]\n")
	in.WriteString("cell = [\n")
	for i := 0; i < 3; i++ {
		v := cr.Cell().Vector(i)
		fmt.Fprintf(in, "    [%.8f, %.8f, %.8f],\n", v.At(0, 0), v.At(0, 1), v.At(0, 2))
	}
	in.WriteString("]\n")
	in.WriteString("atoms = Atoms(symbols=symbols, positions=positions, cell=cell, pbc=True)\n")
	return nil
}

//Run runs the calculation set up previously. It waits or not for the
//result depending on wait. In both cases the standard output goes to
//name.out, which is later parsed for results.
func (O *GPAWHandle) Run(wait bool) (err error) {
	args := []string{"python", O.inputname + ".py"}
	if O.nCPU > 1 {
		args = append([]string{"-P", strconv.Itoa(O.nCPU)}, args...)
	}
	if wait {
		out, err := os.Create(O.inputname + ".out")
		if err != nil {
			return err
		}
		defer out.Close()
		command := exec.Command(O.command, args...)
		command.Stdout = out
		command.Stderr = out
		err = command.Run()
		return err
	}
	command := exec.Command("sh", "-c", "nohup "+O.command+" "+strings.Join(args, " ")+fmt.Sprintf(" > %s.out 2>&1 &", O.inputname))
	err = command.Start()
	return err
}

//Energy returns the potential energy, in eV, of a previous GPAW
//calculation. It returns an error if the output cannot be parsed, and
//the energy plus a "probable problem" error if the job did not
//terminate normally.
func (O *GPAWHandle) Energy() (float64, error) {
	res, err := O.parseOutput()
	if err != nil {
		return 0, err
	}
	if !res.normal {
		return res.energy, Error{message: ProbableProblem, jobname: O.inputname}
	}
	return res.energy, nil
}

//MaxForce returns the largest per-atom force norm, in eV/Å, of a
//previous GPAW calculation. Errors are as in Energy.
func (O *GPAWHandle) MaxForce() (float64, error) {
	res, err := O.parseOutput()
	if err != nil {
		return 0, err
	}
	if !res.normal {
		return res.fmax, Error{message: ProbableProblem, jobname: O.inputname}
	}
	return res.fmax, nil
}

//Converged reports whether a previous calculation met its convergence
//target: the SCF thresholds for a static run, the force tolerance
//within the step limit for a relaxation.
func (O *GPAWHandle) Converged() (bool, error) {
	res, err := O.parseOutput()
	if err != nil {
		return false, err
	}
	if !res.normal {
		return false, Error{message: ProbableProblem, jobname: O.inputname}
	}
	return res.converged, nil
}

//OptimizedGeometry reads the latest geometry from a GPAW relaxation.
//It returns the geometry AND an error if the geometry read is not the
//product of a normally-terminated job; in that case the error is
//"probable problem in calculation" and the caller decides whether to
//trust the coordinates.
func (O *GPAWHandle) OptimizedGeometry(cr *crystal.Crystal) (*v3.Matrix, error) {
	var err error
	if res, err1 := O.parseOutput(); err1 != nil || !res.normal {
		err = Error{message: ProbableProblem, jobname: O.inputname}
	}
	atoms, coords, err1 := crystal.XYZFileRead(O.inputname + ".xyz")
	if err1 != nil {
		return nil, errDecorate(err1, "OptimizedGeometry")
	}
	if len(atoms) != cr.Len() {
		return nil, Error{message: fmt.Sprintf("geometry has %d atoms, expected %d", len(atoms), cr.Len()), jobname: O.inputname, critical: true}
	}
	return coords, err
}

type gpawResults struct {
	energy    float64
	fmax      float64
	converged bool
	normal    bool
	hasEnergy bool
}

//parseOutput scans name.out for the marked result lines. The engine's
//own SCF log goes to the txt file, so the output stays small and a
//forward scan keeping the last match of each marker is enough.
func (O *GPAWHandle) parseOutput() (*gpawResults, error) {
	f, err := os.Open(O.inputname + ".out")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res := new(gpawResults)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "GOCRYSTAL ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[1] {
		case "ENERGY":
			if len(fields) < 3 {
				continue
			}
			res.energy, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, errDecorate(err, "parseOutput")
			}
			res.hasEnergy = true
		case "FMAX":
			if len(fields) < 3 {
				continue
			}
			res.fmax, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, errDecorate(err, "parseOutput")
			}
		case "STATUS":
			if len(fields) >= 3 {
				res.converged = fields[2] == "CONVERGED"
			}
		case "TERMINATED":
			res.normal = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !res.hasEnergy {
		return nil, Error{message: "output does not contain an energy", jobname: O.inputname, critical: true}
	}
	return res, nil
}
