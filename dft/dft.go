/*
 * dft.go, part of gocrystal.
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

//Package dft allows setting up and running periodic DFT calculations
//with external engines. The engines do all the actual work; this
//package builds their inputs, launches them and parses their outputs.
package dft

import (
	crystal "github.com/gocrystal/gocrystal"
	v3 "github.com/gocrystal/gocrystal/v3"
)

//Handle is the interface for DFT engine drivers. A Handle is good for
//one calculation at a time: set a name, build the input, run it, then
//query the results.
type Handle interface {

	//SetName sets the name for the job, used for input and output
	//files. The extensions depend on the engine.
	SetName(name string)

	//SetCommand sets the launcher command for the engine, including
	//any path needed.
	SetCommand(name string)

	//BuildInput builds an input for the engine based on the structure
	//in cr and the calculation parameters in Q.
	BuildInput(cr *crystal.Crystal, Q *Calc) error

	//Run runs the engine for a calculation previously set up. It waits
	//or not for the result depending on the value of wait.
	Run(wait bool) error

	//Energy returns the last potential energy, in eV, by parsing the
	//engine's output. It returns an error if the parse fails, and
	//the energy plus a non-nil error ("probable problem in
	//calculation") if the calculation did not end properly.
	Energy() (float64, error)

	//MaxForce returns the largest per-atom force norm, in eV/Å, from
	//the last calculation.
	MaxForce() (float64, error)

	//Converged reports whether the last calculation reached its
	//convergence target.
	Converged() (bool, error)

	//OptimizedGeometry reads the relaxed geometry from the engine
	//output. The number of atoms must match cr.
	OptimizedGeometry(cr *crystal.Crystal) (*v3.Matrix, error)

	//Checkpoint returns the path of the engine-owned restart file
	//written by the last calculation (opaque to this library).
	Checkpoint() string
}

//Calc holds the parameters of a DFT calculation. The zero value is not
//usable; call SetDefaults or fill the fields explicitly.
type Calc struct {
	Mode        string //lcao, fd or pw
	Basis       string //basis set for lcao mode, e.g. dzp
	XC          string //exchange-correlation functional
	Kpts        [3]int //k-point grid
	ConvEnergy  float64
	ConvDensity float64
	ConvEigen   float64
	Optimize    bool    //relax positions after (or instead of) the static run
	Fmax        float64 //force tolerance for relaxation, eV/Å
	MaxSteps    int     //max relaxation steps
	RestartFrom string  //path to a checkpoint to restart from; empty starts fresh
	TxtLog      string  //engine text log; empty lets the driver choose
}

//SetDefaults sets the parameters used throughout the tutorial: an LCAO
//dzp/PBE static calculation at the Gamma point with the usual SCF
//thresholds, and the 0.05 eV/Å - 50 step relaxation settings.
func (Q *Calc) SetDefaults() {
	Q.Mode = "lcao"
	Q.Basis = "dzp"
	Q.XC = "PBE"
	Q.Kpts = [3]int{1, 1, 1}
	Q.ConvEnergy = 1e-5
	Q.ConvDensity = 1e-3
	Q.ConvEigen = 1e-8
	Q.Fmax = 0.05
	Q.MaxSteps = 50
}

//Errors

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
		return "dft: " + err.message
	}
	return "dft: job " + err.jobname + ": " + err.message
}

//Decorate adds the dec string to the decoration slice, unless dec is
//empty, and returns the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns true if the error is critical, false otherwise.
func (err Error) Critical() bool { return err.critical }

const (
	//ProbableProblem marks results parsed from an output whose normal
	//termination could not be confirmed. Callers get the value AND an
	//error carrying this message, and decide what to trust.
	ProbableProblem = "probable problem in calculation"
)

//errDecorate asserts that err implements crystal.Error, decorates it
//with the caller's name and returns it.
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
