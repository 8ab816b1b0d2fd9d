/*
 * errors.go, part of gocrystal.
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

package crystal

import "fmt"

//Error is the interface for errors that all packages in this library
//implement. The Decorate method allows to add and retrieve info from the
//error, without changing its type or wrapping it around something else.
//The decorate slice should contain a list of functions in the calling stack,
//plus, for each function, any relevant information, or nothing. If
//information is to be added to an element of the slice, it should be in this
//format: "FunctionName: Extra info".
type Error interface {
	Error() string
	Decorate(string) []string
	Critical() bool
}

//CError (Concrete Error) is the concrete type implementing Error in this
//package. Files read/written by the package set the filename field so the
//offending file can be reported up the stack.
type CError struct {
	msg      string
	filename string
	deco     []string
	critical bool
}

func (err CError) Error() string {
	if err.filename == "" {
		return err.msg
	}
	return fmt.Sprintf("%s (file: %s)", err.msg, err.filename)
}

//Decorate adds the dec string to the decoration slice, unless dec is empty,
//and returns the resulting slice. Even though the receiver is not a pointer,
//this works, as deco is a slice, hence a pointer itself.
func (err CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns true if the error is critical, false otherwise.
func (err CError) Critical() bool { return err.critical }

//FileName returns the file associated to the error, or an empty string.
func (err CError) FileName() string { return err.filename }

//errDecorate asserts that the given error implements Error, decorates it
//with the caller's name and returns it. If err is some other error type,
//it gets wrapped in a CError first, so library users can always rely on
//the Decorate information being present.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	err2, ok := err.(Error)
	if !ok {
		err2 = CError{msg: err.Error(), critical: true}
	}
	err2.Decorate(caller)
	return err2
}
