// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
shadercat concatenates shader source fragments into one composite
compilation unit, inserting #line directives so that compiler
diagnostics point at the original files. It is meant to be called
from build scripts before handing the composite to the external
shader compiler.

Usage:

	shadercat [flags] fragment.comp ...

The flags are:

	-o string
	  	output path for the composite unit (required)
	-deps string
	  	write one line per consumed fragment to this file,
	  	or - for stdout, for incremental-rebuild tooling
*/
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"cogentcore.org/gputest/compose"
)

var (
	output   = flag.String("o", "", "output path for the composite unit (required)")
	depsFile = flag.String("deps", "", "write one line per consumed fragment to this file, or - for stdout")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("shadercat: ")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: shadercat [flags] fragment.comp ...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *output == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cp := &compose.Composer{}
	var depw io.WriteCloser
	switch *depsFile {
	case "":
	case "-":
		cp.DepWriter = os.Stdout
	default:
		f, err := os.Create(*depsFile)
		if err != nil {
			log.Fatal(err)
		}
		depw = f
		cp.DepWriter = f
	}
	if err := cp.Concatenate(flag.Args(), *output); err != nil {
		log.Fatal(err)
	}
	if depw != nil {
		if err := depw.Close(); err != nil {
			log.Fatal(err)
		}
	}
}
