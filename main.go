// Mgmt
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/purpleidea/barstate/cli"
	cliUtil "github.com/purpleidea/barstate/cli/util"
	"github.com/purpleidea/barstate/util/pprof"
)

// These constants are some global variables that are used throughout the code.
const (
	tagline = "reactive widget state daemon"
	debug   = false // add additional log messages
	verbose = false // add extra log message output
)

// set at compile time
var (
	program = "barstate"
	version = "0.0.1-dev"
)

func main() {
	data := &cliUtil.Data{
		Program: program,
		Version: version,
		Tagline: tagline,
		Flags: cliUtil.Flags{
			Debug:   debug,
			Verbose: verbose,
			Logf: func(format string, v ...interface{}) {
				log.Printf(program+": "+format, v...)
			},
		},
		Args: os.Args,
	}

	ctx, cancel := context.WithCancel(context.Background())
	profiled, err := pprof.Run(ctx, data.Flags.Logf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
		return
	}
	err = cli.CLI(ctx, data)
	cancel()
	<-profiled // wait for the profile to be written
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
		return
	}
}
