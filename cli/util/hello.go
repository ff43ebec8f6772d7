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
package util

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Banner describes how the daemon is being started: what it is, which config
// it reads, which windows it opens and which extras are on.
func Banner(program, version, config string, windows []string, extras ...string) []string {
	if program == "" {
		program = "<unknown>"
	}
	lines := []string{
		fmt.Sprintf("this is: %s, version: %s", program, version),
		fmt.Sprintf("config: %s", config),
	}
	if len(windows) == 0 {
		lines = append(lines, "windows: none, send an open command to show one")
	} else {
		lines = append(lines, fmt.Sprintf("windows: %s", strings.Join(windows, ", ")))
	}
	if len(extras) > 0 {
		lines = append(lines, fmt.Sprintf("extras: %s", strings.Join(extras, ", ")))
	}
	return lines
}

// Hello sets up the standard logger and prints the startup banner.
func Hello(data *Data, config string, windows []string, extras ...string) {
	logFlags := log.LstdFlags
	if data.Flags.Debug {
		logFlags = logFlags + log.Lshortfile
	}
	logFlags = logFlags - log.Ldate // the bar runs for a day at most
	log.SetFlags(logFlags)
	log.SetOutput(os.Stderr)

	logf := data.Flags.Logf
	if logf == nil {
		logf = log.Printf
	}
	for _, line := range Banner(data.Program, data.Version, config, windows, extras...) {
		logf("main: %s", line)
	}
}
