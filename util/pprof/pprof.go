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

// Package pprof is a simple wrapper around the pprof utility code which we use.
package pprof

import (
	"context"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/purpleidea/barstate/util/errwrap"
)

// EnvName is the environment variable that holds the path to write a CPU
// profile to.
const EnvName = "BARSTATE_PPROF_PATH"

// Run looks in EnvName for the path to log pprof data to and if it finds it, it
// begins profiling until the context closes. If the variable is empty or not an
// absolute path, it does nothing. The returned channel closes once the profile
// was written. Example usage:
// BARSTATE_PPROF_PATH=/tmp/out.pprof ./barstate run --config bar.yaml
// go tool pprof -no_browser -http :10000 /tmp/out.pprof
func Run(ctx context.Context, logf func(format string, v ...interface{})) (<-chan struct{}, error) {
	done := make(chan struct{})
	s := os.Getenv(EnvName)
	if s == "" || !filepath.IsAbs(s) {
		close(done)
		return done, nil // not activated
	}
	logf("pprof logging to: %s", s)

	f, err := os.Create(s)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not create CPU profile")
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, errwrap.Wrapf(err, "could not start CPU profile")
	}

	go func() {
		defer close(done)
		<-ctx.Done()
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			logf("pprof write error: %v", err)
			return
		}
		logf("pprof wrote file to: %s", s)
	}()
	return done, nil
}
